package config

import (
	"strings"
	"testing"
)

func TestLoad_EmbeddedEnvironments(t *testing.T) {
	for _, name := range []string{"development", "staging", "production", "test"} {
		t.Run(name, func(t *testing.T) {
			env, err := Load(name)
			if err != nil {
				t.Fatalf("Load(%q) failed: %v", name, err)
			}
			if env.Name != name {
				t.Errorf("Expected name %q, got %q", name, env.Name)
			}
			if env.StagingHost != DefaultStagingHost {
				t.Errorf("Expected staging host %q, got %q", DefaultStagingHost, env.StagingHost)
			}
		})
	}
}

func TestLoad_Unknown(t *testing.T) {
	if _, err := Load("moon"); err == nil {
		t.Fatal("Expected error for unknown environment")
	}
}

func TestEnvironment_Flags(t *testing.T) {
	prod, _ := Load("production")
	if !prod.IsProduction() || prod.IsTest() {
		t.Error("production flags wrong")
	}
	test, _ := Load("test")
	if !test.IsTest() || test.IsProduction() {
		t.Error("test flags wrong")
	}
	if !test.ChooseDomainDisabled {
		t.Error("Expected choose-domain to be disabled in the test environment")
	}
}

func TestParse_Overrides(t *testing.T) {
	doc := []byte("name: custom\nhost: https://chatgrape.com/\nappId: x\n")
	getenv := func(key string) string {
		switch key {
		case EnvHost:
			return "https://acme.chatgrape.com/"
		case EnvLocale:
			return "de"
		}
		return ""
	}

	env, err := Parse(doc, getenv)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if env.Host != "https://acme.chatgrape.com" {
		t.Errorf("Expected overridden host without trailing slash, got %q", env.Host)
	}
	if env.Locale != "de" {
		t.Errorf("Expected locale override, got %q", env.Locale)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no name", "host: https://a.com\nappId: x\n", "name is required"},
		{"no app id", "name: a\nhost: https://a.com\n", "appId"},
		{"relative host", "name: a\nappId: x\nhost: /chat\n", "absolute"},
		{"ftp host", "name: a\nappId: x\nhost: ftp://a.com\n", "absolute"},
		{"bad yaml", "name: [", "parse environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), nil)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNames(t *testing.T) {
	names := strings.Join(Names(), ",")
	for _, want := range []string{"production", "test"} {
		if !strings.Contains(names, want) {
			t.Errorf("Expected %q in %q", want, names)
		}
	}
}
