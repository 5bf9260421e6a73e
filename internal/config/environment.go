// Package config loads the shell's environment settings from the YAML files
// embedded at build time.
package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed envs/*.yaml
var envFiles embed.FS

// Environment names with special behaviour
const (
	Production = "production"
	Test       = "test"
)

// DefaultStagingHost is the certificate-exempt hostname substring
const DefaultStagingHost = "staging.chatgrape.com"

// Environment overrides read from the process environment
const (
	EnvHost   = "GRAPE_HOST"
	EnvLocale = "GRAPE_LOCALE"
)

// Environment describes one deployment target of the shell
type Environment struct {
	Name                 string `yaml:"name"`
	Host                 string `yaml:"host"`
	AppID                string `yaml:"appId"`
	DomainURL            string `yaml:"domainUrl"`
	ChooseDomainDisabled bool   `yaml:"chooseDomainDisabled"`
	StagingHost          string `yaml:"stagingHost"`
	Locale               string `yaml:"locale"`
}

// IsProduction reports whether this is the production environment
func (e *Environment) IsProduction() bool { return e.Name == Production }

// IsTest reports whether this is the test environment
func (e *Environment) IsTest() bool { return e.Name == Test }

// Load reads the embedded environment called name and applies overrides
func Load(name string) (*Environment, error) {
	data, err := envFiles.ReadFile("envs/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown environment %q", name)
	}
	return Parse(data, os.Getenv)
}

// Parse decodes an environment document. getenv supplies overrides and may be nil.
func Parse(data []byte, getenv func(string) string) (*Environment, error) {
	env := &Environment{}
	if err := yaml.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if getenv != nil {
		if host := getenv(EnvHost); host != "" {
			env.Host = host
		}
		if locale := getenv(EnvLocale); locale != "" {
			env.Locale = locale
		}
	}

	if env.StagingHost == "" {
		env.StagingHost = DefaultStagingHost
	}
	if env.Locale == "" {
		env.Locale = "en"
	}
	env.Host = strings.TrimRight(env.Host, "/")

	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// Validate checks the required fields
func (e *Environment) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("environment name is required")
	}
	if e.AppID == "" {
		return fmt.Errorf("environment %s: appId is required", e.Name)
	}
	u, err := url.Parse(e.Host)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("environment %s: host %q must be an absolute http(s) URL", e.Name, e.Host)
	}
	if e.DomainURL != "" {
		if d, err := url.Parse(e.DomainURL); err != nil || d.Host == "" {
			return fmt.Errorf("environment %s: domainUrl %q must be an absolute URL", e.Name, e.DomainURL)
		}
	}
	return nil
}

// Names lists the embedded environments
func Names() []string {
	entries, err := envFiles.ReadDir("envs")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	return names
}
