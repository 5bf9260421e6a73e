// Package urlloader decides what the main window shows and remembers the
// last chat URL between launches.
package urlloader

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"grape/internal/config"
	shellerrors "grape/internal/infrastructure/errors"
	"grape/internal/infrastructure/logging"
	"grape/internal/offline"
	"grape/internal/preferences"
	"grape/internal/proxy"
)

// Navigator replaces the page shown in the main window
type Navigator interface {
	Navigate(path string)
}

// Upstream selects the origin the webview proxies to
type Upstream interface {
	SetUpstream(u *url.URL)
}

// Loader navigates the main window
type Loader struct {
	env      *config.Environment
	store    preferences.Store
	probe    offline.Checker
	upstream Upstream
	nav      Navigator
	logger   logging.Logger
}

// New creates a loader
func New(env *config.Environment, store preferences.Store, probe offline.Checker, upstream Upstream, nav Navigator, logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Loader{
		env:      env,
		store:    store,
		probe:    probe,
		upstream: upstream,
		nav:      nav,
		logger:   logger,
	}
}

// Load shows rawURL and remembers it as the last URL. The test environment
// shows the local diagnostic page instead and remembers nothing. An
// unreachable host shows the offline page.
func (l *Loader) Load(ctx context.Context, rawURL string) error {
	if l.env.IsTest() {
		l.logger.Debug("Test environment, loading diagnostic page", "requested", rawURL)
		l.nav.Navigate(proxy.SpecPage)
		return nil
	}

	u, err := parseWebURL(rawURL)
	if err != nil {
		return shellerrors.NewWithContext("urlloader.Load", err, shellerrors.ErrCodeNavigation,
			map[string]string{"url": rawURL})
	}

	if !l.probe.Reachable(ctx, rawURL) {
		l.logger.Warn("Host unreachable, showing offline page", "url", rawURL)
		l.nav.Navigate(proxy.OfflinePage)
		return nil
	}

	l.show(u)

	if err := l.store.Set(ctx, preferences.KeyLastURL, preferences.LastURL{URL: rawURL}); err != nil {
		return shellerrors.WrapStorageError("urlloader.Load", err, map[string]string{"url": rawURL})
	}
	return nil
}

func (l *Loader) show(u *url.URL) {
	l.upstream.SetUpstream(u)
	l.nav.Navigate(pathOf(u))
	l.logger.Info("Loading URL", "url", u.String())
}

// LoadApp goes back to the configured chat host
func (l *Loader) LoadApp(ctx context.Context) error {
	return l.Load(ctx, l.env.Host)
}

// ChooseDomain shows the domain selection page without remembering it
func (l *Loader) ChooseDomain(ctx context.Context) error {
	if l.env.DomainURL == "" {
		l.nav.Navigate(proxy.DomainPage)
		return nil
	}

	u, err := parseWebURL(l.env.DomainURL)
	if err != nil {
		return shellerrors.NewWithContext("urlloader.ChooseDomain", err, shellerrors.ErrCodeNavigation,
			map[string]string{"url": l.env.DomainURL})
	}
	l.show(u)
	return nil
}

// ShowDiagnostics opens the local diagnostic page
func (l *Loader) ShowDiagnostics() {
	l.nav.Navigate(proxy.SpecPage)
}

// ResolveStartup returns the URL to open at launch: the remembered URL when
// it can be read and belongs to the chat host, the host otherwise.
func (l *Loader) ResolveStartup(ctx context.Context) string {
	var last preferences.LastURL
	err := l.store.Get(ctx, preferences.KeyLastURL, &last)
	return l.decide(last, err)
}

// ResolveStartupAsync looks the last URL up off the calling goroutine and
// passes the decision to done.
func (l *Loader) ResolveStartupAsync(ctx context.Context, done func(url string)) {
	var last preferences.LastURL
	preferences.GetAsync(ctx, l.store, preferences.KeyLastURL, &last, func(err error) {
		done(l.decide(last, err))
	})
}

func (l *Loader) decide(last preferences.LastURL, err error) string {
	host := l.env.Host
	switch {
	case err != nil:
		l.logger.Debug("Last URL unavailable, using host", "error", err.Error())
		return host
	case last.URL == "":
		return host
	case IsExternalURL(last.URL, host):
		l.logger.Info("Ignoring last URL outside the chat domain", "url", last.URL)
		return host
	default:
		return last.URL
	}
}

// IsExternalURL reports whether rawURL lies outside host's domain. The same
// hostname or a subdomain of it (ignoring a leading "www.") is internal;
// anything unparsable or not http(s) is external.
func IsExternalURL(rawURL, host string) bool {
	u, err := parseWebURL(rawURL)
	if err != nil {
		return true
	}
	h, err := parseWebURL(host)
	if err != nil {
		return true
	}

	target := normalizeHost(u.Hostname())
	base := normalizeHost(h.Hostname())
	if target == "" || base == "" {
		return true
	}
	return target != base && !strings.HasSuffix(target, "."+base)
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

func parseWebURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host")
	}
	return u, nil
}

// pathOf is the part of u the webview navigates to on its own origin
func pathOf(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		p += "#" + u.EscapedFragment()
	}
	return p
}
