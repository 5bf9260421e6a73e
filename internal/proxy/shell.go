// Package proxy serves the webview. Shell pages come from the embedded
// assets; everything else is reverse-proxied to the current chat upstream so
// the remote application runs on the webview origin with the IPC runtime.
package proxy

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"io/fs"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"grape/internal/infrastructure/logging"
)

// ShellPrefix is the path prefix of the embedded shell pages
const ShellPrefix = "/_shell/"

// Page paths
const (
	SplashPage  = ShellPrefix + "splash.html"
	OfflinePage = ShellPrefix + "offline.html"
	DomainPage  = ShellPrefix + "domain.html"
	SpecPage    = ShellPrefix + "spec.html"
)

var (
	headCloseRe     = regexp.MustCompile(`(?i)</head>`)
	cookieDomainRe  = regexp.MustCompile(`(?i);\s*domain=[^;]*`)
	runtimeScripts  = `<script src="/wails/ipc.js"></script><script src="/wails/runtime.js"></script>`
	bridgeScriptFmt = `<script src="/_shell/bridge.js" data-upstream="%s" data-notifications="%t"></script>`
)

// Bridge is what the page-side bridge script is told about the shell
type Bridge struct {
	Upstream string
	// Notifications reports whether showNotification reaches the OS
	Notifications bool
}

func (b Bridge) tag() string {
	return fmt.Sprintf(bridgeScriptFmt, html.EscapeString(b.Upstream), b.Notifications)
}

// Shell is the http.Handler given to the Wails asset server
type Shell struct {
	pages  fs.FS
	files  http.Handler
	logger logging.Logger

	// NotificationsSupported is passed to every page through the bridge
	NotificationsSupported bool

	mu       sync.RWMutex
	upstream *url.URL
	proxy    *httputil.ReverseProxy
}

// New creates a Shell serving pages and proxying through transport
func New(pages fs.FS, transport http.RoundTripper, logger logging.Logger) *Shell {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	s := &Shell{
		pages:  pages,
		files:  http.StripPrefix(strings.TrimSuffix(ShellPrefix, "/"), http.FileServer(http.FS(pages))),
		logger: logger,
	}

	s.proxy = &httputil.ReverseProxy{
		Rewrite:        s.rewrite,
		Transport:      transport,
		ModifyResponse: s.modifyResponse,
		ErrorHandler:   s.handleError,
	}
	return s
}

// SetUpstream switches the proxied origin. Only scheme and host are kept.
func (s *Shell) SetUpstream(u *url.URL) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u == nil {
		s.upstream = nil
		return
	}
	s.upstream = &url.URL{Scheme: u.Scheme, Host: u.Host}
	s.logger.Info("Upstream changed", "origin", s.upstream.String())
}

// Upstream returns the current origin or nil
func (s *Shell) Upstream() *url.URL {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.upstream == nil {
		return nil
	}
	u := *s.upstream
	return &u
}

func (s *Shell) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, ShellPrefix) {
		if strings.HasSuffix(r.URL.Path, ".html") {
			s.servePage(w, r, r.URL.Path, http.StatusOK)
			return
		}
		s.files.ServeHTTP(w, r)
		return
	}

	if s.Upstream() == nil {
		s.servePage(w, r, SplashPage, http.StatusOK)
		return
	}

	s.proxy.ServeHTTP(w, r)
}

// servePage writes an embedded page with the bridge, and with the Wails
// runtime unless the asset server injects it for r's path itself.
func (s *Shell) servePage(w http.ResponseWriter, r *http.Request, path string, status int) {
	data, err := fs.ReadFile(s.pages, strings.TrimPrefix(path, ShellPrefix))
	if err != nil {
		s.logger.Error("Shell page missing", "page", path, "error", err.Error())
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	data = InjectScripts(data, s.bridge(), !assetServerInjects(r.URL.Path, status))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Shell) rewrite(pr *httputil.ProxyRequest) {
	up := s.Upstream()
	if up == nil {
		return
	}
	pr.SetURL(up)

	// Let the transport negotiate compression so HTML can be rewritten.
	pr.Out.Header.Del("Accept-Encoding")

	if pr.Out.Header.Get("Origin") != "" {
		pr.Out.Header.Set("Origin", up.String())
	}
	if ref := pr.Out.Header.Get("Referer"); ref != "" {
		if parsed, err := url.Parse(ref); err == nil {
			parsed.Scheme, parsed.Host = up.Scheme, up.Host
			pr.Out.Header.Set("Referer", parsed.String())
		}
	}
}

func (s *Shell) modifyResponse(resp *http.Response) error {
	up := s.Upstream()
	if up == nil {
		return nil
	}

	if loc := resp.Header.Get("Location"); loc != "" {
		resp.Header.Set("Location", localizeLocation(loc, up))
	}

	if cookies := resp.Header.Values("Set-Cookie"); len(cookies) > 0 {
		resp.Header.Del("Set-Cookie")
		for _, c := range cookies {
			resp.Header.Add("Set-Cookie", cookieDomainRe.ReplaceAllString(c, ""))
		}
	}

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return err
	}

	withRuntime := !assetServerInjects(resp.Request.URL.Path, resp.StatusCode)
	body = InjectScripts(body, s.bridge(), withRuntime)

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
	resp.Header.Del("ETag")
	return nil
}

func (s *Shell) handleError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("Upstream request failed", "path", r.URL.Path, "error", err.Error())
	s.servePage(w, r, OfflinePage, http.StatusBadGateway)
}

func (s *Shell) bridge() Bridge {
	b := Bridge{Notifications: s.NotificationsSupported}
	if up := s.Upstream(); up != nil {
		b.Upstream = up.String()
	}
	return b
}

// InjectScripts adds the bridge (and optionally the Wails runtime) before
// </head>, or at the top of the document when there is no head.
func InjectScripts(doc []byte, bridge Bridge, withRuntime bool) []byte {
	tags := bridge.tag()
	if withRuntime {
		tags = runtimeScripts + tags
	}

	loc := headCloseRe.FindIndex(doc)
	if loc == nil {
		return append([]byte(tags), doc...)
	}

	out := make([]byte, 0, len(doc)+len(tags))
	out = append(out, doc[:loc[0]]...)
	out = append(out, tags...)
	out = append(out, doc[loc[0]:]...)
	return out
}

// assetServerInjects mirrors the Wails asset server, which adds its runtime
// to HTML served for directory and index paths with status 200 or 404.
func assetServerInjects(path string, status int) bool {
	if status != http.StatusOK && status != http.StatusNotFound {
		return false
	}
	return isRootDocument(path)
}

func isRootDocument(path string) bool {
	return path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, "/index.html")
}

// localizeLocation turns redirects to the upstream origin into paths so the
// webview stays on its own origin. Other origins are left untouched.
func localizeLocation(loc string, up *url.URL) string {
	u, err := url.Parse(loc)
	if err != nil || !u.IsAbs() {
		return loc
	}
	if !strings.EqualFold(u.Host, up.Host) {
		return loc
	}
	u.Scheme, u.Host = "", ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}
