package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wailsapp/wails/v2/pkg/options"

	"grape/internal/assets"
	"grape/internal/config"
	"grape/internal/menu"
	"grape/internal/offline"
	"grape/internal/preferences"
	"grape/internal/testutils"
	"grape/internal/tray"
)

type fakeRuntime struct {
	mu        sync.Mutex
	visible   bool
	maximised bool
	scripts   []string
	emitted   []string
	opened    []string
	quit      bool
	handlers  map[string]func(...interface{})
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{visible: true, handlers: make(map[string]func(...interface{}))}
}

func (f *fakeRuntime) lock() func() { f.mu.Lock(); return f.mu.Unlock }

func (f *fakeRuntime) Size() (int, int)     { return 800, 600 }
func (f *fakeRuntime) Position() (int, int) { return 5, 5 }
func (f *fakeRuntime) IsMaximised() bool    { defer f.lock()(); return f.maximised }
func (f *fakeRuntime) Show()                { defer f.lock()(); f.visible = true }
func (f *fakeRuntime) Hide()                { defer f.lock()(); f.visible = false }
func (f *fakeRuntime) Unminimise()          {}
func (f *fakeRuntime) Maximise()            { defer f.lock()(); f.maximised = true }
func (f *fakeRuntime) SetPosition(x, y int) {}
func (f *fakeRuntime) ExecJS(js string)     { defer f.lock()(); f.scripts = append(f.scripts, js) }
func (f *fakeRuntime) Reload()              {}
func (f *fakeRuntime) ReloadApp()           {}
func (f *fakeRuntime) OpenURL(url string)   { defer f.lock()(); f.opened = append(f.opened, url) }
func (f *fakeRuntime) Quit()                { defer f.lock()(); f.quit = true }

func (f *fakeRuntime) About(title, message string, icon []byte) error { return nil }

func (f *fakeRuntime) On(name string, cb func(...interface{})) {
	defer f.lock()()
	f.handlers[name] = cb
}

func (f *fakeRuntime) Emit(name string, data ...interface{}) {
	defer f.lock()()
	f.emitted = append(f.emitted, name)
}

// fire simulates the page sending an event
func (f *fakeRuntime) fire(t *testing.T, name string, data ...interface{}) {
	t.Helper()
	f.mu.Lock()
	cb, ok := f.handlers[name]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no handler registered for %q", name)
	}
	cb(data...)
}

func (f *fakeRuntime) isVisible() bool { defer f.lock()(); return f.visible }

func (f *fakeRuntime) hasScript(substr string) bool {
	defer f.lock()()
	for _, s := range f.scripts {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func (f *fakeRuntime) hasEmitted(name string) bool {
	defer f.lock()()
	for _, e := range f.emitted {
		if e == name {
			return true
		}
	}
	return false
}

type fakeTray struct {
	mu    sync.Mutex
	icons int
	menu  []*menu.Item
	quit  bool
}

func (f *fakeTray) SetIcon([]byte)             { f.mu.Lock(); f.icons++; f.mu.Unlock() }
func (f *fakeTray) SetTooltip(string)          {}
func (f *fakeTray) SetMenu(items []*menu.Item) { f.mu.Lock(); f.menu = items; f.mu.Unlock() }
func (f *fakeTray) Quit()                      { f.mu.Lock(); f.quit = true; f.mu.Unlock() }
func (f *fakeTray) Start(onReady func())       { onReady() }

type fakeNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeNotifier) Notify(id, title, message, iconPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

func (f *fakeNotifier) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ids) == 0 {
		return ""
	}
	return f.ids[len(f.ids)-1]
}

type fakeDesktop struct {
	mu    sync.Mutex
	dark  bool
	badge string
}

func (f *fakeDesktop) SupportsOverlay() bool           { return false }
func (f *fakeDesktop) SetOverlay([]byte, string) error { return nil }
func (f *fakeDesktop) ClearOverlay() error             { return nil }
func (f *fakeDesktop) IsDarkMode() bool                { return f.dark }
func (f *fakeDesktop) ThemePreferencesPath() string    { return "" }

func (f *fakeDesktop) SetDockBadge(label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.badge = label
	return nil
}

func (f *fakeDesktop) dockBadge() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.badge
}

type fixture struct {
	app      *App
	rt       *fakeRuntime
	tray     *fakeTray
	notifier *fakeNotifier
	desktop  *fakeDesktop
	store    *preferences.MemoryStore
	logger   *testutils.RecordingLogger
}

func testEnvironment() *config.Environment {
	return &config.Environment{
		Name:        "development",
		Host:        "https://chat.example.com",
		AppID:       "com.example.grape.test",
		StagingHost: config.DefaultStagingHost,
		Locale:      "en",
	}
}

func newFixture(t *testing.T, goos string) *fixture {
	t.Helper()
	return newFixtureWithEnv(t, goos, testEnvironment())
}

func newFixtureWithEnv(t *testing.T, goos string, env *config.Environment) *fixture {
	t.Helper()

	f := &fixture{
		rt:       newFakeRuntime(),
		tray:     &fakeTray{},
		notifier: &fakeNotifier{},
		desktop:  &fakeDesktop{},
		store:    preferences.NewMemoryStore(),
		logger:   &testutils.RecordingLogger{},
	}

	a, err := New(env, t.TempDir(), f.logger, Deps{
		Store:       f.store,
		TrayBackend: f.tray,
		Notifier:    f.notifier,
		Desktop:     f.desktop,
		Probe:       offline.Always(true),
		Runtime:     func(context.Context) HostRuntime { return f.rt },
		GOOS:        goos,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.app = a
	return f
}

// start runs the lifecycle up to the first loaded page
func (f *fixture) start(t *testing.T) {
	t.Helper()
	f.app.Startup(context.Background())
	t.Cleanup(func() { f.app.Shutdown(context.Background()) })
	f.app.DomReady(context.Background())
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestApp_StartupLoadsHost(t *testing.T) {
	f := newFixture(t, "linux")
	f.start(t)

	waitFor(t, "navigation to host", func() bool {
		return f.rt.hasScript(`window.location.replace("/")`)
	})
	waitFor(t, "last URL persisted", func() bool {
		return f.store.Has(preferences.KeyLastURL)
	})

	if up := f.app.shell.Upstream(); up == nil || up.Host != "chat.example.com" {
		t.Errorf("upstream = %v, want chat.example.com", up)
	}
	if f.app.session.Tray.CurrentIcon() != assets.TrayIcon {
		t.Errorf("tray icon = %q, want %q", f.app.session.Tray.CurrentIcon(), assets.TrayIcon)
	}
}

func TestApp_StartupRestoresLastURL(t *testing.T) {
	f := newFixture(t, "linux")
	if err := f.store.Set(context.Background(), preferences.KeyLastURL,
		preferences.LastURL{URL: "https://chat.example.com/chat/general"}); err != nil {
		t.Fatal(err)
	}
	f.start(t)

	waitFor(t, "navigation to last URL", func() bool {
		return f.rt.hasScript(`window.location.replace("/chat/general")`)
	})
}

func TestApp_SecondInstanceShowsExistingWindow(t *testing.T) {
	f := newFixture(t, "linux")
	f.start(t)

	if !f.app.BeforeClose(context.Background()) {
		t.Fatal("close should be prevented before quit")
	}
	if f.rt.isVisible() {
		t.Fatal("window should be hidden after close")
	}

	f.app.SecondInstance(options.SecondInstanceData{Args: []string{"grape"}})

	waitFor(t, "window shown", f.rt.isVisible)
}

func TestApp_QuitAllowsClose(t *testing.T) {
	f := newFixture(t, "linux")
	f.start(t)

	f.app.Quit()

	if !f.app.session.Quitting.IsSet() {
		t.Error("quit latch not set")
	}
	if f.app.BeforeClose(context.Background()) {
		t.Error("close should not be prevented after quit")
	}
	f.rt.mu.Lock()
	quit := f.rt.quit
	f.rt.mu.Unlock()
	if !quit {
		t.Error("runtime quit not called")
	}
	f.tray.mu.Lock()
	defer f.tray.mu.Unlock()
	if !f.tray.quit {
		t.Error("tray not removed")
	}
}

func TestApp_BadgeRoundTrip(t *testing.T) {
	f := newFixture(t, "linux")
	f.start(t)

	f.rt.fire(t, "addBadge", float64(3))
	waitFor(t, "badge icon", func() bool {
		return f.app.session.Tray.CurrentIcon() == assets.TrayBlueIcon && f.desktop.dockBadge() == "3"
	})

	f.rt.fire(t, "removeBadge")
	waitFor(t, "badge cleared", func() bool {
		return f.app.session.Tray.CurrentIcon() == assets.TrayIcon && f.desktop.dockBadge() == ""
	})
}

func TestApp_InvalidPageMessageIsDropped(t *testing.T) {
	f := newFixture(t, "linux")
	f.start(t)

	f.rt.fire(t, "addBadge", "lots")

	if !f.logger.Contains("ERROR", "count") {
		t.Error("expected validation error to be logged")
	}
	if f.app.session.Tray.CurrentIcon() == assets.TrayBlueIcon {
		t.Error("invalid badge must not change the icon")
	}
}

func TestApp_NotificationClickRepliesToPage(t *testing.T) {
	f := newFixture(t, "linux")
	f.start(t)

	f.rt.fire(t, "showNotification", map[string]interface{}{
		"title":   "Alice",
		"message": "hello",
		"event":   "notification:42",
	})
	waitFor(t, "notification shown", func() bool { return f.notifier.last() != "" })

	f.rt.Hide()
	f.app.SecondInstance(options.SecondInstanceData{
		Args: []string{"grape", tray.ActivationURL(f.notifier.last())},
	})

	waitFor(t, "click echoed", func() bool { return f.rt.hasEmitted("notification:42") })
	if !f.rt.isVisible() {
		t.Error("clicking a notification should show the window")
	}
	if f.app.session.Tray.HasPendingClick() {
		t.Error("handler should be cleared after the click")
	}
}

func TestApp_OpenExternal(t *testing.T) {
	f := newFixture(t, "linux")
	f.start(t)

	f.rt.fire(t, "openExternal", "https://example.org/docs")
	waitFor(t, "browser opened", func() bool {
		f.rt.mu.Lock()
		defer f.rt.mu.Unlock()
		return len(f.rt.opened) == 1 && f.rt.opened[0] == "https://example.org/docs"
	})
}

func TestApp_ThemeChangedOnlyOnDarwin(t *testing.T) {
	linux := newFixture(t, "linux")
	linux.app.ThemeChanged(true)
	if got := linux.app.session.Tray.CurrentIcon(); got != "" {
		t.Errorf("linux tray icon = %q, want untouched", got)
	}

	darwin := newFixture(t, "darwin")
	darwin.app.ThemeChanged(true)
	if got := darwin.app.session.Tray.CurrentIcon(); got != assets.TrayWhiteIcon {
		t.Errorf("darwin tray icon = %q, want %q", got, assets.TrayWhiteIcon)
	}
}

func TestApp_ShutdownStopsDispatcher(t *testing.T) {
	f := newFixture(t, "linux")
	f.app.Startup(context.Background())

	f.app.Shutdown(context.Background())

	select {
	case <-f.app.dispatcher.Done():
	default:
		t.Fatal("dispatcher still running after shutdown")
	}
	if !f.store.Has("windowState:" + mainWindowID) {
		t.Error("window geometry not saved on shutdown")
	}
}

func TestApp_Options(t *testing.T) {
	f := newFixture(t, "linux")
	opts := f.app.Options()

	if opts.Title != Title {
		t.Errorf("Title = %q", opts.Title)
	}
	if opts.SingleInstanceLock == nil || opts.SingleInstanceLock.UniqueId != "com.example.grape.test" {
		t.Errorf("SingleInstanceLock = %+v", opts.SingleInstanceLock)
	}
	if opts.AssetServer == nil || opts.AssetServer.Handler == nil {
		t.Error("asset handler missing")
	}
	if !opts.Debug.OpenInspectorOnStartup {
		t.Error("inspector should open outside production")
	}
	if opts.Menu == nil {
		t.Error("menu missing")
	}
}

func TestApp_StartupNavigationWaitsForFirstPage(t *testing.T) {
	f := newFixture(t, "linux")
	f.app.Startup(context.Background())
	t.Cleanup(func() { f.app.Shutdown(context.Background()) })

	time.Sleep(50 * time.Millisecond)
	if f.rt.hasScript("window.location.replace") {
		t.Fatal("navigation issued before the start page loaded")
	}

	f.app.DomReady(context.Background())
	waitFor(t, "navigation after first page load", func() bool {
		return f.rt.hasScript(`window.location.replace("/")`)
	})

	// Later page loads do not navigate again
	f.app.DomReady(context.Background())
}

func TestApp_StartupNavigationInTestEnvironment(t *testing.T) {
	env := testEnvironment()
	env.Name = config.Test
	f := newFixtureWithEnv(t, "linux", env)
	f.app.Startup(context.Background())
	t.Cleanup(func() { f.app.Shutdown(context.Background()) })

	time.Sleep(20 * time.Millisecond)
	if f.rt.hasScript("window.location.replace") {
		t.Fatal("navigation issued before the start page loaded")
	}

	f.app.DomReady(context.Background())
	waitFor(t, "diagnostic page", func() bool {
		return f.rt.hasScript("spec.html")
	})
	if f.store.Has(preferences.KeyLastURL) {
		t.Error("test environment must not persist a URL")
	}
}

func TestApp_ChooseDomainRejectedWhenDisabled(t *testing.T) {
	env := testEnvironment()
	env.ChooseDomainDisabled = true
	f := newFixtureWithEnv(t, "linux", env)
	f.start(t)

	waitFor(t, "startup navigation", func() bool {
		return f.rt.hasScript(`window.location.replace("/")`)
	})

	f.rt.fire(t, "chooseDomain", "https://other.example.org/team")
	waitFor(t, "rejection logged", func() bool {
		return f.logger.Contains("ERROR", "domain switching is disabled")
	})

	if up := f.app.shell.Upstream(); up == nil || up.Host != "chat.example.com" {
		t.Errorf("upstream = %v, want chat.example.com", up)
	}
	var last preferences.LastURL
	if err := f.store.Get(context.Background(), preferences.KeyLastURL, &last); err != nil || last.URL != "https://chat.example.com" {
		t.Errorf("last URL = %q (%v), want the host", last.URL, err)
	}
}

func TestApp_OpensPreferenceDatabase(t *testing.T) {
	logger := &testutils.RecordingLogger{}
	a, err := New(testEnvironment(), t.TempDir(), logger, Deps{
		TrayBackend: &fakeTray{},
		Notifier:    &fakeNotifier{},
		Desktop:     &fakeDesktop{},
		Probe:       offline.Always(true),
		Runtime:     func(context.Context) HostRuntime { return newFakeRuntime() },
		GOOS:        "linux",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if a.db == nil {
		t.Fatal("expected the SQLite store to be opened")
	}
	if !logger.Contains("INFO", "Preference store ready") {
		t.Error("expected schema version to be logged")
	}
}
