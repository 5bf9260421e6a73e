package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"

	"grape/internal/assets"
	"grape/internal/badge"
	"grape/internal/certs"
	"grape/internal/config"
	"grape/internal/database"
	shellerrors "grape/internal/infrastructure/errors"
	"grape/internal/infrastructure/logging"
	"grape/internal/ipc"
	"grape/internal/menu"
	"grape/internal/offline"
	"grape/internal/platform"
	"grape/internal/preferences"
	"grape/internal/proxy"
	"grape/internal/tray"
	"grape/internal/urlloader"
	"grape/internal/window"
	"grape/internal/windowstate"
)

// Title is the main window title; the Windows overlay finds the window by it
const Title = "Grape"

const (
	mainWindowID    = "main"
	shutdownTimeout = 5 * time.Second
)

// HostRuntime is everything the app needs from the running GUI framework
type HostRuntime interface {
	window.Runtime
	ipc.EventSource
	ipc.Emitter
	OpenURL(url string)
	About(title, message string, icon []byte) error
	Quit()
}

// TrayBackend is a tray.Backend that must be started
type TrayBackend interface {
	tray.Backend
	Start(onReady func())
}

// Deps replaces platform services, mainly for tests. Nil fields get the
// production implementation.
type Deps struct {
	Store       preferences.Store
	TrayBackend TrayBackend
	Notifier    tray.Notifier
	Desktop     platform.Desktop
	Probe       offline.Checker
	Runtime     func(ctx context.Context) HostRuntime
	GOOS        string
}

// Session holds the per-process handles every component shares
type Session struct {
	Window   *window.Controller
	Tray     *tray.Controller
	Geometry windowstate.Geometry
	// Quitting is set once the app really quits so closing is not prevented
	Quitting *window.Latch
}

// App wires the shell components to the Wails lifecycle
type App struct {
	env     *config.Environment
	dataDir string
	logger  logging.Logger
	goos    string

	db          database.Service
	store       preferences.Store
	keeper      *windowstate.Keeper
	registry    *assets.Registry
	desktop     platform.Desktop
	shell       *proxy.Shell
	loader      *urlloader.Loader
	catalog     *menu.Catalog
	badge       badge.Strategy
	dispatcher  *ipc.Dispatcher
	trayBackend TrayBackend
	newRuntime  func(ctx context.Context) HostRuntime

	session *Session

	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	rt        HostRuntime
	replier   *ipc.Replier
	watcher   *platform.ThemeWatcher

	// pageReady is closed on the first DomReady
	pageReady chan struct{}
	readyOnce sync.Once
}

// NewApp creates the production application for env
func NewApp(env *config.Environment, dataDir string, logger logging.Logger) (*App, error) {
	return New(env, dataDir, logger, Deps{})
}

// New creates the application with the given dependency overrides
func New(env *config.Environment, dataDir string, logger logging.Logger, deps Deps) (*App, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	a := &App{
		env:     env,
		dataDir: dataDir,
		logger:  logger,
		goos:    deps.GOOS,

		pageReady: make(chan struct{}),
	}
	if a.goos == "" {
		a.goos = runtime.GOOS
	}

	a.store = deps.Store
	if a.store == nil {
		a.store = a.openStore()
	}

	// Geometry is needed before the window exists
	a.keeper = windowstate.New(mainWindowID, windowstate.DefaultWidth, windowstate.DefaultHeight, a.store, logger)
	loadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	geometry := a.keeper.Load(loadCtx)
	cancel()

	a.registry = assets.NewRegistry(filepath.Join(dataDir, "icons"))

	a.desktop = deps.Desktop
	if a.desktop == nil {
		a.desktop = platform.NewDesktop(Title, logger)
	}

	policy := certs.NewPolicy(env.StagingHost, logger)
	transport := policy.Transport()
	a.shell = proxy.New(assets.Pages(), transport, logger)
	a.shell.NotificationsSupported = true

	probe := deps.Probe
	if probe == nil {
		probe = offline.NewProbe(transport, offline.DefaultTimeout, logger)
	}

	catalog, err := menu.NewCatalog(env.Locale, logger)
	if err != nil {
		return nil, fmt.Errorf("load menu catalog: %w", err)
	}
	a.catalog = catalog

	latch := &window.Latch{}
	windowCtl := window.NewController(a.keeper, latch, logger)
	a.loader = urlloader.New(env, a.store, probe, a.shell, windowCtl, logger)

	a.trayBackend = deps.TrayBackend
	if a.trayBackend == nil {
		a.trayBackend = tray.NewSystrayBackend(logger)
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = tray.NewNotifier(env.AppID)
	}
	trayCtl := tray.New(tray.Options{
		Backend:  a.trayBackend,
		Notifier: notifier,
		Icons:    tray.IconSourceFor(a.goos, a.registry),
		IsDark:   a.desktop.IsDarkMode,
		Menu:     menu.BuildTray(a.actions(), catalog),
		Tooltip:  Title,
		Logger:   logger,
	})

	a.session = &Session{
		Window:   windowCtl,
		Tray:     trayCtl,
		Geometry: geometry,
		Quitting: latch,
	}

	a.badge = badge.ForPlatform(a.desktop, trayCtl, a.registry, logger)
	a.dispatcher = ipc.NewDispatcher(a.handle, ipc.DefaultInboxSize, logger)

	a.newRuntime = deps.Runtime
	if a.newRuntime == nil {
		a.newRuntime = func(ctx context.Context) HostRuntime { return window.NewWailsRuntime(ctx) }
	}

	return a, nil
}

// openStore connects the preference database. A broken database degrades to
// an in-memory store so the shell still starts.
func (a *App) openStore() preferences.Store {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := database.ConfigForEnvironment(a.env.Name, a.dataDir)
	if !cfg.IsInMemory() {
		if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
			a.logger.Warn("Data directory unavailable, preferences will not persist", "dir", a.dataDir, "error", err.Error())
			return preferences.NewMemoryStore()
		}
	}

	svc := database.NewSQLiteService(a.logger)
	if err := svc.Connect(ctx, cfg); err != nil {
		logging.LogError(a.logger, err, "app.openStore", map[string]interface{}{"path": cfg.Path})
		return preferences.NewMemoryStore()
	}
	if err := svc.Migrate(ctx); err != nil {
		logging.LogError(a.logger, err, "app.openStore", map[string]interface{}{"path": cfg.Path})
		svc.Close()
		return preferences.NewMemoryStore()
	}
	if err := svc.Health(ctx); err != nil {
		logging.LogError(a.logger, err, "app.openStore", map[string]interface{}{"path": cfg.Path})
		svc.Close()
		return preferences.NewMemoryStore()
	}
	if version, err := svc.GetMigrationVersion(ctx); err == nil {
		a.logger.Info("Preference store ready", "path", cfg.Path, "schema_version", version)
	}

	a.db = svc
	return preferences.NewSQLiteStore(svc.DB(), a.logger)
}

// Session returns the process session
func (a *App) Session() *Session {
	return a.session
}

func (a *App) actions() menu.Actions {
	return menu.Actions{
		Quit:         a.Quit,
		BackToChat:   func() { a.post(ipc.Message{Kind: ipc.LoadChat}) },
		ChooseDomain: func() { a.post(ipc.Message{Kind: ipc.ChooseDomain}) },
		About:        a.about,
		Open:         func() { a.session.Window.Show() },
		Reload:       func() { a.session.Window.Reload() },
		ReloadShell:  func() { a.session.Window.ReloadShell() },
		Diagnostics:  func() { a.loader.ShowDiagnostics() },
	}
}

// Options builds the Wails application options
func (a *App) Options() *options.App {
	g := a.session.Geometry

	startState := options.Normal
	if g.IsMaximized {
		startState = options.Maximised
	}

	logLevel := logger.INFO
	if !a.env.IsProduction() {
		logLevel = logger.DEBUG
	}

	mainMenu := menu.BuildMain(a.env, a.actions(), a.catalog)
	icon := a.registry.MustPNG(assets.AboutIcon)

	return &options.App{
		Title:            Title,
		Width:            g.Width,
		Height:           g.Height,
		WindowStartState: startState,
		AssetServer: &assetserver.Options{
			Handler: a.shell,
		},
		Menu:          menu.ToWails(mainMenu, a.session.Window.ExecJS, menu.NativeEdit(a.goos)),
		Logger:        logging.NewWailsLoggerAdapter(a.logger),
		LogLevel:      logLevel,
		OnStartup:     a.Startup,
		OnDomReady:    a.DomReady,
		OnBeforeClose: a.BeforeClose,
		OnShutdown:    a.Shutdown,
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId:               a.env.AppID,
			OnSecondInstanceLaunch: a.SecondInstance,
		},
		Debug: options.Debug{
			OpenInspectorOnStartup: !a.env.IsProduction(),
		},
		Windows: &windows.Options{
			WebviewUserDataPath: filepath.Join(a.dataDir, "webview"),
		},
		Mac: &mac.Options{
			About: &mac.AboutInfo{
				Title:   Title,
				Message: a.env.Host,
				Icon:    icon,
			},
		},
		Linux: &linux.Options{
			Icon:        icon,
			ProgramName: "grape",
		},
	}
}

// Startup runs the bootstrap sequence once, when Wails has created the window
func (a *App) Startup(ctx context.Context) {
	a.startOnce.Do(func() {
		started := time.Now()
		a.ctx, a.cancel = context.WithCancel(ctx)
		a.rt = a.newRuntime(ctx)
		a.replier = ipc.NewReplier(a.rt, a.logger)

		a.session.Window.Bind(a.rt)
		a.session.Window.Restore(a.session.Geometry)

		go func() {
			if err := a.dispatcher.Run(a.ctx); err != nil && err != context.Canceled {
				a.logger.Error("Dispatcher stopped", "error", err.Error())
			}
		}()
		ipc.Listen(a.rt, a.dispatcher, a.logger)

		a.trayBackend.Start(func() {
			if err := a.session.Tray.Initialize(); err != nil {
				logging.LogError(a.logger, err, "app.Startup", map[string]interface{}{"step": "tray"})
			}
		})

		a.startThemeWatcher()
		a.registerProtocol()
		a.loadStartURL()

		logging.LogOperation(a.logger, "app.Startup", time.Since(started), map[string]interface{}{
			"environment": a.env.Name,
			"host":        a.env.Host,
		})
	})
}

// loadStartURL picks the first page without blocking startup on the
// preference lookup. The navigation waits for the start page to finish
// loading, otherwise the replace would hit a document still being parsed.
func (a *App) loadStartURL() {
	navigate := func(url string) {
		select {
		case <-a.pageReady:
		case <-a.ctx.Done():
			return
		}
		a.post(ipc.Message{Kind: ipc.Navigate, URL: url})
	}

	if a.env.IsTest() {
		go navigate(a.env.Host)
		return
	}
	a.loader.ResolveStartupAsync(a.ctx, navigate)
}

func (a *App) startThemeWatcher() {
	path := a.desktop.ThemePreferencesPath()
	if a.goos != "darwin" || path == "" {
		return
	}

	a.watcher = platform.NewThemeWatcher(path, a.desktop.IsDarkMode, func(dark bool) {
		a.post(ipc.Message{Kind: ipc.ThemeChanged, Dark: dark})
	}, a.logger)

	if err := a.watcher.Start(a.ctx); err != nil {
		logging.LogError(a.logger, shellerrors.HandlePlatformError("app.startThemeWatcher", "theme", err), "app.Startup", nil)
		a.watcher = nil
	}
}

func (a *App) registerProtocol() {
	exe, err := os.Executable()
	if err != nil {
		a.logger.Warn("Executable path unknown, notification clicks disabled", "error", err.Error())
		return
	}
	if err := tray.RegisterProtocol(exe); err != nil {
		logging.LogError(a.logger, shellerrors.HandlePlatformError("app.registerProtocol", "protocol", err), "app.Startup", nil)
	}
}

func (a *App) post(msg ipc.Message) {
	if err := a.dispatcher.Post(msg); err != nil {
		a.logger.Warn("Message dropped", "kind", msg.Kind.String(), "error", err.Error())
	}
}

// handle runs on the dispatcher goroutine, one message at a time
func (a *App) handle(ctx context.Context, msg ipc.Message) {
	var err error

	switch msg.Kind {
	case ipc.AddBadge:
		err = a.badge.Add(msg.Count)
	case ipc.RemoveBadge:
		err = a.badge.Remove()
	case ipc.ShowNotification:
		event := msg.Notification.Event
		_, err = a.session.Tray.Notify(msg.Notification.Title, msg.Notification.Message, func() {
			a.replier.Reply(event)
		})
	case ipc.LoadChat:
		err = a.loader.LoadApp(ctx)
	case ipc.OpenExternal:
		a.rt.OpenURL(msg.URL)
	case ipc.ChooseDomain:
		if a.env.ChooseDomainDisabled {
			err = shellerrors.HandleValidationError("app.handle", "chooseDomain", msg.URL, "domain switching is disabled")
			break
		}
		if msg.URL == "" {
			err = a.loader.ChooseDomain(ctx)
		} else {
			err = a.loader.Load(ctx, msg.URL)
		}
	case ipc.Navigate:
		err = a.loader.Load(ctx, msg.URL)
	case ipc.NotificationClicked:
		a.session.Window.Show()
		a.session.Tray.BalloonClicked(msg.ID)
	case ipc.ThemeChanged:
		a.ThemeChanged(msg.Dark)
	case ipc.SecondInstance:
		a.focusExisting(msg.Args)
	default:
		a.logger.Warn("Unhandled message", "kind", msg.Kind.String())
	}

	if err != nil {
		logging.LogError(a.logger, err, "app.handle", map[string]interface{}{"message": msg.Kind.String()})
	}
}

// SecondInstance is called in the running instance when another launch was
// refused by the single-instance lock; that process exits on its own.
func (a *App) SecondInstance(data options.SecondInstanceData) {
	a.logger.Info("Second instance launched", "args", data.Args, "cwd", data.WorkingDirectory)
	a.post(ipc.Message{Kind: ipc.SecondInstance, Args: data.Args})
}

func (a *App) focusExisting(args []string) {
	if a.session.Window.Exists() {
		a.session.Window.Show()
	}
	if id, ok := tray.NotificationIDFromArgs(args); ok {
		a.handle(a.ctx, ipc.Message{Kind: ipc.NotificationClicked, ID: id})
	}
}

// ThemeChanged swaps the tray icon; only macOS has light and dark tray icons
func (a *App) ThemeChanged(dark bool) {
	if a.goos != "darwin" {
		return
	}
	if err := a.session.Tray.SetThemeIcon(dark); err != nil {
		logging.LogError(a.logger, err, "app.ThemeChanged", nil)
	}
}

// Quit really quits: closing is no longer prevented from here on
func (a *App) Quit() {
	a.session.Quitting.Set()
	a.session.Tray.Quit()
	if a.rt != nil {
		a.rt.Quit()
	}
}

func (a *App) about() {
	if a.rt == nil {
		return
	}
	icon, _ := a.registry.PNG(assets.AboutIcon)
	if err := a.rt.About(a.catalog.T(menu.MsgAbout), a.env.Host, icon); err != nil {
		a.logger.Warn("About dialog failed", "error", err.Error())
	}
}

// DomReady is called after each page load
func (a *App) DomReady(ctx context.Context) {
	a.readyOnce.Do(func() { close(a.pageReady) })
	a.logger.Debug("Page loaded")
}

// BeforeClose hides the window instead of closing it until the app quits
func (a *App) BeforeClose(ctx context.Context) (prevent bool) {
	return a.session.Window.BeforeClose(ctx)
}

// Shutdown saves the window state and releases resources
func (a *App) Shutdown(ctx context.Context) {
	a.logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	a.session.Window.Capture(shutdownCtx)

	a.dispatcher.Stop()
	if a.cancel != nil {
		select {
		case <-a.dispatcher.Done():
		case <-shutdownCtx.Done():
			a.logger.Warn("Dispatcher did not drain before shutdown")
		}
		a.cancel()
	}

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.logger.Warn("Theme watcher close failed", "error", err.Error())
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.LogError(a.logger, err, "app.Shutdown", nil)
		}
	}

	a.logger.Info("Shutdown completed")
}
