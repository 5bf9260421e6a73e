// Package window controls the single main window: hide-on-close, geometry
// capture and in-page navigation.
package window

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"grape/internal/infrastructure/logging"
	"grape/internal/windowstate"
)

// Runtime is the live window as the host framework exposes it
type Runtime interface {
	windowstate.WindowReader
	Show()
	Hide()
	Unminimise()
	Maximise()
	SetPosition(x, y int)
	ExecJS(js string)
	Reload()
	ReloadApp()
}

// Latch is set once when the application really quits and never cleared
type Latch struct {
	set atomic.Bool
}

func (l *Latch) Set()        { l.set.Store(true) }
func (l *Latch) IsSet() bool { return l.set.Load() }

const blurScript = `document.activeElement && document.activeElement.blur()`

// Controller owns the main window
type Controller struct {
	keeper *windowstate.Keeper
	latch  *Latch
	logger logging.Logger

	mu sync.RWMutex
	rt Runtime
}

// NewController creates a controller; the window exists once Bind is called
func NewController(keeper *windowstate.Keeper, latch *Latch, logger logging.Logger) *Controller {
	return &Controller{keeper: keeper, latch: latch, logger: logger}
}

// Bind attaches the live window
func (c *Controller) Bind(rt Runtime) {
	c.mu.Lock()
	c.rt = rt
	c.mu.Unlock()
}

func (c *Controller) runtime() Runtime {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rt
}

// Exists reports whether the main window has been created
func (c *Controller) Exists() bool {
	return c.runtime() != nil
}

// BeforeClose decides whether closing is prevented. Until the quit latch is
// set a close only hides the window and the app stays in the tray.
func (c *Controller) BeforeClose(ctx context.Context) bool {
	if c.latch.IsSet() {
		c.Capture(ctx)
		c.logger.Debug("Main window closing")
		return false
	}

	c.Hide(ctx)
	return true
}

// Hide hides the window, releases page focus and records the geometry
func (c *Controller) Hide(ctx context.Context) {
	rt := c.runtime()
	if rt == nil {
		return
	}
	c.Capture(ctx)
	rt.ExecJS(blurScript)
	rt.Hide()
	c.logger.Debug("Main window hidden")
}

// Show brings the window back to the front
func (c *Controller) Show() {
	rt := c.runtime()
	if rt == nil {
		return
	}
	rt.Show()
	rt.Unminimise()
}

// Restore places the window where g was saved and maximises it if it was
func (c *Controller) Restore(g windowstate.Geometry) {
	rt := c.runtime()
	if rt == nil {
		return
	}
	if g.HasPosition {
		rt.SetPosition(g.X, g.Y)
	}
	if g.IsMaximized {
		rt.Maximise()
	}
}

// Capture persists the current geometry; failures are logged
func (c *Controller) Capture(ctx context.Context) {
	rt := c.runtime()
	if rt == nil {
		return
	}
	if err := c.keeper.Capture(ctx, rt); err != nil {
		logging.LogError(c.logger, err, "window.Capture", nil)
	}
}

// Navigate replaces the page with path on the webview origin
func (c *Controller) Navigate(path string) {
	rt := c.runtime()
	if rt == nil {
		c.logger.Warn("Navigation before window exists", "path", path)
		return
	}
	target, _ := json.Marshal(path)
	rt.ExecJS("window.location.replace(" + string(target) + ")")
}

// Reload reloads the current page
func (c *Controller) Reload() {
	if rt := c.runtime(); rt != nil {
		rt.Reload()
	}
}

// ReloadShell reloads from the webview's start page
func (c *Controller) ReloadShell() {
	if rt := c.runtime(); rt != nil {
		rt.ReloadApp()
	}
}

// ExecJS runs js in the page
func (c *Controller) ExecJS(js string) {
	if rt := c.runtime(); rt != nil {
		rt.ExecJS(js)
	}
}
