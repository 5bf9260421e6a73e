package window

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// WailsRuntime adapts the Wails runtime package to the shell's interfaces
type WailsRuntime struct {
	ctx context.Context
}

var _ Runtime = (*WailsRuntime)(nil)

// NewWailsRuntime wraps the context Wails passes to OnStartup
func NewWailsRuntime(ctx context.Context) *WailsRuntime {
	return &WailsRuntime{ctx: ctx}
}

func (w *WailsRuntime) Show()                { runtime.WindowShow(w.ctx) }
func (w *WailsRuntime) Hide()                { runtime.WindowHide(w.ctx) }
func (w *WailsRuntime) Unminimise()          { runtime.WindowUnminimise(w.ctx) }
func (w *WailsRuntime) Maximise()            { runtime.WindowMaximise(w.ctx) }
func (w *WailsRuntime) IsMaximised() bool    { return runtime.WindowIsMaximised(w.ctx) }
func (w *WailsRuntime) Size() (int, int)     { return runtime.WindowGetSize(w.ctx) }
func (w *WailsRuntime) Position() (int, int) { return runtime.WindowGetPosition(w.ctx) }
func (w *WailsRuntime) SetPosition(x, y int) { runtime.WindowSetPosition(w.ctx, x, y) }
func (w *WailsRuntime) ExecJS(js string)     { runtime.WindowExecJS(w.ctx, js) }
func (w *WailsRuntime) Reload()              { runtime.WindowReload(w.ctx) }
func (w *WailsRuntime) ReloadApp()           { runtime.WindowReloadApp(w.ctx) }

// On registers a page event listener
func (w *WailsRuntime) On(name string, callback func(data ...interface{})) {
	runtime.EventsOn(w.ctx, name, callback)
}

// Emit sends an event to the page
func (w *WailsRuntime) Emit(name string, data ...interface{}) {
	runtime.EventsEmit(w.ctx, name, data...)
}

// OpenURL opens url in the default browser
func (w *WailsRuntime) OpenURL(url string) {
	runtime.BrowserOpenURL(w.ctx, url)
}

// About shows an information dialog
func (w *WailsRuntime) About(title, message string, icon []byte) error {
	_, err := runtime.MessageDialog(w.ctx, runtime.MessageDialogOptions{
		Type:    runtime.InfoDialog,
		Title:   title,
		Message: message,
		Icon:    icon,
	})
	return err
}

// Quit ends the Wails application
func (w *WailsRuntime) Quit() {
	runtime.Quit(w.ctx)
}
