//go:build !windows

package tray

import "github.com/getlantern/systray"

// The host window's event loop also drives the tray here
func start(onReady, onExit func()) {
	systray.Register(onReady, onExit)
}
