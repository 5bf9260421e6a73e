//go:build windows

package tray

import "github.com/getlantern/systray"

// Windows trays run their own message loop on a dedicated thread
func start(onReady, onExit func()) {
	go systray.Run(onReady, onExit)
}
