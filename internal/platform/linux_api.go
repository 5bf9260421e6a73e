//go:build !windows && !darwin

package platform

import (
	"grape/internal/infrastructure/logging"
)

// LinuxDesktop has no overlay or dock; badges fall back to the tray icon
type LinuxDesktop struct{}

// NewDesktop creates the integration for Linux and other Unix desktops
func NewDesktop(_ string, _ logging.Logger) Desktop {
	return LinuxDesktop{}
}

func (LinuxDesktop) SupportsOverlay() bool           { return false }
func (LinuxDesktop) SetOverlay([]byte, string) error { return nil }
func (LinuxDesktop) ClearOverlay() error             { return nil }
func (LinuxDesktop) SetDockBadge(string) error       { return nil }
func (LinuxDesktop) IsDarkMode() bool                { return false }
func (LinuxDesktop) ThemePreferencesPath() string    { return "" }
