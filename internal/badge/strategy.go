// Package badge shows the unread count. The platform decides once at
// startup whether that is a taskbar overlay or a tray icon plus dock label.
package badge

import (
	"fmt"
	"strconv"
	"strings"

	"grape/internal/assets"
	"grape/internal/infrastructure/logging"
)

// Strategy renders and clears the unread badge
type Strategy interface {
	Add(count string) error
	Remove() error
}

// Overlay is the taskbar overlay API
type Overlay interface {
	SetOverlay(icon []byte, description string) error
	ClearOverlay() error
}

// Tray is the part of the tray controller badges need
type Tray interface {
	SetBadgeIcon() error
	ClearBadgeIcon() error
}

// Dock sets the application badge label
type Dock interface {
	SetDockBadge(label string) error
}

// Description is the accessible overlay text for count
func Description(count string) string {
	n, _ := strconv.Atoi(strings.TrimSpace(count))
	suffix := ""
	if n > 1 {
		suffix = "s"
	}
	return fmt.Sprintf("%s unread channel%s", count, suffix)
}

// OverlayStrategy draws the overlay icon on the taskbar button
type OverlayStrategy struct {
	overlay Overlay
	icons   *assets.Registry
	logger  logging.Logger
}

// NewOverlayStrategy creates the taskbar overlay variant
func NewOverlayStrategy(overlay Overlay, icons *assets.Registry, logger logging.Logger) *OverlayStrategy {
	return &OverlayStrategy{overlay: overlay, icons: icons, logger: logger}
}

func (s *OverlayStrategy) Add(count string) error {
	icon, err := s.icons.PNG(assets.StatusBarOverlay)
	if err != nil {
		return err
	}
	desc := Description(count)
	s.logger.Debug("Adding overlay badge", "description", desc)
	return s.overlay.SetOverlay(icon, desc)
}

func (s *OverlayStrategy) Remove() error {
	s.logger.Debug("Removing overlay badge")
	return s.overlay.ClearOverlay()
}

// TrayStrategy swaps the tray icon and labels the dock
type TrayStrategy struct {
	tray   Tray
	dock   Dock
	logger logging.Logger
}

// NewTrayStrategy creates the tray icon variant
func NewTrayStrategy(tray Tray, dock Dock, logger logging.Logger) *TrayStrategy {
	return &TrayStrategy{tray: tray, dock: dock, logger: logger}
}

func (s *TrayStrategy) Add(count string) error {
	s.logger.Debug("Adding tray badge", "count", count)
	if err := s.tray.SetBadgeIcon(); err != nil {
		return err
	}
	return s.dock.SetDockBadge(count)
}

func (s *TrayStrategy) Remove() error {
	s.logger.Debug("Removing tray badge")
	if err := s.tray.ClearBadgeIcon(); err != nil {
		return err
	}
	return s.dock.SetDockBadge("")
}

// Platform is what ForPlatform needs from the native integration
type Platform interface {
	Overlay
	Dock
	SupportsOverlay() bool
}

// ForPlatform picks the strategy once for the running platform
func ForPlatform(p Platform, tray Tray, icons *assets.Registry, logger logging.Logger) Strategy {
	if p.SupportsOverlay() {
		logger.Info("Using taskbar overlay badges")
		return NewOverlayStrategy(p, icons, logger)
	}
	logger.Info("Using tray icon badges")
	return NewTrayStrategy(tray, p, logger)
}
