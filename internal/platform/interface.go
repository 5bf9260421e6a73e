// Package platform holds the native integrations Wails does not expose:
// taskbar overlay icons, dock badges and the system appearance.
package platform

// Desktop is implemented once per operating system
type Desktop interface {
	// SupportsOverlay reports whether badges are drawn on the taskbar button
	SupportsOverlay() bool
	// SetOverlay draws icon (PNG) over the taskbar button with an accessible description
	SetOverlay(icon []byte, description string) error
	ClearOverlay() error

	// SetDockBadge sets the dock badge label; "" clears it
	SetDockBadge(label string) error

	IsDarkMode() bool
	// ThemePreferencesPath is the file that changes with the system appearance,
	// or "" when appearance changes are not observable
	ThemePreferencesPath() string
}
