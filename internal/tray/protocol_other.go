//go:build !windows

package tray

// RegisterProtocol is only needed where toasts activate through a URL scheme
func RegisterProtocol(string) error { return nil }
