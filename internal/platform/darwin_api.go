//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa
#include <stdlib.h>
#import <Cocoa/Cocoa.h>

static void setDockBadge(const char *label) {
	NSString *text = [NSString stringWithUTF8String:label];
	dispatch_async(dispatch_get_main_queue(), ^{
		[[NSApp dockTile] setBadgeLabel:([text length] > 0 ? text : nil)];
	});
}
*/
import "C"

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unsafe"

	"grape/internal/infrastructure/logging"
)

// DarwinDesktop sets the dock badge and reads the system appearance
type DarwinDesktop struct {
	logger logging.Logger
}

// NewDesktop creates the macOS integration
func NewDesktop(_ string, logger logging.Logger) Desktop {
	return &DarwinDesktop{logger: logger}
}

func (d *DarwinDesktop) SupportsOverlay() bool { return false }

func (d *DarwinDesktop) SetOverlay([]byte, string) error { return nil }

func (d *DarwinDesktop) ClearOverlay() error { return nil }

func (d *DarwinDesktop) SetDockBadge(label string) error {
	cLabel := C.CString(label)
	defer C.free(unsafe.Pointer(cLabel))
	C.setDockBadge(cLabel)
	d.logger.Debug("Dock badge updated", "label", label)
	return nil
}

// IsDarkMode asks the defaults database; the key is absent in light mode
func (d *DarwinDesktop) IsDarkMode() bool {
	out, err := exec.Command("defaults", "read", "-g", "AppleInterfaceStyle").Output()
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(string(out)), "dark")
}

func (d *DarwinDesktop) ThemePreferencesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Preferences", ".GlobalPreferences.plist")
}
