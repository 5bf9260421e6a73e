//go:build windows

package platform

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"

	shellerrors "grape/internal/infrastructure/errors"
	"grape/internal/infrastructure/logging"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procFindWindowW              = user32.NewProc("FindWindowW")
	procCreateIconFromResourceEx = user32.NewProc("CreateIconFromResourceEx")
	procDestroyIcon              = user32.NewProc("DestroyIcon")
)

var (
	clsidTaskbarList = ole.NewGUID("{56FDF344-FD6D-11d0-958A-006097C9A090}")
	iidITaskbarList3 = ole.NewGUID("{EA1AFB91-9E28-4B86-90E9-9E9F8A5EEDAF}")

	overlayMu sync.Mutex
)

const (
	overlayIconSize = 16
	iconResourceVer = 0x00030000
	lrDefaultColor  = 0x00000000
)

// taskbarList3Vtbl mirrors the ITaskbarList3 vtable up to SetOverlayIcon
type taskbarList3Vtbl struct {
	ole.IUnknownVtbl
	HrInit                uintptr
	AddTab                uintptr
	DeleteTab             uintptr
	ActivateTab           uintptr
	SetActiveAlt          uintptr
	MarkFullscreenWindow  uintptr
	SetProgressValue      uintptr
	SetProgressState      uintptr
	RegisterTab           uintptr
	UnregisterTab         uintptr
	SetTabOrder           uintptr
	SetTabActive          uintptr
	ThumbBarAddButtons    uintptr
	ThumbBarUpdateButtons uintptr
	ThumbBarSetImageList  uintptr
	SetOverlayIcon        uintptr
}

// WindowsDesktop draws unread overlays on the main window's taskbar button
type WindowsDesktop struct {
	windowTitle string
	logger      logging.Logger
}

// NewDesktop creates the Windows integration for the window titled windowTitle
func NewDesktop(windowTitle string, logger logging.Logger) Desktop {
	return &WindowsDesktop{windowTitle: windowTitle, logger: logger}
}

func (w *WindowsDesktop) SupportsOverlay() bool { return true }

func (w *WindowsDesktop) SetOverlay(icon []byte, description string) error {
	if len(icon) == 0 {
		return shellerrors.HandleValidationError("platform.SetOverlay", "icon", "", "empty image")
	}

	hIcon, _, callErr := procCreateIconFromResourceEx.Call(
		uintptr(unsafe.Pointer(&icon[0])),
		uintptr(len(icon)),
		1, // fIcon
		iconResourceVer,
		uintptr(overlayIconSize),
		uintptr(overlayIconSize),
		lrDefaultColor,
	)
	if hIcon == 0 {
		return shellerrors.HandlePlatformError("platform.SetOverlay", "overlay", fmt.Errorf("create icon: %w", callErr))
	}
	defer procDestroyIcon.Call(hIcon)

	return w.setOverlayIcon(hIcon, description)
}

func (w *WindowsDesktop) ClearOverlay() error {
	return w.setOverlayIcon(0, "")
}

func (w *WindowsDesktop) setOverlayIcon(hIcon uintptr, description string) error {
	overlayMu.Lock()
	defer overlayMu.Unlock()

	// COM calls stay on one OS thread for the apartment's lifetime
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		// S_FALSE: already initialised on this thread
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != 1 {
			return shellerrors.HandlePlatformError("platform.SetOverlay", "com", err)
		}
	}
	defer ole.CoUninitialize()

	hwnd, err := w.findWindow()
	if err != nil {
		return err
	}

	unknown, err := ole.CreateInstance(clsidTaskbarList, iidITaskbarList3)
	if err != nil {
		return shellerrors.HandlePlatformError("platform.SetOverlay", "taskbar", err)
	}
	defer unknown.Release()

	vtbl := (*taskbarList3Vtbl)(unsafe.Pointer(unknown.RawVTable))
	if hr, _, _ := syscall.SyscallN(vtbl.HrInit, uintptr(unsafe.Pointer(unknown))); hr != 0 {
		return shellerrors.HandlePlatformError("platform.SetOverlay", "taskbar", ole.NewError(hr))
	}

	var descPtr *uint16
	if description != "" {
		descPtr, err = windows.UTF16PtrFromString(description)
		if err != nil {
			return shellerrors.HandleValidationError("platform.SetOverlay", "description", description, err.Error())
		}
	}

	hr, _, _ := syscall.SyscallN(vtbl.SetOverlayIcon,
		uintptr(unsafe.Pointer(unknown)),
		hwnd,
		hIcon,
		uintptr(unsafe.Pointer(descPtr)),
	)
	if hr != 0 {
		return shellerrors.HandlePlatformError("platform.SetOverlay", "overlay", ole.NewError(hr))
	}

	w.logger.Debug("Taskbar overlay updated", "description", description, "cleared", hIcon == 0)
	return nil
}

func (w *WindowsDesktop) findWindow() (uintptr, error) {
	title, err := windows.UTF16PtrFromString(w.windowTitle)
	if err != nil {
		return 0, shellerrors.HandleValidationError("platform.findWindow", "title", w.windowTitle, err.Error())
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(title)))
	if hwnd == 0 {
		return 0, shellerrors.HandlePlatformError("platform.findWindow", "window",
			fmt.Errorf("no window titled %q", w.windowTitle))
	}
	return hwnd, nil
}

func (w *WindowsDesktop) SetDockBadge(string) error { return nil }

func (w *WindowsDesktop) IsDarkMode() bool { return false }

func (w *WindowsDesktop) ThemePreferencesPath() string { return "" }
