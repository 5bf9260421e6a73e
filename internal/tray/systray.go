package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"grape/internal/assets"
	"grape/internal/infrastructure/logging"
	"grape/internal/menu"
)

// SystrayBackend drives getlantern/systray. Calls made before the tray is
// ready are remembered and applied once it is.
type SystrayBackend struct {
	logger logging.Logger

	mu      sync.Mutex
	ready   bool
	icon    []byte
	tooltip string
	items   []*menu.Item
}

var _ Backend = (*SystrayBackend)(nil)

// NewSystrayBackend creates a backend; call Start to create the icon
func NewSystrayBackend(logger logging.Logger) *SystrayBackend {
	return &SystrayBackend{logger: logger}
}

// Start creates the native tray and calls onReady when it can be used
func (b *SystrayBackend) Start(onReady func()) {
	start(func() {
		b.mu.Lock()
		b.ready = true
		icon, tooltip, items := b.icon, b.tooltip, b.items
		b.mu.Unlock()

		if icon != nil {
			systray.SetIcon(icon)
		}
		if tooltip != "" {
			systray.SetTooltip(tooltip)
		}
		if items != nil {
			b.addItems(items)
		}
		b.logger.Debug("System tray ready")

		if onReady != nil {
			onReady()
		}
	}, func() {
		b.logger.Debug("System tray exited")
	})
}

func (b *SystrayBackend) SetIcon(icon []byte) {
	b.mu.Lock()
	b.icon = icon
	ready := b.ready
	b.mu.Unlock()

	if ready {
		systray.SetIcon(icon)
	}
}

func (b *SystrayBackend) SetTooltip(text string) {
	b.mu.Lock()
	b.tooltip = text
	ready := b.ready
	b.mu.Unlock()

	if ready {
		systray.SetTooltip(text)
	}
}

// SetMenu installs the context menu. The menu is built once.
func (b *SystrayBackend) SetMenu(items []*menu.Item) {
	b.mu.Lock()
	if b.items != nil {
		b.mu.Unlock()
		return
	}
	b.items = items
	ready := b.ready
	b.mu.Unlock()

	if ready {
		b.addItems(items)
	}
}

func (b *SystrayBackend) addItems(items []*menu.Item) {
	for _, it := range items {
		if it.Separator {
			systray.AddSeparator()
			continue
		}
		entry := systray.AddMenuItem(it.Label, it.Label)
		if it.Disabled {
			entry.Disable()
		}
		go func(click func(), ch chan struct{}) {
			for range ch {
				if click != nil {
					click()
				}
			}
		}(it.Click, entry.ClickedCh)
	}
}

func (b *SystrayBackend) Quit() {
	systray.Quit()
}

// IconSourceFor adapts the asset registry to the icon format the native
// tray expects on goos: ICO on Windows, PNG elsewhere.
func IconSourceFor(goos string, reg *assets.Registry) IconSource {
	return registrySource{reg: reg, ico: goos == "windows"}
}

type registrySource struct {
	reg *assets.Registry
	ico bool
}

func (s registrySource) Icon(name string) ([]byte, error) {
	if s.ico {
		return s.reg.ICO(name)
	}
	return s.reg.PNG(name)
}

func (s registrySource) Path(name string) (string, error) {
	return s.reg.Path(name)
}
