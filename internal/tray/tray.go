// Package tray owns the status-area icon, its context menu and balloon
// notifications.
package tray

import (
	"sync"

	"github.com/google/uuid"

	"grape/internal/assets"
	shellerrors "grape/internal/infrastructure/errors"
	"grape/internal/infrastructure/logging"
	"grape/internal/menu"
)

// Backend is the native tray icon
type Backend interface {
	SetIcon(icon []byte)
	SetTooltip(text string)
	SetMenu(items []*menu.Item)
	Quit()
}

// Notifier shows OS balloons. id is handed back through BalloonClicked when
// the platform reports a click.
type Notifier interface {
	Notify(id, title, message, iconPath string) error
}

// IconSource resolves logical icon names
type IconSource interface {
	Icon(name string) ([]byte, error)
	Path(name string) (string, error)
}

// Options configures a Controller
type Options struct {
	Backend  Backend
	Notifier Notifier
	Icons    IconSource
	// IsDark selects the white tray icon; nil means always light
	IsDark  func() bool
	Menu    []*menu.Item
	Tooltip string
	Logger  logging.Logger
}

type pendingClick struct {
	id      string
	onClick func()
}

// Controller manages the single tray icon
type Controller struct {
	backend  Backend
	notifier Notifier
	icons    IconSource
	isDark   func() bool
	menu     []*menu.Item
	tooltip  string
	logger   logging.Logger

	mu      sync.Mutex
	current string
	pending *pendingClick
}

// New creates a controller; Initialize shows the icon
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logging.NewDefaultLogger()
	}
	if opts.IsDark == nil {
		opts.IsDark = func() bool { return false }
	}
	return &Controller{
		backend:  opts.Backend,
		notifier: opts.Notifier,
		icons:    opts.Icons,
		isDark:   opts.IsDark,
		menu:     opts.Menu,
		tooltip:  opts.Tooltip,
		logger:   opts.Logger,
	}
}

// Initialize attaches the menu and shows the theme icon
func (c *Controller) Initialize() error {
	c.backend.SetMenu(c.menu)
	if c.tooltip != "" {
		c.backend.SetTooltip(c.tooltip)
	}
	return c.setIcon(c.themeIconName(c.isDark()))
}

func (c *Controller) themeIconName(dark bool) string {
	if dark {
		return assets.TrayWhiteIcon
	}
	return assets.TrayIcon
}

func (c *Controller) setIcon(name string) error {
	data, err := c.icons.Icon(name)
	if err != nil {
		return shellerrors.HandlePlatformError("tray.setIcon", name, err)
	}

	c.backend.SetIcon(data)

	c.mu.Lock()
	c.current = name
	c.mu.Unlock()

	c.logger.Debug("Tray icon set", "icon", name)
	return nil
}

// CurrentIcon returns the logical name of the displayed icon
func (c *Controller) CurrentIcon() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetBadgeIcon shows the unread variant
func (c *Controller) SetBadgeIcon() error {
	return c.setIcon(assets.TrayBlueIcon)
}

// ClearBadgeIcon restores the icon matching the current theme
func (c *Controller) ClearBadgeIcon() error {
	return c.setIcon(c.themeIconName(c.isDark()))
}

// SetThemeIcon swaps between the light and dark tray icons
func (c *Controller) SetThemeIcon(isDark bool) error {
	return c.setIcon(c.themeIconName(isDark))
}

// Notify shows a balloon and registers onClick as the only pending click
// handler, replacing any earlier one. It returns the balloon id.
func (c *Controller) Notify(title, message string, onClick func()) (string, error) {
	id := uuid.NewString()

	iconPath, err := c.icons.Path(assets.AboutIcon)
	if err != nil {
		c.logger.Warn("Notification icon unavailable", "error", err.Error())
		iconPath = ""
	}

	c.mu.Lock()
	if c.pending != nil {
		c.logger.Debug("Replacing pending notification handler", "previous", c.pending.id)
	}
	c.pending = &pendingClick{id: id, onClick: onClick}
	c.mu.Unlock()

	if err := c.notifier.Notify(id, title, message, iconPath); err != nil {
		c.mu.Lock()
		if c.pending != nil && c.pending.id == id {
			c.pending = nil
		}
		c.mu.Unlock()
		return "", shellerrors.HandlePlatformError("tray.Notify", "notification", err)
	}

	c.logger.Debug("Notification shown", "id", id)
	return id, nil
}

// BalloonClicked runs and clears the pending handler when id matches it
func (c *Controller) BalloonClicked(id string) bool {
	c.mu.Lock()
	p := c.pending
	if p == nil || p.id != id {
		c.mu.Unlock()
		c.logger.Debug("Ignoring click for stale notification", "id", id)
		return false
	}
	c.pending = nil
	c.mu.Unlock()

	if p.onClick != nil {
		p.onClick()
	}
	return true
}

// HasPendingClick reports whether a click handler is registered
func (c *Controller) HasPendingClick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Quit removes the tray icon
func (c *Controller) Quit() {
	c.backend.Quit()
}
