// Package windowstate remembers the main window's geometry between launches.
package windowstate

import (
	"context"
	"sync"

	shellerrors "grape/internal/infrastructure/errors"
	"grape/internal/infrastructure/logging"
	"grape/internal/preferences"
)

// Default dimensions for the main window
const (
	DefaultWidth  = 1075
	DefaultHeight = 1000
)

// Geometry is the persisted window state
type Geometry struct {
	Width       int  `json:"width"`
	Height      int  `json:"height"`
	X           int  `json:"x"`
	Y           int  `json:"y"`
	IsMaximized bool `json:"isMaximized"`
	// HasPosition is false until the window was placed at least once
	HasPosition bool `json:"hasPosition"`
}

// WindowReader exposes the live window state
type WindowReader interface {
	Size() (width, height int)
	Position() (x, y int)
	IsMaximised() bool
}

// Keeper loads and saves the geometry of one named window
type Keeper struct {
	id       string
	defaults Geometry
	store    preferences.Store
	logger   logging.Logger

	mu      sync.Mutex
	current Geometry
}

// New creates a keeper for window id with default dimensions
func New(id string, width, height int, store preferences.Store, logger logging.Logger) *Keeper {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	defaults := Geometry{Width: width, Height: height}
	return &Keeper{
		id:       id,
		defaults: defaults,
		store:    store,
		logger:   logger,
		current:  defaults,
	}
}

func (k *Keeper) key() string {
	return "windowState:" + k.id
}

// Load returns the stored geometry, or the defaults when nothing usable is stored
func (k *Keeper) Load(ctx context.Context) Geometry {
	k.mu.Lock()
	defer k.mu.Unlock()

	var g Geometry
	err := k.store.Get(ctx, k.key(), &g)
	switch {
	case shellerrors.IsNotFound(err):
		k.current = k.defaults
	case err != nil:
		k.logger.Warn("Window state unreadable, using defaults", "window", k.id, "error", err.Error())
		k.current = k.defaults
	case g.Width <= 0 || g.Height <= 0:
		k.logger.Warn("Window state has invalid size, using defaults", "window", k.id,
			"width", g.Width, "height", g.Height)
		k.current = k.defaults
	default:
		k.current = g
	}
	return k.current
}

// Current returns the geometry last loaded or saved
func (k *Keeper) Current() Geometry {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current
}

// Save persists g
func (k *Keeper) Save(ctx context.Context, g Geometry) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.save(ctx, g)
}

func (k *Keeper) save(ctx context.Context, g Geometry) error {
	if err := k.store.Set(ctx, k.key(), g); err != nil {
		return err
	}
	k.current = g
	return nil
}

// Capture reads the live window and persists its state. While maximised only
// the flag is updated so the restored size survives.
func (k *Keeper) Capture(ctx context.Context, w WindowReader) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	g := k.current
	g.IsMaximized = w.IsMaximised()
	if !g.IsMaximized {
		width, height := w.Size()
		if width > 0 && height > 0 {
			g.Width, g.Height = width, height
		}
		g.X, g.Y = w.Position()
		g.HasPosition = true
	}
	return k.save(ctx, g)
}
