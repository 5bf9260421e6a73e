// Package assets maps logical asset names to the icons and shell pages
// embedded in the binary.
package assets

import (
	"bytes"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

//go:embed icons/*.png
var icons embed.FS

//go:embed pages
var pages embed.FS

// Icon names
const (
	TrayIcon         = "trayIcon"
	TrayBlueIcon     = "trayBlueIcon"
	TrayWhiteIcon    = "trayWhiteIcon"
	StatusBarOverlay = "statusBarOverlay"
	AboutIcon        = "icon"
)

var iconFiles = map[string]string{
	TrayIcon:         "icons/tray.png",
	TrayBlueIcon:     "icons/tray-blue.png",
	TrayWhiteIcon:    "icons/tray-white.png",
	StatusBarOverlay: "icons/overlay.png",
	AboutIcon:        "icons/icon.png",
}

// Registry resolves icon names to bytes and, lazily, to files under dir
type Registry struct {
	dir   string
	mu    sync.Mutex
	paths map[string]string
}

// NewRegistry creates a registry that materialises icon files into dir
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir, paths: make(map[string]string)}
}

// PNG returns the PNG bytes of the named icon
func (r *Registry) PNG(name string) ([]byte, error) {
	file, ok := iconFiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown icon %q", name)
	}
	return icons.ReadFile(file)
}

// MustPNG is PNG for names known at compile time
func (r *Registry) MustPNG(name string) []byte {
	data, err := r.PNG(name)
	if err != nil {
		panic(err)
	}
	return data
}

// ICO returns the named icon wrapped in a single-image ICO container
// (PNG-compressed entries are accepted by Windows Vista and later).
func (r *Registry) ICO(name string) ([]byte, error) {
	data, err := r.PNG(name)
	if err != nil {
		return nil, err
	}
	return wrapICO(data)
}

// Path returns an on-disk copy of the named icon for APIs that need a file
func (r *Registry) Path(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.paths[name]; ok {
		return p, nil
	}

	data, err := r.PNG(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", err
	}

	p := filepath.Join(r.dir, filepath.Base(iconFiles[name]))
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	r.paths[name] = p
	return p, nil
}

// Pages exposes the embedded shell pages rooted at their directory
func Pages() fs.FS {
	sub, err := fs.Sub(pages, "pages")
	if err != nil {
		panic(err)
	}
	return sub
}

func wrapICO(png []byte) ([]byte, error) {
	if len(png) < 24 || !bytes.HasPrefix(png, []byte("\x89PNG")) {
		return nil, fmt.Errorf("not a PNG image")
	}
	width := binary.BigEndian.Uint32(png[16:20])
	height := binary.BigEndian.Uint32(png[20:24])

	var buf bytes.Buffer
	// ICONDIR: reserved, type 1 (icon), one image
	binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY; a 0 dimension byte means 256
	buf.WriteByte(byte(width))
	buf.WriteByte(byte(height))
	buf.WriteByte(0) // palette
	buf.WriteByte(0) // reserved
	binary.Write(&buf, binary.LittleEndian, uint16(1))        // planes
	binary.Write(&buf, binary.LittleEndian, uint16(32))       // bits per pixel
	binary.Write(&buf, binary.LittleEndian, uint32(len(png))) // size
	binary.Write(&buf, binary.LittleEndian, uint32(6+16))     // offset
	buf.Write(png)
	return buf.Bytes(), nil
}
