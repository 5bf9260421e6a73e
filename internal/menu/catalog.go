// Package menu builds the application and tray menus from a declarative,
// localized template.
package menu

import (
	"embed"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"grape/internal/infrastructure/logging"
)

//go:embed locales/*.yaml
var localeFiles embed.FS

// Message identifiers
const (
	MsgApplication  = "menuApplication"
	MsgQuit         = "menuQuit"
	MsgBackToChat   = "menuBackToChat"
	MsgChooseDomain = "menuChooseDomain"
	MsgEdit         = "menuEdit"
	MsgUndo         = "menuUndo"
	MsgRedo         = "menuRedo"
	MsgCut          = "menuCut"
	MsgCopy         = "menuCopy"
	MsgPaste        = "menuPaste"
	MsgSelectAll    = "menuSelectAll"
	MsgAbout        = "menuAbout"
	MsgOpen         = "menuOpen"
	MsgDevelopment  = "menuDevelopment"
	MsgReload       = "menuReload"
	MsgReloadShell  = "menuReloadShell"
	MsgDiagnostics  = "menuDiagnostics"
)

// English defaults, used whenever a locale lacks a translation
var defaultMessages = map[string]string{
	MsgApplication:  "Application",
	MsgQuit:         "Quit",
	MsgBackToChat:   "Back to chat",
	MsgChooseDomain: "Choose domain",
	MsgEdit:         "Edit",
	MsgUndo:         "Undo",
	MsgRedo:         "Redo",
	MsgCut:          "Cut",
	MsgCopy:         "Copy",
	MsgPaste:        "Paste",
	MsgSelectAll:    "Select All",
	MsgAbout:        "About Grape",
	MsgOpen:         "Open",
	MsgDevelopment:  "Development",
	MsgReload:       "Reload",
	MsgReloadShell:  "Reload shell",
	MsgDiagnostics:  "Diagnostics",
}

// Catalog resolves message identifiers for one locale
type Catalog struct {
	localizer *i18n.Localizer
	logger    logging.Logger
}

// NewCatalog loads the embedded locales and picks locale, falling back to English
func NewCatalog(locale string, logger logging.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	entries, err := localeFiles.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	for _, e := range entries {
		if _, err := bundle.LoadMessageFileFS(localeFiles, "locales/"+e.Name()); err != nil {
			return nil, fmt.Errorf("load locale %s: %w", e.Name(), err)
		}
	}

	if locale == "" {
		locale = language.English.String()
	}
	logger.Debug("Menu catalog loaded", "locale", locale, "files", len(entries))

	return &Catalog{
		localizer: i18n.NewLocalizer(bundle, locale, language.English.String()),
		logger:    logger,
	}, nil
}

// T returns the localized text for id. Unknown ids yield the id itself.
func (c *Catalog) T(id string) string {
	def, ok := defaultMessages[id]
	if !ok {
		def = id
	}

	text, err := c.localizer.Localize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: id, Other: def},
	})
	if err != nil {
		c.logger.Debug("Missing translation", "id", id, "error", err.Error())
		return def
	}
	return text
}
