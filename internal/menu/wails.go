package menu

import (
	"fmt"

	wailsmenu "github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
)

// ScriptRunner executes JavaScript in the page; role items need it
type ScriptRunner func(js string)

// ToWails converts a template into a Wails application menu. With
// nativeEdit a submenu made only of editing roles becomes the platform's own
// Edit menu; macOS webviews refuse execCommand("paste") from page scripts and
// only route the standard shortcuts through that menu.
func ToWails(items []*Item, run ScriptRunner, nativeEdit bool) *wailsmenu.Menu {
	m := wailsmenu.NewMenu()
	addItems(m, items, run, nativeEdit)
	return m
}

// NativeEdit reports whether goos needs the native Edit menu role
func NativeEdit(goos string) bool {
	return goos == "darwin"
}

func addItems(m *wailsmenu.Menu, items []*Item, run ScriptRunner, nativeEdit bool) {
	for _, it := range items {
		switch {
		case it.Separator:
			m.AddSeparator()
		case it.Submenu != nil && nativeEdit && isRoleMenu(it.Submenu):
			m.Append(wailsmenu.EditMenu())
		case it.Submenu != nil:
			addItems(m.AddSubmenu(it.Label), it.Submenu, run, nativeEdit)
		default:
			entry := m.AddText(it.Label, wailsAccelerator(it.Accelerator), callback(it, run))
			entry.Disabled = it.Disabled
		}
	}
}

func isRoleMenu(items []*Item) bool {
	roles := 0
	for _, it := range items {
		switch {
		case it.Separator:
		case it.Role != "":
			roles++
		default:
			return false
		}
	}
	return roles > 0
}

func callback(it *Item, run ScriptRunner) wailsmenu.Callback {
	if it.Role != "" {
		js := RoleScript(it.Role)
		return func(*wailsmenu.CallbackData) {
			if run != nil {
				run(js)
			}
		}
	}
	click := it.Click
	return func(*wailsmenu.CallbackData) {
		if click != nil {
			click()
		}
	}
}

func wailsAccelerator(a *Accelerator) *keys.Accelerator {
	if a == nil {
		return nil
	}
	if a.Shift {
		return keys.Combo(a.Key, keys.CmdOrCtrlKey, keys.ShiftKey)
	}
	return keys.CmdOrCtrl(a.Key)
}

// RoleScript is the page-side implementation of an editing role
func RoleScript(r Role) string {
	return fmt.Sprintf("document.execCommand(%q)", string(r))
}
