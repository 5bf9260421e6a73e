package menu

import (
	"grape/internal/config"
)

// Role is a standard text-editing action performed on the focused element
type Role string

const (
	RoleUndo      Role = "undo"
	RoleRedo      Role = "redo"
	RoleCut       Role = "cut"
	RoleCopy      Role = "copy"
	RolePaste     Role = "paste"
	RoleSelectAll Role = "selectAll"
)

// Accelerator is a CmdOrCtrl based shortcut
type Accelerator struct {
	Key   string
	Shift bool
}

func (a *Accelerator) String() string {
	if a == nil {
		return ""
	}
	if a.Shift {
		return "Shift+CmdOrCtrl+" + a.Key
	}
	return "CmdOrCtrl+" + a.Key
}

func cmd(key string) *Accelerator      { return &Accelerator{Key: key} }
func shiftCmd(key string) *Accelerator { return &Accelerator{Key: key, Shift: true} }

// Item is one node of a menu template
type Item struct {
	ID          string
	Label       string
	Accelerator *Accelerator
	Role        Role
	Click       func()
	Submenu     []*Item
	Disabled    bool
	Separator   bool
}

func separator() *Item { return &Item{Separator: true} }

// Actions are the callbacks menu items trigger
type Actions struct {
	Quit         func()
	BackToChat   func()
	ChooseDomain func()
	About        func()
	Open         func()

	Reload      func()
	ReloadShell func()
	Diagnostics func()
}

// BuildMain returns the application menu template for env
func BuildMain(env *config.Environment, a Actions, cat *Catalog) []*Item {
	items := []*Item{
		{
			ID:    MsgApplication,
			Label: cat.T(MsgApplication),
			Submenu: []*Item{
				{ID: MsgQuit, Label: cat.T(MsgQuit), Accelerator: cmd("q"), Click: a.Quit},
				{ID: MsgBackToChat, Label: cat.T(MsgBackToChat), Click: a.BackToChat},
				{ID: MsgChooseDomain, Label: cat.T(MsgChooseDomain), Click: a.ChooseDomain, Disabled: env.ChooseDomainDisabled},
				separator(),
				{ID: MsgAbout, Label: cat.T(MsgAbout), Click: a.About},
			},
		},
		{
			ID:    MsgEdit,
			Label: cat.T(MsgEdit),
			Submenu: []*Item{
				{ID: MsgUndo, Label: cat.T(MsgUndo), Accelerator: cmd("z"), Role: RoleUndo},
				{ID: MsgRedo, Label: cat.T(MsgRedo), Accelerator: shiftCmd("z"), Role: RoleRedo},
				separator(),
				{ID: MsgCut, Label: cat.T(MsgCut), Accelerator: cmd("x"), Role: RoleCut},
				{ID: MsgCopy, Label: cat.T(MsgCopy), Accelerator: cmd("c"), Role: RoleCopy},
				{ID: MsgPaste, Label: cat.T(MsgPaste), Accelerator: cmd("v"), Role: RolePaste},
				{ID: MsgSelectAll, Label: cat.T(MsgSelectAll), Accelerator: cmd("a"), Role: RoleSelectAll},
			},
		},
	}

	if !env.IsProduction() {
		items = append(items, &Item{
			ID:    MsgDevelopment,
			Label: cat.T(MsgDevelopment),
			Submenu: []*Item{
				{ID: MsgReload, Label: cat.T(MsgReload), Accelerator: cmd("r"), Click: a.Reload},
				{ID: MsgReloadShell, Label: cat.T(MsgReloadShell), Accelerator: shiftCmd("r"), Click: a.ReloadShell},
				{ID: MsgDiagnostics, Label: cat.T(MsgDiagnostics), Click: a.Diagnostics},
			},
		})
	}

	return items
}

// BuildTray returns the tray context menu template
func BuildTray(a Actions, cat *Catalog) []*Item {
	return []*Item{
		{ID: MsgOpen, Label: cat.T(MsgOpen), Click: a.Open},
		{ID: MsgQuit, Label: cat.T(MsgQuit), Click: a.Quit},
	}
}

// Find returns the first item with id, searching depth first
func Find(items []*Item, id string) *Item {
	for _, it := range items {
		if it.ID == id && !it.Separator {
			return it
		}
		if found := Find(it.Submenu, id); found != nil {
			return found
		}
	}
	return nil
}
