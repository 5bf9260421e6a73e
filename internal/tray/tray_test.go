package tray

import (
	"errors"
	"testing"

	"grape/internal/assets"
	"grape/internal/menu"
	"grape/internal/testutils"
)

type fakeBackend struct {
	icons   [][]byte
	tooltip string
	menu    []*menu.Item
	quit    bool
}

func (f *fakeBackend) SetIcon(icon []byte)        { f.icons = append(f.icons, icon) }
func (f *fakeBackend) SetTooltip(text string)     { f.tooltip = text }
func (f *fakeBackend) SetMenu(items []*menu.Item) { f.menu = items }
func (f *fakeBackend) Quit()                      { f.quit = true }

type fakeNotifier struct {
	ids []string
	err error
}

func (f *fakeNotifier) Notify(id, title, message, iconPath string) error {
	if f.err != nil {
		return f.err
	}
	f.ids = append(f.ids, id)
	return nil
}

type fakeIcons struct{}

func (fakeIcons) Icon(name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("no name")
	}
	return []byte(name), nil
}
func (fakeIcons) Path(name string) (string, error) { return "/tmp/" + name + ".png", nil }

func newController(dark bool) (*Controller, *fakeBackend, *fakeNotifier) {
	backend := &fakeBackend{}
	notifier := &fakeNotifier{}
	c := New(Options{
		Backend:  backend,
		Notifier: notifier,
		Icons:    fakeIcons{},
		IsDark:   func() bool { return dark },
		Menu:     []*menu.Item{{ID: "open", Label: "Open"}},
		Tooltip:  "Grape",
		Logger:   &testutils.RecordingLogger{},
	})
	return c, backend, notifier
}

func TestController_Initialize(t *testing.T) {
	for _, tt := range []struct {
		dark bool
		want string
	}{
		{false, assets.TrayIcon},
		{true, assets.TrayWhiteIcon},
	} {
		c, backend, _ := newController(tt.dark)
		if err := c.Initialize(); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		if c.CurrentIcon() != tt.want {
			t.Errorf("dark=%v: icon %s, want %s", tt.dark, c.CurrentIcon(), tt.want)
		}
		if len(backend.menu) != 1 || backend.tooltip != "Grape" {
			t.Error("Expected menu and tooltip to be installed")
		}
	}
}

func TestController_BadgeRoundTrip(t *testing.T) {
	c, backend, _ := newController(false)
	c.Initialize()
	pristine := c.CurrentIcon()

	c.SetBadgeIcon()
	if c.CurrentIcon() != assets.TrayBlueIcon {
		t.Errorf("Expected unread icon, got %s", c.CurrentIcon())
	}

	c.ClearBadgeIcon()
	if c.CurrentIcon() != pristine {
		t.Errorf("Expected %s after clear, got %s", pristine, c.CurrentIcon())
	}
	if string(backend.icons[len(backend.icons)-1]) != pristine {
		t.Error("Backend should show the pristine icon again")
	}
}

func TestController_SetThemeIcon(t *testing.T) {
	c, _, _ := newController(false)
	c.SetThemeIcon(true)
	if c.CurrentIcon() != assets.TrayWhiteIcon {
		t.Errorf("Expected white icon, got %s", c.CurrentIcon())
	}
	c.SetThemeIcon(false)
	if c.CurrentIcon() != assets.TrayIcon {
		t.Errorf("Expected default icon, got %s", c.CurrentIcon())
	}
}

func TestController_NotifySinglePendingHandler(t *testing.T) {
	c, _, notifier := newController(false)

	var clicks []string
	first, err := c.Notify("a", "one", func() { clicks = append(clicks, "first") })
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	second, _ := c.Notify("b", "two", func() { clicks = append(clicks, "second") })

	if first == second || len(notifier.ids) != 2 {
		t.Fatal("Expected two distinct notifications")
	}

	if c.BalloonClicked(first) {
		t.Error("Replaced handler must not fire")
	}
	if !c.BalloonClicked(second) {
		t.Error("Current handler should fire")
	}
	if c.BalloonClicked(second) {
		t.Error("Handler must fire at most once")
	}
	if c.HasPendingClick() {
		t.Error("Expected no pending handler after click")
	}

	if len(clicks) != 1 || clicks[0] != "second" {
		t.Errorf("Unexpected clicks %v", clicks)
	}
}

func TestController_NotifyFailureClearsHandler(t *testing.T) {
	c, _, notifier := newController(false)
	notifier.err = errors.New("no notification daemon")

	if _, err := c.Notify("a", "b", func() {}); err == nil {
		t.Fatal("Expected error")
	}
	if c.HasPendingClick() {
		t.Error("Failed notification must not leave a handler behind")
	}
}

func TestController_Quit(t *testing.T) {
	c, backend, _ := newController(false)
	c.Quit()
	if !backend.quit {
		t.Error("Expected backend quit")
	}
}

func TestActivation(t *testing.T) {
	url := ActivationURL("1234-abcd")
	if url != "grape://notification/1234-abcd" {
		t.Errorf("Unexpected activation URL %q", url)
	}

	id, ok := NotificationIDFromArgs([]string{"--flag", url})
	if !ok || id != "1234-abcd" {
		t.Errorf("Got %q, %v", id, ok)
	}

	for _, args := range [][]string{nil, {"grape://other/1"}, {"https://notification/1"}, {"grape://notification/"}} {
		if _, ok := NotificationIDFromArgs(args); ok {
			t.Errorf("Expected no id in %v", args)
		}
	}
}

func TestIconSourceFor(t *testing.T) {
	reg := assets.NewRegistry(t.TempDir())

	ico, err := IconSourceFor("windows", reg).Icon(assets.TrayIcon)
	if err != nil || len(ico) < 6 || ico[2] != 1 {
		t.Errorf("Expected ICO data on windows, err=%v", err)
	}

	png, err := IconSourceFor("darwin", reg).Icon(assets.TrayIcon)
	if err != nil || string(png[1:4]) != "PNG" {
		t.Errorf("Expected PNG data on darwin, err=%v", err)
	}
}
