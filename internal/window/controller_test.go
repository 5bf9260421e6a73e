package window

import (
	"context"
	"strings"
	"testing"

	"grape/internal/preferences"
	"grape/internal/testutils"
	"grape/internal/windowstate"
)

type fakeRuntime struct {
	visible   bool
	maximised bool
	width     int
	height    int
	scripts   []string
	reloads   int
	appReload int
	x, y      int
}

func (f *fakeRuntime) Size() (int, int)     { return f.width, f.height }
func (f *fakeRuntime) Position() (int, int) { return 10, 20 }
func (f *fakeRuntime) IsMaximised() bool    { return f.maximised }
func (f *fakeRuntime) Show()                { f.visible = true }
func (f *fakeRuntime) Hide()                { f.visible = false }
func (f *fakeRuntime) Unminimise()          {}
func (f *fakeRuntime) Maximise()            { f.maximised = true }
func (f *fakeRuntime) SetPosition(x, y int) { f.x, f.y = x, y }
func (f *fakeRuntime) ExecJS(js string)     { f.scripts = append(f.scripts, js) }
func (f *fakeRuntime) Reload()              { f.reloads++ }
func (f *fakeRuntime) ReloadApp()           { f.appReload++ }

func newController(t *testing.T) (*Controller, *fakeRuntime, *Latch, *windowstate.Keeper) {
	t.Helper()
	keeper := windowstate.New("main", windowstate.DefaultWidth, windowstate.DefaultHeight,
		preferences.NewMemoryStore(), &testutils.RecordingLogger{})
	latch := &Latch{}
	c := NewController(keeper, latch, &testutils.RecordingLogger{})
	rt := &fakeRuntime{visible: true, width: 800, height: 600}
	c.Bind(rt)
	return c, rt, latch, keeper
}

func TestController_CloseHidesUntilQuit(t *testing.T) {
	c, rt, latch, keeper := newController(t)
	ctx := context.Background()

	if !c.BeforeClose(ctx) {
		t.Fatal("Close must be prevented while the latch is unset")
	}
	if rt.visible {
		t.Error("Window should be hidden")
	}
	if g := keeper.Current(); g.Width != 800 || g.Height != 600 || !g.HasPosition {
		t.Errorf("Expected geometry to be captured, got %+v", g)
	}
	if len(rt.scripts) == 0 || !strings.Contains(rt.scripts[0], "blur") {
		t.Error("Expected the page to be blurred on hide")
	}

	latch.Set()
	rt.width = 900
	if c.BeforeClose(ctx) {
		t.Error("Close must be allowed once the latch is set")
	}
	if keeper.Current().Width != 900 {
		t.Error("Expected geometry capture on real close")
	}

	// Latch is one way
	latch.Set()
	if !latch.IsSet() {
		t.Error("Latch must stay set")
	}
}

func TestController_Show(t *testing.T) {
	c, rt, _, _ := newController(t)
	c.Hide(context.Background())
	c.Show()
	if !rt.visible {
		t.Error("Expected window to be visible")
	}
}

func TestController_Restore(t *testing.T) {
	c, rt, _, _ := newController(t)

	c.Restore(windowstate.Geometry{Width: 800, Height: 600})
	if rt.maximised || rt.x != 0 {
		t.Error("Window should keep its default placement")
	}

	c.Restore(windowstate.Geometry{X: 5, Y: 7, HasPosition: true})
	if rt.x != 5 || rt.y != 7 {
		t.Errorf("Expected position 5,7, got %d,%d", rt.x, rt.y)
	}

	c.Restore(windowstate.Geometry{IsMaximized: true})
	if !rt.maximised {
		t.Error("Window should be maximised")
	}
}

func TestController_Navigate(t *testing.T) {
	c, rt, _, _ := newController(t)
	c.Navigate(`/chat?x="1"`)

	want := `window.location.replace("/chat?x=\"1\"")`
	if len(rt.scripts) != 1 || rt.scripts[0] != want {
		t.Errorf("Got %v, want %s", rt.scripts, want)
	}
}

func TestController_Reload(t *testing.T) {
	c, rt, _, _ := newController(t)
	c.Reload()
	c.ReloadShell()
	if rt.reloads != 1 || rt.appReload != 1 {
		t.Errorf("Unexpected reload counts %d %d", rt.reloads, rt.appReload)
	}
}

func TestController_WithoutWindow(t *testing.T) {
	keeper := windowstate.New("main", 1, 1, preferences.NewMemoryStore(), &testutils.RecordingLogger{})
	logger := &testutils.RecordingLogger{}
	c := NewController(keeper, &Latch{}, logger)

	if c.Exists() {
		t.Error("No window bound yet")
	}
	c.Show()
	c.Capture(context.Background())
	c.Navigate("/")
	if !logger.Contains("WARN", "before window exists") {
		t.Error("Expected early navigation to be logged")
	}
	if !c.BeforeClose(context.Background()) {
		t.Error("Close is prevented even without a bound window")
	}
}
