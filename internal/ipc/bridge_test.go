package ipc

import (
	"context"
	"testing"

	"grape/internal/testutils"
)

type fakeEvents struct {
	handlers map[string]func(...interface{})
	emitted  []string
}

func (f *fakeEvents) On(name string, cb func(...interface{})) {
	if f.handlers == nil {
		f.handlers = map[string]func(...interface{}){}
	}
	f.handlers[name] = cb
}

func (f *fakeEvents) Emit(name string, data ...interface{}) {
	f.emitted = append(f.emitted, name)
}

func TestListen(t *testing.T) {
	events := &fakeEvents{}
	logger := &testutils.RecordingLogger{}

	var got []Message
	d := NewDispatcher(func(ctx context.Context, msg Message) { got = append(got, msg) }, 8, logger)
	Listen(events, d, logger)

	for _, k := range PageKinds {
		if events.handlers[k.String()] == nil {
			t.Errorf("No listener for %s", k)
		}
	}

	events.handlers["addBadge"](float64(3))
	events.handlers["addBadge"]("lots")
	events.handlers["removeBadge"]()

	d.Stop()
	d.Run(context.Background())

	if len(got) != 2 || got[0].Kind != AddBadge || got[1].Kind != RemoveBadge {
		t.Fatalf("Unexpected messages %+v", got)
	}
	if logger.Count("ERROR") != 1 {
		t.Errorf("Expected invalid payload to be logged once, got %d", logger.Count("ERROR"))
	}

	// Dispatcher stopped: further messages are dropped with a warning
	events.handlers["loadChat"]()
	if !logger.Contains("WARN", "Dropping") {
		t.Error("Expected dropped message warning")
	}
}

func TestReplier(t *testing.T) {
	events := &fakeEvents{}
	r := NewReplier(events, &testutils.RecordingLogger{})

	r.Reply("openChannel:42")
	r.Reply("")

	if len(events.emitted) != 1 || events.emitted[0] != "openChannel:42" {
		t.Errorf("Unexpected emitted events %v", events.emitted)
	}
}
