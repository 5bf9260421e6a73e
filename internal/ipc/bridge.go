package ipc

import (
	"grape/internal/infrastructure/logging"
)

// EventSource delivers named events from the page
type EventSource interface {
	On(name string, callback func(data ...interface{}))
}

// Emitter sends named events to the page
type Emitter interface {
	Emit(name string, data ...interface{})
}

// Listen registers every page message on src. Valid messages are posted to
// d; invalid payloads are logged and dropped.
func Listen(src EventSource, d *Dispatcher, logger logging.Logger) {
	for _, kind := range PageKinds {
		name := kind.String()
		src.On(name, func(data ...interface{}) {
			msg, err := Parse(name, data...)
			if err != nil {
				logging.LogError(logger, err, "ipc.Listen", map[string]interface{}{"message": name})
				return
			}
			if err := d.Post(msg); err != nil {
				logger.Warn("Dropping page message", "message", name, "error", err.Error())
			}
		})
	}
}

// Replier echoes event names back to the page
type Replier struct {
	emitter Emitter
	logger  logging.Logger
}

// NewReplier creates a Replier over emitter
func NewReplier(emitter Emitter, logger logging.Logger) *Replier {
	return &Replier{emitter: emitter, logger: logger}
}

// Reply emits event with no payload; empty names are ignored
func (r *Replier) Reply(event string) {
	if event == "" {
		return
	}
	r.logger.Debug("Replying to page", "event", event)
	r.emitter.Emit(event)
}
