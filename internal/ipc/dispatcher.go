package ipc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"grape/internal/infrastructure/logging"
)

// DefaultInboxSize is the dispatcher buffer used by the application
const DefaultInboxSize = 64

// ErrStopped is returned by Post after Stop
var ErrStopped = errors.New("dispatcher stopped")

// Handler processes one message. It is never called concurrently.
type Handler func(ctx context.Context, msg Message)

// Dispatcher runs every message through a single goroutine in arrival order
type Dispatcher struct {
	handler Handler
	logger  logging.Logger

	inbox chan Message
	quit  chan struct{}
	done  chan struct{}

	stopOnce sync.Once
	runOnce  sync.Once
}

// NewDispatcher creates a dispatcher; call Run to start processing
func NewDispatcher(handler Handler, size int, logger logging.Logger) *Dispatcher {
	if size <= 0 {
		size = DefaultInboxSize
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Dispatcher{
		handler: handler,
		logger:  logger,
		inbox:   make(chan Message, size),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Post queues msg. It blocks while the inbox is full.
func (d *Dispatcher) Post(msg Message) error {
	select {
	case <-d.quit:
		return ErrStopped
	default:
	}

	select {
	case d.inbox <- msg:
		return nil
	case <-d.quit:
		return ErrStopped
	}
}

// Run processes messages until ctx is cancelled or Stop is called.
// Messages still queued at Stop are processed before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	err := fmt.Errorf("dispatcher already running")
	d.runOnce.Do(func() {
		defer close(d.done)
		err = d.loop(ctx)
	})
	return err
}

func (d *Dispatcher) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.quit:
			d.drain(ctx)
			return nil
		case msg := <-d.inbox:
			d.handle(ctx, msg)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case msg := <-d.inbox:
			d.handle(ctx, msg)
		default:
			return
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Message handler panicked", "kind", msg.Kind.String(), "panic", fmt.Sprint(r))
		}
	}()
	d.logger.Debug("Dispatching message", "kind", msg.Kind.String())
	d.handler(ctx, msg)
}

// Stop ends Run after draining the inbox. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.quit) })
}

// Done is closed when Run has returned
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}
