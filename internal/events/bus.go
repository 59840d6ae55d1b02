package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lutefd/pokerlog/internal/domain/sessions"
)

type Name string

const (
	SessionCreated     Name = "SessionCreated"
	LiveSessionStarted Name = "LiveSessionStarted"
	SessionUpdated     Name = "SessionUpdated"
	SessionEnded       Name = "SessionEnded"
)

// Lifecycle lists every event a session goes through.
var Lifecycle = []Name{SessionCreated, LiveSessionStarted, SessionUpdated, SessionEnded}

// Event carries the session as stored after the write that raised it.
type Event struct {
	Name    Name
	Session sessions.Session
	At      time.Time
}

type Handler func(context.Context, Event) error

type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]Handler
	now      func() time.Time
}

func NewBus() *Bus {
	return &Bus{
		handlers: map[Name][]Handler{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (b *Bus) Subscribe(name Name, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

func (b *Bus) SubscribeAll(handler Handler) {
	for _, name := range Lifecycle {
		b.Subscribe(name, handler)
	}
}

// Publish delivers e to every handler of its name, in subscription order,
// and joins their errors. A failing handler does not hide the event from the
// ones after it.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.Name]...)
	b.mu.RUnlock()

	if e.At.IsZero() {
		e.At = b.now()
	}
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
