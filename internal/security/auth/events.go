package auth

import (
	"log/slog"
	"sync"
	"time"
)

// EventType names an auth-state change
type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventProfileUpdated EventType = "profile_updated"
)

// Event is one auth-state change of one user
type Event struct {
	Type   EventType
	UserID string
	At     time.Time
}

// Events is the in-process auth-state-change subscription
type Events struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
	logger *slog.Logger
}

// NewEvents creates an empty event bus
func NewEvents(logger *slog.Logger) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{subs: map[int]func(Event){}, logger: logger}
}

// Subscribe registers fn for every future event and returns its unsubscribe func
func (e *Events) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
		})
	}
}

// Emit delivers ev synchronously to every subscriber. A panicking subscriber is
// logged and does not stop delivery to the rest.
func (e *Events) Emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	e.mu.RLock()
	subs := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.RUnlock()

	for _, fn := range subs {
		e.deliver(fn, ev)
	}
}

func (e *Events) deliver(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("auth event subscriber panicked",
				slog.String("event", string(ev.Type)),
				slog.Any("panic", r),
			)
		}
	}()
	fn(ev)
}
