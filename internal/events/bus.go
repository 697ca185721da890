// Package events carries the global side effects raised by the api client to whichever
// front end is listening: session expiry ("navigate to the login page") and transient
// user notifications (toasts).
//
// The api client only publishes. Policy (redirect, clear stored session, print a toast)
// belongs to the subscribers.
package events

import (
	"sync"
)

// Event is implemented by every message published on the bus
type Event interface {
	eventName() string
}

// SessionExpired is published when the backend rejects the session (401).
type SessionExpired struct {
	LoginPath string // where the user agent should navigate
	Method    string // the request that observed the expiry
	Path      string
}

func (SessionExpired) eventName() string { return "session_expired" }

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient, non-blocking message for the user
type Notification struct {
	Level   Level
	Title   string
	Message string
}

func (Notification) eventName() string { return "notification" }

// Bus is a synchronous fan-out of events to subscribers.
// Handlers run on the publisher's goroutine and must not block.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]func(Event))}
}

// Subscribe registers handler for all events and returns a function that removes it.
func (b *Bus) Subscribe(handler func(Event)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every current subscriber. A nil bus drops the event.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
