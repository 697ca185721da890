// Package uistate holds the process-wide state shared between the api client and the
// user interface: the global loading signal and the persisted login session.
package uistate

import "sync"

// Loading is the global "request in flight" signal consumed by loading overlays.
//
// It is reference counted: every dispatched call takes a hold with Begin and the signal
// is active while at least one hold is outstanding, so one call settling never clears
// the overlay while a sibling call is still running.
//
// Subscribers are notified on idle->busy and busy->idle transitions only. They are called
// synchronously and must not call Begin.
type Loading struct {
	notifyMu sync.Mutex // serialises transitions so subscribers see them in order

	mu       sync.Mutex
	inFlight int
	nextID   int
	subs     map[int]func(active bool)
}

func NewLoading() *Loading {
	return &Loading{subs: make(map[int]func(bool))}
}

// Begin registers an in-flight call. The returned release function decrements the count
// exactly once no matter how many times it is called.
func (l *Loading) Begin() (release func()) {
	l.change(+1)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.change(-1)
		})
	}
}

func (l *Loading) change(delta int) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	before := l.inFlight > 0
	l.inFlight += delta
	if l.inFlight < 0 {
		l.inFlight = 0
	}
	after := l.inFlight > 0
	var subs []func(bool)
	if before != after {
		subs = make([]func(bool), 0, len(l.subs))
		for _, fn := range l.subs {
			subs = append(subs, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(after)
	}
}

// Active reports whether any call is in flight
func (l *Loading) Active() bool {
	return l.InFlight() > 0
}

func (l *Loading) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// Subscribe registers fn for loading transitions and returns a function that removes it.
func (l *Loading) Subscribe(fn func(active bool)) (cancel func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}
