// Package network observes connectivity transitions and turns a transition
// back online into a resume trigger.
package network

import (
	"sync"
)

// Event is a connectivity transition.
type Event string

const (
	EventOnline  Event = "online"
	EventOffline Event = "offline"
)

// Source reports connectivity and notifies subscribers of transitions.
type Source interface {
	Online() bool

	// Subscribe registers fn for event. The returned func removes it and is
	// safe to call more than once.
	Subscribe(event Event, fn func()) (unsubscribe func())
}

// listeners is a registry of per-event callbacks shared by the sources.
type listeners struct {
	mu     sync.Mutex
	nextID int
	byID   map[Event]map[int]func()
}

func (l *listeners) subscribe(event Event, fn func()) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.byID == nil {
		l.byID = make(map[Event]map[int]func())
	}
	if l.byID[event] == nil {
		l.byID[event] = make(map[int]func())
	}
	id := l.nextID
	l.nextID++
	l.byID[event][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.byID[event], id)
		})
	}
}

// emit calls the listeners for event outside the lock.
func (l *listeners) emit(event Event) {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.byID[event]))
	for _, fn := range l.byID[event] {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (l *listeners) count(event Event) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byID[event])
}

// Switch is a manually driven Source.
type Switch struct {
	mu        sync.Mutex
	online    bool
	listeners listeners
}

// NewSwitch creates a Switch in the given state.
func NewSwitch(online bool) *Switch {
	return &Switch{online: online}
}

// Online implements Source.
func (s *Switch) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Subscribe implements Source.
func (s *Switch) Subscribe(event Event, fn func()) func() {
	return s.listeners.subscribe(event, fn)
}

// Set changes the state. Listeners fire only on a transition.
func (s *Switch) Set(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	s.mu.Unlock()

	if !changed {
		return
	}
	if online {
		s.listeners.emit(EventOnline)
	} else {
		s.listeners.emit(EventOffline)
	}
}

// Listeners returns the number of callbacks registered for event.
func (s *Switch) Listeners(event Event) int {
	return s.listeners.count(event)
}
