// Package session tracks who is signed in and fans session changes out to
// interested components. One Hub is built at startup and shared.
package session

import (
	"sync"
	"time"
)

// User is the identity snapshot carried by session events.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Event reports a change for one UID. A nil User means signed out.
type Event struct {
	UID    string    `json:"uid"`
	User   *User     `json:"user"`
	Origin string    `json:"origin,omitempty"`
	At     time.Time `json:"at"`
}

// SignedIn reports whether the event carries a user.
func (e Event) SignedIn() bool {
	return e.User != nil
}

// Hub keeps the latest user per UID and notifies subscribers of changes.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]func(Event)
	nextID  uint64
	current map[string]User
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:    make(map[uint64]func(Event)),
		current: make(map[string]User),
	}
}

// Subscribe registers fn for every future event. The returned function
// removes the subscription and is safe to call more than once.
func (h *Hub) Subscribe(fn func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish records the event and delivers it to every subscriber.
// Subscribers run outside the hub lock on the publishing goroutine.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.Lock()
	if ev.User != nil {
		h.current[ev.UID] = *ev.User
	} else {
		delete(h.current, ev.UID)
	}
	fns := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Current returns the last known user for uid.
func (h *Hub) Current(uid string) (*User, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	u, ok := h.current[uid]
	if !ok {
		return nil, false
	}
	return &u, true
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
