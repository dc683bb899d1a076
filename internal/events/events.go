// Package events carries raw field notifications from an input surface to
// form controllers.
//
// Producers (a terminal UI, a websocket bridge, tests) publish Events naming a
// field; consumers subscribe through the Source interface and release the
// subscription when they are disposed. Bus is the in-process Source.
package events

import (
	"sort"
	"sync"

	"github.com/muurk/formstate/internal/logging"
	"go.uber.org/zap"
)

// Kind is the type of a raw notification.
type Kind string

const (
	// KindFocusOut is reported when a field loses focus
	KindFocusOut Kind = "focusout"
	// KindInput is reported for each edit of a field's value
	KindInput Kind = "input"
	// KindChange is reported when an edit is committed
	KindChange Kind = "change"
	// KindClick is reported for clicks on any element, fields included
	KindClick Kind = "click"
)

// TargetInput is the element type of a plain input field.
const TargetInput = "input"

// Event is a raw notification about a named field.
type Event struct {
	Kind   Kind   `json:"type"`
	Name   string `json:"name"`             // Field key, possibly a dotted path
	Value  any    `json:"value,omitempty"`  // New value; unset for focus events
	Target string `json:"target,omitempty"` // Element type, e.g. "input", "button"
}

// Valid reports whether the event names a field and has a known kind.
func (e Event) Valid() bool {
	if e.Name == "" {
		return false
	}
	switch e.Kind {
	case KindFocusOut, KindInput, KindChange, KindClick:
		return true
	}
	return false
}

// IsValueEdit reports whether e looks like a genuine edit of a field's value
// rather than an incidental click. Input and change events qualify; clicks
// qualify only when they land on an input element (radio buttons, checkboxes).
func IsValueEdit(e Event) bool {
	switch e.Kind {
	case KindInput, KindChange:
		return true
	case KindClick:
		return e.Target == TargetInput
	}
	return false
}

// Handler receives events. It runs on the publisher's goroutine.
type Handler func(Event)

// Subscription is released with Unsubscribe. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Source delivers events to subscribers. Subscribing with no kinds receives
// every kind.
type Source interface {
	Subscribe(h Handler, kinds ...Kind) Subscription
}

// Publisher accepts events from an input surface. *Bus implements it.
type Publisher interface {
	Publish(e Event)
}

// Bus is an in-process Source. Publish delivers synchronously, in
// subscription order, on the caller's goroutine.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*subscriber
}

type subscriber struct {
	id      uint64
	handler Handler
	kinds   map[Kind]bool
}

func (s *subscriber) wants(k Kind) bool {
	return len(s.kinds) == 0 || s.kinds[k]
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]*subscriber)}
}

// Subscribe registers h for the given kinds.
func (b *Bus) Subscribe(h Handler, kinds ...Kind) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{id: b.nextID, handler: h}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}
	b.subs[sub.id] = sub

	logging.Debug("Event subscription added",
		zap.Uint64("subscription_id", sub.id),
		zap.Int("subscribers", len(b.subs)),
	)

	return &busSubscription{bus: b, id: sub.id}
}

// Publish delivers e to every subscriber interested in its kind.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	targets := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.wants(e.Kind) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	logging.LogFieldEvent(string(e.Kind), e.Name, e.Target, len(targets))

	for _, s := range targets {
		s.handler(e)
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[id]; !ok {
		return
	}
	delete(b.subs, id)
	logging.Debug("Event subscription removed",
		zap.Uint64("subscription_id", id),
		zap.Int("subscribers", len(b.subs)),
	)
}

type busSubscription struct {
	bus  *Bus
	id   uint64
	once sync.Once
}

func (s *busSubscription) Unsubscribe() {
	s.once.Do(func() { s.bus.remove(s.id) })
}
