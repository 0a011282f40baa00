// Package events is the change notification bridge between the store and
// its listeners. Events carry only a name; listeners re-query for data.
package events

import "sync"

// Event is a named change notification, e.g. "accounts.create".
type Event struct {
	Name string
}

// Handler receives events.
type Handler func(Event)

type subscription struct {
	id   uint64
	name string // empty matches every event
	fn   Handler
}

// Bus dispatches events synchronously to subscribers in subscription order.
// The zero value is ready to use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers fn for events with the given name. The returned
// function removes the subscription.
func (b *Bus) Subscribe(name string, fn Handler) (unsubscribe func()) {
	return b.add(name, fn)
}

// SubscribeAll registers fn for every event.
func (b *Bus) SubscribeAll(fn Handler) (unsubscribe func()) {
	return b.add("", fn)
}

func (b *Bus) add(name string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, name: name, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers the named event. Handlers run on the caller's goroutine
// after the subscriber list is snapshotted, so a handler may subscribe or
// unsubscribe without deadlocking.
func (b *Bus) Emit(name string) {
	if b == nil {
		return
	}
	b.mu.RLock()
	matched := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.name == "" || s.name == name {
			matched = append(matched, s.fn)
		}
	}
	b.mu.RUnlock()

	ev := Event{Name: name}
	for _, fn := range matched {
		fn(ev)
	}
}
