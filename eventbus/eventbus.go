// Package eventbus provides the {subscribe, publish} mechanism named in
// motion's external interfaces: ON_CONFIG_RELOAD, ON_BLOCK_BEGIN/END,
// ON_GCODE_EXECUTE/RECEIVED, ON_PLAY/PAUSE, ON_SPEED_CHANGE and friends.
//
// Subscribers form a linked list of callbacks registered against one
// subject, walked and invoked synchronously on publish. Here the subject
// is an event name instead of a single trigger object, and the list is
// per name rather than singular.
package eventbus

import "sync"

// Handler receives an event's payload. Publish runs handlers in the
// caller's own goroutine/context, synchronously, in subscription order.
// A handler therefore runs in whatever context publishes: motion.Stepper
// publishes ON_SPEED_CHANGE from its trapezoid tick, ON_ACCEL_SYNC from
// the main stepper's per-step hook, and ON_BLOCK_END from the step
// ticker's finished-move pass as well as from main-context calls.
type Handler func(data any)

type subscriber struct {
	handler Handler
	next    *subscriber
}

// Bus is a typed, multi-event publish/subscribe registry. The zero value
// is not usable; construct with New.
type Bus struct {
	mu   sync.Mutex
	subs map[string]*subscriber
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string]*subscriber)}
}

// Subscribe registers handler to run whenever event is published. Returns
// an Unsubscribe function that removes this one registration.
func (b *Bus) Subscribe(event string, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &subscriber{handler: handler}
	if head := b.subs[event]; head == nil {
		b.subs[event] = s
	} else {
		tail := head
		for tail.next != nil {
			tail = tail.next
		}
		tail.next = s
	}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.removeLocked(event, s)
	}
}

func (b *Bus) removeLocked(event string, target *subscriber) {
	head := b.subs[event]
	if head == target {
		b.subs[event] = head.next
		return
	}
	for cur := head; cur != nil && cur.next != nil; cur = cur.next {
		if cur.next == target {
			cur.next = cur.next.next
			return
		}
	}
}

// Publish runs every handler registered for event, in subscription order,
// synchronously in the caller's context. Safe to call with no
// subscribers registered.
func (b *Bus) Publish(event string, data any) {
	b.mu.Lock()
	head := b.subs[event]
	b.mu.Unlock()

	for cur := head; cur != nil; cur = cur.next {
		cur.handler(data)
	}
}

// SubscriberCount reports how many handlers are registered for event, for
// tests.
func (b *Bus) SubscriberCount(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for cur := b.subs[event]; cur != nil; cur = cur.next {
		n++
	}
	return n
}
