package backend

import "sync"

// Broadcaster fans session events out to registered listeners.
// Listeners run synchronously on the emitting goroutine, in registration order.
type Broadcaster struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(Event)
	order     []int
}

type subscription struct {
	once sync.Once
	fn   func()
}

func (s *subscription) Unsubscribe() { s.once.Do(s.fn) }

// Subscribe registers fn and returns its Subscription.
func (b *Broadcaster) Subscribe(fn func(Event)) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners == nil {
		b.listeners = make(map[int]func(Event))
	}
	id := b.next
	b.next++
	b.listeners[id] = fn
	b.order = append(b.order, id)
	return &subscription{fn: func() { b.remove(id) }}
}

func (b *Broadcaster) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Emit delivers ev to every current listener.
func (b *Broadcaster) Emit(ev Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.listeners[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of registered listeners.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

// NopSubscription is a Subscription with nothing to release.
type NopSubscription struct{}

func (NopSubscription) Unsubscribe() {}
