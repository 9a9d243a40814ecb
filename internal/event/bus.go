package event

import "sync"

// Handler receives one published value.
type Handler[T any] func(v T)

type handlerEntry[T any] struct {
	id int
	fn Handler[T]
}

// Bus is a typed publish/subscribe stream. Handlers run synchronously on the
// publishing goroutine in subscription order; a handler that needs to block
// must hand the value off to its own goroutine.
type Bus[T any] struct {
	mu       sync.RWMutex
	handlers []handlerEntry[T]
	nextID   int
}

// Subscribe registers fn and returns an id for Unsubscribe.
func (b *Bus[T]) Subscribe(fn Handler[T]) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers = append(b.handlers, handlerEntry[T]{id: b.nextID, fn: fn})
	return b.nextID
}

func (b *Bus[T]) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.id == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Publish delivers v to a snapshot of the current handlers, so handlers may
// subscribe or unsubscribe while being called.
func (b *Bus[T]) Publish(v T) {
	b.mu.RLock()
	handlers := make([]handlerEntry[T], len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()
	for _, h := range handlers {
		if h.fn != nil {
			h.fn(v)
		}
	}
}

// Len reports the number of subscribed handlers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
