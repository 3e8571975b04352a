// Package emitter is a small typed publish/subscribe registry.
package emitter

import "sync"

type entry[T any] struct {
	id uint64
	fn func(T)
}

// Emitter delivers every emitted value to all handlers, in subscription order.
// Handlers run on the emitting goroutine.
type Emitter[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers []entry[T]
}

func New[T any]() *Emitter[T] {
	return &Emitter[T]{}
}

// On registers fn and returns a func that removes it again.
func (e *Emitter[T]) On(fn func(T)) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, entry[T]{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

func (e *Emitter[T]) Emit(v T) {
	e.mu.RLock()
	handlers := make([]entry[T], len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	for _, h := range handlers {
		h.fn(v)
	}
}

func (e *Emitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.handlers)
}

func (e *Emitter[T]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, h := range e.handlers {
		if h.id == id {
			e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
			return
		}
	}
}
