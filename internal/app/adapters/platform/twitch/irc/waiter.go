package irc

import (
	"sync"
	"time"
)

// waiters holds one-shot callbacks that fire when a self JOIN/PART for a
// channel is seen. A callback whose window passes is dropped without a call.
type waiters struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[string]map[uint64]*waiter
}

type waiter struct {
	fn    func()
	timer *time.Timer
}

func newWaiters() *waiters {
	return &waiters{pending: make(map[string]map[uint64]*waiter)}
}

func waitKey(kind, channel string) string {
	return kind + ":" + channel
}

func (w *waiters) wait(kind, channel string, timeout time.Duration, fn func()) {
	key := waitKey(kind, channel)

	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	id := w.nextID

	if w.pending[key] == nil {
		w.pending[key] = make(map[uint64]*waiter)
	}
	w.pending[key][id] = &waiter{
		fn: fn,
		timer: time.AfterFunc(timeout, func() {
			w.drop(key, id)
		}),
	}
}

func (w *waiters) notify(kind, channel string) {
	key := waitKey(kind, channel)

	w.mu.Lock()
	ready := w.pending[key]
	delete(w.pending, key)
	w.mu.Unlock()

	for _, wt := range ready {
		wt.timer.Stop()
		wt.fn()
	}
}

func (w *waiters) drop(key string, id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.pending[key], id)
	if len(w.pending[key]) == 0 {
		delete(w.pending, key)
	}
}

func (w *waiters) clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for key, ws := range w.pending {
		for _, wt := range ws {
			wt.timer.Stop()
		}
		delete(w.pending, key)
	}
}

func (w *waiters) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for _, ws := range w.pending {
		n += len(ws)
	}
	return n
}
