// Package par runs sets of tasks with bounded parallelism.
package par

import "sync"

// Work is a set of items processed in parallel, at most once each.
// Items are taken in the order they were added, so with a single runner
// the processing order is deterministic.
type Work[T comparable] struct {
	f       func(T)
	running int

	mu      sync.Mutex
	added   map[T]bool
	todo    []T
	wait    sync.Cond
	waiting int
}

// Add adds item to the set unless it was added before. It may be called
// from inside the function passed to Do.
func (w *Work[T]) Add(item T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.added == nil {
		w.added = make(map[T]bool)
	}
	if w.added[item] {
		return
	}
	w.added[item] = true
	w.todo = append(w.todo, item)
	if w.waiting > 0 {
		w.wait.Signal()
	}
}

// Do calls f on every item of the set with at most n calls running at
// once, and returns when the set is exhausted and no call is in progress.
// Do may be called only once.
func (w *Work[T]) Do(n int, f func(item T)) {
	if n < 1 {
		panic("par.Work.Do: n < 1")
	}
	if w.running >= 1 {
		panic("par.Work.Do: already called Do")
	}
	w.running = n
	w.f = f
	w.wait.L = &w.mu

	for i := 0; i < n-1; i++ {
		go w.runner()
	}
	w.runner()
}

func (w *Work[T]) runner() {
	for {
		w.mu.Lock()
		for len(w.todo) == 0 {
			w.waiting++
			if w.waiting == w.running {
				w.wait.Broadcast()
				w.mu.Unlock()
				return
			}
			w.wait.Wait()
			w.waiting--
		}
		item := w.todo[0]
		w.todo = w.todo[1:]
		w.mu.Unlock()

		w.f(item)
	}
}
