package session

import (
	"log/slog"
	"sync"
)

// fanout delivers values to subscribers in emission order. A single
// dispatch goroutine drains a buffered channel so subscribers never see
// updates out of order relative to the commands that produced them, and
// emitters never block on a slow subscriber.
type fanout[T any] struct {
	mu   sync.Mutex
	subs map[int]func(T)
	next int

	updates chan T
	done    chan struct{}
	logger  *slog.Logger
}

func newFanout[T any](logger *slog.Logger) *fanout[T] {
	f := &fanout[T]{
		subs:    make(map[int]func(T)),
		updates: make(chan T, 256),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go f.dispatch()
	return f
}

func (f *fanout[T]) dispatch() {
	for {
		select {
		case v := <-f.updates:
			f.mu.Lock()
			fns := make([]func(T), 0, len(f.subs))
			for _, fn := range f.subs {
				fns = append(fns, fn)
			}
			f.mu.Unlock()
			for _, fn := range fns {
				fn(v)
			}
		case <-f.done:
			return
		}
	}
}

func (f *fanout[T]) subscribe(fn func(T)) (cancel func()) {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

func (f *fanout[T]) emit(v T) {
	select {
	case f.updates <- v:
	default:
		if f.logger != nil {
			f.logger.Warn("update dropped, subscriber too slow")
		}
	}
}

func (f *fanout[T]) close() {
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}
