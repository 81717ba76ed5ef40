package engine

import (
	"log/slog"
	"sync"

	"github.com/narrifyapp/narrify-playback/internal/domain"
)

// statusFanout delivers status updates to listeners in emission order
// without holding adapter locks during delivery. A single dispatch
// goroutine drains a buffered channel, so no update is ever delivered out
// of order relative to the commands that produced it.
type statusFanout struct {
	mu        sync.Mutex
	listeners map[int]Listener
	next      int

	updates chan domain.EngineStatus
	done    chan struct{}
	logger  *slog.Logger
}

func newStatusFanout(logger *slog.Logger) *statusFanout {
	f := &statusFanout{
		listeners: make(map[int]Listener),
		updates:   make(chan domain.EngineStatus, 256),
		done:      make(chan struct{}),
		logger:    logger,
	}
	go f.dispatch()
	return f
}

func (f *statusFanout) dispatch() {
	for {
		select {
		case status := <-f.updates:
			f.mu.Lock()
			fns := make([]Listener, 0, len(f.listeners))
			for _, fn := range f.listeners {
				fns = append(fns, fn)
			}
			f.mu.Unlock()
			for _, fn := range fns {
				fn(status)
			}
		case <-f.done:
			return
		}
	}
}

// subscribe registers a listener; the returned cancel is idempotent.
func (f *statusFanout) subscribe(fn Listener) (cancel func()) {
	f.mu.Lock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

// emit queues a status update for dispatch. Updates are dropped only if
// the buffer is full (a stuck listener), never reordered.
func (f *statusFanout) emit(status domain.EngineStatus) {
	select {
	case f.updates <- status:
	default:
		if f.logger != nil {
			f.logger.Warn("status update dropped, listener too slow", "state", status.State)
		}
	}
}

// close stops the dispatch goroutine.
func (f *statusFanout) close() {
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}
