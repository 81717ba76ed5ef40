// Package queue maintains the ordered list of units waiting to play next,
// independent of what is currently playing. The queue is durable across
// restarts but is advisory state: it never appears in playback snapshots
// and is consulted only when the current unit finishes or is skipped.
package queue

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/store"
)

// key is where the pending list lives in the KV store.
const key = "queue:pending"

// Result reports the outcome of an enqueue. "Already queued" is a benign,
// expected condition, not a failure.
type Result string

const (
	Queued        Result = "queued"
	AlreadyQueued Result = "already_queued"
)

// Manager is the pending-playback queue. Entries are deduplicated by unit
// id and kept in insertion order; "play next" requests append at the tail
// (FIFO).
type Manager struct {
	kv     store.KV
	logger *slog.Logger

	mu      sync.Mutex
	entries []domain.QueueEntry
}

// NewManager creates a queue manager, restoring any persisted entries.
func NewManager(kv store.KV, logger *slog.Logger) (*Manager, error) {
	m := &Manager{kv: kv, logger: logger}

	var persisted []domain.QueueEntry
	err := kv.Get(key, &persisted)
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return nil, fmt.Errorf("restore queue: %w", err)
	}
	m.entries = persisted

	if logger != nil && len(persisted) > 0 {
		logger.Info("queue restored", "entries", len(persisted))
	}
	return m, nil
}

// Enqueue appends the unit if its id is not already queued.
func (m *Manager) Enqueue(unit *domain.PlaybackUnit) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.Unit.ID == unit.ID {
			return AlreadyQueued, nil
		}
	}

	m.entries = append(m.entries, domain.QueueEntry{Unit: unit, AddedAt: time.Now()})
	if err := m.persist(); err != nil {
		// Roll back the in-memory append so memory and disk agree.
		m.entries = m.entries[:len(m.entries)-1]
		return "", err
	}

	if m.logger != nil {
		m.logger.Debug("unit queued", "unit_id", unit.ID, "size", len(m.entries))
	}
	return Queued, nil
}

// DequeueNext pops and returns the head entry, or nil if the queue is empty.
func (m *Manager) DequeueNext() (*domain.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		return nil, nil
	}

	head := m.entries[0]
	m.entries = m.entries[1:]
	if err := m.persist(); err != nil {
		m.entries = append([]domain.QueueEntry{head}, m.entries...)
		return nil, err
	}
	return &head, nil
}

// Clear empties the queue.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return m.kv.Remove(key)
}

// Size returns the current entry count, used purely for UI badges.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Entries returns a copy of the pending list in order.
func (m *Manager) Entries() []domain.QueueEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.QueueEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Manager) persist() error {
	if len(m.entries) == 0 {
		return m.kv.Remove(key)
	}
	if err := m.kv.Set(key, m.entries); err != nil {
		return fmt.Errorf("persist queue: %w", err)
	}
	return nil
}
