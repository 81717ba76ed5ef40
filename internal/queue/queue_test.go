package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/store"
)

func unit(id string) *domain.PlaybackUnit {
	return domain.NewPlaybackUnit(id, "title "+id, "https://cdn.narrify.app/"+id+".m4a", nil, 60000, "", domain.UnitSaved)
}

func newTestManager(t *testing.T) (*Manager, store.KV) {
	t.Helper()
	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	m, err := NewManager(s, nil)
	require.NoError(t, err)
	return m, s
}

func TestEnqueue_AppendsInOrder(t *testing.T) {
	m, _ := newTestManager(t)

	res, err := m.Enqueue(unit("unit-a"))
	require.NoError(t, err)
	assert.Equal(t, Queued, res)

	res, err = m.Enqueue(unit("unit-b"))
	require.NoError(t, err)
	assert.Equal(t, Queued, res)

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "unit-a", entries[0].Unit.ID)
	assert.Equal(t, "unit-b", entries[1].Unit.ID)
}

func TestEnqueue_DuplicateIsNoOp(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Enqueue(unit("unit-a"))
	require.NoError(t, err)

	res, err := m.Enqueue(unit("unit-a"))
	require.NoError(t, err)
	assert.Equal(t, AlreadyQueued, res)
	assert.Equal(t, 1, m.Size())
}

func TestDequeueNext_FIFO(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Enqueue(unit("unit-a"))
	require.NoError(t, err)
	_, err = m.Enqueue(unit("unit-b"))
	require.NoError(t, err)

	head, err := m.DequeueNext()
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "unit-a", head.Unit.ID)
	assert.Equal(t, 1, m.Size())
}

func TestDequeueNext_EmptyReturnsNil(t *testing.T) {
	m, _ := newTestManager(t)

	head, err := m.DequeueNext()
	require.NoError(t, err)
	assert.Nil(t, head)
}

func TestClear(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Enqueue(unit("unit-a"))
	require.NoError(t, err)

	require.NoError(t, m.Clear())
	assert.Equal(t, 0, m.Size())
}

func TestQueue_SurvivesRestart(t *testing.T) {
	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	m, err := NewManager(s, nil)
	require.NoError(t, err)
	_, err = m.Enqueue(unit("unit-a"))
	require.NoError(t, err)
	_, err = m.Enqueue(unit("unit-b"))
	require.NoError(t, err)

	// A fresh manager over the same store sees the same queue.
	restored, err := NewManager(s, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Size())

	head, err := restored.DequeueNext()
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, "unit-a", head.Unit.ID)
}

func TestEntries_ReturnsCopy(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Enqueue(unit("unit-a"))
	require.NoError(t, err)

	entries := m.Entries()
	entries[0].Unit = unit("unit-z")

	assert.Equal(t, "unit-a", m.Entries()[0].Unit.ID)
}
