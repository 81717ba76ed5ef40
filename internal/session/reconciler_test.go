package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/engine"
	"github.com/narrifyapp/narrify-playback/internal/errors"
	"github.com/narrifyapp/narrify-playback/internal/queue"
	"github.com/narrifyapp/narrify-playback/internal/store"
)

type fixture struct {
	reconciler *Reconciler
	legacy     *engine.LegacyAdapter
	current    *engine.CurrentAdapter
	legacyDrv  *engine.FakeSecondsDriver
	currentDrv *engine.FakeDriver
	queue      *queue.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	legacyDrv := engine.NewFakeSecondsDriver()
	legacy := engine.NewLegacyAdapter(legacyDrv, 10*time.Millisecond, nil)
	currentDrv := engine.NewFakeDriver()
	current := engine.NewCurrentAdapter(currentDrv, nil)

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	q, err := queue.NewManager(s, nil)
	require.NoError(t, err)

	r := NewReconciler(legacy, current, q, nil)
	t.Cleanup(func() {
		r.Close()
		_ = legacy.Close()
		_ = current.Close()
		_ = s.Close()
	})

	return &fixture{
		reconciler: r,
		legacy:     legacy,
		current:    current,
		legacyDrv:  legacyDrv,
		currentDrv: currentDrv,
		queue:      q,
	}
}

func unit(id string) *domain.PlaybackUnit {
	return domain.NewPlaybackUnit(id, "title "+id, "https://cdn.narrify.app/"+id+".m4a", nil, 90000, "", domain.UnitSaved)
}

func badUnit(id string) *domain.PlaybackUnit {
	return domain.NewPlaybackUnit(id, "title "+id, "", nil, 90000, "", domain.UnitInstant)
}

func TestPlay_RoutesToCurrentEngine(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-a")))

	snap := f.reconciler.Snapshot()
	require.NotNil(t, snap.Unit)
	assert.Equal(t, "unit-a", snap.Unit.ID)
	assert.Equal(t, domain.StatePlaying, snap.State)
	assert.Equal(t, domain.EngineCurrent, snap.Engine)
	assert.Empty(t, f.legacyDrv.LoadedURL())
}

func TestPlay_LatestRequestWins(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-a")))
	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-b")))

	snap := f.reconciler.Snapshot()
	require.NotNil(t, snap.Unit)
	assert.Equal(t, "unit-b", snap.Unit.ID)
	assert.Equal(t, domain.StatePlaying, snap.State)
}

func TestPlay_ConcurrentRequestsSettleOnOne(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for _, u := range []*domain.PlaybackUnit{unit("unit-a"), unit("unit-b")} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.reconciler.Play(context.Background(), u)
		}()
	}
	wg.Wait()

	snap := f.reconciler.Snapshot()
	require.NotNil(t, snap.Unit)
	assert.Equal(t, domain.StatePlaying, snap.State)
	// One of the two won; either way exactly one engine is active.
	assert.Contains(t, []string{"unit-a", "unit-b"}, snap.Unit.ID)
	assert.Equal(t, domain.StateIdle, f.legacy.Status().State)
}

func TestPlay_FailureDoesNotWedgeReconciler(t *testing.T) {
	f := newFixture(t)

	err := f.reconciler.Play(context.Background(), badUnit("unit-bad"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPlayback))

	snap := f.reconciler.Snapshot()
	assert.Equal(t, domain.StateFailed, snap.State)
	assert.NotEmpty(t, snap.FailureReason)

	// A subsequent good unit plays normally.
	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-good")))
	snap = f.reconciler.Snapshot()
	require.NotNil(t, snap.Unit)
	assert.Equal(t, "unit-good", snap.Unit.ID)
	assert.Equal(t, domain.StatePlaying, snap.State)
}

func TestPlay_FailureLeavesAdoptedSessionIntact(t *testing.T) {
	f := newFixture(t)
	f.legacyDrv.SetProgress(0, 90)
	require.NoError(t, f.reconciler.AdoptInFlight(context.Background(), unit("unit-old"), 30000))

	err := f.reconciler.Play(context.Background(), badUnit("unit-bad"))
	require.Error(t, err)

	snap := f.reconciler.Snapshot()
	require.NotNil(t, snap.Unit)
	assert.Equal(t, "unit-old", snap.Unit.ID)
	assert.Equal(t, domain.EngineLegacy, snap.Engine)
}

func TestAdoptInFlight_RestoresIntoLegacy(t *testing.T) {
	f := newFixture(t)
	f.legacyDrv.SetProgress(0, 90)

	require.NoError(t, f.reconciler.AdoptInFlight(context.Background(), unit("unit-old"), 30000))

	snap := f.reconciler.Snapshot()
	require.NotNil(t, snap.Unit)
	assert.Equal(t, "unit-old", snap.Unit.ID)
	assert.Equal(t, domain.EngineLegacy, snap.Engine)
	assert.Equal(t, domain.StatePaused, snap.State)
	assert.Equal(t, int64(30000), snap.PositionMs)
}

func TestAdoptInFlight_RejectedWhileCurrentActive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-a")))

	err := f.reconciler.AdoptInFlight(context.Background(), unit("unit-old"), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestPlay_RetiresLegacySession(t *testing.T) {
	f := newFixture(t)
	f.legacyDrv.SetProgress(0, 90)
	require.NoError(t, f.reconciler.AdoptInFlight(context.Background(), unit("unit-old"), 10000))

	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-new")))

	assert.Equal(t, domain.StateIdle, f.legacy.Status().State)
	snap := f.reconciler.Snapshot()
	assert.Equal(t, "unit-new", snap.Unit.ID)
	assert.Equal(t, domain.EngineCurrent, snap.Engine)
}

func TestTogglePlayPause(t *testing.T) {
	f := newFixture(t)

	// Nothing active: no-op, not an error.
	require.NoError(t, f.reconciler.TogglePlayPause(context.Background()))
	assert.False(t, f.reconciler.Snapshot().HasPlayback())

	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-a")))
	require.NoError(t, f.reconciler.TogglePlayPause(context.Background()))
	assert.Equal(t, domain.StatePaused, f.reconciler.Snapshot().State)

	require.NoError(t, f.reconciler.TogglePlayPause(context.Background()))
	assert.Equal(t, domain.StatePlaying, f.reconciler.Snapshot().State)
}

func TestStop_Idempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-a")))

	f.reconciler.Stop()
	f.reconciler.Stop()

	snap := f.reconciler.Snapshot()
	assert.Nil(t, snap.Unit)
	assert.Equal(t, domain.StateIdle, snap.State)
}

func TestDualActiveRepair(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var events []DiagnosticEvent
	cancel := f.reconciler.SubscribeDiagnostics(func(ev DiagnosticEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	defer cancel()

	// Force the inconsistent state by driving the adapters directly,
	// bypassing the reconciler.
	f.legacyDrv.SetProgress(0, 90)
	require.NoError(t, f.legacy.Load(context.Background(), unit("unit-old")))
	require.NoError(t, f.legacy.Play(context.Background()))
	require.NoError(t, f.current.Load(context.Background(), unit("unit-new")))
	require.NoError(t, f.current.Play(context.Background()))

	// Any public call repairs: current wins, legacy is stopped.
	require.NoError(t, f.reconciler.TogglePlayPause(context.Background()))

	assert.Equal(t, domain.StateIdle, f.legacy.Status().State)
	assert.Equal(t, domain.EngineCurrent, f.reconciler.Snapshot().Engine)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) >= 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, DiagKindEngineRepair, events[0].Kind)
	assert.NotEmpty(t, events[0].ID)
}

func TestQueueAutoAdvance(t *testing.T) {
	f := newFixture(t)
	_, err := f.queue.Enqueue(unit("unit-next"))
	require.NoError(t, err)

	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-a")))
	f.currentDrv.Emit(engine.DriverEvent{Kind: engine.DriverEnded})

	require.Eventually(t, func() bool {
		snap := f.reconciler.Snapshot()
		return snap.Unit != nil && snap.Unit.ID == "unit-next" && snap.State == domain.StatePlaying
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.queue.Size())
}

func TestNaturalEndWithEmptyQueue(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-a")))
	f.currentDrv.Emit(engine.DriverEvent{Kind: engine.DriverEnded})

	require.Eventually(t, func() bool {
		return f.reconciler.Snapshot().State == domain.StateStopped
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "unit-a", f.reconciler.Snapshot().Unit.ID)
}

func TestSeek_NothingActive(t *testing.T) {
	f := newFixture(t)

	err := f.reconciler.Seek(context.Background(), 1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotLoaded))
}

func TestSetRate_AppliesToNextSessionWhenIdle(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.reconciler.SetRate(1.5))
	assert.Equal(t, 1.5, f.reconciler.Snapshot().Rate)

	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-a")))
	assert.Equal(t, 1.5, f.reconciler.Snapshot().Rate)
}

func TestSubscribe_DeliversSnapshots(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var snaps []domain.Snapshot
	cancel := f.reconciler.Subscribe(func(s domain.Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})

	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-a")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, s := range snaps {
			if s.State == domain.StatePlaying {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	cancel()
	cancel() // idempotent
}

func TestFailurePropagatesToSnapshot(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reconciler.Play(context.Background(), unit("unit-a")))

	f.currentDrv.Emit(engine.DriverEvent{Kind: engine.DriverFailed, Reason: "stream interrupted"})

	require.Eventually(t, func() bool {
		return f.reconciler.Snapshot().State == domain.StateFailed
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "stream interrupted", f.reconciler.Snapshot().FailureReason)
}
