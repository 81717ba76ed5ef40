package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/errors"
)

func newLegacy(t *testing.T) (*LegacyAdapter, *FakeSecondsDriver) {
	t.Helper()
	d := NewFakeSecondsDriver()
	a := NewLegacyAdapter(d, 10*time.Millisecond, nil)
	t.Cleanup(func() { _ = a.Close() })
	return a, d
}

func TestLegacy_LoadReadsDurationFromDriver(t *testing.T) {
	a, d := newLegacy(t)
	d.SetProgress(0, 61.5)

	require.NoError(t, a.Load(context.Background(), testUnit("unit-a")))

	status := a.Status()
	assert.Equal(t, domain.StatePaused, status.State)
	assert.Equal(t, int64(61500), status.DurationMs)
	assert.Equal(t, "https://cdn.narrify.app/unit-a.m4a", d.LoadedURL())
}

func TestLegacy_LoadUnresolvableFails(t *testing.T) {
	a, d := newLegacy(t)

	err := a.Load(context.Background(), unresolvableUnit("unit-bad"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrLoadFailed))
	assert.Empty(t, d.LoadedURL())
	assert.Equal(t, domain.StateIdle, a.Status().State)
}

func TestLegacy_PollConvertsSecondsToMs(t *testing.T) {
	a, d := newLegacy(t)
	require.NoError(t, a.Load(context.Background(), testUnit("unit-a")))
	require.NoError(t, a.Play(context.Background()))

	d.SetProgress(12.5, 60)

	require.Eventually(t, func() bool {
		return a.Status().PositionMs == 12500
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(60000), a.Status().DurationMs)
}

func TestLegacy_PausedPositionIsNotPolled(t *testing.T) {
	a, d := newLegacy(t)
	require.NoError(t, a.Load(context.Background(), testUnit("unit-a")))

	d.SetProgress(30, 60)
	time.Sleep(50 * time.Millisecond)

	// Still paused from load; the scripted position never published.
	assert.Equal(t, int64(0), a.Status().PositionMs)
}

func TestLegacy_SeekConvertsToSeconds(t *testing.T) {
	a, d := newLegacy(t)
	d.SetProgress(0, 60)
	require.NoError(t, a.Load(context.Background(), testUnit("unit-a")))

	require.NoError(t, a.Seek(context.Background(), 30000))
	assert.Equal(t, 30.0, d.SeekedToSeconds())
	assert.Equal(t, int64(30000), a.Status().PositionMs)
}

func TestLegacy_SeekClamps(t *testing.T) {
	a, d := newLegacy(t)
	d.SetProgress(0, 60)
	require.NoError(t, a.Load(context.Background(), testUnit("unit-a")))

	require.NoError(t, a.Seek(context.Background(), -100))
	assert.Equal(t, 0.0, d.SeekedToSeconds())

	require.NoError(t, a.Seek(context.Background(), 999999))
	assert.Equal(t, 60.0, d.SeekedToSeconds())
}

func TestLegacy_SetRateClamps(t *testing.T) {
	a, d := newLegacy(t)

	require.NoError(t, a.SetRate(8))
	assert.Equal(t, MaxRate, d.Speed())
	assert.Equal(t, MaxRate, a.Status().Rate)
}

func TestLegacy_FinishTrackBecomesStopped(t *testing.T) {
	a, d := newLegacy(t)
	d.SetProgress(0, 60)
	require.NoError(t, a.Load(context.Background(), testUnit("unit-a")))
	require.NoError(t, a.Play(context.Background()))

	d.FinishTrack()

	require.Eventually(t, func() bool {
		return a.Status().State == domain.StateStopped
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(60000), a.Status().PositionMs)
}

func TestLegacy_StopReleasesUnit(t *testing.T) {
	a, _ := newLegacy(t)
	require.NoError(t, a.Load(context.Background(), testUnit("unit-a")))

	require.NoError(t, a.Stop())
	require.NoError(t, a.Stop())
	assert.Nil(t, a.Loaded())
	assert.Equal(t, domain.StateIdle, a.Status().State)
}

func TestLegacy_PlayWithoutLoadFails(t *testing.T) {
	a, _ := newLegacy(t)

	err := a.Play(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotLoaded))
}

func TestClampPosition(t *testing.T) {
	assert.Equal(t, int64(0), clampPosition(-1, 100))
	assert.Equal(t, int64(100), clampPosition(200, 100))
	assert.Equal(t, int64(50), clampPosition(50, 100))
	// Unknown duration clamps the lower bound only.
	assert.Equal(t, int64(200), clampPosition(200, 0))
}
