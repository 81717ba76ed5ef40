package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/errors"
)

func chapteredUnit() *domain.PlaybackUnit {
	chapters := []domain.Chapter{
		{Title: "A", SourceURL: "https://example.com/a", StartMs: 0, EndMs: 30000},
		{Title: "B", SourceURL: "https://example.com/b", StartMs: 30000, EndMs: 90000},
	}
	return domain.NewPlaybackUnit("u1", "two articles", "https://cdn.narrify.app/u1.m4a", chapters, 90000, "", domain.UnitSaved)
}

func TestJumpToChapter(t *testing.T) {
	f := newFixture(t)
	nav := NewNavigator(f.reconciler)
	u := chapteredUnit()
	require.NoError(t, f.reconciler.Play(context.Background(), u))

	require.NoError(t, nav.JumpToChapter(context.Background(), u.Chapters[1]))

	assert.Equal(t, int64(30000), f.reconciler.Snapshot().PositionMs)
	assert.Equal(t, int64(30000), f.currentDrv.SeekedToMs())
}

func TestJumpToChapter_StaleChapterFails(t *testing.T) {
	f := newFixture(t)
	nav := NewNavigator(f.reconciler)
	require.NoError(t, f.reconciler.Play(context.Background(), chapteredUnit()))

	stale := domain.Chapter{Title: "X", StartMs: 5000, EndMs: 10000}
	err := nav.JumpToChapter(context.Background(), stale)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStaleChapter))
	// Position untouched.
	assert.Equal(t, int64(0), f.reconciler.Snapshot().PositionMs)
}

func TestJumpToChapter_NothingLoaded(t *testing.T) {
	f := newFixture(t)
	nav := NewNavigator(f.reconciler)

	err := nav.JumpToChapter(context.Background(), domain.Chapter{Title: "A"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotLoaded))
}

func TestJumpToChapter_OverlongStartClampsBeforeEnd(t *testing.T) {
	f := newFixture(t)
	nav := NewNavigator(f.reconciler)

	// Chapter metadata disagrees with the real media duration: the start
	// offset sits past the end of the file.
	chapters := []domain.Chapter{
		{Title: "A", StartMs: 0, EndMs: 30000},
		{Title: "C", StartMs: 95000, EndMs: 96000},
	}
	u := domain.NewPlaybackUnit("u2", "inconsistent", "https://cdn.narrify.app/u2.m4a", chapters, 90000, "", domain.UnitSaved)
	require.NoError(t, f.reconciler.Play(context.Background(), u))

	require.NoError(t, nav.JumpToChapter(context.Background(), u.Chapters[1]))

	// One millisecond short of the end, never at or past it.
	assert.Equal(t, int64(89999), f.currentDrv.SeekedToMs())
}

func TestJumpToOffset(t *testing.T) {
	f := newFixture(t)
	nav := NewNavigator(f.reconciler)
	require.NoError(t, f.reconciler.Play(context.Background(), chapteredUnit()))

	require.NoError(t, nav.JumpToOffset(context.Background(), 45000))
	assert.Equal(t, int64(45000), f.reconciler.Snapshot().PositionMs)

	// Out-of-range offsets clamp silently.
	require.NoError(t, nav.JumpToOffset(context.Background(), -500))
	assert.Equal(t, int64(0), f.currentDrv.SeekedToMs())

	require.NoError(t, nav.JumpToOffset(context.Background(), 500000))
	assert.Equal(t, int64(90000), f.currentDrv.SeekedToMs())
}

func TestJumpToOffset_NothingLoaded(t *testing.T) {
	f := newFixture(t)
	nav := NewNavigator(f.reconciler)

	err := nav.JumpToOffset(context.Background(), 1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotLoaded))
}
