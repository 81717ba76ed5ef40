package session

import (
	"context"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/errors"
)

// Navigator translates chapter-level navigation into time-offset seeks on
// whichever engine is active. It never touches the adapters directly.
type Navigator struct {
	reconciler *Reconciler
}

func NewNavigator(r *Reconciler) *Navigator {
	return &Navigator{reconciler: r}
}

// JumpToChapter seeks to the chapter's start offset. The chapter must
// belong to the currently loaded unit; a stale reference fails rather
// than seeking into the wrong track.
//
// A chapter whose start offset sits at or past the loaded duration (stale
// chapter metadata versus the real media file) clamps to one millisecond
// before the end, because some engines treat an at-end seek as a stop.
func (n *Navigator) JumpToChapter(ctx context.Context, chapter domain.Chapter) error {
	snap := n.reconciler.Snapshot()
	if snap.Unit == nil {
		return errors.NotLoaded("no unit loaded to navigate")
	}
	if !snap.Unit.HasChapter(chapter) {
		return errors.StaleChapter("chapter does not belong to the loaded unit")
	}

	target := chapter.StartMs
	if target < 0 {
		target = 0
	}
	duration := snap.DurationMs
	if duration <= 0 {
		duration = snap.Unit.DurationMs
	}
	if duration > 0 && target >= duration {
		target = duration - 1
	}

	return n.reconciler.Seek(ctx, target)
}

// JumpToOffset seeks directly to the given millisecond offset, clamped by
// the active adapter.
func (n *Navigator) JumpToOffset(ctx context.Context, positionMs int64) error {
	if n.reconciler.Snapshot().Unit == nil {
		return errors.NotLoaded("no unit loaded to navigate")
	}
	return n.reconciler.Seek(ctx, positionMs)
}
