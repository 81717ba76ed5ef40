// Package engine wraps the two underlying media playback engines behind a
// uniform adapter surface. The legacy engine predates the playback rewrite
// and speaks seconds; the current engine speaks milliseconds. Both are
// normalized to milliseconds here so nothing above this package ever sees
// another time base.
package engine

import (
	"context"

	"github.com/narrifyapp/narrify-playback/internal/domain"
)

// Rate bounds accepted by adapters. The reference UI offers a discrete set
// (1.0, 1.25, 1.5, 2.0) but adapters accept any multiplier in (0, 4] and
// clamp outside it.
const (
	MinRate = 0.25
	MaxRate = 4.0
)

// Listener receives a status update on every state or position change.
// Position updates arrive at least once per second while playing.
type Listener func(domain.EngineStatus)

// Adapter presents one underlying playback engine through a uniform
// interface. Implementations serialize load/play requests internally:
// the latest request wins and stale in-flight completions are discarded.
//
// Adapters are exclusively owned by the session reconciler; no other
// component may call them directly.
type Adapter interface {
	// ID identifies the adapter for snapshot diagnostics.
	ID() domain.EngineID

	// Load begins loading the unit. Fails with a LOAD_FAILED error if the
	// unit has no resolvable audio resource, leaving prior status intact
	// unless a unit was already playing (in which case playback stops).
	Load(ctx context.Context, unit *domain.PlaybackUnit) error

	// Play starts playback. No-op if already playing; fails with
	// NOT_LOADED if nothing is loaded.
	Play(ctx context.Context) error

	// Pause suspends playback. No-op if already paused; fails with
	// NOT_LOADED if nothing is loaded.
	Pause(ctx context.Context) error

	// Stop releases the loaded unit; status becomes idle. Idempotent.
	Stop() error

	// Seek moves to positionMs, clamped to [0, duration]. Out-of-range
	// input clamps silently rather than erroring.
	Seek(ctx context.Context, positionMs int64) error

	// SetRate applies a playback rate multiplier, clamped to
	// [MinRate, MaxRate].
	SetRate(rate float64) error

	// Loaded returns the currently loaded unit, or nil.
	Loaded() *domain.PlaybackUnit

	// Status returns the current engine status in milliseconds.
	Status() domain.EngineStatus

	// Subscribe registers a listener for status changes and returns a
	// cancel function. Cancelling twice is harmless.
	Subscribe(fn Listener) (cancel func())
}

// clampRate brings a rate multiplier into the accepted range.
func clampRate(rate float64) float64 {
	if rate < MinRate {
		return MinRate
	}
	if rate > MaxRate {
		return MaxRate
	}
	return rate
}

// clampPosition brings a seek target into [0, durationMs]. A zero duration
// (metadata not yet loaded) clamps only the lower bound.
func clampPosition(positionMs, durationMs int64) int64 {
	if positionMs < 0 {
		return 0
	}
	if durationMs > 0 && positionMs > durationMs {
		return durationMs
	}
	return positionMs
}
