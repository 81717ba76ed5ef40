package engine

import "context"

// DriverEventKind discriminates events from the current engine's driver.
type DriverEventKind string

const (
	// DriverLoaded fires when media metadata is available.
	DriverLoaded DriverEventKind = "loaded"
	// DriverPosition fires on playback position progress (>= 1 Hz).
	DriverPosition DriverEventKind = "position"
	// DriverEnded fires when the media plays to its natural end.
	DriverEnded DriverEventKind = "ended"
	// DriverFailed fires on an engine-level failure (e.g., network
	// interruption mid-stream). The driver performs no retry.
	DriverFailed DriverEventKind = "failed"
)

// DriverEvent is one notification from the current engine's driver.
// Times are milliseconds, the driver's native base.
type DriverEvent struct {
	Kind       DriverEventKind
	PositionMs int64
	DurationMs int64
	Reason     string
}

// Driver is the current platform media engine: millisecond-native,
// event-driven. Opaque below this interface; codec and buffering concerns
// live entirely inside implementations.
type Driver interface {
	Load(ctx context.Context, url string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop() error
	Seek(ctx context.Context, positionMs int64) error
	SetRate(rate float64) error
	Events() <-chan DriverEvent
	Close() error
}

// SecondsDriver is the legacy platform media engine: float-seconds native,
// poll-based. It exposes no event stream; callers poll Progress and watch
// Finished. Kept only for sessions that were already in flight when the
// current engine shipped.
type SecondsDriver interface {
	LoadTrack(ctx context.Context, url string) error
	StartPlayback(ctx context.Context) error
	PausePlayback(ctx context.Context) error
	StopPlayback() error
	SeekTo(ctx context.Context, seconds float64) error
	SetSpeed(speed float64) error
	// Progress returns position and duration in seconds. Duration may be
	// zero before metadata loads.
	Progress() (position, duration float64)
	// Finished is closed when the loaded track plays to its end.
	Finished() <-chan struct{}
	Close() error
}
