package domain

// EngineState is the lifecycle state reported by an engine adapter.
type EngineState string

const (
	StateIdle    EngineState = "idle"
	StateLoading EngineState = "loading"
	StatePlaying EngineState = "playing"
	StatePaused  EngineState = "paused"
	StateStopped EngineState = "stopped"
	StateFailed  EngineState = "failed"
)

// Active reports whether the state counts toward engine activation.
// An engine with a loaded unit in any non-idle state is active.
func (s EngineState) Active() bool {
	return s != StateIdle
}

// EngineStatus is the uniform status surface every engine adapter reports.
// Position and duration are always milliseconds regardless of the
// underlying engine's native time base.
type EngineStatus struct {
	State         EngineState `json:"state"`
	PositionMs    int64       `json:"position_ms"`
	DurationMs    int64       `json:"duration_ms"`
	Rate          float64     `json:"rate"`
	FailureReason string      `json:"failure_reason,omitempty"`
}

// EngineID identifies which engine adapter produced a snapshot.
// Diagnostic only: UI logic must never branch on it.
type EngineID string

const (
	EngineLegacy  EngineID = "legacy"
	EngineCurrent EngineID = "current"
	EngineNone    EngineID = ""
)

// Snapshot is the reconciled, UI-facing view of current playback state at
// one instant. Derived, never stored.
type Snapshot struct {
	Unit          *PlaybackUnit `json:"unit,omitempty"`
	State         EngineState   `json:"state"`
	PositionMs    int64         `json:"position_ms"`
	DurationMs    int64         `json:"duration_ms"`
	Rate          float64       `json:"rate"`
	Engine        EngineID      `json:"engine,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
}

// NoPlayback is the snapshot reported when neither engine is active.
func NoPlayback() Snapshot {
	return Snapshot{State: StateIdle, Rate: 1.0}
}

// HasPlayback reports whether the snapshot carries an active unit.
func (s Snapshot) HasPlayback() bool {
	return s.Unit != nil && s.State.Active()
}

// Progress returns playback progress in [0, 1], or 0 when duration is
// unknown (metadata not yet loaded).
func (s Snapshot) Progress() float64 {
	if s.DurationMs <= 0 {
		return 0
	}
	p := float64(s.PositionMs) / float64(s.DurationMs)
	return min(max(p, 0), 1)
}
