// Package sse implements Server-Sent Events for real-time playback state
// streaming to UI surfaces.
package sse

import (
	"time"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/session"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventSnapshot carries the reconciled playback snapshot. Emitted on
	// every state change so clients can render without polling.
	EventSnapshot EventType = "playback.snapshot"

	// EventDiagnostic carries a reconciler repair report. Rare; clients
	// surface these in debug views only.
	EventDiagnostic EventType = "playback.diagnostic"

	// EventQueueUpdated signals that the pending queue changed.
	EventQueueUpdated EventType = "queue.updated"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct
// deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// SnapshotEventData is the data payload for snapshot events.
type SnapshotEventData struct {
	Snapshot domain.Snapshot `json:"snapshot"`
	Progress float64         `json:"progress"`
}

// DiagnosticEventData is the data payload for diagnostic events.
type DiagnosticEventData struct {
	Diagnostic session.DiagnosticEvent `json:"diagnostic"`
}

// QueueUpdatedEventData is the data payload for queue change events.
type QueueUpdatedEventData struct {
	Size int `json:"size"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewSnapshotEvent creates a playback.snapshot event.
func NewSnapshotEvent(snap domain.Snapshot) Event {
	return Event{
		Type: EventSnapshot,
		Data: SnapshotEventData{
			Snapshot: snap,
			Progress: snap.Progress(),
		},
		Timestamp: time.Now(),
	}
}

// NewDiagnosticEvent creates a playback.diagnostic event.
func NewDiagnosticEvent(diag session.DiagnosticEvent) Event {
	return Event{
		Type:      EventDiagnostic,
		Data:      DiagnosticEventData{Diagnostic: diag},
		Timestamp: time.Now(),
	}
}

// NewQueueUpdatedEvent creates a queue.updated event.
func NewQueueUpdatedEvent(size int) Event {
	return Event{
		Type:      EventQueueUpdated,
		Data:      QueueUpdatedEventData{Size: size},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
