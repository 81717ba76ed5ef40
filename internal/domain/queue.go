package domain

import "time"

// QueueEntry is one unit waiting in the pending-playback queue.
// Entries keep insertion order; "play next" is tail-append (FIFO).
type QueueEntry struct {
	Unit    *PlaybackUnit `json:"unit"`
	AddedAt time.Time     `json:"added_at"`
}
