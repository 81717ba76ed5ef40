// Package domain contains the core entities of the Narrify playback session
// model. All time offsets are milliseconds; unit conversion for engines that
// speak other bases happens at the engine adapter boundary, never here.
package domain

import (
	"slices"
	"time"
)

// UnitKind classifies a playback unit's persistence state.
type UnitKind string

const (
	// UnitInstant is an ephemeral unit generated on demand, not yet saved
	// to the user's durable library.
	UnitInstant UnitKind = "instant"
	// UnitSaved is a unit already persisted in the durable library.
	UnitSaved UnitKind = "saved"
)

// PlaybackUnit is one piece of narrated audio. Immutable once constructed;
// a new unit replaces rather than mutates.
type PlaybackUnit struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	StreamURL  string    `json:"stream_url,omitempty"`
	Chapters   []Chapter `json:"chapters,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Transcript string    `json:"transcript,omitempty"`
	Kind       UnitKind  `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
}

// Chapter is a named sub-segment of a playback unit, generally one source
// article. Chapters are ordered by start offset and must not overlap; the
// final chapter's end offset should equal the unit's duration. Violations
// are tolerated by clamping at navigation time, never by crashing.
type Chapter struct {
	Title     string `json:"title"`
	SourceURL string `json:"source_url,omitempty"`
	StartMs   int64  `json:"start_ms"`
	EndMs     int64  `json:"end_ms"`
}

// NewPlaybackUnit constructs an immutable unit. Chapters are copied and
// sorted by start offset so callers cannot mutate them afterwards.
func NewPlaybackUnit(id, title, streamURL string, chapters []Chapter, durationMs int64, transcript string, kind UnitKind) *PlaybackUnit {
	sorted := slices.Clone(chapters)
	slices.SortStableFunc(sorted, func(a, b Chapter) int {
		switch {
		case a.StartMs < b.StartMs:
			return -1
		case a.StartMs > b.StartMs:
			return 1
		default:
			return 0
		}
	})
	return &PlaybackUnit{
		ID:         id,
		Title:      title,
		StreamURL:  streamURL,
		Chapters:   sorted,
		DurationMs: max(durationMs, 0),
		Transcript: transcript,
		Kind:       kind,
		CreatedAt:  time.Now(),
	}
}

// Resolvable reports whether the unit has any audio resource an engine
// could load: a stream URL, or at least one chapter with a source URL.
func (u *PlaybackUnit) Resolvable() bool {
	return u.PrimarySource() != ""
}

// PrimarySource returns the URL an engine should load: the unit's stream
// URL if set, otherwise the first chapter source URL. Empty if neither
// exists.
func (u *PlaybackUnit) PrimarySource() string {
	if u.StreamURL != "" {
		return u.StreamURL
	}
	for _, c := range u.Chapters {
		if c.SourceURL != "" {
			return c.SourceURL
		}
	}
	return ""
}

// IsInstant reports whether the unit is ephemeral (not yet in the library).
func (u *PlaybackUnit) IsInstant() bool {
	return u.Kind == UnitInstant
}

// HasChapter reports whether c belongs to this unit. Chapters are value
// objects, so membership is by value: title and offsets must match.
func (u *PlaybackUnit) HasChapter(c Chapter) bool {
	for _, own := range u.Chapters {
		if own.Title == c.Title && own.StartMs == c.StartMs && own.EndMs == c.EndMs {
			return true
		}
	}
	return false
}

// ChapterAt returns the chapter covering the given offset, or nil if the
// offset falls outside every chapter.
func (u *PlaybackUnit) ChapterAt(offsetMs int64) *Chapter {
	for i := range u.Chapters {
		c := &u.Chapters[i]
		if offsetMs >= c.StartMs && offsetMs < c.EndMs {
			return c
		}
	}
	// The final chapter's end should equal the unit duration; tolerate
	// metadata that falls short by treating the last chapter as open-ended.
	if n := len(u.Chapters); n > 0 && offsetMs >= u.Chapters[n-1].StartMs {
		return &u.Chapters[n-1]
	}
	return nil
}
