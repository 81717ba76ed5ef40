package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/engine"
	"github.com/narrifyapp/narrify-playback/internal/id"
	"github.com/narrifyapp/narrify-playback/internal/transcript"
)

// RatePrefKey is where the preferred playback rate persists across runs.
const RatePrefKey = "prefs:rate"

func (s *Server) registerPlaybackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSnapshot",
		Method:      http.MethodGet,
		Path:        "/v1/playback/snapshot",
		Summary:     "Get playback snapshot",
		Description: "Returns the reconciled view of current playback state",
		Tags:        []string{"Playback"},
	}, s.handleGetSnapshot)

	huma.Register(s.api, huma.Operation{
		OperationID: "play",
		Method:      http.MethodPost,
		Path:        "/v1/playback/play",
		Summary:     "Play a unit",
		Description: "Loads the unit and starts playback",
		Tags:        []string{"Playback"},
	}, s.handlePlay)

	huma.Register(s.api, huma.Operation{
		OperationID: "togglePlayPause",
		Method:      http.MethodPost,
		Path:        "/v1/playback/toggle",
		Summary:     "Toggle play/pause",
		Tags:        []string{"Playback"},
	}, s.handleToggle)

	huma.Register(s.api, huma.Operation{
		OperationID: "stopPlayback",
		Method:      http.MethodPost,
		Path:        "/v1/playback/stop",
		Summary:     "Stop playback",
		Tags:        []string{"Playback"},
	}, s.handleStop)

	huma.Register(s.api, huma.Operation{
		OperationID: "seek",
		Method:      http.MethodPost,
		Path:        "/v1/playback/seek",
		Summary:     "Seek to an offset",
		Tags:        []string{"Playback"},
	}, s.handleSeek)

	huma.Register(s.api, huma.Operation{
		OperationID: "jumpToChapter",
		Method:      http.MethodPost,
		Path:        "/v1/playback/chapter",
		Summary:     "Jump to a chapter",
		Description: "Seeks to the chapter's start offset; the chapter must belong to the loaded unit",
		Tags:        []string{"Playback"},
	}, s.handleJumpToChapter)

	huma.Register(s.api, huma.Operation{
		OperationID: "setRate",
		Method:      http.MethodPost,
		Path:        "/v1/playback/rate",
		Summary:     "Set playback rate",
		Tags:        []string{"Playback"},
	}, s.handleSetRate)

	huma.Register(s.api, huma.Operation{
		OperationID: "adoptSession",
		Method:      http.MethodPost,
		Path:        "/v1/playback/adopt",
		Summary:     "Adopt an in-flight session",
		Description: "Restores a session that was underway in a previous run onto the legacy engine",
		Tags:        []string{"Playback"},
	}, s.handleAdopt)

	huma.Register(s.api, huma.Operation{
		OperationID: "shareUnit",
		Method:      http.MethodPost,
		Path:        "/v1/playback/share",
		Summary:     "Share the playing unit",
		Description: "Hands the active unit's title and URL to the share surface",
		Tags:        []string{"Playback"},
	}, s.handleShare)
}

// === DTOs ===

// UnitRequest describes a playback unit in command bodies. When the id is
// empty a fresh instant unit id is generated. When transcript is empty
// but article bodies are provided, the narration transcript is built from
// them in chapter order.
type UnitRequest struct {
	ID            string            `json:"id,omitempty" doc:"Unit id; generated when empty"`
	Title         string            `json:"title" doc:"Display title"`
	StreamURL     string            `json:"stream_url,omitempty" doc:"Playable stream URL"`
	Chapters      []domain.Chapter  `json:"chapters,omitempty" doc:"Ordered chapter list"`
	DurationMs    int64             `json:"duration_ms" doc:"Total duration in milliseconds"`
	Transcript    string            `json:"transcript,omitempty" doc:"Narration transcript"`
	ArticleBodies map[string]string `json:"article_bodies,omitempty" doc:"Article HTML keyed by chapter source URL, used to build the transcript"`
	Saved         bool              `json:"saved,omitempty" doc:"True when the unit is already in the durable library"`
}

func (r UnitRequest) toUnit() *domain.PlaybackUnit {
	unitID := r.ID
	if unitID == "" {
		unitID = id.MustGenerate("unit")
	}
	kind := domain.UnitInstant
	if r.Saved {
		kind = domain.UnitSaved
	}
	text := r.Transcript
	if text == "" && len(r.ArticleBodies) > 0 {
		text = transcript.Build(r.Chapters, r.ArticleBodies)
	}
	return domain.NewPlaybackUnit(unitID, r.Title, r.StreamURL, r.Chapters, r.DurationMs, text, kind)
}

// SnapshotResponse augments the raw snapshot with derived progress.
type SnapshotResponse struct {
	domain.Snapshot
	Progress float64 `json:"progress" doc:"Playback progress in [0, 1]"`
}

type SnapshotOutput struct {
	Body SnapshotResponse
}

func (s *Server) snapshotOutput() *SnapshotOutput {
	snap := s.reconciler.Snapshot()
	return &SnapshotOutput{Body: SnapshotResponse{Snapshot: snap, Progress: snap.Progress()}}
}

type GetSnapshotInput struct{}

type PlayInput struct {
	Body UnitRequest
}

type ToggleInput struct{}

type StopInput struct{}

type SeekInput struct {
	Body struct {
		PositionMs int64 `json:"position_ms" doc:"Target offset in milliseconds; clamped to the unit duration"`
	}
}

type JumpToChapterInput struct {
	Body struct {
		Chapter domain.Chapter `json:"chapter" doc:"Chapter of the loaded unit to jump to"`
	}
}

type SetRateInput struct {
	Body struct {
		Rate float64 `json:"rate" minimum:"0.25" maximum:"4" doc:"Playback rate multiplier"`
	}
}

type AdoptInput struct {
	Body struct {
		Unit       UnitRequest `json:"unit"`
		PositionMs int64       `json:"position_ms" doc:"Offset where the previous run left off"`
	}
}

type ShareInput struct{}

type ShareOutput struct {
	Body struct {
		Shared bool `json:"shared"`
	}
}

// === Handlers ===

func (s *Server) handleGetSnapshot(_ context.Context, _ *GetSnapshotInput) (*SnapshotOutput, error) {
	return s.snapshotOutput(), nil
}

func (s *Server) handlePlay(ctx context.Context, input *PlayInput) (*SnapshotOutput, error) {
	unit := input.Body.toUnit()
	if err := s.reconciler.Play(ctx, unit); err != nil {
		return nil, err
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleToggle(ctx context.Context, _ *ToggleInput) (*SnapshotOutput, error) {
	if err := s.reconciler.TogglePlayPause(ctx); err != nil {
		return nil, err
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleStop(_ context.Context, _ *StopInput) (*SnapshotOutput, error) {
	s.reconciler.Stop()
	return s.snapshotOutput(), nil
}

func (s *Server) handleSeek(ctx context.Context, input *SeekInput) (*SnapshotOutput, error) {
	if err := s.reconciler.Seek(ctx, input.Body.PositionMs); err != nil {
		return nil, err
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleJumpToChapter(ctx context.Context, input *JumpToChapterInput) (*SnapshotOutput, error) {
	if err := s.navigator.JumpToChapter(ctx, input.Body.Chapter); err != nil {
		return nil, err
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleSetRate(_ context.Context, input *SetRateInput) (*SnapshotOutput, error) {
	rate := input.Body.Rate
	if rate < engine.MinRate {
		rate = engine.MinRate
	}
	if rate > engine.MaxRate {
		rate = engine.MaxRate
	}
	if err := s.reconciler.SetRate(rate); err != nil {
		return nil, err
	}
	if err := s.prefs.Set(RatePrefKey, rate); err != nil {
		s.logger.Warn("rate preference not persisted", "error", err)
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleAdopt(ctx context.Context, input *AdoptInput) (*SnapshotOutput, error) {
	unit := input.Body.Unit.toUnit()
	if err := s.reconciler.AdoptInFlight(ctx, unit, input.Body.PositionMs); err != nil {
		return nil, err
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleShare(_ context.Context, _ *ShareInput) (*ShareOutput, error) {
	if err := s.share.ShareUnit(s.reconciler.ActiveUnit()); err != nil {
		return nil, err
	}
	out := &ShareOutput{}
	out.Body.Shared = true
	return out, nil
}
