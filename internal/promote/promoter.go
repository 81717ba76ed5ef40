// Package promote converts a transient instant-audio unit into a durable
// library entry via the backend. Promotion is a one-way flow with its own
// sub-state, fully separate from playback state.
package promote

import (
	"context"
	"log/slog"
	"sync"

	"github.com/narrifyapp/narrify-playback/internal/backend"
	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/errors"
	"github.com/narrifyapp/narrify-playback/internal/validation"
)

// State is the promoter's sub-state machine:
//
//	Idle -> Promoting -> {Promoted | Failed}
//
// Promoting rejects re-entry. Failed is not sticky; the promoter resets
// to Idle so the same unit can be retried. Promoted is terminal for that
// unit instance; the caller replaces its reference with the durable unit.
type State string

const (
	StateIdle      State = "idle"
	StatePromoting State = "promoting"
	StatePromoted  State = "promoted"
)

// API is the slice of the backend client the promoter consumes.
type API interface {
	Promote(ctx context.Context, req backend.PromoteRequest) (*domain.PlaybackUnit, error)
}

var _ API = (*backend.Client)(nil)

// Invalidator drops cached library listings after a successful promote.
type Invalidator interface {
	InvalidateUnits() error
}

// Status describes the promoter's current flow for UI display. UnitID is
// the instant unit being (or last) promoted; callers must compare it
// against their own unit before applying Promoted, since a result can
// arrive after the user navigated away.
type Status struct {
	State     State  `json:"state"`
	UnitID    string `json:"unit_id,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Promoter runs the instant-to-saved promotion flow.
type Promoter struct {
	api       API
	library   Invalidator
	validator *validation.Validator
	logger    *slog.Logger

	mu       sync.Mutex
	state    State
	unitID   string
	promoted *domain.PlaybackUnit
	lastErr  string
}

func NewPromoter(api API, library Invalidator, logger *slog.Logger) *Promoter {
	return &Promoter{
		api:       api,
		library:   library,
		validator: validation.New(),
		logger:    logger,
		state:     StateIdle,
	}
}

type promoteRequest struct {
	UnitID string `json:"unit_id" validate:"required"`
	Title  string `json:"title" validate:"required,max=500"`
}

// Promote persists the instant unit into the durable library and returns
// the backend's durable unit. A second call while one is in flight is
// rejected, not queued. A failed attempt leaves the instant unit exactly
// as it was, promotable again.
func (p *Promoter) Promote(ctx context.Context, unit *domain.PlaybackUnit) (*domain.PlaybackUnit, error) {
	if unit == nil {
		return nil, errors.Validation("no unit to promote")
	}
	if !unit.IsInstant() {
		return nil, errors.Validationf("unit %s is already in the library", unit.ID)
	}
	if err := p.validator.Validate(promoteRequest{UnitID: unit.ID, Title: unit.Title}); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.state == StatePromoting {
		p.mu.Unlock()
		return nil, errors.AlreadyInProgress("a promotion is already in flight")
	}
	p.state = StatePromoting
	p.unitID = unit.ID
	p.lastErr = ""
	p.mu.Unlock()

	saved, err := p.api.Promote(ctx, backend.PromoteRequest{
		UnitID:     unit.ID,
		Title:      unit.Title,
		Chapters:   unit.Chapters,
		Transcript: unit.Transcript,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		// Back to Idle, not stuck in a failed state; the unit stays
		// promotable.
		p.state = StateIdle
		p.lastErr = err.Error()
		if p.logger != nil {
			p.logger.Error("promotion failed", "unit_id", unit.ID, "error", err)
		}
		return nil, err
	}

	p.state = StatePromoted
	p.promoted = saved
	if p.library != nil {
		if ierr := p.library.InvalidateUnits(); ierr != nil && p.logger != nil {
			p.logger.Warn("library cache invalidation failed", "error", ierr)
		}
	}
	if p.logger != nil {
		p.logger.Info("unit promoted", "unit_id", unit.ID, "saved_id", saved.ID)
	}
	return saved, nil
}

// Reset returns the promoter to Idle so a new flow can begin, used by the
// UI after it has consumed a Promoted result.
func (p *Promoter) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StatePromoting {
		return
	}
	p.state = StateIdle
	p.unitID = ""
	p.promoted = nil
	p.lastErr = ""
}

// Status reports the current flow state.
func (p *Promoter) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{State: p.state, UnitID: p.unitID, LastError: p.lastErr}
}

// Promoted returns the durable unit from the last successful promotion,
// or nil.
func (p *Promoter) Promoted() *domain.PlaybackUnit {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.promoted
}
