package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/errors"
	"github.com/narrifyapp/narrify-playback/internal/promote"
)

func (s *Server) registerPromoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "promoteUnit",
		Method:      http.MethodPost,
		Path:        "/v1/promote",
		Summary:     "Promote an instant unit",
		Description: "Saves an instant unit into the durable backend library. Only one promotion runs at a time",
		Tags:        []string{"Promote"},
	}, s.handlePromote)

	huma.Register(s.api, huma.Operation{
		OperationID: "promoteActive",
		Method:      http.MethodPost,
		Path:        "/v1/promote/active",
		Summary:     "Promote the playing unit",
		Description: "Promotes whatever unit is currently loaded, without interrupting playback",
		Tags:        []string{"Promote"},
	}, s.handlePromoteActive)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPromoteStatus",
		Method:      http.MethodGet,
		Path:        "/v1/promote/status",
		Summary:     "Get promotion status",
		Tags:        []string{"Promote"},
	}, s.handlePromoteStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetPromoteStatus",
		Method:      http.MethodPost,
		Path:        "/v1/promote/reset",
		Summary:     "Reset promotion status",
		Description: "Clears a finished or failed promotion so the next one starts clean",
		Tags:        []string{"Promote"},
	}, s.handlePromoteReset)
}

type PromoteInput struct {
	Body UnitRequest
}

// PromoteResponse carries the saved unit the backend returned.
type PromoteResponse struct {
	Unit *domain.PlaybackUnit `json:"unit"`
}

type PromoteOutput struct {
	Body PromoteResponse
}

type PromoteStatusOutput struct {
	Body promote.Status
}

func (s *Server) handlePromote(ctx context.Context, input *PromoteInput) (*PromoteOutput, error) {
	saved, err := s.promoter.Promote(ctx, input.Body.toUnit())
	if err != nil {
		return nil, err
	}
	return &PromoteOutput{Body: PromoteResponse{Unit: saved}}, nil
}

func (s *Server) handlePromoteActive(ctx context.Context, _ *struct{}) (*PromoteOutput, error) {
	unit := s.reconciler.ActiveUnit()
	if unit == nil {
		return nil, errors.NotLoaded("nothing is playing")
	}
	saved, err := s.promoter.Promote(ctx, unit)
	if err != nil {
		return nil, err
	}
	return &PromoteOutput{Body: PromoteResponse{Unit: saved}}, nil
}

func (s *Server) handlePromoteStatus(_ context.Context, _ *struct{}) (*PromoteStatusOutput, error) {
	return &PromoteStatusOutput{Body: s.promoter.Status()}, nil
}

func (s *Server) handlePromoteReset(_ context.Context, _ *struct{}) (*PromoteStatusOutput, error) {
	s.promoter.Reset()
	return &PromoteStatusOutput{Body: s.promoter.Status()}, nil
}
