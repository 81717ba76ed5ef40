package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/errors"
	"github.com/narrifyapp/narrify-playback/internal/queue"
)

func (s *Server) registerQueueRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getQueue",
		Method:      http.MethodGet,
		Path:        "/v1/queue",
		Summary:     "List the pending queue",
		Tags:        []string{"Queue"},
	}, s.handleGetQueue)

	huma.Register(s.api, huma.Operation{
		OperationID: "enqueueUnit",
		Method:      http.MethodPost,
		Path:        "/v1/queue",
		Summary:     "Queue a unit to play next",
		Description: "Appends the unit to the pending queue; duplicates by unit id are ignored",
		Tags:        []string{"Queue"},
	}, s.handleEnqueue)

	huma.Register(s.api, huma.Operation{
		OperationID: "playNext",
		Method:      http.MethodPost,
		Path:        "/v1/queue/next",
		Summary:     "Skip to the next queued unit",
		Description: "Pops the queue head and plays it, replacing current playback",
		Tags:        []string{"Queue"},
	}, s.handlePlayNext)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearQueue",
		Method:      http.MethodDelete,
		Path:        "/v1/queue",
		Summary:     "Clear the pending queue",
		Tags:        []string{"Queue"},
	}, s.handleClearQueue)
}

// QueueResponse lists pending entries in play order.
type QueueResponse struct {
	Entries []domain.QueueEntry `json:"entries"`
	Size    int                 `json:"size"`
}

type GetQueueOutput struct {
	Body QueueResponse
}

type EnqueueInput struct {
	Body UnitRequest
}

type EnqueueOutput struct {
	Body struct {
		Result queue.Result `json:"result" doc:"queued or already_queued"`
		Size   int          `json:"size"`
	}
}

type ClearQueueOutput struct {
	Body struct {
		Size int `json:"size"`
	}
}

func (s *Server) handleGetQueue(_ context.Context, _ *struct{}) (*GetQueueOutput, error) {
	entries := s.queue.Entries()
	if entries == nil {
		entries = []domain.QueueEntry{}
	}
	return &GetQueueOutput{Body: QueueResponse{Entries: entries, Size: len(entries)}}, nil
}

func (s *Server) handleEnqueue(_ context.Context, input *EnqueueInput) (*EnqueueOutput, error) {
	result, err := s.queue.Enqueue(input.Body.toUnit())
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "queue not persisted")
	}
	if result == queue.Queued {
		s.emitQueueUpdated()
	}

	out := &EnqueueOutput{}
	out.Body.Result = result
	out.Body.Size = s.queue.Size()
	return out, nil
}

func (s *Server) handlePlayNext(ctx context.Context, _ *struct{}) (*SnapshotOutput, error) {
	entry, err := s.queue.DequeueNext()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "queue not persisted")
	}
	if entry == nil {
		return nil, errors.NotFound("queue is empty")
	}
	s.emitQueueUpdated()

	if err := s.reconciler.Play(ctx, entry.Unit); err != nil {
		return nil, err
	}
	return s.snapshotOutput(), nil
}

func (s *Server) handleClearQueue(_ context.Context, _ *struct{}) (*ClearQueueOutput, error) {
	if err := s.queue.Clear(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "queue not cleared")
	}
	s.emitQueueUpdated()

	out := &ClearQueueOutput{}
	out.Body.Size = 0
	return out, nil
}
