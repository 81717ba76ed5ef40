package api

import (
	"github.com/narrifyapp/narrify-playback/internal/sse"
)

// The event stream bypasses huma: SSE is a raw streaming response, so it
// mounts straight on the chi router.
func (s *Server) registerEventRoutes() {
	if s.events == nil {
		// Tests construct the server without a stream.
		return
	}
	handler := sse.NewHandler(s.events, func() sse.Event {
		return sse.NewSnapshotEvent(s.reconciler.Snapshot())
	}, s.logger)
	s.router.Get("/v1/events/stream", handler.ServeHTTP)
}

// emitQueueUpdated notifies stream clients that the pending queue changed.
func (s *Server) emitQueueUpdated() {
	if s.events == nil {
		return
	}
	s.events.Emit(sse.NewQueueUpdatedEvent(s.queue.Size()))
}
