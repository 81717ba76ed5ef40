// Package api exposes the playback session model over HTTP for the UI
// surfaces: snapshot reads, playback commands, queue and library access,
// promotion, and a server-sent-events snapshot stream.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/narrifyapp/narrify-playback/internal/library"
	"github.com/narrifyapp/narrify-playback/internal/promote"
	"github.com/narrifyapp/narrify-playback/internal/queue"
	"github.com/narrifyapp/narrify-playback/internal/session"
	"github.com/narrifyapp/narrify-playback/internal/share"
	"github.com/narrifyapp/narrify-playback/internal/sse"
	"github.com/narrifyapp/narrify-playback/internal/store"
)

const apiVersion = "1.0.0"

// Server holds dependencies for the HTTP handlers.
type Server struct {
	reconciler *session.Reconciler
	navigator  *session.Navigator
	queue      *queue.Manager
	promoter   *promote.Promoter
	library    *library.Service
	share      *share.Service
	prefs      store.KV
	events     *sse.Manager

	router *chi.Mux
	api    huma.API
	logger *slog.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(
	reconciler *session.Reconciler,
	navigator *session.Navigator,
	q *queue.Manager,
	promoter *promote.Promoter,
	lib *library.Service,
	shareService *share.Service,
	prefs store.KV,
	events *sse.Manager,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	humaConfig := huma.DefaultConfig("Narrify Playback API", apiVersion)
	humaAPI := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		reconciler: reconciler,
		navigator:  navigator,
		queue:      q,
		promoter:   promoter,
		library:    lib,
		share:      shareService,
		prefs:      prefs,
		events:     events,
		router:     router,
		api:        humaAPI,
		logger:     logger,
	}

	s.registerHealthRoutes()
	s.registerPlaybackRoutes()
	s.registerQueueRoutes()
	s.registerPromoteRoutes()
	s.registerLibraryRoutes()
	s.registerEventRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
