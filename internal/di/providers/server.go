package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/narrifyapp/narrify-playback/internal/api"
	"github.com/narrifyapp/narrify-playback/internal/config"
	"github.com/narrifyapp/narrify-playback/internal/library"
	"github.com/narrifyapp/narrify-playback/internal/logger"
	"github.com/narrifyapp/narrify-playback/internal/promote"
	"github.com/narrifyapp/narrify-playback/internal/queue"
	"github.com/narrifyapp/narrify-playback/internal/session"
	"github.com/narrifyapp/narrify-playback/internal/share"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	reconciler := do.MustInvoke[*ReconcilerHandle](i)
	navigator := do.MustInvoke[*session.Navigator](i)
	q := do.MustInvoke[*queue.Manager](i)
	promoter := do.MustInvoke[*promote.Promoter](i)
	lib := do.MustInvoke[*library.Service](i)
	shareService := do.MustInvoke[*share.Service](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	handler := api.NewServer(
		reconciler.Reconciler,
		navigator,
		q,
		promoter,
		lib,
		shareService,
		storeHandle.Store,
		sseHandle.Manager,
		log.Logger,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
