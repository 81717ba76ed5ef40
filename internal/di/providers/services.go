package providers

import (
	"github.com/samber/do/v2"

	"github.com/narrifyapp/narrify-playback/internal/backend"
	"github.com/narrifyapp/narrify-playback/internal/config"
	"github.com/narrifyapp/narrify-playback/internal/library"
	"github.com/narrifyapp/narrify-playback/internal/logger"
	"github.com/narrifyapp/narrify-playback/internal/promote"
	"github.com/narrifyapp/narrify-playback/internal/share"
)

// BackendClientHandle wraps the backend client with Shutdownable.
type BackendClientHandle struct {
	*backend.Client
}

// Shutdown implements do.Shutdownable.
func (h *BackendClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideBackendClient provides the rate-limited Narrify API client.
func ProvideBackendClient(i do.Injector) (*BackendClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, log.Logger)
	log.Info("Backend client ready", "base_url", cfg.Backend.BaseURL)

	return &BackendClientHandle{Client: client}, nil
}

// ProvideLibraryService provides the cached library service.
func ProvideLibraryService(i do.Injector) (*library.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	client := do.MustInvoke[*BackendClientHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return library.NewService(client.Client, storeHandle.Store, cfg.Playback.CacheTTL, log.Logger), nil
}

// ProvidePromoter provides the instant-to-saved promotion flow.
func ProvidePromoter(i do.Injector) (*promote.Promoter, error) {
	client := do.MustInvoke[*BackendClientHandle](i)
	lib := do.MustInvoke[*library.Service](i)
	log := do.MustInvoke[*logger.Logger](i)

	return promote.NewPromoter(client.Client, lib, log.Logger), nil
}

// ProvideShareService provides the share hand-off service. The daemon
// logs hand-offs; mobile builds swap in the platform share sheet.
func ProvideShareService(i do.Injector) (*share.Service, error) {
	log := do.MustInvoke[*logger.Logger](i)

	return share.NewService(&share.LogSink{Logger: log.Logger}, log.Logger), nil
}
