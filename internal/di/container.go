// Package di provides dependency injection configuration for the playback
// daemon.
package di

import (
	"github.com/samber/do/v2"

	"github.com/narrifyapp/narrify-playback/internal/config"
	"github.com/narrifyapp/narrify-playback/internal/di/providers"
	"github.com/narrifyapp/narrify-playback/internal/library"
	"github.com/narrifyapp/narrify-playback/internal/logger"
	"github.com/narrifyapp/narrify-playback/internal/promote"
	"github.com/narrifyapp/narrify-playback/internal/queue"
	"github.com/narrifyapp/narrify-playback/internal/session"
	"github.com/narrifyapp/narrify-playback/internal/share"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage and events
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideQueue)

	// Engine adapters
	do.Provide(injector, providers.ProvideLegacyAdapter)
	do.Provide(injector, providers.ProvideCurrentAdapter)

	// Session layer
	do.Provide(injector, providers.ProvideReconciler)
	do.Provide(injector, providers.ProvideNavigator)

	// Backend services
	do.Provide(injector, providers.ProvideBackendClient)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvidePromoter)
	do.Provide(injector, providers.ProvideShareService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns once the daemon is
// running. This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*queue.Manager](injector)

	// Engine adapters
	_ = do.MustInvoke[*providers.LegacyAdapterHandle](injector)
	_ = do.MustInvoke[*providers.CurrentAdapterHandle](injector)

	// Session layer
	_ = do.MustInvoke[*providers.ReconcilerHandle](injector)
	_ = do.MustInvoke[*session.Navigator](injector)

	// Backend services
	_ = do.MustInvoke[*providers.BackendClientHandle](injector)
	_ = do.MustInvoke[*library.Service](injector)
	_ = do.MustInvoke[*promote.Promoter](injector)
	_ = do.MustInvoke[*share.Service](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
