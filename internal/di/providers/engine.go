package providers

import (
	"github.com/samber/do/v2"

	"github.com/narrifyapp/narrify-playback/internal/config"
	"github.com/narrifyapp/narrify-playback/internal/engine"
	"github.com/narrifyapp/narrify-playback/internal/logger"
)

// LegacyAdapterHandle wraps the legacy adapter with Shutdownable.
type LegacyAdapterHandle struct {
	*engine.LegacyAdapter
}

// Shutdown implements do.Shutdownable.
func (h *LegacyAdapterHandle) Shutdown() error {
	return h.Close()
}

// ProvideLegacyAdapter provides the seconds-native legacy engine adapter.
func ProvideLegacyAdapter(i do.Injector) (*LegacyAdapterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var driver engine.SecondsDriver
	if cfg.Playback.Engine == "mpv" {
		d, err := engine.DialMPVSeconds(cfg.Playback.LegacySocket, log.Logger)
		if err != nil {
			return nil, err
		}
		driver = d
	} else {
		driver = engine.NewFakeSecondsDriver()
	}

	adapter := engine.NewLegacyAdapter(driver, cfg.Playback.PositionInterval, log.Logger)
	log.Info("Legacy engine adapter ready", "driver", cfg.Playback.Engine, "socket", cfg.Playback.LegacySocket)

	return &LegacyAdapterHandle{LegacyAdapter: adapter}, nil
}

// CurrentAdapterHandle wraps the current adapter with Shutdownable.
type CurrentAdapterHandle struct {
	*engine.CurrentAdapter
}

// Shutdown implements do.Shutdownable.
func (h *CurrentAdapterHandle) Shutdown() error {
	return h.Close()
}

// ProvideCurrentAdapter provides the millisecond-native current engine adapter.
func ProvideCurrentAdapter(i do.Injector) (*CurrentAdapterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var driver engine.Driver
	if cfg.Playback.Engine == "mpv" {
		d, err := engine.DialMPV(cfg.Playback.CurrentSocket, log.Logger)
		if err != nil {
			return nil, err
		}
		driver = d
	} else {
		driver = engine.NewFakeDriver()
	}

	adapter := engine.NewCurrentAdapter(driver, log.Logger)
	log.Info("Current engine adapter ready", "driver", cfg.Playback.Engine, "socket", cfg.Playback.CurrentSocket)

	return &CurrentAdapterHandle{CurrentAdapter: adapter}, nil
}
