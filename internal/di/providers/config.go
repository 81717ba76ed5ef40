// Package providers contains dependency injection providers for the
// playback daemon.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/narrifyapp/narrify-playback/internal/config"
	"github.com/narrifyapp/narrify-playback/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Narrify playback daemon",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"engine", cfg.Playback.Engine,
	)

	return log, nil
}
