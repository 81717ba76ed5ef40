// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Server   ServerConfig
	Backend  BackendConfig
	Playback PlaybackConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-device storage configuration.
type DataConfig struct {
	// BasePath is the directory for the local key-value store.
	BasePath string
}

// ServerConfig holds local API server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8090)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// BackendConfig holds Narrify backend API configuration.
type BackendConfig struct {
	BaseURL string        // Backend base URL (default: https://api.narrify.app)
	Timeout time.Duration // Request timeout (default: 30s)
}

// PlaybackConfig holds playback engine configuration.
type PlaybackConfig struct {
	// Engine selects the driver backing both adapters: "mpv" or "fake".
	Engine string
	// LegacySocket is the IPC socket path for the legacy engine instance.
	LegacySocket string
	// CurrentSocket is the IPC socket path for the current engine instance.
	CurrentSocket string
	// PositionInterval is how often position updates are polled while
	// playing (default: 1s, the minimum UI refresh rate).
	PositionInterval time.Duration
	// CacheTTL is the freshness window for cached backend documents
	// (default: 5m).
	CacheTTL time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for local key-value storage")
	backendURL := flag.String("backend-url", "", "Narrify backend base URL")
	backendTimeout := flag.String("backend-timeout", "", "Backend request timeout (default: 30s)")

	serverPort := flag.String("port", "", "Local API port (default: 8090)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	engine := flag.String("engine", "", "Playback engine driver: mpv or fake (default: mpv)")
	legacySocket := flag.String("legacy-socket", "", "IPC socket for the legacy engine instance")
	currentSocket := flag.String("current-socket", "", "IPC socket for the current engine instance")
	positionInterval := flag.String("position-interval", "", "Position poll interval while playing (default: 1s)")
	cacheTTL := flag.String("cache-ttl", "", "Freshness window for cached backend documents (default: 5m)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8090"),
		},
		Backend: BackendConfig{
			BaseURL: getConfigValue(*backendURL, "BACKEND_URL", "https://api.narrify.app"),
		},
		Playback: PlaybackConfig{
			Engine:        getConfigValue(*engine, "PLAYBACK_ENGINE", "mpv"),
			LegacySocket:  getConfigValue(*legacySocket, "LEGACY_ENGINE_SOCKET", ""),
			CurrentSocket: getConfigValue(*currentSocket, "CURRENT_ENGINE_SOCKET", ""),
		},
	}

	durations := []struct {
		dest     *time.Duration
		flagVal  string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Backend.Timeout, *backendTimeout, "BACKEND_TIMEOUT", "30s"},
		{&cfg.Playback.PositionInterval, *positionInterval, "POSITION_INTERVAL", "1s"},
		{&cfg.Playback.CacheTTL, *cacheTTL, "CACHE_TTL", "5m"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagVal, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.dest = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	cfg.expandSocketDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Playback.Engine != "mpv" && c.Playback.Engine != "fake" {
		return fmt.Errorf("invalid playback engine: %s (must be mpv or fake)", c.Playback.Engine)
	}

	if c.Playback.PositionInterval <= 0 || c.Playback.PositionInterval > time.Second {
		return fmt.Errorf("position interval must be in (0, 1s], got %s", c.Playback.PositionInterval)
	}

	if c.Playback.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.Playback.CacheTTL)
	}

	if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		return fmt.Errorf("backend URL must be http(s), got %s", c.Backend.BaseURL)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/.narrify/playback.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, ".narrify", "playback")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandSocketDefaults fills in engine socket paths under the data dir.
func (c *Config) expandSocketDefaults() {
	if c.Playback.LegacySocket == "" {
		c.Playback.LegacySocket = filepath.Join(c.Data.BasePath, "engine-legacy.sock")
	}
	if c.Playback.CurrentSocket == "" {
		c.Playback.CurrentSocket = filepath.Join(c.Data.BasePath, "engine-current.sock")
	}
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
