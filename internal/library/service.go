// Package library exposes the user's durable audio library and playlists,
// read through the local preference cache so repeated list calls inside
// the TTL window never touch the network. Every mutation invalidates its
// cache entry synchronously before returning.
package library

import (
	"context"
	"log/slog"
	"time"

	"github.com/narrifyapp/narrify-playback/internal/backend"
	"github.com/narrifyapp/narrify-playback/internal/cache"
	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/store"
)

const (
	keyUnits     = "units"
	keyPlaylists = "playlists"
)

// API is the slice of the backend client the library service consumes.
type API interface {
	ListSavedUnits(ctx context.Context) ([]domain.PlaybackUnit, error)
	DeleteUnit(ctx context.Context, unitID string) error
	ListPlaylists(ctx context.Context) ([]domain.Playlist, error)
	CreatePlaylist(ctx context.Context, name string, public bool) (*domain.Playlist, error)
	AddToPlaylist(ctx context.Context, playlistID, audioID string) error
	RemoveFromPlaylist(ctx context.Context, playlistID, audioID string) error
}

var _ API = (*backend.Client)(nil)

// Service serves library reads through the cache and forwards mutations
// to the backend.
type Service struct {
	api       API
	units     *cache.Cache[[]domain.PlaybackUnit]
	playlists *cache.Cache[[]domain.Playlist]
	logger    *slog.Logger
}

// NewService creates a library service with the given cache TTL.
func NewService(api API, kv store.KV, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		api:       api,
		units:     cache.New[[]domain.PlaybackUnit](kv, "library:", ttl),
		playlists: cache.New[[]domain.Playlist](kv, "library:", ttl),
		logger:    logger,
	}
}

// SavedUnits lists the saved audio library, cached.
func (s *Service) SavedUnits(ctx context.Context) ([]domain.PlaybackUnit, error) {
	units, fromCache, err := s.units.GetOrFetch(ctx, keyUnits, s.api.ListSavedUnits)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Debug("saved units listed", "count", len(units), "from_cache", fromCache)
	}
	return units, nil
}

// DeleteUnit removes a saved unit and invalidates the library cache so
// the next read reflects the deletion.
func (s *Service) DeleteUnit(ctx context.Context, unitID string) error {
	if err := s.api.DeleteUnit(ctx, unitID); err != nil {
		return err
	}
	return s.units.Invalidate(keyUnits)
}

// InvalidateUnits drops the cached library list. Called by collaborators
// that mutate the library outside this service, like the promoter.
func (s *Service) InvalidateUnits() error {
	return s.units.Invalidate(keyUnits)
}

// Playlists lists the user's playlists, cached.
func (s *Service) Playlists(ctx context.Context) ([]domain.Playlist, error) {
	playlists, _, err := s.playlists.GetOrFetch(ctx, keyPlaylists, s.api.ListPlaylists)
	return playlists, err
}

// CreatePlaylist creates a playlist and invalidates the playlist cache.
func (s *Service) CreatePlaylist(ctx context.Context, name string, public bool) (*domain.Playlist, error) {
	playlist, err := s.api.CreatePlaylist(ctx, name, public)
	if err != nil {
		return nil, err
	}
	if err := s.playlists.Invalidate(keyPlaylists); err != nil {
		return nil, err
	}
	return playlist, nil
}

// AddToPlaylist appends an audio id and invalidates the playlist cache.
func (s *Service) AddToPlaylist(ctx context.Context, playlistID, audioID string) error {
	if err := s.api.AddToPlaylist(ctx, playlistID, audioID); err != nil {
		return err
	}
	return s.playlists.Invalidate(keyPlaylists)
}

// RemoveFromPlaylist removes an audio id and invalidates the playlist cache.
func (s *Service) RemoveFromPlaylist(ctx context.Context, playlistID, audioID string) error {
	if err := s.api.RemoveFromPlaylist(ctx, playlistID, audioID); err != nil {
		return err
	}
	return s.playlists.Invalidate(keyPlaylists)
}
