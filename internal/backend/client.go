// Package backend is the client for the Narrify library API: saved audio,
// instant-audio promotion, and playlists. All payloads are JSON.
package backend

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/errors"
	"github.com/narrifyapp/narrify-playback/internal/ratelimit"
)

const (
	// Outbound budget: 5 requests per second, burst of 10.
	defaultRPS   = 5.0
	defaultBurst = 10

	defaultTimeout = 30 * time.Second

	// Rate limiter keys, one budget per API family.
	keyLibrary   = "library"
	keyPlaylists = "playlists"
)

// PromoteRequest asks the backend to persist an instant unit into the
// user's durable library.
type PromoteRequest struct {
	UnitID     string           `json:"unit_id"`
	Title      string           `json:"title"`
	Chapters   []domain.Chapter `json:"chapters,omitempty"`
	Transcript string           `json:"transcript,omitempty"`
}

// Client is a rate-limited Narrify API client.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

// New creates a backend client. A zero timeout falls back to 30 seconds.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		logger:  logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// ListSavedUnits fetches the user's saved audio library.
func (c *Client) ListSavedUnits(ctx context.Context) ([]domain.PlaybackUnit, error) {
	var units []domain.PlaybackUnit
	if err := c.doRequest(ctx, keyLibrary, http.MethodGet, "/v1/library/audio", nil, &units); err != nil {
		return nil, err
	}
	return units, nil
}

// Promote persists an instant unit. The response is the durable unit with
// a server-assigned id.
func (c *Client) Promote(ctx context.Context, req PromoteRequest) (*domain.PlaybackUnit, error) {
	var unit domain.PlaybackUnit
	if err := c.doRequest(ctx, keyLibrary, http.MethodPost, "/v1/library/audio", req, &unit); err != nil {
		return nil, err
	}
	return &unit, nil
}

// DeleteUnit removes a saved unit from the library.
func (c *Client) DeleteUnit(ctx context.Context, unitID string) error {
	return c.doRequest(ctx, keyLibrary, http.MethodDelete, "/v1/library/audio/"+unitID, nil, nil)
}

// ListPlaylists fetches the user's playlists.
func (c *Client) ListPlaylists(ctx context.Context) ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	if err := c.doRequest(ctx, keyPlaylists, http.MethodGet, "/v1/playlists", nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// CreatePlaylist creates an empty playlist with the given name.
func (c *Client) CreatePlaylist(ctx context.Context, name string, public bool) (*domain.Playlist, error) {
	body := map[string]any{"name": name, "public": public}
	var playlist domain.Playlist
	if err := c.doRequest(ctx, keyPlaylists, http.MethodPost, "/v1/playlists", body, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// AddToPlaylist appends a saved audio id to a playlist.
func (c *Client) AddToPlaylist(ctx context.Context, playlistID, audioID string) error {
	path := fmt.Sprintf("/v1/playlists/%s/audio/%s", playlistID, audioID)
	return c.doRequest(ctx, keyPlaylists, http.MethodPut, path, nil, nil)
}

// RemoveFromPlaylist removes a saved audio id from a playlist.
func (c *Client) RemoveFromPlaylist(ctx context.Context, playlistID, audioID string) error {
	path := fmt.Sprintf("/v1/playlists/%s/audio/%s", playlistID, audioID)
	return c.doRequest(ctx, keyPlaylists, http.MethodDelete, path, nil, nil)
}

// doRequest executes one rate-limited request and decodes the response
// into out when out is non-nil.
func (c *Client) doRequest(ctx context.Context, limitKey, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx, limitKey); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Narrify/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.logger != nil {
		c.logger.Debug("backend request", "method", method, "path", path)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "backend unreachable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFoundf("%s %s", method, path)
	case resp.StatusCode == http.StatusBadRequest:
		return errors.Validation(string(respBody))
	case resp.StatusCode == http.StatusConflict:
		return errors.Conflict(string(respBody))
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.Internal("backend rate limited")
	case resp.StatusCode >= 500:
		return errors.Internalf("backend error: status %d", resp.StatusCode)
	default:
		return errors.Internalf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
}
