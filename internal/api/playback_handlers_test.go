package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrifyapp/narrify-playback/internal/domain"
)

func playRequest(id string) map[string]any {
	return map[string]any{
		"id":          id,
		"title":       "Morning digest",
		"stream_url":  "https://cdn.narrify.app/" + id + ".m4a",
		"duration_ms": 90000,
	}
}

func TestPlayEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var snap SnapshotResponse
	w := ts.do(t, http.MethodPost, "/v1/playback/play", playRequest("unit-a"), &snap)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatePlaying, snap.State)
	require.NotNil(t, snap.Unit)
	assert.Equal(t, "unit-a", snap.Unit.ID)
	assert.Equal(t, domain.EngineCurrent, snap.Engine)
}

func TestPlayEndpoint_GeneratesUnitID(t *testing.T) {
	ts := setupTestServer(t)

	req := playRequest("")
	delete(req, "id")

	var snap SnapshotResponse
	w := ts.do(t, http.MethodPost, "/v1/playback/play", req, &snap)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, snap.Unit)
	assert.NotEmpty(t, snap.Unit.ID)
	assert.Equal(t, domain.UnitInstant, snap.Unit.Kind)
}

func TestPlayEndpoint_UnresolvableUnit(t *testing.T) {
	ts := setupTestServer(t)

	req := map[string]any{
		"id":          "unit-bad",
		"title":       "No audio",
		"duration_ms": 1000,
	}

	var apiErr APIError
	w := ts.do(t, http.MethodPost, "/v1/playback/play", req, &apiErr)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "PLAYBACK", apiErr.Code)
}

func TestSnapshotEndpoint_Idle(t *testing.T) {
	ts := setupTestServer(t)

	var snap SnapshotResponse
	w := ts.do(t, http.MethodGet, "/v1/playback/snapshot", nil, &snap)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StateIdle, snap.State)
	assert.Nil(t, snap.Unit)
	assert.Zero(t, snap.Progress)
}

func TestToggleEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.do(t, http.MethodPost, "/v1/playback/play", playRequest("unit-a"), nil)

	var snap SnapshotResponse
	w := ts.do(t, http.MethodPost, "/v1/playback/toggle", nil, &snap)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatePaused, snap.State)

	w = ts.do(t, http.MethodPost, "/v1/playback/toggle", nil, &snap)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatePlaying, snap.State)
}

func TestStopEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.do(t, http.MethodPost, "/v1/playback/play", playRequest("unit-a"), nil)

	var snap SnapshotResponse
	w := ts.do(t, http.MethodPost, "/v1/playback/stop", nil, &snap)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StateIdle, snap.State)
	assert.Nil(t, snap.Unit)
}

func TestSeekEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.do(t, http.MethodPost, "/v1/playback/play", playRequest("unit-a"), nil)

	w := ts.do(t, http.MethodPost, "/v1/playback/seek", map[string]any{"position_ms": 30000}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(30000), ts.currentDrv.SeekedToMs())
}

func TestSeekEndpoint_NothingLoaded(t *testing.T) {
	ts := setupTestServer(t)

	var apiErr APIError
	w := ts.do(t, http.MethodPost, "/v1/playback/seek", map[string]any{"position_ms": 1000}, &apiErr)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NOT_LOADED", apiErr.Code)
}

func TestSetRateEndpoint_PersistsPreference(t *testing.T) {
	ts := setupTestServer(t)

	var snap SnapshotResponse
	w := ts.do(t, http.MethodPost, "/v1/playback/rate", map[string]any{"rate": 1.5}, &snap)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1.5, snap.Rate, 0.001)

	var saved float64
	require.NoError(t, ts.server.prefs.Get(RatePrefKey, &saved))
	assert.InDelta(t, 1.5, saved, 0.001)
}

func TestSetRateEndpoint_RejectsOutOfRange(t *testing.T) {
	ts := setupTestServer(t)

	w := ts.do(t, http.MethodPost, "/v1/playback/rate", map[string]any{"rate": 99.0}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestJumpToChapterEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	req := playRequest("unit-a")
	req["chapters"] = []map[string]any{
		{"title": "Intro", "start_ms": 0, "end_ms": 30000},
		{"title": "Markets", "start_ms": 30000, "end_ms": 90000},
	}
	ts.do(t, http.MethodPost, "/v1/playback/play", req, nil)

	body := map[string]any{
		"chapter": map[string]any{"title": "Markets", "start_ms": 30000, "end_ms": 90000},
	}
	w := ts.do(t, http.MethodPost, "/v1/playback/chapter", body, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(30000), ts.currentDrv.SeekedToMs())
}

func TestJumpToChapterEndpoint_StaleChapter(t *testing.T) {
	ts := setupTestServer(t)

	ts.do(t, http.MethodPost, "/v1/playback/play", playRequest("unit-a"), nil)

	body := map[string]any{
		"chapter": map[string]any{"title": "Elsewhere", "start_ms": 0, "end_ms": 5000},
	}
	var apiErr APIError
	w := ts.do(t, http.MethodPost, "/v1/playback/chapter", body, &apiErr)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "STALE_CHAPTER", apiErr.Code)
}

func TestAdoptEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.legacyDrv.SetProgress(0, 90)

	body := map[string]any{
		"unit":        playRequest("unit-old"),
		"position_ms": 30000,
	}
	var snap SnapshotResponse
	w := ts.do(t, http.MethodPost, "/v1/playback/adopt", body, &snap)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.EngineLegacy, snap.Engine)
	assert.Equal(t, domain.StatePaused, snap.State)
	require.NotNil(t, snap.Unit)
	assert.Equal(t, "unit-old", snap.Unit.ID)
}

func TestAdoptEndpoint_RejectedWhileActive(t *testing.T) {
	ts := setupTestServer(t)

	ts.do(t, http.MethodPost, "/v1/playback/play", playRequest("unit-a"), nil)

	body := map[string]any{
		"unit":        playRequest("unit-old"),
		"position_ms": 1000,
	}
	var apiErr APIError
	w := ts.do(t, http.MethodPost, "/v1/playback/adopt", body, &apiErr)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", apiErr.Code)
}

func TestShareEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.do(t, http.MethodPost, "/v1/playback/play", playRequest("unit-a"), nil)

	var out struct {
		Shared bool `json:"shared"`
	}
	w := ts.do(t, http.MethodPost, "/v1/playback/share", nil, &out)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, out.Shared)
}

func TestShareEndpoint_NothingPlaying(t *testing.T) {
	ts := setupTestServer(t)

	var apiErr APIError
	w := ts.do(t, http.MethodPost, "/v1/playback/share", nil, &apiErr)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION", apiErr.Code)
}
