package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narrifyapp/narrify-playback/internal/domain"
)

func TestPromoteEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var out PromoteResponse
	w := ts.do(t, http.MethodPost, "/v1/promote", playRequest("unit-a"), &out)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, out.Unit)
	assert.Equal(t, "saved-unit-a", out.Unit.ID)
	assert.Equal(t, domain.UnitSaved, out.Unit.Kind)
	require.Len(t, ts.backend.units, 1)
}

func TestPromoteEndpoint_SavedUnitRejected(t *testing.T) {
	ts := setupTestServer(t)

	req := playRequest("unit-a")
	req["saved"] = true

	var apiErr APIError
	w := ts.do(t, http.MethodPost, "/v1/promote", req, &apiErr)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION", apiErr.Code)
	assert.Empty(t, ts.backend.units)
}

func TestPromoteActiveEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.do(t, http.MethodPost, "/v1/playback/play", playRequest("unit-a"), nil)

	var out PromoteResponse
	w := ts.do(t, http.MethodPost, "/v1/promote/active", nil, &out)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, out.Unit)
	assert.Equal(t, "saved-unit-a", out.Unit.ID)

	// Playback keeps running while the unit is promoted.
	var snap SnapshotResponse
	ts.do(t, http.MethodGet, "/v1/playback/snapshot", nil, &snap)
	assert.Equal(t, domain.StatePlaying, snap.State)
}

func TestPromoteActiveEndpoint_NothingPlaying(t *testing.T) {
	ts := setupTestServer(t)

	var apiErr APIError
	w := ts.do(t, http.MethodPost, "/v1/promote/active", nil, &apiErr)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NOT_LOADED", apiErr.Code)
}

func TestPromoteStatusEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var status struct {
		State  string `json:"state"`
		UnitID string `json:"unit_id,omitempty"`
	}
	w := ts.do(t, http.MethodGet, "/v1/promote/status", nil, &status)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", status.State)

	ts.do(t, http.MethodPost, "/v1/promote", playRequest("unit-a"), nil)

	w = ts.do(t, http.MethodGet, "/v1/promote/status", nil, &status)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "promoted", status.State)
	assert.Equal(t, "unit-a", status.UnitID)

	w = ts.do(t, http.MethodPost, "/v1/promote/reset", nil, &status)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", status.State)
}
