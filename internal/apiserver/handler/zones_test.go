package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.seedHierarchy(t)

	w := env.request(t, http.MethodPost, "/api/zones", tokens["director"], map[string]any{
		"name":             "Commune Nord",
		"center_latitude":  14.7167,
		"center_longitude": -17.4677,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	zoneID := uint(decodeBody(t, w)["data"].(map[string]any)["id"].(float64))

	// Radius falls back to the default when omitted
	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/zones/%d", zoneID), tokens["agent"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(500), decodeBody(t, w)["tolerance_radius_m"])

	// Every role reads the zone list
	w = env.request(t, http.MethodGet, "/api/zones", tokens["agent"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Commune Nord")

	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/zones/%d", zoneID), tokens["director"], nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/zones/%d", zoneID), tokens["director"], nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateZoneAtOrigin(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.seedHierarchy(t)

	// 0.0 is a legitimate coordinate, not a missing field
	w := env.request(t, http.MethodPost, "/api/zones", tokens["director"], map[string]any{
		"name":             "Null Island",
		"center_latitude":  0.0,
		"center_longitude": 0.0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Coordinates outside the valid range are refused
	w = env.request(t, http.MethodPost, "/api/zones", tokens["director"], map[string]any{
		"name":             "Nowhere",
		"center_latitude":  95.0,
		"center_longitude": 10.0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodPost, "/api/zones", tokens["director"], map[string]any{
		"name":            "Half missing",
		"center_latitude": 10.0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestZoneMutationIsDirectorOnly(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.seedHierarchy(t)

	w := env.request(t, http.MethodPost, "/api/zones", tokens["supervisor"], map[string]any{
		"name":             "Z",
		"center_latitude":  1.0,
		"center_longitude": 1.0,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodDelete, "/api/zones/1", tokens["controller"], nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteUnknownZone(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.seedHierarchy(t)

	w := env.request(t, http.MethodDelete, "/api/zones/404", tokens["director"], nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
