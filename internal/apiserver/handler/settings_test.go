package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSettingsDefaults(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.seedHierarchy(t)

	// The singleton row is created on first read with its defaults
	w := env.request(t, http.MethodGet, "/api/settings", tokens["agent"], nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["check_gps"])
	assert.Equal(t, float64(500), body["gps_tolerance_meters"])
	assert.Equal(t, float64(20), body["max_surveys_per_day"])
	assert.Equal(t, []any{"Sunday"}, body["forbidden_days"])
}

func TestUpdateSettingsPartial(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.seedHierarchy(t)

	w := env.request(t, http.MethodPut, "/api/settings", tokens["director"], map[string]any{
		"check_forbidden_days": true,
		"forbidden_days":       []string{"Saturday", "Sunday"},
		"max_surveys_per_day":  25,
		"announcement":         "Fin de collecte vendredi",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.request(t, http.MethodGet, "/api/settings", tokens["controller"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	assert.Equal(t, []any{"Saturday", "Sunday"}, body["forbidden_days"])
	assert.Equal(t, float64(25), body["max_surveys_per_day"])
	assert.Equal(t, "Fin de collecte vendredi", body["announcement"])

	// Untouched fields keep their values
	assert.Equal(t, true, body["check_gps"])
	assert.Equal(t, float64(500), body["gps_tolerance_meters"])
}

func TestUpdateSettingsIsDirectorOnly(t *testing.T) {
	env := newTestEnv(t)
	_, tokens := env.seedHierarchy(t)

	w := env.request(t, http.MethodPut, "/api/settings", tokens["supervisor"], map[string]any{
		"max_surveys_per_day": 5,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}
