package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensurvey/monitor/internal/apiserver/database"
)

func (e *testEnv) seedZone(t *testing.T, name string) *database.Zone {
	t.Helper()
	z := &database.Zone{Name: name, CenterLatitude: 14.7, CenterLongitude: -17.4}
	require.NoError(t, e.db.CreateZone(context.Background(), z))
	return z
}

func (e *testEnv) seedQuotaVariable(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, e.db.CreateVariable(context.Background(), &database.Variable{
		Name:    name,
		Label:   name,
		Type:    database.TypeSelectOne,
		IsQuota: true,
	}))
}

func TestCreateAssignment(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)
	zone := env.seedZone(t, "Nord")
	env.seedQuotaVariable(t, "SEXE")

	w := env.request(t, http.MethodPost, "/api/assignments", tokens["director"], map[string]any{
		"controller_id":  users["controller"].ID,
		"zone_id":        zone.ID,
		"expected_quota": 50,
		"quota": map[string]any{
			"type": "croise",
			"regles": []map[string]any{
				{"conditions": map[string]string{"SEXE": "F"}, "cible": 15},
			},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "ctrl1", data["controller_name"])
	assert.Equal(t, "Nord", data["zone_name"])
	assert.Equal(t, true, data["is_active"])
	assert.Equal(t, false, data["quota_met"])
}

func TestCreateAssignmentValidation(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)
	zone := env.seedZone(t, "Nord")
	env.seedQuotaVariable(t, "SEXE")

	// Assignee must hold the controller role
	w := env.request(t, http.MethodPost, "/api/assignments", tokens["director"], map[string]any{
		"controller_id": users["agent"].ID,
		"zone_id":       zone.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Zone must exist
	w = env.request(t, http.MethodPost, "/api/assignments", tokens["director"], map[string]any{
		"controller_id": users["controller"].ID,
		"zone_id":       9999,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Quota conditions must reference quota-eligible dictionary variables
	w = env.request(t, http.MethodPost, "/api/assignments", tokens["director"], map[string]any{
		"controller_id": users["controller"].ID,
		"zone_id":       zone.ID,
		"quota": map[string]any{
			"type": "croise",
			"regles": []map[string]any{
				{"conditions": map[string]string{"REGION": "NORD"}, "cible": 5},
			},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "REGION")

	// Structurally broken quota
	w = env.request(t, http.MethodPost, "/api/assignments", tokens["director"], map[string]any{
		"controller_id": users["controller"].ID,
		"zone_id":       zone.ID,
		"quota":         map[string]any{"type": "croise"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Only the director assigns
	w = env.request(t, http.MethodPost, "/api/assignments", tokens["supervisor"], map[string]any{
		"controller_id": users["controller"].ID,
		"zone_id":       zone.ID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListAssignmentsScoped(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)
	zone := env.seedZone(t, "Nord")

	// Second branch with its own controller and mission
	sup2, _ := env.seedUser(t, "sup2", "supervisor", &users["director"].ID, nil)
	ctrl2, ctrl2Token := env.seedUser(t, "ctrl2", "controller", &sup2.ID, nil)

	a1 := &database.Assignment{ControllerID: users["controller"].ID, ZoneID: zone.ID, IsActive: true}
	a2 := &database.Assignment{ControllerID: ctrl2.ID, ZoneID: zone.ID, IsActive: true}
	require.NoError(t, env.db.CreateAssignment(context.Background(), a1))
	require.NoError(t, env.db.CreateAssignment(context.Background(), a2))

	// The director sees both missions
	w := env.request(t, http.MethodGet, "/api/assignments", tokens["director"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ctrl1")
	assert.Contains(t, w.Body.String(), "ctrl2")

	// A controller sees only their own
	w = env.request(t, http.MethodGet, "/api/assignments", tokens["controller"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ctrl1")
	assert.NotContains(t, w.Body.String(), "ctrl2")

	// A supervisor sees their subordinate controller's missions
	w = env.request(t, http.MethodGet, "/api/assignments", tokens["supervisor"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ctrl1")
	assert.NotContains(t, w.Body.String(), "ctrl2")

	// Direct fetches follow the same rule; an out-of-scope mission is
	// indistinguishable from a nonexistent one
	outOfScope := env.request(t, http.MethodGet, fmt.Sprintf("/api/assignments/%d", a1.ID), ctrl2Token, nil)
	unknown := env.request(t, http.MethodGet, "/api/assignments/9999", ctrl2Token, nil)
	assert.Equal(t, http.StatusNotFound, outOfScope.Code)
	assert.Equal(t, http.StatusNotFound, unknown.Code)
	assert.Equal(t, unknown.Body.String(), outOfScope.Body.String())

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/assignments/%d", a1.ID), tokens["controller"], nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateAssignment(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)
	zone := env.seedZone(t, "Nord")

	a := &database.Assignment{ControllerID: users["controller"].ID, ZoneID: zone.ID, IsActive: true}
	require.NoError(t, env.db.CreateAssignment(context.Background(), a))

	// Close the mission
	w := env.request(t, http.MethodPut, fmt.Sprintf("/api/assignments/%d", a.ID), tokens["director"], map[string]any{
		"is_active": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := env.db.GetAssignmentByID(t.Context(), a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	// Non-directors may not touch missions
	w = env.request(t, http.MethodPut, fmt.Sprintf("/api/assignments/%d", a.ID), tokens["controller"], map[string]any{
		"is_active": true,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodPut, "/api/assignments/9999", tokens["director"], map[string]any{
		"is_active": true,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignmentStats(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)
	zone := env.seedZone(t, "Nord")

	a := &database.Assignment{ControllerID: users["controller"].ID, ZoneID: zone.ID, ExpectedQuota: 2, IsActive: true}
	require.NoError(t, env.db.CreateAssignment(context.Background(), a))

	ctx := context.Background()
	require.NoError(t, env.db.CreateSurveyRecord(ctx, &database.SurveyRecord{
		QuestionnaireUUID: "11111111-1111-1111-1111-111111111111",
		AgentCode:         "AG045",
		Status:            database.StatusComplete,
	}))
	require.NoError(t, env.db.CreateSurveyRecord(ctx, &database.SurveyRecord{
		QuestionnaireUUID: "22222222-2222-2222-2222-222222222222",
		AgentCode:         "AG045",
		Status:            database.StatusPartial,
	}))

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/assignments/%d/stats", a.ID), tokens["controller"], nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["collected"])
	assert.Equal(t, float64(2), body["expected"])
	assert.Equal(t, true, body["quota_met"])
	assert.Equal(t, "Nord", body["zone_name"])
}
