package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserChain(t *testing.T) {
	env := newTestEnv(t)
	admin, adminToken := env.seedUser(t, "admin", "director", nil, nil)

	// Director creates a supervisor reporting to them
	w := env.request(t, http.MethodPost, "/api/users", adminToken, map[string]any{
		"username": "sup1",
		"password": "secret",
		"role":     "supervisor",
		"chef_id":  admin.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	supID := uint(decodeBody(t, w)["data"].(map[string]any)["id"].(float64))

	// Then a controller under the supervisor
	w = env.request(t, http.MethodPost, "/api/users", adminToken, map[string]any{
		"username": "ctrl1",
		"password": "secret",
		"role":     "controller",
		"chef_id":  supID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ctrlID := uint(decodeBody(t, w)["data"].(map[string]any)["id"].(float64))

	// And an agent with a field code under the controller
	w = env.request(t, http.MethodPost, "/api/users", adminToken, map[string]any{
		"username":   "agent1",
		"password":   "secret",
		"role":       "agent",
		"field_code": "AG045",
		"chef_id":    ctrlID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateUserHierarchyRules(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)

	// A controller may not report to the director directly
	w := env.request(t, http.MethodPost, "/api/users", tokens["director"], map[string]any{
		"username": "ctrl2",
		"password": "secret",
		"role":     "controller",
		"chef_id":  users["director"].ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// An agent needs a chef
	w = env.request(t, http.MethodPost, "/api/users", tokens["director"], map[string]any{
		"username": "agent2",
		"password": "secret",
		"role":     "agent",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown chef ID
	w = env.request(t, http.MethodPost, "/api/users", tokens["director"], map[string]any{
		"username": "agent2",
		"password": "secret",
		"role":     "agent",
		"chef_id":  9999,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown role
	w = env.request(t, http.MethodPost, "/api/users", tokens["director"], map[string]any{
		"username": "x",
		"password": "secret",
		"role":     "manager",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUserOnlyDirector(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)

	w := env.request(t, http.MethodPost, "/api/users", tokens["supervisor"], map[string]any{
		"username": "ctrl2",
		"password": "secret",
		"role":     "controller",
		"chef_id":  users["supervisor"].ID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateUserUniqueness(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)

	w := env.request(t, http.MethodPost, "/api/users", tokens["director"], map[string]any{
		"username": "agent1",
		"password": "secret",
		"role":     "agent",
		"chef_id":  users["controller"].ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.request(t, http.MethodPost, "/api/users", tokens["director"], map[string]any{
		"username":   "agent2",
		"password":   "secret",
		"role":       "agent",
		"field_code": "AG045",
		"chef_id":    users["controller"].ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListUsersScoped(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)
	// A second branch invisible to the first
	sup2, _ := env.seedUser(t, "sup2", "supervisor", &users["director"].ID, nil)
	env.seedUser(t, "ctrl2", "controller", &sup2.ID, nil)

	w := env.request(t, http.MethodGet, "/api/users", tokens["director"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ctrl2")

	w = env.request(t, http.MethodGet, "/api/users", tokens["supervisor"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "sup1")
	assert.Contains(t, body, "ctrl1")
	assert.Contains(t, body, "agent1")
	assert.NotContains(t, body, "ctrl2")
	assert.NotContains(t, body, "admin")

	w = env.request(t, http.MethodGet, "/api/users", tokens["agent"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "ctrl1")
}

func TestGetUserScoped(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d", users["agent"].ID), tokens["supervisor"], nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Peers and superiors answer exactly like unknown ids, so the
	// response never betrays whether an account exists
	outOfScope := env.request(t, http.MethodGet, fmt.Sprintf("/api/users/%d", users["director"].ID), tokens["supervisor"], nil)
	unknown := env.request(t, http.MethodGet, "/api/users/9999", tokens["supervisor"], nil)
	assert.Equal(t, http.StatusNotFound, outOfScope.Code)
	assert.Equal(t, http.StatusNotFound, unknown.Code)
	assert.Equal(t, unknown.Body.String(), outOfScope.Body.String())

	w = env.request(t, http.MethodGet, "/api/users/9999", tokens["director"], nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateUserByDirectChefOnly(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)

	// The controller is the agent's direct chef and may reset the password
	w := env.request(t, http.MethodPut, fmt.Sprintf("/api/users/%d", users["agent"].ID), tokens["controller"], map[string]any{
		"password": "newpass",
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The supervisor is a transitive superior, not the direct chef
	w = env.request(t, http.MethodPut, fmt.Sprintf("/api/users/%d", users["agent"].ID), tokens["supervisor"], map[string]any{
		"password": "newpass",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The director may always
	w = env.request(t, http.MethodPut, fmt.Sprintf("/api/users/%d", users["agent"].ID), tokens["director"], map[string]any{
		"username": "agent1b",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	got, err := env.db.GetUserByID(t.Context(), users["agent"].ID)
	require.NoError(t, err)
	assert.Equal(t, "agent1b", got.Username)
}

func TestUpdateUserReparenting(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)
	sup2, _ := env.seedUser(t, "sup2", "supervisor", &users["director"].ID, nil)

	// Moving the controller under the other supervisor keeps role order
	w := env.request(t, http.MethodPut, fmt.Sprintf("/api/users/%d", users["controller"].ID), tokens["director"], map[string]any{
		"chef_id": sup2.ID,
	})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Moving them under an agent breaks it
	w = env.request(t, http.MethodPut, fmt.Sprintf("/api/users/%d", users["controller"].ID), tokens["director"], map[string]any{
		"chef_id": users["agent"].ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Only the director re-parents
	w = env.request(t, http.MethodPut, fmt.Sprintf("/api/users/%d", users["agent"].ID), tokens["controller"], map[string]any{
		"chef_id": users["controller"].ID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteUserRules(t *testing.T) {
	env := newTestEnv(t)
	users, tokens := env.seedHierarchy(t)

	// The supervisor still has a team
	w := env.request(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", users["supervisor"].ID), tokens["director"], nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "1")

	// Only the director deletes
	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", users["agent"].ID), tokens["controller"], nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A leaf can go
	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", users["agent"].ID), tokens["director"], nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Then the controller becomes a leaf and can go too
	w = env.request(t, http.MethodDelete, fmt.Sprintf("/api/users/%d", users["controller"].ID), tokens["director"], nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
