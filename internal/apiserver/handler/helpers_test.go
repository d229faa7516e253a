package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/apiserver/middleware"
	"github.com/opensurvey/monitor/internal/auth/jwt"
	"github.com/opensurvey/monitor/internal/common/config"
	"github.com/opensurvey/monitor/internal/i18n"
)

const testSyncToken = "test-sync-token"

type testEnv struct {
	router *gin.Engine
	db     database.Database
	jwt    *jwt.Service
}

// newTestEnv wires a handler against a real sqlite database and the full
// route table, so tests exercise the same paths production serves.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, i18n.InitTranslator("../../../configs/i18n"))

	db, err := database.NewDatabase(&config.DatabaseConfig{
		Type:   "sqlite",
		DBName: filepath.Join(t.TempDir(), "monitor.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	jwtService, err := jwt.NewService(jwt.Config{SecretKey: "test-secret-key-of-32-characters!"})
	require.NoError(t, err)

	cfg := &config.APIServerConfig{
		Ingest: config.IngestConfig{SyncToken: testSyncToken},
	}
	h := NewHandler(db, jwtService, cfg, zap.NewNop(), nil, nil)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/login", h.Login)
	api.POST("/surveys/sync", h.SyncSurveys)

	authed := api.Group("", middleware.JWTAuthMiddleware(jwtService))
	{
		authed.GET("/auth/me", h.Me)

		authed.POST("/users", h.CreateUser)
		authed.GET("/users", h.ListUsers)
		authed.GET("/users/:id", h.GetUser)
		authed.PUT("/users/:id", h.UpdateUser)
		authed.DELETE("/users/:id", h.DeleteUser)

		authed.POST("/zones", h.CreateZone)
		authed.GET("/zones", h.ListZones)
		authed.GET("/zones/:id", h.GetZone)
		authed.DELETE("/zones/:id", h.DeleteZone)

		authed.POST("/assignments", h.CreateAssignment)
		authed.GET("/assignments", h.ListAssignments)
		authed.GET("/assignments/:id", h.GetAssignment)
		authed.PUT("/assignments/:id", h.UpdateAssignment)
		authed.GET("/assignments/:id/stats", h.AssignmentStats)

		authed.POST("/variables", h.CreateVariable)
		authed.GET("/variables", h.ListVariables)
		authed.GET("/variables/:id", h.GetVariable)
		authed.DELETE("/variables/:id", h.DeleteVariable)

		authed.GET("/settings", h.GetSettings)
		authed.PUT("/settings", h.UpdateSettings)
	}

	return &testEnv{router: r, db: db, jwt: jwtService}
}

// seedUser inserts a user directly and returns it with a valid token
func (e *testEnv) seedUser(t *testing.T, username string, role database.UserRole, chefID *uint, fieldCode *string) (*database.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &database.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		ChefID:       chefID,
		FieldCode:    fieldCode,
	}
	require.NoError(t, e.db.CreateUser(context.Background(), u))

	token, err := e.jwt.GenerateToken(u.ID, u.Username, string(u.Role))
	require.NoError(t, err)
	return u, token
}

// seedHierarchy builds director -> supervisor -> controller -> agent and
// returns users and tokens keyed by role name.
func (e *testEnv) seedHierarchy(t *testing.T) (map[string]*database.User, map[string]string) {
	t.Helper()
	users := make(map[string]*database.User)
	tokens := make(map[string]string)

	users["director"], tokens["director"] = e.seedUser(t, "admin", database.RoleDirector, nil, nil)
	users["supervisor"], tokens["supervisor"] = e.seedUser(t, "sup1", database.RoleSupervisor, &users["director"].ID, nil)
	users["controller"], tokens["controller"] = e.seedUser(t, "ctrl1", database.RoleController, &users["supervisor"].ID, strPtr("CT001"))
	users["agent"], tokens["agent"] = e.seedUser(t, "agent1", database.RoleAgent, &users["controller"].ID, strPtr("AG045"))
	return users, tokens
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func strPtr(s string) *string { return &s }
