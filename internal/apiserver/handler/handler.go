package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/apiserver/middleware"
	"github.com/opensurvey/monitor/internal/auth/jwt"
	"github.com/opensurvey/monitor/internal/common/config"
	"github.com/opensurvey/monitor/internal/common/dto"
	"github.com/opensurvey/monitor/internal/hierarchy"
	"github.com/opensurvey/monitor/internal/i18n"
	"github.com/opensurvey/monitor/internal/notifier"
	"github.com/opensurvey/monitor/internal/scope"
	"github.com/opensurvey/monitor/pkg/metrics"
)

// Handler carries the shared dependencies of every API endpoint
type Handler struct {
	db         database.Database
	jwtService *jwt.Service
	cfg        *config.APIServerConfig
	logger     *zap.Logger
	notifier   notifier.Notifier
	metrics    *metrics.Metrics
}

// NewHandler creates the API handler. The notifier and metrics are
// optional; a nil notifier falls back to a no-op.
func NewHandler(db database.Database, jwtService *jwt.Service, cfg *config.APIServerConfig, logger *zap.Logger, ntf notifier.Notifier, m *metrics.Metrics) *Handler {
	if ntf == nil {
		ntf = notifier.Noop{}
	}
	return &Handler{
		db:         db,
		jwtService: jwtService,
		cfg:        cfg,
		logger:     logger.Named("handler"),
		notifier:   ntf,
		metrics:    m,
	}
}

// requester resolves the authenticated account from the JWT claims. The
// account is re-read on every request so a deleted user loses access as
// soon as the row is gone, not when the token expires.
func (h *Handler) requester(c *gin.Context) (*database.User, error) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		return nil, i18n.ErrUnauthorized
	}
	user, err := h.db.GetUserByUsername(c.Request.Context(), claims.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, i18n.ErrUnauthorized
		}
		h.logger.Error("failed to load requester", zap.String("username", claims.Username), zap.Error(err))
		return nil, i18n.ErrInternalServer
	}
	return user, nil
}

// scopeFor loads the full user hierarchy and builds the requester's
// visibility evaluator.
func (h *Handler) scopeFor(c *gin.Context, requester *database.User) (*hierarchy.Tree, *scope.Evaluator, error) {
	users, err := h.db.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		return nil, nil, i18n.ErrInternalServer
	}
	tree := hierarchy.NewTree(users)
	eval, err := scope.NewEvaluator(requester, tree)
	if err != nil {
		h.logger.Error("hierarchy corruption detected",
			zap.Uint("requester_id", requester.ID),
			zap.Error(err))
		return nil, nil, i18n.ErrorHierarchyCorruption
	}
	return tree, eval, nil
}

// idParam parses a numeric path parameter
func idParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, i18n.ErrBadRequest
	}
	return uint(id), nil
}

func toUserInfo(u *database.User) dto.UserInfo {
	return dto.UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		FieldCode: u.FieldCode,
		ChefID:    u.ChefID,
	}
}
