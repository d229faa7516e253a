package handler

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/common/dto"
	"github.com/opensurvey/monitor/internal/hierarchy"
	"github.com/opensurvey/monitor/internal/i18n"
	"github.com/opensurvey/monitor/internal/scope"
)

// CreateUser handles account creation. Only the director creates accounts,
// and the chef of the new account must sit exactly one hierarchy level
// above the new role.
func (h *Handler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requester, err := h.requester(c)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	if requester.Role != database.RoleDirector {
		i18n.RespondWithError(c, i18n.ErrorDirectorOnly)
		return
	}

	role := database.UserRole(req.Role)
	if !role.Valid() {
		i18n.RespondWithError(c, i18n.ErrorInvalidRole.WithParam("Role", req.Role))
		return
	}

	ctx := c.Request.Context()

	if _, err := h.db.GetUserByUsername(ctx, req.Username); err == nil {
		i18n.RespondWithError(c, i18n.ErrorUsernameExists)
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if req.FieldCode != nil && *req.FieldCode != "" {
		if _, err := h.db.GetUserByFieldCode(ctx, *req.FieldCode); err == nil {
			i18n.RespondWithError(c, i18n.ErrorFieldCodeExists)
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			i18n.RespondWithError(c, i18n.ErrInternalServer)
			return
		}
	}

	var chef *database.User
	if req.ChefID != nil {
		chef, err = h.db.GetUserByID(ctx, *req.ChefID)
		if err != nil {
			i18n.RespondWithError(c, i18n.ErrorChefNotFound.WithParam("ChefID", *req.ChefID))
			return
		}
	}
	if err := hierarchy.ValidateChef(role, chef); err != nil {
		var invalid *hierarchy.InvalidChefError
		if errors.As(err, &invalid) {
			i18n.RespondWithError(c, i18n.ErrorInvalidHierarchy.
				WithParam("Role", string(invalid.Role)).
				WithParam("Expected", string(invalid.Expected)))
			return
		}
		i18n.RespondWithError(c, i18n.ErrBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	user := &database.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
		FieldCode:    req.FieldCode,
		ChefID:       req.ChefID,
	}
	if err := h.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			i18n.RespondWithError(c, i18n.ErrorUsernameExists)
			return
		}
		h.logger.Error("failed to create user", zap.String("username", req.Username), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.logger.Info("user created",
		zap.Uint("id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))
	i18n.RespondCreated(c, "MsgUserCreated", nil, toUserInfo(user))
}

// GetUser returns one account if it falls inside the requester's scope
func (h *Handler) GetUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	requester, err := h.requester(c)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	_, eval, err := h.scopeFor(c, requester)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	// An out-of-scope account answers exactly like a nonexistent one so
	// the response does not reveal which ids are taken.
	target, err := h.db.GetUserByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorUserNotFound)
		return
	}
	if !eval.CanViewUser(target) {
		i18n.RespondWithError(c, i18n.ErrorUserNotFound)
		return
	}
	c.JSON(http.StatusOK, toUserInfo(target))
}

// ListUsers returns the accounts visible to the requester: everybody for
// the director, self plus transitive subordinates for anyone else.
func (h *Handler) ListUsers(c *gin.Context) {
	requester, err := h.requester(c)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	users, err := h.db.ListUsers(c.Request.Context())
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	tree := hierarchy.NewTree(users)
	eval, err := scope.NewEvaluator(requester, tree)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorHierarchyCorruption)
		return
	}

	out := make([]dto.UserInfo, 0, len(users))
	for _, u := range users {
		if eval.CanViewUser(u) {
			out = append(out, toUserInfo(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, out)
}

// UpdateUser handles account updates. The director may update anyone;
// otherwise only the target's direct chef may, and delegation does not
// cascade down the hierarchy.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requester, err := h.requester(c)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	_, eval, err := h.scopeFor(c, requester)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	target, err := h.db.GetUserByID(ctx, id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorUserNotFound)
		return
	}
	if !eval.CanMutateUser(target) {
		i18n.RespondWithError(c, i18n.ErrorNotDirectReport)
		return
	}

	if req.Username != nil && *req.Username != target.Username {
		if _, err := h.db.GetUserByUsername(ctx, *req.Username); err == nil {
			i18n.RespondWithError(c, i18n.ErrorUsernameExists)
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			i18n.RespondWithError(c, i18n.ErrInternalServer)
			return
		}
		target.Username = *req.Username
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			i18n.RespondWithError(c, i18n.ErrInternalServer)
			return
		}
		target.PasswordHash = string(hash)
	}

	// Re-parenting goes through the same role-ordering rule as creation
	if req.ChefID != nil {
		if !eval.IsDirector() {
			i18n.RespondWithError(c, i18n.ErrorDirectorOnly)
			return
		}
		chef, err := h.db.GetUserByID(ctx, *req.ChefID)
		if err != nil {
			i18n.RespondWithError(c, i18n.ErrorChefNotFound.WithParam("ChefID", *req.ChefID))
			return
		}
		if err := hierarchy.ValidateChef(target.Role, chef); err != nil {
			var invalid *hierarchy.InvalidChefError
			if errors.As(err, &invalid) {
				i18n.RespondWithError(c, i18n.ErrorInvalidHierarchy.
					WithParam("Role", string(invalid.Role)).
					WithParam("Expected", string(invalid.Expected)))
				return
			}
			i18n.RespondWithError(c, i18n.ErrBadRequest)
			return
		}
		target.ChefID = req.ChefID
	}

	if err := h.db.UpdateUser(ctx, target); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			i18n.RespondWithError(c, i18n.ErrorUsernameExists)
			return
		}
		h.logger.Error("failed to update user", zap.Uint("id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	i18n.RespondOK(c, "MsgUserUpdated", nil, toUserInfo(target))
}

// DeleteUser handles account deletion. Only the director deletes, and only
// accounts without direct reports, so a subtree is never orphaned.
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	requester, err := h.requester(c)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}
	tree, eval, err := h.scopeFor(c, requester)
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	target, err := h.db.GetUserByID(ctx, id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorUserNotFound)
		return
	}

	if err := eval.CanDeleteUser(tree, target); err != nil {
		var notEmpty *scope.NotEmptyError
		if errors.As(err, &notEmpty) {
			i18n.RespondWithError(c, i18n.ErrorHierarchyNotEmpty.WithParam("Count", notEmpty.Count))
			return
		}
		i18n.RespondWithError(c, i18n.ErrorDirectorOnly)
		return
	}

	if err := h.db.DeleteUser(ctx, id); err != nil {
		h.logger.Error("failed to delete user", zap.Uint("id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.logger.Info("user deleted", zap.Uint("id", id), zap.String("username", target.Username))
	i18n.RespondOK(c, "MsgUserDeleted", nil, nil)
}
