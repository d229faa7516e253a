package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/common/dto"
	"github.com/opensurvey/monitor/internal/i18n"
)

// CreateVariable adds a dictionary entry with its modalities (director only)
func (h *Handler) CreateVariable(c *gin.Context) {
	var req dto.CreateVariableRequest
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

	ctx := c.Request.Context()
	if _, err := h.db.GetVariableByName(ctx, req.Name); err == nil {
		i18n.RespondWithError(c, i18n.ErrorVariableExists.WithParam("Name", req.Name))
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	varType := database.VariableType(req.Type)
	if varType == "" {
		varType = database.TypeSelectOne
	}

	v := &database.Variable{
		Name:    req.Name,
		Label:   req.Label,
		Type:    varType,
		IsQuota: req.IsQuota,
	}
	for _, m := range req.Modalities {
		v.Modalities = append(v.Modalities, database.Modality{Code: m.Code, Label: m.Label})
	}

	if err := h.db.CreateVariable(ctx, v); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			i18n.RespondWithError(c, i18n.ErrorVariableExists.WithParam("Name", req.Name))
			return
		}
		h.logger.Error("failed to create variable", zap.String("name", req.Name), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.logger.Info("variable created", zap.Uint("id", v.ID), zap.String("name", v.Name))
	i18n.RespondCreated(c, "MsgVariableCreated", nil, v)
}

// GetVariable returns one dictionary entry with its modalities
func (h *Handler) GetVariable(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	v, err := h.db.GetVariableByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorVariableNotFound)
		return
	}
	c.JSON(http.StatusOK, v)
}

// ListVariables returns the dictionary; ?quota_only=true restricts it to
// quota-eligible variables, which is what the assignment form needs.
func (h *Handler) ListVariables(c *gin.Context) {
	quotaOnly := c.Query("quota_only") == "true"

	vars, err := h.db.ListVariables(c.Request.Context(), quotaOnly)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	c.JSON(http.StatusOK, vars)
}

// DeleteVariable removes a dictionary entry and its modalities (director only)
func (h *Handler) DeleteVariable(c *gin.Context) {
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
	if requester.Role != database.RoleDirector {
		i18n.RespondWithError(c, i18n.ErrorDirectorOnly)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.db.GetVariableByID(ctx, id); err != nil {
		i18n.RespondWithError(c, i18n.ErrorVariableNotFound)
		return
	}

	if err := h.db.DeleteVariable(ctx, id); err != nil {
		h.logger.Error("failed to delete variable", zap.Uint("id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.logger.Info("variable deleted", zap.Uint("id", id))
	i18n.RespondOK(c, "MsgVariableDeleted", nil, nil)
}
