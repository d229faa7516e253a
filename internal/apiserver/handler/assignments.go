package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/common/dto"
	"github.com/opensurvey/monitor/internal/i18n"
	"github.com/opensurvey/monitor/internal/quota"
)

func toAssignmentOut(a *database.Assignment) dto.AssignmentOut {
	out := dto.AssignmentOut{
		ID:            a.ID,
		ControllerID:  a.ControllerID,
		ZoneID:        a.ZoneID,
		ExpectedQuota: a.ExpectedQuota,
		StartDate:     a.StartDate,
		EndDate:       a.EndDate,
		IsActive:      a.IsActive,
		Quota:         a.Quota,
	}
	if a.Controller != nil {
		out.ControllerName = a.Controller.Username
	}
	if a.Zone != nil {
		out.ZoneName = a.Zone.Name
	}
	if a.Quota != nil {
		out.QuotaMet = a.Quota.IsMet()
	}
	return out
}

// validateQuota checks a quota configuration structurally and against the
// dictionary: every crossed-rule condition must name a quota-eligible
// variable.
func (h *Handler) validateQuota(c *gin.Context, cfg *quota.Config) error {
	if err := cfg.Validate(); err != nil {
		return i18n.ErrorInvalidQuotaConfig
	}
	vars, err := h.db.ListVariables(c.Request.Context(), true)
	if err != nil {
		return i18n.ErrInternalServer
	}
	known := make(map[string]bool, len(vars))
	for _, v := range vars {
		known[v.Name] = true
	}
	if err := cfg.ValidateAgainst(known); err != nil {
		var unknown *quota.UnknownVariableError
		if errors.As(err, &unknown) {
			return i18n.ErrorQuotaVariableUnknown.WithParam("Variable", unknown.Variable)
		}
		return i18n.ErrorInvalidQuotaConfig
	}
	return nil
}

// CreateAssignment handles mission creation (director only). The assignee
// must hold the controller role and the zone must exist.
func (h *Handler) CreateAssignment(c *gin.Context) {
	var req dto.CreateAssignmentRequest
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

	controller, err := h.db.GetUserByID(ctx, req.ControllerID)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorUserNotFound)
		return
	}
	if controller.Role != database.RoleController {
		i18n.RespondWithError(c, i18n.ErrorControllerRoleRequired)
		return
	}

	if _, err := h.db.GetZoneByID(ctx, req.ZoneID); err != nil {
		i18n.RespondWithError(c, i18n.ErrorZoneNotFound)
		return
	}

	if req.Quota != nil {
		if err := h.validateQuota(c, req.Quota); err != nil {
			i18n.RespondWithError(c, err)
			return
		}
	}

	a := &database.Assignment{
		ControllerID:  req.ControllerID,
		ZoneID:        req.ZoneID,
		ExpectedQuota: req.ExpectedQuota,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		IsActive:      true,
		Quota:         req.Quota,
	}
	if err := h.db.CreateAssignment(ctx, a); err != nil {
		h.logger.Error("failed to create assignment",
			zap.Uint("controller_id", req.ControllerID),
			zap.Uint("zone_id", req.ZoneID),
			zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.logger.Info("assignment created",
		zap.Uint("id", a.ID),
		zap.Uint("controller_id", a.ControllerID),
		zap.Uint("zone_id", a.ZoneID))
	i18n.RespondCreated(c, "MsgAssignmentCreated", nil, toAssignmentOut(a))
}

// GetAssignment returns one mission if it falls inside the requester's scope
func (h *Handler) GetAssignment(c *gin.Context) {
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

	// Out-of-scope missions answer like nonexistent ones; the id space
	// is not probeable.
	a, err := h.db.GetAssignmentByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorAssignmentNotFound)
		return
	}
	if !eval.CanViewAssignment(a) {
		i18n.RespondWithError(c, i18n.ErrorAssignmentNotFound)
		return
	}
	c.JSON(http.StatusOK, toAssignmentOut(a))
}

// ListAssignments returns the missions visible to the requester: everything
// for the director, otherwise the requester's own plus those of subordinate
// controllers.
func (h *Handler) ListAssignments(c *gin.Context) {
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

	assignments, err := h.db.ListAssignments(c.Request.Context())
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	out := make([]dto.AssignmentOut, 0, len(assignments))
	for _, a := range assignments {
		if eval.CanViewAssignment(a) {
			out = append(out, toAssignmentOut(a))
		}
	}
	c.JSON(http.StatusOK, out)
}

// UpdateAssignment handles mission changes (director only): extending or
// closing the mission, or replacing the quota configuration. A quota
// replacement resets the counters; progress so far belongs to the old
// objectives.
func (h *Handler) UpdateAssignment(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	var req dto.UpdateAssignmentRequest
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
	a, err := h.db.GetAssignmentByID(ctx, id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorAssignmentNotFound)
		return
	}

	if req.EndDate != nil {
		a.EndDate = req.EndDate
	}
	if req.IsActive != nil {
		a.IsActive = *req.IsActive
	}
	if req.Quota != nil {
		if err := h.validateQuota(c, req.Quota); err != nil {
			i18n.RespondWithError(c, err)
			return
		}
		a.Quota = req.Quota
	}

	if err := h.db.UpdateAssignment(ctx, a); err != nil {
		h.logger.Error("failed to update assignment", zap.Uint("id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if err := h.notifier.PublishAssignmentUpdated(ctx, a.ID); err != nil {
		h.logger.Warn("failed to broadcast assignment update", zap.Uint("id", a.ID), zap.Error(err))
	}

	i18n.RespondOK(c, "MsgAssignmentUpdated", nil, toAssignmentOut(a))
}

// AssignmentStats reports collection progress for one mission: how many
// records the controller's team has synced against the expected quota.
func (h *Handler) AssignmentStats(c *gin.Context) {
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

	a, err := h.db.GetAssignmentByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorAssignmentNotFound)
		return
	}
	if !eval.CanViewAssignment(a) {
		i18n.RespondWithError(c, i18n.ErrorAssignmentNotFound)
		return
	}

	// The team is the controller plus every agent underneath; only
	// accounts with a field code can appear on synced records.
	codes := make([]string, 0, 8)
	if u := tree.User(a.ControllerID); u != nil && u.FieldCode != nil {
		codes = append(codes, *u.FieldCode)
	}
	subs, err := tree.Subordinates(a.ControllerID)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorHierarchyCorruption)
		return
	}
	for _, u := range subs {
		if u.FieldCode != nil {
			codes = append(codes, *u.FieldCode)
		}
	}

	var collected int64
	if len(codes) > 0 {
		collected, err = h.db.CountSurveyRecordsByAgents(c.Request.Context(), codes)
		if err != nil {
			i18n.RespondWithError(c, i18n.ErrInternalServer)
			return
		}
	}

	stats := dto.AssignmentStats{
		AssignmentID: a.ID,
		Collected:    collected,
		Expected:     a.ExpectedQuota,
	}
	if a.Zone != nil {
		stats.ZoneName = a.Zone.Name
	}
	if a.Quota != nil {
		stats.QuotaMet = a.Quota.IsMet()
	} else {
		stats.QuotaMet = a.ExpectedQuota > 0 && collected >= int64(a.ExpectedQuota)
	}
	c.JSON(http.StatusOK, stats)
}
