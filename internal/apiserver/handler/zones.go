package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/common/dto"
	"github.com/opensurvey/monitor/internal/i18n"
)

// CreateZone handles zone creation (director only)
func (h *Handler) CreateZone(c *gin.Context) {
	var req dto.CreateZoneRequest
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

	zone := &database.Zone{
		Name:             req.Name,
		CenterLatitude:   *req.CenterLatitude,
		CenterLongitude:  *req.CenterLongitude,
		ToleranceRadiusM: req.ToleranceRadiusM,
	}
	if zone.ToleranceRadiusM <= 0 {
		zone.ToleranceRadiusM = 500
	}

	if err := h.db.CreateZone(c.Request.Context(), zone); err != nil {
		h.logger.Error("failed to create zone", zap.String("name", req.Name), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.logger.Info("zone created", zap.Uint("id", zone.ID), zap.String("name", zone.Name))
	i18n.RespondCreated(c, "MsgZoneCreated", nil, zone)
}

// GetZone returns one zone
func (h *Handler) GetZone(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		i18n.RespondWithError(c, err)
		return
	}

	zone, err := h.db.GetZoneByID(c.Request.Context(), id)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrorZoneNotFound)
		return
	}
	c.JSON(http.StatusOK, zone)
}

// ListZones returns zones with offset/limit pagination. Reading zones is
// open to every authenticated role; the map view needs them all.
func (h *Handler) ListZones(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	zones, err := h.db.ListZones(c.Request.Context(), offset, limit)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	c.JSON(http.StatusOK, zones)
}

// DeleteZone handles zone deletion (director only)
func (h *Handler) DeleteZone(c *gin.Context) {
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
	if _, err := h.db.GetZoneByID(ctx, id); err != nil {
		i18n.RespondWithError(c, i18n.ErrorZoneNotFound)
		return
	}

	if err := h.db.DeleteZone(ctx, id); err != nil {
		h.logger.Error("failed to delete zone", zap.Uint("id", id), zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	h.logger.Info("zone deleted", zap.Uint("id", id))
	i18n.RespondOK(c, "MsgZoneDeleted", nil, nil)
}
