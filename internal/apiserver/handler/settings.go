package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/common/dto"
	"github.com/opensurvey/monitor/internal/i18n"
)

func toSettingsOut(s *database.GlobalSettings) dto.SettingsOut {
	return dto.SettingsOut{
		CheckGPS:           s.CheckGPS,
		GPSToleranceMeters: s.GPSToleranceMeters,
		CheckDuration:      s.CheckDuration,
		MinDurationMinutes: s.MinDurationMinutes,
		CheckWorkHours:     s.CheckWorkHours,
		WorkStartTime:      s.WorkStartTime,
		WorkEndTime:        s.WorkEndTime,
		CheckForbiddenDays: s.CheckForbiddenDays,
		ForbiddenDays:      s.ForbiddenDayList(),
		CheckMaxDaily:      s.CheckMaxDaily,
		MaxSurveysPerDay:   s.MaxSurveysPerDay,
		Announcement:       s.Announcement,
	}
}

// GetSettings returns the global configuration. Every authenticated role
// reads it; the mobile client applies the checks locally.
func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.db.GetSettings(c.Request.Context())
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}
	c.JSON(http.StatusOK, toSettingsOut(s))
}

// UpdateSettings handles global configuration changes (director only).
// Only the submitted fields change; the update is broadcast so connected
// clients pick up the new rules without re-syncing.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
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
	s, err := h.db.GetSettings(ctx)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if req.CheckGPS != nil {
		s.CheckGPS = *req.CheckGPS
	}
	if req.GPSToleranceMeters != nil {
		s.GPSToleranceMeters = *req.GPSToleranceMeters
	}
	if req.CheckDuration != nil {
		s.CheckDuration = *req.CheckDuration
	}
	if req.MinDurationMinutes != nil {
		s.MinDurationMinutes = *req.MinDurationMinutes
	}
	if req.CheckWorkHours != nil {
		s.CheckWorkHours = *req.CheckWorkHours
	}
	if req.WorkStartTime != nil {
		s.WorkStartTime = req.WorkStartTime
	}
	if req.WorkEndTime != nil {
		s.WorkEndTime = req.WorkEndTime
	}
	if req.CheckForbiddenDays != nil {
		s.CheckForbiddenDays = *req.CheckForbiddenDays
	}
	if req.ForbiddenDays != nil {
		s.SetForbiddenDayList(*req.ForbiddenDays)
	}
	if req.CheckMaxDaily != nil {
		s.CheckMaxDaily = *req.CheckMaxDaily
	}
	if req.MaxSurveysPerDay != nil {
		s.MaxSurveysPerDay = *req.MaxSurveysPerDay
	}
	if req.Announcement != nil {
		s.Announcement = req.Announcement
	}

	if err := h.db.UpdateSettings(ctx, s); err != nil {
		h.logger.Error("failed to update settings", zap.Error(err))
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	if err := h.notifier.PublishSettingsUpdated(ctx); err != nil {
		h.logger.Warn("failed to broadcast settings update", zap.Error(err))
	}

	h.logger.Info("settings updated", zap.Uint("by", requester.ID))
	i18n.RespondOK(c, "MsgSettingsUpdated", nil, toSettingsOut(s))
}
