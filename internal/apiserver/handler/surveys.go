package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/common/dto"
	"github.com/opensurvey/monitor/internal/i18n"
	"github.com/opensurvey/monitor/pkg/trace"
)

// SyncTokenHeader authenticates the synchronization collaborator. The
// token is machine-to-machine; tablets never hold user credentials.
const SyncTokenHeader = "X-Sync-Token"

// SyncSurveys ingests a batch of questionnaires pushed by the field
// synchronization script. Re-syncing the same batch is harmless: the
// questionnaire UUID deduplicates, and quota counters only move on first
// insertion. A record is never rejected for exceeding a quota.
func (h *Handler) SyncSurveys(c *gin.Context) {
	token := c.GetHeader(SyncTokenHeader)
	if h.cfg.Ingest.SyncToken == "" || token != h.cfg.Ingest.SyncToken {
		i18n.RespondWithError(c, i18n.ErrorInvalidSyncToken)
		return
	}

	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	span := trace.Tracer("apiserver.ingest").Start(c.Request.Context(), "surveys.sync").
		WithAttrs(attribute.Int("records", len(req.Records)))
	defer span.End()
	ctx := span.Ctx

	settings, err := h.db.GetSettings(ctx)
	if err != nil {
		i18n.RespondWithError(c, i18n.ErrInternalServer)
		return
	}

	resp := dto.SyncResponse{Received: len(req.Records)}
	for i := range req.Records {
		outcome := h.ingestRecord(ctx, &req.Records[i], settings)
		h.metrics.RecordIngested(outcome)
		switch outcome {
		case "inserted":
			resp.Inserted++
		case "duplicate":
			resp.Duplicates++
		default:
			resp.Rejected++
		}
	}

	h.logger.Info("survey batch synchronized",
		zap.Int("received", resp.Received),
		zap.Int("inserted", resp.Inserted),
		zap.Int("duplicates", resp.Duplicates),
		zap.Int("rejected", resp.Rejected))
	i18n.RespondOK(c, "MsgSurveysSynced", map[string]any{"Count": resp.Inserted}, resp)
}

// ingestRecord processes one questionnaire and reports the outcome:
// inserted, duplicate, or rejected.
func (h *Handler) ingestRecord(ctx context.Context, in *dto.SurveyRecordIn, settings *database.GlobalSettings) string {
	if _, err := uuid.Parse(in.QuestionnaireUUID); err != nil {
		h.logger.Warn("rejected record with invalid questionnaire UUID",
			zap.String("uuid", in.QuestionnaireUUID))
		return "rejected"
	}

	exists, err := h.db.SurveyRecordExists(ctx, in.QuestionnaireUUID)
	if err != nil {
		h.logger.Error("failed to check for duplicate", zap.Error(err))
		return "rejected"
	}
	if exists {
		return "duplicate"
	}

	status := database.SurveyStatus(in.Status)
	if status == "" {
		status = database.StatusPartial
	}

	responses := "{}"
	if in.Responses != nil {
		raw, err := json.Marshal(in.Responses)
		if err != nil {
			return "rejected"
		}
		responses = string(raw)
	}

	now := time.Now()
	record := &database.SurveyRecord{
		QuestionnaireUUID: in.QuestionnaireUUID,
		AgentCode:         in.AgentCode,
		Status:            status,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		InterviewDate:     in.InterviewDate,
		SyncedAt:          &now,
		DurationMinutes:   in.DurationMinutes,
		Responses:         responses,
	}

	// Insertion and quota attribution happen in one transaction so a
	// crash never counts a record that was not stored, or vice versa.
	err = h.db.Transaction(ctx, func(txCtx context.Context) error {
		if err := h.db.CreateSurveyRecord(txCtx, record); err != nil {
			return err
		}
		return h.applyQuotas(txCtx, record)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "duplicate"
		}
		h.logger.Error("failed to ingest record",
			zap.String("uuid", in.QuestionnaireUUID),
			zap.Error(err))
		return "rejected"
	}

	h.warnMaxDaily(ctx, record, settings)
	return "inserted"
}

// applyQuotas counts the record against every active quota-carrying
// assignment of the agent's controller. The agent code is a loose link:
// an unknown code stores the record but moves no counters.
func (h *Handler) applyQuotas(ctx context.Context, record *database.SurveyRecord) error {
	if record.AgentCode == "" {
		return nil
	}

	agent, err := h.db.GetUserByFieldCode(ctx, record.AgentCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Debug("record from unknown agent code, skipping quota attribution",
				zap.String("agent_code", record.AgentCode))
			return nil
		}
		return err
	}

	// The agent's direct chef is the controller by the hierarchy rule.
	// A controller syncing their own records counts against themselves.
	controllerID := agent.ID
	if agent.Role == database.RoleAgent {
		if agent.ChefID == nil {
			return nil
		}
		controllerID = *agent.ChefID
	}

	assignments, err := h.db.ListActiveAssignmentsByController(ctx, controllerID)
	if err != nil {
		return err
	}

	for _, a := range assignments {
		if a.Quota == nil {
			continue
		}
		locked, err := h.db.GetAssignmentForUpdate(ctx, a.ID)
		if err != nil {
			return err
		}
		if locked.Quota == nil {
			continue
		}
		n := locked.Quota.Apply(record.Responses)
		if n == 0 {
			continue
		}
		if err := h.db.UpdateAssignment(ctx, locked); err != nil {
			return err
		}
		h.metrics.QuotaUpdated()
		h.metrics.QuotaRuleMatches(n)
	}
	return nil
}

// warnMaxDaily flags an agent who synced more questionnaires in one day
// than the configured ceiling. The record stays; field supervisors follow
// up on the warning, the system never drops data.
func (h *Handler) warnMaxDaily(ctx context.Context, record *database.SurveyRecord, settings *database.GlobalSettings) {
	if !settings.CheckMaxDaily || record.AgentCode == "" || record.InterviewDate == nil {
		return
	}
	count, err := h.db.CountSurveyRecordsByAgentOn(ctx, record.AgentCode, *record.InterviewDate)
	if err != nil {
		return
	}
	if count > int64(settings.MaxSurveysPerDay) {
		h.logger.Warn("agent exceeded the daily survey ceiling",
			zap.String("agent_code", record.AgentCode),
			zap.Int64("count", count),
			zap.Int("max", settings.MaxSurveysPerDay),
			zap.Timep("interview_date", record.InterviewDate))
	}
}
