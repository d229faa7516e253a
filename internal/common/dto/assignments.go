package dto

import (
	"time"

	"github.com/opensurvey/monitor/internal/quota"
)

// CreateAssignmentRequest is the director's mission order: a controller, a
// zone, an objective and an optional quota configuration.
type CreateAssignmentRequest struct {
	ControllerID  uint          `json:"controller_id" binding:"required"`
	ZoneID        uint          `json:"zone_id" binding:"required"`
	ExpectedQuota int           `json:"expected_quota"`
	StartDate     *time.Time    `json:"start_date"`
	EndDate       *time.Time    `json:"end_date"`
	Quota         *quota.Config `json:"quota"`
}

// UpdateAssignmentRequest modifies a running mission: extend it, close it,
// or replace the quota configuration.
type UpdateAssignmentRequest struct {
	EndDate  *time.Time    `json:"end_date"`
	IsActive *bool         `json:"is_active"`
	Quota    *quota.Config `json:"quota"`
}

// AssignmentOut enriches an assignment with display names and the quota
// satisfaction flag for the dashboard.
type AssignmentOut struct {
	ID             uint          `json:"id"`
	ControllerID   uint          `json:"controller_id"`
	ControllerName string        `json:"controller_name,omitempty"`
	ZoneID         uint          `json:"zone_id"`
	ZoneName       string        `json:"zone_name,omitempty"`
	ExpectedQuota  int           `json:"expected_quota"`
	StartDate      *time.Time    `json:"start_date"`
	EndDate        *time.Time    `json:"end_date"`
	IsActive       bool          `json:"is_active"`
	Quota          *quota.Config `json:"quota,omitempty"`
	QuotaMet       bool          `json:"quota_met"`
}
