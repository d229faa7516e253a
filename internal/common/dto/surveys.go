package dto

import "time"

// SurveyRecordIn is one questionnaire pushed by the synchronization script
type SurveyRecordIn struct {
	QuestionnaireUUID string         `json:"questionnaire_uuid" binding:"required"`
	AgentCode         string         `json:"agent_code" binding:"required"`
	Status            string         `json:"status" binding:"omitempty,oneof=complete partial refused"`
	Latitude          *float64       `json:"latitude"`
	Longitude         *float64       `json:"longitude"`
	InterviewDate     *time.Time     `json:"interview_date"`
	DurationMinutes   *int           `json:"duration_minutes"`
	Responses         map[string]any `json:"responses"`
}

// SyncRequest is a batch of records from one tablet synchronization
type SyncRequest struct {
	Records []SurveyRecordIn `json:"records" binding:"required"`
}

// SyncResponse summarizes what the ingestion did with the batch
type SyncResponse struct {
	Received   int `json:"received"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// AssignmentStats reports progress of one mission for the dashboard
type AssignmentStats struct {
	AssignmentID uint   `json:"assignment_id"`
	ZoneName     string `json:"zone_name"`
	Collected    int64  `json:"collected"`
	Expected     int    `json:"expected"`
	QuotaMet     bool   `json:"quota_met"`
}
