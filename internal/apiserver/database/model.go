package database

import (
	"strings"
	"time"

	"github.com/opensurvey/monitor/internal/quota"
)

// UserRole represents the position of a user in the survey hierarchy
type UserRole string

const (
	RoleDirector   UserRole = "director"
	RoleSupervisor UserRole = "supervisor"
	RoleController UserRole = "controller"
	RoleAgent      UserRole = "agent"
)

// Valid reports whether the role is one of the four known roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleDirector, RoleSupervisor, RoleController, RoleAgent:
		return true
	}
	return false
}

// User is an actor of the system. The hierarchy is an adjacency list: every
// non-director user points to its direct superior through ChefID.
type User struct {
	ID           uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string   `json:"username" gorm:"type:varchar(50);uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"not null"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'agent'"`

	// FieldCode links the account to tablet-collected records (e.g. "AG045").
	// Nil for roles that do not collect data themselves.
	FieldCode *string `json:"field_code" gorm:"type:varchar(20);uniqueIndex"`

	// ChefID is the direct superior; nil only for the director.
	ChefID *uint `json:"chef_id" gorm:"index"`
	Chef   *User `json:"-" gorm:"foreignKey:ChefID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Zone is a geographic survey area, identified by its centroid and a
// tolerance radius since village boundaries are never surveyed precisely.
type Zone struct {
	ID               uint    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name             string  `json:"name" gorm:"type:varchar(255);index;not null"`
	CenterLatitude   float64 `json:"center_latitude" gorm:"not null"`
	CenterLongitude  float64 `json:"center_longitude" gorm:"not null"`
	ToleranceRadiusM int     `json:"tolerance_radius_m" gorm:"default:500"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Assignment binds a controller to a zone for a time window, carrying the
// quota objectives fixed by the director. A zone may be assigned to several
// teams concurrently or over time.
type Assignment struct {
	ID           uint  `json:"id" gorm:"primaryKey;autoIncrement"`
	ControllerID uint  `json:"controller_id" gorm:"index;not null"`
	Controller   *User `json:"-" gorm:"foreignKey:ControllerID"`
	ZoneID       uint  `json:"zone_id" gorm:"index;not null"`
	Zone         *Zone `json:"-" gorm:"foreignKey:ZoneID"`

	ExpectedQuota int        `json:"expected_quota" gorm:"default:0"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`

	// IsActive closes an assignment (mission over) without deleting it
	IsActive bool `json:"is_active" gorm:"default:true"`

	// Quota holds the optional per-modality objectives as a JSON document
	Quota *quota.Config `json:"quota" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VariableType represents the question types found in the survey instrument
type VariableType string

const (
	TypeSelectOne  VariableType = "SelectOne"
	TypeSelectMany VariableType = "SelectMany"
	TypeInteger    VariableType = "Integer"
	TypeText       VariableType = "Text"
)

// Variable is one entry of the survey dictionary, keyed by the instrument
// name (e.g. "Q01_SEXE") which is the join key with synced records.
type Variable struct {
	ID    uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	Name  string       `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Label string       `json:"label" gorm:"type:varchar(255);not null"`
	Type  VariableType `json:"type" gorm:"type:varchar(20);default:'SelectOne'"`

	// IsQuota marks the variable as usable in quota conditions
	IsQuota bool `json:"is_quota" gorm:"default:false"`

	Modalities []Modality `json:"modalities" gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Modality is a coded response option of a variable, e.g. code "1",
// label "Masculin". Codes come from the instrument as strings.
type Modality struct {
	ID         uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	VariableID uint   `json:"variable_id" gorm:"index;not null"`
	Code       string `json:"code" gorm:"type:varchar(20);not null"`
	Label      string `json:"label" gorm:"type:varchar(255);not null"`
}

// GlobalSettings is the single configuration row (ID is always 1) holding
// the data-quality rules the director imposes on field work.
type GlobalSettings struct {
	ID uint `json:"id" gorm:"primaryKey"`

	CheckGPS           bool `json:"check_gps" gorm:"default:true"`
	GPSToleranceMeters int  `json:"gps_tolerance_meters" gorm:"default:500"`

	CheckDuration      bool `json:"check_duration" gorm:"default:true"`
	MinDurationMinutes int  `json:"min_duration_minutes" gorm:"default:10"`

	CheckWorkHours bool    `json:"check_work_hours" gorm:"default:false"`
	WorkStartTime  *string `json:"work_start_time" gorm:"type:varchar(5)"` // "07:00"
	WorkEndTime    *string `json:"work_end_time" gorm:"type:varchar(5)"`   // "18:00"

	CheckForbiddenDays bool `json:"check_forbidden_days" gorm:"default:false"`
	// ForbiddenDays is persisted as a comma-joined string; the API exposes it
	// as a list.
	ForbiddenDays string `json:"-" gorm:"default:'Sunday'"`

	CheckMaxDaily    bool `json:"check_max_daily" gorm:"default:true"`
	MaxSurveysPerDay int  `json:"max_surveys_per_day" gorm:"default:20"`

	// Announcement is shown on every dashboard, for urgent notices
	Announcement *string `json:"announcement" gorm:"type:text"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ForbiddenDayList splits the persisted day string into a list
func (s *GlobalSettings) ForbiddenDayList() []string {
	if s.ForbiddenDays == "" {
		return []string{}
	}
	return strings.Split(s.ForbiddenDays, ",")
}

// SetForbiddenDayList joins a day list into the persisted form
func (s *GlobalSettings) SetForbiddenDayList(days []string) {
	s.ForbiddenDays = strings.Join(days, ",")
}

// SurveyStatus represents the completion state reported by the tablet
type SurveyStatus string

const (
	StatusComplete SurveyStatus = "complete"
	StatusPartial  SurveyStatus = "partial"
	StatusRefused  SurveyStatus = "refused"
)

// SurveyRecord is one synchronized questionnaire. Rows are written by the
// ingestion path only; the questionnaire UUID makes re-syncs idempotent.
type SurveyRecord struct {
	ID                uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	QuestionnaireUUID string `json:"questionnaire_uuid" gorm:"type:varchar(36);uniqueIndex;not null"`

	// AgentCode is a loose string link to User.FieldCode so a sync never
	// fails because the matching account does not exist yet.
	AgentCode string `json:"agent_code" gorm:"type:varchar(20);index"`

	Status SurveyStatus `json:"status" gorm:"type:varchar(10);default:'partial'"`

	// Where the interview actually took place
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	InterviewDate   *time.Time `json:"interview_date"`
	SyncedAt        *time.Time `json:"synced_at"`
	DurationMinutes *int       `json:"duration_minutes"`

	// Responses is the raw coded-response document, keyed by variable name
	Responses string `json:"responses" gorm:"type:text"`
}
