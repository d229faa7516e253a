package database

import (
	"context"
	"time"
)

// Database defines the persistence operations of the apiserver.
//
// Implementations must enforce uniqueness on usernames, field codes,
// variable names and questionnaire UUIDs, and must serialize concurrent
// quota counter updates (see GetAssignmentForUpdate).
type Database interface {
	// Close closes the database connection.
	Close() error

	// Transaction runs fn inside a transaction; the transactional handle
	// travels in the context and is picked up by every other method.
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uint) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByFieldCode(ctx context.Context, code string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id uint) error
	ListUsers(ctx context.Context) ([]*User, error)
	// CountDirectReports counts users whose chef is the given user,
	// by direct reference, not transitively.
	CountDirectReports(ctx context.Context, id uint) (int64, error)

	// Zones
	CreateZone(ctx context.Context, zone *Zone) error
	GetZoneByID(ctx context.Context, id uint) (*Zone, error)
	ListZones(ctx context.Context, offset, limit int) ([]*Zone, error)
	DeleteZone(ctx context.Context, id uint) error

	// Assignments
	CreateAssignment(ctx context.Context, a *Assignment) error
	GetAssignmentByID(ctx context.Context, id uint) (*Assignment, error)
	// GetAssignmentForUpdate loads an assignment with a row lock so quota
	// counter increments are serialized. Must be called inside Transaction.
	GetAssignmentForUpdate(ctx context.Context, id uint) (*Assignment, error)
	UpdateAssignment(ctx context.Context, a *Assignment) error
	ListAssignments(ctx context.Context) ([]*Assignment, error)
	ListAssignmentsByController(ctx context.Context, controllerID uint) ([]*Assignment, error)
	ListActiveAssignmentsByController(ctx context.Context, controllerID uint) ([]*Assignment, error)

	// Dictionary
	CreateVariable(ctx context.Context, v *Variable) error
	GetVariableByID(ctx context.Context, id uint) (*Variable, error)
	GetVariableByName(ctx context.Context, name string) (*Variable, error)
	ListVariables(ctx context.Context, quotaOnly bool) ([]*Variable, error)
	DeleteVariable(ctx context.Context, id uint) error

	// Settings
	// GetSettings returns the singleton row, creating it on first read.
	GetSettings(ctx context.Context) (*GlobalSettings, error)
	UpdateSettings(ctx context.Context, s *GlobalSettings) error

	// Survey records
	CreateSurveyRecord(ctx context.Context, r *SurveyRecord) error
	SurveyRecordExists(ctx context.Context, questionnaireUUID string) (bool, error)
	CountSurveyRecordsByAgentOn(ctx context.Context, agentCode string, day time.Time) (int64, error)
	CountSurveyRecordsByAgents(ctx context.Context, agentCodes []string) (int64, error)
}
