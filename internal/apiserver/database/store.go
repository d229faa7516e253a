package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// store implements Database on top of a gorm connection. The SQL dialect
// differences live entirely in the driver constructors.
type store struct {
	db *gorm.DB
}

func newStore(gormDB *gorm.DB) (Database, error) {
	if err := gormDB.AutoMigrate(
		&User{},
		&Zone{},
		&Assignment{},
		&Variable{},
		&Modality{},
		&GlobalSettings{},
		&SurveyRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &store{db: gormDB}, nil
}

// Close closes the database connection
func (s *store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction runs fn inside a transaction carried by the context
func (s *store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ContextWithTransaction(ctx, tx))
	})
}

// CreateUser creates a new user
func (s *store) CreateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, s.db).Create(user).Error
}

// GetUserByID retrieves a user by ID
func (s *store) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := getDBFromContext(ctx, s.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (s *store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := getDBFromContext(ctx, s.db).First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByFieldCode retrieves a user by its field code
func (s *store) GetUserByFieldCode(ctx context.Context, code string) (*User, error) {
	var user User
	if err := getDBFromContext(ctx, s.db).First(&user, "field_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser updates an existing user
func (s *store) UpdateUser(ctx context.Context, user *User) error {
	return getDBFromContext(ctx, s.db).Save(user).Error
}

// DeleteUser deletes a user by ID
func (s *store) DeleteUser(ctx context.Context, id uint) error {
	return getDBFromContext(ctx, s.db).Delete(&User{}, "id = ?", id).Error
}

// ListUsers retrieves all users
func (s *store) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	err := getDBFromContext(ctx, s.db).Order("id asc").Find(&users).Error
	return users, err
}

// CountDirectReports counts users whose chef_id references the given user
func (s *store) CountDirectReports(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).
		Model(&User{}).
		Where("chef_id = ?", id).
		Count(&count).Error
	return count, err
}

// CreateZone creates a new zone
func (s *store) CreateZone(ctx context.Context, zone *Zone) error {
	return getDBFromContext(ctx, s.db).Create(zone).Error
}

// GetZoneByID retrieves a zone by ID
func (s *store) GetZoneByID(ctx context.Context, id uint) (*Zone, error) {
	var zone Zone
	if err := getDBFromContext(ctx, s.db).First(&zone, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &zone, nil
}

// ListZones retrieves zones with pagination
func (s *store) ListZones(ctx context.Context, offset, limit int) ([]*Zone, error) {
	var zones []*Zone
	err := getDBFromContext(ctx, s.db).
		Order("id asc").
		Offset(offset).
		Limit(limit).
		Find(&zones).Error
	return zones, err
}

// DeleteZone deletes a zone by ID
func (s *store) DeleteZone(ctx context.Context, id uint) error {
	return getDBFromContext(ctx, s.db).Delete(&Zone{}, "id = ?", id).Error
}

// CreateAssignment creates a new assignment
func (s *store) CreateAssignment(ctx context.Context, a *Assignment) error {
	return getDBFromContext(ctx, s.db).Create(a).Error
}

// GetAssignmentByID retrieves an assignment with its zone and controller
func (s *store) GetAssignmentByID(ctx context.Context, id uint) (*Assignment, error) {
	var a Assignment
	err := getDBFromContext(ctx, s.db).
		Preload("Zone").
		Preload("Controller").
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAssignmentForUpdate loads an assignment under a row lock so concurrent
// quota increments cannot lose updates. Must run inside Transaction.
func (s *store) GetAssignmentForUpdate(ctx context.Context, id uint) (*Assignment, error) {
	var a Assignment
	err := getDBFromContext(ctx, s.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAssignment updates an existing assignment
func (s *store) UpdateAssignment(ctx context.Context, a *Assignment) error {
	return getDBFromContext(ctx, s.db).Save(a).Error
}

// ListAssignments retrieves all assignments with their zone and controller
func (s *store) ListAssignments(ctx context.Context) ([]*Assignment, error) {
	var assignments []*Assignment
	err := getDBFromContext(ctx, s.db).
		Preload("Zone").
		Preload("Controller").
		Order("id asc").
		Find(&assignments).Error
	return assignments, err
}

// ListAssignmentsByController retrieves the assignments of one controller
func (s *store) ListAssignmentsByController(ctx context.Context, controllerID uint) ([]*Assignment, error) {
	var assignments []*Assignment
	err := getDBFromContext(ctx, s.db).
		Preload("Zone").
		Preload("Controller").
		Where("controller_id = ?", controllerID).
		Order("id asc").
		Find(&assignments).Error
	return assignments, err
}

// ListActiveAssignmentsByController retrieves the open assignments of one controller
func (s *store) ListActiveAssignmentsByController(ctx context.Context, controllerID uint) ([]*Assignment, error) {
	var assignments []*Assignment
	err := getDBFromContext(ctx, s.db).
		Where("controller_id = ? AND is_active = ?", controllerID, true).
		Order("id asc").
		Find(&assignments).Error
	return assignments, err
}

// CreateVariable creates a variable together with its modalities
func (s *store) CreateVariable(ctx context.Context, v *Variable) error {
	return getDBFromContext(ctx, s.db).Create(v).Error
}

// GetVariableByID retrieves a variable with its modalities
func (s *store) GetVariableByID(ctx context.Context, id uint) (*Variable, error) {
	var v Variable
	err := getDBFromContext(ctx, s.db).
		Preload("Modalities").
		First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVariableByName retrieves a variable by its instrument name
func (s *store) GetVariableByName(ctx context.Context, name string) (*Variable, error) {
	var v Variable
	err := getDBFromContext(ctx, s.db).
		Preload("Modalities").
		First(&v, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListVariables retrieves the dictionary, optionally only quota variables
func (s *store) ListVariables(ctx context.Context, quotaOnly bool) ([]*Variable, error) {
	var vars []*Variable
	q := getDBFromContext(ctx, s.db).Preload("Modalities").Order("id asc")
	if quotaOnly {
		q = q.Where("is_quota = ?", true)
	}
	err := q.Find(&vars).Error
	return vars, err
}

// DeleteVariable deletes a variable and its modalities
func (s *store) DeleteVariable(ctx context.Context, id uint) error {
	db := getDBFromContext(ctx, s.db)
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Modality{}, "variable_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Variable{}, "id = ?", id).Error
	})
}

// GetSettings returns the singleton settings row, creating it on first read
func (s *store) GetSettings(ctx context.Context) (*GlobalSettings, error) {
	db := getDBFromContext(ctx, s.db)
	var settings GlobalSettings
	err := db.First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	settings = GlobalSettings{ID: 1}
	if err := db.Create(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings persists the singleton settings row
func (s *store) UpdateSettings(ctx context.Context, settings *GlobalSettings) error {
	settings.ID = 1
	return getDBFromContext(ctx, s.db).Save(settings).Error
}

// CreateSurveyRecord inserts a synced record
func (s *store) CreateSurveyRecord(ctx context.Context, r *SurveyRecord) error {
	return getDBFromContext(ctx, s.db).Create(r).Error
}

// SurveyRecordExists checks whether a questionnaire was already synced
func (s *store) SurveyRecordExists(ctx context.Context, questionnaireUUID string) (bool, error) {
	var count int64
	err := getDBFromContext(ctx, s.db).
		Model(&SurveyRecord{}).
		Where("questionnaire_uuid = ?", questionnaireUUID).
		Count(&count).Error
	return count > 0, err
}

// CountSurveyRecordsByAgentOn counts records an agent submitted on a given day
func (s *store) CountSurveyRecordsByAgentOn(ctx context.Context, agentCode string, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	var count int64
	err := getDBFromContext(ctx, s.db).
		Model(&SurveyRecord{}).
		Where("agent_code = ? AND interview_date >= ? AND interview_date < ?", agentCode, start, end).
		Count(&count).Error
	return count, err
}

// CountSurveyRecordsByAgents counts records submitted by any of the given agents
func (s *store) CountSurveyRecordsByAgents(ctx context.Context, agentCodes []string) (int64, error) {
	if len(agentCodes) == 0 {
		return 0, nil
	}
	var count int64
	err := getDBFromContext(ctx, s.db).
		Model(&SurveyRecord{}).
		Where("agent_code IN ?", agentCodes).
		Count(&count).Error
	return count, err
}
