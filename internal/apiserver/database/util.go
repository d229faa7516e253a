package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// EnsureDirector creates the director account if it does not exist yet.
// It is idempotent so the seed can run on every start.
func EnsureDirector(ctx context.Context, db Database, username, passwordHash string) (bool, error) {
	_, err := db.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	director := &User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         RoleDirector,
		// A director does not collect data, so no field code and no chef
	}
	if err := db.CreateUser(ctx, director); err != nil {
		return false, err
	}
	return true, nil
}
