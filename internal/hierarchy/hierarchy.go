// Package hierarchy resolves the organizational tree formed by the chef
// self-reference on users: transitive subordinate sets, direct-report
// counts, and the role-ordering rule enforced at creation time.
package hierarchy

import (
	"errors"
	"fmt"

	"github.com/opensurvey/monitor/internal/apiserver/database"
)

// ErrCorruption is returned when the chef chain contains a cycle. Creation
// time validation should make this impossible, but traversal guards against
// it instead of looping forever.
var ErrCorruption = errors.New("hierarchy corruption: chef chain contains a cycle")

// InvalidChefError reports a chef whose role does not sit exactly one level
// above the proposed role.
type InvalidChefError struct {
	Role     database.UserRole
	Expected database.UserRole
}

func (e *InvalidChefError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("a %s cannot have a chef", e.Role)
	}
	return fmt.Sprintf("a %s must report to a %s", e.Role, e.Expected)
}

// Tree is an in-memory arena of users indexed for subordinate lookups.
// It is built once per request from rows already loaded, so traversal never
// touches the storage engine.
type Tree struct {
	users    map[uint]*database.User
	children map[uint][]uint
}

// NewTree indexes the given users by ID and by chef reference
func NewTree(users []*database.User) *Tree {
	t := &Tree{
		users:    make(map[uint]*database.User, len(users)),
		children: make(map[uint][]uint),
	}
	for _, u := range users {
		t.users[u.ID] = u
	}
	for _, u := range users {
		if u.ChefID != nil {
			t.children[*u.ChefID] = append(t.children[*u.ChefID], u.ID)
		}
	}
	return t
}

// User returns the user with the given ID, or nil
func (t *Tree) User(id uint) *database.User {
	return t.users[id]
}

// DirectReports returns the number of users whose chef is the given user
func (t *Tree) DirectReports(id uint) int {
	return len(t.children[id])
}

// Subordinates returns the transitive set of subordinates of the given
// user, keyed by ID. The user itself is never part of the result. The
// traversal keeps a visited set and fails with ErrCorruption if the chef
// chain loops.
func (t *Tree) Subordinates(id uint) (map[uint]*database.User, error) {
	result := make(map[uint]*database.User)
	visited := map[uint]bool{id: true}

	queue := append([]uint(nil), t.children[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		if visited[next] {
			return nil, ErrCorruption
		}
		visited[next] = true

		if u := t.users[next]; u != nil {
			result[next] = u
		}
		queue = append(queue, t.children[next]...)
	}
	return result, nil
}

// RequiredChefRole returns the role a chef must hold for a user of the
// given role. ok is false for the director, who has no chef.
func RequiredChefRole(role database.UserRole) (database.UserRole, bool) {
	switch role {
	case database.RoleAgent:
		return database.RoleController, true
	case database.RoleController:
		return database.RoleSupervisor, true
	case database.RoleSupervisor:
		return database.RoleDirector, true
	default:
		return "", false
	}
}

// ValidateChef enforces the role-ordering rule at creation time: the chef
// must hold the role exactly one level above the proposed role, and only
// the director may have no chef.
func ValidateChef(role database.UserRole, chef *database.User) error {
	expected, needsChef := RequiredChefRole(role)
	if !needsChef {
		if chef != nil {
			return &InvalidChefError{Role: role, Expected: ""}
		}
		return nil
	}
	if chef == nil || chef.Role != expected {
		return &InvalidChefError{Role: role, Expected: expected}
	}
	return nil
}
