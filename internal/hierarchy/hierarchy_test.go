package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensurvey/monitor/internal/apiserver/database"
)

func ptr(v uint) *uint { return &v }

func testUsers() []*database.User {
	return []*database.User{
		{ID: 1, Username: "admin", Role: database.RoleDirector},
		{ID: 2, Username: "sup1", Role: database.RoleSupervisor, ChefID: ptr(1)},
		{ID: 3, Username: "ctrl1", Role: database.RoleController, ChefID: ptr(2)},
		{ID: 4, Username: "agent1", Role: database.RoleAgent, ChefID: ptr(3)},
		{ID: 5, Username: "agent2", Role: database.RoleAgent, ChefID: ptr(3)},
		{ID: 6, Username: "sup2", Role: database.RoleSupervisor, ChefID: ptr(1)},
	}
}

func TestSubordinatesTransitive(t *testing.T) {
	tree := NewTree(testUsers())

	subs, err := tree.Subordinates(2)
	require.NoError(t, err)
	assert.Len(t, subs, 3)
	assert.Contains(t, subs, uint(3))
	assert.Contains(t, subs, uint(4))
	assert.Contains(t, subs, uint(5))

	// The user is never part of their own subordinate set
	assert.NotContains(t, subs, uint(2))
}

func TestSubordinatesLeafIsEmpty(t *testing.T) {
	tree := NewTree(testUsers())

	subs, err := tree.Subordinates(4)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSubordinatesOfDirectorCoverEveryone(t *testing.T) {
	tree := NewTree(testUsers())

	subs, err := tree.Subordinates(1)
	require.NoError(t, err)
	assert.Len(t, subs, 5)
}

func TestDirectReports(t *testing.T) {
	tree := NewTree(testUsers())

	assert.Equal(t, 2, tree.DirectReports(1))
	assert.Equal(t, 2, tree.DirectReports(3))
	assert.Equal(t, 0, tree.DirectReports(4))
}

func TestSubordinatesDetectsCycle(t *testing.T) {
	users := []*database.User{
		{ID: 1, Username: "a", Role: database.RoleSupervisor, ChefID: ptr(2)},
		{ID: 2, Username: "b", Role: database.RoleController, ChefID: ptr(1)},
	}
	tree := NewTree(users)

	_, err := tree.Subordinates(1)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestSubordinatesDetectsSelfLoop(t *testing.T) {
	users := []*database.User{
		{ID: 7, Username: "loop", Role: database.RoleController, ChefID: ptr(7)},
	}
	tree := NewTree(users)

	_, err := tree.Subordinates(7)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestValidateChef(t *testing.T) {
	director := &database.User{ID: 1, Role: database.RoleDirector}
	supervisor := &database.User{ID: 2, Role: database.RoleSupervisor}
	controller := &database.User{ID: 3, Role: database.RoleController}

	tests := []struct {
		name string
		role database.UserRole
		chef *database.User
		ok   bool
	}{
		{"agent under controller", database.RoleAgent, controller, true},
		{"agent under supervisor", database.RoleAgent, supervisor, false},
		{"agent without chef", database.RoleAgent, nil, false},
		{"controller under supervisor", database.RoleController, supervisor, true},
		{"controller under director", database.RoleController, director, false},
		{"supervisor under director", database.RoleSupervisor, director, true},
		{"supervisor under supervisor", database.RoleSupervisor, supervisor, false},
		{"director without chef", database.RoleDirector, nil, true},
		{"director with chef", database.RoleDirector, supervisor, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChef(tt.role, tt.chef)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				var invalid *InvalidChefError
				assert.ErrorAs(t, err, &invalid)
			}
		})
	}
}

func TestRequiredChefRole(t *testing.T) {
	role, ok := RequiredChefRole(database.RoleAgent)
	assert.True(t, ok)
	assert.Equal(t, database.RoleController, role)

	_, ok = RequiredChefRole(database.RoleDirector)
	assert.False(t, ok)
}
