// Package scope decides, for an authenticated requester, which users and
// assignments are visible and which mutations are allowed. The rules are
// role plus hierarchy membership; the director bypasses every check.
package scope

import (
	"fmt"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/hierarchy"
)

// NotEmptyError blocks the deletion of a user who still has direct
// reports, naming the size of the blocking team.
type NotEmptyError struct {
	Count int
}

func (e *NotEmptyError) Error() string {
	return fmt.Sprintf("user still has %d direct report(s)", e.Count)
}

// Evaluator answers visibility and mutation questions for one requester.
// The subordinate set is resolved once at construction; the director skips
// resolution entirely since every check short-circuits on the role.
type Evaluator struct {
	requester    *database.User
	subordinates map[uint]*database.User
}

// NewEvaluator builds an evaluator for the requester against the loaded
// tree. Resolution fails only on a corrupted hierarchy.
func NewEvaluator(requester *database.User, tree *hierarchy.Tree) (*Evaluator, error) {
	e := &Evaluator{requester: requester}
	if requester.Role != database.RoleDirector {
		subs, err := tree.Subordinates(requester.ID)
		if err != nil {
			return nil, err
		}
		e.subordinates = subs
	}
	return e, nil
}

// IsDirector reports whether the requester holds the top role
func (e *Evaluator) IsDirector() bool {
	return e.requester.Role == database.RoleDirector
}

// CanViewUser allows the director everywhere; anyone else sees exactly
// themselves plus their transitive subordinates.
func (e *Evaluator) CanViewUser(target *database.User) bool {
	return e.CanViewUserID(target.ID)
}

// CanViewUserID is CanViewUser by bare ID, for rows that carry only a
// user reference.
func (e *Evaluator) CanViewUserID(id uint) bool {
	if e.IsDirector() {
		return true
	}
	if id == e.requester.ID {
		return true
	}
	_, ok := e.subordinates[id]
	return ok
}

// CanMutateUser restricts credential and name changes to the direct chef.
// Delegation does not cascade: a transitive superior cannot touch the
// account, only the director may.
func (e *Evaluator) CanMutateUser(target *database.User) bool {
	if e.IsDirector() {
		return true
	}
	return target.ChefID != nil && *target.ChefID == e.requester.ID
}

// CanViewAssignment lets a controller see their own missions and a
// superior see the missions of any subordinate controller.
func (e *Evaluator) CanViewAssignment(a *database.Assignment) bool {
	return e.CanViewUserID(a.ControllerID)
}

// CanManageAssignments gates assignment creation, update and closing
func (e *Evaluator) CanManageAssignments() bool {
	return e.IsDirector()
}

// CanManageZones gates zone creation and deletion
func (e *Evaluator) CanManageZones() bool {
	return e.IsDirector()
}

// CanManageDictionary gates variable and modality mutation; reading the
// dictionary is open to every authenticated role.
func (e *Evaluator) CanManageDictionary() bool {
	return e.IsDirector()
}

// CanManageSettings gates global settings mutation
func (e *Evaluator) CanManageSettings() bool {
	return e.IsDirector()
}

// CanDeleteUser allows deletion by the director only, and only of a leaf:
// a user with direct reports would orphan a subtree, so the deletion is
// refused with the blocking count.
func (e *Evaluator) CanDeleteUser(tree *hierarchy.Tree, target *database.User) error {
	if !e.IsDirector() {
		return errForbidden
	}
	if n := tree.DirectReports(target.ID); n > 0 {
		return &NotEmptyError{Count: n}
	}
	return nil
}

type forbiddenError struct{}

func (forbiddenError) Error() string { return "access denied" }

// errForbidden is the generic denial; the boundary maps it to a 403 that
// never leaks whether the target exists.
var errForbidden = forbiddenError{}

// IsForbidden reports whether err is the generic access denial
func IsForbidden(err error) bool {
	_, ok := err.(forbiddenError)
	return ok
}
