// Package notifier broadcasts configuration changes to the mobile
// synchronization clients: when the director edits the global settings or
// an assignment, connected collaborators are told to refresh.
package notifier

import "context"

// Event is one broadcast message
type Event struct {
	// Type is "settings" or "assignment"
	Type string `json:"type"`
	// AssignmentID is set for assignment events
	AssignmentID uint `json:"assignment_id,omitempty"`
}

// Notifier publishes update events
type Notifier interface {
	// PublishSettingsUpdated signals that the global settings changed
	PublishSettingsUpdated(ctx context.Context) error

	// PublishAssignmentUpdated signals that one assignment changed
	PublishAssignmentUpdated(ctx context.Context, assignmentID uint) error

	// Close releases the underlying connection
	Close() error
}

// Noop discards every event; used when broadcasting is disabled
type Noop struct{}

func (Noop) PublishSettingsUpdated(context.Context) error         { return nil }
func (Noop) PublishAssignmentUpdated(context.Context, uint) error { return nil }
func (Noop) Close() error                                         { return nil }
