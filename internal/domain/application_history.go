package domain

import "time"

// ApplicationChangeType captures what changed in a history entry.
type ApplicationChangeType string

const (
	ChangeTypeStatus     ApplicationChangeType = "STATUS_CHANGE"
	ChangeTypeAssignment ApplicationChangeType = "ASSIGNMENT"
	ChangeTypeEscalation ApplicationChangeType = "ESCALATION"
	ChangeTypePriority   ApplicationChangeType = "PRIORITY_CHANGE"
	ChangeTypeSolvedFlag ApplicationChangeType = "SOLVED_FLAG"
)

// ApplicationHistory is an immutable audit trail entry. Entries are append
// only and retained for the life of the application.
type ApplicationHistory struct {
	ID            string
	ApplicationID string
	ChangedByType ActorType
	ChangedByID   *string
	ChangeType    ApplicationChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	Comment       string
	CreatedAt     time.Time
}
