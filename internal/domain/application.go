package domain

import "time"

// ApplicationStatus enumerates lifecycle states for service applications.
type ApplicationStatus string

const (
	ApplicationStatusSubmitted    ApplicationStatus = "SUBMITTED"
	ApplicationStatusAssigned     ApplicationStatus = "ASSIGNED"
	ApplicationStatusInProgress   ApplicationStatus = "IN_PROGRESS"
	ApplicationStatusEscalated    ApplicationStatus = "ESCALATED"
	ApplicationStatusApproved     ApplicationStatus = "APPROVED"
	ApplicationStatusRejected     ApplicationStatus = "REJECTED"
	ApplicationStatusAutoApproved ApplicationStatus = "AUTO_APPROVED"
)

// IsTerminal reports whether the status is absorbing: once reached, the
// record is closed and no scheduler or caller may mutate it.
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case ApplicationStatusApproved, ApplicationStatusRejected, ApplicationStatusAutoApproved:
		return true
	}
	return false
}

// IsValidStatus reports whether the value names a known status.
func IsValidStatus(s ApplicationStatus) bool {
	switch s {
	case ApplicationStatusSubmitted, ApplicationStatusAssigned, ApplicationStatusInProgress,
		ApplicationStatusEscalated, ApplicationStatusApproved, ApplicationStatusRejected,
		ApplicationStatusAutoApproved:
		return true
	}
	return false
}

// ApplicationPriority drives the SLA deadline.
type ApplicationPriority string

const (
	ApplicationPriorityHigh   ApplicationPriority = "HIGH"
	ApplicationPriorityMedium ApplicationPriority = "MEDIUM"
	ApplicationPriorityLow    ApplicationPriority = "LOW"
)

// IsValidPriority reports whether the value names a known priority.
func IsValidPriority(p ApplicationPriority) bool {
	switch p {
	case ApplicationPriorityHigh, ApplicationPriorityMedium, ApplicationPriorityLow:
		return true
	}
	return false
}

// Application is the aggregate for citizen service requests.
type Application struct {
	ID                   string
	TrackingID           string
	CitizenID            string
	Department           string
	SubDepartment        *string
	Title                string
	Description          string
	Status               ApplicationStatus
	Priority             ApplicationPriority
	EscalationLevel      int
	OfficerID            *string
	IsSolved             bool
	FinalizationArtifact *string
	SubmittedAt          time.Time
	UpdatedAt            time.Time
	AssignedAt           *time.Time
	ApprovedAt           *time.Time
	SLADueAt             time.Time
	AutoApprovalDeadline time.Time
}
