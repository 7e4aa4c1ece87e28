package dto

import (
	"time"

	"github.com/spec-kit/case-service/internal/domain"
)

// SubmitApplicationRequest payload.
type SubmitApplicationRequest struct {
	Department    string                     `json:"department"`
	SubDepartment *string                    `json:"sub_department"`
	Title         string                     `json:"title"`
	Description   string                     `json:"description"`
	Priority      domain.ApplicationPriority `json:"priority"`
}

// ApplicationSummary response.
type ApplicationSummary struct {
	ID              string                     `json:"id"`
	TrackingID      string                     `json:"tracking_id"`
	Department      string                     `json:"department"`
	SubDepartment   *string                    `json:"sub_department"`
	Title           string                     `json:"title"`
	Status          domain.ApplicationStatus   `json:"status"`
	Priority        domain.ApplicationPriority `json:"priority"`
	EscalationLevel int                        `json:"escalation_level"`
	OfficerID       *string                    `json:"officer_id"`
	SubmittedAt     time.Time                  `json:"submitted_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
	SLADueAt        time.Time                  `json:"sla_due_at"`
}

// ApplicationDetailResponse provides full application info.
type ApplicationDetailResponse struct {
	ID                   string                     `json:"id"`
	TrackingID           string                     `json:"tracking_id"`
	CitizenID            string                     `json:"citizen_id"`
	Department           string                     `json:"department"`
	SubDepartment        *string                    `json:"sub_department"`
	Title                string                     `json:"title"`
	Description          string                     `json:"description"`
	Status               domain.ApplicationStatus   `json:"status"`
	Priority             domain.ApplicationPriority `json:"priority"`
	EscalationLevel      int                        `json:"escalation_level"`
	OfficerID            *string                    `json:"officer_id"`
	IsSolved             bool                       `json:"is_solved"`
	FinalizationArtifact *string                    `json:"finalization_artifact,omitempty"`
	SubmittedAt          time.Time                  `json:"submitted_at"`
	UpdatedAt            time.Time                  `json:"updated_at"`
	AssignedAt           *time.Time                 `json:"assigned_at"`
	ApprovedAt           *time.Time                 `json:"approved_at"`
	SLADueAt             time.Time                  `json:"sla_due_at"`
	AutoApprovalDeadline time.Time                  `json:"auto_approval_deadline"`
}

// TransitionRequest moves an application to a new status.
type TransitionRequest struct {
	Status  domain.ApplicationStatus `json:"status"`
	Comment string                   `json:"comment"`
}

// AssignRequest manually routes an application to an officer.
type AssignRequest struct {
	OfficerID string `json:"officer_id"`
}

// SolvedRequest flags whether the citizen considers the matter resolved.
type SolvedRequest struct {
	Solved bool `json:"solved"`
}

// ApplicationHistoryResponse is one audit trail entry.
type ApplicationHistoryResponse struct {
	ID            string                       `json:"id"`
	ChangeType    domain.ApplicationChangeType `json:"change_type"`
	ChangedByType domain.ActorType             `json:"changed_by_type"`
	ChangedByID   *string                      `json:"changed_by_id"`
	OldValue      map[string]any               `json:"old_value"`
	NewValue      map[string]any               `json:"new_value"`
	Comment       string                       `json:"comment"`
	CreatedAt     time.Time                    `json:"created_at"`
}
