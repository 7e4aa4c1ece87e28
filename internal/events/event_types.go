package events

import (
	"time"

	"github.com/spec-kit/case-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventApplicationSubmitted EventType = "application_submitted"
	EventApplicationAssigned  EventType = "application_assigned"
	EventStatusChanged        EventType = "application_status_changed"
	EventApplicationEscalated EventType = "application_escalated"
	EventApplicationFinalized EventType = "application_finalized"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type      domain.ActorType `json:"type"`
	CitizenID *string          `json:"citizen_id,omitempty"`
	OfficerID *string          `json:"officer_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	ApplicationID string      `json:"application_id"`
	Actor         Actor       `json:"actor"`
	Timestamp     time.Time   `json:"timestamp"`
	Payload       interface{} `json:"payload"`
}

// ApplicationSubmittedPayload payload.
type ApplicationSubmittedPayload struct {
	TrackingID    string                     `json:"tracking_id"`
	CitizenID     string                     `json:"citizen_id"`
	Department    string                     `json:"department"`
	SubDepartment *string                    `json:"sub_department,omitempty"`
	Priority      domain.ApplicationPriority `json:"priority"`
	Title         string                     `json:"title"`
}

// ApplicationAssignedPayload payload.
type ApplicationAssignedPayload struct {
	OfficerID  string `json:"officer_id"`
	CitizenID  string `json:"citizen_id"`
	TrackingID string `json:"tracking_id"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.ApplicationStatus `json:"old_status"`
	NewStatus domain.ApplicationStatus `json:"new_status"`
	CitizenID string                   `json:"citizen_id"`
	Comment   string                   `json:"comment,omitempty"`
}

// ApplicationEscalatedPayload payload.
type ApplicationEscalatedPayload struct {
	OldLevel     int     `json:"old_level"`
	NewLevel     int     `json:"new_level"`
	OldOfficerID *string `json:"old_officer_id,omitempty"`
	NewOfficerID *string `json:"new_officer_id,omitempty"`
	FlaggedOnly  bool    `json:"flagged_only"`
}

// ApplicationFinalizedPayload payload.
type ApplicationFinalizedPayload struct {
	Status     domain.ApplicationStatus `json:"status"`
	CitizenID  string                   `json:"citizen_id"`
	TrackingID string                   `json:"tracking_id"`
	ArtifactID *string                  `json:"artifact_id,omitempty"`
}
