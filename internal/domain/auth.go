package domain

import "time"

// SubjectType differentiates citizen vs officer tokens.
type SubjectType string

const (
	SubjectTypeCitizen SubjectType = "CITIZEN"
	SubjectTypeOfficer SubjectType = "OFFICER"
)

// ActorType identifies who performed a mutation in the audit trail.
type ActorType string

const (
	ActorTypeCitizen ActorType = "CITIZEN"
	ActorTypeOfficer ActorType = "OFFICER"
	ActorTypeSystem  ActorType = "SYSTEM"
)

// Actor carries the resolved identity behind a lifecycle mutation.
// System-triggered mutations (schedulers) have a nil ID.
type Actor struct {
	Type ActorType
	ID   *string
}

// SystemActor is the actor recorded for scheduler-driven transitions.
func SystemActor() Actor {
	return Actor{Type: ActorTypeSystem}
}

// CitizenActor builds an actor for a citizen-triggered mutation.
func CitizenActor(id string) Actor {
	return Actor{Type: ActorTypeCitizen, ID: &id}
}

// OfficerActor builds an actor for an officer-triggered mutation.
func OfficerActor(id string) Actor {
	return Actor{Type: ActorTypeOfficer, ID: &id}
}

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *OfficerRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
