package domain

import "time"

// OfficerRole enumerates internal operator roles.
type OfficerRole string

const (
	OfficerRoleOfficer    OfficerRole = "OFFICER"
	OfficerRoleSupervisor OfficerRole = "SUPERVISOR"
	OfficerRoleAdmin      OfficerRole = "ADMIN"
)

// Officer models an official eligible to be assigned applications within a
// department. HierarchyLevel is the seniority tier (>= 1, higher is more
// senior); escalated applications move to strictly higher tiers.
// TotalAssignedCount is a persisted monotonic counter; the active workload is
// never stored and is always counted fresh from the applications collection.
type Officer struct {
	ID                 string
	Name               string
	Email              string
	PasswordHash       string
	Role               OfficerRole
	Department         string
	SubDepartment      *string
	HierarchyLevel     int
	Rating             float64
	TotalAssignedCount int64
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
