package dto

import "github.com/spec-kit/case-service/internal/domain"

// OfficerLoginRequest payload for officer login.
type OfficerLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OfficerResponse is the officer account representation.
type OfficerResponse struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Role           domain.OfficerRole `json:"role"`
	Department     string             `json:"department"`
	SubDepartment  *string            `json:"sub_department"`
	HierarchyLevel int                `json:"hierarchy_level"`
	Rating         float64            `json:"rating"`
	Active         bool               `json:"active"`
}

// OfficerCreateRequest provisions a new officer account.
type OfficerCreateRequest struct {
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Password       string             `json:"password"`
	Role           domain.OfficerRole `json:"role"`
	Department     string             `json:"department"`
	SubDepartment  *string            `json:"sub_department"`
	HierarchyLevel int                `json:"hierarchy_level"`
}

// OfficerUpdateRequest modifies an officer account.
type OfficerUpdateRequest struct {
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Role           domain.OfficerRole `json:"role"`
	Department     string             `json:"department"`
	SubDepartment  *string            `json:"sub_department"`
	HierarchyLevel int                `json:"hierarchy_level"`
	Active         bool               `json:"active"`
}

// DepartmentRequest creates or updates a department.
type DepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// DepartmentResponse describes a department.
type DepartmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}
