package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/service"
)

// OfficersHandler exposes officer auth and administration endpoints.
type OfficersHandler struct {
	authService *service.AuthService
	orgService  *service.OfficerService
}

// NewOfficersHandler constructs handler.
func NewOfficersHandler(authService *service.AuthService, orgService *service.OfficerService) *OfficersHandler {
	return &OfficersHandler{authService: authService, orgService: orgService}
}

// Login handles POST /auth/officers/login.
func (h *OfficersHandler) Login(c *fiber.Ctx) error {
	var req dto.OfficerLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	officer, token, exp, err := h.authService.LoginOfficer(c.Context(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"officer": officerResponse(officer),
			"auth":    dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *OfficersHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	token, err := h.authService.RequestPasswordReset(c.Context(), req.Email)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"data": fiber.Map{
			"reset_token": token.Token,
			"expires_at":  token.ExpiresAt,
		},
	})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *OfficersHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "token and new password required")
	}

	if err := h.authService.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}

// ChangePassword handles POST /auth/password/change.
func (h *OfficersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req dto.PasswordChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fiber.NewError(http.StatusBadRequest, "current and new password required")
	}

	subject := service.AuthSubject{Type: principal.SubjectType}
	switch principal.SubjectType {
	case domain.SubjectTypeCitizen:
		subject.ID = principal.Citizen.ID
	case domain.SubjectTypeOfficer:
		subject.ID = principal.Officer.ID
	default:
		return fiber.NewError(http.StatusUnauthorized, "unknown subject")
	}

	if err := h.authService.ChangePassword(c.Context(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// CreateDepartment handles POST /admin/departments.
func (h *OfficersHandler) CreateDepartment(c *fiber.Ctx) error {
	admin, err := adminPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name required")
	}
	dept, err := h.orgService.CreateDepartment(c.Context(), admin, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// ListDepartments handles GET /departments (public registry).
func (h *OfficersHandler) ListDepartments(c *fiber.Ctx) error {
	includeInactive := parseBoolQuery(c, "include_inactive", false)
	depts, err := h.orgService.ListDepartments(c.Context(), includeInactive)
	if err != nil {
		return err
	}
	resp := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		resp = append(resp, departmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// UpdateDepartment handles PUT /admin/departments/:id.
func (h *OfficersHandler) UpdateDepartment(c *fiber.Ctx) error {
	admin, err := adminPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	dept := &domain.Department{
		ID:          c.Params("id"),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}
	updated, err := h.orgService.UpdateDepartment(c.Context(), admin, dept)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(updated)})
}

// CreateOfficer handles POST /admin/officers.
func (h *OfficersHandler) CreateOfficer(c *fiber.Ctx) error {
	admin, err := adminPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.OfficerCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}
	role := req.Role
	if role == "" {
		role = domain.OfficerRoleOfficer
	}
	officer, err := h.orgService.CreateOfficer(c.Context(), admin, service.CreateOfficerInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           role,
		Department:     req.Department,
		SubDepartment:  req.SubDepartment,
		HierarchyLevel: req.HierarchyLevel,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": officerResponse(officer)})
}

// ListOfficers handles GET /admin/officers.
func (h *OfficersHandler) ListOfficers(c *fiber.Ctx) error {
	admin, err := adminPrincipal(c)
	if err != nil {
		return err
	}
	filters := parseOfficerListFilters(c)
	list, err := h.orgService.ListOfficers(c.Context(), admin, filters)
	if err != nil {
		return err
	}
	resp := make([]dto.OfficerResponse, 0, len(list))
	for i := range list {
		resp = append(resp, officerResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetOfficer handles GET /admin/officers/:id.
func (h *OfficersHandler) GetOfficer(c *fiber.Ctx) error {
	admin, err := adminPrincipal(c)
	if err != nil {
		return err
	}
	officer, err := h.orgService.GetOfficerByID(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": officerResponse(officer)})
}

// UpdateOfficer handles PUT /admin/officers/:id.
func (h *OfficersHandler) UpdateOfficer(c *fiber.Ctx) error {
	admin, err := adminPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.OfficerUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	updated, err := h.orgService.UpdateOfficer(c.Context(), admin, c.Params("id"), service.CreateOfficerInput{
		Name:           req.Name,
		Email:          req.Email,
		Role:           req.Role,
		Department:     req.Department,
		SubDepartment:  req.SubDepartment,
		HierarchyLevel: req.HierarchyLevel,
	}, req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": officerResponse(updated)})
}

func adminPrincipal(c *fiber.Ctx) (*domain.Officer, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Officer == nil {
		return nil, fiber.NewError(http.StatusUnauthorized, "officer required")
	}
	if principal.Officer.Role != domain.OfficerRoleAdmin {
		return nil, fiber.NewError(http.StatusForbidden, "admin role required")
	}
	return principal.Officer, nil
}

func parseBoolQuery(c *fiber.Ctx, key string, defaultVal bool) bool {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func parseOfficerListFilters(c *fiber.Ctx) service.OfficerListFilters {
	var filters service.OfficerListFilters
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.OfficerRole(roleStr)
		filters.Role = &role
	}
	if dept := c.Query("department"); dept != "" {
		filters.Department = &dept
	}
	if tier := c.Query("min_hierarchy_level"); tier != "" {
		if parsed, err := strconv.Atoi(tier); err == nil && parsed > 0 {
			filters.MinHierarchyLevel = &parsed
		}
	}
	if active := c.Query("active"); active != "" {
		if val, err := strconv.ParseBool(active); err == nil {
			filters.Active = &val
		}
	}
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 50)
	filters.Offset = (page - 1) * pageSize
	filters.Limit = pageSize
	return filters
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

func departmentResponse(dept *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:          dept.ID,
		Name:        dept.Name,
		Description: dept.Description,
		IsActive:    dept.IsActive,
	}
}

func officerResponse(officer *domain.Officer) dto.OfficerResponse {
	return dto.OfficerResponse{
		ID:             officer.ID,
		Name:           officer.Name,
		Email:          officer.Email,
		Role:           officer.Role,
		Department:     officer.Department,
		SubDepartment:  officer.SubDepartment,
		HierarchyLevel: officer.HierarchyLevel,
		Rating:         officer.Rating,
		Active:         officer.Active,
	}
}
