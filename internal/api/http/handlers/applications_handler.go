package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/service"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// ApplicationsHandler manages citizen-facing application endpoints.
type ApplicationsHandler struct {
	applications *service.ApplicationService
	lifecycle    *service.LifecycleService
}

// NewApplicationsHandler constructs handler.
func NewApplicationsHandler(applicationService *service.ApplicationService, lifecycleService *service.LifecycleService) *ApplicationsHandler {
	return &ApplicationsHandler{applications: applicationService, lifecycle: lifecycleService}
}

// Submit POST /applications.
func (h *ApplicationsHandler) Submit(c *fiber.Ctx) error {
	citizen, err := citizenPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SubmitApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Department == "" || req.Title == "" || req.Description == "" {
		return apperrors.NewValidationError("department, title, description required", nil)
	}

	app, err := h.applications.Submit(c.Context(), citizen.ID, service.SubmitInput{
		Department:    req.Department,
		SubDepartment: req.SubDepartment,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": applicationSummary(app)})
}

// List GET /applications.
func (h *ApplicationsHandler) List(c *fiber.Ctx) error {
	citizen, err := citizenPrincipal(c)
	if err != nil {
		return err
	}
	statuses := parseStatuses(c.Query("status"))
	limit, offset := parsePagination(c)
	apps, err := h.applications.ListForCitizen(c.Context(), citizen.ID, statuses, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ApplicationSummary, 0, len(apps))
	for i := range apps {
		items = append(items, applicationSummary(&apps[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /applications/:id.
func (h *ApplicationsHandler) Get(c *fiber.Ctx) error {
	citizen, err := citizenPrincipal(c)
	if err != nil {
		return err
	}
	app, err := h.applications.GetForCitizen(c.Context(), citizen.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationDetail(app)})
}

// History GET /applications/:id/history.
func (h *ApplicationsHandler) History(c *fiber.Ctx) error {
	citizen, err := citizenPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	entries, err := h.applications.HistoryForCitizen(c.Context(), citizen.ID, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// MarkSolved POST /applications/:id/solved.
func (h *ApplicationsHandler) MarkSolved(c *fiber.Ctx) error {
	citizen, err := citizenPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SolvedRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	app, err := h.lifecycle.MarkSolved(c.Context(), c.Params("id"), citizen.ID, req.Solved)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationDetail(app)})
}

func citizenPrincipal(c *fiber.Ctx) (*domain.Citizen, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return nil, apperrors.NewUnauthorized("citizen required")
	}
	return principal.Citizen, nil
}

func parseStatuses(raw string) []domain.ApplicationStatus {
	if raw == "" {
		return nil
	}
	var statuses []domain.ApplicationStatus
	for _, part := range strings.Split(raw, ",") {
		statuses = append(statuses, domain.ApplicationStatus(strings.TrimSpace(part)))
	}
	return statuses
}

func parsePriorities(raw string) []domain.ApplicationPriority {
	if raw == "" {
		return nil
	}
	var priorities []domain.ApplicationPriority
	for _, part := range strings.Split(raw, ",") {
		priorities = append(priorities, domain.ApplicationPriority(strings.TrimSpace(part)))
	}
	return priorities
}

func parsePagination(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func applicationSummary(app *domain.Application) dto.ApplicationSummary {
	return dto.ApplicationSummary{
		ID:              app.ID,
		TrackingID:      app.TrackingID,
		Department:      app.Department,
		SubDepartment:   app.SubDepartment,
		Title:           app.Title,
		Status:          app.Status,
		Priority:        app.Priority,
		EscalationLevel: app.EscalationLevel,
		OfficerID:       app.OfficerID,
		SubmittedAt:     app.SubmittedAt,
		UpdatedAt:       app.UpdatedAt,
		SLADueAt:        app.SLADueAt,
	}
}

func applicationDetail(app *domain.Application) dto.ApplicationDetailResponse {
	return dto.ApplicationDetailResponse{
		ID:                   app.ID,
		TrackingID:           app.TrackingID,
		CitizenID:            app.CitizenID,
		Department:           app.Department,
		SubDepartment:        app.SubDepartment,
		Title:                app.Title,
		Description:          app.Description,
		Status:               app.Status,
		Priority:             app.Priority,
		EscalationLevel:      app.EscalationLevel,
		OfficerID:            app.OfficerID,
		IsSolved:             app.IsSolved,
		FinalizationArtifact: app.FinalizationArtifact,
		SubmittedAt:          app.SubmittedAt,
		UpdatedAt:            app.UpdatedAt,
		AssignedAt:           app.AssignedAt,
		ApprovedAt:           app.ApprovedAt,
		SLADueAt:             app.SLADueAt,
		AutoApprovalDeadline: app.AutoApprovalDeadline,
	}
}

func historyResponses(entries []domain.ApplicationHistory) []dto.ApplicationHistoryResponse {
	resp := make([]dto.ApplicationHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.ApplicationHistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			Comment:       entry.Comment,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return resp
}
