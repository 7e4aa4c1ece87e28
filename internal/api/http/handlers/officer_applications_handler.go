package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/service"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// OfficerApplicationsHandler handles the officer queue and decision endpoints.
type OfficerApplicationsHandler struct {
	applications *service.ApplicationService
	lifecycle    *service.LifecycleService
}

// NewOfficerApplicationsHandler constructs handler.
func NewOfficerApplicationsHandler(applicationService *service.ApplicationService, lifecycleService *service.LifecycleService) *OfficerApplicationsHandler {
	return &OfficerApplicationsHandler{applications: applicationService, lifecycle: lifecycleService}
}

// ListQueue GET /officer/applications.
func (h *OfficerApplicationsHandler) ListQueue(c *fiber.Ctx) error {
	officer, err := officerPrincipal(c)
	if err != nil {
		return err
	}
	filter := parseQueueFilter(c)
	apps, err := h.applications.ListQueue(c.Context(), officer, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ApplicationSummary, 0, len(apps))
	for i := range apps {
		items = append(items, applicationSummary(&apps[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /officer/applications/:id.
func (h *OfficerApplicationsHandler) Get(c *fiber.Ctx) error {
	officer, err := officerPrincipal(c)
	if err != nil {
		return err
	}
	app, err := h.applications.GetForOfficer(c.Context(), officer, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationDetail(app)})
}

// History GET /officer/applications/:id/history.
func (h *OfficerApplicationsHandler) History(c *fiber.Ctx) error {
	officer, err := officerPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	entries, err := h.applications.HistoryForOfficer(c.Context(), officer, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// UpdateStatus POST /officer/applications/:id/status.
func (h *OfficerApplicationsHandler) UpdateStatus(c *fiber.Ctx) error {
	officer, err := officerPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	if _, err := h.applications.GetForOfficer(c.Context(), officer, c.Params("id")); err != nil {
		return err
	}
	app, err := h.lifecycle.ApplyTransition(c.Context(), c.Params("id"), req.Status, domain.OfficerActor(officer.ID), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationDetail(app)})
}

// Assign POST /officer/applications/:id/assign.
func (h *OfficerApplicationsHandler) Assign(c *fiber.Ctx) error {
	officer, err := officerPrincipal(c)
	if err != nil {
		return err
	}
	if officer.Role == domain.OfficerRoleOfficer {
		return apperrors.NewForbidden("supervisor or admin role required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.OfficerID == "" {
		return apperrors.NewValidationError("officer_id required", nil)
	}
	if _, err := h.applications.GetForOfficer(c.Context(), officer, c.Params("id")); err != nil {
		return err
	}
	app, err := h.lifecycle.Assign(c.Context(), c.Params("id"), req.OfficerID, domain.OfficerActor(officer.ID))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": applicationDetail(app)})
}

func officerPrincipal(c *fiber.Ctx) (*domain.Officer, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Officer == nil {
		return nil, apperrors.NewUnauthorized("officer required")
	}
	return principal.Officer, nil
}

func parseQueueFilter(c *fiber.Ctx) service.QueueFilter {
	filter := service.QueueFilter{
		Statuses:   parseStatuses(c.Query("status")),
		Priorities: parsePriorities(c.Query("priority")),
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	filter.Limit, filter.Offset = parsePagination(c)
	return filter
}
