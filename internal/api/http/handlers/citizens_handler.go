package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/service"
)

// CitizensHandler exposes auth endpoints for citizens.
type CitizensHandler struct {
	auth *service.AuthService
}

// NewCitizensHandler constructs handler.
func NewCitizensHandler(authService *service.AuthService) *CitizensHandler {
	return &CitizensHandler{auth: authService}
}

// Register handles POST /auth/citizens/register.
func (h *CitizensHandler) Register(c *fiber.Ctx) error {
	var req dto.CitizenRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password required")
	}

	citizen, token, exp, err := h.auth.RegisterCitizen(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"citizen": fiber.Map{
				"id":    citizen.ID,
				"name":  citizen.Name,
				"email": citizen.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/citizens/login.
func (h *CitizensHandler) Login(c *fiber.Ctx) error {
	var req dto.CitizenLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	citizen, token, exp, err := h.auth.LoginCitizen(c.Context(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"citizen": fiber.Map{
				"id":    citizen.ID,
				"name":  citizen.Name,
				"email": citizen.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}
