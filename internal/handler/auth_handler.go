package handler

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/internal/utils"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgMissingLoginFields = "Preferred name and password are required"
)

// AuthHandler serves student and instructor login.
type AuthHandler struct {
	auth      service.AuthService
	tokens    service.TokenIssuer
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAuthHandler constructs the login handler.
func NewAuthHandler(auth service.AuthService, tokens service.TokenIssuer, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		tokens:    tokens,
		validator: validate,
		logger:    logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires the login routes; guards run before each handler.
func (h *AuthHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/login", chain(guards, h.login)...)
	router.Post("/teacher/login", chain(guards, h.teacherLogin)...)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, msgMissingLoginFields)
	}
	if err := h.validator.Struct(payload); err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, msgMissingLoginFields)
		}
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result := h.auth.Authenticate(c.UserContext(), service.AuthRequest{
		PreferredName: payload.PreferredName,
		Password:      payload.Password,
		IPAddress:     c.IP(),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if !result.OK {
		if result.Reason == service.ReasonMissingFields {
			return utils.SendError(c, fiber.StatusBadRequest, msgMissingLoginFields)
		}
		return utils.SendError(c, fiber.StatusUnauthorized, msgInvalidCredentials)
	}

	response := dto.LoginResponse{
		Success:       true,
		StaffOverride: result.StaffOverride,
		Student:       result.Student,
	}

	if h.tokens != nil && h.tokens.Enabled() {
		token, expiresAt, err := h.tokens.IssueStudent(result.Student.PreferredName, result.Student.StudentID, result.StaffOverride)
		if err != nil {
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to issue session token")
			return utils.SendError(c, fiber.StatusInternalServerError, "Server error during login")
		}
		response.Token = token
		response.TokenExpiresAt = timePointer(expiresAt)
	}

	return utils.SendJSON(c, fiber.StatusOK, response)
}

func (h *AuthHandler) teacherLogin(c *fiber.Ctx) error {
	var payload dto.TeacherLoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Password is required")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Password is required")
	}

	ok := h.auth.AuthenticateStaff(c.UserContext(), service.AuthRequest{
		Password:      payload.Password,
		IPAddress:     c.IP(),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, msgInvalidCredentials)
	}

	response := dto.TeacherLoginResponse{Success: true, Role: service.RoleTeacher}
	if h.tokens != nil && h.tokens.Enabled() {
		token, expiresAt, err := h.tokens.IssueTeacher()
		if err != nil {
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to issue teacher token")
			return utils.SendError(c, fiber.StatusInternalServerError, "Server error during login")
		}
		response.Token = token
		response.TokenExpiresAt = timePointer(expiresAt)
	}

	return utils.SendJSON(c, fiber.StatusOK, response)
}

func timePointer(t time.Time) *time.Time {
	return &t
}
