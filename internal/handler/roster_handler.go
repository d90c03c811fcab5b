package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/internal/utils"
)

// RosterHandler serves student profiles and instructor class reports.
type RosterHandler struct {
	service service.RosterService
	logger  zerolog.Logger
}

// NewRosterHandler constructs the roster handler.
func NewRosterHandler(service service.RosterService, logger zerolog.Logger) *RosterHandler {
	return &RosterHandler{
		service: service,
		logger:  logger.With().Str("component", "roster_handler").Logger(),
	}
}

// RegisterProfile attaches the student profile endpoint.
func (h *RosterHandler) RegisterProfile(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/student/profile/:preferredName", chain(guards, h.profile)...)
}

// RegisterClasses attaches the instructor class endpoints.
func (h *RosterHandler) RegisterClasses(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/teacher/classes", chain(guards, h.classes)...)
	router.Get("/teacher/class/:name", chain(guards, h.classReport)...)
}

func (h *RosterHandler) profile(c *fiber.Ctx) error {
	name := middleware.PathParam(c, "preferredName")
	if strings.TrimSpace(name) == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "Preferred name is required")
	}

	profile, err := h.service.Profile(name)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "Student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load student profile")
		return utils.SendError(c, fiber.StatusInternalServerError, "Server error fetching profile")
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.StudentProfileResponse{Success: true, Profile: profile})
}

func (h *RosterHandler) classes(c *fiber.Ctx) error {
	classes := h.service.Classes()
	if classes == nil {
		classes = []string{}
	}
	return utils.SendJSON(c, fiber.StatusOK, dto.ClassListResponse{Success: true, Classes: classes})
}

func (h *RosterHandler) classReport(c *fiber.Ctx) error {
	class := middleware.PathParam(c, "name")
	if strings.TrimSpace(class) == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "Class name is required")
	}

	report, err := h.service.ClassReport(c.UserContext(), class)
	if err != nil {
		if errors.Is(err, service.ErrClassNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "Class not found")
		}
		return sendSourceError(c, requestLogger(h.logger, c), err, "Server error fetching class data")
	}

	return utils.SendJSON(c, fiber.StatusOK, report)
}
