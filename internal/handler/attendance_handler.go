package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/internal/utils"
	"github.com/noah-isme/student-portal-api/pkg/airtable"
)

// AttendanceHandler serves attendance lookups.
type AttendanceHandler struct {
	service service.AttendanceService
	logger  zerolog.Logger
}

// NewAttendanceHandler constructs the attendance handler.
func NewAttendanceHandler(service service.AttendanceService, logger zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger.With().Str("component", "attendance_handler").Logger(),
	}
}

// Register attaches the attendance endpoint; guards run before the handler.
func (h *AttendanceHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/attendance/:preferredName", chain(guards, h.get)...)
}

func (h *AttendanceHandler) get(c *fiber.Ctx) error {
	name := middleware.PathParam(c, "preferredName")
	if strings.TrimSpace(name) == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "Preferred name is required")
	}

	response, err := h.service.GetAttendance(c.UserContext(), name)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendJSON(c, fiber.StatusOK, response)
}

func (h *AttendanceHandler) handleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrStudentNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "Student not found")
	}
	return sendSourceError(c, requestLogger(h.logger, c), err, "Server error fetching attendance")
}

// sendSourceError reports a failed attendance source read. Upstream failures
// keep only the status and error type; anything else is a 500 with fallback.
func sendSourceError(c *fiber.Ctx, logger *zerolog.Logger, err error, fallback string) error {
	var apiErr *airtable.APIError
	if errors.As(err, &apiErr) {
		logger.Error().Err(err).Int("upstream_status", apiErr.StatusCode).Msg("attendance source request failed")
		details := fiber.Map{}
		if apiErr.StatusCode != 0 {
			details["upstreamStatus"] = apiErr.StatusCode
		}
		if apiErr.Type != "" {
			details["type"] = apiErr.Type
		}
		// a typed nil map would still serialise as "details": null
		var payload interface{}
		if len(details) > 0 {
			payload = details
		}
		return utils.SendErrorWithDetails(c, upstreamStatus(apiErr), "Failed to fetch from Airtable", payload)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		logger.Error().Err(err).Msg("attendance source timed out")
		return utils.SendError(c, fiber.StatusGatewayTimeout, "Attendance source timed out")
	}

	logger.Error().Err(err).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}

// upstreamStatus maps a source failure onto the 5xx class returned to clients.
func upstreamStatus(apiErr *airtable.APIError) int {
	switch {
	case apiErr.StatusCode == 0:
		return fiber.StatusGatewayTimeout
	case apiErr.StatusCode == fiber.StatusTooManyRequests, apiErr.StatusCode == fiber.StatusServiceUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusBadGateway
	}
}
