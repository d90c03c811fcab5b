package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-portal-api/internal/dto"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/internal/utils"
)

// AuditHandler exposes recent staff override usage to instructors.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the audit handler.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches the audit endpoint; guards run before the handler.
func (h *AuditHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/teacher/audit", chain(guards, h.list)...)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "limit must be a positive integer")
	}

	action := c.Query("action")
	if action != "" && !models.IsAuditAction(action) {
		return utils.SendError(c, fiber.StatusBadRequest, "unknown audit action")
	}

	entries, err := h.service.List(c.UserContext(), service.AuditQuery{Action: action, Limit: limit})
	if err != nil {
		if errors.Is(err, service.ErrAuditUnavailable) {
			return utils.SendError(c, fiber.StatusServiceUnavailable, "audit log is not configured")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list audit log")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load audit log")
	}

	items := make([]dto.AuditLogResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewAuditLogResponse(entry))
	}

	return utils.SendJSON(c, fiber.StatusOK, dto.AuditLogListResponse{Success: true, Items: items})
}
