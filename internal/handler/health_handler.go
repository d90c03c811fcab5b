package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/student-portal-api/internal/config"
	"github.com/noah-isme/student-portal-api/internal/utils"
)

// DirectoryStats reports the state of the student directory.
type DirectoryStats interface {
	Size() int
	LastRefreshed() time.Time
}

// AuditStatus reports whether audit entries are being persisted.
type AuditStatus interface {
	Enabled() bool
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	Service       string     `json:"service"`
	Environment   string     `json:"environment"`
	Students      int        `json:"students"`
	LastRefreshed *time.Time `json:"lastRefreshed,omitempty"`
	AuditLog      bool       `json:"auditLog"`
	Timestamp     time.Time  `json:"timestamp"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config, directory DirectoryStats, audit AuditStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Message:     "Server is running",
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Timestamp:   time.Now().UTC(),
		}
		if directory != nil {
			payload.Students = directory.Size()
			if refreshed := directory.LastRefreshed(); !refreshed.IsZero() {
				payload.LastRefreshed = &refreshed
			}
		}
		if audit != nil {
			payload.AuditLog = audit.Enabled()
		}

		return utils.SendJSON(c, fiber.StatusOK, payload)
	}
}
