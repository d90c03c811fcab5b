package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/student-portal-api/internal/config"
	"github.com/noah-isme/student-portal-api/internal/handler"
	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/observability"
	"github.com/noah-isme/student-portal-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	AttendanceHandler *handler.AttendanceHandler
	AuditHandler      *handler.AuditHandler
	RosterHandler     *handler.RosterHandler
	Directory         handler.DirectoryStats
	Audit             handler.AuditStatus
	Tokens            service.TokenIssuer
	// LoginLimiter guards both login routes; nil disables limiting.
	LoginLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Directory, deps.Audit))

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api, deps.LoginLimiter)
	}

	if deps.AttendanceHandler != nil {
		deps.AttendanceHandler.Register(api,
			middleware.SessionAuth(deps.Tokens),
			middleware.RequireStudentAccess(deps.Tokens, "preferredName"),
		)
	}

	if deps.RosterHandler != nil {
		deps.RosterHandler.RegisterProfile(api,
			middleware.SessionAuth(deps.Tokens),
			middleware.RequireStudentAccess(deps.Tokens, "preferredName"),
		)

		// Open like the attendance route until session tokens are configured.
		var classGuards []fiber.Handler
		if tokensEnabled(deps.Tokens) {
			classGuards = append(classGuards,
				middleware.SessionAuth(deps.Tokens),
				middleware.RequireRole(service.RoleTeacher),
			)
		}
		deps.RosterHandler.RegisterClasses(api, classGuards...)
	}

	// Audit entries identify students, so the route only exists behind tokens.
	if deps.AuditHandler != nil && tokensEnabled(deps.Tokens) {
		deps.AuditHandler.Register(api,
			middleware.SessionAuth(deps.Tokens),
			middleware.RequireRole(service.RoleTeacher),
		)
	}

	app.Get("/metrics", observability.MetricsHandler())
}

func tokensEnabled(tokens service.TokenIssuer) bool {
	return tokens != nil && tokens.Enabled()
}
