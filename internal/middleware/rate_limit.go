package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/student-portal-api/internal/utils"
)

// RateLimitConfig configures a per-client limiter.
type RateLimitConfig struct {
	Identifier string
	Max        int
	Window     time.Duration
	// Storage shares counters between replicas; nil keeps them in memory.
	Storage fiber.Storage
	Message string
}

// RateLimit creates a rate limiter keyed by client IP.
func RateLimit(cfg RateLimitConfig) fiber.Handler {
	if cfg.Max <= 0 {
		cfg.Max = 50
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Message == "" {
		cfg.Message = "too many requests, please try again later"
	}

	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		Storage:    cfg.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return fmt.Sprintf("%s:%s", cfg.Identifier, c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, cfg.Message)
		},
	})
}
