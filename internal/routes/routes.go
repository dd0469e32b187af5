package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/trustdesk/backend/internal/config"
	"github.com/trustdesk/backend/internal/handlers"
	"github.com/trustdesk/backend/internal/middleware"
	"github.com/trustdesk/backend/internal/services"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authz services.Authorizer,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	reportHandler *handlers.ReportHandler,
	moderationHandler *handlers.ModerationHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Intake and blocking (protected)
	api.Post("/reports", middleware.JWTProtected(cfg), reportHandler.CreateReport)
	api.Post("/blocks", middleware.JWTProtected(cfg), reportHandler.BlockUser)
	api.Delete("/blocks/:id", middleware.JWTProtected(cfg), reportHandler.UnblockUser)

	// Moderation surface (protected + moderator capability). The workflow
	// engine re-checks the capability on every mutation.
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.ModeratorRequired(authz))
	admin.Get("/moderation/reports", moderationHandler.ListReports)
	admin.Get("/moderation/reports/:id", moderationHandler.GetReport)
	admin.Post("/moderation/reports/:id/actions", moderationHandler.ApplyAction)
}
