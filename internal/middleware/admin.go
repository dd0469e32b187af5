package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/trustdesk/backend/internal/dto"
	"github.com/trustdesk/backend/internal/services"
)

// ModeratorRequired gates the moderation surface behind the same
// authorization oracle the workflow engine consults. The engine re-checks on
// every mutation; this gate only keeps non-moderators off the read surface.
func ModeratorRequired(authz services.Authorizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := CurrentActor(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		ok, err := authz.CanModerate(c.Context(), actor)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Authorization check failed",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Moderator access required",
			})
		}
		return c.Next()
	}
}
