package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/trustdesk/backend/internal/services"
)

// CurrentActor extracts the authenticated principal from JWT claims in the
// request context. Handlers thread the result explicitly into every engine
// call; nothing below the handler layer reads the request context.
func CurrentActor(c *fiber.Ctx) (services.Actor, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return services.Actor{}, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return services.Actor{}, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return services.Actor{}, errors.New("missing sub claim")
	}

	id, err := uuid.Parse(sub)
	if err != nil {
		return services.Actor{}, err
	}

	email, _ := claims["email"].(string)
	return services.Actor{ID: id, Email: email}, nil
}
