package middleware

import (
	"context"
	"strings"

	"watermyplant/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Fiber locals populated by AuthRequired.
const (
	LocalUser   = "user"
	LocalUserID = "userID"
)

// UserResolver turns a bearer token into the active user it was issued for.
type UserResolver interface {
	CurrentActiveUser(ctx context.Context, token string) (*models.User, error)
}

// AuthRequired rejects requests without a valid bearer token for an active user.
// On success the user is stored in c.Locals(LocalUser) and its id in c.Locals(LocalUserID).
func AuthRequired(resolver UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c)
		if !ok {
			return Unauthorized(c, models.NewUnauthorizedError("Not authenticated"))
		}

		user, err := resolver.CurrentActiveUser(c.UserContext(), token)
		if err != nil {
			if models.HasCode(err, models.CodeUnauthorized) {
				return Unauthorized(c, err)
			}
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}

		c.Locals(LocalUser, user)
		c.Locals(LocalUserID, user.ID)
		c.SetUserContext(WithUserID(c.UserContext(), user.ID))

		return c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Unauthorized writes a 401 carrying the Bearer challenge header.
func Unauthorized(c *fiber.Ctx, err error) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return models.RespondWithError(c, fiber.StatusUnauthorized, err)
}

// CurrentUser returns the user stored by AuthRequired, or nil outside protected routes.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalUser).(*models.User)
	return user
}
