package server

import (
	"errors"
	"log/slog"

	"watermyplant/internal/middleware"
	"watermyplant/internal/models"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps an application error code to its HTTP status.
func statusForError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}

	switch appErr.Code {
	case models.CodeValidation, models.CodeUsernameTaken, models.CodePlantNameTaken:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeRegistrationClosed:
		return fiber.StatusForbidden
	case models.CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)

	switch status {
	case fiber.StatusUnauthorized:
		return middleware.Unauthorized(c, err)
	case fiber.StatusInternalServerError:
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
		)
		if !models.HasCode(err, models.CodeInternal) {
			err = models.NewInternalError(err)
		}
	}

	return models.RespondWithError(c, status, err)
}

// parseBody decodes the request body into dest.
// On failure it writes a 400 and the caller should return its result.
func parseBody(c *fiber.Ctx, dest any) (bool, error) {
	if err := c.BodyParser(dest); err != nil {
		return false, models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	return true, nil
}

// ownerID returns the id of the authenticated caller.
func ownerID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	return id
}
