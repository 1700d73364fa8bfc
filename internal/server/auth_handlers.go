package server

import (
	"watermyplant/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register handles POST /auth/register
// @Summary Register a user
// @Description Create a new account. The username must be unused.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Registration request"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	user, err := s.authService.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// Token handles POST /auth/token
// @Summary Obtain an access token
// @Description OAuth2 password flow. Accepts a form or a JSON body.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Success 200 {object} service.Token
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/token [post]
func (s *Server) Token(c *fiber.Ctx) error {
	var req credentialsRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	token, err := s.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(token)
}

// Me handles GET /auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c))
}
