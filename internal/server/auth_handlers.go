package server

import (
	"log/slog"
	"time"

	"folio/internal/middleware"
	"folio/internal/models"
	"folio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AuthUser is the public view of the signed-in account.
type AuthUser struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      AuthUser  `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func authUser(u *models.User) AuthUser {
	return AuthUser{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func (s *Server) issue(c *fiber.Ctx, status int, user *models.User) error {
	token, expiresAt, err := s.auth.IssueToken(user.ID, user.Name)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      authUser(user),
	})
}

// Register handles POST /api/register
// @Summary Register an author account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Register request"
// @Success 201 {object} AuthResponse
// @Failure 422 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var in service.RegisterInput
	if err := parseJSON(c, &in); err != nil {
		return respondError(c, err)
	}
	user, err := s.userService.Register(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return s.issue(c, fiber.StatusCreated, user)
}

// Login handles POST /api/login
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login request"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseJSON(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return s.issue(c, fiber.StatusOK, user)
}

// Logout handles POST /api/logout
// @Summary Revoke the current token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims := middleware.CallerClaims(c)
	if claims == nil {
		return respondError(c, models.NewUnauthorizedError("Unauthenticated."))
	}
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			fiber.NewError(fiber.StatusServiceUnavailable, "Logout is unavailable: token revocation store is not configured."))
	}
	if err := s.auth.Revoke(c.UserContext(), claims); err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "token revocation failed", slog.String("error", err.Error()))
		return respondError(c, models.NewInternalError(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/me
// @Summary Current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AuthUser
// @Failure 401 {object} models.ErrorResponse
// @Router /me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), middleware.CallerID(c))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return respondError(c, models.NewUnauthorizedError("Unauthenticated."))
		}
		return respondError(c, err)
	}
	return c.JSON(authUser(user))
}
