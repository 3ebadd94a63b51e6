package server

import (
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// setSessionCookie attaches the session token to the response. Sessions with
// "remember me" persist across browser restarts; others expire with the token.
func (s *Server) setSessionCookie(c *fiber.Ctx, session *auth.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   s.config.Env == "production" || s.config.Env == "prod",
		Path:     "/",
	})
}

// clearSessionCookie expires the session cookie immediately.
func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	if middleware.CurrentUserID(c) != 0 {
		return c.JSON(fiber.Map{
			"notice": "You are already logged in",
		})
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"notice": "Your account has been created! You are now able to log in",
		"user":   user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	if middleware.CurrentUserID(c) != 0 {
		return c.JSON(fiber.Map{
			"notice": "You are already logged in",
		})
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Remember bool   `json:"remember"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		middleware.LoginFailures.Inc()
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Login Unsuccessful. Please check email and password"))
	}

	session, err := s.sessions.Issue(user.ID, req.Remember)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	s.setSessionCookie(c, session)

	return c.JSON(fiber.Map{
		"token": session.Token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{
		"notice": "You have been logged out",
	})
}

// RequestPasswordReset handles POST /api/auth/reset-password
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	if middleware.CurrentUserID(c) != 0 {
		return c.JSON(fiber.Map{
			"notice": "You are already logged in",
		})
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.userService.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"notice": "An email has been sent with instructions to reset your password.",
	})
}

// ResetPassword handles POST /api/auth/reset-password/:token
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	if middleware.CurrentUserID(c) != 0 {
		return c.JSON(fiber.Map{
			"notice": "You are already logged in",
		})
	}

	token := c.Params("token")

	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if _, err := s.userService.ResetPassword(c.UserContext(), token, req.Password); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"notice": "Your password has been updated! You are now able to log in",
	})
}
