package middleware

import (
	"strings"

	"inkwell/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// sessionToken extracts the session token from the session cookie, falling
// back to a Bearer Authorization header for non-browser clients.
func sessionToken(c *fiber.Ctx) string {
	if cookie := c.Cookies(auth.SessionCookieName); cookie != "" {
		return cookie
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthRequired enforces an authenticated session for protected routes. On
// success the principal's user ID is stored in c.Locals("userID").
func AuthRequired(sessions *auth.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		userID, err := sessions.Parse(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// OptionalAuth populates the principal when a valid session is present but
// never rejects the request. Routes like login and register use it to detect
// an already-authenticated caller.
func OptionalAuth(sessions *auth.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := sessionToken(c); token != "" {
			if userID, err := sessions.Parse(token); err == nil {
				c.Locals("userID", userID)
			}
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated principal's ID from the request
// context, or 0 when the request is unauthenticated.
func CurrentUserID(c *fiber.Ctx) uint {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid
	}
	return 0
}
