package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/PrabuPro/restaurant-web-app/internal/flash"
	"github.com/PrabuPro/restaurant-web-app/internal/services"
)

// SessionUserKey is the session field holding the authenticated user's ID.
const SessionUserKey = "user_id"

// AuthRequired gates routes that need an identity. Browser requests carry a
// cookie session; API clients may send "Authorization: Bearer <jwt>"
// instead. On success the user ID is stored in c.Locals("user_id").
// Unauthenticated browser requests are redirected to the login page with a
// flash message; API requests get a 401.
func AuthRequired(sessions *session.Store, authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, sessErr := sessions.Get(c)
		if sessErr == nil {
			if id, ok := sess.Get(SessionUserKey).(string); ok && id != "" {
				c.Locals("user_id", id)
				return c.Next()
			}
		}

		authHeader := c.Get("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				userID, err := authService.ValidateToken(parts[1])
				if err == nil {
					c.Locals("user_id", userID)
					return c.Next()
				}
				log.Printf("Bearer token rejected: %v", err)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "You must be logged in to do that",
			})
		}

		if sessErr == nil {
			flash.Add(sess, "error", "Oops! You must be logged in to do that")
			if err := sess.Save(); err != nil {
				log.Printf("Failed to save session: %v", err)
			}
		}
		return c.Redirect("/login")
	}
}
