package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"whiskyrec/internal/models"
)

// AuthMiddleware loads the signed-in user from the session.
type AuthMiddleware struct {
	loginPath string
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(loginPath string) *AuthMiddleware {
	if loginPath == "" {
		loginPath = "/auth/login"
	}
	return &AuthMiddleware{loginPath: loginPath}
}

func userFromSession(sess *session.Middleware) *models.User {
	if sess == nil {
		return nil
	}
	sub, _ := sess.Get("user_sub").(string)
	if sub == "" {
		return nil
	}
	email, _ := sess.Get("user_email").(string)
	name, _ := sess.Get("user_name").(string)
	return &models.User{Sub: sub, Email: email, Name: name}
}

// RequireAuth ensures the user is signed in. Pages redirect to the login
// route; API calls get a 401.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	sess := session.FromContext(c)
	user := userFromSession(sess)
	if user == nil {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": "error",
				"error":  "unauthorized",
			})
		}
		if sess != nil {
			sess.Set("redirect_after_login", c.OriginalURL())
		}
		return c.Redirect().To(m.loginPath)
	}

	c.Locals("user", user)
	return c.Next()
}

// OptionalAuth loads the user if authenticated, but doesn't require authentication.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	if user := userFromSession(session.FromContext(c)); user != nil {
		c.Locals("user", user)
	}
	return c.Next()
}
