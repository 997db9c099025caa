package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	appErrors "github.com/johnquangdev/dubbing-service/errors"
	"github.com/johnquangdev/dubbing-service/pkg/jwt"
)

// UserIDKey is the echo context key holding the caller's user id
const UserIDKey = "user_id"

// EchoAuth returns an Echo middleware that validates the bearer JWT and sets
// "user_id" (string) into the Echo context
func EchoAuth(manager *jwt.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return reject(c, appErrors.ErrUnauthenticated())
			}

			claims, err := manager.ValidateAccessToken(token)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return reject(c, appErrors.ErrTokenExpired())
				}
				return reject(c, appErrors.ErrInvalidToken())
			}

			c.Set(UserIDKey, claims.UserID)
			return next(c)
		}
	}
}

// extractToken reads the Authorization header, falling back to the access_token cookie
func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func reject(c echo.Context, appErr appErrors.AppError) error {
	return c.JSON(appErr.HTTPCode, map[string]interface{}{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
