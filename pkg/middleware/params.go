package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	appErrors "github.com/johnquangdev/dubbing-service/errors"
)

// UUIDParams parses the named path parameters as UUIDs and stores each one in the
// echo context under its name. Requests with a malformed id are rejected with 400.
func UUIDParams(names ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, name := range names {
				raw := c.Param(name)
				if raw == "" {
					continue
				}
				id, err := uuid.Parse(raw)
				if err != nil {
					return c.JSON(http.StatusBadRequest, map[string]interface{}{
						"code":    appErrors.ErrorCode_INVALID_ARGUMENT,
						"message": name + " must be a valid UUID",
						"info":    raw,
					})
				}
				c.Set(name, id)
			}
			return next(c)
		}
	}
}
