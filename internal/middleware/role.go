package middleware

import (
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
)

// RequireRole returns a middleware that lets the request through only when
// the caller resolved by Identity holds one of roles.  With no roles any
// authenticated caller passes.  It must be mounted after Identity.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    required := strings.Join(roles, ", ")
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            user, ok := CurrentUser(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            if len(allowed) > 0 && !allowed[user.Role] {
                msg := fmt.Sprintf("User role '%s' is not authorized. Required: %s", user.Role, required)
                return c.JSON(http.StatusForbidden, echo.Map{"error": msg})
            }
            return next(c)
        }
    }
}
