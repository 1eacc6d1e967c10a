package middleware // middleware holds the HTTP middleware shared by the GoalTime routes

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/goaltime/goaltime/internal/logger"
    "github.com/goaltime/goaltime/internal/model"
    "github.com/goaltime/goaltime/internal/service"
)

// IdentityResolver turns a bearer token into the live user it belongs to.
// *service.AuthService implements it.
type IdentityResolver interface {
    IdentityFromToken(ctx context.Context, raw string) (model.UserView, error)
}

// Identity returns an Echo middleware that requires a Bearer access token,
// resolves it to a user and stores that user in the context.  Handlers
// read it back through CurrentUser; RequireRole uses the "role" value it
// also sets.
func Identity(resolver IdentityResolver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            raw, found := strings.CutPrefix(auth, "Bearer ")
            raw = strings.TrimSpace(raw)
            if !found || raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }

            user, err := resolver.IdentityFromToken(c.Request().Context(), raw)
            if err != nil {
                if service.KindOf(err) == service.KindAuth {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
                }
                logger.FromContext(c.Request().Context()).Error().Err(err).
                    Str("path", c.Path()).Msg("identity lookup failed")
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
            }
            setIdentity(c, user)
            return next(c)
        }
    }
}
