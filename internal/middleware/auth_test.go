package middleware

import (
    "bytes"
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/goaltime/goaltime/internal/logger"
    "github.com/goaltime/goaltime/internal/model"
    "github.com/goaltime/goaltime/internal/service"
)

type stubResolver map[string]model.UserView

func (s stubResolver) IdentityFromToken(_ context.Context, raw string) (model.UserView, error) {
    if u, ok := s[raw]; ok {
        return u, nil
    }
    return model.UserView{}, service.Auth("invalid token")
}

var resolver = stubResolver{
    "user-token":  {ID: 7, Username: "joe", Role: model.RoleUser},
    "admin-token": {ID: 1, Username: "root", Role: model.RoleAdmin},
}

func serve(t *testing.T, token string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    e.GET("/private", func(c echo.Context) error {
        u, ok := CurrentUser(c)
        require.True(t, ok)
        return c.JSON(http.StatusOK, echo.Map{"id": u.ID, "uid": c.Get("user_id"), "role": c.Get("role")})
    }, mw...)

    req := httptest.NewRequest(http.MethodGet, "/private", nil)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestIdentityStoresCaller(t *testing.T) {
    rec := serve(t, "user-token", Identity(resolver))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"id":7,"uid":"7","role":"USER"}`, rec.Body.String())
}

func TestIdentityRejectsMissingOrBadToken(t *testing.T) {
    rec := serve(t, "", Identity(resolver))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.JSONEq(t, `{"error":"missing bearer token"}`, rec.Body.String())

    rec = serve(t, "forged", Identity(resolver))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.JSONEq(t, `{"error":"invalid token"}`, rec.Body.String())
}

func TestRequireRole(t *testing.T) {
    rec := serve(t, "user-token", Identity(resolver), RequireRole(model.RoleAdmin))
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.JSONEq(t, `{"error":"User role 'USER' is not authorized. Required: ADMIN"}`, rec.Body.String())

    rec = serve(t, "admin-token", Identity(resolver), RequireRole(model.RoleAdmin))
    assert.Equal(t, http.StatusOK, rec.Code)

    rec = serve(t, "user-token", Identity(resolver), RequireRole(model.RoleAdmin, model.RoleUser))
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleWithoutIdentity(t *testing.T) {
    e := echo.New()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(model.RoleAdmin))
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type brokenResolver struct{}

func (brokenResolver) IdentityFromToken(context.Context, string) (model.UserView, error) {
    return model.UserView{}, errors.New("dial tcp 10.0.0.5:3306: connection refused")
}

func TestIdentityLogsLookupFailures(t *testing.T) {
    var buf bytes.Buffer
    logger.Init(logger.Config{Level: "info", Output: &buf})
    t.Cleanup(func() { logger.Init(logger.Config{}) })

    rec := serve(t, "user-token", Identity(brokenResolver{}))
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
    assert.NotContains(t, rec.Body.String(), "10.0.0.5")
    assert.Contains(t, buf.String(), "identity lookup failed")
    assert.Contains(t, buf.String(), "connection refused")
}
