package handler

import (
	"context"  // provides context with cancellation for service calls
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for service calls and token expiry

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/goaltime/goaltime/internal/middleware" // caller identity stored by the auth middleware
	"github.com/goaltime/goaltime/internal/service"    // auth use cases
	"github.com/goaltime/goaltime/internal/utils"      // access token type
)

// Authenticator is the subset of *service.AuthService the auth endpoints use.
type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (string, error)
	Login(ctx context.Context, email, password string) (utils.AccessToken, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Username        string  `json:"username"         validate:"required,max=64"`
	Email           string  `json:"email"            validate:"required,email,max=255"`
	Password        string  `json:"password"         validate:"required,max=128"`
	ConfirmPassword string  `json:"confirm_password" validate:"max=128"`
	PhoneNumber     *string `json:"phone_number"     validate:"omitempty,max=32"`
	BirthDate       *string `json:"birth_date"`
}

type loginReq struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type tokenResp struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Register: create a USER account.  No token is issued; clients log in
// afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msg, err := h.Auth.Register(ctx, service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		PhoneNumber:     req.PhoneNumber,
		BirthDate:       req.BirthDate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": msg})
}

// Login: verify credentials and return an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tok, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: tok.Token, TokenType: "Bearer", ExpiresAt: tok.Exp})
}

// Profile: the caller as resolved from the bearer token.
func (h *AuthHandler) Profile(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
	}
	return c.JSON(http.StatusOK, u)
}
