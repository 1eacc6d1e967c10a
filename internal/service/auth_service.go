package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goaltime/goaltime/internal/model"
	"github.com/goaltime/goaltime/internal/repository"
	"github.com/goaltime/goaltime/internal/utils"
)

// msgInvalidCredentials is returned for every failed login so that an
// unknown email cannot be told apart from a wrong password.
const msgInvalidCredentials = "invalid credentials"

// AuthService registers accounts, checks credentials and resolves bearer
// tokens back to live users.
type AuthService struct {
	users      UserStore
	secret     string
	ttl        time.Duration
	bcryptCost int
}

// NewAuthService wires the auth service.  ttl is the access token
// lifetime.
func NewAuthService(users UserStore, secret string, ttl time.Duration, bcryptCost int) *AuthService {
	return &AuthService{users: users, secret: secret, ttl: ttl, bcryptCost: bcryptCost}
}

// RegisterInput is the self-service sign-up payload.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	PhoneNumber     *string
	BirthDate       *string
}

// Register creates a USER account.  Nothing is persisted when the
// passwords differ or the email is already registered.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return "", Validation("username, email and password are required")
	}
	if in.Password != in.ConfirmPassword {
		return "", Validation("Passwords do not match")
	}
	birth, err := parseBirthDate(in.BirthDate)
	if err != nil {
		return "", err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return "", Conflict("Email already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", err
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return "", err
	}
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  trimmedOrNil(in.PhoneNumber),
		BirthDate:    birth,
		IsActive:     true,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return "", Conflict("Email already registered")
		case errors.Is(err, repository.ErrUsernameExists):
			return "", Conflict("Username already taken")
		}
		return "", err
	}
	return "User registered successfully", nil
}

// Login verifies credentials and issues an access token.  Unknown email,
// wrong password and inactive account all yield the same AuthError, and
// the unknown-email path still pays for a bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (utils.AccessToken, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return utils.AccessToken{}, err
	}
	hash := ""
	if u != nil {
		hash = u.PasswordHash
	}
	if !utils.VerifyPasswordTimingSafe(hash, password, s.bcryptCost) || u == nil || !u.IsActive {
		return utils.AccessToken{}, Auth(msgInvalidCredentials)
	}
	return utils.NewAccessToken(s.secret, u.ID, u.Email, u.Role, s.ttl)
}

// IdentityFromToken verifies a bearer token and loads the user it names.
// Tokens of deleted or deactivated users are rejected even before they
// expire.
func (s *AuthService) IdentityFromToken(ctx context.Context, raw string) (model.UserView, error) {
	claims, err := utils.ParseAccessToken(s.secret, raw)
	if err != nil {
		return model.UserView{}, Auth("invalid token")
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.UserView{}, Auth("invalid token")
	}
	if err != nil {
		return model.UserView{}, err
	}
	if !u.IsActive {
		return model.UserView{}, Auth("account is inactive")
	}
	return u.View(), nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func parseBirthDate(p *string) (*time.Time, error) {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, strings.TrimSpace(*p))
	if err != nil {
		return nil, Validation("birth_date must be YYYY-MM-DD")
	}
	return &t, nil
}
