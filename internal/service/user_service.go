package service

import (
	"context"
	"errors"
	"strings"

	"github.com/goaltime/goaltime/internal/model"
	"github.com/goaltime/goaltime/internal/repository"
	"github.com/goaltime/goaltime/internal/utils"
)

// UserService administers accounts.  Every method returns sanitized
// views; password hashes never leave this package.
type UserService struct {
	users      UserStore
	bcryptCost int
}

func NewUserService(users UserStore, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// UserInput is the admin create-user payload.
type UserInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	PhoneNumber     *string
	BirthDate       *string
	Role            string
	IsActive        *bool
}

// Create adds an account on behalf of actor.  Only admins may choose a
// role; everyone else gets USER.
func (s *UserService) Create(ctx context.Context, in UserInput, actor model.UserView) (model.UserView, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return model.UserView{}, Validation("username, email and password are required")
	}
	if in.Password != in.ConfirmPassword {
		return model.UserView{}, Validation("Passwords do not match")
	}

	role := model.RoleUser
	if r := strings.ToUpper(strings.TrimSpace(in.Role)); r != "" {
		if !actor.IsAdmin() {
			return model.UserView{}, Authz("Only admin can assign roles")
		}
		if !model.ValidRole(r) {
			return model.UserView{}, Validation("role must be USER or ADMIN")
		}
		role = r
	}
	active := true
	if in.IsActive != nil {
		if !actor.IsAdmin() {
			return model.UserView{}, Authz("Only admin can update is_active")
		}
		active = *in.IsActive
	}
	birth, err := parseBirthDate(in.BirthDate)
	if err != nil {
		return model.UserView{}, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.UserView{}, Validation("Email already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.UserView{}, err
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.UserView{}, err
	}
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  trimmedOrNil(in.PhoneNumber),
		BirthDate:    birth,
		IsActive:     active,
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.UserView{}, userWriteError(err)
	}
	return u.View(), nil
}

// FindByID returns the user or a NotFoundError.
func (s *UserService) FindByID(ctx context.Context, id uint64) (model.UserView, error) {
	u, err := s.get(ctx, id)
	if err != nil {
		return model.UserView{}, err
	}
	return u.View(), nil
}

// FindByEmail returns the user with the normalized email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (model.UserView, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.UserView{}, NotFound("User with email %s not found", normalizeEmail(email))
	}
	if err != nil {
		return model.UserView{}, err
	}
	return u.View(), nil
}

// Update applies the present fields of p to user id.  Restricted fields
// are checked against the field policy before anything else is touched.
func (s *UserService) Update(ctx context.Context, id uint64, p model.UserPatch, actor model.UserView) (model.UserView, error) {
	u, err := s.get(ctx, id)
	if err != nil {
		return model.UserView{}, err
	}
	if err := checkFieldPolicy(p, actor); err != nil {
		return model.UserView{}, err
	}

	if p.Username.Set {
		name := strings.TrimSpace(p.Username.Value)
		if !p.Username.Present() || name == "" {
			return model.UserView{}, Validation("username cannot be empty")
		}
		u.Username = name
	}
	if p.Email.Set {
		email := normalizeEmail(p.Email.Value)
		if !p.Email.Present() || email == "" {
			return model.UserView{}, Validation("email cannot be empty")
		}
		if other, err := s.users.GetByEmail(ctx, email); err == nil && other.ID != u.ID {
			return model.UserView{}, Validation("Email already exists")
		} else if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return model.UserView{}, err
		}
		u.Email = email
	}
	if p.Password.Set {
		if !p.Password.Present() || p.Password.Value == "" {
			return model.UserView{}, Validation("password cannot be empty")
		}
		if p.ConfirmPassword.Set && p.ConfirmPassword.Value != p.Password.Value {
			return model.UserView{}, Validation("Passwords do not match")
		}
		hash, err := utils.HashPassword(p.Password.Value, s.bcryptCost)
		if err != nil {
			return model.UserView{}, err
		}
		u.PasswordHash = hash
	}
	if p.PhoneNumber.Set {
		u.PhoneNumber = nil
		if p.PhoneNumber.Present() {
			u.PhoneNumber = trimmedOrNil(&p.PhoneNumber.Value)
		}
	}
	if p.BirthDate.Set {
		u.BirthDate = nil
		if p.BirthDate.Present() {
			if u.BirthDate, err = parseBirthDate(&p.BirthDate.Value); err != nil {
				return model.UserView{}, err
			}
		}
	}
	if p.IsActive.Set {
		if !p.IsActive.Present() {
			return model.UserView{}, Validation("is_active cannot be null")
		}
		u.IsActive = p.IsActive.Value
	}
	if p.Role.Set {
		r := strings.ToUpper(strings.TrimSpace(p.Role.Value))
		if !p.Role.Present() || !model.ValidRole(r) {
			return model.UserView{}, Validation("role must be USER or ADMIN")
		}
		u.Role = r
	}

	if err := s.users.Update(ctx, u); err != nil {
		return model.UserView{}, userWriteError(err)
	}
	return u.View(), nil
}

// Remove deletes user id.  Only admins may delete accounts.
func (s *UserService) Remove(ctx context.Context, id uint64, actor model.UserView) error {
	if !actor.IsAdmin() {
		return Authz("Only admin can delete users")
	}
	err := s.users.Delete(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return NotFound("User with ID %d not found", id)
	}
	return err
}

// Search returns users whose username or email contains term,
// case-insensitively.
func (s *UserService) Search(ctx context.Context, term string) ([]model.UserView, error) {
	users, err := s.users.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return views(users), nil
}

// List returns users matching f.
func (s *UserService) List(ctx context.Context, f model.UserFilter) ([]model.UserView, error) {
	if f.Role != "" {
		f.Role = strings.ToUpper(f.Role)
		if !model.ValidRole(f.Role) {
			return nil, Validation("role must be USER or ADMIN")
		}
	}
	users, err := s.users.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return views(users), nil
}

func (s *UserService) get(ctx context.Context, id uint64) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, NotFound("User with ID %d not found", id)
	}
	return u, err
}

func userWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return Validation("Email already exists")
	case errors.Is(err, repository.ErrUsernameExists):
		return Validation("Username already exists")
	}
	return err
}

func views(users []model.User) []model.UserView {
	out := make([]model.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out
}
