package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/goaltime/goaltime/internal/middleware"
	"github.com/goaltime/goaltime/internal/model"
	"github.com/goaltime/goaltime/internal/service"
)

// UserManager is the subset of *service.UserService the user endpoints use.
type UserManager interface {
	Create(ctx context.Context, in service.UserInput, actor model.UserView) (model.UserView, error)
	FindByID(ctx context.Context, id uint64) (model.UserView, error)
	Update(ctx context.Context, id uint64, p model.UserPatch, actor model.UserView) (model.UserView, error)
	Remove(ctx context.Context, id uint64, actor model.UserView) error
	Search(ctx context.Context, term string) ([]model.UserView, error)
	List(ctx context.Context, f model.UserFilter) ([]model.UserView, error)
}

// BookingLister returns the sessions a user holds.
type BookingLister interface {
	ListMine(ctx context.Context, actor model.UserView) ([]model.Session, error)
}

// UserHandler serves /users.
type UserHandler struct {
	Users    UserManager
	Bookings BookingLister
}

func NewUserHandler(users UserManager, bookings BookingLister) *UserHandler {
	return &UserHandler{Users: users, Bookings: bookings}
}

type createUserReq struct {
	Username        string  `json:"username"         validate:"required,max=64"`
	Email           string  `json:"email"            validate:"required,email,max=255"`
	Password        string  `json:"password"         validate:"required,max=128"`
	ConfirmPassword string  `json:"confirm_password" validate:"max=128"`
	PhoneNumber     *string `json:"phone_number"     validate:"omitempty,max=32"`
	BirthDate       *string `json:"birth_date"`
	Role            string  `json:"role"`
	IsActive        *bool   `json:"is_active"`
}

// List handles GET /users.  ?search= matches username or email; the other
// query parameters filter exactly.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if term := strings.TrimSpace(c.QueryParam("search")); term != "" {
		users, err := h.Users.Search(ctx, term)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": users})
	}

	f := model.UserFilter{
		Role:     strings.TrimSpace(c.QueryParam("role")),
		Username: strings.TrimSpace(c.QueryParam("username")),
		Email:    strings.TrimSpace(c.QueryParam("email")),
	}
	if raw := c.QueryParam("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest(c, "is_active must be true or false")
		}
		f.IsActive = &active
	}
	users, err := h.Users.List(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// Create handles POST /users.
func (h *UserHandler) Create(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	var req createUserReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, service.UserInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		PhoneNumber:     req.PhoneNumber,
		BirthDate:       req.BirthDate,
		Role:            req.Role,
		IsActive:        req.IsActive,
	}, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Update handles PATCH /users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	return h.update(c, id, false)
}

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Remove(ctx, id, actor); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /users/me.
func (h *UserHandler) Me(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, actor.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateMe handles PATCH /users/me.  A role in the body is ignored so
// that nobody promotes themselves through their own profile.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	return h.update(c, actor.ID, true)
}

// MySessions handles GET /users/me/sessions.
func (h *UserHandler) MySessions(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.Bookings.ListMine(ctx, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": sessions})
}

func (h *UserHandler) update(c echo.Context, id uint64, self bool) error {
	actor, _ := middleware.CurrentUser(c)
	var p model.UserPatch
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid request body")
	}
	if self {
		p.Role = model.Patch[string]{}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Update(ctx, id, p, actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
