package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/goaltime/goaltime/internal/middleware"
	"github.com/goaltime/goaltime/internal/model"
	"github.com/goaltime/goaltime/internal/service"
)

// SessionManager is the subset of *service.SessionService used here.
type SessionManager interface {
	Create(ctx context.Context, in service.SessionInput) (model.Session, error)
	Update(ctx context.Context, id uint64, p model.SessionPatch) (model.Session, error)
	Remove(ctx context.Context, id uint64) error
	List(ctx context.Context, f model.SessionFilter) ([]model.Session, error)
	Get(ctx context.Context, id uint64) (model.Session, error)
	Book(ctx context.Context, id uint64, actor model.UserView) (model.Session, error)
	Release(ctx context.Context, id uint64, actor model.UserView) (model.Session, error)
}

// SessionHandler serves /session.
type SessionHandler struct {
	Sessions SessionManager
}

func NewSessionHandler(sessions SessionManager) *SessionHandler {
	return &SessionHandler{Sessions: sessions}
}

type createSessionReq struct {
	StadiumID uint64  `json:"stadium_id" validate:"required"`
	Date      string  `json:"date"       validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time"   validate:"required"`
	Price     float64 `json:"price"      validate:"max=99999999.99"`
	Status    string  `json:"status"     validate:"omitempty,oneof=AVAILABLE BOOKED CANCELLED available booked cancelled"`
}

func (h *SessionHandler) Create(c echo.Context) error {
	var req createSessionReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Sessions.Create(ctx, service.SessionInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, s)
}

// List handles GET /session?stadium=&date=&status=.
func (h *SessionHandler) List(c echo.Context) error {
	f := model.SessionFilter{
		Date:   c.QueryParam("date"),
		Status: c.QueryParam("status"),
	}
	if raw := c.QueryParam("stadium"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest(c, "stadium must be a numeric id")
		}
		f.StadiumID = id
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Sessions.List(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *SessionHandler) Get(c echo.Context) error {
	return h.withID(c, func(ctx context.Context, id uint64) (model.Session, error) {
		return h.Sessions.Get(ctx, id)
	})
}

func (h *SessionHandler) Update(c echo.Context) error {
	var p model.SessionPatch
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid request body")
	}
	return h.withID(c, func(ctx context.Context, id uint64) (model.Session, error) {
		return h.Sessions.Update(ctx, id, p)
	})
}

func (h *SessionHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Remove(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Book handles POST /session/:id/book for the caller.
func (h *SessionHandler) Book(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	return h.withID(c, func(ctx context.Context, id uint64) (model.Session, error) {
		return h.Sessions.Book(ctx, id, actor)
	})
}

// Release handles POST /session/:id/release.
func (h *SessionHandler) Release(c echo.Context) error {
	actor, _ := middleware.CurrentUser(c)
	return h.withID(c, func(ctx context.Context, id uint64) (model.Session, error) {
		return h.Sessions.Release(ctx, id, actor)
	})
}

// withID parses :id, runs fn under the request timeout and renders the
// resulting session.
func (h *SessionHandler) withID(c echo.Context, fn func(ctx context.Context, id uint64) (model.Session, error)) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := fn(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
