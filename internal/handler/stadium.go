package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/goaltime/goaltime/internal/model"
	"github.com/goaltime/goaltime/internal/service"
)

// StadiumManager is the subset of *service.StadiumService used here.
type StadiumManager interface {
	Create(ctx context.Context, in service.StadiumInput) (model.Stadium, error)
	List(ctx context.Context, f model.StadiumFilter) ([]model.Stadium, error)
	Get(ctx context.Context, id uint64) (model.Stadium, error)
	Update(ctx context.Context, id uint64, p model.StadiumPatch) (model.Stadium, error)
	Delete(ctx context.Context, id uint64) error
}

// StadiumHandler serves /stadium.
type StadiumHandler struct {
	Stadiums StadiumManager
}

func NewStadiumHandler(stadiums StadiumManager) *StadiumHandler {
	return &StadiumHandler{Stadiums: stadiums}
}

type createStadiumReq struct {
	Name      string   `json:"name"      validate:"required,max=150"`
	Location  string   `json:"location"  validate:"required,max=255"`
	Capacity  int      `json:"capacity"  validate:"min=0,max=4294967295"`
	Amenities []string `json:"amenities" validate:"omitempty,dive,max=64"`
}

func (h *StadiumHandler) Create(c echo.Context) error {
	var req createStadiumReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Stadiums.Create(ctx, service.StadiumInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, st)
}

// List handles GET /stadium?name=&location=&minCapacity=&maxCapacity=&amenities=.
// amenities may be repeated or comma separated; a stadium must carry all
// of them to match.
func (h *StadiumHandler) List(c echo.Context) error {
	f := model.StadiumFilter{
		Name:      c.QueryParam("name"),
		Location:  c.QueryParam("location"),
		Amenities: splitList(c.QueryParams()["amenities"]),
	}
	var err error
	if f.MinCapacity, err = optionalCapacity(c.QueryParam("minCapacity")); err != nil {
		return badRequest(c, "minCapacity must be a non-negative integer")
	}
	if f.MaxCapacity, err = optionalCapacity(c.QueryParam("maxCapacity")); err != nil {
		return badRequest(c, "maxCapacity must be a non-negative integer")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Stadiums.List(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

func (h *StadiumHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Stadiums.Get(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *StadiumHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var p model.StadiumPatch
	if err := c.Bind(&p); err != nil {
		return badRequest(c, "invalid request body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Stadiums.Update(ctx, id, p)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *StadiumHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Stadiums.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func optionalCapacity(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, strconv.ErrSyntax
	}
	return &n, nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
