package service

import (
	"context"
	"errors"
	"strings"

	"github.com/goaltime/goaltime/internal/model"
	"github.com/goaltime/goaltime/internal/repository"
)

// StadiumService manages venues.
type StadiumService struct {
	stadiums StadiumStore
}

func NewStadiumService(stadiums StadiumStore) *StadiumService {
	return &StadiumService{stadiums: stadiums}
}

// StadiumInput is the create-stadium payload.
type StadiumInput struct {
	Name      string
	Location  string
	Capacity  int
	Amenities []string
}

// Create validates and stores a new stadium.  Names are unique.
func (s *StadiumService) Create(ctx context.Context, in StadiumInput) (model.Stadium, error) {
	st := model.Stadium{
		Name:      strings.TrimSpace(in.Name),
		Location:  strings.TrimSpace(in.Location),
		Capacity:  in.Capacity,
		Amenities: model.NormalizeAmenities(in.Amenities),
	}
	if err := validateStadium(st); err != nil {
		return model.Stadium{}, err
	}
	if err := s.stadiums.Create(ctx, &st); err != nil {
		return model.Stadium{}, stadiumWriteError(err)
	}
	return st, nil
}

// List returns the stadiums matching f.
func (s *StadiumService) List(ctx context.Context, f model.StadiumFilter) ([]model.Stadium, error) {
	if f.MinCapacity != nil && f.MaxCapacity != nil && *f.MinCapacity > *f.MaxCapacity {
		return nil, Validation("minCapacity cannot be greater than maxCapacity")
	}
	f.Name = strings.TrimSpace(f.Name)
	f.Location = strings.TrimSpace(f.Location)
	f.Amenities = model.NormalizeAmenities(f.Amenities)
	return s.stadiums.List(ctx, f)
}

// Get returns stadium id or a NotFoundError.
func (s *StadiumService) Get(ctx context.Context, id uint64) (model.Stadium, error) {
	st, err := s.stadiums.GetByID(ctx, id)
	if errors.Is(err, repository.ErrStadiumNotFound) {
		return model.Stadium{}, stadiumNotFound(id)
	}
	if err != nil {
		return model.Stadium{}, err
	}
	return *st, nil
}

// Update applies the present fields of p and re-validates the result.
func (s *StadiumService) Update(ctx context.Context, id uint64, p model.StadiumPatch) (model.Stadium, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return model.Stadium{}, err
	}
	if p.Name.Set {
		if !p.Name.Present() {
			return model.Stadium{}, Validation("name cannot be null")
		}
		st.Name = strings.TrimSpace(p.Name.Value)
	}
	if p.Location.Set {
		if !p.Location.Present() {
			return model.Stadium{}, Validation("location cannot be null")
		}
		st.Location = strings.TrimSpace(p.Location.Value)
	}
	if p.Capacity.Set {
		if !p.Capacity.Present() {
			return model.Stadium{}, Validation("capacity cannot be null")
		}
		st.Capacity = p.Capacity.Value
	}
	if p.Amenities.Set {
		// null clears the set
		st.Amenities = model.NormalizeAmenities(p.Amenities.Value)
	}
	if err := validateStadium(st); err != nil {
		return model.Stadium{}, err
	}
	if err := s.stadiums.Update(ctx, &st); err != nil {
		if errors.Is(err, repository.ErrStadiumNotFound) {
			return model.Stadium{}, stadiumNotFound(id)
		}
		return model.Stadium{}, stadiumWriteError(err)
	}
	return st, nil
}

// Delete removes a stadium and its sessions.  A stadium with booked
// sessions cannot be deleted.
func (s *StadiumService) Delete(ctx context.Context, id uint64) error {
	err := s.stadiums.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrStadiumNotFound):
		return stadiumNotFound(id)
	case errors.Is(err, repository.ErrConflict):
		return Conflict("Stadium with ID %d has booked sessions", id)
	}
	return err
}

func validateStadium(st model.Stadium) error {
	if st.Name == "" {
		return Validation("name is required")
	}
	if st.Location == "" {
		return Validation("location is required")
	}
	if st.Capacity < 0 {
		return Validation("capacity cannot be negative")
	}
	if int64(st.Capacity) > model.MaxCapacity {
		return Validation("capacity must be at most %d", model.MaxCapacity)
	}
	return nil
}

func stadiumNotFound(id uint64) error {
	return NotFound("Stadium with ID %d not found", id)
}

func stadiumWriteError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return Conflict("Stadium with this name already exists")
	}
	return err
}
