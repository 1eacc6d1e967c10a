package service

import (
	"context"

	"github.com/goaltime/goaltime/internal/model"
	"github.com/goaltime/goaltime/internal/queue"
)

// UserStore is the persistence the auth and user services need.
// *repository.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uint64) error
	Search(ctx context.Context, term string) ([]model.User, error)
	List(ctx context.Context, f model.UserFilter) ([]model.User, error)
}

// StadiumStore is implemented by *repository.StadiumRepo.
type StadiumStore interface {
	Create(ctx context.Context, st *model.Stadium) error
	GetByID(ctx context.Context, id uint64) (*model.Stadium, error)
	List(ctx context.Context, f model.StadiumFilter) ([]model.Stadium, error)
	Update(ctx context.Context, st *model.Stadium) error
	Delete(ctx context.Context, id uint64) error
}

// SessionStore is implemented by *repository.SessionRepo.  CreateExclusive
// and UpdateExclusive must enforce the no-overlap rule atomically.
type SessionStore interface {
	CreateExclusive(ctx context.Context, s *model.Session) error
	UpdateExclusive(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id uint64) (*model.Session, error)
	List(ctx context.Context, f model.SessionFilter) ([]model.Session, error)
	Delete(ctx context.Context, id uint64) error
	Book(ctx context.Context, id, userID uint64) error
	Release(ctx context.Context, id, bookedBy uint64) error
}

// EventPublisher is implemented by *queue.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.SessionEvent) error
}
