package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goaltime/goaltime/internal/model"
	"github.com/goaltime/goaltime/internal/queue"
	"github.com/goaltime/goaltime/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL schema.  A single mutex
// plays the role of the stadium row lock.
type memDB struct {
	mu       sync.Mutex
	nextID   uint64
	users    map[uint64]model.User
	stadiums map[uint64]model.Stadium
	sessions map[uint64]model.Session
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[uint64]model.User{},
		stadiums: map[uint64]model.Stadium{},
		sessions: map[uint64]model.Session{},
	}
}

func (db *memDB) id() uint64 {
	db.nextID++
	return db.nextID
}

type fakeUsers struct{ db *memDB }

func (f fakeUsers) clash(u *model.User) error {
	for _, o := range f.db.users {
		if o.ID == u.ID {
			continue
		}
		if o.Email == u.Email {
			return repository.ErrEmailExists
		}
		if o.Username == u.Username {
			return repository.ErrUsernameExists
		}
	}
	return nil
}

func (f fakeUsers) Create(_ context.Context, u *model.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.clash(u); err != nil {
		return err
	}
	u.ID = f.db.id()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	f.db.users[u.ID] = *u
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Email == strings.ToLower(email) {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f fakeUsers) Update(_ context.Context, u *model.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.users[u.ID]; !ok {
		return repository.ErrUserNotFound
	}
	if err := f.clash(u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	f.db.users[u.ID] = *u
	return nil
}

func (f fakeUsers) Delete(_ context.Context, id uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.db.users, id)
	return nil
}

func (f fakeUsers) Search(_ context.Context, term string) ([]model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	term = strings.ToLower(term)
	out := []model.User{}
	for _, u := range f.db.users {
		if strings.Contains(strings.ToLower(u.Username), term) || strings.Contains(strings.ToLower(u.Email), term) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f fakeUsers) List(_ context.Context, flt model.UserFilter) ([]model.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.User{}
	for _, u := range f.db.users {
		if flt.Role != "" && u.Role != flt.Role {
			continue
		}
		if flt.IsActive != nil && u.IsActive != *flt.IsActive {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

type fakeStadiums struct{ db *memDB }

func (f fakeStadiums) nameTaken(st *model.Stadium) bool {
	for _, o := range f.db.stadiums {
		if o.ID != st.ID && o.Name == st.Name {
			return true
		}
	}
	return false
}

func (f fakeStadiums) Create(_ context.Context, st *model.Stadium) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if f.nameTaken(st) {
		return repository.ErrDuplicate
	}
	st.ID = f.db.id()
	f.db.stadiums[st.ID] = *st
	return nil
}

func (f fakeStadiums) GetByID(_ context.Context, id uint64) (*model.Stadium, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	st, ok := f.db.stadiums[id]
	if !ok {
		return nil, repository.ErrStadiumNotFound
	}
	return &st, nil
}

func (f fakeStadiums) List(_ context.Context, flt model.StadiumFilter) ([]model.Stadium, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.Stadium{}
	for _, st := range f.db.stadiums {
		if flt.Name != "" && !strings.Contains(strings.ToLower(st.Name), strings.ToLower(flt.Name)) {
			continue
		}
		if flt.MinCapacity != nil && st.Capacity < *flt.MinCapacity {
			continue
		}
		if flt.MaxCapacity != nil && st.Capacity > *flt.MaxCapacity {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f fakeStadiums) Update(_ context.Context, st *model.Stadium) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.stadiums[st.ID]; !ok {
		return repository.ErrStadiumNotFound
	}
	if f.nameTaken(st) {
		return repository.ErrDuplicate
	}
	f.db.stadiums[st.ID] = *st
	return nil
}

func (f fakeStadiums) Delete(_ context.Context, id uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.stadiums[id]; !ok {
		return repository.ErrStadiumNotFound
	}
	for _, s := range f.db.sessions {
		if s.StadiumID == id && s.Status == model.SessionBooked {
			return repository.ErrConflict
		}
	}
	for sid, s := range f.db.sessions {
		if s.StadiumID == id {
			delete(f.db.sessions, sid)
		}
	}
	delete(f.db.stadiums, id)
	return nil
}

type fakeSessions struct{ db *memDB }

func (f fakeSessions) withStadium(s model.Session) model.Session {
	if st, ok := f.db.stadiums[s.StadiumID]; ok {
		s.Stadium = &st
	}
	return s
}

func (f fakeSessions) checkOverlap(s *model.Session) error {
	for _, o := range f.db.sessions {
		if o.ID != s.ID && o.Overlaps(*s) {
			return repository.ErrOverlap
		}
	}
	return nil
}

func (f fakeSessions) CreateExclusive(_ context.Context, s *model.Session) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.stadiums[s.StadiumID]; !ok {
		return repository.ErrStadiumNotFound
	}
	if err := f.checkOverlap(s); err != nil {
		return err
	}
	s.ID = f.db.id()
	s.Stadium = nil
	f.db.sessions[s.ID] = *s
	*s = f.withStadium(*s)
	return nil
}

func (f fakeSessions) UpdateExclusive(_ context.Context, s *model.Session) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.stadiums[s.StadiumID]; !ok {
		return repository.ErrStadiumNotFound
	}
	if _, ok := f.db.sessions[s.ID]; !ok {
		return repository.ErrSessionNotFound
	}
	if err := f.checkOverlap(s); err != nil {
		return err
	}
	s.Stadium = nil
	f.db.sessions[s.ID] = *s
	*s = f.withStadium(*s)
	return nil
}

func (f fakeSessions) GetByID(_ context.Context, id uint64) (*model.Session, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.sessions[id]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	s = f.withStadium(s)
	return &s, nil
}

func (f fakeSessions) List(_ context.Context, flt model.SessionFilter) ([]model.Session, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []model.Session{}
	for _, s := range f.db.sessions {
		if flt.StadiumID != 0 && s.StadiumID != flt.StadiumID {
			continue
		}
		if flt.Date != "" && s.Date != flt.Date {
			continue
		}
		if flt.Status != "" && s.Status != flt.Status {
			continue
		}
		if flt.BookedBy != nil && (s.BookedBy == nil || *s.BookedBy != *flt.BookedBy) {
			continue
		}
		out = append(out, f.withStadium(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (f fakeSessions) Delete(_ context.Context, id uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.sessions[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(f.db.sessions, id)
	return nil
}

func (f fakeSessions) Book(_ context.Context, id, userID uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if s.Status != model.SessionAvailable {
		return repository.ErrConflict
	}
	s.Status = model.SessionBooked
	s.BookedBy = &userID
	f.db.sessions[id] = s
	return nil
}

func (f fakeSessions) Release(_ context.Context, id, bookedBy uint64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.sessions[id]
	if !ok {
		return repository.ErrSessionNotFound
	}
	if s.Status != model.SessionBooked || s.BookedBy == nil || *s.BookedBy != bookedBy {
		return repository.ErrConflict
	}
	s.Status = model.SessionAvailable
	s.BookedBy = nil
	f.db.sessions[id] = s
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.SessionEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev queue.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
