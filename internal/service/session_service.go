package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goaltime/goaltime/internal/logger"
	"github.com/goaltime/goaltime/internal/metrics"
	"github.com/goaltime/goaltime/internal/model"
	"github.com/goaltime/goaltime/internal/queue"
	"github.com/goaltime/goaltime/internal/repository"
)

const (
	msgOverlap       = "Session overlaps with an existing one"
	msgBadInterval   = "startTime must be earlier than endTime"
	msgNegativePrice = "Price cannot be negative"
)

// SessionService manages bookable time slots.  The store guarantees that
// non-cancelled sessions of one stadium never overlap on a date.
type SessionService struct {
	sessions SessionStore
	events   EventPublisher
}

// NewSessionService wires the session service.  events may be nil, in
// which case booking changes are not published.
func NewSessionService(sessions SessionStore, events EventPublisher) *SessionService {
	return &SessionService{sessions: sessions, events: events}
}

// SessionInput is the create-session payload.
type SessionInput struct {
	StadiumID uint64
	Date      string
	StartTime string
	EndTime   string
	Price     float64
	Status    string
}

// Create validates and stores a session.  Checks run in a fixed order:
// format and interval, price, stadium existence, overlap.
func (s *SessionService) Create(ctx context.Context, in SessionInput) (model.Session, error) {
	sess := model.Session{
		StadiumID: in.StadiumID,
		Price:     in.Price,
		Status:    strings.ToUpper(strings.TrimSpace(in.Status)),
	}
	if sess.Status == "" {
		sess.Status = model.SessionAvailable
	}
	var err error
	if sess.Date, err = model.NormalizeDate(strings.TrimSpace(in.Date)); err != nil {
		return model.Session{}, Validation("%s", err.Error())
	}
	if sess.StartTime, err = model.NormalizeClock(strings.TrimSpace(in.StartTime)); err != nil {
		return model.Session{}, Validation("%s", err.Error())
	}
	if sess.EndTime, err = model.NormalizeClock(strings.TrimSpace(in.EndTime)); err != nil {
		return model.Session{}, Validation("%s", err.Error())
	}
	if err := validateSession(sess); err != nil {
		return model.Session{}, err
	}
	if sess.Status == model.SessionBooked {
		return model.Session{}, Validation("sessions are booked through the booking endpoint")
	}

	if err := s.sessions.CreateExclusive(ctx, &sess); err != nil {
		return model.Session{}, sessionWriteError(err, in.StadiumID)
	}
	return sess, nil
}

// Update applies the present fields of p and re-runs every session rule,
// including the overlap check against the other sessions of the target
// stadium and date.
func (s *SessionService) Update(ctx context.Context, id uint64, p model.SessionPatch) (model.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}

	if p.StartTime.Present() && p.EndTime.Present() {
		start, errS := model.NormalizeClock(strings.TrimSpace(p.StartTime.Value))
		end, errE := model.NormalizeClock(strings.TrimSpace(p.EndTime.Value))
		if errS == nil && errE == nil && start >= end {
			return model.Session{}, Validation(msgBadInterval)
		}
	}
	if p.Price.Present() && p.Price.Value < 0 {
		return model.Session{}, Validation(msgNegativePrice)
	}

	if p.StadiumID.Set {
		if !p.StadiumID.Present() || p.StadiumID.Value == 0 {
			return model.Session{}, Validation("stadium_id cannot be empty")
		}
		sess.StadiumID = p.StadiumID.Value
	}
	if p.Date.Set {
		if sess.Date, err = model.NormalizeDate(strings.TrimSpace(p.Date.Value)); err != nil || !p.Date.Present() {
			return model.Session{}, Validation("date must be YYYY-MM-DD")
		}
	}
	if p.StartTime.Set {
		if sess.StartTime, err = model.NormalizeClock(strings.TrimSpace(p.StartTime.Value)); err != nil || !p.StartTime.Present() {
			return model.Session{}, Validation("start_time must be HH:MM")
		}
	}
	if p.EndTime.Set {
		if sess.EndTime, err = model.NormalizeClock(strings.TrimSpace(p.EndTime.Value)); err != nil || !p.EndTime.Present() {
			return model.Session{}, Validation("end_time must be HH:MM")
		}
	}
	if p.Price.Set {
		if !p.Price.Present() {
			return model.Session{}, Validation("price cannot be null")
		}
		sess.Price = p.Price.Value
	}
	if p.Status.Set {
		status := strings.ToUpper(strings.TrimSpace(p.Status.Value))
		if !p.Status.Present() || !model.ValidSessionStatus(status) {
			return model.Session{}, Validation("status must be AVAILABLE, BOOKED or CANCELLED")
		}
		if status == model.SessionBooked && sess.Status != model.SessionBooked {
			return model.Session{}, Validation("sessions are booked through the booking endpoint")
		}
		sess.Status = status
	}
	if sess.Status != model.SessionBooked {
		sess.BookedBy = nil
	}
	if err := validateSession(sess); err != nil {
		return model.Session{}, err
	}

	sess.Stadium = nil
	if err := s.sessions.UpdateExclusive(ctx, &sess); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return model.Session{}, NotFound("Session not found")
		}
		return model.Session{}, sessionWriteError(err, sess.StadiumID)
	}
	return sess, nil
}

// Remove deletes session id.
func (s *SessionService) Remove(ctx context.Context, id uint64) error {
	err := s.sessions.Delete(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return NotFound("Session not found")
	}
	return err
}

// List returns sessions matching f with their stadium embedded.
func (s *SessionService) List(ctx context.Context, f model.SessionFilter) ([]model.Session, error) {
	if f.Date != "" {
		d, err := model.NormalizeDate(strings.TrimSpace(f.Date))
		if err != nil {
			return nil, Validation("%s", err.Error())
		}
		f.Date = d
	}
	if f.Status != "" {
		f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
		if !model.ValidSessionStatus(f.Status) {
			return nil, Validation("status must be AVAILABLE, BOOKED or CANCELLED")
		}
	}
	return s.sessions.List(ctx, f)
}

// Get returns session id with its stadium, or a NotFoundError.
func (s *SessionService) Get(ctx context.Context, id uint64) (model.Session, error) {
	sess, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return model.Session{}, NotFound("Session not found")
	}
	if err != nil {
		return model.Session{}, err
	}
	return *sess, nil
}

// Book reserves an AVAILABLE session for actor.
func (s *SessionService) Book(ctx context.Context, id uint64, actor model.UserView) (model.Session, error) {
	err := s.sessions.Book(ctx, id, actor.ID)
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		metrics.RecordTransition("book", "not_found")
		return model.Session{}, NotFound("Session not found")
	case errors.Is(err, repository.ErrConflict):
		metrics.RecordTransition("book", "conflict")
		return model.Session{}, Conflict("Session is not available")
	case err != nil:
		return model.Session{}, err
	}
	metrics.RecordTransition("book", "ok")

	sess, err := s.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	s.publish(ctx, queue.EventSessionBooked, sess, actor.ID)
	return sess, nil
}

// Release returns a BOOKED session to AVAILABLE.  Only the user holding
// the booking or an admin may release it.
func (s *SessionService) Release(ctx context.Context, id uint64, actor model.UserView) (model.Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	if sess.Status != model.SessionBooked || sess.BookedBy == nil {
		metrics.RecordTransition("release", "conflict")
		return model.Session{}, Conflict("Session is not booked")
	}
	booker := *sess.BookedBy
	if !actor.IsAdmin() && booker != actor.ID {
		metrics.RecordTransition("release", "forbidden")
		return model.Session{}, Authz("Only the booking user or an admin can release this session")
	}

	err = s.sessions.Release(ctx, id, booker)
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		return model.Session{}, NotFound("Session not found")
	case errors.Is(err, repository.ErrConflict):
		metrics.RecordTransition("release", "conflict")
		return model.Session{}, Conflict("Session is not booked")
	case err != nil:
		return model.Session{}, err
	}
	metrics.RecordTransition("release", "ok")

	released, err := s.Get(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	s.publish(ctx, queue.EventSessionReleased, released, booker)
	return released, nil
}

// ListMine returns the sessions actor currently holds.
func (s *SessionService) ListMine(ctx context.Context, actor model.UserView) ([]model.Session, error) {
	id := actor.ID
	return s.sessions.List(ctx, model.SessionFilter{BookedBy: &id})
}

// publish emits a booking event.  Broker failures are logged and never
// fail the request that caused them.
func (s *SessionService) publish(ctx context.Context, eventType string, sess model.Session, userID uint64) {
	if s.events == nil {
		return
	}
	ev := queue.NewSessionEvent(eventType)
	ev.SessionID = sess.ID
	ev.StadiumID = sess.StadiumID
	if sess.Stadium != nil {
		ev.StadiumName = sess.Stadium.Name
	}
	ev.UserID = userID
	ev.Date = sess.Date
	ev.StartTime = sess.StartTime
	ev.EndTime = sess.EndTime
	ev.Price = sess.Price

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("event", eventType).Uint64("session_id", sess.ID).Msg("session event not published")
	}
}

func validateSession(sess model.Session) error {
	if sess.StadiumID == 0 {
		return Validation("stadium_id is required")
	}
	if sess.StartTime >= sess.EndTime {
		return Validation(msgBadInterval)
	}
	if sess.Price < 0 {
		return Validation(msgNegativePrice)
	}
	if sess.Price > model.MaxPrice {
		return Validation("price must be at most %.2f", model.MaxPrice)
	}
	if !model.ValidSessionStatus(sess.Status) {
		return Validation("status must be AVAILABLE, BOOKED or CANCELLED")
	}
	return nil
}

func sessionWriteError(err error, stadiumID uint64) error {
	switch {
	case errors.Is(err, repository.ErrStadiumNotFound):
		return stadiumNotFound(stadiumID)
	case errors.Is(err, repository.ErrOverlap):
		return Conflict(msgOverlap)
	}
	return err
}
