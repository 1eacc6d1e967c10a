// Package repository contains data access logic for the GoalTime domain.
// This file holds the session repository.  A Session is a bookable time
// slot on a stadium for one calendar date; the repository is responsible
// for keeping non-cancelled sessions of a stadium from overlapping, which
// it does by serializing writes on the owning stadium row.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goaltime/goaltime/internal/model"
)

// sessionSelect joins the owning stadium so every read returns the
// session with its stadium embedded.
const sessionSelect = `SELECT s.id, s.stadium_id, s.date, s.start_time, s.end_time, s.price, s.status, s.booked_by,
       s.created_at, s.updated_at,
       st.id, st.name, st.location, st.capacity, st.amenities, st.created_at, st.updated_at
FROM sessions s
JOIN stadiums st ON st.id = s.stadium_id`

// SessionRepo manages persistence for sessions.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo with the given DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func scanSession(s rowScanner) (*model.Session, error) {
	var (
		out      model.Session
		st       model.Stadium
		date     time.Time
		bookedBy sql.NullInt64
		raw      []byte
	)
	if err := s.Scan(
		&out.ID, &out.StadiumID, &date, &out.StartTime, &out.EndTime, &out.Price, &out.Status, &bookedBy,
		&out.CreatedAt, &out.UpdatedAt,
		&st.ID, &st.Name, &st.Location, &st.Capacity, &raw, &st.CreatedAt, &st.UpdatedAt,
	); err != nil {
		return nil, err
	}
	amenities, err := decodeAmenities(raw)
	if err != nil {
		return nil, err
	}
	st.Amenities = amenities
	out.Date = date.Format(model.DateLayout)
	out.StartTime = clock(out.StartTime)
	out.EndTime = clock(out.EndTime)
	if bookedBy.Valid {
		id := uint64(bookedBy.Int64)
		out.BookedBy = &id
	}
	out.Stadium = &st
	return &out, nil
}

// clock trims a MySQL TIME value ("10:00:00") to HH:MM.
func clock(v string) string {
	if len(v) >= 5 {
		return v[:5]
	}
	return v
}

// GetByID retrieves a session with its stadium, or ErrSessionNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, sessionSelect+" WHERE s.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// List returns sessions matching every set field of f, ordered by date
// and start time.
func (r *SessionRepo) List(ctx context.Context, f model.SessionFilter) ([]model.Session, error) {
	where := []string{}
	args := []any{}
	if f.StadiumID != 0 {
		where = append(where, "s.stadium_id = ?")
		args = append(args, f.StadiumID)
	}
	if f.Date != "" {
		where = append(where, "s.date = ?")
		args = append(args, f.Date)
	}
	if f.Status != "" {
		where = append(where, "s.status = ?")
		args = append(args, f.Status)
	}
	if f.BookedBy != nil {
		where = append(where, "s.booked_by = ?")
		args = append(args, *f.BookedBy)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx,
		sessionSelect+" WHERE "+cond+" ORDER BY s.date ASC, s.start_time ASC, s.id ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// CreateExclusive inserts s unless it overlaps another non-cancelled
// session of the same stadium and date.  The check and the insert run in
// one transaction holding the stadium row lock, so two concurrent
// creates cannot both pass the check.  Returns ErrStadiumNotFound when
// the stadium does not exist and ErrOverlap on a clash.
func (r *SessionRepo) CreateExclusive(ctx context.Context, s *model.Session) error {
	var id int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockStadium(ctx, tx, s.StadiumID); err != nil {
			return err
		}
		if err := checkOverlap(ctx, tx, s); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (stadium_id, date, start_time, end_time, price, status, booked_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.StadiumID, s.Date, s.StartTime, s.EndTime, s.Price, s.Status, s.BookedBy)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*s = *created
	return nil
}

// UpdateExclusive writes s, re-checking the overlap rule against every
// other session of the target stadium and date.
func (r *SessionRepo) UpdateExclusive(ctx context.Context, s *model.Session) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockStadium(ctx, tx, s.StadiumID); err != nil {
			return err
		}
		var got uint64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM sessions WHERE id = ? FOR UPDATE`, s.ID).Scan(&got); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSessionNotFound
			}
			return err
		}
		if err := checkOverlap(ctx, tx, s); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE sessions
			 SET stadium_id = ?, date = ?, start_time = ?, end_time = ?, price = ?, status = ?, booked_by = ?,
			     updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			s.StadiumID, s.Date, s.StartTime, s.EndTime, s.Price, s.Status, s.BookedBy, s.ID)
		return err
	})
	if err != nil {
		return err
	}
	updated, err := r.GetByID(ctx, s.ID)
	if err != nil {
		return err
	}
	*s = *updated
	return nil
}

// checkOverlap returns ErrOverlap when another non-cancelled session of
// the stadium on the same date shares any instant with s.  Intervals are
// half-open, so touching endpoints do not clash.  Cancelled sessions are
// never checked.
func checkOverlap(ctx context.Context, tx *sql.Tx, s *model.Session) error {
	if s.Status == model.SessionCancelled {
		return nil
	}
	const q = `SELECT COUNT(*) FROM sessions
               WHERE stadium_id = ? AND date = ? AND id <> ? AND status <> ?
                 AND NOT (end_time <= ? OR start_time >= ?)`
	var n int
	if err := tx.QueryRowContext(ctx, q,
		s.StadiumID, s.Date, s.ID, model.SessionCancelled, s.StartTime, s.EndTime).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrOverlap
	}
	return nil
}

// Delete removes a session.
func (r *SessionRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Book moves an AVAILABLE session to BOOKED for userID.  The status
// guard in the UPDATE makes concurrent bookings of one slot race-free:
// only one of them can match the row.
func (r *SessionRepo) Book(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, booked_by = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ?`,
		model.SessionBooked, userID, id, model.SessionAvailable)
	if err != nil {
		return err
	}
	return r.transitioned(ctx, res, id)
}

// Release returns a session booked by bookedBy to AVAILABLE.
func (r *SessionRepo) Release(ctx context.Context, id, bookedBy uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, booked_by = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND status = ? AND booked_by = ?`,
		model.SessionAvailable, id, model.SessionBooked, bookedBy)
	if err != nil {
		return err
	}
	return r.transitioned(ctx, res, id)
}

// transitioned tells a guarded UPDATE that matched nothing apart: the
// row is either gone (ErrSessionNotFound) or in another state
// (ErrConflict).
func (r *SessionRepo) transitioned(ctx context.Context, res sql.Result, id uint64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}
