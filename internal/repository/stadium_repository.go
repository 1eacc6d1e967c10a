package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goaltime/goaltime/internal/model"
)

const stadiumColumns = "id, name, location, capacity, amenities, created_at, updated_at"

// StadiumRepo persists venues in the `stadiums` table.
type StadiumRepo struct {
	db *sql.DB
}

// NewStadiumRepo constructs a StadiumRepo with the given DB handle.
func NewStadiumRepo(db *sql.DB) *StadiumRepo {
	return &StadiumRepo{db: db}
}

func scanStadium(s rowScanner) (*model.Stadium, error) {
	var (
		st  model.Stadium
		raw []byte
	)
	if err := s.Scan(&st.ID, &st.Name, &st.Location, &st.Capacity, &raw, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	amenities, err := decodeAmenities(raw)
	if err != nil {
		return nil, err
	}
	st.Amenities = amenities
	return &st, nil
}

func decodeAmenities(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode amenities: %w", err)
	}
	return out, nil
}

func encodeAmenities(a []string) (string, error) {
	if a == nil {
		a = []string{}
	}
	b, err := json.Marshal(a)
	return string(b), err
}

// Create inserts a stadium and populates its ID and timestamps.  A name
// collision returns ErrDuplicate.
func (r *StadiumRepo) Create(ctx context.Context, st *model.Stadium) error {
	amenities, err := encodeAmenities(st.Amenities)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO stadiums (name, location, capacity, amenities) VALUES (?, ?, ?, ?)`,
		st.Name, st.Location, st.Capacity, amenities)
	if err != nil {
		if _, dup := duplicateKey(err); dup {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*st = *created
	return nil
}

// GetByID retrieves a stadium or ErrStadiumNotFound.
func (r *StadiumRepo) GetByID(ctx context.Context, id uint64) (*model.Stadium, error) {
	st, err := scanStadium(r.db.QueryRowContext(ctx,
		"SELECT "+stadiumColumns+" FROM stadiums WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStadiumNotFound
	}
	return st, err
}

// List returns the stadiums matching every constraint of f, ordered by
// name.  The amenity constraint uses JSON_CONTAINS so a stadium matches
// only when it carries all requested tags.
func (r *StadiumRepo) List(ctx context.Context, f model.StadiumFilter) ([]model.Stadium, error) {
	where := []string{}
	args := []any{}

	if f.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, likePattern(f.Name))
	}
	if f.Location != "" {
		where = append(where, "LOWER(location) LIKE ?")
		args = append(args, likePattern(f.Location))
	}
	if f.MinCapacity != nil {
		where = append(where, "capacity >= ?")
		args = append(args, *f.MinCapacity)
	}
	if f.MaxCapacity != nil {
		where = append(where, "capacity <= ?")
		args = append(args, *f.MaxCapacity)
	}
	if len(f.Amenities) > 0 {
		want, err := encodeAmenities(f.Amenities)
		if err != nil {
			return nil, err
		}
		where = append(where, "JSON_CONTAINS(amenities, ?)")
		args = append(args, want)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+stadiumColumns+" FROM stadiums WHERE "+cond+" ORDER BY name ASC, id ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Stadium{}
	for rows.Next() {
		st, err := scanStadium(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}

// Update writes the mutable columns of st and reloads it.
func (r *StadiumRepo) Update(ctx context.Context, st *model.Stadium) error {
	amenities, err := encodeAmenities(st.Amenities)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE stadiums SET name = ?, location = ?, capacity = ?, amenities = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		st.Name, st.Location, st.Capacity, amenities, st.ID); err != nil {
		if _, dup := duplicateKey(err); dup {
			return ErrDuplicate
		}
		return err
	}
	updated, err := r.GetByID(ctx, st.ID)
	if err != nil {
		return err
	}
	*st = *updated
	return nil
}

// Delete removes a stadium together with its sessions.  The stadium row
// is locked first so no session can be booked or inserted concurrently.
// If any session is still BOOKED the deletion is aborted with
// ErrConflict.
func (r *StadiumRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockStadium(ctx, tx, id); err != nil {
			return err
		}
		var booked int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sessions WHERE stadium_id = ? AND status = ?`,
			id, model.SessionBooked).Scan(&booked); err != nil {
			return err
		}
		if booked > 0 {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE stadium_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM stadiums WHERE id = ?`, id)
		return err
	})
}

// lockStadium takes a row lock on the stadium for the rest of tx.  Every
// write that can affect the sessions of a stadium goes through it, which
// serializes overlap checks per stadium.
func lockStadium(ctx context.Context, tx *sql.Tx, id uint64) error {
	var got uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM stadiums WHERE id = ? FOR UPDATE`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrStadiumNotFound
	}
	return err
}
