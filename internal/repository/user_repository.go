package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/goaltime/goaltime/internal/model"
)

const userColumns = "id, username, email, password_hash, phone_number, birth_date, is_active, role, created_at, updated_at"

// UserRepo persists accounts in the `users` table.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u     model.User
		phone sql.NullString
		birth sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &phone, &birth,
		&u.IsActive, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if phone.Valid {
		u.PhoneNumber = &phone.String
	}
	if birth.Valid {
		t := birth.Time
		u.BirthDate = &t
	}
	return &u, nil
}

// Create inserts the user and fills in the generated ID and timestamps.
// Email is stored lower-cased. Unique collisions surface as
// ErrEmailExists or ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, phone_number, birth_date, is_active, role)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.PhoneNumber, u.BirthDate, u.IsActive, u.Role)
	if err != nil {
		return userDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*u = *created
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// Update writes every mutable column of u.  The caller merges partial
// changes beforehand.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, email = ?, password_hash = ?, phone_number = ?, birth_date = ?,
		     is_active = ?, role = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		u.Username, u.Email, u.PasswordHash, u.PhoneNumber, u.BirthDate, u.IsActive, u.Role, u.ID)
	if err != nil {
		return userDuplicate(err)
	}
	// RowsAffected is 0 for unchanged rows as well, so re-read to tell
	// "no change" from "gone".
	updated, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *updated
	return nil
}

// Delete removes the user.  Sessions the user had booked are released
// back to AVAILABLE in the same transaction.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET status = ?, booked_by = NULL WHERE booked_by = ? AND status = ?`,
			model.SessionAvailable, id, model.SessionBooked); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// Search returns users whose username or email contains term,
// case-insensitively, ordered by username.
func (r *UserRepo) Search(ctx context.Context, term string) ([]model.User, error) {
	p := likePattern(strings.TrimSpace(term))
	return r.query(ctx,
		"SELECT "+userColumns+" FROM users WHERE LOWER(username) LIKE ? OR LOWER(email) LIKE ? ORDER BY username ASC, id ASC",
		p, p)
}

// List returns users matching every set field of f.  Username and email
// match as case-insensitive substrings.
func (r *UserRepo) List(ctx context.Context, f model.UserFilter) ([]model.User, error) {
	where := []string{}
	args := []any{}
	if f.Role != "" {
		where = append(where, "role = ?")
		args = append(args, f.Role)
	}
	if f.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	if f.Username != "" {
		where = append(where, "LOWER(username) LIKE ?")
		args = append(args, likePattern(f.Username))
	}
	if f.Email != "" {
		where = append(where, "LOWER(email) LIKE ?")
		args = append(args, likePattern(f.Email))
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}
	return r.query(ctx, "SELECT "+userColumns+" FROM users WHERE "+cond+" ORDER BY username ASC, id ASC", args...)
}

func (r *UserRepo) query(ctx context.Context, q string, args ...any) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
