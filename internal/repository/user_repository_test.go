package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goaltime/goaltime/internal/model"
)

var userCols = []string{"id", "username", "email", "password_hash", "phone_number", "birth_date", "is_active", "role", "created_at", "updated_at"}

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func TestUserGetByEmailNormalizes(t *testing.T) {
	repo, mock := newUserRepo(t)
	now := time.Now().UTC()
	birth := time.Date(1990, 3, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("sam@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(1), "sam", "sam@example.com", "$2a$hash", "+100", birth, true, model.RoleUser, now, now))

	u, err := repo.GetByEmail(context.Background(), "  Sam@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "sam", u.Username)
	require.NotNil(t, u.PhoneNumber)
	assert.Equal(t, "+100", *u.PhoneNumber)
	require.NotNil(t, u.BirthDate)
	assert.Equal(t, birth, *u.BirthDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByEmailMissing(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserCreateMapsDuplicateKeys(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'sam' for key 'users.uq_users_username'"})
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'sam@example.com' for key 'users.uq_users_email'"})

	u := &model.User{Username: "sam", Email: "sam@example.com", PasswordHash: "h", Role: model.RoleUser, IsActive: true}
	assert.ErrorIs(t, repo.Create(context.Background(), u), ErrUsernameExists)
	assert.ErrorIs(t, repo.Create(context.Background(), u), ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSearchEscapesWildcards(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(username) LIKE ? OR LOWER(email) LIKE ?")).
		WithArgs(`%sa\_m%`, `%sa\_m%`).
		WillReturnRows(sqlmock.NewRows(userCols))

	out, err := repo.Search(context.Background(), " SA_M ")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListFilters(t *testing.T) {
	repo, mock := newUserRepo(t)
	active := false
	mock.ExpectQuery(regexp.QuoteMeta("WHERE role = ? AND is_active = ? AND LOWER(email) LIKE ?")).
		WithArgs(model.RoleAdmin, false, "%@goaltime%").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.List(context.Background(), model.UserFilter{Role: model.RoleAdmin, IsActive: &active, Email: "@GoalTime"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteReleasesBookings(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET status = ?, booked_by = NULL WHERE booked_by = ? AND status = ?")).
		WithArgs(model.SessionAvailable, 3, model.SessionBooked).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteMissing(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), 99), ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
