// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services to distinguish between different failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Not-found sentinels, one per table.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrStadiumNotFound = errors.New("stadium not found")
	ErrSessionNotFound = errors.New("session not found")
)

// ErrEmailExists and ErrUsernameExists are returned when an insert or
// update collides with the unique keys of the users table.
var (
	ErrEmailExists    = errors.New("email already exists")
	ErrUsernameExists = errors.New("username already exists")
)

// ErrDuplicate is returned for unique key violations on other tables
// (stadium names).
var ErrDuplicate = errors.New("duplicate entry")

// ErrOverlap is returned when a session write would overlap another
// non-cancelled session of the same stadium on the same date.
var ErrOverlap = errors.New("session overlaps an existing one")

// ErrConflict is returned when a delete or state transition cannot be
// performed because of conflicting state, such as deleting a stadium
// that still has booked sessions or booking a session that is no
// longer available.
var ErrConflict = errors.New("conflict")

const mysqlDuplicateKey = 1062

// duplicateKey reports whether err is a MySQL unique key violation and,
// when it is, returns the driver message naming the offending key.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlDuplicateKey {
		return me.Message, true
	}
	return "", false
}

// userDuplicate maps a users-table unique violation onto the sentinel of
// the column that collided.
func userDuplicate(err error) error {
	msg, ok := duplicateKey(err)
	if !ok {
		return err
	}
	if strings.Contains(msg, "uq_users_username") {
		return ErrUsernameExists
	}
	return ErrEmailExists
}
