package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// withTx runs fn inside a transaction.  The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is returned as-is so
// callers can match sentinels with errors.Is.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()
	return fn(tx)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// likePattern builds a lower-cased substring pattern for LIKE, escaping
// the wildcard characters of the search term.  Callers compare it against
// LOWER(column).
func likePattern(term string) string {
	r := []rune{}
	for _, c := range strings.ToLower(term) {
		if c == '%' || c == '_' || c == '\\' {
			r = append(r, '\\')
		}
		r = append(r, c)
	}
	return "%" + string(r) + "%"
}
