package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrStoreUnavailable wraps every driver or transport failure
	ErrStoreUnavailable = errors.New("word store unavailable")
	// ErrDuplicateWord is returned when the pair already exists in any case
	ErrDuplicateWord = errors.New("word already exists")
	// ErrWordNotFound is returned when no matching word is assigned to the user
	ErrWordNotFound = errors.New("word not found")
	// ErrEmptyTerm is returned for blank source or target terms
	ErrEmptyTerm = errors.New("term must be non-empty")
)

// storeErr tags a driver error as a store failure, keeping the cause.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrDuplicateWord) ||
		errors.Is(err, ErrWordNotFound) || errors.Is(err, ErrEmptyTerm) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// isUniqueViolation reports a unique/primary key conflict for either driver
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	return false
}

// termKey folds a term for case-insensitive comparison
func termKey(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// withTx runs fn in a transaction and commits only when fn succeeds
func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
