package models

import "database/sql"

// Word is a Russian→English pair. OwnerID is NULL for global words.
type Word struct {
	ID         int64          `json:"id" db:"id"`
	SourceTerm string         `json:"source_term" db:"source_term"`
	TargetTerm string         `json:"target_term" db:"target_term"`
	Example    sql.NullString `json:"example" db:"example"`
	OwnerID    sql.NullInt64  `json:"owner_id" db:"owner_id"`
}

// IsGlobal reports whether the word belongs to the shared catalog.
func (w Word) IsGlobal() bool {
	return !w.OwnerID.Valid
}

// OwnedBy reports whether userID authored the word.
func (w Word) OwnedBy(userID int64) bool {
	return w.OwnerID.Valid && w.OwnerID.Int64 == userID
}

// ExampleText returns the usage example or an empty string.
func (w Word) ExampleText() string {
	if !w.Example.Valid {
		return ""
	}
	return w.Example.String
}
