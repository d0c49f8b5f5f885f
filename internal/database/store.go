package database

import "github.com/jmoiron/sqlx"

// Store bundles the catalog and progress repositories over one connection
type Store struct {
	*WordRepository
	*ProgressRepository

	db *sqlx.DB
}

// NewStore creates repositories backed by db
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		WordRepository:     NewWordRepository(db),
		ProgressRepository: NewProgressRepository(db),
		db:                 db,
	}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
