package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// SeedWord is a global catalog entry
type SeedWord struct {
	Source  string
	Target  string
	Example string
}

// DefaultWords returns the built-in global catalog
func DefaultWords() []SeedWord {
	return []SeedWord{
		{Source: "Мир", Target: "World", Example: "Peace in the world is everything."},
		{Source: "Любовь", Target: "Love", Example: "Love for knowledge inspires."},
		{Source: "Дружба", Target: "Friendship", Example: "Friendship is a treasure."},
		{Source: "Природа", Target: "Nature", Example: "Nature inspires creativity."},
		{Source: "Приключение", Target: "Adventure", Example: "Adventures broaden horizons."},
		{Source: "Успех", Target: "Success", Example: "Success is the result of hard work and perseverance."},
		{Source: "Испытание", Target: "Challenge", Example: "Challenges make us stronger."},
		{Source: "Мечта", Target: "Dream", Example: "Dreams become bright realities."},
		{Source: "Смелость", Target: "Courage", Example: "Courage is the key to new opportunities."},
		{Source: "Знание", Target: "Knowledge", Example: "Knowledge is power and freedom."},
	}
}

// Seed inserts global words that are not in the catalog yet and returns how
// many rows were added. Running it twice is a no-op.
func Seed(ctx context.Context, db *sqlx.DB, words []SeedWord) (int, error) {
	query := db.Rebind(`
		INSERT INTO words (source_term, target_term, source_key, target_key, example)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)

	inserted := 0
	err := withTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, w := range words {
			source := strings.TrimSpace(w.Source)
			target := strings.TrimSpace(w.Target)
			if source == "" || target == "" {
				continue
			}

			example := sql.NullString{String: strings.TrimSpace(w.Example)}
			example.Valid = example.String != ""

			res, err := tx.ExecContext(ctx, query, source, target, termKey(source), termKey(target), example)
			if err != nil {
				return fmt.Errorf("failed to seed word %q: %w", source, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, storeErr("seed words", err)
	}

	return inserted, nil
}
