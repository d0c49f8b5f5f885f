package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/wordcards/pkg/models"
	"github.com/jmoiron/sqlx"
)

// ProgressRepository handles assignments and guessed records
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// NextCandidate picks a random eligible word the user hasn't guessed yet.
// ok is false when every eligible word is guessed.
func (r *ProgressRepository) NextCandidate(ctx context.Context, userID int64) (word models.Word, ok bool, err error) {
	query := r.db.Rebind(`
		SELECT ` + wordColumns + `
		FROM words w
		WHERE ` + eligibleClause + `
			AND NOT EXISTS (
				SELECT 1 FROM guessed_words g WHERE g.word_id = w.id AND g.user_id = ?
			)
		ORDER BY RANDOM()
		LIMIT 1
	`)

	err = r.db.GetContext(ctx, &word, query, userID, userID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Word{}, false, nil
	}
	if err != nil {
		return models.Word{}, false, storeErr("next candidate", err)
	}
	return word, true, nil
}

// MarkAssigned records that the word was shown to the user. Idempotent.
func (r *ProgressRepository) MarkAssigned(ctx context.Context, userID, wordID int64) error {
	return storeErr("mark assigned", assign(ctx, r.db, userID, wordID))
}

// MarkGuessed records a correct answer. Idempotent, and a no-op for words
// that were never assigned to the user.
func (r *ProgressRepository) MarkGuessed(ctx context.Context, userID, wordID int64) error {
	query := r.db.Rebind(`
		INSERT INTO guessed_words (user_id, word_id)
		SELECT CAST(? AS BIGINT), CAST(? AS BIGINT)
		WHERE EXISTS (SELECT 1 FROM assignments WHERE user_id = ? AND word_id = ?)
		ON CONFLICT (user_id, word_id) DO NOTHING
	`)

	_, err := r.db.ExecContext(ctx, query, userID, wordID, userID, wordID)
	return storeErr("mark guessed", err)
}

// ResetProgress clears every guessed record of the user. Assignments stay,
// so custom words assigned earlier remain eligible.
func (r *ProgressRepository) ResetProgress(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM guessed_words WHERE user_id = ?"), userID)
	return storeErr("reset progress", err)
}

// CountAssigned returns how many words the user is learning
func (r *ProgressRepository) CountAssigned(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind("SELECT COUNT(*) FROM assignments WHERE user_id = ?"), userID)
	if err != nil {
		return 0, storeErr("count assignments", err)
	}
	return n, nil
}

// CountGuessed returns how many words the user guessed since the last restart
func (r *ProgressRepository) CountGuessed(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind("SELECT COUNT(*) FROM guessed_words WHERE user_id = ?"), userID)
	if err != nil {
		return 0, storeErr("count guessed", err)
	}
	return n, nil
}

func assign(ctx context.Context, q sqlx.ExtContext, userID, wordID int64) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO assignments (user_id, word_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, word_id) DO NOTHING
	`), userID, wordID)
	return err
}
