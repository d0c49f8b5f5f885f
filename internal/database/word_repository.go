package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/wordcards/pkg/models"
	"github.com/jmoiron/sqlx"
)

const wordColumns = "w.id, w.source_term, w.target_term, w.example, w.owner_id"

// eligibleClause selects words visible to a user: global, owned by the user,
// or already assigned to the user. Takes the user id twice.
const eligibleClause = `(w.owner_id IS NULL OR w.owner_id = ? OR EXISTS (
	SELECT 1 FROM assignments a WHERE a.word_id = w.id AND a.user_id = ?
))`

// WordRepository handles database operations for the word catalog
type WordRepository struct {
	db *sqlx.DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *sqlx.DB) *WordRepository {
	return &WordRepository{db: db}
}

// ListEligible returns every word the user can be quizzed on
func (r *WordRepository) ListEligible(ctx context.Context, userID int64) ([]models.Word, error) {
	query := r.db.Rebind("SELECT " + wordColumns + " FROM words w WHERE " + eligibleClause + " ORDER BY w.id")

	var words []models.Word
	if err := r.db.SelectContext(ctx, &words, query, userID, userID); err != nil {
		return nil, storeErr("list eligible words", err)
	}
	return words, nil
}

// SampleDistractors returns up to n distinct target terms other than
// excludeTerm in random order, regardless of who owns the words
func (r *WordRepository) SampleDistractors(ctx context.Context, excludeTerm string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	query := r.db.Rebind(`
		SELECT t FROM (
			SELECT DISTINCT target_term AS t FROM words WHERE target_term <> ?
		) d
		ORDER BY RANDOM()
		LIMIT ?
	`)

	var terms []string
	if err := r.db.SelectContext(ctx, &terms, query, excludeTerm, n); err != nil {
		return nil, storeErr("sample distractors", err)
	}
	return terms, nil
}

// AddWord inserts a word owned by ownerID. The duplicate check is
// case-insensitive and catalog-wide.
func (r *WordRepository) AddWord(ctx context.Context, source, target string, ownerID int64) (models.Word, error) {
	word, err := insertWord(ctx, r.db, source, target, sql.NullInt64{Int64: ownerID, Valid: true})
	if err != nil {
		return models.Word{}, storeErr("add word", err)
	}
	return word, nil
}

// AddOwnedWord inserts a user's word and assigns it to them atomically
func (r *WordRepository) AddOwnedWord(ctx context.Context, userID int64, source, target string) (models.Word, error) {
	var word models.Word
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		word, err = insertWord(ctx, tx, source, target, sql.NullInt64{Int64: userID, Valid: true})
		if err != nil {
			return err
		}
		return assign(ctx, tx, userID, word.ID)
	})
	if err != nil {
		return models.Word{}, storeErr("add owned word", err)
	}
	return word, nil
}

// RemoveWord deletes a word together with every assignment and guessed
// record that references it
func (r *WordRepository) RemoveWord(ctx context.Context, wordID int64) error {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return removeWord(ctx, tx, wordID)
	})
	return storeErr("remove word", err)
}

// FindAssignedByTarget looks up a word with the given target term
// (case-insensitive) that is assigned to the user. Words the user owns win
// over global ones.
func (r *WordRepository) FindAssignedByTarget(ctx context.Context, userID int64, target string) (models.Word, error) {
	word, err := findAssignedByTarget(ctx, r.db, userID, target)
	if err != nil {
		return models.Word{}, storeErr("find word", err)
	}
	return word, nil
}

// DeleteLearnedWord removes a word from the user's vocabulary. A word the
// user owns is deleted from the catalog; any other word is only detached
// from the user. Returns the affected word.
func (r *WordRepository) DeleteLearnedWord(ctx context.Context, userID int64, target string) (models.Word, error) {
	var word models.Word
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		word, err = findAssignedByTarget(ctx, tx, userID, target)
		if err != nil {
			return err
		}

		if word.OwnedBy(userID) {
			return removeWord(ctx, tx, word.ID)
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM guessed_words WHERE user_id = ? AND word_id = ?"), userID, word.ID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM assignments WHERE user_id = ? AND word_id = ?"), userID, word.ID)
		return err
	})
	if err != nil {
		return models.Word{}, storeErr("delete learned word", err)
	}
	return word, nil
}

// Count returns the catalog size
func (r *WordRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM words"); err != nil {
		return 0, storeErr("count words", err)
	}
	return n, nil
}

func insertWord(ctx context.Context, q sqlx.ExtContext, source, target string, owner sql.NullInt64) (models.Word, error) {
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if source == "" || target == "" {
		return models.Word{}, ErrEmptyTerm
	}

	sourceKey, targetKey := termKey(source), termKey(target)

	var existing int64
	err := sqlx.GetContext(ctx, q, &existing,
		q.Rebind("SELECT id FROM words WHERE source_key = ? AND target_key = ?"), sourceKey, targetKey)
	if err == nil {
		return models.Word{}, ErrDuplicateWord
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Word{}, err
	}

	word := models.Word{SourceTerm: source, TargetTerm: target, OwnerID: owner}
	err = q.QueryRowxContext(ctx, q.Rebind(`
		INSERT INTO words (source_term, target_term, source_key, target_key, owner_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), source, target, sourceKey, targetKey, owner).Scan(&word.ID)
	if err != nil {
		// A concurrent insert of the same pair lost the race on the unique key
		if isUniqueViolation(err) {
			return models.Word{}, ErrDuplicateWord
		}
		return models.Word{}, err
	}

	return word, nil
}

func findAssignedByTarget(ctx context.Context, q sqlx.ExtContext, userID int64, target string) (models.Word, error) {
	key := termKey(target)
	if key == "" {
		return models.Word{}, ErrWordNotFound
	}

	query := `
		SELECT ` + wordColumns + `
		FROM words w
		JOIN assignments a ON a.word_id = w.id
		WHERE w.target_key = ? AND a.user_id = ?
		ORDER BY CASE WHEN w.owner_id = ? THEN 0 ELSE 1 END, w.id
		LIMIT 1
	`

	var word models.Word
	err := sqlx.GetContext(ctx, q, &word, q.Rebind(query), key, userID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Word{}, ErrWordNotFound
	}
	if err != nil {
		return models.Word{}, err
	}
	return word, nil
}

func removeWord(ctx context.Context, tx *sqlx.Tx, wordID int64) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM guessed_words WHERE word_id = ?"), wordID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM assignments WHERE word_id = ?"), wordID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM words WHERE id = ?"), wordID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrWordNotFound
	}
	return nil
}
