package database

// source_key and target_key hold the case-folded terms. SQLite's LOWER only
// folds ASCII, so the keys are computed in Go and the unique index on them
// backs the case-insensitive duplicate check for Cyrillic too.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		source_key TEXT NOT NULL,
		target_key TEXT NOT NULL,
		example TEXT,
		owner_id INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (source_term, target_term),
		UNIQUE (source_key, target_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_words_target_key ON words (target_key)`,
	`CREATE INDEX IF NOT EXISTS idx_words_owner ON words (owner_id)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		word_id INTEGER NOT NULL,
		assigned_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (word_id) REFERENCES words(id) ON DELETE CASCADE,
		UNIQUE (user_id, word_id)
	)`,
	`CREATE TABLE IF NOT EXISTS guessed_words (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		word_id INTEGER NOT NULL,
		guessed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (word_id) REFERENCES words(id) ON DELETE CASCADE,
		UNIQUE (user_id, word_id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS words (
		id BIGSERIAL PRIMARY KEY,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		source_key TEXT NOT NULL,
		target_key TEXT NOT NULL,
		example TEXT,
		owner_id BIGINT,
		created_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE (source_term, target_term),
		UNIQUE (source_key, target_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_words_target_key ON words (target_key)`,
	`CREATE INDEX IF NOT EXISTS idx_words_owner ON words (owner_id)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		word_id BIGINT NOT NULL REFERENCES words(id) ON DELETE CASCADE,
		assigned_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE (user_id, word_id)
	)`,
	`CREATE TABLE IF NOT EXISTS guessed_words (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		word_id BIGINT NOT NULL REFERENCES words(id) ON DELETE CASCADE,
		guessed_at TIMESTAMPTZ DEFAULT NOW(),
		UNIQUE (user_id, word_id)
	)`,
}
