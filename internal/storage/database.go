package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"kbqa/internal/textutil"
)

// New opens a SQLite database at the given path with foreign keys enforced
// on every pooled connection, and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// dsn appends the driver options that must hold for every connection the
// pool opens. A PRAGMA run through db.Exec would reach only one of them.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			kb_id TEXT NOT NULL,
			source_id TEXT NOT NULL,
			title TEXT NOT NULL,
			source_type TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (kb_id, source_id)
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			kb_id TEXT NOT NULL,
			source_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			search_text TEXT NOT NULL DEFAULT '',
			page INTEGER,
			start_char INTEGER NOT NULL DEFAULT 0,
			end_char INTEGER NOT NULL DEFAULT 0,
			token_count INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (kb_id, source_id) REFERENCES sources(kb_id, source_id) ON DELETE CASCADE,
			UNIQUE (kb_id, source_id, content_hash)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_kb ON chunks (kb_id, source_id);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			kb_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS interactions (
			id TEXT PRIMARY KEY,
			kb_id TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer_mode TEXT NOT NULL,
			evidence_count INTEGER NOT NULL,
			top_similarity REAL NOT NULL,
			confidence TEXT NOT NULL,
			quality_label TEXT NOT NULL,
			embedding_ms INTEGER NOT NULL,
			retrieval_ms INTEGER NOT NULL,
			generation_ms INTEGER NOT NULL,
			created_at DATETIME NOT NULL
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	if err := ensureColumn(db, "chunks", "search_text", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return err
	}
	return backfillSearchText(db)
}

// ensureColumn adds a column to tables created before it existed.
func ensureColumn(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return fmt.Errorf("failed to read %s columns: %w", table, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan column: %w", err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	_ = rows.Close()

	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl)); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	return nil
}

// backfillSearchText fills the normalized search text of rows written before
// the column existed.
func backfillSearchText(db *sql.DB) error {
	rows, err := db.Query("SELECT id, content FROM chunks WHERE search_text = '' AND content <> ''")
	if err != nil {
		return fmt.Errorf("failed to query chunks to backfill: %w", err)
	}
	pending := make(map[string]string)
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan chunk: %w", err)
		}
		pending[id] = textutil.Normalize(content)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("row iteration error: %w", err)
	}
	_ = rows.Close()

	for id, text := range pending {
		if _, err := db.Exec("UPDATE chunks SET search_text = ? WHERE id = ?", text, id); err != nil {
			return fmt.Errorf("failed to backfill chunk %s: %w", id, err)
		}
	}
	return nil
}
