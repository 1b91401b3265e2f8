package storage

import (
	"fmt"
	"time"

	"github.com/conorfennell/studybuddy/internal/domain"
	"github.com/conorfennell/studybuddy/internal/draft"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
// It implements draft.Journal.
type DB struct {
	conn *sqlx.DB
}

var _ draft.Journal = (*DB)(nil)

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

type draftRow struct {
	Seq     int64  `db:"seq"`
	Front   string `db:"front"`
	Back    string `db:"back"`
	Subject string `db:"subject"`
	Test    string `db:"test"`
}

// Append records a newly added draft.
func (db *DB) Append(e draft.Entry) error {
	_, err := db.conn.Exec(`
		INSERT INTO drafts (seq, front, back, subject, test, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		int64(e.Seq),
		e.Draft.Front,
		e.Draft.Back,
		e.Draft.Subject,
		e.Draft.Test,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert draft %d: %w", e.Seq, err)
	}
	return nil
}

// Delete removes the drafts with the given sequence numbers.
func (db *DB) Delete(seqs ...uint64) error {
	if len(seqs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM drafts WHERE seq IN (?)`, seqs)
	if err != nil {
		return fmt.Errorf("failed to build draft delete: %w", err)
	}
	if _, err := db.conn.Exec(db.conn.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete %d drafts: %w", len(seqs), err)
	}
	return nil
}

// Reset removes every journaled draft.
func (db *DB) Reset() error {
	if _, err := db.conn.Exec(`DELETE FROM drafts`); err != nil {
		return fmt.Errorf("failed to reset drafts: %w", err)
	}
	return nil
}

// Load returns the journaled drafts in insertion order.
func (db *DB) Load() ([]draft.Entry, error) {
	var rows []draftRow
	err := db.conn.Select(&rows, `
		SELECT seq, front, back, subject, test
		FROM drafts ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}

	entries := make([]draft.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, draft.Entry{
			Seq: uint64(r.Seq),
			Draft: domain.Draft{
				Front:   r.Front,
				Back:    r.Back,
				Subject: r.Subject,
				Test:    r.Test,
			},
		})
	}
	return entries, nil
}
