// Package history persists legacy chat transcripts per session in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ashutoshrp06/brainhands/pkg/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Session summarizes a stored conversation.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  int       `json:"messages"`
}

// Store implements chat persistence using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history store: open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history store: wal: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS messages (
			seq          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT NOT NULL REFERENCES sessions(id),
			role         TEXT NOT NULL,
			text         TEXT NOT NULL,
			ts           INTEGER NOT NULL,
			character_id TEXT NOT NULL DEFAULT '',
			is_error     INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
	`)
	if err != nil {
		return fmt.Errorf("history store: migrate: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewSession creates an empty session and returns its id.
func (s *Store) NewSession(ctx context.Context, title string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, title, created_at) VALUES (?, ?, ?)",
		id, title, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("history store: new session: %w", err)
	}
	return id, nil
}

// Append adds messages to a session in order. The session is created on
// first use.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...models.LegacyMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at) VALUES (?, ?) ON CONFLICT(id) DO NOTHING",
		sessionID, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("history store: ensure session: %w", err)
	}

	for _, m := range msgs {
		ts := m.Ts
		if ts == 0 {
			ts = time.Now().UnixMilli()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (session_id, role, text, ts, character_id, is_error)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sessionID, m.Role, m.Text, ts, m.CharacterID, m.Error); err != nil {
			return fmt.Errorf("history store: append: %w", err)
		}
	}
	return tx.Commit()
}

// Messages returns a session's transcript in insertion order. limit > 0
// keeps only the newest limit messages.
func (s *Store) Messages(ctx context.Context, sessionID string, limit int) ([]models.LegacyMessage, error) {
	query := `SELECT role, text, ts, character_id, is_error FROM messages WHERE session_id = ? ORDER BY seq`
	args := []any{sessionID}
	if limit > 0 {
		query = `SELECT role, text, ts, character_id, is_error FROM (
			SELECT seq, role, text, ts, character_id, is_error FROM messages
			WHERE session_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history store: messages: %w", err)
	}
	defer rows.Close()

	var out []models.LegacyMessage
	for rows.Next() {
		var m models.LegacyMessage
		if err := rows.Scan(&m.Role, &m.Text, &m.Ts, &m.CharacterID, &m.Error); err != nil {
			return nil, fmt.Errorf("history store: scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Sessions lists sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.created_at, COUNT(m.seq)
		FROM sessions s LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id ORDER BY s.created_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("history store: sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess Session
			ms   int64
		)
		if err := rows.Scan(&sess.ID, &sess.Title, &ms, &sess.Messages); err != nil {
			return nil, fmt.Errorf("history store: scan session: %w", err)
		}
		sess.CreatedAt = time.UnixMilli(ms)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Clear deletes a session's messages, keeping the session itself.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("history store: clear: %w", err)
	}
	return nil
}
