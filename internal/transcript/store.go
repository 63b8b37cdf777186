// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcript keeps an append-only SQLite log of brainstorming
// turns. The log is for review and export; sessions are never resumed
// from it.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/essay-brainstormer/internal/session"
	"github.com/pdiddy/essay-brainstormer/pkg/types"
)

// DefaultDir is used when TranscriptConfig.Dir is empty.
const DefaultDir = "data/transcripts"

const (
	dbFile            = "transcripts.db"
	defaultSessionMax = 50

	// timeLayout has fixed-width fractions so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store manages the transcript SQLite database.
type Store struct {
	db  *sql.DB
	dir string
}

// SessionRecord summarizes one logged session.
type SessionRecord struct {
	ID          string            `json:"id" yaml:"id"`
	Profile     types.UserProfile `json:"profile" yaml:"profile"`
	StartedAt   time.Time         `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Turns       int               `json:"turns" yaml:"turns"`
}

// TurnRecord is one logged turn.
type TurnRecord struct {
	ID        string    `json:"id" yaml:"id"`
	Seq       int       `json:"seq" yaml:"seq"`
	Stage     string    `json:"stage" yaml:"stage"`
	Input     string    `json:"input" yaml:"input"`
	Output    string    `json:"output" yaml:"output"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewStore opens or creates dir/transcripts.db and its schema.
func NewStore(cfg types.TranscriptConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating transcript directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			name TEXT,
			stream TEXT,
			major TEXT,
			college TEXT,
			started_at TEXT NOT NULL,
			completed_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			seq INTEGER NOT NULL,
			stage TEXT NOT NULL,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE(session_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session_id ON turns(session_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordTurn appends turn to the log. A turn carrying a profile starts (or
// restarts) the session row; a turn answered at AWAITING_ANSWER_3 marks the
// session completed.
func (s *Store) RecordTurn(ctx context.Context, turn types.Turn) error {
	at := turn.At
	if at.IsZero() {
		at = time.Now()
	}
	ts := at.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if p := turn.Profile; p != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sessions (id, name, stream, major, college, started_at) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name=excluded.name, stream=excluded.stream, major=excluded.major,
			 college=excluded.college, started_at=excluded.started_at, completed_at=NULL`,
			turn.SessionID, p.Name, p.EducationStream, p.Major, p.CollegeName, ts)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO sessions (id, started_at) VALUES (?, ?)`,
			turn.SessionID, ts)
	}
	if err != nil {
		return fmt.Errorf("upserting session %s: %w", turn.SessionID, err)
	}

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE session_id = ?`, turn.SessionID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("computing turn sequence: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO turns (id, session_id, seq, stage, input, output, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), turn.SessionID, seq, turn.Stage, turn.Input, turn.Output, ts)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	if turn.Stage == session.StageAwaitingAnswer3.String() {
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET completed_at = ? WHERE id = ?`, ts, turn.SessionID,
		); err != nil {
			return fmt.Errorf("marking session completed: %w", err)
		}
	}

	return tx.Commit()
}

// Sessions returns up to limit sessions, most recently started first.
// A limit of zero or less uses 50.
func (s *Store) Sessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = defaultSessionMax
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, COALESCE(s.name, ''), COALESCE(s.stream, ''), COALESCE(s.major, ''), COALESCE(s.college, ''),
		        s.started_at, s.completed_at, (SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)
		 FROM sessions s ORDER BY s.started_at DESC, s.id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			r         SessionRecord
			started   string
			completed sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Profile.Name, &r.Profile.EducationStream, &r.Profile.Major,
			&r.Profile.CollegeName, &started, &completed, &r.Turns); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if completed.Valid {
			t, err := parseTime(completed.String)
			if err != nil {
				return nil, err
			}
			r.CompletedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Turns returns the turns of sessionID in order.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, stage, input, output, created_at FROM turns WHERE session_id = ? ORDER BY seq`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var (
			r       TurnRecord
			created string
		)
		if err := rows.Scan(&r.ID, &r.Seq, &r.Stage, &r.Input, &r.Output, &created); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
