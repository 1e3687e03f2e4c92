// Package store persists conversation records and approval decisions in
// SQLite so sessions can be reviewed after the process exits.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/conversation"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// ErrSessionNotFound is returned when no turns were stored for a session.
var ErrSessionNotFound = errors.New("session not found in history")

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	role TEXT NOT NULL,
	text TEXT NOT NULL,
	tool TEXT,
	created_at TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_turns_created_at ON turns(created_at);

CREATE TABLE IF NOT EXISTS changes (
	session_id TEXT NOT NULL,
	change_id TEXT NOT NULL,
	tool TEXT NOT NULL,
	kind TEXT NOT NULL,
	target TEXT NOT NULL,
	reason TEXT,
	status TEXT NOT NULL,
	success INTEGER NOT NULL,
	outcome TEXT,
	proposed_at TEXT NOT NULL,
	resolved_at TEXT NOT NULL,
	PRIMARY KEY (session_id, change_id)
);
`

// SessionSummary describes one stored session.
type SessionSummary struct {
	ID        string
	Turns     int
	StartedAt time.Time
	UpdatedAt time.Time
}

// ChangeRecord is a resolved change as stored.
type ChangeRecord struct {
	ChangeID   string
	Tool       string
	Kind       string
	Target     string
	Reason     string
	Status     approval.Status
	Success    bool
	Outcome    string
	ProposedAt time.Time
	ResolvedAt time.Time
}

// Store is a SQLite-backed history.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the database at path.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path))
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// One writer keeps turn sequence numbers from racing.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// AppendTurn stores the turn at index seq of a session.
func (s *Store) AppendTurn(ctx context.Context, sessionID string, seq int, t conversation.Turn) error {
	var toolName *string
	if t.ToolCall != nil {
		toolName = &t.ToolCall.Name
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO turns (session_id, seq, role, text, tool, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, seq, string(t.Role), t.Content, toolName, t.Time.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store turn %d of %s: %w", seq, sessionID, err)
	}
	return nil
}

// RecordResolution stores how a change was resolved.
func (s *Store) RecordResolution(ctx context.Context, sessionID string, r approval.Resolution) error {
	c := r.Change
	text := r.Outcome.Output
	if !r.Outcome.Success {
		text = r.Outcome.Error
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO changes
		(session_id, change_id, tool, kind, target, reason, status, success, outcome, proposed_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, c.ID, c.Tool, string(c.Kind), c.Target, c.Reason, string(c.Status), r.Outcome.Success, text,
		c.CreatedAt.UTC().Format(time.RFC3339Nano), r.ResolvedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store change %s: %w", c.ID, err)
	}
	return nil
}

// Sessions lists stored sessions, most recently updated first.
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*), MIN(created_at), MAX(created_at)
		FROM turns GROUP BY session_id ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var started, updated string
		if err := rows.Scan(&sum.ID, &sum.Turns, &started, &updated); err != nil {
			return nil, err
		}
		sum.StartedAt = parseTime(started)
		sum.UpdatedAt = parseTime(updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Records returns a session's turns in order.
func (s *Store) Records(ctx context.Context, sessionID string) ([]conversation.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, text, created_at FROM turns WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []conversation.Record
	for rows.Next() {
		var role, text, created string
		if err := rows.Scan(&role, &text, &created); err != nil {
			return nil, err
		}
		out = append(out, conversation.Record{Role: conversation.Role(role), Text: text, Timestamp: parseTime(created)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return out, nil
}

// Changes returns a session's resolved changes in resolution order.
func (s *Store) Changes(ctx context.Context, sessionID string) ([]ChangeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT change_id, tool, kind, target, COALESCE(reason, ''), status, success, COALESCE(outcome, ''), proposed_at, resolved_at
		FROM changes WHERE session_id = ? ORDER BY resolved_at, change_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load changes for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []ChangeRecord
	for rows.Next() {
		var c ChangeRecord
		var status, proposed, resolved string
		if err := rows.Scan(&c.ChangeID, &c.Tool, &c.Kind, &c.Target, &c.Reason, &status, &c.Success, &c.Outcome, &proposed, &resolved); err != nil {
			return nil, err
		}
		c.Status = approval.Status(status)
		c.ProposedAt = parseTime(proposed)
		c.ResolvedAt = parseTime(resolved)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Sink returns a conversation.Sink that writes a session's turns. Write
// failures are logged; the in-memory conversation stays authoritative.
func (s *Store) Sink(sessionID string) conversation.Sink {
	return &sessionSink{store: s, sessionID: sessionID}
}

// ResolutionHook matches agent.SessionConfig.OnResolution.
func (s *Store) ResolutionHook(sessionID string, r approval.Resolution) {
	if err := s.RecordResolution(context.Background(), sessionID, r); err != nil {
		s.logger.Error().Err(err).Str("session", sessionID).Msg("failed to persist change resolution")
	}
}

type sessionSink struct {
	store     *Store
	sessionID string
}

func (k *sessionSink) TurnAppended(index int, t conversation.Turn) {
	if err := k.store.AppendTurn(context.Background(), k.sessionID, index, t); err != nil {
		k.store.logger.Error().Err(err).Str("session", k.sessionID).Msg("failed to persist turn")
	}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
