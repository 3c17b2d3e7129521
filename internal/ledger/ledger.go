// Package ledger records committed snapshots of workspace facets.
//
// Snapshots are immutable and append-only. The ledger is a SQLite database
// in the private state directory; update and delete are rejected by
// triggers, and reads return entries in creation order.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/danieljhkim/workbench/internal/clock"
	"github.com/danieljhkim/workbench/internal/fingerprint"
)

// schemaVersion is bumped whenever the table layout changes.
const schemaVersion = 1

// Origin records who produced a snapshot.
type Origin string

const (
	OriginUser Origin = "user-generated"
	OriginAuto Origin = "auto-generated"
)

// ErrInvalidSnapshot indicates a snapshot is missing required fields.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is an immutable record of the three facet fingerprints.
type Snapshot struct {
	ID          string                  `json:"id"`
	SessionID   string                  `json:"sessionId,omitempty"`
	Code        fingerprint.Fingerprint `json:"code"`
	Environment fingerprint.Fingerprint `json:"environment"`
	Files       fingerprint.Fingerprint `json:"files"`
	Message     string                  `json:"message,omitempty"`
	Origin      Origin                  `json:"origin"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// Fingerprints returns the facet fingerprints recorded by s.
func (s *Snapshot) Fingerprints() fingerprint.Set {
	return fingerprint.Set{Code: s.Code, Environment: s.Environment, Files: s.Files}
}

// Ledger is the append-only snapshot store.
type Ledger struct {
	db    *sql.DB
	path  string
	clock clock.Clock
}

// Open opens or creates the ledger database at path, creating or migrating
// the schema.
func Open(ctx context.Context, path string, clk clock.Clock) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// A single connection serializes writers and keeps sequence order strict.
	db.SetMaxOpenConns(1)

	// A rollback journal keeps the file readable by OpenReadOnly from a
	// read-only directory, which WAL mode does not allow.
	for _, pragma := range []string{
		"PRAGMA journal_mode=DELETE",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to configure ledger: %w", err)
		}
	}

	if err := createSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().Str("path", path).Msg("ledger opened")
	return &Ledger{db: db, path: path, clock: clk}, nil
}

// OpenReadOnly opens an existing ledger for queries. It never writes to the
// database or its directory; Append fails on the returned Ledger. A missing
// ledger fails with an error matching os.ErrNotExist.
func OpenReadOnly(ctx context.Context, path string, clk clock.Clock) (*Ledger, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	dsn := (&url.URL{Scheme: "file", Path: path, RawQuery: "mode=ro"}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to configure ledger: %w", err)
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to read ledger version: %w", err)
	}
	if version != schemaVersion {
		_ = db.Close()
		return nil, fmt.Errorf("unsupported ledger schema version %d", version)
	}

	return &Ledger{db: db, path: path, clock: clk}, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read ledger version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("unsupported ledger schema version %d", version)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL DEFAULT '',
			code_fp TEXT NOT NULL,
			environment_fp TEXT NOT NULL,
			files_fp TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			origin TEXT NOT NULL CHECK (origin IN ('user-generated', 'auto-generated')),
			created_at_ns INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at_ns, seq);
		CREATE TRIGGER IF NOT EXISTS snapshots_no_update BEFORE UPDATE ON snapshots
		BEGIN SELECT RAISE(ABORT, 'snapshots are immutable'); END;
		CREATE TRIGGER IF NOT EXISTS snapshots_no_delete BEFORE DELETE ON snapshots
		BEGIN SELECT RAISE(ABORT, 'snapshots are append-only'); END;
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create ledger schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version=%d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to set ledger version: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append records a snapshot. A missing ID or CreatedAt is filled in and
// written back to s.
func (l *Ledger) Append(ctx context.Context, s *Snapshot) error {
	if s.Origin != OriginUser && s.Origin != OriginAuto {
		return fmt.Errorf("%w: unknown origin %q", ErrInvalidSnapshot, s.Origin)
	}
	if s.Code == "" || s.Environment == "" || s.Files == "" {
		return fmt.Errorf("%w: all three fingerprints are required", ErrInvalidSnapshot)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = l.clock.Now()
	}
	if s.ID == "" {
		s.ID = ulid.MustNew(ulid.Timestamp(s.CreatedAt), ulid.DefaultEntropy()).String()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, session_id, code_fp, environment_fp, files_fp, message, origin, created_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.SessionID, string(s.Code), string(s.Environment), string(s.Files),
		s.Message, string(s.Origin), s.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}

	log.Debug().Str("id", s.ID).Str("origin", string(s.Origin)).Msg("snapshot appended")
	return nil
}

const selectColumns = `SELECT id, session_id, code_fp, environment_fp, files_fp, message, origin, created_at_ns FROM snapshots`

// Latest returns the most recent snapshot, or nil if the ledger is empty.
func (l *Ledger) Latest(ctx context.Context) (*Snapshot, error) {
	row := l.db.QueryRowContext(ctx, selectColumns+` ORDER BY created_at_ns DESC, seq DESC LIMIT 1`)
	return scanOne(row)
}

// LatestByOrigin returns the most recent snapshot with the given origin,
// or nil if there is none.
func (l *Ledger) LatestByOrigin(ctx context.Context, origin Origin) (*Snapshot, error) {
	row := l.db.QueryRowContext(ctx, selectColumns+` WHERE origin = ? ORDER BY created_at_ns DESC, seq DESC LIMIT 1`, string(origin))
	return scanOne(row)
}

// List returns snapshots in creation order. A non-empty sessionID restricts
// the result to that session.
func (l *Ledger) List(ctx context.Context, sessionID string) ([]Snapshot, error) {
	query := selectColumns
	var args []any
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY created_at_ns ASC, seq ASC`

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []Snapshot
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*Snapshot, error) {
	s, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func scan(r scanner) (*Snapshot, error) {
	var (
		s                Snapshot
		code, env, files string
		origin           string
		createdAtNanos   int64
	)
	err := r.Scan(&s.ID, &s.SessionID, &code, &env, &files, &s.Message, &origin, &createdAtNanos)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	s.Code = fingerprint.Fingerprint(code)
	s.Environment = fingerprint.Fingerprint(env)
	s.Files = fingerprint.Fingerprint(files)
	s.Origin = Origin(origin)
	s.CreatedAt = time.Unix(0, createdAtNanos).UTC()
	return &s, nil
}
