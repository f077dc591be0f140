// Package findings keeps the inputs that made a harness fault or diverge, in
// a SQLite database next to the corpus, plus libFuzzer-style artifact files.
package findings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"
	log "github.com/inconshreveable/log15"
	_ "modernc.org/sqlite"

	"github.com/openfluke/loomfuzz/harness"
)

// timeFormat is fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for an unknown key.
var ErrNotFound = errors.New("findings: not found")

// Finding is one stored input. Key and Harness identify it; recording the
// same input against the same harness again only bumps Hits and LastSeen.
type Finding struct {
	Key       string // BLAKE3-256 of Input, hex
	Harness   string
	Status    harness.Status
	Message   string
	Stack     string
	Offset    int
	Elapsed   time.Duration
	RunID     string
	Input     []byte
	FirstSeen time.Time
	LastSeen  time.Time
	Hits      int
}

// FromResult builds a Finding for res on input.
func FromResult(runID string, res harness.Result, input []byte) Finding {
	f := Finding{
		Key:     Key(input),
		Harness: res.Harness,
		Status:  res.Status,
		Stack:   res.Stack,
		Offset:  res.Offset,
		Elapsed: res.Elapsed,
		RunID:   runID,
		Input:   input,
	}
	if res.Err != nil {
		f.Message = res.Err.Error()
	}
	return f
}

// Store wraps the findings database.
type Store struct {
	db  *sql.DB
	log log.Logger
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("findings: db path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; SQLite serialises anyway and this keeps busy errors away.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, log: log.New("module", "findings")}
	ctx := context.Background()
	if err := s.applyPragmas(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.log.Warn("WAL checkpoint failed", "err", err)
	}
	return s.db.Close()
}

func (s *Store) applyPragmas(ctx context.Context) error {
	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

var migrations = []func(context.Context, *sql.Tx) error{applyV1, applyV2}

func (s *Store) migrate(ctx context.Context) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
)`); err != nil {
		return err
	}
	var version int
	if err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return err
	}
	for v := version; v < len(migrations); v++ {
		if err = migrations[v](ctx, tx); err != nil {
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		if _, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)",
			v+1, time.Now().UTC().Format(timeFormat)); err != nil {
			return err
		}
		s.log.Debug("Applied findings migration", "version", v+1)
	}
	return tx.Commit()
}

func applyV1(ctx context.Context, tx *sql.Tx) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS findings (
			key TEXT NOT NULL,
			harness TEXT NOT NULL,
			status TEXT NOT NULL,
			message TEXT NOT NULL,
			stack TEXT NOT NULL,
			input BLOB NOT NULL,
			run_id TEXT NOT NULL,
			first_seen TEXT NOT NULL,
			last_seen TEXT NOT NULL,
			hits INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY(key, harness)
		)`,
		`CREATE INDEX IF NOT EXISTS findings_harness_idx ON findings(harness, status)`,
	}
	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func applyV2(ctx context.Context, tx *sql.Tx) error {
	for _, stmt := range []string{
		`ALTER TABLE findings ADD COLUMN cursor_offset INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE findings ADD COLUMN elapsed_ns INTEGER NOT NULL DEFAULT 0`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record stores f and reports whether the (key, harness) pair was new. Input
// is stored snappy-compressed; an empty Key is filled from Input.
func (s *Store) Record(ctx context.Context, f Finding) (bool, error) {
	if f.Harness == "" {
		return false, errors.New("findings: harness required")
	}
	if f.Key == "" {
		f.Key = Key(f.Input)
	}
	now := time.Now().UTC().Format(timeFormat)
	res, err := s.db.ExecContext(ctx, `
INSERT INTO findings(key, harness, status, message, stack, input, run_id, first_seen, last_seen, cursor_offset, elapsed_ns)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key, harness) DO NOTHING`,
		f.Key, f.Harness, f.Status.String(), f.Message, f.Stack, snappy.Encode(nil, f.Input),
		f.RunID, now, now, f.Offset, int64(f.Elapsed))
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		s.log.Info("New finding", "harness", f.Harness, "status", f.Status, "key", ShortKey(f.Key))
		return true, nil
	}
	_, err = s.db.ExecContext(ctx, `UPDATE findings SET hits = hits + 1, last_seen = ?, run_id = ? WHERE key = ? AND harness = ?`,
		now, f.RunID, f.Key, f.Harness)
	return false, err
}

const columns = `key, harness, status, message, stack, input, run_id, first_seen, last_seen, hits, cursor_offset, elapsed_ns`

type scanner interface {
	Scan(dest ...any) error
}

func scanFinding(row scanner) (Finding, error) {
	var (
		f                   Finding
		status, first, last string
		packed              []byte
		elapsed             int64
	)
	if err := row.Scan(&f.Key, &f.Harness, &status, &f.Message, &f.Stack, &packed, &f.RunID,
		&first, &last, &f.Hits, &f.Offset, &elapsed); err != nil {
		return Finding{}, err
	}
	var err error
	if f.Status, err = harness.ParseStatus(status); err != nil {
		return Finding{}, err
	}
	if f.Input, err = snappy.Decode(nil, packed); err != nil {
		return Finding{}, fmt.Errorf("findings: input of %s: %w", f.Key, err)
	}
	f.Elapsed = time.Duration(elapsed)
	f.FirstSeen, _ = time.Parse(timeFormat, first)
	f.LastSeen, _ = time.Parse(timeFormat, last)
	return f, nil
}

// Get returns the first finding stored under key, whichever harness hit it.
func (s *Store) Get(ctx context.Context, key string) (Finding, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM findings WHERE key = ? ORDER BY first_seen, harness LIMIT 1`, key)
	f, err := scanFinding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Finding{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, err
}

// List returns the findings of one harness, or of all harnesses when name is
// empty, oldest first.
func (s *Store) List(ctx context.Context, name string) ([]Finding, error) {
	q := `SELECT ` + columns + ` FROM findings`
	var args []any
	if name != "" {
		q += ` WHERE harness = ?`
		args = append(args, name)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY first_seen, harness, key`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Count returns the number of distinct findings per status.
func (s *Store) Count(ctx context.Context) (map[harness.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM findings GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[harness.Status]int{}
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		st, err := harness.ParseStatus(name)
		if err != nil {
			return nil, err
		}
		out[st] = n
	}
	return out, rows.Err()
}
