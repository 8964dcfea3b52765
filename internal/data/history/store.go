package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	domainerrors "msindex/internal/core/errors"

	_ "modernc.org/sqlite"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultBusyTimeout = 2 * time.Second
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open opens or creates the history database at path. A zero busyTimeout
// falls back to two seconds.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	// busy_timeout + WAL reduce lock conflicts while watch mode rewrites runs.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

// OpenOrRecover opens the store at path. When the file is not a usable
// sqlite database it is renamed to <path>.corrupt-<unix seconds>, together
// with its WAL and shared-memory files, and a fresh store is created. The
// returned string is the renamed path, empty when nothing was moved.
func OpenOrRecover(path string, busyTimeout time.Duration) (*Store, string, error) {
	store, err := Open(path, busyTimeout)
	if err == nil || !IsCorruptError(err) {
		return store, "", err
	}

	cleanPath := strings.TrimSpace(path)
	moved := fmt.Sprintf("%s.corrupt-%d", cleanPath, time.Now().Unix())
	if renameErr := os.Rename(cleanPath, moved); renameErr != nil {
		return nil, "", fmt.Errorf("move corrupt history %q aside: %w (open error: %v)", cleanPath, renameErr, err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if _, statErr := os.Stat(cleanPath + suffix); statErr == nil {
			_ = os.Rename(cleanPath+suffix, moved+suffix)
		}
	}

	store, err = Open(cleanPath, busyTimeout)
	if err != nil {
		return nil, moved, err
	}
	return store, moved, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores run and its values in one transaction. Saving the same run
// ID again replaces its values.
func (s *Store) SaveRun(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	return s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.Exec(`
INSERT INTO runs (run_id, kind, seed, ts_utc, models, model_count)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  kind=excluded.kind,
  seed=excluded.seed,
  ts_utc=excluded.ts_utc,
  models=excluded.models,
  model_count=excluded.model_count
`,
			run.ID,
			run.Kind,
			run.Seed,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			strings.Join(run.Models, ","),
			len(run.Models),
		); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM msi_values WHERE run_id = ?`, run.ID); err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
INSERT INTO msi_values (run_id, acceptor, donor, msi, stuck_before, stuck_after)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, acceptor, donor) DO UPDATE SET
  msi=excluded.msi,
  stuck_before=excluded.stuck_before,
  stuck_after=excluded.stuck_after
`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, v := range run.Values {
			if _, err := stmt.Exec(run.ID, v.Acceptor, v.Donor, v.MSI, v.StuckBefore, v.StuckAfter); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// ListRuns returns run summaries, newest first. An empty kind lists every
// kind; limit <= 0 means no limit.
func (s *Store) ListRuns(kind string, limit int) ([]RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT r.run_id, r.kind, r.seed, r.ts_utc, r.model_count,
  (SELECT COUNT(*) FROM msi_values v WHERE v.run_id = r.run_id)
FROM runs r
`
	args := make([]any, 0, 2)
	if kind = strings.TrimSpace(kind); kind != "" {
		query += " WHERE r.kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY r.ts_utc DESC, r.run_id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]RunSummary, 0)
	for rows.Next() {
		var (
			tsRaw string
			sum   RunSummary
		)
		if err := rows.Scan(&sum.ID, &sum.Kind, &sum.Seed, &tsRaw, &sum.ModelCount, &sum.ValueCount); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := parseTimestamp(tsRaw)
		if err != nil {
			return nil, err
		}
		sum.Timestamp = ts
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return out, nil
}

// LoadRun returns one run with its values sorted by acceptor then donor.
func (s *Store) LoadRun(id string) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		run       Run
		tsRaw     string
		modelsRaw string
	)
	err := s.withRetry("load run", func() error {
		return s.db.QueryRow(
			`SELECT run_id, kind, seed, ts_utc, models FROM runs WHERE run_id = ?`,
			strings.TrimSpace(id),
		).Scan(&run.ID, &run.Kind, &run.Seed, &tsRaw, &modelsRaw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, domainerrors.Newf(domainerrors.CodeNotFound, "run %q not found", id)
	}
	if err != nil {
		return Run{}, err
	}
	if run.Timestamp, err = parseTimestamp(tsRaw); err != nil {
		return Run{}, err
	}
	if modelsRaw != "" {
		run.Models = strings.Split(modelsRaw, ",")
	}

	var rows *sql.Rows
	err = s.withRetry("load run values", func() error {
		var qErr error
		rows, qErr = s.db.Query(`
SELECT acceptor, donor, msi, stuck_before, stuck_after
FROM msi_values WHERE run_id = ?
ORDER BY acceptor ASC, donor ASC
`, run.ID)
		return qErr
	})
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var v Value
		if err := rows.Scan(&v.Acceptor, &v.Donor, &v.MSI, &v.StuckBefore, &v.StuckAfter); err != nil {
			return Run{}, fmt.Errorf("scan value row: %w", err)
		}
		run.Values = append(run.Values, v)
	}
	if err := rows.Err(); err != nil {
		return Run{}, fmt.Errorf("iterate value rows: %w", err)
	}
	return run, nil
}

// PairHistory returns the MSI of acceptor|donor in every stored run, oldest
// first. An empty seed matches every seed.
func (s *Store) PairHistory(acceptor, donor, seed string) ([]TrendPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT r.run_id, r.ts_utc, r.seed, v.msi, v.stuck_before, v.stuck_after
FROM msi_values v
JOIN runs r ON r.run_id = v.run_id
WHERE v.acceptor = ? AND v.donor = ?
`
	args := []any{acceptor, donor}
	if seed = strings.TrimSpace(seed); seed != "" {
		query += " AND r.seed = ?"
		args = append(args, seed)
	}
	query += " ORDER BY r.ts_utc ASC, r.run_id ASC"

	var rows *sql.Rows
	err := s.withRetry("load pair history", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]TrendPoint, 0)
	for rows.Next() {
		var (
			tsRaw string
			p     TrendPoint
		)
		if err := rows.Scan(&p.RunID, &tsRaw, &p.Seed, &p.MSI, &p.StuckBefore, &p.StuckAfter); err != nil {
			return nil, fmt.Errorf("scan trend row: %w", err)
		}
		if p.Timestamp, err = parseTimestamp(tsRaw); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend rows: %w", err)
	}
	return points, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse run timestamp %q: %w", raw, err)
	}
	return ts.UTC(), nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

// Path is the database file the store was opened on.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// IsCorruptError reports whether err says the file is not a readable sqlite
// database.
func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
