// ABOUTME: SQLite idempotency store using modernc.org/sqlite
// ABOUTME: Claims keys with one atomic upsert so concurrent first uses cannot both win

package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records in a single table keyed by idempotency key.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (and creates if needed) the database at path.
// Parent directories are created if needed.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "idempotency.sqlite")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection serialises writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite idempotency store initialized", "path", path)
	return s, nil
}

// createSchema creates the records table if it doesn't exist.
// Times are unix milliseconds; expires_at 0 means the record never expires.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS idempotency_keys (
			idem_key TEXT PRIMARY KEY,
			payload_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_idempotency_keys_created
			ON idempotency_keys(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Claim implements Store. The upsert only replaces a row whose expiry has
// passed, so RowsAffected is 1 exactly when this caller owns the key.
func (s *SQLiteStore) Claim(ctx context.Context, rec Record) (*Record, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO idempotency_keys (idem_key, payload_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(idem_key) DO UPDATE SET
			payload_hash = excluded.payload_hash,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
		WHERE idempotency_keys.expires_at > 0
			AND idempotency_keys.expires_at <= excluded.created_at
	`, rec.Key, rec.PayloadHash, toMillis(rec.CreatedAt), toMillis(rec.ExpiresAt))
	if err != nil {
		return nil, fmt.Errorf("claiming key: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claiming key: %w", err)
	}
	if n == 1 {
		return nil, nil
	}

	existing, err := s.get(ctx, rec.Key)
	if err != nil {
		return nil, fmt.Errorf("loading existing key: %w", err)
	}
	return existing, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Record, error) {
	rec, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) (*Record, error) {
	var (
		rec                  Record
		createdAt, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT idem_key, payload_hash, created_at, expires_at
		FROM idempotency_keys WHERE idem_key = ?
	`, key).Scan(&rec.Key, &rec.PayloadHash, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying key: %w", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.ExpiresAt = fromMillis(expiresAt)
	return &rec, nil
}

// List implements Lister, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT idem_key, payload_hash, created_at, expires_at
		FROM idempotency_keys
		WHERE expires_at = 0 OR expires_at > ?
		ORDER BY created_at DESC, idem_key ASC
		LIMIT ?
	`, toMillis(s.now()), limit)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var (
			rec                  Record
			createdAt, expiresAt int64
		)
		if err := rows.Scan(&rec.Key, &rec.PayloadHash, &createdAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		rec.CreatedAt = fromMillis(createdAt)
		rec.ExpiresAt = fromMillis(expiresAt)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Purge deletes expired rows and returns how many were removed.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM idempotency_keys WHERE expires_at > 0 AND expires_at <= ?`, toMillis(s.now()))
	if err != nil {
		return 0, fmt.Errorf("purging keys: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
