package sourcecache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"vocalless/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was written by an incompatible build.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Entry is one cached URL resolution.
type Entry struct {
	URL      string    `json:"url"`
	SourceID string    `json:"source_id"`
	CachedAt time.Time `json:"cached_at"`
	Hits     int       `json:"hits"`
}

// Cache is a SQLite-backed URL to source ID map.
type Cache struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open connects to (creating if necessary) the cache database at path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	logger = logging.NewComponentLogger(logger, "sourcecache")
	c := &Cache{path: strings.TrimSpace(path), logger: logger, now: time.Now}
	if c.path == "" {
		return c, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", c.path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	c.db = db
	if err := c.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database location, or "" for an inert cache.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Lookup returns the cached source ID for url and counts the hit.
func (c *Cache) Lookup(ctx context.Context, url string) (string, bool, error) {
	url = strings.TrimSpace(url)
	if c == nil || c.db == nil || url == "" {
		return "", false, nil
	}
	ctx = ensureContext(ctx)

	var sourceID string
	err := c.db.QueryRowContext(ctx, "SELECT source_id FROM sources WHERE url = ?", url).Scan(&sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup source: %w", err)
	}
	if err := c.exec(ctx, "UPDATE sources SET hits = hits + 1 WHERE url = ?", url); err != nil {
		c.logger.Debug("source cache hit not counted", logging.Error(err))
	}
	return sourceID, true, nil
}

// Store records the resolution of url, replacing any previous entry.
func (c *Cache) Store(ctx context.Context, url, sourceID string) error {
	url = strings.TrimSpace(url)
	sourceID = strings.TrimSpace(sourceID)
	if url == "" || sourceID == "" {
		return errors.New("url and source id are required")
	}
	if c == nil || c.db == nil {
		return nil
	}
	ctx = ensureContext(ctx)
	err := c.exec(ctx,
		`INSERT INTO sources (url, source_id, cached_at, hits) VALUES (?, ?, ?, 0)
		 ON CONFLICT(url) DO UPDATE SET source_id = excluded.source_id, cached_at = excluded.cached_at`,
		url, sourceID, c.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("store source: %w", err)
	}
	c.logger.Debug("cached source id",
		logging.String("url", url),
		logging.String(logging.FieldSourceID, sourceID),
	)
	return nil
}

// Remove deletes the entry for url.
func (c *Cache) Remove(ctx context.Context, url string) (bool, error) {
	if c == nil || c.db == nil {
		return false, nil
	}
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = c.db.ExecContext(ctx, "DELETE FROM sources WHERE url = ?", strings.TrimSpace(url))
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("remove source: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns all entries, newest first.
func (c *Cache) List(ctx context.Context) ([]Entry, error) {
	if c == nil || c.db == nil {
		return nil, nil
	}
	ctx = ensureContext(ctx)
	rows, err := c.db.QueryContext(ctx, "SELECT url, source_id, cached_at, hits FROM sources ORDER BY cached_at DESC, url")
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			cachedAt string
		)
		if err := rows.Scan(&entry.URL, &entry.SourceID, &cachedAt, &entry.Hits); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, cachedAt); parseErr == nil {
			entry.CachedAt = ts
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear removes every entry and reports how many were deleted.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	if c == nil || c.db == nil {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = c.db.ExecContext(ctx, "DELETE FROM sources")
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("clear sources: %w", err)
	}
	n, _ := res.RowsAffected()
	c.logger.Info("cleared source cache", logging.Any("removed", n))
	return n, nil
}

func (c *Cache) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx, query, args...)
		return err
	})
}

func (c *Cache) initSchema(ctx context.Context) error {
	var tableExists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := c.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'vocalless cache clear' or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, c.path)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
