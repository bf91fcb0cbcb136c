package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"image-viewer/internal/logging"
	"image-viewer/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// ErrNotFound is returned by Get when no thumbnail is recorded.
var ErrNotFound = errors.New("thumbnail not indexed")

// ThumbnailEntry describes one cached thumbnail file.
type ThumbnailEntry struct {
	URI string
	// Side is the bounding square the thumbnail was fitted into.
	Side int
	// File is the cached image, relative to the cache directory.
	File string
	// SourceModTime is the modification time of the source when the
	// thumbnail was made. A different current mtime makes the entry stale.
	SourceModTime time.Time
	Width         int
	Height        int
	CreatedAt     time.Time
}

// ThumbnailIndex records which thumbnails exist in the cache directory and
// which version of their source they were made from.
type ThumbnailIndex struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// New opens or creates the index at dbPath. The parent directory must exist
// and be writable.
func New(ctx context.Context, dbPath string) (*ThumbnailIndex, error) {
	logging.Debug("Thumbnail index path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Thumbnail index permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors when several
	// thumbnail workers write at once
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	x := &ThumbnailIndex{
		db:     db,
		dbPath: dbPath,
	}

	if err := x.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Debug("Thumbnail index ready at %s", dbPath)
	return x, nil
}

func (x *ThumbnailIndex) initialize(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	CREATE TABLE IF NOT EXISTS thumbnails (
		uri TEXT NOT NULL,
		side INTEGER NOT NULL,
		file TEXT NOT NULL,
		source_mtime INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (uri, side)
	);

	CREATE INDEX IF NOT EXISTS idx_thumbnails_file ON thumbnails(file);
	`

	_, err = x.db.ExecContext(ctx, schema)
	return err
}

// Path returns the database file.
func (x *ThumbnailIndex) Path() string {
	return x.dbPath
}

// Close closes the database connection.
func (x *ThumbnailIndex) Close() error {
	return x.db.Close()
}

// Get returns the entry for uri at side, or ErrNotFound.
func (x *ThumbnailIndex) Get(ctx context.Context, uri string, side int) (entry *ThumbnailEntry, err error) {
	start := time.Now()
	defer func() {
		if errors.Is(err, ErrNotFound) {
			recordQuery("get_thumbnail", start, nil)
			return
		}
		recordQuery("get_thumbnail", start, err)
	}()

	x.mu.RLock()
	defer x.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	SELECT uri, side, file, source_mtime, width, height, created_at
	FROM thumbnails WHERE uri = ? AND side = ?
	`

	var e ThumbnailEntry
	var modTime, created int64

	err = x.db.QueryRowContext(ctx, query, uri, side).Scan(
		&e.URI, &e.Side, &e.File, &modTime, &e.Width, &e.Height, &created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	e.SourceModTime = time.Unix(0, modTime)
	e.CreatedAt = time.Unix(created, 0)
	return &e, nil
}

// Upsert records entry, replacing any previous entry for the same URI and
// side.
func (x *ThumbnailIndex) Upsert(ctx context.Context, entry *ThumbnailEntry) (err error) {
	start := time.Now()
	defer func() { recordQuery("upsert_thumbnail", start, err) }()

	x.mu.Lock()
	defer x.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = x.db.ExecContext(ctx, `
	INSERT INTO thumbnails (uri, side, file, source_mtime, width, height, created_at)
	VALUES (?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(uri, side) DO UPDATE SET
		file = excluded.file,
		source_mtime = excluded.source_mtime,
		width = excluded.width,
		height = excluded.height,
		created_at = excluded.created_at
	`,
		entry.URI,
		entry.Side,
		entry.File,
		entry.SourceModTime.UnixNano(),
		entry.Width,
		entry.Height,
	)
	return err
}

// Delete removes every entry for uri and returns how many there were.
func (x *ThumbnailIndex) Delete(ctx context.Context, uri string) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery("delete_thumbnail", start, err) }()

	x.mu.Lock()
	defer x.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := x.db.ExecContext(ctx, "DELETE FROM thumbnails WHERE uri = ?", uri)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns the number of indexed thumbnails.
func (x *ThumbnailIndex) Count(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { recordQuery("count_thumbnails", start, err) }()

	x.mu.RLock()
	defer x.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = x.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM thumbnails").Scan(&n)
	return n, err
}

// List returns every entry, ordered by URI and side.
func (x *ThumbnailIndex) List(ctx context.Context) (entries []ThumbnailEntry, err error) {
	start := time.Now()
	defer func() { recordQuery("list_thumbnails", start, err) }()

	x.mu.RLock()
	defer x.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := x.db.QueryContext(ctx, `
	SELECT uri, side, file, source_mtime, width, height, created_at
	FROM thumbnails ORDER BY uri, side
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e ThumbnailEntry
		var modTime, created int64
		if err := rows.Scan(&e.URI, &e.Side, &e.File, &modTime, &e.Width, &e.Height, &created); err != nil {
			return nil, err
		}
		e.SourceModTime = time.Unix(0, modTime)
		e.CreatedAt = time.Unix(created, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every entry and returns how many there were.
func (x *ThumbnailIndex) Clear(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery("clear_thumbnails", start, err) }()

	x.mu.Lock()
	defer x.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := x.db.ExecContext(ctx, "DELETE FROM thumbnails")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := metrics.StatusSuccess
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	if dirInfo.Mode().Perm()&0o200 == 0 {
		return fmt.Errorf("database directory %s is not writable (mode: %v)", dir, dirInfo.Mode())
	}

	// A read-only WAL or SHM file makes every write fail.
	for _, suffix := range []string{"", "-wal", "-shm"} {
		p := dbPath + suffix
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", p, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("Database file %s is read-only! Mode: %v", p, info.Mode())
		if suffix == "" {
			continue
		}
		if chmodErr := os.Chmod(p, 0o600); chmodErr != nil {
			logging.Error("Failed to fix %s permissions: %v", p, chmodErr)
		} else {
			logging.Info("Fixed %s permissions", p)
		}
	}

	return nil
}
