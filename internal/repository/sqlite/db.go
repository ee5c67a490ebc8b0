package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a SQLite database using the configured URL.
// Supported formats:
//   - sqlite3:./data.db
//   - sqlite:./data.db
//   - file:./data.db
func Open(databaseURL string) (*sql.DB, error) {
	dsn := normalizeDSN(databaseURL)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite works best with a single writer connection for WAL
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetMaxIdleConns(1)

	if err := configurePragmas(db); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}

	return db, nil
}

func normalizeDSN(databaseURL string) string {
	dsn := strings.TrimSpace(databaseURL)
	if dsn == "" {
		dsn = "./data.db"
	}

	if idx := strings.Index(dsn, ":"); idx != -1 {
		prefix := dsn[:idx]
		if prefix == "sqlite3" || prefix == "sqlite" {
			dsn = dsn[idx+1:]
		}
	}

	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "./data.db"
	}

	if !strings.HasPrefix(dsn, "file:") {
		if !strings.Contains(dsn, ":/") && !strings.HasPrefix(dsn, "./") && !strings.HasPrefix(dsn, "/") {
			dsn = "./" + dsn
		}
		dsn = "file:" + filepath.Clean(dsn)
	}

	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}

	return dsn
}

func configurePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("configure sqlite pragma (%s): %w", pragma, err)
		}
	}
	return nil
}

func ensureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			source_url TEXT NOT NULL UNIQUE,
			feed_index INTEGER NOT NULL,
			local_file_path TEXT,
			file_size INTEGER NOT NULL DEFAULT 0,
			file_size_label TEXT,
			status TEXT NOT NULL,
			error_message TEXT,
			youtube_video_id TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_videos_status_created ON videos(status, created_at);`,
		`CREATE TABLE IF NOT EXISTS uploads (
			id TEXT PRIMARY KEY,
			video_id TEXT,
			file_path TEXT NOT NULL,
			youtube_video_id TEXT,
			title TEXT,
			privacy TEXT,
			success INTEGER NOT NULL DEFAULT 0,
			verified INTEGER NOT NULL DEFAULT 0,
			processing_status TEXT,
			error_message TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_created ON uploads(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_youtube_id ON uploads(youtube_video_id);`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	// Add new columns if they don't exist (for existing databases)
	// SQLite doesn't support IF NOT EXISTS for ALTER TABLE, so we need to check first
	migrationStatements := []struct {
		checkQuery string
		addQuery   string
	}{
		{
			checkQuery: `SELECT COUNT(*) FROM pragma_table_info('videos') WHERE name='file_size_label'`,
			addQuery:   `ALTER TABLE videos ADD COLUMN file_size_label TEXT`,
		},
		{
			checkQuery: `SELECT COUNT(*) FROM pragma_table_info('uploads') WHERE name='processing_status'`,
			addQuery:   `ALTER TABLE uploads ADD COLUMN processing_status TEXT`,
		},
	}

	for _, migration := range migrationStatements {
		var count int
		err := db.QueryRow(migration.checkQuery).Scan(&count)
		if err != nil {
			// If query fails, try to add column anyway (table might exist but pragma query failed)
			_, _ = db.Exec(migration.addQuery)
			continue
		}
		if count == 0 {
			// Column doesn't exist, add it
			_, err = db.Exec(migration.addQuery)
			// Ignore error - column might already exist due to race condition
			// or SQLite might return error if column exists, which is fine
			_ = err
		}
	}

	return nil
}
