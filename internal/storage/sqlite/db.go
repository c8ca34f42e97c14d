package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"safefeed/internal/moderation"
)

var _ moderation.Store = (*Store)(nil)

const contentColumns = `
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id   TEXT NOT NULL,
		body        TEXT NOT NULL,
		ip_address  TEXT DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'pending',
		flagged     INTEGER NOT NULL DEFAULT 0,
		severity    TEXT NOT NULL DEFAULT 'none',
		categories  TEXT DEFAULT '',
		confidence  REAL NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL,
		updated_at  DATETIME NOT NULL`

// InitDB opens the database at path and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id    TEXT PRIMARY KEY,
		username   TEXT DEFAULT '',
		full_name  TEXT DEFAULT '',
		is_admin   INTEGER NOT NULL DEFAULT 0,
		banned     INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS posts (` + contentColumns + `
	);
	CREATE INDEX IF NOT EXISTS idx_posts_status ON posts(status);
	CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);

	CREATE TABLE IF NOT EXISTS comments (` + contentColumns + `,
		post_id     INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);
	CREATE INDEX IF NOT EXISTS idx_comments_status ON comments(status);

	CREATE TABLE IF NOT EXISTS reports (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		reporter_id      TEXT NOT NULL,
		reported_user_id TEXT,
		post_id          INTEGER,
		comment_id       INTEGER,
		reason           TEXT NOT NULL,
		status           TEXT NOT NULL DEFAULT 'pending',
		content_snapshot TEXT DEFAULT '',
		created_at       DATETIME NOT NULL,
		resolved_at      DATETIME,
		CHECK ((post_id IS NULL) <> (comment_id IS NULL))
	);
	CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);

	CREATE TABLE IF NOT EXISTS support_conversations (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT NOT NULL,
		message    TEXT NOT NULL,
		response   TEXT NOT NULL,
		category   TEXT NOT NULL,
		source     TEXT DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_support_user ON support_conversations(user_id, created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	// Migration: verdict provenance was added after the first release.
	for _, table := range []string{"posts", "comments"} {
		if err := ensureColumn(db, table, "source", `TEXT NOT NULL DEFAULT 'ml'`); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

func ensureColumn(db *sql.DB, table, column, ddl string) error {
	var colCount int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&colCount)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if colCount > 0 {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, ddl)); err != nil {
		return fmt.Errorf("add %s.%s: %w", table, column, err)
	}
	return nil
}

// Store implements the moderation record store on SQLite.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open initializes the database at path and wraps it in a Store.
func Open(path string) (*Store, error) {
	db, err := InitDB(path)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
