package db

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// sqliteParams make every transaction take the write lock at BEGIN, wait for
// a busy database instead of failing, and enforce foreign keys.
var sqliteParams = url.Values{
	"_txlock":       {"immediate"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
	"_journal_mode": {"WAL"},
}

// NewSQLite opens (creating if needed) the database file at path.
func NewSQLite(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?" + sqliteParams.Encode()
	conn, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps writers strictly ordered.
	conn.SetMaxOpenConns(1)

	log.Info().Str("path", path).Msg("Opened SQLite database")
	return conn, nil
}

// MigrateSQLite applies the SQL files under dir/sqlite to conn.
func MigrateSQLite(conn *sqlx.DB, dir string) error {
	driver, err := sqlite3.WithInstance(conn.DB, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	return up(dir, "sqlite", "main", driver)
}
