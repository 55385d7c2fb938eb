package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const driverName = "sqlite3"

// DefaultReadConns bounds the read-only pool.
const DefaultReadConns = 4

// OpenWriter opens the single read-write connection to the store file and
// applies the schema. The returned handle is limited to one open connection;
// hand it to exactly one writer.
func OpenWriter(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database writer: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[Database] Writer connected: path=%s", path)
	return db, nil
}

// OpenReader opens a read-only pool on an existing store file.
func OpenReader(path string, maxConns int) (*sqlx.DB, error) {
	if maxConns <= 0 {
		maxConns = DefaultReadConns
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database reader: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	log.Printf("[Database] Reader connected: path=%s conns=%d", path, maxConns)
	return db, nil
}
