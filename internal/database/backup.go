package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
)

// Backup writes a consistent copy of the store to dest. It works on the
// read-only handle, so it never competes with the writer.
func Backup(ctx context.Context, db *sqlx.DB, dest string) error {
	startTime := time.Now()
	tmp := dest + ".tmp"
	_ = os.Remove(tmp)

	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, tmp); err != nil {
		return fmt.Errorf("vacuum into %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("rename backup: %w", err)
	}

	log.Printf("[Database] Backup OK: dest=%s duration=%v", dest, time.Since(startTime))
	return nil
}
