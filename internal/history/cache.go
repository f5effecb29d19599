package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tahmid/pneumoscan/pkg/models"
)

var ErrNoCache = errors.New("no history cache configured")

const schema = `
CREATE TABLE IF NOT EXISTS history_snapshot (
    position INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_id TEXT,
    disease TEXT NOT NULL,
    confidence REAL NOT NULL,
    timestamp TEXT NOT NULL,
    image_url TEXT
);

CREATE INDEX IF NOT EXISTS idx_history_snapshot_timestamp ON history_snapshot(timestamp);
`

// Cache is a local snapshot of the most recently fetched history so
// the listing can be rendered offline. It is never the source of truth;
// every successful refresh replaces it wholesale.
type Cache struct {
	db *sql.DB
}

func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// ReplaceAll swaps the snapshot for the given list, preserving the
// source order the server returned.
func (c *Cache) ReplaceAll(ctx context.Context, entries []models.HistoryEntry) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history_snapshot`); err != nil {
		return err
	}

	for _, entry := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO history_snapshot (entry_id, disease, confidence, timestamp, image_url)
			 VALUES (?, ?, ?, ?, ?)`,
			nullString(entry.ID), entry.Disease, entry.Confidence,
			entry.Timestamp.Format(time.RFC3339Nano), nullString(entry.ImageURL))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (c *Cache) List(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT entry_id, disease, confidence, timestamp, image_url
		 FROM history_snapshot ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var entry models.HistoryEntry
		var entryID, imageURL sql.NullString
		var stamp string
		if err := rows.Scan(&entryID, &entry.Disease, &entry.Confidence, &stamp, &imageURL); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, stamp)
		if err != nil {
			return nil, fmt.Errorf("corrupt snapshot timestamp %q: %w", stamp, err)
		}
		entry.ID = entryID.String
		entry.ImageURL = imageURL.String
		entry.Timestamp = models.At(parsed)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
