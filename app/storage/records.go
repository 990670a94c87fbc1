// Package storage keeps labeled SMS corpora and fitted vocabularies in SQL,
// sqlite or postgres. Stores are gid-scoped, multiple corpora can share one
// database.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/umputun/sms-spam/app/storage/engine"
	"github.com/umputun/sms-spam/lib/corpus"
)

// Records is a storage for labeled messages, the persisted form of a raw corpus.
// Insertion order is kept, reading the store back produces the records in the
// same order they were imported.
type Records struct {
	*engine.SQL
	engine.RWLocker
}

// records-related command constants
const (
	CmdCreateRecordsTable engine.DBCmd = iota + 100
	CmdCreateRecordsIndexes
	CmdAddRecord
)

var recordsQueries = engine.NewQueryMap().
	Add(CmdCreateRecordsTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS records (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            gid TEXT NOT NULL DEFAULT '',
            timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
            label TEXT CHECK (label IN ('ham', 'spam')),
            message TEXT NOT NULL
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS records (
            id SERIAL PRIMARY KEY,
            gid TEXT NOT NULL DEFAULT '',
            timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
            label TEXT CHECK (label IN ('ham', 'spam')),
            message TEXT NOT NULL
        )`,
	}).
	AddSame(CmdCreateRecordsIndexes, `CREATE INDEX IF NOT EXISTS idx_records_gid ON records(gid)`).
	Add(CmdAddRecord, engine.Query{
		Sqlite:   `INSERT INTO records (gid, label, message) VALUES (?, ?, ?)`,
		Postgres: `INSERT INTO records (gid, label, message) VALUES ($1, $2, $3)`,
	})

// RecordsStats holds per-label counts of the stored corpus
type RecordsStats struct {
	TotalRecords int `db:"total_records"`
	HamRecords   int `db:"ham_records"`
	SpamRecords  int `db:"spam_records"`
}

// NewRecords creates a records store, creating the table and indexes if needed.
func NewRecords(ctx context.Context, db *engine.SQL) (*Records, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	if err := engine.InitTable(ctx, db, recordsQueries, CmdCreateRecordsTable); err != nil {
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}
	if err := engine.InitTable(ctx, db, recordsQueries, CmdCreateRecordsIndexes); err != nil {
		return nil, fmt.Errorf("failed to create records indexes: %w", err)
	}
	return &Records{SQL: db, RWLocker: db.MakeLock()}, nil
}

// Add inserts a single labeled message
func (r *Records) Add(ctx context.Context, label corpus.Label, message string) error {
	if _, err := corpus.ParseLabel(label.String()); err != nil {
		return err
	}
	if message == "" {
		return fmt.Errorf("message can't be empty")
	}

	r.Lock()
	defer r.Unlock()

	query, err := recordsQueries.Pick(r.Type(), CmdAddRecord)
	if err != nil {
		return fmt.Errorf("failed to get query: %w", err)
	}
	if _, err := r.ExecContext(ctx, query, r.GID(), label, message); err != nil {
		return fmt.Errorf("failed to add record: %w", err)
	}
	return nil
}

// Import stores a whole dataset in one transaction, preserving record order.
// If withCleanup is true all previously stored records for the gid are removed first.
func (r *Records) Import(ctx context.Context, ds corpus.Dataset, withCleanup bool) (*RecordsStats, error) {
	r.Lock()
	defer r.Unlock()

	tx, err := r.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if withCleanup {
		if _, err = tx.ExecContext(ctx, r.Adopt(`DELETE FROM records WHERE gid = ?`), r.GID()); err != nil {
			return nil, fmt.Errorf("failed to remove old records: %w", err)
		}
	}

	query, err := recordsQueries.Pick(r.Type(), CmdAddRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}
	for _, rec := range ds.Records {
		if _, err = tx.ExecContext(ctx, query, r.GID(), rec.Label, rec.Text); err != nil {
			return nil, fmt.Errorf("failed to add record: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[DEBUG] imported %d records, gid=%s", ds.Len(), r.GID())
	return r.stats(ctx)
}

// Dataset reads the stored corpus back in insertion order.
func (r *Records) Dataset(ctx context.Context) (corpus.Dataset, error) {
	r.RLock()
	defer r.RUnlock()

	var rows []struct {
		Label   string `db:"label"`
		Message string `db:"message"`
	}
	query := r.Adopt(`SELECT label, message FROM records WHERE gid = ? ORDER BY id`)
	if err := r.SelectContext(ctx, &rows, query, r.GID()); err != nil {
		return corpus.Dataset{}, fmt.Errorf("failed to get records: %w", err)
	}

	res := corpus.Dataset{Records: make([]corpus.Record, 0, len(rows))}
	for _, row := range rows {
		label, err := corpus.ParseLabel(row.Label)
		if err != nil {
			return corpus.Dataset{}, fmt.Errorf("stored record is corrupted: %w", err)
		}
		res.Records = append(res.Records, corpus.Record{Label: label, Text: row.Message})
	}
	return res, nil
}

// Reader streams the stored corpus as tab-separated lines, the same format the
// loader consumes. Records come out in insertion order.
func (r *Records) Reader(ctx context.Context) (io.ReadCloser, error) {
	ds, err := r.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return &datasetReader{ds: ds}, nil
}

// Stats returns the label breakdown of the stored corpus
func (r *Records) Stats(ctx context.Context) (*RecordsStats, error) {
	r.RLock()
	defer r.RUnlock()
	return r.stats(ctx)
}

// Count returns the number of stored records
func (r *Records) Count(ctx context.Context) (int, error) {
	r.RLock()
	defer r.RUnlock()

	var count int
	query := r.Adopt(`SELECT COUNT(*) FROM records WHERE gid = ?`)
	if err := r.GetContext(ctx, &count, query, r.GID()); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// DeleteAll removes all records for the gid
func (r *Records) DeleteAll(ctx context.Context) error {
	r.Lock()
	defer r.Unlock()

	if _, err := r.ExecContext(ctx, r.Adopt(`DELETE FROM records WHERE gid = ?`), r.GID()); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// stats is the lock-free inner part of Stats, used by callers already holding the lock
func (r *Records) stats(ctx context.Context) (*RecordsStats, error) {
	query := r.Adopt(`
        SELECT
            COUNT(*) as total_records,
            COALESCE(SUM(CASE WHEN label = 'ham' THEN 1 ELSE 0 END), 0) as ham_records,
            COALESCE(SUM(CASE WHEN label = 'spam' THEN 1 ELSE 0 END), 0) as spam_records
        FROM records WHERE gid = ?`)

	var res RecordsStats
	if err := r.GetContext(ctx, &res, query, r.GID()); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &res, nil
}
