package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/umputun/sms-spam/app/storage/engine"
	"github.com/umputun/sms-spam/lib/vectorize"
)

// Vocab is a storage for fitted vocabularies. The stored mapping round-trips
// exactly: every token comes back with the index it was saved with.
type Vocab struct {
	*engine.SQL
	engine.RWLocker
}

// vocabulary-related command constants
const (
	CmdCreateVocabTable engine.DBCmd = iota + 200
	CmdCreateVocabIndexes
	CmdAddVocabToken
)

var vocabQueries = engine.NewQueryMap().
	Add(CmdCreateVocabTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS vocabulary (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            gid TEXT NOT NULL DEFAULT '',
            token TEXT NOT NULL,
            idx INTEGER NOT NULL,
            UNIQUE(gid, token),
            UNIQUE(gid, idx)
        )`,
		Postgres: `CREATE TABLE IF NOT EXISTS vocabulary (
            id SERIAL PRIMARY KEY,
            gid TEXT NOT NULL DEFAULT '',
            token TEXT NOT NULL,
            idx INTEGER NOT NULL,
            UNIQUE(gid, token),
            UNIQUE(gid, idx)
        )`,
	}).
	AddSame(CmdCreateVocabIndexes, `CREATE INDEX IF NOT EXISTS idx_vocabulary_gid ON vocabulary(gid)`).
	Add(CmdAddVocabToken, engine.Query{
		Sqlite:   `INSERT INTO vocabulary (gid, token, idx) VALUES (?, ?, ?)`,
		Postgres: `INSERT INTO vocabulary (gid, token, idx) VALUES ($1, $2, $3)`,
	})

// NewVocab creates a vocabulary store, creating the table and indexes if needed.
func NewVocab(ctx context.Context, db *engine.SQL) (*Vocab, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	if err := engine.InitTable(ctx, db, vocabQueries, CmdCreateVocabTable); err != nil {
		return nil, fmt.Errorf("failed to create vocabulary table: %w", err)
	}
	if err := engine.InitTable(ctx, db, vocabQueries, CmdCreateVocabIndexes); err != nil {
		return nil, fmt.Errorf("failed to create vocabulary indexes: %w", err)
	}
	return &Vocab{SQL: db, RWLocker: db.MakeLock()}, nil
}

// Save replaces the stored vocabulary for the gid with the given one,
// delete and insert in a single transaction.
func (v *Vocab) Save(ctx context.Context, vocab vectorize.Vocabulary) error {
	v.Lock()
	defer v.Unlock()

	tx, err := v.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, v.Adopt(`DELETE FROM vocabulary WHERE gid = ?`), v.GID()); err != nil {
		return fmt.Errorf("failed to remove old vocabulary: %w", err)
	}

	query, err := vocabQueries.Pick(v.Type(), CmdAddVocabToken)
	if err != nil {
		return fmt.Errorf("failed to get query: %w", err)
	}
	for idx, token := range vocab.Tokens() {
		if _, err = tx.ExecContext(ctx, query, v.GID(), token, idx); err != nil {
			return fmt.Errorf("failed to add token %q: %w", token, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[DEBUG] saved vocabulary of %d tokens, gid=%s", vocab.Len(), v.GID())
	return nil
}

// Load reads the stored vocabulary back, validating the index range.
func (v *Vocab) Load(ctx context.Context) (vectorize.Vocabulary, error) {
	v.RLock()
	defer v.RUnlock()

	var rows []struct {
		Token string `db:"token"`
		Idx   int    `db:"idx"`
	}
	query := v.Adopt(`SELECT token, idx FROM vocabulary WHERE gid = ?`)
	if err := v.SelectContext(ctx, &rows, query, v.GID()); err != nil {
		return vectorize.Vocabulary{}, fmt.Errorf("failed to get vocabulary: %w", err)
	}

	m := make(map[string]int, len(rows))
	for _, row := range rows {
		m[row.Token] = row.Idx
	}
	res, err := vectorize.VocabularyFromMap(m)
	if err != nil {
		return vectorize.Vocabulary{}, fmt.Errorf("stored vocabulary is corrupted: %w", err)
	}
	return res, nil
}

// Count returns the number of stored vocabulary tokens
func (v *Vocab) Count(ctx context.Context) (int, error) {
	v.RLock()
	defer v.RUnlock()

	var count int
	query := v.Adopt(`SELECT COUNT(*) FROM vocabulary WHERE gid = ?`)
	if err := v.GetContext(ctx, &count, query, v.GID()); err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return count, nil
}
