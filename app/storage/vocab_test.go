package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/sms-spam/app/storage/engine"
	"github.com/umputun/sms-spam/lib/vectorize"
)

func newTestVocab(t *testing.T) (*Vocab, context.Context) {
	t.Helper()
	ctx := context.Background()
	db, err := engine.NewSqlite(":memory:", "gr1")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	res, err := NewVocab(ctx, db)
	require.NoError(t, err)
	return res, ctx
}

func TestNewVocab(t *testing.T) {
	_, err := NewVocab(context.Background(), nil)
	assert.Error(t, err, "nil db rejected")
}

func TestVocab_SaveAndLoad(t *testing.T) {
	v, ctx := newTestVocab(t)

	vocab := vectorize.BuildVocabulary([][]string{{"hello", "world"}, {"win", "cash"}})
	require.NoError(t, v.Save(ctx, vocab))

	count, err := v.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	restored, err := v.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, vocab.Len(), restored.Len())
	for _, tok := range vocab.Tokens() {
		want, _ := vocab.Index(tok)
		got, ok := restored.Index(tok)
		require.True(t, ok, "token %q survived the round-trip", tok)
		assert.Equal(t, want, got, "index for %q round-trips exactly", tok)
	}
}

func TestVocab_SaveReplaces(t *testing.T) {
	v, ctx := newTestVocab(t)

	require.NoError(t, v.Save(ctx, vectorize.BuildVocabulary([][]string{{"old", "tokens", "here"}})))
	require.NoError(t, v.Save(ctx, vectorize.BuildVocabulary([][]string{{"fresh", "set"}})))

	restored, err := v.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Len())
	_, ok := restored.Index("old")
	assert.False(t, ok, "previous vocabulary fully replaced")
}

func TestVocab_LoadEmpty(t *testing.T) {
	v, ctx := newTestVocab(t)

	restored, err := v.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Len())
}
