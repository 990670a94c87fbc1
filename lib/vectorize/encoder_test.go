package vectorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncoder_Encode(t *testing.T) {
	vocab := BuildVocabulary([][]string{{"hello", "world", "win", "cash"}})
	enc := NewEncoder(vocab)

	tests := []struct {
		name string
		raw  string
		want []float64
	}{
		{name: "mixed case matches after folding", raw: "Hello, WORLD!!", want: []float64{1, 1, 0, 0}},
		{name: "repeated tokens counted", raw: "win Win WIN cash", want: []float64{0, 0, 3, 1}},
		{name: "oov ignored", raw: "totally unrelated text", want: []float64{0, 0, 0, 0}},
		{name: "empty message", raw: "", want: []float64{0, 0, 0, 0}},
		{name: "punctuation only", raw: "?!...", want: []float64{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enc.Encode(tt.raw)
			require.Len(t, got, vocab.Len())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncoder_LegacyKeepsCase(t *testing.T) {
	vocab := BuildVocabulary([][]string{{"win", "cash"}})

	legacy := NewLegacyEncoder(vocab)
	assert.Equal(t, []float64{0, 1}, legacy.Encode("Win cash"), "legacy mode misses upper-cased tokens")
	assert.Equal(t, []float64{1, 1}, legacy.Encode("win cash"))

	corrected := NewEncoder(vocab)
	assert.Equal(t, []float64{1, 1}, corrected.Encode("Win cash"))
}

func TestEncoder_Tokens(t *testing.T) {
	vocab := BuildVocabulary([][]string{{"hello"}})
	assert.Equal(t, []string{"hello", "world"}, NewEncoder(vocab).Tokens("Hello, World!"))
	assert.Equal(t, []string{"Hello", "World"}, NewLegacyEncoder(vocab).Tokens("Hello, World!"))
}

func TestEncoder_Vocabulary(t *testing.T) {
	vocab := BuildVocabulary([][]string{{"a"}})
	assert.Equal(t, 1, NewEncoder(vocab).Vocabulary().Len())
}

func TestEncoder_Fingerprint(t *testing.T) {
	vocab := BuildVocabulary([][]string{{"hello", "world"}})

	assert.Equal(t, NewEncoder(vocab).Fingerprint(), NewEncoder(vocab).Fingerprint(),
		"same vocabulary and mode give the same fingerprint")

	other := BuildVocabulary([][]string{{"win", "cash"}})
	assert.NotEqual(t, NewEncoder(vocab).Fingerprint(), NewEncoder(other).Fingerprint(),
		"different vocabularies differ")

	grown := BuildVocabulary([][]string{{"hello", "world", "win"}})
	assert.NotEqual(t, NewEncoder(vocab).Fingerprint(), NewEncoder(grown).Fingerprint(),
		"rebuilt vocabulary differs")

	assert.NotEqual(t, NewEncoder(vocab).Fingerprint(), NewLegacyEncoder(vocab).Fingerprint(),
		"case mode is part of the feature space")
}
