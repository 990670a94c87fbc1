package vectorize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/sms-spam/lib/corpus"
	"github.com/umputun/sms-spam/lib/stopwords"
)

func TestBagOfWords(t *testing.T) {
	vocab := BuildVocabulary([][]string{{"hello", "world", "win", "cash"}})

	tests := []struct {
		name   string
		tokens []string
		want   []int
	}{
		{name: "single occurrences", tokens: []string{"hello", "world"}, want: []int{1, 1, 0, 0}},
		{name: "repeated tokens accumulate", tokens: []string{"win", "win", "cash", "win"}, want: []int{0, 0, 3, 1}},
		{name: "oov dropped silently", tokens: []string{"hello", "unknown", "stranger"}, want: []int{1, 0, 0, 0}},
		{name: "empty sequence gives zero vector", tokens: []string{}, want: []int{0, 0, 0, 0}},
		{name: "all oov gives zero vector", tokens: []string{"x", "y"}, want: []int{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BagOfWords[int](tt.tokens, vocab)
			require.Len(t, got, vocab.Len(), "vector length always matches vocabulary")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBagOfWords_NumericTypes(t *testing.T) {
	vocab := BuildVocabulary([][]string{{"a", "b"}})
	tokens := []string{"a", "a", "b"}

	assert.Equal(t, []float64{2, 1}, BagOfWords[float64](tokens, vocab))
	assert.Equal(t, []int64{2, 1}, BagOfWords[int64](tokens, vocab))
	assert.Equal(t, []uint{2, 1}, BagOfWords[uint](tokens, vocab))
}

func TestEncodeLabel(t *testing.T) {
	assert.Equal(t, 0, EncodeLabel[int](corpus.Ham))
	assert.Equal(t, 1, EncodeLabel[int](corpus.Spam))
	assert.Equal(t, float64(0), EncodeLabel[float64](corpus.Ham))
	assert.Equal(t, float64(1), EncodeLabel[float64](corpus.Spam))
}

func TestTrainingInput(t *testing.T) {
	td := corpus.TokenDataset{
		Labels: []corpus.Label{corpus.Ham, corpus.Spam},
		Docs: [][]string{
			{"hello", "world"},
			{"win", "cash"},
		},
	}

	matrix, labels, vocab := TrainingInput[int](td)

	require.Len(t, matrix, 2, "one row per document")
	require.Len(t, labels, 2)
	assert.Equal(t, 4, vocab.Len())
	assert.Equal(t, []int{1, 1, 0, 0}, matrix[0])
	assert.Equal(t, []int{0, 0, 1, 1}, matrix[1])
	assert.Equal(t, []int{0, 1}, labels)
}

// full chain scenario: two raw records all the way to the training triple
func TestPrepare(t *testing.T) {
	src := "ham\tHello, World!!\nspam\tWIN cash NOW!!!\n"
	ds, err := corpus.Load(strings.NewReader(src))
	require.NoError(t, err)

	matrix, labels, vocab := Prepare[int](ds, stopwords.English())

	require.Len(t, matrix, ds.Len())
	require.Len(t, labels, ds.Len())
	assert.Equal(t, 4, vocab.Len(), `"now" is a stopword and never reaches the vocabulary`)
	assert.Equal(t, []string{"hello", "world", "win", "cash"}, vocab.Tokens())
	assert.Equal(t, []int{1, 1, 0, 0}, matrix[0])
	assert.Equal(t, []int{0, 0, 1, 1}, matrix[1])
	assert.Equal(t, []int{0, 1}, labels)
}

func TestPrepare_FullyFilteredMessage(t *testing.T) {
	src := "ham\tgood stuff here\nspam\t?!... the and now\n"
	ds, err := corpus.Load(strings.NewReader(src))
	require.NoError(t, err)

	matrix, labels, vocab := Prepare[int](ds, stopwords.English())

	require.Len(t, matrix, 2)
	require.Len(t, labels, 2)
	assert.Equal(t, []int{0, 0, 0}, matrix[1], "punctuation and stopwords only - all-zero vector")
	assert.Equal(t, 3, vocab.Len())
}

func TestPrepare_Deterministic(t *testing.T) {
	src := "ham\tzebra apple zebra\nspam\tmango apple kiwi\nham\tkiwi zebra plum\n"
	ds, err := corpus.Load(strings.NewReader(src))
	require.NoError(t, err)

	_, _, first := Prepare[int](ds, stopwords.English())
	for i := 0; i < 5; i++ {
		_, _, again := Prepare[int](ds, stopwords.English())
		assert.Equal(t, first.Tokens(), again.Tokens())
	}
}
