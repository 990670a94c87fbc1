package vectorize

import (
	"github.com/umputun/sms-spam/lib/corpus"
)

// Number is the numeric element type of feature vectors and label vectors.
// The values are term-frequency counts and 0/1 label codes, any of these types
// represents them exactly.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

// BagOfWords encodes a token sequence into a dense term-frequency vector over
// the vocabulary. Element i counts occurrences of vocabulary token i, repeated
// tokens accumulate. Tokens missing from the vocabulary are dropped silently.
// The result length is always vocab.Len(), an all-zero vector for an empty or
// fully out-of-vocabulary sequence.
func BagOfWords[T Number](tokens []string, vocab Vocabulary) []T {
	res := make([]T, vocab.Len())
	for _, tok := range tokens {
		if idx, ok := vocab.Index(tok); ok {
			res[idx]++
		}
	}
	return res
}

// EncodeLabel maps Spam to 1 and Ham to 0.
func EncodeLabel[T Number](l corpus.Label) T {
	if l == corpus.Spam {
		return 1
	}
	return 0
}

// Prepare runs the whole preprocessing chain over a raw dataset - lowercase,
// strip punctuation, tokenize, drop stopwords - and vectorizes the result.
// This is the single entry point for the training path.
func Prepare[T Number](ds corpus.Dataset, stops corpus.StopWords) (matrix [][]T, labels []T, vocab Vocabulary) {
	td := ds.Lowercase().StripPunctuation().Tokenize().FilterStopWords(stops)
	return TrainingInput[T](td)
}

// TrainingInput builds the triple handed to an external trainer: a feature
// matrix with row i encoding document i, the aligned label vector, and the
// vocabulary defining the columns. The vocabulary is built from the dataset
// itself, first-occurrence order.
func TrainingInput[T Number](td corpus.TokenDataset) (matrix [][]T, labels []T, vocab Vocabulary) {
	vocab = BuildVocabulary(td.Docs)

	matrix = make([][]T, len(td.Docs))
	for i, doc := range td.Docs {
		matrix[i] = BagOfWords[T](doc, vocab)
	}

	labels = make([]T, len(td.Labels))
	for i, l := range td.Labels {
		labels[i] = EncodeLabel[T](l)
	}
	return matrix, labels, vocab
}
