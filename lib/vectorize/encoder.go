package vectorize

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/umputun/sms-spam/lib/corpus"
)

// Encoder turns one raw message into a feature vector against a frozen
// vocabulary. It is stateless after construction and safe for concurrent use.
//
// The default encoder lowercases before tokenizing, matching the corpus
// preprocessing used at training time. Stopword filtering is intentionally
// absent here: stopwords are removed before the vocabulary is built, so they
// have no index and cannot contribute to the vector either way.
type Encoder struct {
	vocab    Vocabulary
	keepCase bool
	fp       string
}

// NewEncoder creates an encoder applying the full normalization chain:
// lowercase, strip ASCII punctuation, tokenize on whitespace.
func NewEncoder(vocab Vocabulary) *Encoder {
	e := &Encoder{vocab: vocab}
	e.fp = fingerprint(vocab, e.keepCase)
	return e
}

// NewLegacyEncoder creates an encoder skipping the lowercase step. The first
// deployed version of the inference plugin encoded messages without case
// folding, models fitted against such vectors need this mode to keep matching.
func NewLegacyEncoder(vocab Vocabulary) *Encoder {
	e := &Encoder{vocab: vocab, keepCase: true}
	e.fp = fingerprint(vocab, e.keepCase)
	return e
}

// fingerprint hashes the vocabulary in index order plus the case mode, two
// encoders produce the same vectors iff their fingerprints match
func fingerprint(vocab Vocabulary, keepCase bool) string {
	h := sha256.New()
	fmt.Fprintf(h, "keepCase=%v\n", keepCase)
	for _, token := range vocab.Tokens() {
		h.Write([]byte(token))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Encode converts a raw message into a term-frequency vector of length
// equal to the vocabulary size. Always succeeds.
func (e *Encoder) Encode(raw string) []float64 {
	return BagOfWords[float64](e.Tokens(raw), e.vocab)
}

// Tokens returns the normalized token sequence the encoder counts,
// useful for diagnostics.
func (e *Encoder) Tokens(raw string) []string {
	text := raw
	if !e.keepCase {
		text = strings.ToLower(text)
	}
	return corpus.Tokenize(corpus.StripPunct(text))
}

// Vocabulary returns the frozen vocabulary the encoder was built with.
func (e *Encoder) Vocabulary() Vocabulary { return e.vocab }

// Fingerprint identifies the encoder's feature space. Two encoders with the
// same fingerprint encode any message identically, callers can use it to key
// caches of encoded vectors across vocabulary rebuilds.
func (e *Encoder) Fingerprint() string { return e.fp }
