// Package vectorize turns tokenized SMS corpora into numeric feature data for
// external model training, and encodes single messages into the same feature
// space at inference time. The vocabulary it builds defines the feature space:
// a fitted model's coefficients are indexed by vocabulary positions, so the
// token→index assignment has to be deterministic and frozen once built.
package vectorize

import (
	"encoding/json"
	"fmt"
)

// Vocabulary is a frozen mapping from token to a dense non-negative index.
// Indices cover [0, Len()) with no gaps or duplicates. Once built the value is
// read-only and safe to share between goroutines.
type Vocabulary struct {
	index map[string]int
}

// BuildVocabulary scans documents in order, tokens within each document in
// sequence order, and assigns each previously unseen token the next index,
// starting from 0. A repeated token keeps its first-occurrence index. The same
// corpus in the same order always produces the identical mapping.
func BuildVocabulary(docs [][]string) Vocabulary {
	index := map[string]int{}
	next := 0
	for _, doc := range docs {
		for _, tok := range doc {
			if _, seen := index[tok]; seen {
				continue
			}
			index[tok] = next
			next++
		}
	}
	return Vocabulary{index: index}
}

// VocabularyFromMap builds a vocabulary from an exchanged token→index mapping,
// validating that indices form a dense [0, len) range with no duplicates.
func VocabularyFromMap(m map[string]int) (Vocabulary, error) {
	seen := make([]bool, len(m))
	for tok, idx := range m {
		if idx < 0 || idx >= len(m) {
			return Vocabulary{}, fmt.Errorf("token %q has index %d out of range [0,%d)", tok, idx, len(m))
		}
		if seen[idx] {
			return Vocabulary{}, fmt.Errorf("duplicate index %d for token %q", idx, tok)
		}
		seen[idx] = true
	}
	index := make(map[string]int, len(m))
	for tok, idx := range m {
		index[tok] = idx
	}
	return Vocabulary{index: index}, nil
}

// Index returns the index of a token and whether the token is known.
func (v Vocabulary) Index(token string) (int, bool) {
	idx, ok := v.index[token]
	return idx, ok
}

// Len returns the size of the vocabulary
func (v Vocabulary) Len() int { return len(v.index) }

// Tokens returns all tokens ordered by their index.
func (v Vocabulary) Tokens() []string {
	res := make([]string, len(v.index))
	for tok, idx := range v.index {
		res[idx] = tok
	}
	return res
}

// MarshalJSON serializes the vocabulary as a token→index object. Iteration
// order of the serialized form is not significant, indices round-trip exactly.
func (v Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.index)
}

// UnmarshalJSON restores a vocabulary from the exchange format, rejecting
// mappings with non-dense or duplicated indices.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to decode vocabulary: %w", err)
	}
	res, err := VocabularyFromMap(m)
	if err != nil {
		return fmt.Errorf("invalid vocabulary: %w", err)
	}
	*v = res
	return nil
}
