// Package corpus defines the data model for labeled SMS collections and the
// transforms preparing raw messages for vectorization. A Dataset is loaded once
// from a tab-separated source and pushed through a chain of pure transforms,
// each returning a new value and leaving its input untouched.
package corpus

import "fmt"

// Label is a class tag of a single record, ham or spam.
type Label string

// enum of allowed labels
const (
	Ham  Label = "ham"
	Spam Label = "spam"
)

// ParseLabel converts a raw label field to a Label.
// Only the exact strings "ham" and "spam" are accepted.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "ham":
		return Ham, nil
	case "spam":
		return Spam, nil
	}
	return "", fmt.Errorf("%w: %q", ErrLabel, s)
}

func (l Label) String() string { return string(l) }

// Record is a single labeled message. Produced once by the loader, never mutated,
// transforms make derived records instead.
type Record struct {
	Label Label
	Text  string
}

// Dataset is an ordered collection of raw records, one per source line.
type Dataset struct {
	Records []Record
}

// Len returns the number of records in the dataset
func (d Dataset) Len() int { return len(d.Records) }

// TokenDataset is the tokenized form of a Dataset. Labels[i] and Docs[i] both
// refer to record i, and every transform preserves len(Labels) == len(Docs).
type TokenDataset struct {
	Labels []Label
	Docs   [][]string
}

// Len returns the number of documents in the dataset
func (t TokenDataset) Len() int { return len(t.Docs) }
