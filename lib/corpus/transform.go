package corpus

import (
	"strings"

	"github.com/forPelevin/gomoji"
)

// StopWords is a lookup of tokens to drop during filtering,
// implemented by stopwords.Set.
type StopWords interface {
	Has(token string) bool
}

// Lowercase returns a copy of the dataset with every message case-folded.
// Labels are untouched.
func (d Dataset) Lowercase() Dataset {
	res := Dataset{Records: make([]Record, len(d.Records))}
	for i, r := range d.Records {
		res.Records[i] = Record{Label: r.Label, Text: strings.ToLower(r.Text)}
	}
	return res
}

// StripPunctuation returns a copy of the dataset with every ASCII punctuation
// character removed from messages. All other characters, including whitespace
// runs, keep their identity and relative order.
func (d Dataset) StripPunctuation() Dataset {
	res := Dataset{Records: make([]Record, len(d.Records))}
	for i, r := range d.Records {
		res.Records[i] = Record{Label: r.Label, Text: stripPunct(r.Text)}
	}
	return res
}

// CleanEmoji returns a copy of the dataset with emoji removed from messages.
// Not a part of the strict preprocessing chain, useful for corpora collected
// from emoji-heavy sources.
func (d Dataset) CleanEmoji() Dataset {
	res := Dataset{Records: make([]Record, len(d.Records))}
	for i, r := range d.Records {
		res.Records[i] = Record{Label: r.Label, Text: gomoji.RemoveEmojis(r.Text)}
	}
	return res
}

// Tokenize splits every message on whitespace runs, discarding empty fragments
// and preserving token order. All-whitespace messages produce an empty document.
func (d Dataset) Tokenize() TokenDataset {
	res := TokenDataset{Labels: make([]Label, len(d.Records)), Docs: make([][]string, len(d.Records))}
	for i, r := range d.Records {
		res.Labels[i] = r.Label
		res.Docs[i] = Tokenize(r.Text)
	}
	return res
}

// Tokenize splits a single message on whitespace runs, the same way the dataset
// transform does it.
func Tokenize(text string) []string {
	tokens := strings.Fields(text)
	if tokens == nil {
		tokens = []string{}
	}
	return tokens
}

// FilterStopWords returns a copy of the dataset with stopword tokens removed.
// The match is exact and case-sensitive, tokens are expected to be lowercased
// already. Order of surviving tokens is preserved.
func (t TokenDataset) FilterStopWords(stops StopWords) TokenDataset {
	res := TokenDataset{Labels: make([]Label, len(t.Labels)), Docs: make([][]string, len(t.Docs))}
	copy(res.Labels, t.Labels)
	for i, doc := range t.Docs {
		filtered := make([]string, 0, len(doc))
		for _, tok := range doc {
			if stops.Has(tok) {
				continue
			}
			filtered = append(filtered, tok)
		}
		res.Docs[i] = filtered
	}
	return res
}

// StripPunct removes every ASCII punctuation character from a string,
// scanning character by character. Exposed for single-message (inference) use.
func StripPunct(s string) string { return stripPunct(s) }

func stripPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isASCIIPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isASCIIPunct matches the ASCII punctuation set !"#$%&'()*+,-./:;<=>?@[\]^_`{|}~
func isASCIIPunct(r rune) bool {
	switch {
	case r >= '!' && r <= '/', r >= ':' && r <= '@', r >= '[' && r <= '`', r >= '{' && r <= '~':
		return true
	}
	return false
}
