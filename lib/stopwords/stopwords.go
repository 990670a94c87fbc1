// Package stopwords provides reference stopword sets for token filtering.
// The built-in English set is the NLTK list, embedded at build time and parsed
// once. Sets are immutable after construction and safe for concurrent use.
package stopwords

import (
	"bufio"
	"io"
	"strings"
	"sync"

	_ "embed"
)

//go:embed data/english.txt
var englishRaw string

// Set is an immutable collection of stopword tokens.
type Set struct {
	words map[string]struct{}
}

// Has reports whether the token is a stopword. The match is exact and
// case-sensitive, the built-in lists are all lowercase.
func (s Set) Has(token string) bool {
	_, ok := s.words[token]
	return ok
}

// Len returns the number of tokens in the set
func (s Set) Len() int { return len(s.words) }

// Tokens returns all tokens of the set, order is not defined.
func (s Set) Tokens() []string {
	res := make([]string, 0, len(s.words))
	for w := range s.words {
		res = append(res, w)
	}
	return res
}

var (
	english     Set
	englishOnce sync.Once
)

// English returns the embedded NLTK English stopword set.
// Parsed on first use, the same immutable value afterwards.
func English() Set {
	englishOnce.Do(func() {
		english = FromReader(strings.NewReader(englishRaw))
	})
	return english
}

// FromReader builds a set from readers with one token per line.
// Tokens are trimmed and lowercased, empty lines are skipped.
func FromReader(readers ...io.Reader) Set {
	words := map[string]struct{}{}
	for _, r := range readers {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			tok := strings.ToLower(strings.TrimSpace(scanner.Text()))
			if tok == "" {
				continue
			}
			words[tok] = struct{}{}
		}
	}
	return Set{words: words}
}
