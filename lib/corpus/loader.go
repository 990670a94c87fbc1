package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// loader error taxonomy. All of them abort the load immediately, the caller
// never gets a partial dataset. Wrapped errors carry the line number.
var (
	ErrIO     = errors.New("source unreadable")
	ErrFormat = errors.New("missing tab delimiter")
	ErrLabel  = errors.New("unknown label")
	ErrDecode = errors.New("invalid utf-8")
)

// Load reads a tab-separated source, one record per line: label field, tab,
// message field. Record order matches line order, no line is dropped or reordered.
func Load(r io.Reader) (Dataset, error) {
	res := Dataset{Records: []Record{}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if !utf8.ValidString(line) {
			return Dataset{}, fmt.Errorf("line %d: %w", n, ErrDecode)
		}
		labelField, text, found := strings.Cut(line, "\t")
		if !found {
			return Dataset{}, fmt.Errorf("line %d: %w", n, ErrFormat)
		}
		label, err := ParseLabel(labelField)
		if err != nil {
			return Dataset{}, fmt.Errorf("line %d: %w", n, err)
		}
		res.Records = append(res.Records, Record{Label: label, Text: text})
	}

	if err := scanner.Err(); err != nil {
		return Dataset{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return res, nil
}

// LoadFile is a convenience wrapper for Load reading from a file.
func LoadFile(path string) (Dataset, error) {
	fh, err := os.Open(path) //nolint:gosec // source path comes from the caller
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer fh.Close()

	res, err := Load(fh)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return res, nil
}
