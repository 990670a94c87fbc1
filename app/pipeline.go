package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/fileutils"
	"github.com/hashicorp/go-multierror"

	"github.com/umputun/sms-spam/app/storage"
	"github.com/umputun/sms-spam/lib/corpus"
	"github.com/umputun/sms-spam/lib/stopwords"
	"github.com/umputun/sms-spam/lib/vectorize"
)

// processor owns the preprocessing pipeline and rebuilds it on demand. The
// fitted encoder is swapped atomically, readers always see a complete
// vocabulary, either the previous one or the new one.
type processor struct {
	params     procParams
	records    recordsStore
	vocabStore vocabStore
	auditWr    io.Writer
	current    atomic.Pointer[vectorize.Encoder]
}

type procParams struct {
	file       string // labeled messages source, tab-separated
	stopWords  string // custom stopword list, empty means the built-in english set
	vocabOut   string // vocabulary json destination, empty disables the export
	matrixOut  string // feature matrix csv destination, empty disables the export
	cleanEmoji bool
	legacy     bool // encode without lowercasing
}

// recordsStore is a subset of storage.Records used by the processor
type recordsStore interface {
	Import(ctx context.Context, ds corpus.Dataset, withCleanup bool) (*storage.RecordsStats, error)
}

// vocabStore is a subset of storage.Vocab used by the processor
type vocabStore interface {
	Save(ctx context.Context, vocab vectorize.Vocabulary) error
}

// rebuild runs the whole pipeline: load the source, preprocess, vectorize,
// persist records and vocabulary, swap the encoder. Any loader failure aborts
// the rebuild, persistence failures are aggregated and reported together.
func (p *processor) rebuild(ctx context.Context) error {
	st := time.Now()

	if !fileutils.IsFile(p.params.file) {
		return fmt.Errorf("source file %s not found", p.params.file)
	}
	ds, err := corpus.LoadFile(p.params.file)
	if err != nil {
		return fmt.Errorf("can't load dataset: %w", err)
	}
	if p.params.cleanEmoji {
		ds = ds.CleanEmoji()
	}

	stops, err := p.stopWords()
	if err != nil {
		return fmt.Errorf("can't load stop words: %w", err)
	}

	matrix, labels, vocab := vectorize.Prepare[float64](ds, stops)
	log.Printf("[INFO] pipeline done in %v: %d records, matrix %dx%d, vocabulary %d tokens",
		time.Since(st).Round(time.Millisecond), ds.Len(), len(matrix), vocab.Len(), vocab.Len())

	p.audit(ds)

	errs := new(multierror.Error)
	if _, err := p.records.Import(ctx, ds, true); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("can't store records: %w", err))
	}
	if err := p.vocabStore.Save(ctx, vocab); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("can't store vocabulary: %w", err))
	}
	if p.params.vocabOut != "" {
		if err := writeVocabJSON(p.params.vocabOut, vocab); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("can't write vocabulary json: %w", err))
		}
	}
	if p.params.matrixOut != "" {
		if err := writeMatrixCSV(p.params.matrixOut, matrix, labels); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("can't write matrix csv: %w", err))
		}
	}

	enc := vectorize.NewEncoder(vocab)
	if p.params.legacy {
		enc = vectorize.NewLegacyEncoder(vocab)
	}
	p.current.Store(enc)

	return errs.ErrorOrNil()
}

// stopWords picks the custom list if configured, the built-in english set otherwise
func (p *processor) stopWords() (corpus.StopWords, error) {
	if p.params.stopWords == "" {
		return stopwords.English(), nil
	}
	fh, err := os.Open(p.params.stopWords)
	if err != nil {
		return nil, fmt.Errorf("can't open %s: %w", p.params.stopWords, err)
	}
	defer fh.Close()
	return stopwords.FromReader(fh), nil
}

// audit writes every processed record as a json line to the audit writer
func (p *processor) audit(ds corpus.Dataset) {
	for _, rec := range ds.Records {
		m := struct {
			TimeStamp string `json:"ts"`
			Label     string `json:"label"`
			Text      string `json:"text"`
		}{
			TimeStamp: time.Now().In(time.Local).Format(time.RFC3339),
			Label:     rec.Label.String(),
			Text:      rec.Text,
		}
		line, err := json.Marshal(&m)
		if err != nil {
			log.Printf("[WARN] can't marshal json, %v", err)
			return
		}
		if _, err := p.auditWr.Write(append(line, '\n')); err != nil {
			log.Printf("[WARN] can't write to audit log, %v", err)
			return
		}
	}
}

// Encode implements webapi.Encoder with the current fitted vocabulary
func (p *processor) Encode(raw string) []float64 { return p.current.Load().Encode(raw) }

// Tokens implements webapi.Encoder
func (p *processor) Tokens(raw string) []string { return p.current.Load().Tokens(raw) }

// Vocabulary implements webapi.Encoder
func (p *processor) Vocabulary() vectorize.Vocabulary { return p.current.Load().Vocabulary() }

// Fingerprint implements webapi.Encoder, changes on every vocabulary rebuild
func (p *processor) Fingerprint() string { return p.current.Load().Fingerprint() }

// writeVocabJSON saves the vocabulary in the exchange format, token to index
func writeVocabJSON(path string, vocab vectorize.Vocabulary) error {
	data, err := json.Marshal(vocab)
	if err != nil {
		return fmt.Errorf("can't marshal vocabulary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("can't write %s: %w", path, err)
	}
	log.Printf("[DEBUG] vocabulary saved to %s", path)
	return nil
}

// writeMatrixCSV saves the training triple as csv, label code first then counts
func writeMatrixCSV(path string, matrix [][]float64, labels []float64) error {
	fh, err := os.Create(path) //nolint:gosec // output path comes from cli options
	if err != nil {
		return fmt.Errorf("can't create %s: %w", path, err)
	}
	defer fh.Close()

	wr := csv.NewWriter(fh)
	defer wr.Flush()

	for i, row := range matrix {
		fields := make([]string, 0, len(row)+1)
		fields = append(fields, strconv.FormatFloat(labels[i], 'f', -1, 64))
		for _, v := range row {
			fields = append(fields, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := wr.Write(fields); err != nil {
			return fmt.Errorf("can't write row %d: %w", i, err)
		}
	}
	wr.Flush()
	return wr.Error()
}
