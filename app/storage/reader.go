package storage

import (
	"io"

	"github.com/umputun/sms-spam/lib/corpus"
)

// datasetReader serializes a dataset back into the tab-separated source format,
// one "label\tmessage" line per record.
type datasetReader struct {
	ds   corpus.Dataset
	idx  int
	rest []byte
}

// Read implements io.Reader
func (d *datasetReader) Read(p []byte) (int, error) {
	for len(d.rest) == 0 {
		if d.idx >= d.ds.Len() {
			return 0, io.EOF
		}
		rec := d.ds.Records[d.idx]
		d.idx++
		d.rest = []byte(rec.Label.String() + "\t" + rec.Text + "\n")
	}
	n := copy(p, d.rest)
	d.rest = d.rest[n:]
	return n, nil
}

// Close implements io.Closer, nothing to release
func (d *datasetReader) Close() error { return nil }
