package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoRecord is returned when a file has no (matching) record.
var ErrNoRecord = errors.New("fasta: no matching record")

var gzipMagic = []byte{0x1f, 0x8b}

// source is an opened reference: the decoded stream plus whatever must be
// closed once scanning ends (the gzip reader before its file).
type source struct {
	io.Reader
	close []io.Closer
}

func (s *source) Close() error {
	var first error
	for _, c := range s.close {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openSource opens a reference path ("-" is stdin). Gzip input is detected by
// its magic bytes, so a compressed file needs no .gz suffix.
func openSource(path string) (*source, error) {
	src := &source{}
	var raw io.Reader = os.Stdin
	if path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("reference: %w", err)
		}
		raw = fh
		src.close = append(src.close, fh)
	}
	br := bufio.NewReader(raw)
	head, _ := br.Peek(len(gzipMagic))
	if !bytes.Equal(head, gzipMagic) {
		src.Reader = br
		return src, nil
	}
	gr, err := gzip.NewReader(br)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("reference %s: %w", path, err)
	}
	src.Reader = gr
	src.close = append([]io.Closer{gr}, src.close...)
	return src, nil
}

// Load reads every record of path into memory.
func Load(ctx context.Context, path string) ([]Record, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	var out []Record
	err = ScanCtx(ctx, src, func(r Record) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", path, err)
	}
	return out, nil
}

// LoadOne returns the record named id, or the first record when id is "".
func LoadOne(ctx context.Context, path, id string) (Record, error) {
	recs, err := Load(ctx, path)
	if err != nil {
		return Record{}, err
	}
	for _, r := range recs {
		if id == "" || r.ID == id {
			return r, nil
		}
	}
	if id == "" {
		return Record{}, fmt.Errorf("reference %s: %w", path, ErrNoRecord)
	}
	return Record{}, fmt.Errorf("reference %s: record %q: %w", path, id, ErrNoRecord)
}
