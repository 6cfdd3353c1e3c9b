// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
)

// Writer registries (format → handler). Register in init() blocks.
var (
	StreamWriters   = map[string]func(w io.Writer, data interface{}) error{}
	DocumentWriters = map[string]func(w io.Writer, data interface{}) error{}
)

// Register helpers (idempotent last-wins)
func RegisterStream(format string, fn func(io.Writer, interface{}) error)   { StreamWriters[format] = fn }
func RegisterDocument(format string, fn func(io.Writer, interface{}) error) { DocumentWriters[format] = fn }

// WriteStream dispatches a record stream payload.
func WriteStream(format string, w io.Writer, payload interface{}) error {
	fn, ok := StreamWriters[format]
	if !ok {
		return fmt.Errorf("unknown stream format %q (no writer registered)", format)
	}
	return fn(w, payload)
}

// WriteDocument encodes a single v1 value (result, batch or pool list).
func WriteDocument(format string, w io.Writer, v interface{}) error {
	fn, ok := DocumentWriters[format]
	if !ok {
		return fmt.Errorf("unknown document format %q (no writer registered)", format)
	}
	return fn(w, v)
}
