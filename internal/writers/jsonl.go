// internal/writers/jsonl.go
package writers

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"ohfid/pkg/api"
)

// Reuse a 64 KiB buffered writer across JSONL writers to avoid per-writer mallocs.
var bwPool = sync.Pool{
	New: func() any {
		return bufio.NewWriterSize(io.Discard, 64<<10)
	},
}

// startJSONL spins up a JSONL encoder goroutine for values of type T.
// Broken pipes on the final flush are not reported.
func startJSONL[T any](out io.Writer, bufSize int, encode func(*json.Encoder, T) error) (chan<- T, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan T, bufSize)
	done := make(chan error, 1)

	go func() {
		bw := bwPool.Get().(*bufio.Writer)
		bw.Reset(out)
		defer func() {
			bw.Reset(io.Discard)
			bwPool.Put(bw)
		}()

		enc := json.NewEncoder(bw)
		for v := range in {
			if err := encode(enc, v); err != nil {
				for range in {
				}
				done <- err
				return
			}
		}
		done <- Settle(bw.Flush())
	}()

	return in, done
}

// StartRecordJSONLWriter streams each record as one JSON line (v1).
func StartRecordJSONLWriter(out io.Writer, bufSize int) (chan<- api.RecordV1, <-chan error) {
	return startJSONL[api.RecordV1](out, bufSize, func(enc *json.Encoder, r api.RecordV1) error {
		return enc.Encode(r)
	})
}
