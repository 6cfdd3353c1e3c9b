// internal/writers/record.go
package writers

import (
	"bufio"
	"encoding/json"
	"io"

	"ohfid/internal/output"
	"ohfid/pkg/api"
)

type streamArgs struct {
	Header bool
	In     <-chan api.RecordV1
}

func init() {
	RegisterStream(output.FormatText, func(w io.Writer, payload interface{}) error {
		args := payload.(streamArgs)
		bw := bufio.NewWriter(w)
		if args.Header {
			if _, err := io.WriteString(bw, output.RecordHeader+"\n"); err != nil {
				return err
			}
		}
		for r := range args.In {
			if err := output.WriteRecordText(bw, r); err != nil {
				return err
			}
			// Improvements are progress; surface each one as it arrives.
			if err := bw.Flush(); err != nil {
				return err
			}
		}
		return bw.Flush()
	})

	RegisterStream(output.FormatJSONL, func(w io.Writer, payload interface{}) error {
		args := payload.(streamArgs)
		pipe, done := StartRecordJSONLWriter(w, 64)
		for r := range args.In {
			pipe <- r
		}
		close(pipe)
		return <-done
	})

	RegisterDocument(output.FormatJSON, func(w io.Writer, v interface{}) error {
		return output.EncodePretty(w, v)
	})
	RegisterDocument(output.FormatJSONL, func(w io.Writer, v interface{}) error {
		return json.NewEncoder(w).Encode(v)
	})
	RegisterDocument(output.FormatYAML, func(w io.Writer, v interface{}) error {
		return output.EncodeYAML(w, v)
	})
}

// StartRecordWriter streams records in format (text or jsonl). The returned
// error channel yields once, after the input channel is closed and drained.
func StartRecordWriter(out io.Writer, format string, header bool, bufSize int) (chan<- api.RecordV1, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan api.RecordV1, bufSize)
	errCh := make(chan error, 1)
	go func() {
		err := WriteStream(format, out, streamArgs{Header: header, In: in})
		// Keep senders from blocking when the writer bailed out early.
		for range in {
		}
		errCh <- err
	}()
	return in, errCh
}
