package writers

import (
	"errors"
	"io"
	"os"
	"syscall"
)

// ReaderGone reports whether err means the consumer of ohfid's output went
// away, e.g. `ohfid batch | head`. Such runs still exit 0.
func ReaderGone(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}

// Settle drops err when the reader is gone and returns it unchanged otherwise.
func Settle(err error) error {
	if ReaderGone(err) {
		return nil
	}
	return err
}
