package writers

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gofrs/flock"
)

// LockRetry is how often OpenResults retries a held lock.
const LockRetry = 100 * time.Millisecond

type lockedFile struct {
	*os.File
	lock *flock.Flock
}

func (f *lockedFile) Close() error {
	err := f.File.Close()
	if uerr := f.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OpenResults opens a batch results destination. "-" returns stdout
// unchanged. Any other path is opened for appending while holding an
// advisory lock on path+".lock", so concurrent runs never interleave their
// records; it waits for the lock until ctx is done.
func OpenResults(ctx context.Context, path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "-" || path == "" {
		return nopCloser{stdout}, nil
	}
	l := flock.New(path + ".lock")
	ok, err := l.TryLockContext(ctx, LockRetry)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: not acquired", path)
	}
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		_ = l.Unlock()
		return nil, err
	}
	return &lockedFile{File: fh, lock: l}, nil
}
