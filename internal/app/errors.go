package app

import (
	"context"
	"errors"
	"fmt"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitIO        = 3
	ExitCancelled = 130
)

// exitError tags an error with the exit code it maps to.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageErr(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: ExitUsage, err: err}
}

func ioErr(err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: ExitIO, err: err}
}

func usagef(format string, a ...any) error { return usageErr(fmt.Errorf(format, a...)) }

// exitCode maps an error from a command to the process exit code. Errors
// without an explicit class (flag parsing, unknown commands) are usage errors.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ExitCancelled
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsage
}
