// Package logging builds the logr.Logger used across the CLI. Core packages
// take a logr.Logger and never reach for a global.
package logging

import (
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels for logger.V(...).
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// New returns a console-encoded logger writing to w that emits V(n) lines
// for n ≤ verbosity.
func New(w io.Writer, verbosity int) logr.Logger {
	if verbosity < INFO {
		verbosity = INFO
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	enc.EncodeCaller = nil
	enc.CallerKey = ""
	enc.StacktraceKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(zapcore.Level(-verbosity)),
	)
	return zapr.NewLogger(zap.New(core))
}

// NewTestLogger logs everything up to TRACE to w.
func NewTestLogger(w io.Writer) logr.Logger { return New(w, TRACE) }
