package logger

import (
	"io"
	"net/http"
	"time"
)

// An Option adjusts a Logger's process-level seams when constructing one.
type Option func(*Logger)

// WithOutput sets the generic console sink, os.Stdout by default.
// Pass a [GroupWriter] such as [NewGroupConsole] to enable group rendering.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.out = w
	}
}

// WithErrOutput sets the sink for warn and error levels
// and for delivery-failure diagnostics, os.Stderr by default.
func WithErrOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.errOut = w
	}
}

// WithHTTPClient sets the client used for webhook delivery.
// The client's own timeout is kept; the per-delivery bound still applies.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Logger) {
		l.client = c
	}
}

// WithNow sets the clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(l *Logger) {
		l.now = now
	}
}

// WithSkip sets the number of additional frames to scroll back
// when capturing the call site, for wrappers around the Logger.
func WithSkip(i int) Option {
	return func(l *Logger) {
		l.skip = i
	}
}
