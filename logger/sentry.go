package logger

import (
	"log"

	"github.com/getsentry/sentry-go"

	"github.com/beaconlog/beacon"
)

// initSentry wires up the Sentry client for a logger's DSN.
// Failure degrades to local-only logging with a diagnostic.
func initSentry(dsn string, env beacon.Environment, raw *log.Logger) bool {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:          dsn,
		Environment:  env.String(),
		IgnoreErrors: []string{"write: broken pipe"},
	})
	if err != nil {
		raw.Printf("unable to init Sentry: %s", err)
		return false
	}

	return true
}

// capture ships an error-level event to Sentry,
// including any metadata from the call.
func (l *Logger) capture(message string, metadata map[string]any) {
	sentry.WithScope(func(scope *sentry.Scope) {
		if len(metadata) > 0 {
			scope.SetExtra("metadata", metadata)
		}

		scope.SetTag("component", l.component)
		scope.SetLevel(sentry.LevelError)
		sentry.CaptureMessage(message)
	})
}
