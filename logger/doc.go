/*
Package logger wraps console output with level-based filtering,
environment-aware suppression, and best-effort remote delivery.

# Overview

A [Logger] is constructed once per named component with [New].
Construction merges the caller's [Config] over the defaults,
classifies the runtime environment from the host identifier,
and binds one emit closure per configured level.
After that the Logger is immutable: every call either emits or is
suppressed, and no call can fail.

Log lines are composed of a few parts:
  - level, upper-cased
  - date and time
  - call site, when IncludeCaller is set
  - component name
  - message
  - metadata, JSON-encoded, when supplied

Here's an example:

	[ERROR | 4/28/2022, 3:55:21 PM | web/dashboard.go:43] Checkout | payment failed | Metadata: {"order":991}

# Filtering

Five default levels exist: important, log, info, warn, and error.
The log and info levels are development-only: in an environment classified
as production they are silent unless ForceEmit is set. LevelFilter narrows
a logger to a single level. Levels can be restyled, toggled, or added
through [Config.Levels]; added levels are invoked by name with
[*Logger.Emit].

# Remote delivery

With [WebhookConfig] enabled, every emitted event is mirrored as a JSON
POST to the configured URL. Delivery is fire-and-forget: it runs off the
calling goroutine, times out after five seconds, never retries, and
reports failures only on the local error sink. An optional per-second
rate cap drops over-limit events instead of queueing them.
Error-level events can additionally be captured to Sentry by setting
Config.SentryDSN or the SENTRY_DSN environment variable.
*/
package logger
