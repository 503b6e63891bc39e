package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/beaconlog/beacon"
)

// Names of the default levels.
//
// Any other name passed to [*Logger.Emit] must first be configured
// through [Config.Levels].
const (
	LevelImportant = "important"
	LevelLog       = "log"
	LevelInfo      = "info"
	LevelWarn      = "warn"
	LevelError     = "error"
)

// fallbackHost identifies the host when neither Config.Host
// nor os.Hostname provides an identifier.
const fallbackHost = "server"

// A LevelConfig describes the presentation and visibility of a single level.
//
// When merging with the default for the same level name,
// only the fields actually set override the default;
// a level name unknown to the defaults is added wholesale.
type LevelConfig struct {
	// Color names the foreground color applied on terminal output,
	// e.g. "red", "blue", "magenta".
	Color string

	// Background names the background color applied on terminal output.
	Background string

	// ProductionVisible reports whether the level still emits
	// when the logger classifies its host as production.
	//
	// Use [Bool] to set it. nil defers to the default for the level,
	// or false for levels the defaults do not know about.
	ProductionVisible *bool
}

// A WebhookConfig configures the remote mirror sink.
type WebhookConfig struct {
	// Enabled turns on remote delivery. Requires URL.
	Enabled bool

	// URL receives a JSON POST for every emitted event.
	URL string

	// RatePerSec caps deliveries per second; events over the cap are dropped,
	// never queued. 0 means unlimited.
	RatePerSec int
}

// A Config adjusts a [*Logger] away from its defaults.
//
// The zero value is usable: all fields are optional
// and merge with the defaults in [New].
type Config struct {
	// Environments maps an environment to the host identifiers
	// classified as belonging to it.
	//
	// Default: beacon.Development = {"localhost", "127.0.0.1"},
	// beacon.Production = {}.
	Environments map[beacon.Environment][]string

	// Levels adjusts or extends the default level set.
	Levels map[string]LevelConfig

	// AsyncConsole defers console emission off the calling goroutine.
	// Emissions from one logger stay in call order.
	AsyncConsole bool

	// IncludeCaller appends a best-effort call site to each line.
	IncludeCaller bool

	// Webhook mirrors emitted events to a remote HTTP endpoint,
	// fire-and-forget.
	Webhook *WebhookConfig

	// LevelFilter, when set, suppresses every level except the named one.
	LevelFilter string

	// ForceEmit bypasses the production-visibility suppression rule only;
	// LevelFilter and the unknown-level diagnostic still apply.
	ForceEmit bool

	// Host is the identifier classified against Environments.
	// Empty falls back to os.Hostname, then to "server".
	Host string

	// SentryDSN additionally captures error-level events to Sentry.
	// Empty falls back to the SENTRY_DSN environment variable.
	SentryDSN string
}

// Bool is a convenience for setting [LevelConfig.ProductionVisible].
func Bool(v bool) *bool { return &v }

// A levelStyle is the resolved form of a LevelConfig.
type levelStyle struct {
	color       string
	background  string
	prodVisible bool
}

// A resolvedConfig is a Config merged with the defaults,
// validated, and frozen for the lifetime of a Logger.
type resolvedConfig struct {
	environments  map[beacon.Environment][]string
	levels        map[string]levelStyle
	asyncConsole  bool
	includeCaller bool
	webhook       WebhookConfig
	levelFilter   string
	forceEmit     bool
	host          string
	sentryDSN     string
}

func defaultLevels() map[string]levelStyle {
	return map[string]levelStyle{
		LevelImportant: {color: "magenta", prodVisible: true},
		LevelLog:       {color: "white", prodVisible: false},
		LevelInfo:      {color: "blue", prodVisible: false},
		LevelWarn:      {color: "yellow", prodVisible: true},
		LevelError:     {color: "red", prodVisible: true},
	}
}

func defaultEnvironments() map[beacon.Environment][]string {
	return map[beacon.Environment][]string{
		beacon.Development: {"localhost", "127.0.0.1"},
		beacon.Production:  {},
	}
}

// resolve merges cfg over the defaults and validates the result.
//
// Levels merge key-by-key, then field-by-field within a level;
// every other field uses override-if-present semantics.
func resolve(component string, cfg *Config) (resolvedConfig, error) {
	if strings.TrimSpace(component) == "" {
		return resolvedConfig{}, fmt.Errorf("%w: component name", beacon.ErrMissingData)
	}

	if cfg == nil {
		cfg = new(Config)
	}

	rc := resolvedConfig{
		environments:  defaultEnvironments(),
		levels:        defaultLevels(),
		asyncConsole:  cfg.AsyncConsole,
		includeCaller: cfg.IncludeCaller,
		levelFilter:   cfg.LevelFilter,
		forceEmit:     cfg.ForceEmit,
		host:          cfg.Host,
		sentryDSN:     cfg.SentryDSN,
	}

	if cfg.Environments != nil {
		rc.environments = make(map[beacon.Environment][]string, len(cfg.Environments))
		for env, hosts := range cfg.Environments {
			rc.environments[env] = append([]string(nil), hosts...)
		}
	}

	for name, lc := range cfg.Levels {
		base := rc.levels[name]
		if lc.Color != "" {
			base.color = lc.Color
		}
		if lc.Background != "" {
			base.background = lc.Background
		}
		if lc.ProductionVisible != nil {
			base.prodVisible = *lc.ProductionVisible
		}
		rc.levels[name] = base
	}

	if cfg.Webhook != nil {
		rc.webhook = *cfg.Webhook
		// Only presence is validated here. A URL no request can be built
		// for surfaces as a delivery soft failure, like any other
		// unreachable endpoint.
		if rc.webhook.Enabled && strings.TrimSpace(rc.webhook.URL) == "" {
			return resolvedConfig{}, fmt.Errorf("%w: webhook enabled without a url", beacon.ErrBadConfig)
		}
		if rc.webhook.RatePerSec < 0 {
			return resolvedConfig{}, fmt.Errorf("%w: webhook rate %d", beacon.ErrBadConfig, rc.webhook.RatePerSec)
		}
	}

	if rc.host == "" {
		if h, err := os.Hostname(); err == nil && h != "" {
			rc.host = h
		} else {
			rc.host = fallbackHost
		}
	}

	if rc.sentryDSN == "" {
		rc.sentryDSN = os.Getenv("SENTRY_DSN")
	}

	return rc, nil
}

// classify resolves the environment from the host identifier.
// Hosts in the development set classify as development; everything else,
// including hosts in no set at all, classifies as production.
func (rc resolvedConfig) classify() beacon.Environment {
	for _, h := range rc.environments[beacon.Development] {
		if strings.EqualFold(h, rc.host) {
			return beacon.Development
		}
	}

	return beacon.Production
}
