package logger

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/beaconlog/beacon"
	"golang.org/x/time/rate"
)

// knownFrames is the number of stack frames between runtime.Caller
// inside callSite and the code invoking a level method:
// callSite, format, the bound emit closure, invoke, and the level method.
const knownFrames = 5

// asyncQueueSize bounds the deferred-emission queue of a single Logger.
const asyncQueueSize = 256

const (
	dateFormat = "1/2/2006"
	timeFormat = "3:04:05 PM"
)

// An emitFn is the bound closure produced for each configured level.
type emitFn func(content string, metadata map[string]any)

// A Logger classifies its environment once at construction and then
// routes each call through the level's bound closure: filter, format,
// write to the console sink, and mirror to the remote sinks.
//
// A Logger is immutable after construction and safe for concurrent use.
// Instances are independent; allocate one per named component.
type Logger struct {
	component string
	cfg       resolvedConfig
	env       beacon.Environment

	dispatch map[string]emitFn
	styles   map[string]*colorStyle

	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer

	// raw reports webhook and Sentry failures without re-entering
	// the dispatch path.
	raw *log.Logger

	client  *http.Client
	limiter *rate.Limiter

	sentryOn bool

	now  func() time.Time
	skip int

	// queue feeds the deferred-emission worker when AsyncConsole is set.
	// The worker lives for the life of the process; emissions cannot be
	// cancelled once scheduled.
	queue chan func()
}

// New constructs a Logger for the named component.
//
// cfg may be nil; its fields merge over the defaults per [Config].
// New fails when the component name is empty or the merged configuration
// is invalid, wrapping [beacon.ErrMissingData] or [beacon.ErrBadConfig].
// Once New succeeds, no call on the Logger returns an error or panics.
func New(component string, cfg *Config, opts ...Option) (*Logger, error) {
	rc, err := resolve(component, cfg)
	if err != nil {
		return nil, err
	}

	l := &Logger{
		component: component,
		cfg:       rc,
		env:       rc.classify(),
		out:       os.Stdout,
		errOut:    os.Stderr,
		client:    &http.Client{Timeout: deliveryTimeout},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.raw = log.New(l.errOut, "", log.LstdFlags)

	if rc.webhook.Enabled && rc.webhook.RatePerSec > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(rc.webhook.RatePerSec), rc.webhook.RatePerSec)
	}

	l.styles = make(map[string]*colorStyle, len(rc.levels))
	l.dispatch = make(map[string]emitFn, len(rc.levels))
	for name, style := range rc.levels {
		l.styles[name] = styleFor(style)
		l.dispatch[name] = l.bindLevel(name, style)
	}

	if rc.sentryDSN != "" {
		l.sentryOn = initSentry(rc.sentryDSN, l.env, l.raw)
	}

	if rc.asyncConsole {
		l.queue = make(chan func(), asyncQueueSize)
		go func() {
			for fn := range l.queue {
				fn()
			}
		}()
	}

	return l, nil
}

// Important writes an event visible in every environment.
func (l *Logger) Important(content string, metadata map[string]any) {
	l.invoke(LevelImportant, content, metadata)
}

// Log writes a development-only event.
func (l *Logger) Log(content string, metadata map[string]any) {
	l.invoke(LevelLog, content, metadata)
}

// Info writes a development-only informational event.
func (l *Logger) Info(content string, metadata map[string]any) {
	l.invoke(LevelInfo, content, metadata)
}

// Warn writes a warning, visible in every environment.
func (l *Logger) Warn(content string, metadata map[string]any) {
	l.invoke(LevelWarn, content, metadata)
}

// Error writes an error, visible in every environment.
// When Sentry is configured, a copy of the event is captured there.
func (l *Logger) Error(content string, metadata map[string]any) {
	l.invoke(LevelError, content, metadata)
}

// Emit invokes a level by name, serving levels added through
// [Config.Levels] alongside the default set.
//
// Emitting a level with no configuration writes a single diagnostic
// warning and drops the event.
func (l *Logger) Emit(level, content string, metadata map[string]any) {
	l.invoke(level, content, metadata)
}

// Env returns the environment classified at construction.
func (l *Logger) Env() beacon.Environment { return l.env }

// Config returns a copy of the resolved configuration.
// Mutating the copy has no effect on the Logger.
func (l *Logger) Config() Config {
	cfg := Config{
		Environments:  make(map[beacon.Environment][]string, len(l.cfg.environments)),
		Levels:        make(map[string]LevelConfig, len(l.cfg.levels)),
		AsyncConsole:  l.cfg.asyncConsole,
		IncludeCaller: l.cfg.includeCaller,
		LevelFilter:   l.cfg.levelFilter,
		ForceEmit:     l.cfg.forceEmit,
		Host:          l.cfg.host,
		SentryDSN:     l.cfg.sentryDSN,
	}

	for env, hosts := range l.cfg.environments {
		cfg.Environments[env] = append([]string(nil), hosts...)
	}

	for name, style := range l.cfg.levels {
		cfg.Levels[name] = LevelConfig{
			Color:             style.color,
			Background:        style.background,
			ProductionVisible: Bool(style.prodVisible),
		}
	}

	if l.cfg.webhook != (WebhookConfig{}) {
		wc := l.cfg.webhook
		cfg.Webhook = &wc
	}

	return cfg
}

// invoke is the single entry point behind the level methods and Emit,
// keeping the call stack one shape for call-site capture.
//
// The filter comparison runs before the dispatch lookup: a filtered-out
// level is totally silent, even when it is also unconfigured.
func (l *Logger) invoke(level, content string, metadata map[string]any) {
	if l.cfg.levelFilter != "" && l.cfg.levelFilter != level {
		return
	}

	fn, ok := l.dispatch[level]
	if !ok {
		l.diagnostic(level)
		return
	}

	fn(content, metadata)
}

// bindLevel produces the emit closure for one configured level.
func (l *Logger) bindLevel(level string, style levelStyle) emitFn {
	return func(content string, metadata map[string]any) {
		if l.env.IsProduction() && !style.prodVisible && !l.cfg.forceEmit {
			return
		}

		line := l.format(level, content, metadata)
		l.write(level, line)

		if l.cfg.webhook.Enabled {
			l.deliver(level, line, metadata)
		}

		if l.sentryOn && level == LevelError {
			l.capture(line, metadata)
		}
	}
}

// format builds the single console line for an event.
// The call site and the timestamp are captured here, synchronously,
// so deferring the write never changes what is logged.
func (l *Logger) format(level, content string, metadata map[string]any) string {
	now := l.now()

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(strings.ToUpper(level))
	b.WriteString(" | ")
	b.WriteString(now.Format(dateFormat))
	b.WriteString(", ")
	b.WriteString(now.Format(timeFormat))
	if l.cfg.includeCaller {
		if site := callSite(knownFrames + l.skip); site != "" {
			b.WriteString(" | ")
			b.WriteString(site)
		}
	}
	b.WriteString("] ")
	b.WriteString(l.component)
	b.WriteString(" | ")
	b.WriteString(content)
	if len(metadata) > 0 {
		b.WriteString(" | Metadata: ")
		b.WriteString(encodeMetadata(metadata))
	}

	return b.String()
}

// write routes the line to the sink matching the level name,
// deferring onto the worker when AsyncConsole is set.
func (l *Logger) write(level, line string) {
	w := l.sinkFor(level)
	if style := l.styles[level]; style != nil {
		line = style.apply(line)
	}

	l.enqueue(func() { l.print(w, line) })
}

// enqueue defers fn onto the async worker when one exists, otherwise
// runs it in place. Group markers ride the same queue as log lines so
// their relative order holds under AsyncConsole.
func (l *Logger) enqueue(fn func()) {
	if l.queue != nil {
		l.queue <- fn
		return
	}

	fn()
}

func (l *Logger) print(w io.Writer, line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(w, line)
}

// sinkFor picks the console sink for a level name: warn and error route
// to the error sink, every other name, custom ones included, falls back
// to the generic sink.
func (l *Logger) sinkFor(level string) io.Writer {
	switch level {
	case LevelWarn, LevelError:
		return l.errOut
	default:
		return l.out
	}
}

// diagnostic reports an invocation of a level the resolved configuration
// does not know about. The event itself is dropped.
func (l *Logger) diagnostic(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.errOut, "[WARN] %s | unknown log level %q; message dropped\n", l.component, level)
}

// callSite reports the file and line of the logging call, trimmed to the
// immediate directory like my-project/main.go. Best-effort: an empty
// string when the stack cannot be read that far back.
func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok || file == "" {
		return ""
	}

	fullPath, base := path.Split(file)
	return fmt.Sprintf("%s/%s:%d", path.Base(fullPath), base, line)
}
