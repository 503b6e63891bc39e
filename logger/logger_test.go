package logger_test

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/beaconlog/beacon"
	"github.com/beaconlog/beacon/logger"
)

func init() {
	// Styling is exercised through styleFor indirectly; tests assert on
	// plain text.
	color.NoColor = true
}

var testTime = time.Date(2022, 4, 28, 15, 55, 21, 0, time.UTC)

// A syncBuffer is a goroutine-safe bytes.Buffer for capturing sink output.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

func newTestLogger(t *testing.T, cfg *logger.Config, opts ...logger.Option) (*logger.Logger, *syncBuffer, *syncBuffer) {
	t.Helper()

	out, errOut := new(syncBuffer), new(syncBuffer)
	opts = append([]logger.Option{
		logger.WithOutput(out),
		logger.WithErrOutput(errOut),
		logger.WithNow(func() time.Time { return testTime }),
	}, opts...)

	l, err := logger.New("Svc", cfg, opts...)
	require.Nil(t, err)

	return l, out, errOut
}

func TestNewValidatesConfig(t *testing.T) {
	// Arrange
	tcs := []struct {
		name      string
		component string
		cfg       *logger.Config
		err       error
	}{
		{"nil config", "Svc", nil, nil},
		{"zero config", "Svc", &logger.Config{}, nil},
		{"missing component", "", nil, beacon.ErrMissingData},
		{"blank component", "   ", nil, beacon.ErrMissingData},
		{"webhook without url", "Svc", &logger.Config{Webhook: &logger.WebhookConfig{Enabled: true}}, beacon.ErrBadConfig},
		{"webhook unparseable url still constructs", "Svc", &logger.Config{Webhook: &logger.WebhookConfig{Enabled: true, URL: "not a url"}}, nil},
		{"webhook negative rate", "Svc", &logger.Config{Webhook: &logger.WebhookConfig{Enabled: true, URL: "https://example.com/logs", RatePerSec: -1}}, beacon.ErrBadConfig},
		{"webhook disabled without url", "Svc", &logger.Config{Webhook: &logger.WebhookConfig{}}, nil},
		{"webhook valid", "Svc", &logger.Config{Webhook: &logger.WebhookConfig{Enabled: true, URL: "https://example.com/logs"}}, nil},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			l, err := logger.New(tc.component, tc.cfg)

			// Assert
			if tc.err == nil {
				require.Nil(t, err)
				require.NotNil(t, l)
				return
			}
			require.ErrorIs(t, err, tc.err)
			require.Nil(t, l)
		})
	}
}

func TestNewClassifiesEnvironment(t *testing.T) {
	// Arrange + Act
	l, _, _ := newTestLogger(t, &logger.Config{Host: "localhost"})

	// Assert
	require.Equal(t, beacon.Development, l.Env())

	// Arrange + Act
	l, _, _ = newTestLogger(t, &logger.Config{Host: "app-prod-1.internal"})

	// Assert
	require.Equal(t, beacon.Production, l.Env())

	// Arrange: custom host sets replace the defaults wholesale.
	cfg := &logger.Config{
		Host: "localhost",
		Environments: map[beacon.Environment][]string{
			beacon.Development: {"dev.internal"},
		},
	}

	// Act
	l, _, _ = newTestLogger(t, cfg)

	// Assert
	require.Equal(t, beacon.Production, l.Env())
}

func TestLevelMerge(t *testing.T) {
	// Arrange
	cfg := &logger.Config{
		Host: "localhost",
		Levels: map[string]logger.LevelConfig{
			logger.LevelInfo: {Color: "green"},
			logger.LevelLog:  {ProductionVisible: logger.Bool(true)},
			"audit":          {Color: "cyan", ProductionVisible: logger.Bool(true)},
		},
	}

	// Act
	l, _, _ := newTestLogger(t, cfg)
	resolved := l.Config().Levels

	// Assert: field-by-field override keeps the untouched default fields.
	require.Equal(t, "green", resolved[logger.LevelInfo].Color)
	require.False(t, *resolved[logger.LevelInfo].ProductionVisible)
	require.Equal(t, "white", resolved[logger.LevelLog].Color)
	require.True(t, *resolved[logger.LevelLog].ProductionVisible)

	// Assert: user-only levels are added wholesale.
	require.Equal(t, "cyan", resolved["audit"].Color)
	require.True(t, *resolved["audit"].ProductionVisible)

	// Assert: untouched defaults survive.
	require.Equal(t, "red", resolved[logger.LevelError].Color)
	require.Len(t, resolved, 6)
}

func TestConfigReturnsDefensiveCopy(t *testing.T) {
	// Arrange
	l, _, _ := newTestLogger(t, &logger.Config{Host: "localhost"})

	// Act
	cfg := l.Config()
	cfg.Levels[logger.LevelError] = logger.LevelConfig{Color: "green"}
	cfg.Environments[beacon.Development] = nil
	cfg.Host = "elsewhere"

	// Assert
	fresh := l.Config()
	require.Equal(t, "red", fresh.Levels[logger.LevelError].Color)
	require.Equal(t, []string{"localhost", "127.0.0.1"}, fresh.Environments[beacon.Development])
	require.Equal(t, "localhost", fresh.Host)
}

func TestFormatting(t *testing.T) {
	// Arrange
	l, _, errOut := newTestLogger(t, &logger.Config{Host: "localhost"})

	// Act
	l.Error("boom", map[string]any{"order": 991})

	// Assert
	want := `[ERROR | 4/28/2022, 3:55:21 PM] Svc | boom | Metadata: {"order":991}` + "\n"
	require.Equal(t, want, errOut.String())
}

func TestFormattingWithoutMetadata(t *testing.T) {
	// Arrange
	l, out, _ := newTestLogger(t, &logger.Config{Host: "localhost"})

	// Act
	l.Important("ready", nil)

	// Assert
	require.Equal(t, "[IMPORTANT | 4/28/2022, 3:55:21 PM] Svc | ready\n", out.String())
}

func TestFormattingIncludesCaller(t *testing.T) {
	// Arrange
	l, _, errOut := newTestLogger(t, &logger.Config{Host: "localhost", IncludeCaller: true})

	// Act
	l.Error("boom", nil)

	// Assert
	require.Contains(t, errOut.String(), "logger/logger_test.go:")
	require.Regexp(t, `^\[ERROR \| 4/28/2022, 3:55:21 PM \| logger/logger_test\.go:\d+\] Svc \| boom$`, strings.TrimSuffix(errOut.String(), "\n"))
}

func TestCircularMetadata(t *testing.T) {
	// Arrange
	l, _, errOut := newTestLogger(t, &logger.Config{Host: "localhost"})
	meta := map[string]any{}
	meta["self"] = meta

	// Act
	require.NotPanics(t, func() { l.Error("boom", meta) })

	// Assert
	require.Contains(t, errOut.String(), "Metadata: [Circular or Invalid]")
}

func TestSinkRouting(t *testing.T) {
	// Arrange
	cfg := &logger.Config{
		Host:   "localhost",
		Levels: map[string]logger.LevelConfig{"audit": {}},
	}
	l, out, errOut := newTestLogger(t, cfg)

	// Act
	l.Log("a", nil)
	l.Info("b", nil)
	l.Important("c", nil)
	l.Emit("audit", "d", nil)
	l.Warn("e", nil)
	l.Error("f", nil)

	// Assert: warn and error hit the error sink, everything else,
	// custom levels included, hits the generic sink.
	require.Equal(t, 4, strings.Count(out.String(), "\n"))
	require.Equal(t, 2, strings.Count(errOut.String(), "\n"))
	require.Contains(t, out.String(), "[AUDIT")
	require.Contains(t, errOut.String(), "[WARN")
	require.Contains(t, errOut.String(), "[ERROR")
}

func TestProductionSuppression(t *testing.T) {
	// Arrange
	l, out, errOut := newTestLogger(t, &logger.Config{Host: "app-prod-1"})

	// Act: log and info are development-only.
	l.Log("hidden", nil)
	l.Info("hidden", nil)

	// Assert
	require.Empty(t, out.String())
	require.Empty(t, errOut.String())

	// Act: important, warn, and error stay visible in production.
	l.Important("shown", nil)
	l.Warn("shown", nil)
	l.Error("shown", nil)

	// Assert
	require.Contains(t, out.String(), "[IMPORTANT")
	require.Contains(t, errOut.String(), "[WARN")
	require.Contains(t, errOut.String(), "[ERROR")
}

func TestForceEmitOverridesSuppression(t *testing.T) {
	// Arrange
	l, out, _ := newTestLogger(t, &logger.Config{Host: "app-prod-1", ForceEmit: true})

	// Act
	l.Log("shown", nil)

	// Assert
	require.Contains(t, out.String(), "[LOG")
	require.Contains(t, out.String(), "shown")
}

func TestLevelFilter(t *testing.T) {
	// Arrange
	l, out, errOut := newTestLogger(t, &logger.Config{Host: "localhost", LevelFilter: logger.LevelError})

	// Act
	l.Log("hidden", nil)
	l.Info("hidden", nil)
	l.Important("hidden", nil)
	l.Warn("hidden", nil)
	l.Error("shown", nil)

	// Assert
	require.Empty(t, out.String())
	require.Equal(t, 1, strings.Count(errOut.String(), "\n"))
	require.Contains(t, errOut.String(), "[ERROR")
}

func TestLevelFilterBeatsForceEmit(t *testing.T) {
	// Arrange
	l, out, _ := newTestLogger(t, &logger.Config{Host: "localhost", LevelFilter: logger.LevelError, ForceEmit: true})

	// Act
	l.Log("hidden", nil)

	// Assert
	require.Empty(t, out.String())
}

func TestLevelFilterSilencesUnknownLevels(t *testing.T) {
	// Arrange
	l, out, errOut := newTestLogger(t, &logger.Config{Host: "localhost", LevelFilter: logger.LevelError})

	// Act: the filter suppresses before the unknown-level diagnostic
	// gets a chance to fire.
	l.Emit("verbose", "hidden", nil)

	// Assert
	require.Empty(t, out.String())
	require.Empty(t, errOut.String())
}

func TestUnknownLevelDiagnostic(t *testing.T) {
	// Arrange
	l, out, errOut := newTestLogger(t, &logger.Config{Host: "localhost"})

	// Act
	l.Emit("verbose", "hidden", nil)

	// Assert: one diagnostic warning, no formatted line.
	require.Empty(t, out.String())
	require.Equal(t, "[WARN] Svc | unknown log level \"verbose\"; message dropped\n", errOut.String())
}

func TestUnknownLevelDiagnosticAppliesUnderForceEmit(t *testing.T) {
	// Arrange
	l, out, errOut := newTestLogger(t, &logger.Config{Host: "localhost", ForceEmit: true})

	// Act
	l.Emit("verbose", "hidden", nil)

	// Assert
	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), `unknown log level "verbose"`)
}

func TestAsyncConsoleDefersEmission(t *testing.T) {
	// Arrange: every sink write parks on the gate, so anything observable
	// before the gate opens was emitted synchronously.
	gate := make(chan struct{})
	buf := new(syncBuffer)
	gated := writerFunc(func(p []byte) (int, error) {
		<-gate
		return buf.Write(p)
	})

	l, err := logger.New("Svc", &logger.Config{Host: "localhost", AsyncConsole: true},
		logger.WithOutput(gated),
		logger.WithNow(func() time.Time { return testTime }),
	)
	require.Nil(t, err)

	// Act
	l.Log("deferred", nil)

	// Assert
	require.Empty(t, buf.String())

	close(gate)
	require.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "deferred")
	}, time.Second, 5*time.Millisecond)
}

func TestAsyncConsolePreservesOrder(t *testing.T) {
	// Arrange
	buf := new(syncBuffer)
	l, err := logger.New("Svc", &logger.Config{Host: "localhost", AsyncConsole: true},
		logger.WithOutput(buf),
		logger.WithNow(func() time.Time { return testTime }),
	)
	require.Nil(t, err)

	// Act
	const n = 50
	for i := 0; i < n; i++ {
		l.Log(fmt.Sprintf("msg-%03d", i), nil)
	}

	// Assert
	require.Eventually(t, func() bool {
		return strings.Count(buf.String(), "\n") == n
	}, time.Second, 5*time.Millisecond)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for i, line := range lines {
		require.Contains(t, line, fmt.Sprintf("msg-%03d", i))
	}
}

func TestConcurrentUse(t *testing.T) {
	// Arrange
	l, out, errOut := newTestLogger(t, &logger.Config{Host: "localhost"})

	// Act
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				l.Info("tick", nil)
				l.Error("tock", nil)
			}
		}()
	}
	wg.Wait()

	// Assert
	require.Equal(t, 200, strings.Count(out.String(), "\n"))
	require.Equal(t, 200, strings.Count(errOut.String(), "\n"))
}
