package logger

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var fgColors = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
}

var bgColors = map[string]color.Attribute{
	"black":   color.BgBlack,
	"red":     color.BgRed,
	"green":   color.BgGreen,
	"yellow":  color.BgYellow,
	"blue":    color.BgBlue,
	"magenta": color.BgMagenta,
	"cyan":    color.BgCyan,
	"white":   color.BgWhite,
}

// A colorStyle wraps the fatih/color rendering for one level.
// nil means plain text, either because the level configured no colors
// or named ones the terminal palette does not have.
type colorStyle struct {
	c *color.Color
}

func (s *colorStyle) apply(line string) string { return s.c.Sprint(line) }

// styleFor maps a level's configured color names onto terminal attributes.
// Unknown names degrade to plain text rather than failing.
func styleFor(style levelStyle) *colorStyle {
	var attrs []color.Attribute
	if a, ok := fgColors[strings.ToLower(style.color)]; ok {
		attrs = append(attrs, a)
	}
	if a, ok := bgColors[strings.ToLower(style.background)]; ok {
		attrs = append(attrs, a)
	}

	if len(attrs) == 0 {
		return nil
	}

	return &colorStyle{c: color.New(attrs...)}
}

// A GroupWriter is a console sink with grouping support.
// [*Logger.BeginGroup] and [*Logger.EndGroup] are silent no-ops
// against sinks that do not implement it.
type GroupWriter interface {
	GroupStart(title string)
	GroupEnd()
}

// BeginGroup opens a presentation group on the console sink.
// Groups render only outside production, unless ForceEmit is set,
// and only when the sink supports grouping. Nesting correctness is the
// caller's responsibility; the Logger tracks no group state.
func (l *Logger) BeginGroup(title string, extra ...any) {
	if l.env.IsProduction() && !l.cfg.forceEmit {
		return
	}

	gw, ok := l.out.(GroupWriter)
	if !ok {
		return
	}

	if len(extra) > 0 {
		title = strings.TrimSuffix(fmt.Sprintln(append([]any{title}, extra...)...), "\n")
	}

	l.enqueue(func() { gw.GroupStart(title) })
}

// EndGroup closes the innermost presentation group, under the same
// visibility rules as BeginGroup.
func (l *Logger) EndGroup() {
	if l.env.IsProduction() && !l.cfg.forceEmit {
		return
	}

	gw, ok := l.out.(GroupWriter)
	if !ok {
		return
	}

	l.enqueue(func() { gw.GroupEnd() })
}

// A GroupConsole decorates a writer with console-style grouping:
// group titles render as marker lines and grouped output indents
// beneath them.
type GroupConsole struct {
	mu    sync.Mutex
	w     io.Writer
	depth int
}

func NewGroupConsole(w io.Writer) *GroupConsole {
	return &GroupConsole{w: w}
}

// Write indents each line by the current group depth.
func (g *GroupConsole) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.depth == 0 {
		return g.w.Write(p)
	}

	n := len(p)
	pad := bytes.Repeat([]byte("  "), g.depth)
	var out []byte
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			out = append(append(out, pad...), p...)
			break
		}
		out = append(append(out, pad...), p[:i+1]...)
		p = p[i+1:]
	}

	if _, err := g.w.Write(out); err != nil {
		return 0, err
	}

	return n, nil
}

// GroupStart renders the group title and indents subsequent writes.
func (g *GroupConsole) GroupStart(title string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pad := bytes.Repeat([]byte("  "), g.depth)
	fmt.Fprintf(g.w, "%s▼ %s\n", pad, title)
	g.depth++
}

// GroupEnd dedents; extra calls beyond the open groups are ignored.
func (g *GroupConsole) GroupEnd() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.depth > 0 {
		g.depth--
	}
}
