// Package report carries diagnostics from the transfer core to the user.
// Components receive a Reporter instead of printing directly.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "info"
}

type Reporter interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Console prints one line per diagnostic, coloured by level. Colours follow
// color.NoColor, so --no-color and non-terminals print plain text.
type Console struct {
	out    io.Writer
	green  *color.Color
	yellow *color.Color
	red    *color.Color
}

func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:    out,
		green:  color.New(color.FgGreen, color.Bold),
		yellow: color.New(color.FgYellow, color.Bold),
		red:    color.New(color.FgRed, color.Bold),
	}
}

func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Success(format string, args ...any) {
	c.green.Fprintf(c.out, "✅ "+format+"\n", args...)
}

func (c *Console) Warn(format string, args ...any) {
	c.yellow.Fprintf(c.out, "⚠️  "+format+"\n", args...)
}

func (c *Console) Error(format string, args ...any) {
	c.red.Fprintf(c.out, "❌ "+format+"\n", args...)
}

type discard struct{}

func (discard) Info(string, ...any)    {}
func (discard) Success(string, ...any) {}
func (discard) Warn(string, ...any)    {}
func (discard) Error(string, ...any)   {}

// Discard drops everything.
var Discard Reporter = discard{}

type Entry struct {
	Level   Level
	Message string
}

// Recorder keeps every diagnostic in memory.
type Recorder struct {
	mu      sync.Mutex
	Entries []Entry
}

func (r *Recorder) add(l Level, format string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, Entry{Level: l, Message: fmt.Sprintf(format, args...)})
}

func (r *Recorder) Info(format string, args ...any)    { r.add(LevelInfo, format, args) }
func (r *Recorder) Success(format string, args ...any) { r.add(LevelSuccess, format, args) }
func (r *Recorder) Warn(format string, args ...any)    { r.add(LevelWarn, format, args) }
func (r *Recorder) Error(format string, args ...any)   { r.add(LevelError, format, args) }

// Count returns how many entries have the level.
func (r *Recorder) Count(l Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Entries {
		if e.Level == l {
			n++
		}
	}
	return n
}
