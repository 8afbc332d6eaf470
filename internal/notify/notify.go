// Package notify is the user notification surface of the seller daemon:
// the place where "item sold" and "cannot sell" messages become visible.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/fatih/color"
)

// Notifier receives user-visible notifications from the negotiation engine.
type Notifier interface {
	Notify(message string)
}

// Func adapts a function to the Notifier interface.
type Func func(string)

func (f Func) Notify(message string) { f(message) }

// Console writes notifications as highlighted terminal lines.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	style *color.Color
}

// NewConsole creates a console notifier writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:   out,
		style: color.New(color.FgYellow, color.Bold),
	}
}

// Notify prints the message as a single highlighted line.
func (c *Console) Notify(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.style.Fprintf(c.out, "* %s\n", message)
}

// Log records notifications as structured log entries.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a notifier backed by a structured logger.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify logs the message at info level.
func (l *Log) Notify(message string) {
	l.logger.Info("user notification", "message", message)
}

// Multi fans a notification out to several sinks.
type Multi []Notifier

// NewMulti combines notifiers into one.
func NewMulti(notifiers ...Notifier) Multi {
	return Multi(notifiers)
}

// Notify delivers the message to every sink in order.
func (m Multi) Notify(message string) {
	for _, n := range m {
		n.Notify(message)
	}
}

// Notifyf formats a message and delivers it to n.
func Notifyf(n Notifier, format string, args ...any) {
	n.Notify(fmt.Sprintf(format, args...))
}
