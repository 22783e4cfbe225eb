// Package notify surfaces transient user-visible messages (toasts). It is the
// single failure-reporting channel of the API layer.
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Severity tags a message as a success or an error.
type Severity string

const (
	SeveritySuccess Severity = "SUCCESS"
	SeverityError   Severity = "ERROR"
)

// Notifier shows a message to the user. Calls are fire-and-forget.
type Notifier interface {
	CommonMessage(text string, severity Severity)
}

// Error shows text with the default error severity.
func Error(n Notifier, text string) {
	n.CommonMessage(text, SeverityError)
}

// Success shows text with success severity.
func Success(n Notifier, text string) {
	n.CommonMessage(text, SeveritySuccess)
}

// Message is one shown notification.
type Message struct {
	Text     string
	Severity Severity
}

// Console writes one line per message to an io.Writer and remembers the most
// recent message. Later messages replace earlier ones.
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	last *Message
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) CommonMessage(text string, severity Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mark := "✖"
	if severity == SeveritySuccess {
		mark = "✔"
	}
	fmt.Fprintf(c.w, "%s %s\n", mark, text)
	c.last = &Message{Text: text, Severity: severity}
}

// Last returns the message currently on screen, if any.
func (c *Console) Last() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Message{}, false
	}
	return *c.last, true
}

// Logger forwards messages to zap: errors at warn level, successes at info.
type Logger struct {
	log *zap.Logger
}

// NewLogger returns a Logger notifier.
func NewLogger(log *zap.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) CommonMessage(text string, severity Severity) {
	if severity == SeveritySuccess {
		l.log.Info("notification", zap.String("text", text), zap.String("severity", string(severity)))
		return
	}
	l.log.Warn("notification", zap.String("text", text), zap.String("severity", string(severity)))
}

// Multi fans each message out to every notifier in order.
type Multi []Notifier

func (m Multi) CommonMessage(text string, severity Severity) {
	for _, n := range m {
		n.CommonMessage(text, severity)
	}
}

// Recorder keeps every message it receives. Tests use it to count and inspect
// notifications.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) CommonMessage(text string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Text: text, Severity: severity})
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Reset forgets all recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
