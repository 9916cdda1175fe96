package cmterm

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/pkg/errors"
)

// logCapacity is how many rendered lines each Log retains. Far more than any
// terminal shows at once.
const logCapacity = 256

// ErrNotInteractive is returned by blocking input conveniences on a Log with
// no input endpoint (headless mode).
var ErrNotInteractive = errors.New("log has no interactive input endpoint")

// Log is a named, bounded, append-only, thread-safe line buffer with optional
// disk mirroring. Appends never block on user action and never fail
// observably: logging must not be able to crash the program it instruments.
type Log struct {
	mu        sync.Mutex
	title     string
	lines     *RingBuffer[string]
	mirrorDir string
	echo      io.Writer

	input *Input
}

// NewLog creates a log named title bound to input. A nil input leaves the
// blocking conveniences unusable (they return ErrNotInteractive), which is
// how headless mode runs.
func NewLog(title string, input *Input) *Log {
	return &Log{
		title: title,
		lines: NewRingBuffer[string](logCapacity),
		input: input,
	}
}

// WithDiskMirror configures best-effort mirroring of raw appended messages to
// a file named after the log's title inside dir.
func (l *Log) WithDiskMirror(dir string) *Log {
	l.mu.Lock()
	l.mirrorDir = dir
	l.mu.Unlock()
	return l
}

// WithEcho additionally writes every rendered line to w. Used when no
// dashboard owns the screen and the log would otherwise be invisible.
func (l *Log) WithEcho(w io.Writer) *Log {
	l.mu.Lock()
	l.echo = w
	l.mu.Unlock()
	return l
}

// Name returns the immutable title.
func (l *Log) Name() string {
	return l.title
}

// Append formats msg under the given level and pushes each resulting line
// into the ring buffer. Multi-line messages get the styled prefix on the
// first line and blank padding of the same width on continuations; tabs
// become two spaces. If a disk mirror is configured the raw message bytes are
// appended first, with any failure swallowed.
func (l *Log) Append(level Level, msg string) {
	l.mirror(msg)

	st := level.style()
	prefix := st.prefixStyle.Render(st.prefix)
	blank := strings.Repeat(" ", ansi.StringWidth(prefix))

	l.mu.Lock()
	defer l.mu.Unlock()
	current := prefix
	for _, line := range strings.Split(msg, "\n") {
		styled := st.bodyStyle.Render(line)
		rendered := strings.ReplaceAll(current+" "+styled, "\t", "  ")
		l.lines.Push(rendered)
		if l.echo != nil {
			fmt.Fprintln(l.echo, rendered)
		}
		current = blank
	}
}

// Info appends msg at info level.
func (l *Log) Info(msg string) { l.Append(LevelInfo, msg) }

// Infof appends a formatted message at info level.
func (l *Log) Infof(format string, args ...interface{}) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends msg at warn level.
func (l *Log) Warn(msg string) { l.Append(LevelWarn, msg) }

// Warnf appends a formatted message at warn level.
func (l *Log) Warnf(format string, args ...interface{}) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends msg at error level.
func (l *Log) Error(msg string) { l.Append(LevelError, msg) }

// Errorf appends a formatted message at error level.
func (l *Log) Errorf(format string, args ...interface{}) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

// Success appends msg at success level.
func (l *Log) Success(msg string) { l.Append(LevelSuccess, msg) }

// Successf appends a formatted message at success level.
func (l *Log) Successf(format string, args ...interface{}) {
	l.Append(LevelSuccess, fmt.Sprintf(format, args...))
}

// mirror appends the raw message bytes to the mirror file. Best effort only.
func (l *Log) mirror(msg string) {
	l.mu.Lock()
	dir := l.mirrorDir
	l.mu.Unlock()
	if dir == "" {
		return
	}

	f, err := os.OpenFile(filepath.Join(dir, l.title), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(msg)
}

// RequestLine blocks until the user submits a line of text.
func (l *Log) RequestLine(prompt string) (string, error) {
	if l.input == nil {
		return "", ErrNotInteractive
	}
	return l.input.Request(l.title, prompt, ModeLine)
}

// RequestSecret blocks until the user submits a line; the display shows mask
// characters while the real text is retained and returned.
func (l *Log) RequestSecret(prompt string) (string, error) {
	if l.input == nil {
		return "", ErrNotInteractive
	}
	return l.input.Request(l.title, prompt, ModeSecret)
}

// WaitForAck blocks until the user presses the acknowledgement key,
// discarding all other input.
func (l *Log) WaitForAck(prompt string) error {
	if l.input == nil {
		return ErrNotInteractive
	}
	_, err := l.input.Request(l.title, prompt, ModeAck)
	return err
}

// snapshot copies the n most recent lines (most recent first) for rendering.
// The copy is internally consistent; it may be stale by display time.
func (l *Log) snapshot(n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lines.PeekLast(n)
}
