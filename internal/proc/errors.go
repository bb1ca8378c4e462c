package proc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ErrForegroundBusy rejects a foreground command while another one owns the
// terminal.
var ErrForegroundBusy = errors.New("proc: a foreground command is already running")

// DefaultStderrLimit bounds how much stderr is kept for error messages.
const DefaultStderrLimit = 4096

// SubprocessError describes a command that failed to start or exited
// non-zero. ExitCode is -1 when the command never produced a status.
type SubprocessError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *SubprocessError) Error() string {
	var b strings.Builder
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, "command %q exited with status %d", e.Command, e.ExitCode)
	} else {
		fmt.Fprintf(&b, "command %q failed: %v", e.Command, e.Err)
	}
	if msg := lastLine(e.Stderr); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	}
	return b.String()
}

func (e *SubprocessError) Unwrap() error {
	return e.Err
}

// Wrap converts an exec error into a *SubprocessError. Cancellation is
// returned unchanged so callers can drop it with errors.Is.
func Wrap(command string, err error, stderr string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &SubprocessError{
		Command:  command,
		ExitCode: code,
		Stderr:   strings.TrimSpace(stderr),
		Err:      err,
	}
}

func lastLine(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return text
}

// TailBuffer keeps the last limit bytes written to it.
type TailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func NewTailBuffer(limit int) *TailBuffer {
	if limit <= 0 {
		limit = DefaultStderrLimit
	}
	return &TailBuffer{limit: limit}
}

func (t *TailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *TailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
