package proc

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/kk-code-lab/rpick/internal/logging"
)

// TTY is where a foreground command reads and writes.
type TTY struct {
	In    io.Reader
	Out   io.Writer
	close func() error
}

// Close releases the terminal handle, if one was opened.
func (t *TTY) Close() error {
	if t == nil || t.close == nil {
		return nil
	}
	return t.close()
}

// StdTTY uses the process's own standard streams.
func StdTTY() *TTY {
	return &TTY{In: os.Stdin, Out: os.Stdout}
}

// Foreground admits one terminal-owning command at a time. Acquisition
// never blocks: a second caller gets ErrForegroundBusy.
type Foreground struct {
	busy   atomic.Bool
	logger *slog.Logger
}

func NewForeground(logger *slog.Logger) *Foreground {
	return &Foreground{logger: logging.OrDiscard(logger)}
}

// TryAcquire claims the terminal. The returned release must be called once
// the command has finished and the screen is back.
func (f *Foreground) TryAcquire() (func(), error) {
	if !f.busy.CompareAndSwap(false, true) {
		f.logger.Debug("foreground command rejected", "reason", "busy")
		return nil, ErrForegroundBusy
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			f.busy.Store(false)
		}
	}, nil
}

// Busy reports whether a foreground command is in flight.
func (f *Foreground) Busy() bool {
	return f.busy.Load()
}

// RunAttached runs script with the terminal as its stdio. The child stays in
// the terminal's foreground process group so it can read from it. A nil tty
// opens the controlling terminal.
func (f *Foreground) RunAttached(sh Shell, script string, env []string, tty *TTY) error {
	if tty == nil {
		tty = OpenTTY()
		defer func() {
			_ = tty.Close()
		}()
	}
	cmd := sh.Command(script, env)
	cmd.Stdin = tty.In
	cmd.Stdout = tty.Out
	cmd.Stderr = tty.Out
	f.logger.Debug("foreground command start", "command", script)
	err := cmd.Run()
	f.logger.Debug("foreground command exit", "command", script, "err", err)
	return Wrap(script, err, "")
}
