package app

import (
	"io"
	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpick/internal/config"
	"github.com/kk-code-lab/rpick/internal/proc"
)

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	resolved *config.Resolved
	screen   tcell.Screen
	input    io.Reader
	output   io.Writer
	tty      *proc.TTY
	logger   *slog.Logger
	become   func(sh proc.Shell, script string, env []string) error
}

// WithConfig sets the resolved configuration. Without it the defaults are
// used.
func WithConfig(r *config.Resolved) Option {
	return func(c *runConfig) { c.resolved = r }
}

// WithScreen draws on screen instead of the process terminal. The screen
// must not be initialized yet.
func WithScreen(screen tcell.Screen) Option {
	return func(c *runConfig) { c.screen = screen }
}

// WithInput reads records from r instead of running the source command.
func WithInput(r io.Reader) Option {
	return func(c *runConfig) { c.input = r }
}

// WithOutput sets where Print writes.
func WithOutput(w io.Writer) Option {
	return func(c *runConfig) { c.output = w }
}

// WithTTY sets the terminal handed to Execute commands. By default the
// controlling terminal is opened per command.
func WithTTY(tty *proc.TTY) Option {
	return func(c *runConfig) { c.tty = tty }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) { c.logger = logger }
}
