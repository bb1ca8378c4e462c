package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kk-code-lab/rpick/internal/logging"
	"github.com/kk-code-lab/rpick/internal/proc"
	"github.com/kk-code-lab/rpick/internal/search"
)

// Done reports the end of one source run.
type Done func(version uint64, err error)

// Runner owns the source command. Starting a new one cancels the previous
// run and waits for it to exit before spawning, so two source commands
// never overlap. Only the latest request of a burst is ever spawned.
type Runner struct {
	shell  proc.Shell
	ctl    proc.Controller
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	last   chan struct{}
	wg     sync.WaitGroup
}

func NewRunner(shell proc.Shell, logger *slog.Logger) *Runner {
	return &Runner{
		shell:  shell,
		ctl:    proc.NewController(),
		logger: logging.OrDiscard(logger),
	}
}

// Stdin feeds inj from rd. It counts as a run, so a later Command waits for
// it to stop.
func (r *Runner) Stdin(ctx context.Context, rd io.Reader, inj Injector, done Done) {
	r.launch(ctx, inj, done, func(ctx context.Context) error {
		return readDetached(ctx, rd, inj)
	})
}

// Command runs script and feeds its stdout into inj.
func (r *Runner) Command(ctx context.Context, script string, env []string, inj Injector, done Done) {
	r.launch(ctx, inj, done, func(ctx context.Context) error {
		return r.runCommand(ctx, script, env, inj)
	})
}

func (r *Runner) launch(parent context.Context, inj Injector, done Done, run func(context.Context) error) {
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	prev := r.last
	finished := make(chan struct{})
	r.cancel = cancel
	r.last = finished
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer close(finished)
		defer cancel()
		if prev != nil {
			<-prev
		}
		if ctx.Err() != nil {
			r.logger.Debug("source superseded before start", "version", inj.Version())
			return
		}
		err := run(ctx)
		if ctx.Err() != nil || errors.Is(err, search.ErrStaleInjector) {
			r.logger.Debug("source cancelled", "version", inj.Version())
			return
		}
		r.logger.Debug("source finished", "version", inj.Version(), "err", err)
		if done != nil {
			done(inj.Version(), err)
		}
	}()
}

// Stop cancels the current run and waits for every run to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Runner) runCommand(ctx context.Context, script string, env []string, inj Injector) error {
	pr, pw, err := os.Pipe()
	if err != nil {
		return proc.Wrap(script, err, "")
	}
	cmd := r.shell.Command(script, env)
	stderr := proc.NewTailBuffer(proc.DefaultStderrLimit)
	cmd.Stdout = pw
	cmd.Stderr = stderr
	if err := r.ctl.Start(cmd); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return proc.Wrap(script, err, "")
	}
	_ = pw.Close()
	r.logger.Debug("source spawned", "command", script, "pid", cmd.Process.Pid, "version", inj.Version())

	// The reader and the waiter run together. A failed append cancels the
	// group, which kills the process; an exit status never cuts the reader
	// short, so buffered output is still ingested.
	var waitErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer pr.Close()
		return Read(gctx, pr, inj, DefaultBatch)
	})
	g.Go(func() error {
		waitErr = r.ctl.Wait(gctx, cmd, proc.DefaultGracePeriod)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return proc.Wrap(script, waitErr, stderr.String())
}

// readDetached returns as soon as ctx is done. A read blocked on a
// terminal-less stdin cannot be interrupted, so it is left behind; its
// injector is stale by then and rejects whatever it reads.
func readDetached(ctx context.Context, rd io.Reader, inj Injector) error {
	errc := make(chan error, 1)
	go func() {
		errc <- Read(ctx, rd, inj, DefaultBatch)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
