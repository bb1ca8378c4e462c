// Package preview runs preview commands for the picker and streams their
// output back as state.PreviewResult values.
package preview

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kk-code-lab/rpick/internal/logging"
	"github.com/kk-code-lab/rpick/internal/proc"
	"github.com/kk-code-lab/rpick/internal/state"
	"github.com/kk-code-lab/rpick/internal/textutil"
)

const (
	// DefaultFlushInterval bounds how often partial output reaches the loop.
	DefaultFlushInterval = 50 * time.Millisecond
	// DefaultMaxLines caps the lines kept per preview. Output past it is
	// drained and dropped.
	DefaultMaxLines = 100000
)

// BinaryNotice replaces output that does not look like text.
const BinaryNotice = "[binary output]"

// Options configures a Loader.
type Options struct {
	Shell    proc.Shell
	Flush    time.Duration
	MaxLines int
	Logger   *slog.Logger
}

type job struct {
	generation uint64
	cancel     context.CancelFunc
}

// Loader implements state.PreviewLoader on top of shell commands. At most
// one job per preview source runs at a time.
type Loader struct {
	opts   Options
	ctl    proc.Controller
	logger *slog.Logger

	mu     sync.Mutex
	jobs   map[int]job
	closed bool
	wg     sync.WaitGroup
}

var _ state.PreviewLoader = (*Loader)(nil)

func NewLoader(opts Options) *Loader {
	if opts.Flush <= 0 {
		opts.Flush = DefaultFlushInterval
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultMaxLines
	}
	return &Loader{
		opts:   opts,
		ctl:    proc.NewController(),
		logger: logging.OrDiscard(opts.Logger),
		jobs:   make(map[int]job),
	}
}

// Start spawns req.Command. A job still running for the same source is
// cancelled first.
func (l *Loader) Start(req state.PreviewRequest) {
	ctx, cancel := context.WithCancel(context.Background())

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		cancel()
		return
	}
	if prev, ok := l.jobs[req.Source]; ok {
		prev.cancel()
	}
	l.jobs[req.Source] = job{generation: req.Generation, cancel: cancel}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		defer l.finish(req.Source, req.Generation)
		l.run(ctx, req)
	}()
}

// Cancel stops the job for source if it still runs generation.
func (l *Loader) Cancel(source int, generation uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if j, ok := l.jobs[source]; ok && j.generation == generation {
		j.cancel()
		delete(l.jobs, source)
	}
}

// Close cancels every job and waits for their processes to exit.
func (l *Loader) Close() {
	l.mu.Lock()
	l.closed = true
	for src, j := range l.jobs {
		j.cancel()
		delete(l.jobs, src)
	}
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *Loader) finish(source int, generation uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if j, ok := l.jobs[source]; ok && j.generation == generation {
		j.cancel()
		delete(l.jobs, source)
	}
}

func (l *Loader) run(ctx context.Context, req state.PreviewRequest) {
	deliver := func(lines []string, err error, done bool) {
		if req.Callback == nil || ctx.Err() != nil {
			return
		}
		req.Callback(state.PreviewResult{
			Source:     req.Source,
			Generation: req.Generation,
			Target:     req.Target,
			Lines:      lines,
			Err:        err,
			Done:       done,
		})
	}

	env := append(append([]string(nil), req.Env...),
		"COLUMNS="+strconv.Itoa(req.Columns),
		"LINES="+strconv.Itoa(req.Lines),
	)
	cmd := l.opts.Shell.Command(req.Command, env)
	stderr := proc.NewTailBuffer(proc.DefaultStderrLimit)
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		deliver(nil, proc.Wrap(req.Command, err, ""), true)
		return
	}
	if err := l.ctl.Start(cmd); err != nil {
		deliver(nil, proc.Wrap(req.Command, err, ""), true)
		return
	}
	l.logger.Debug("preview spawned", "source", req.Source, "generation", req.Generation, "pid", cmd.Process.Pid)

	buf := newLineBuffer(l.opts.MaxLines)
	readDone := make(chan error, 1)
	go func() {
		readDone <- buf.readFrom(stdout)
	}()

	limiter := rate.NewLimiter(rate.Every(l.opts.Flush), 1)
	// The first line shows up immediately; later flushes wait out the limiter.
stream:
	for {
		select {
		case <-buf.dirty:
			if err := limiter.Wait(ctx); err != nil {
				break stream
			}
			deliver(buf.lines(), nil, false)
		case <-readDone:
			break stream
		case <-ctx.Done():
			break stream
		}
	}

	waitErr := l.ctl.Wait(ctx, cmd, proc.DefaultGracePeriod)
	if ctx.Err() != nil {
		l.logger.Debug("preview cancelled", "source", req.Source, "generation", req.Generation)
		return
	}
	err = proc.Wrap(req.Command, waitErr, stderr.String())
	l.logger.Debug("preview exited", "source", req.Source, "generation", req.Generation, "err", err)
	deliver(buf.lines(), err, true)
}

// lineBuffer accumulates cleaned output lines. dirty holds a token while
// lines were added since the last flush.
type lineBuffer struct {
	mu    sync.Mutex
	max   int
	store []string
	dirty chan struct{}
}

func newLineBuffer(max int) *lineBuffer {
	return &lineBuffer{max: max, dirty: make(chan struct{}, 1)}
}

func (b *lineBuffer) readFrom(r io.Reader) error {
	text, enc := textutil.NewReader(r)
	if enc == textutil.EncodingBinary {
		b.add(BinaryNotice)
		_, err := io.Copy(io.Discard, text)
		return err
	}
	br := bufio.NewReader(text)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			b.add(textutil.CleanLine(line))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (b *lineBuffer) add(line string) {
	b.mu.Lock()
	if len(b.store) < b.max {
		b.store = append(b.store, line)
	}
	b.mu.Unlock()
	select {
	case b.dirty <- struct{}{}:
	default:
	}
}

// lines returns a copy safe to hand to the loop.
func (b *lineBuffer) lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.store...)
}
