package search

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/kk-code-lab/rpick/internal/column"
	"github.com/kk-code-lab/rpick/internal/logging"
)

// ErrStaleInjector is returned by an Injector whose worker version was
// replaced by Restart.
var ErrStaleInjector = errors.New("search: injector belongs to a previous version")

const defaultChunkSize = 4096

// Snapshot is a published ranking. Matches is never mutated after
// publication.
type Snapshot struct {
	Generation uint64
	Version    uint64
	Matches    []Match
	Total      int
	Running    bool
	Sealed     bool
	// Query is the pattern the matches were ranked against.
	Query string
	Err   error
}

// Options configures a Worker.
type Options struct {
	Model     *column.Model
	Active    int
	Case      CaseMode
	ChunkSize int
	Logger    *slog.Logger
}

// Worker ranks a Store against the current pattern on a background
// goroutine. Callers drive it with Requery/SetColumn and collect progress
// with Poll.
type Worker struct {
	mu      sync.Mutex
	opts    Options
	logger  *slog.Logger
	matcher *FuzzyMatcher

	store      *Store
	version    uint64
	query      string
	pattern    *Pattern
	patternErr error
	active     int

	// epoch changes whenever the ranking must start over.
	epoch       uint64
	rankedEpoch uint64
	ranked      []Match
	rankedQuery string
	scored      int
	rescoring   bool

	published  Snapshot
	seq        uint64
	polledSeq  uint64
	generation uint64

	kick      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Injector appends records to one worker version.
type Injector struct {
	w       *Worker
	version uint64
}

// NewWorker starts a worker with an empty store.
func NewWorker(opts Options) *Worker {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	pattern, _ := ParsePattern("", opts.Model, opts.Case)
	w := &Worker{
		opts:    opts,
		logger:  logging.OrDiscard(opts.Logger),
		matcher: NewFuzzyMatcher(),
		store:   NewStore(opts.Model),
		pattern: pattern,
		active:  opts.Active,
		epoch:   1,
		kick:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	w.seq = 1
	go w.run()
	return w
}

// Injector returns an injector for the current version.
func (w *Worker) Injector() *Injector {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &Injector{w: w, version: w.version}
}

// Append adds lines to the store if the injector is still current.
func (in *Injector) Append(lines ...string) error {
	store, err := in.w.storeFor(in.version)
	if err != nil {
		return err
	}
	store.Append(lines...)
	in.w.wake()
	return nil
}

// Seal marks the injector's store as complete.
func (in *Injector) Seal() error {
	store, err := in.w.storeFor(in.version)
	if err != nil {
		return err
	}
	store.Seal()
	in.w.wake()
	return nil
}

// Version returns the worker version this injector feeds.
func (in *Injector) Version() uint64 {
	return in.version
}

func (w *Worker) storeFor(version uint64) (*Store, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if version != w.version {
		return nil, ErrStaleInjector
	}
	return w.store, nil
}

// Requery switches the pattern. A malformed query keeps the previous ranking
// and reports a *PatternError on the next Snapshot.
func (w *Worker) Requery(query string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if query == w.query && w.patternErr == nil {
		return
	}
	w.query = query
	pattern, err := ParsePattern(query, w.opts.Model, w.opts.Case)
	if err != nil {
		w.patternErr = err
		w.publishLocked(w.published.Matches, w.published.Running)
		w.logger.Debug("pattern rejected", "query", query, "error", err)
		return
	}
	w.patternErr = nil
	if pattern.Query == w.pattern.Query {
		w.publishLocked(w.published.Matches, w.published.Running)
		return
	}
	w.pattern = pattern
	w.resetLocked()
}

// SetColumn changes the column unscoped terms match against.
func (w *Worker) SetColumn(idx int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if idx == w.active {
		return
	}
	w.active = idx
	w.resetLocked()
}

// Restart replaces the store with an empty one under a new version and
// returns its injector. Earlier injectors start failing with
// ErrStaleInjector.
func (w *Worker) Restart() *Injector {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.version++
	w.store = NewStore(w.opts.Model)
	w.resetLocked()
	w.publishLocked(nil, false)
	w.logger.Debug("worker restarted", "version", w.version)
	return &Injector{w: w, version: w.version}
}

// Record returns record i of the current version.
func (w *Worker) Record(i int) (Record, bool) {
	w.mu.Lock()
	store := w.store
	w.mu.Unlock()
	return store.Get(i)
}

// Poll returns a new Snapshot when ranking progressed since the last call.
func (w *Worker) Poll() (Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seq == w.polledSeq {
		return Snapshot{}, false
	}
	w.polledSeq = w.seq
	w.generation++
	snap := w.published
	snap.Generation = w.generation
	snap.Version = w.version
	snap.Err = w.patternErr
	return snap, true
}

// Close stops the ranking goroutine and waits for it.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.stop)
	})
	<-w.done
}

func (w *Worker) wake() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Worker) resetLocked() {
	w.epoch++
	w.wake()
}

func (w *Worker) publishLocked(matches []Match, running bool) {
	w.published = Snapshot{
		Matches: matches,
		Total:   w.store.Len(),
		Running: running,
		Sealed:  w.store.Sealed(),
		Query:   w.rankedQuery,
	}
	w.seq++
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-w.kick:
		}
		w.rank()
	}
}

// rank scores unscored records chunk by chunk until the store is caught up.
// A changed epoch between chunks restarts from the first record.
func (w *Worker) rank() {
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		w.mu.Lock()
		if w.rankedEpoch != w.epoch {
			w.rankedEpoch = w.epoch
			w.ranked = nil
			w.rankedQuery = w.pattern.Query
			w.scored = 0
			w.rescoring = true
		}
		epoch := w.epoch
		store := w.store
		pattern := w.pattern
		active := w.active
		from := w.scored
		total := store.Len()
		if from >= total {
			sealed := store.Sealed()
			if w.rescoring || w.published.Running || w.published.Sealed != sealed || w.published.Total != total {
				w.rescoring = false
				w.publishLocked(w.ranked, false)
			}
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		to := min(from+w.opts.ChunkSize, total)
		chunk := w.scoreRange(store.Range(from, to), pattern, active)

		w.mu.Lock()
		if w.epoch != epoch {
			w.mu.Unlock()
			continue
		}
		w.ranked = mergeMatches(w.ranked, chunk)
		w.scored = to
		running := to < store.Len()
		if !running {
			w.rescoring = false
		}
		w.publishLocked(w.ranked, running)
		w.mu.Unlock()
	}
}

func (w *Worker) scoreRange(records []Record, pattern *Pattern, active int) []Match {
	var matches []Match
	for _, rec := range records {
		score, ok := pattern.Score(w.matcher, rec.Columns, active)
		if !ok {
			continue
		}
		matches = append(matches, Match{Index: rec.Index, Score: score})
	}
	sortMatches(matches)
	return matches
}
