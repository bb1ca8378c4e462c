package search

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kk-code-lab/rpick/internal/column"
)

func waitSnapshot(t *testing.T, w *Worker, done func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	var last Snapshot
	for time.Now().Before(deadline) {
		if snap, ok := w.Poll(); ok {
			last = snap
			if done(snap) {
				return snap
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for snapshot, last=%+v", last)
	return Snapshot{}
}

func matchIndexes(snap Snapshot) []int {
	out := make([]int, len(snap.Matches))
	for i, m := range snap.Matches {
		out[i] = m.Index
	}
	return out
}

func TestWorkerRanksBestMatchFirst(t *testing.T) {
	w := NewWorker(Options{})
	defer w.Close()

	inj := w.Injector()
	if err := inj.Append("apple", "banana", "grape"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := inj.Seal(); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	w.Requery("ap")

	snap := waitSnapshot(t, w, func(s Snapshot) bool {
		return !s.Running && s.Sealed && s.Total == 3 && len(s.Matches) == 2
	})
	if snap.Matches[0].Index != 0 {
		t.Fatalf("expected apple first, got %v", matchIndexes(snap))
	}
	rec, ok := w.Record(snap.Matches[0].Index)
	if !ok || rec.Raw != "apple" {
		t.Fatalf("expected apple record, got %+v", rec)
	}
}

func TestWorkerEmptyQueryKeepsAppendOrder(t *testing.T) {
	w := NewWorker(Options{})
	defer w.Close()

	_ = w.Injector().Append("c", "b", "a")
	snap := waitSnapshot(t, w, func(s Snapshot) bool { return !s.Running && len(s.Matches) == 3 })
	got := matchIndexes(snap)
	if got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("expected append order, got %v", got)
	}
}

func TestWorkerActiveColumn(t *testing.T) {
	model, err := column.NewModel(column.Rule{Delimiter: "\t"})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	w := NewWorker(Options{Model: model, Active: 1})
	defer w.Close()

	_ = w.Injector().Append("a\tb", "b\ta", "a\ta")
	w.Requery("a")
	snap := waitSnapshot(t, w, func(s Snapshot) bool { return !s.Running && s.Total == 3 && len(s.Matches) == 2 })
	for _, idx := range matchIndexes(snap) {
		if idx == 0 {
			t.Fatalf("record 0 only matches in column 0, got %v", matchIndexes(snap))
		}
	}

	w.SetColumn(0)
	snap = waitSnapshot(t, w, func(s Snapshot) bool {
		if s.Running || len(s.Matches) != 2 {
			return false
		}
		got := matchIndexes(s)
		return got[0] != 1 && got[1] != 1
	})
	if len(snap.Matches) != 2 {
		t.Fatalf("expected two matches on column 0, got %v", matchIndexes(snap))
	}
}

func TestWorkerGenerationMonotonicAndSubset(t *testing.T) {
	w := NewWorker(Options{ChunkSize: 7})
	defer w.Close()

	inj := w.Injector()
	appended := 0
	var lastGen uint64
	queries := []string{"1", "2", "", "x", "10"}
	for round := 0; round < 40; round++ {
		lines := make([]string, 0, 25)
		for i := 0; i < 25; i++ {
			lines = append(lines, fmt.Sprintf("line %d x", appended+i))
		}
		if err := inj.Append(lines...); err != nil {
			t.Fatalf("Append: %v", err)
		}
		appended += len(lines)
		w.Requery(queries[round%len(queries)])

		if snap, ok := w.Poll(); ok {
			if snap.Generation <= lastGen {
				t.Fatalf("generation went from %d to %d", lastGen, snap.Generation)
			}
			lastGen = snap.Generation
			for _, m := range snap.Matches {
				if m.Index < 0 || m.Index >= appended {
					t.Fatalf("snapshot indexed %d with only %d records", m.Index, appended)
				}
			}
		}
	}

	w.Requery("x")
	snap := waitSnapshot(t, w, func(s Snapshot) bool { return !s.Running && len(s.Matches) == appended })
	if snap.Generation <= lastGen {
		t.Fatalf("generation did not advance: %d <= %d", snap.Generation, lastGen)
	}
	if _, ok := w.Poll(); ok {
		t.Fatalf("expected no snapshot without progress")
	}
}

func TestWorkerKeepsRankingOnPatternError(t *testing.T) {
	w := NewWorker(Options{})
	defer w.Close()

	_ = w.Injector().Append("alpha", "beta")
	w.Requery("al")
	good := waitSnapshot(t, w, func(s Snapshot) bool { return !s.Running && len(s.Matches) == 1 })

	w.Requery("al !")
	bad := waitSnapshot(t, w, func(s Snapshot) bool { return s.Err != nil })
	var perr *PatternError
	if !errors.As(bad.Err, &perr) {
		t.Fatalf("expected *PatternError, got %v", bad.Err)
	}
	if len(bad.Matches) != len(good.Matches) || bad.Matches[0].Index != good.Matches[0].Index {
		t.Fatalf("expected last ranking to be kept, got %v", matchIndexes(bad))
	}

	w.Requery("be")
	fixed := waitSnapshot(t, w, func(s Snapshot) bool { return s.Err == nil && !s.Running && len(s.Matches) == 1 && s.Matches[0].Index == 1 })
	if fixed.Err != nil {
		t.Fatalf("expected error to clear, got %v", fixed.Err)
	}
}

func TestWorkerRestartRejectsStaleInjector(t *testing.T) {
	w := NewWorker(Options{})
	defer w.Close()

	old := w.Injector()
	_ = old.Append("one", "two")
	waitSnapshot(t, w, func(s Snapshot) bool { return s.Total == 2 && !s.Running })

	fresh := w.Restart()
	if fresh.Version() == old.Version() {
		t.Fatalf("expected version bump")
	}
	if err := old.Append("three"); !errors.Is(err, ErrStaleInjector) {
		t.Fatalf("expected ErrStaleInjector, got %v", err)
	}
	if err := fresh.Append("four"); err != nil {
		t.Fatalf("fresh Append: %v", err)
	}
	snap := waitSnapshot(t, w, func(s Snapshot) bool { return s.Total == 1 && !s.Running && len(s.Matches) == 1 })
	if snap.Version != fresh.Version() {
		t.Fatalf("expected version %d, got %d", fresh.Version(), snap.Version)
	}
	if rec, _ := w.Record(0); rec.Raw != "four" {
		t.Fatalf("expected new store contents, got %q", rec.Raw)
	}
}
