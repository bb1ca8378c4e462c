package search

import (
	"sync"

	"github.com/kk-code-lab/rpick/internal/column"
)

// Record is one ingested line. Records are immutable once appended.
type Record struct {
	Index   int
	Raw     string
	Columns []string
}

// Target returns the column view used by templates.
func (r Record) Target() column.Target {
	return column.Target{Raw: r.Raw, Columns: r.Columns}
}

// Store is an append-only record corpus with a single writer.
type Store struct {
	mu      sync.RWMutex
	model   *column.Model
	records []Record
	sealed  bool
}

// NewStore creates an empty store splitting lines with model. A nil model
// keeps every line as one column.
func NewStore(model *column.Model) *Store {
	return &Store{model: model}
}

// Append splits and indexes lines, returning the new record count.
func (s *Store) Append(lines ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, line := range lines {
		cols := []string{line}
		if s.model != nil {
			cols = s.model.Split(line)
		}
		s.records = append(s.records, Record{Index: len(s.records), Raw: line, Columns: cols})
	}
	return len(s.records)
}

// Seal marks the store as complete.
func (s *Store) Seal() {
	s.mu.Lock()
	s.sealed = true
	s.mu.Unlock()
}

// Sealed reports whether the source finished ingesting.
func (s *Store) Sealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns record i.
func (s *Store) Get(i int) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.records) {
		return Record{}, false
	}
	return s.records[i], true
}

// Range returns records [from, to). The returned slice shares immutable
// records with the store but may not be appended to.
func (s *Store) Range(from, to int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from = max(from, 0)
	to = min(to, len(s.records))
	if from >= to {
		return nil
	}
	return s.records[from:to:to]
}
