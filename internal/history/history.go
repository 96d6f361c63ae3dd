// Package history keeps optimization records for ranking and analytics.
//
// Two implementations are provided: Store persists records in BadgerDB and
// Memory keeps them in process. Both satisfy optimizer.Recorder and Reader.
package history

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iwvelando/weight-balance/pkg/optimization"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store is closed")

// Reader lists stored records.
type Reader interface {
	// List returns the records of pattern in chronological order, or every
	// record when pattern is empty.
	List(ctx context.Context, pattern string) ([]optimization.Record, error)

	// Patterns returns the sorted names of every pattern with history.
	Patterns(ctx context.Context) ([]string, error)
}

// prepare assigns an ID and a creation time when missing.
func prepare(rec optimization.Record, now func() time.Time) optimization.Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.Pattern = strings.TrimSpace(rec.Pattern)
	return rec
}

func chronological(records []optimization.Record) {
	slices.SortStableFunc(records, func(a, b optimization.Record) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// Memory is an in-process Recorder and Reader.
type Memory struct {
	mu      sync.RWMutex
	records []optimization.Record
	now     func() time.Time
}

// NewMemory returns an empty in-process history.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// Record stores rec.
func (m *Memory) Record(ctx context.Context, rec optimization.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, prepare(rec, m.now))
	return nil
}

// List implements Reader.
func (m *Memory) List(ctx context.Context, pattern string) ([]optimization.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []optimization.Record{}
	for _, rec := range m.records {
		if pattern == "" || rec.Pattern == pattern {
			out = append(out, rec)
		}
	}
	chronological(out)
	return out, nil
}

// Patterns implements Reader.
func (m *Memory) Patterns(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []string{}
	for _, rec := range m.records {
		if !slices.Contains(out, rec.Pattern) {
			out = append(out, rec.Pattern)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Close is a no-op kept for symmetry with Store.
func (m *Memory) Close() error {
	return nil
}
