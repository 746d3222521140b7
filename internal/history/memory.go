// Package history keeps reports of finished batches.
//
// Two core.RunStore implementations are provided: MemoryStore, a bounded
// in-process store used when no database is configured, and PostgresStore,
// backed by a batch_runs table.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/rowrelay/internal/core"
)

// DefaultMemoryCapacity is used when NewMemoryStore gets a non-positive size.
const DefaultMemoryCapacity = 100

// MemoryStore holds the most recent reports, newest first. When full, the
// oldest report is evicted.
type MemoryStore struct {
	mu       sync.RWMutex
	reports  []core.BatchReport
	capacity int
}

// NewMemoryStore returns a store keeping at most capacity reports.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		reports:  make([]core.BatchReport, 0, capacity),
		capacity: capacity,
	}
}

// Save implements core.RunStore.
func (m *MemoryStore) Save(_ context.Context, report core.BatchReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.reports) == m.capacity {
		m.reports = m.reports[:m.capacity-1]
	}
	m.reports = append(m.reports, core.BatchReport{})
	copy(m.reports[1:], m.reports)
	m.reports[0] = report
	return nil
}

// Get implements core.RunStore.
func (m *MemoryStore) Get(_ context.Context, id string) (*core.BatchReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.reports {
		if m.reports[i].ID == id {
			r := m.reports[i]
			return &r, nil
		}
	}
	return nil, core.ErrReportNotFound
}

// Recent implements core.RunStore. A non-positive limit returns everything.
func (m *MemoryStore) Recent(_ context.Context, limit int) ([]core.BatchReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > len(m.reports) {
		limit = len(m.reports)
	}
	out := make([]core.BatchReport, limit)
	copy(out, m.reports[:limit])
	return out, nil
}

// Prune drops reports started before cutoff.
func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.reports[:0]
	for _, r := range m.reports {
		if !r.StartedAt.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	removed := int64(len(m.reports) - len(kept))
	m.reports = kept
	return removed, nil
}

// Len returns the number of stored reports.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}
