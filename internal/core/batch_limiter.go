package core

// batch_limiter.go caps how many batches run at once.
//
// Each batch holds one outbound HTTP round-trip per row for its whole
// duration, so a burst of large spreadsheets can pin many goroutines and
// sockets. A batch that cannot get a slot within maxWait fails with
// ErrTooManyBatches instead of queueing forever.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyBatches is returned when every batch slot stays busy for the
// whole wait period. Clients should retry after a short delay.
var ErrTooManyBatches = errors.New("too many batches in progress, please try again later")

const (
	DefaultMaxConcurrentBatches = 4
	DefaultBatchWaitTime        = 30 * time.Second
)

// BatchLimiter is a counting semaphore for batch runs.
type BatchLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration
	active  atomic.Int64
}

// NewBatchLimiter allows maxConcurrent simultaneous batches. Non-positive
// arguments fall back to the package defaults.
func NewBatchLimiter(maxConcurrent int, maxWait time.Duration) *BatchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentBatches
	}
	if maxWait <= 0 {
		maxWait = DefaultBatchWaitTime
	}
	return &BatchLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire waits for a slot. Callers must Release after a nil return.
func (l *BatchLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyBatches
	}
	l.active.Add(1)
	return nil
}

// Release frees a slot taken by Acquire.
func (l *BatchLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// Active returns the number of running batches.
func (l *BatchLimiter) Active() int { return int(l.active.Load()) }

// WaitForDrain blocks until no batch is running or ctx is done.
func (l *BatchLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for l.Active() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// BatchLimiterStatus is a snapshot for health reporting.
type BatchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the limiter's current occupancy.
func (l *BatchLimiter) Status() BatchLimiterStatus {
	active := l.Active()
	return BatchLimiterStatus{
		Active:        active,
		Available:     l.max - active,
		MaxConcurrent: l.max,
	}
}
