package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/rowrelay/internal/logging"
	"github.com/google/uuid"
)

// ErrReportNotFound is returned by a RunStore for an unknown batch id.
var ErrReportNotFound = errors.New("batch report not found")

// BatchRequest is one registration request: a spreadsheet plus the
// instructions for turning its rows into payloads.
type BatchRequest struct {
	Data       string          // base64 spreadsheet
	Service    string          // base URL of the target service
	Endpoint   string          // path appended to Service
	Structure  json.RawMessage // field mapping object
	Complement any             // merged into every payload, may be nil
}

// BatchReport is the record of a finished batch.
type BatchReport struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	Rows      int           `json:"rows"`
	Result    BatchResult   `json:"result"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Status returns the status of the underlying result.
func (r BatchReport) Status() BatchStatus { return r.Result.Status() }

// RunStore keeps finished batch reports.
type RunStore interface {
	Save(ctx context.Context, report BatchReport) error
	Get(ctx context.Context, id string) (*BatchReport, error)
	Recent(ctx context.Context, limit int) ([]BatchReport, error)
}

// Service runs registration batches end to end.
type Service struct {
	decoder TableDecoder
	sender  Sender
	store   RunStore
	limiter *BatchLimiter
	now     func() time.Time
}

// NewService wires the collaborators of a batch. store may be nil, in which
// case reports are not kept.
func NewService(decoder TableDecoder, sender Sender, store RunStore, limiter *BatchLimiter) *Service {
	if limiter == nil {
		limiter = NewBatchLimiter(DefaultMaxConcurrentBatches, DefaultBatchWaitTime)
	}
	return &Service{
		decoder: decoder,
		sender:  sender,
		store:   store,
		limiter: limiter,
		now:     time.Now,
	}
}

// Register validates the request, decodes the spreadsheet and sends one
// payload per row.
//
// Batch-level problems (configuration, decoding, missing columns, no free
// slot) are returned as errors before any row is sent. Once rows start, the
// returned report accounts for every row and err is nil.
func (s *Service) Register(ctx context.Context, req BatchRequest) (*BatchReport, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	url, err := ResolveEndpoint(req.Service, req.Endpoint)
	if err != nil {
		return nil, err
	}

	mapping, err := ParseStructure(req.Structure)
	if err != nil {
		return nil, err
	}

	if req.Data == "" {
		return nil, &DecodeError{Err: ErrMissingData}
	}
	table, err := s.decoder.Decode(ctx, req.Data)
	if err != nil {
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) {
			err = &DecodeError{Err: err}
		}
		return nil, err
	}

	if err := ValidateSchema(table, mapping); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger := logging.WithFields(ctx, "batch_id", id, "url", url)
	logger.Info("batch started", "rows", table.Len(), "fields", len(mapping))

	started := s.now()
	result := NewBatchProcessor(s.sender, logger).Process(ctx, table, mapping, url, req.Complement)

	report := &BatchReport{
		ID:        id,
		URL:       url,
		Rows:      table.Len(),
		Result:    result,
		StartedAt: started,
		Duration:  s.now().Sub(started),
	}

	if s.store != nil {
		if err := s.store.Save(context.WithoutCancel(ctx), *report); err != nil {
			logger.Error("failed to save batch report", "error", err)
		}
	}

	return report, nil
}

// Report returns a stored batch report.
func (s *Service) Report(ctx context.Context, id string) (*BatchReport, error) {
	if s.store == nil {
		return nil, ErrReportNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return s.store.Get(ctx, id)
}

// RecentReports returns up to limit stored reports, newest first.
func (s *Service) RecentReports(ctx context.Context, limit int) ([]BatchReport, error) {
	if s.store == nil {
		return []BatchReport{}, nil
	}
	return s.store.Recent(ctx, limit)
}

// LimiterStatus reports batch slot usage.
func (s *Service) LimiterStatus() BatchLimiterStatus {
	return s.limiter.Status()
}

// WaitForBatches blocks until running batches finish or ctx is done.
func (s *Service) WaitForBatches(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
