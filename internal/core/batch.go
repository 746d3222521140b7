package core

import (
	"context"
	"log/slog"
)

// BatchProcessor builds, completes and sends one payload per table row.
//
// Rows run sequentially in table order. A failing row is recorded and the
// next row starts; nothing is retried and nothing is rolled back.
type BatchProcessor struct {
	builder *PayloadBuilder
	sender  Sender
	logger  *slog.Logger
}

// NewBatchProcessor creates a processor that delivers payloads with sender.
func NewBatchProcessor(sender Sender, logger *slog.Logger) *BatchProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchProcessor{
		builder: NewPayloadBuilder(logger),
		sender:  sender,
		logger:  logger,
	}
}

// Process runs every row of table through build, complement merge and send.
//
// Once started the batch runs to completion: cancellation of ctx is not
// propagated to the sender, only its values are.
func (p *BatchProcessor) Process(ctx context.Context, table *Table, mapping FieldMapping, url string, complement any) BatchResult {
	ctx = context.WithoutCancel(ctx)

	result := BatchResult{
		Correctos: []int{},
		Erroneos:  []RowFailure{},
	}
	for i := 0; i < table.Len(); i++ {
		result = p.processRow(ctx, i, table.Row(i), mapping, url, complement, result)
	}

	p.logger.Info("batch processed",
		"rows", table.Len(),
		"succeeded", len(result.Correctos),
		"failed", len(result.Erroneos),
	)
	return result
}

func (p *BatchProcessor) processRow(ctx context.Context, idx int, row Row, mapping FieldMapping, url string, complement any, acc BatchResult) BatchResult {
	payload, err := p.builder.Build(row, mapping)
	if err != nil {
		p.logger.Debug("row build failed", "row", idx, "error", err)
		return acc.recordFailure(idx, err.Error())
	}

	if err := MergeComplement(payload, complement); err != nil {
		p.logger.Debug("row complement failed", "row", idx, "error", err)
		return acc.recordFailure(idx, err.Error())
	}

	ok, diagnostic := p.sender.Send(ctx, payload, url)
	if !ok {
		p.logger.Warn("row send failed", "row", idx, "diagnostic", diagnostic)
		return acc.recordFailure(idx, diagnostic)
	}
	return acc.recordSuccess(idx)
}
