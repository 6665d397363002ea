// Package events handles event emission for run lifecycle changes
package events

import (
	"context"
	"errors"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes run lifecycle events. A nil producer disables emission, so
// callers never need to guard on configuration.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitRunCompleted emits a run.completed event summarizing the report.
func (e *Emitter) EmitRunCompleted(ctx context.Context, report *models.RunReport) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	event := &kafka.RunEvent{
		EventType:      "run.completed",
		RunID:          report.RunID,
		StartedAt:      report.StartedAt,
		FinishedAt:     report.FinishedAt,
		OrdersResolved: report.OrdersResolved,
		RejectedRows:   report.RejectedCount(),
		Warnings:       len(report.Warnings),
		ParityDiffs:    len(report.ParityDiffs),
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.completed event")
		return err
	}
	return nil
}

// EmitRunFailed emits a run.failed event carrying the fatal error code.
func (e *Emitter) EmitRunFailed(ctx context.Context, report *models.RunReport, runErr error) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunFailed")
	defer span.End()

	event := &kafka.RunEvent{
		EventType:  "run.failed",
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}
	if runErr != nil {
		event.FailureDetail = runErr.Error()
		var re *models.RunError
		if errors.As(runErr, &re) {
			event.FailureCode = string(re.Code)
		}
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.failed event")
		return err
	}
	return nil
}
