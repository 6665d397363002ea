// Package pipeline orchestrates one batch run end to end: normalize,
// reconcile, load, compute KPIs on both backends, and verify they agree.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/kpi"
	"github.com/Ramsey-B/fern/pkg/loader"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizer"
	"github.com/Ramsey-B/fern/pkg/reconciler"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Clock supplies the run's time anchor. Injectable so the top-customers window
// is reproducible in tests.
type Clock func() time.Time

// Options tunes a pipeline beyond its collaborators.
type Options struct {
	WindowDays int
	TopLimit   int
	Clock      Clock
}

// Outcome bundles everything one run produced.
type Outcome struct {
	Report     *models.RunReport
	Memory     *kpi.Results
	Relational *kpi.Results
}

// Pipeline runs the daily batch. The loader and relational engine may be nil,
// which degrades the run to in-memory-only with no persistence or parity
// check; the report records that.
type Pipeline struct {
	normalizer *normalizer.Normalizer
	reconciler *reconciler.Reconciler
	loader     *loader.Loader
	relational kpi.Engine
	emitter    *events.Emitter
	logger     ectologger.Logger

	windowDays int
	topLimit   int
	clock      Clock

	mu     sync.RWMutex
	latest *Outcome
}

// New assembles a pipeline from its stages.
func New(n *normalizer.Normalizer, r *reconciler.Reconciler, l *loader.Loader, relational kpi.Engine, emitter *events.Emitter, logger ectologger.Logger, opts Options) *Pipeline {
	if opts.WindowDays <= 0 {
		opts.WindowDays = kpi.DefaultWindowDays
	}
	if opts.TopLimit <= 0 {
		opts.TopLimit = kpi.DefaultTopLimit
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Pipeline{
		normalizer: n,
		reconciler: r,
		loader:     l,
		relational: relational,
		emitter:    emitter,
		logger:     logger,
		windowDays: opts.WindowDays,
		topLimit:   opts.TopLimit,
		clock:      opts.Clock,
	}
}

// Latest returns the most recent run outcome, or nil before the first run.
func (p *Pipeline) Latest() *Outcome {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Run executes one batch. Row-level problems land in the report; only fatal
// backend failures return an error, and those leave persisted state untouched.
func (p *Pipeline) Run(ctx context.Context, customers []models.RawCustomerRow, orders []models.RawOrderRow) (*Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	now := p.clock().UTC()
	report := &models.RunReport{
		RunID:       uuid.New().String(),
		StartedAt:   now,
		CustomersIn: len(customers),
		OrdersIn:    len(orders),
	}
	log := p.logger.WithContext(ctx).WithFields(map[string]any{"run_id": report.RunID})
	log.WithFields(map[string]any{"customers_in": len(customers), "orders_in": len(orders)}).Info("Starting run")

	normalized := p.normalizer.Normalize(ctx, customers, orders)
	report.CustomersNormalized = len(normalized.Customers)
	report.OrdersNormalized = len(normalized.Orders)
	report.RejectedRows = normalized.Rejected

	reconciled := p.reconciler.Reconcile(ctx, normalized.Customers, normalized.Orders)
	report.OrdersResolved = reconciled.View.OrderCount()
	report.Warnings = reconciled.Warnings

	if p.loader != nil {
		if err := p.loader.Load(ctx, reconciled.View); err != nil {
			return p.fail(ctx, report, err)
		}
	}

	outcome := &Outcome{Report: report}

	memory, err := kpi.Compute(ctx, kpi.NewMemoryEngine(reconciled.View), now, p.windowDays, p.topLimit)
	if err != nil {
		return p.fail(ctx, report, err)
	}
	outcome.Memory = memory

	if p.relational != nil {
		relational, err := kpi.Compute(ctx, p.relational, now, p.windowDays, p.topLimit)
		if err != nil {
			return p.fail(ctx, report, err)
		}
		outcome.Relational = relational

		// The tables accumulate orders across runs; parity against this
		// run's view only holds when the SQL side is restricted to the
		// orders the view resolved.
		parity := relational
		if scoped, ok := p.relational.(kpi.ScopedEngine); ok {
			parity, err = kpi.Compute(ctx, scoped.ScopedTo(reconciled.View.OrderIDs()), now, p.windowDays, p.topLimit)
			if err != nil {
				return p.fail(ctx, report, err)
			}
		}
		report.ParityChecked = true
		report.ParityDiffs = kpi.Diff(memory, parity)
		if len(report.ParityDiffs) > 0 {
			log.WithFields(map[string]any{"diffs": len(report.ParityDiffs)}).Error("KPI backends disagree")
		}
	}

	report.FinishedAt = p.clock().UTC()
	p.mu.Lock()
	p.latest = outcome
	p.mu.Unlock()

	if err := p.emitter.EmitRunCompleted(ctx, report); err != nil {
		// Event emission is best-effort; the run itself has succeeded.
		log.WithError(err).Warn("Run event emission failed")
	}

	log.WithFields(map[string]any{
		"orders_resolved": report.OrdersResolved,
		"rejected":        report.RejectedCount(),
		"warnings":        len(report.Warnings),
		"parity_diffs":    len(report.ParityDiffs),
	}).Info("Run completed")

	return outcome, nil
}

func (p *Pipeline) fail(ctx context.Context, report *models.RunReport, err error) (*Outcome, error) {
	report.FinishedAt = p.clock().UTC()
	p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"run_id": report.RunID}).Error("Run failed")
	if emitErr := p.emitter.EmitRunFailed(ctx, report, err); emitErr != nil {
		p.logger.WithContext(ctx).WithError(emitErr).Warn("Run event emission failed")
	}
	return nil, err
}
