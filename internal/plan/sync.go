package plan

import (
	"context"
	"fmt"
	"time"

	"adaptivealerting/aad/internal/builder"
	"adaptivealerting/aad/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many metrics are synced at once.
const DefaultConcurrency = 4

// Action is what Sync did for a metric.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionPlanned Action = "planned"
	ActionFailed  Action = "failed"
)

// Result is the outcome for one plan metric.
type Result struct {
	Tags     map[string]string
	Action   Action
	UUID     string
	Detector *domain.Detector
	Duration time.Duration
	Err      error
}

// DetectorService is the part of the model-service client Sync needs.
type DetectorService interface {
	ListDetectorsForMetric(ctx context.Context, tags map[string]string) ([]domain.Detector, error)
	CreateMetricDetector(ctx context.Context, d *domain.Detector, metric domain.Metric) (*domain.Detector, error)
	UpdateDetector(ctx context.Context, d *domain.Detector) (*domain.Detector, error)
}

// Syncer applies plans. A nil Service is allowed only in dry-run mode.
type Syncer struct {
	Service     DetectorService
	Builder     *builder.Builder
	Logger      *zap.Logger
	Concurrency int
	DryRun      bool
}

// Sync builds a detector for every metric in p and creates or updates it.
//
// A metric with no mapped detector gets a new one mapped to its tags. A
// metric that already has a constant-threshold detector gets that
// detector's thresholds replaced. Failures are recorded per metric and do
// not stop the others. Results are returned in plan order. The error is
// non-nil only when ctx ends before every metric was attempted.
func (s *Syncer) Sync(ctx context.Context, p *Plan) ([]Result, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("plan")

	b := s.Builder
	if b == nil {
		b = builder.New(logger)
	}
	if s.Service == nil && !s.DryRun {
		return nil, fmt.Errorf("plan sync: no model service client")
	}

	limit := s.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]Result, len(p.Metrics))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, m := range p.Metrics {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			start := time.Now()
			results[i] = s.syncMetric(ctx, b, m, m.Params(p.Defaults))
			results[i].Duration = time.Since(start)

			r := results[i]
			fields := []zap.Field{
				zap.String("tags", TagKey(m.Tags)),
				zap.String("action", string(r.Action)),
				zap.String("uuid", r.UUID),
				zap.Duration("duration", r.Duration),
			}
			if r.Err != nil {
				logger.Warn("metric sync failed", append(fields, zap.Error(r.Err))...)
			} else {
				logger.Debug("metric synced", fields...)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for i := range results {
			if results[i].Action == "" {
				results[i] = Result{Tags: p.Metrics[i].Tags, Action: ActionFailed, Err: err}
			}
		}
		return results, fmt.Errorf("plan sync interrupted: %w", err)
	}
	return results, nil
}

func (s *Syncer) syncMetric(ctx context.Context, b *builder.Builder, m Metric, params BuildParams) Result {
	res := Result{Tags: m.Tags, Action: ActionFailed}

	built, err := b.Build(params.Strategy, m.Sample, params.WeakMultiplier, params.StrongMultiplier)
	if err != nil {
		res.Err = fmt.Errorf("build: %w", err)
		return res
	}
	res.Detector = built

	if s.DryRun {
		res.Action = ActionPlanned
		return res
	}

	existing, err := s.Service.ListDetectorsForMetric(ctx, m.Tags)
	if err != nil {
		res.Err = err
		return res
	}

	if target := firstConstantThreshold(existing); target != nil {
		target.Config = built.Config
		updated, err := s.Service.UpdateDetector(ctx, target)
		res.UUID = target.UUID
		if err != nil {
			res.Err = err
			return res
		}
		res.Action, res.Detector = ActionUpdated, updated
		return res
	}

	created, err := s.Service.CreateMetricDetector(ctx, built, domain.Metric{Tags: m.Tags})
	if created != nil {
		res.UUID, res.Detector = created.UUID, created
	}
	if err != nil {
		res.Err = err
		return res
	}
	res.Action = ActionCreated
	return res
}

func firstConstantThreshold(detectors []domain.Detector) *domain.Detector {
	for i := range detectors {
		if detectors[i].Type == domain.TypeConstantThreshold {
			d := detectors[i]
			return &d
		}
	}
	return nil
}

// Summary counts results by action.
func Summary(results []Result) map[Action]int {
	counts := make(map[Action]int, 4)
	for _, r := range results {
		counts[r.Action]++
	}
	return counts
}
