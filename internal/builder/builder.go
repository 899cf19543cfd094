// Package builder turns a metric sample into a constant-threshold detector.
package builder

import (
	"fmt"

	"adaptivealerting/aad/internal/domain"
	"adaptivealerting/aad/internal/threshold"

	"go.uber.org/zap"
)

// Multipliers used when the caller does not choose any.
const (
	DefaultStrategy         = domain.StrategySigma
	DefaultWeakMultiplier   = 3.0
	DefaultStrongMultiplier = 5.0
)

// statistics is the subset of the threshold package the builder depends on.
type statistics interface {
	Mean(sample []float64) float64
	SampleStdDev(sample []float64) (float64, error)
	Quartiles(sample []float64) (q1, median, q3 float64)
}

type thresholdStats struct{}

func (thresholdStats) Mean(s []float64) float64 { return threshold.Mean(s) }

func (thresholdStats) SampleStdDev(s []float64) (float64, error) { return threshold.SampleStdDev(s) }

func (thresholdStats) Quartiles(s []float64) (float64, float64, float64) {
	return threshold.Quartiles(s)
}

// Builder creates constant-threshold detectors from samples.
type Builder struct {
	logger *zap.Logger
	stats  statistics
}

// New returns a Builder that logs created configurations to logger.
// A nil logger disables logging.
func New(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger.Named("builder"), stats: thresholdStats{}}
}

// Build computes weak and strong thresholds for sample using strategy and
// returns an enabled, not-yet-created detector carrying them.
//
// The strategy is checked before any computation; an unsupported value
// fails with domain.ErrUnknownStrategy.
func (b *Builder) Build(strategy domain.Strategy, sample []float64, weakMultiplier, strongMultiplier float64) (*domain.Detector, error) {
	thresholds, err := b.Thresholds(strategy, sample, weakMultiplier, strongMultiplier)
	if err != nil {
		return nil, err
	}

	cfg := &domain.ConstantThresholdConfig{
		Hyperparams: domain.ConstantThresholdHyperparams{
			Strategy:         strategy,
			WeakMultiplier:   weakMultiplier,
			StrongMultiplier: strongMultiplier,
		},
		Params: domain.ConstantThresholdParams{
			Type:       domain.TailTwoTailed,
			Thresholds: thresholds,
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("build %s detector: %w", strategy, err)
	}

	b.logger.Info("detector created",
		zap.String("strategy", string(strategy)),
		zap.Int("sample_size", len(sample)),
		zap.Float64("weak_upper", thresholds.WeakUpper),
		zap.Float64("weak_lower", thresholds.WeakLower),
		zap.Float64("strong_upper", thresholds.StrongUpper),
		zap.Float64("strong_lower", thresholds.StrongLower),
	)

	return &domain.Detector{
		Type:    domain.TypeConstantThreshold,
		Config:  cfg,
		Enabled: true,
	}, nil
}

// Thresholds computes the four bounds for sample without building a detector.
func (b *Builder) Thresholds(strategy domain.Strategy, sample []float64, weakMultiplier, strongMultiplier float64) (domain.ThresholdSet, error) {
	if !strategy.Valid() {
		return domain.ThresholdSet{}, fmt.Errorf("%w %q", domain.ErrUnknownStrategy, strategy)
	}
	if len(sample) == 0 {
		return domain.ThresholdSet{}, fmt.Errorf("%w: sample is empty", domain.ErrInsufficientData)
	}

	switch strategy {
	case domain.StrategySigma:
		return b.sigma(sample, weakMultiplier, strongMultiplier)
	default:
		return b.quartile(sample, weakMultiplier, strongMultiplier), nil
	}
}

func (b *Builder) sigma(sample []float64, weakMultiplier, strongMultiplier float64) (domain.ThresholdSet, error) {
	sigma, err := b.stats.SampleStdDev(sample)
	if err != nil {
		return domain.ThresholdSet{}, fmt.Errorf("sigma strategy: %w", err)
	}
	mean := b.stats.Mean(sample)

	var t domain.ThresholdSet
	t.WeakUpper, t.WeakLower = threshold.SigmaThresholds(sigma, mean, weakMultiplier)
	t.StrongUpper, t.StrongLower = threshold.SigmaThresholds(sigma, mean, strongMultiplier)
	return t, nil
}

func (b *Builder) quartile(sample []float64, weakMultiplier, strongMultiplier float64) domain.ThresholdSet {
	q1, _, q3 := b.stats.Quartiles(sample)

	var t domain.ThresholdSet
	t.WeakUpper, t.WeakLower = threshold.QuartileThresholds(q1, q3, weakMultiplier)
	t.StrongUpper, t.StrongLower = threshold.QuartileThresholds(q1, q3, strongMultiplier)
	return t
}
