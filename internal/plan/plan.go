// Package plan reads detector plans from YAML and applies them to the model
// service.
//
// A plan lists metrics by tag set, each with a sample to build thresholds
// from:
//
//	defaults:
//	  strategy: sigma
//	  weak_multiplier: 3
//	  strong_multiplier: 5
//	metrics:
//	  - tags: {role: my-app-web, what: elb_2xx}
//	    sample: [10, 12, 9, 11]
//	    strategy: quartile
package plan

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strings"

	"adaptivealerting/aad/internal/builder"
	"adaptivealerting/aad/internal/domain"

	"gopkg.in/yaml.v3"
)

// Settings are the build parameters a metric may inherit from the plan's
// defaults. Nil multipliers are unset.
type Settings struct {
	Strategy         domain.Strategy `yaml:"strategy,omitempty"`
	WeakMultiplier   *float64        `yaml:"weak_multiplier,omitempty"`
	StrongMultiplier *float64        `yaml:"strong_multiplier,omitempty"`
}

// Metric is one plan entry.
type Metric struct {
	Tags     map[string]string `yaml:"tags"`
	Sample   []float64         `yaml:"sample"`
	Settings `yaml:",inline"`
}

// Plan is a parsed plan file.
type Plan struct {
	Defaults Settings `yaml:"defaults"`
	Metrics  []Metric `yaml:"metrics"`
}

// BuildParams are the fully resolved inputs for builder.Build.
type BuildParams struct {
	Strategy         domain.Strategy
	WeakMultiplier   float64
	StrongMultiplier float64
}

// Load reads and validates the plan at path.
func Load(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a plan. Unknown keys are rejected.
func Parse(r io.Reader) (*Plan, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("plan is empty")
		}
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate reports every problem in the plan at once.
func (p *Plan) Validate() error {
	if len(p.Metrics) == 0 {
		return errors.New("plan has no metrics")
	}

	var errs []error
	if err := p.Defaults.validate(); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}

	seen := make(map[string]int, len(p.Metrics))
	for i, m := range p.Metrics {
		where := fmt.Sprintf("metrics[%d]", i)
		if len(m.Tags) == 0 {
			errs = append(errs, fmt.Errorf("%s: tags are required", where))
		} else {
			key := TagKey(m.Tags)
			if prev, dup := seen[key]; dup {
				errs = append(errs, fmt.Errorf("%s: duplicate of metrics[%d] (%s)", where, prev, key))
			}
			seen[key] = i
		}
		if err := m.Settings.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}

		params := m.Params(p.Defaults)
		switch {
		case len(m.Sample) == 0:
			errs = append(errs, fmt.Errorf("%s: sample is empty", where))
		case params.Strategy == domain.StrategySigma && len(m.Sample) < 2:
			errs = append(errs, fmt.Errorf("%s: sigma strategy needs at least 2 sample values", where))
		}
		if slices.ContainsFunc(m.Sample, notFinite) {
			errs = append(errs, fmt.Errorf("%s: sample contains a non-finite value", where))
		}
	}
	return errors.Join(errs...)
}

func (s Settings) validate() error {
	if s.Strategy != "" && !s.Strategy.Valid() {
		return fmt.Errorf("%w %q", domain.ErrUnknownStrategy, s.Strategy)
	}
	for name, v := range map[string]*float64{
		"weak_multiplier":   s.WeakMultiplier,
		"strong_multiplier": s.StrongMultiplier,
	} {
		if v != nil && (notFinite(*v) || *v <= 0) {
			return fmt.Errorf("%s must be a positive number", name)
		}
	}
	return nil
}

// Params resolves m's build parameters: its own settings, then defaults,
// then the builder's defaults.
func (m Metric) Params(defaults Settings) BuildParams {
	p := BuildParams{
		Strategy:         builder.DefaultStrategy,
		WeakMultiplier:   builder.DefaultWeakMultiplier,
		StrongMultiplier: builder.DefaultStrongMultiplier,
	}
	for _, s := range []Settings{defaults, m.Settings} {
		if s.Strategy != "" {
			p.Strategy = s.Strategy
		}
		if s.WeakMultiplier != nil {
			p.WeakMultiplier = *s.WeakMultiplier
		}
		if s.StrongMultiplier != nil {
			p.StrongMultiplier = *s.StrongMultiplier
		}
	}
	return p
}

// TagKey renders tags as a stable "k=v,k=v" string sorted by key.
func TagKey(tags map[string]string) string {
	keys := slices.Sorted(maps.Keys(tags))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + tags[k]
	}
	return strings.Join(parts, ",")
}

func notFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
