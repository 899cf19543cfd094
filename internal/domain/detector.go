package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// DetectorType is the model-service type tag of a detector.
type DetectorType string

// TypeConstantThreshold is the only detector type this tool builds.
const TypeConstantThreshold DetectorType = "constant-detector"

// Tail types accepted in constant-threshold params.
const (
	TailTwoTailed   = "TWO_TAILED"
	TailLeftTailed  = "LEFT_TAILED"
	TailRightTailed = "RIGHT_TAILED"
)

// Config is a detector configuration variant. The set of variants is closed:
// every implementation lives in this package. Types listed in configDecoders
// decode to their own variant; any other type decodes to *RawConfig.
type Config interface {
	DetectorType() DetectorType
	Validate() error
	isConfig()
}

// ThresholdSet holds the four bounds of a constant-threshold detector.
//
// No ordering between the weak and strong bounds is enforced. With the usual
// choice strongMultiplier > weakMultiplier the strong bounds are wider, but
// picking multipliers that keep that ordering is up to the caller.
type ThresholdSet struct {
	WeakUpper   float64 `json:"upperWeak"`
	WeakLower   float64 `json:"lowerWeak"`
	StrongUpper float64 `json:"upperStrong"`
	StrongLower float64 `json:"lowerStrong"`
}

// ConstantThresholdHyperparams records how the thresholds were derived.
type ConstantThresholdHyperparams struct {
	Strategy         Strategy `json:"strategy,omitempty"`
	WeakMultiplier   float64  `json:"weak_multiplier,omitempty"`
	StrongMultiplier float64  `json:"strong_multiplier,omitempty"`
}

// ConstantThresholdParams are the runtime parameters the service evaluates.
type ConstantThresholdParams struct {
	Type       string       `json:"type"`
	Thresholds ThresholdSet `json:"thresholds"`
}

// ConstantThresholdConfig is the detectorConfig block of a constant-detector.
type ConstantThresholdConfig struct {
	Hyperparams ConstantThresholdHyperparams `json:"hyperparams"`
	Params      ConstantThresholdParams      `json:"params"`
}

func (*ConstantThresholdConfig) isConfig() {}

// DetectorType implements Config.
func (*ConstantThresholdConfig) DetectorType() DetectorType { return TypeConstantThreshold }

// Validate implements Config.
func (c *ConstantThresholdConfig) Validate() error {
	if c.Hyperparams.Strategy != "" && !c.Hyperparams.Strategy.Valid() {
		return fmt.Errorf("%w %q", ErrUnknownStrategy, c.Hyperparams.Strategy)
	}
	switch c.Params.Type {
	case "", TailTwoTailed, TailLeftTailed, TailRightTailed:
	default:
		return fmt.Errorf("constant-detector: unsupported params type %q", c.Params.Type)
	}
	t := c.Params.Thresholds
	for name, v := range map[string]float64{
		"upperWeak":   t.WeakUpper,
		"lowerWeak":   t.WeakLower,
		"upperStrong": t.StrongUpper,
		"lowerStrong": t.StrongLower,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("constant-detector: threshold %s is not finite", name)
		}
	}
	return nil
}

// configDecoders maps each type tag to the decoder for its config variant.
var configDecoders = map[DetectorType]func(raw json.RawMessage) (Config, error){
	TypeConstantThreshold: func(raw json.RawMessage) (Config, error) {
		var cfg ConstantThresholdConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("constant-detector: invalid detectorConfig: %w", err)
		}
		return &cfg, nil
	},
}

// DecodeConfig decodes and validates the detectorConfig of a detector of type t.
func DecodeConfig(t DetectorType, raw json.RawMessage) (Config, error) {
	decode, ok := configDecoders[t]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDetectorType, t)
	}
	cfg, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RawConfig is the detectorConfig of a detector type this tool does not
// build, such as ewma-detector. It is kept verbatim so the detector can be
// shown, listed and written back unchanged.
type RawConfig struct {
	Type DetectorType
	Raw  json.RawMessage
}

func (*RawConfig) isConfig() {}

// DetectorType implements Config.
func (c *RawConfig) DetectorType() DetectorType { return c.Type }

// Validate implements Config. Only well-formedness is checked.
func (c *RawConfig) Validate() error {
	if len(c.Raw) > 0 && !json.Valid(c.Raw) {
		return fmt.Errorf("%s: detectorConfig is not valid JSON", c.Type)
	}
	return nil
}

// MarshalJSON writes the config back exactly as it was read.
func (c *RawConfig) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 {
		return []byte("null"), nil
	}
	return c.Raw, nil
}

// Meta is the audit block maintained by the model service.
type Meta struct {
	CreatedBy        string `json:"createdBy,omitempty"`
	DateCreated      string `json:"dateCreated,omitempty"`
	DateLastUpdated  string `json:"dateLastUpdated,omitempty"`
	DateLastAccessed string `json:"dateLastAccessed,omitempty"`
}

// Detector is a detector resource owned by the model service. UUID is
// empty until the service has created it.
type Detector struct {
	UUID    string
	Type    DetectorType
	Config  Config
	Enabled bool
	Trusted bool

	// CreatedBy is the acting user, stamped by the client on create.
	CreatedBy string

	// Server-managed fields. They round-trip on reads and are never sent
	// on update.
	TrainingInterval    json.RawMessage
	LastUpdateTimestamp string
	Meta                *Meta
}

type detectorJSON struct {
	UUID                string          `json:"uuid,omitempty"`
	Type                DetectorType    `json:"type"`
	DetectorConfig      json.RawMessage `json:"detectorConfig,omitempty"`
	Enabled             bool            `json:"enabled"`
	Trusted             bool            `json:"trusted"`
	CreatedBy           string          `json:"createdBy,omitempty"`
	TrainingInterval    json.RawMessage `json:"training_interval,omitempty"`
	LastUpdateTimestamp string          `json:"lastUpdateTimestamp,omitempty"`
	Meta                *Meta           `json:"meta,omitempty"`
}

// MarshalJSON encodes the detector in the model-service wire format.
func (d Detector) MarshalJSON() ([]byte, error) {
	out := detectorJSON{
		UUID:                d.UUID,
		Type:                d.Type,
		Enabled:             d.Enabled,
		Trusted:             d.Trusted,
		CreatedBy:           d.CreatedBy,
		TrainingInterval:    d.TrainingInterval,
		LastUpdateTimestamp: d.LastUpdateTimestamp,
		Meta:                d.Meta,
	}
	if d.Config != nil {
		if out.Type == "" {
			out.Type = d.Config.DetectorType()
		}
		raw, err := json.Marshal(d.Config)
		if err != nil {
			return nil, err
		}
		out.DetectorConfig = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the wire format, resolving detectorConfig through
// the decoder registered for the detector's type. Configs of unregistered
// types are kept as *RawConfig.
func (d *Detector) UnmarshalJSON(data []byte) error {
	var in detectorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	var cfg Config
	if raw := bytes.TrimSpace(in.DetectorConfig); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if _, known := configDecoders[in.Type]; !known {
			cfg = &RawConfig{Type: in.Type, Raw: append(json.RawMessage(nil), raw...)}
		} else {
			var err error
			cfg, err = DecodeConfig(in.Type, raw)
			if err != nil {
				return fmt.Errorf("detector %q: %w", in.UUID, err)
			}
		}
	}

	*d = Detector{
		UUID:                in.UUID,
		Type:                in.Type,
		Config:              cfg,
		Enabled:             in.Enabled,
		Trusted:             in.Trusted,
		CreatedBy:           in.CreatedBy,
		TrainingInterval:    in.TrainingInterval,
		LastUpdateTimestamp: in.LastUpdateTimestamp,
		Meta:                in.Meta,
	}
	return nil
}

// ConstantThreshold returns the detector's constant-threshold config, if that
// is the variant it carries.
func (d *Detector) ConstantThreshold() (*ConstantThresholdConfig, bool) {
	cfg, ok := d.Config.(*ConstantThresholdConfig)
	return cfg, ok
}
