package domain

import (
	"encoding/json"
	"maps"
	"slices"
	"time"
)

// Metric identifies a time series by its tag set.
type Metric struct {
	Tags map[string]string `json:"tags" yaml:"tags"`
}

// DetectorMapping links a metric's tag set to a detector. Mappings are
// created and deleted explicitly; deleting a detector does not remove them.
type DetectorMapping struct {
	ID             string            `json:"id,omitempty"`
	DetectorUUID   string            `json:"detector_uuid"`
	Tags           map[string]string `json:"tags"`
	User           string            `json:"user,omitempty"`
	Enabled        bool              `json:"enabled"`
	CreatedAt      time.Time         `json:"created_at,omitzero"`
	LastModifiedAt time.Time         `json:"last_modified_at,omitzero"`
}

// NewMetricDetectorMapping builds the mapping record that associates metric
// with the detector identified by detectorUUID on behalf of user.
func NewMetricDetectorMapping(detectorUUID string, metric Metric, user string) DetectorMapping {
	return DetectorMapping{
		DetectorUUID: detectorUUID,
		Tags:         maps.Clone(metric.Tags),
		User:         user,
		Enabled:      true,
	}
}

// Expression operator used for tag matching.
const OperatorAnd = "AND"

type mappingField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type mappingOperand struct {
	Field mappingField `json:"field"`
}

type mappingExpression struct {
	Operator string           `json:"operator"`
	Operands []mappingOperand `json:"operands"`
}

type mappingRef struct {
	UUID string `json:"uuid,omitempty"`
	ID   string `json:"id,omitempty"`
}

type mappingJSON struct {
	ID                       string            `json:"id,omitempty"`
	Detector                 mappingRef        `json:"detector"`
	Expression               mappingExpression `json:"expression"`
	User                     *mappingRef       `json:"user,omitempty"`
	Enabled                  bool              `json:"enabled"`
	CreatedTimeInMillis      int64             `json:"createdTimeInMillis,omitempty"`
	LastModifiedTimeInMillis int64             `json:"lastModifiedTimeInMillis,omitempty"`
}

// MarshalModelService encodes the mapping as the model service expects it.
// Expression operands are sorted by tag key so identical tag sets produce
// identical bodies.
func (m DetectorMapping) MarshalModelService() ([]byte, error) {
	out := mappingJSON{
		ID:       m.ID,
		Detector: mappingRef{UUID: m.DetectorUUID},
		Expression: mappingExpression{
			Operator: OperatorAnd,
			Operands: make([]mappingOperand, 0, len(m.Tags)),
		},
		Enabled: m.Enabled,
	}
	for _, k := range slices.Sorted(maps.Keys(m.Tags)) {
		out.Expression.Operands = append(out.Expression.Operands, mappingOperand{
			Field: mappingField{Key: k, Value: m.Tags[k]},
		})
	}
	if m.User != "" {
		out.User = &mappingRef{ID: m.User}
	}
	if !m.CreatedAt.IsZero() {
		out.CreatedTimeInMillis = m.CreatedAt.UnixMilli()
	}
	if !m.LastModifiedAt.IsZero() {
		out.LastModifiedTimeInMillis = m.LastModifiedAt.UnixMilli()
	}
	return json.Marshal(out)
}

// UnmarshalModelService decodes a mapping returned by the model service.
func UnmarshalModelService(data []byte) (DetectorMapping, error) {
	var in mappingJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return DetectorMapping{}, err
	}

	m := DetectorMapping{
		ID:           in.ID,
		DetectorUUID: in.Detector.UUID,
		Tags:         make(map[string]string, len(in.Expression.Operands)),
		Enabled:      in.Enabled,
	}
	for _, op := range in.Expression.Operands {
		m.Tags[op.Field.Key] = op.Field.Value
	}
	if in.User != nil {
		m.User = in.User.ID
	}
	if in.CreatedTimeInMillis > 0 {
		m.CreatedAt = time.UnixMilli(in.CreatedTimeInMillis).UTC()
	}
	if in.LastModifiedTimeInMillis > 0 {
		m.LastModifiedAt = time.UnixMilli(in.LastModifiedTimeInMillis).UTC()
	}
	return m, nil
}
