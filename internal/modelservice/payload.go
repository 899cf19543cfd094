package modelservice

import (
	"bytes"
	"encoding/json"

	"adaptivealerting/aad/internal/domain"
)

// serverManagedFields are never sent on update: the service owns them and a
// stale client copy must not overwrite them.
var serverManagedFields = []string{
	"training_interval",
	"lastUpdateTimestamp",
	"createdBy",
	"meta",
}

// createPayload encodes d with every empty value (null, "", {}, [])
// removed at any depth.
func createPayload(d domain.Detector) ([]byte, error) {
	m, err := toMap(d)
	if err != nil {
		return nil, err
	}
	pruned, _ := suppressEmpty(m)
	if pruned == nil {
		pruned = map[string]any{}
	}
	return json.Marshal(pruned)
}

// updatePayload encodes d without the server-managed fields.
func updatePayload(d domain.Detector) ([]byte, error) {
	m, err := toMap(d)
	if err != nil {
		return nil, err
	}
	for _, key := range serverManagedFields {
		delete(m, key)
	}
	return json.Marshal(m)
}

// toMap round-trips v through JSON into a generic map. Numbers are kept as
// json.Number so thresholds are re-encoded exactly.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// suppressEmpty returns v with empty values removed and reports whether v
// itself is non-empty. Booleans and numbers are always kept, so
// "enabled": false survives.
func suppressEmpty(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		return t, t != ""
	case map[string]any:
		for k, child := range t {
			pruned, keep := suppressEmpty(child)
			if !keep {
				delete(t, k)
				continue
			}
			t[k] = pruned
		}
		return t, len(t) > 0
	case []any:
		return t, len(t) > 0
	default:
		return t, true
	}
}
