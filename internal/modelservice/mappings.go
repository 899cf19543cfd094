package modelservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"adaptivealerting/aad/internal/domain"

	"go.uber.org/zap"
)

const mappingsPath = "/api/detectorMappings"

// firstSearchIndex is the key of the result group for the first (and only)
// tag set sent to findMatchingByTags.
const firstSearchIndex = "0"

type matchedDetector struct {
	UUID string `json:"uuid"`
}

type matchingByTagsResponse struct {
	GroupedDetectorsBySearchIndex map[string][]matchedDetector `json:"groupedDetectorsBySearchIndex"`
	LookupTimeInMillis            int64                        `json:"lookupTimeInMillis,omitempty"`
}

// ListDetectorsForMetric returns the detectors mapped to the metric with the
// given tags.
//
// A mapping can outlive its detector. When a mapped UUID cannot be resolved
// the failure is logged as a warning and that entry is skipped, so the
// result may be partial. Context cancellation still aborts the listing.
func (c *Client) ListDetectorsForMetric(ctx context.Context, tags map[string]string) ([]domain.Detector, error) {
	var out matchingByTagsResponse
	if err := c.doJSON(ctx, http.MethodPost, mappingsPath+"/findMatchingByTags", nil, []map[string]string{tags}, &out); err != nil {
		return nil, fmt.Errorf("failed to find detectors for metric: %w", err)
	}

	matched := out.GroupedDetectorsBySearchIndex[firstSearchIndex]
	detectors := make([]domain.Detector, 0, len(matched))
	for _, item := range matched {
		d, err := c.GetDetector(ctx, item.UUID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("failed to find detectors for metric: %w", ctxErr)
			}
			c.logger.Warn("metric mapped to detector that could not be resolved",
				zap.String("uuid", item.UUID),
				zap.Any("tags", tags),
				zap.Error(err),
			)
			continue
		}
		detectors = append(detectors, *d)
	}
	return detectors, nil
}

// ListDetectorMappings returns every mapping that points at the detector.
func (c *Client) ListDetectorMappings(ctx context.Context, detectorUUID string) ([]domain.DetectorMapping, error) {
	body := map[string]string{"detectorUuid": detectorUUID}

	var raw []json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, mappingsPath+"/search", nil, body, &raw); err != nil {
		return nil, fmt.Errorf("failed to list mappings for detector %q: %w", detectorUUID, err)
	}

	mappings := make([]domain.DetectorMapping, 0, len(raw))
	for _, item := range raw {
		m, err := domain.UnmarshalModelService(item)
		if err != nil {
			return nil, fmt.Errorf("failed to decode mapping for detector %q: %w", detectorUUID, err)
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// SaveMetricDetectorMapping maps metric to the detector on behalf of the
// acting user.
func (c *Client) SaveMetricDetectorMapping(ctx context.Context, detectorUUID string, metric domain.Metric) error {
	if detectorUUID == "" {
		return errors.New("save mapping: detector uuid is required")
	}
	if len(metric.Tags) == 0 {
		return errors.New("save mapping: metric has no tags")
	}

	mapping := domain.NewMetricDetectorMapping(detectorUUID, metric, c.user)
	payload, err := mapping.MarshalModelService()
	if err != nil {
		return fmt.Errorf("save mapping: failed to encode request: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, mappingsPath, nil, payload); err != nil {
		return fmt.Errorf("failed to save mapping for detector %q: %w", detectorUUID, err)
	}
	return nil
}

// DeleteMetricDetectorMapping deletes a mapping by ID.
func (c *Client) DeleteMetricDetectorMapping(ctx context.Context, mappingID string) error {
	if _, err := c.do(ctx, http.MethodDelete, mappingsPath, url.Values{"id": {mappingID}}, nil); err != nil {
		return fmt.Errorf("failed to delete mapping %q: %w", mappingID, err)
	}
	return nil
}

// DisableMetricDetectorMapping disables a mapping by ID.
func (c *Client) DisableMetricDetectorMapping(ctx context.Context, mappingID string) error {
	if _, err := c.do(ctx, http.MethodPut, mappingsPath+"/disable", url.Values{"id": {mappingID}}, nil); err != nil {
		return fmt.Errorf("failed to disable mapping %q: %w", mappingID, err)
	}
	return nil
}
