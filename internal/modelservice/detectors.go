package modelservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"adaptivealerting/aad/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const detectorsPath = "/api/v2/detectors"

// GetDetector fetches a detector by UUID. Any non-2xx answer (and an empty
// 2xx body) is reported as domain.ErrDetectorNotFound.
func (c *Client) GetDetector(ctx context.Context, detectorUUID string) (*domain.Detector, error) {
	data, err := c.do(ctx, http.MethodGet, detectorsPath+"/findByUuid", url.Values{"uuid": {detectorUUID}}, nil)
	if err != nil {
		var terr *domain.TransportError
		if errors.As(err, &terr) && terr.StatusCode != 0 {
			return nil, fmt.Errorf("detector %q: %w: %w", detectorUUID, domain.ErrDetectorNotFound, err)
		}
		return nil, fmt.Errorf("failed to get detector %q: %w", detectorUUID, err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("detector %q: %w", detectorUUID, domain.ErrDetectorNotFound)
	}

	var d domain.Detector
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode detector %q: %w", detectorUUID, err)
	}
	return &d, nil
}

// CreateDetector creates d on behalf of the acting user and waits until the
// service can read it back. The returned detector is the service's copy.
//
// The service answers the POST with the new UUID before the detector is
// readable, so CreateDetector polls GetDetector once per poll interval until
// it succeeds or the create timeout elapses, in which case the error is a
// *domain.CreateTimeoutError naming the UUID.
func (c *Client) CreateDetector(ctx context.Context, d *domain.Detector) (*domain.Detector, error) {
	if d == nil {
		return nil, errors.New("create detector: detector is nil")
	}
	if d.UUID != "" {
		return nil, fmt.Errorf("create detector: detector already has uuid %q", d.UUID)
	}

	req := *d
	req.CreatedBy = c.user
	payload, err := createPayload(req)
	if err != nil {
		return nil, fmt.Errorf("create detector: failed to encode request: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, detectorsPath, nil, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	detectorUUID, err := parseCreatedUUID(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	c.logger.Info("detector accepted, waiting for it to become readable",
		zap.String("uuid", detectorUUID),
		zap.String("created_by", c.user),
	)
	return c.waitForDetector(ctx, detectorUUID)
}

// parseCreatedUUID reads the plain-text UUID the create endpoint returns.
// A JSON-quoted string is accepted as well.
func parseCreatedUUID(body []byte) (string, error) {
	raw := strings.TrimSpace(string(body))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("model service returned invalid detector uuid %q: %w", raw, err)
	}
	return id.String(), nil
}

// UpdateDetector replaces the detector's definition and returns the
// service's refreshed copy. Server-managed fields (training interval, last
// update timestamp, createdBy, meta) are never sent.
func (c *Client) UpdateDetector(ctx context.Context, d *domain.Detector) (*domain.Detector, error) {
	if d == nil || d.UUID == "" {
		return nil, errors.New("update detector: uuid is required")
	}

	payload, err := updatePayload(*d)
	if err != nil {
		return nil, fmt.Errorf("update detector %q: failed to encode request: %w", d.UUID, err)
	}

	if _, err := c.do(ctx, http.MethodPut, detectorsPath, url.Values{"uuid": {d.UUID}}, payload); err != nil {
		return nil, fmt.Errorf("failed to update detector %q: %w", d.UUID, err)
	}

	return c.GetDetector(ctx, d.UUID)
}

// EnableDetector turns the detector on. The service exposes this as a GET,
// but it is a mutation and is sent exactly once.
func (c *Client) EnableDetector(ctx context.Context, detectorUUID string) error {
	if _, err := c.send(ctx, http.MethodGet, detectorsPath+"/toggleDetector", toggleQuery(detectorUUID, true), nil); err != nil {
		return fmt.Errorf("failed to enable detector %q: %w", detectorUUID, err)
	}
	return nil
}

// DisableDetector turns the detector off.
func (c *Client) DisableDetector(ctx context.Context, detectorUUID string) error {
	if _, err := c.do(ctx, http.MethodPost, detectorsPath+"/toggleDetector", toggleQuery(detectorUUID, false), []byte("{}")); err != nil {
		return fmt.Errorf("failed to disable detector %q: %w", detectorUUID, err)
	}
	return nil
}

func toggleQuery(detectorUUID string, enabled bool) url.Values {
	return url.Values{
		"enabled": {strconv.FormatBool(enabled)},
		"uuid":    {detectorUUID},
	}
}

// DeleteDetector deletes the detector. Its mappings are left in place;
// remove them with DeleteMetricDetectorMapping.
func (c *Client) DeleteDetector(ctx context.Context, detectorUUID string) error {
	if _, err := c.do(ctx, http.MethodDelete, detectorsPath, url.Values{"uuid": {detectorUUID}}, nil); err != nil {
		return fmt.Errorf("failed to delete detector %q: %w", detectorUUID, err)
	}
	return nil
}

// CreateMetricDetector creates d and maps it to metric.
//
// There is no rollback: if the mapping cannot be saved the detector stays
// created and unmapped. In that case the created detector is returned
// together with the error so the caller can clean it up.
func (c *Client) CreateMetricDetector(ctx context.Context, d *domain.Detector, metric domain.Metric) (*domain.Detector, error) {
	created, err := c.CreateDetector(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := c.SaveMetricDetectorMapping(ctx, created.UUID, metric); err != nil {
		c.logger.Warn("detector created but mapping failed; detector is unmapped",
			zap.String("uuid", created.UUID),
			zap.Error(err),
		)
		return created, fmt.Errorf("detector %q created but not mapped: %w", created.UUID, err)
	}
	return created, nil
}
