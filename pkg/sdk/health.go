package sightline

import (
	"context"
	"net/http"
)

// HealthCheck is one dependency probe result.
type HealthCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthStatus is the aggregate service health.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]HealthCheck `json:"checks"`
}

// Health returns the service health. A degraded service responds with
// HTTP 503; the decoded status is still returned so callers can see
// which dependency failed.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	resp, err := c.send(ctx, http.MethodGet, "/health", nil, "")
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var status HealthStatus
	if decodeErr := decodeJSON(resp, &status); decodeErr != nil {
		return HealthStatus{}, decodeErr
	}
	return status, nil
}
