package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"captiond/internal/server"
)

type apiClient struct {
	baseURL string
	httpc   *http.Client
}

func newAPIClient(addr string) *apiClient {
	addr = strings.TrimSpace(addr)
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &apiClient{
		baseURL: strings.TrimRight(addr, "/"),
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("contact daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr server.ErrorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%s)", apiErr.Error, apiErr.Code)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) Health(ctx context.Context) (server.HealthResponse, error) {
	var out server.HealthResponse
	err := c.getJSON(ctx, "/api/health", &out)
	return out, err
}

func (c *apiClient) Active(ctx context.Context) (server.ActiveResponse, error) {
	var out server.ActiveResponse
	err := c.getJSON(ctx, "/api/subtitles/active", &out)
	return out, err
}

func (c *apiClient) JobStatus(ctx context.Context, jobID string) (server.StatusResponse, error) {
	var out server.StatusResponse
	err := c.getJSON(ctx, "/api/subtitles/status/"+jobID, &out)
	return out, err
}
