// Package api implements the client for the remote scan backend. The backend
// executes scans; this client only observes and steers them over REST.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/werrors"
)

const defaultBaseURL = "http://localhost:8000/api/v1"

// Client handles communication with the scan backend API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the given base URL. An empty baseURL falls
// back to SCANWATCH_API_URL, then the default local backend.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("SCANWATCH_API_URL")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// doRequest performs an HTTP request and returns the response body.
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body []byte
	var err error

	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, werrors.Wrap(err, werrors.CodeInternal, "failed to marshal payload")
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, werrors.Wrap(err, werrors.CodeInternal, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")

	if token := os.Getenv("SCANWATCH_API_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, werrors.Wrap(err, werrors.CodeAPIUnavailable, "request failed")
	}
	defer resp.Body.Close()

	var respBody bytes.Buffer
	if _, err := respBody.ReadFrom(resp.Body); err != nil {
		return nil, werrors.Wrap(err, werrors.CodeAPIUnavailable, "failed to read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, werrors.Newf(werrors.CodeScanNotFound, "%s: not found", path)
	}
	if resp.StatusCode >= 400 {
		return nil, werrors.Newf(werrors.CodeAPIStatus, "API error: %s (status %d): %s",
			path, resp.StatusCode, respBody.String())
	}

	return respBody.Bytes(), nil
}

// ListOptions filters and pages the scan list.
type ListOptions struct {
	Status models.ScanStatus
	Skip   int
	Limit  int
}

func (o ListOptions) query() string {
	values := url.Values{}
	if o.Status != "" {
		values.Set("status", string(o.Status))
	}
	if o.Skip > 0 {
		values.Set("skip", strconv.Itoa(o.Skip))
	}
	if o.Limit > 0 {
		values.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// ListScans fetches the current scan list.
func (c *Client) ListScans(ctx context.Context, opts ListOptions) ([]models.Scan, error) {
	resp, err := c.doRequest(ctx, "GET", "/scans"+opts.query(), nil)
	if err != nil {
		return nil, err
	}

	var scans []models.Scan
	if err := json.Unmarshal(resp, &scans); err != nil {
		return nil, werrors.Wrap(err, werrors.CodeAPIStatus, "failed to parse scan list")
	}

	return scans, nil
}

// GetScan fetches a single scan by id.
func (c *Client) GetScan(ctx context.Context, id string) (*models.Scan, error) {
	resp, err := c.doRequest(ctx, "GET", "/scans/"+id, nil)
	if err != nil {
		return nil, err
	}

	var scan models.Scan
	if err := json.Unmarshal(resp, &scan); err != nil {
		return nil, werrors.Wrap(err, werrors.CodeAPIStatus, "failed to parse scan")
	}

	return &scan, nil
}

// GetProgress fetches the detail-poll payload for a scan, including the
// progress percentage while the scan is still active.
func (c *Client) GetProgress(ctx context.Context, id string) (*models.ScanProgress, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/scans/%s/progress", id), nil)
	if err != nil {
		return nil, err
	}

	var progress models.ScanProgress
	if err := json.Unmarshal(resp, &progress); err != nil {
		return nil, werrors.Wrap(err, werrors.CodeAPIStatus, "failed to parse progress")
	}

	return &progress, nil
}

// CreateScanRequest is the submission payload for a new scan.
type CreateScanRequest struct {
	Target        string             `json:"targets"`
	Profile       models.ScanProfile `json:"scan_profile"`
	CustomOptions string             `json:"custom_options,omitempty"`
}

// CreateScan submits a new scan. The backend returns it in pending state.
func (c *Client) CreateScan(ctx context.Context, req CreateScanRequest) (*models.Scan, error) {
	resp, err := c.doRequest(ctx, "POST", "/scans", req)
	if err != nil {
		return nil, err
	}

	var scan models.Scan
	if err := json.Unmarshal(resp, &scan); err != nil {
		return nil, werrors.Wrap(err, werrors.CodeAPIStatus, "failed to parse created scan")
	}

	return &scan, nil
}

// CancelScan requests cancellation of a running scan.
func (c *Client) CancelScan(ctx context.Context, id string) (bool, error) {
	_, err := c.doRequest(ctx, "POST", fmt.Sprintf("/scans/%s/cancel", id), nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteScan deletes a scan and all of its data.
func (c *Client) DeleteScan(ctx context.Context, id string) (bool, error) {
	_, err := c.doRequest(ctx, "DELETE", "/scans/"+id, nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetStats fetches the aggregate scan statistics.
func (c *Client) GetStats(ctx context.Context) (*models.ScanStats, error) {
	resp, err := c.doRequest(ctx, "GET", "/scans/statistics", nil)
	if err != nil {
		return nil, err
	}

	var stats models.ScanStats
	if err := json.Unmarshal(resp, &stats); err != nil {
		return nil, werrors.Wrap(err, werrors.CodeAPIStatus, "failed to parse statistics")
	}

	return &stats, nil
}

// TargetValidation is the result of pre-flight target validation.
type TargetValidation struct {
	Target      string   `json:"target"`
	IsValid     bool     `json:"is_valid"`
	Message     string   `json:"message"`
	ResolvedIPs []string `json:"resolved_ips"`
	Warnings    []string `json:"warnings"`
}

// ValidateTargets checks a target specification before scan creation.
func (c *Client) ValidateTargets(ctx context.Context, targets string) (*TargetValidation, error) {
	path := "/scans/validate-targets?" + url.Values{"targets": {targets}}.Encode()
	resp, err := c.doRequest(ctx, "POST", path, nil)
	if err != nil {
		return nil, err
	}

	var result TargetValidation
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, werrors.Wrap(err, werrors.CodeAPIStatus, "failed to parse validation result")
	}

	if !result.IsValid {
		return &result, werrors.Newf(werrors.CodeInvalidTarget, "invalid target %q: %s", targets, result.Message)
	}

	return &result, nil
}
