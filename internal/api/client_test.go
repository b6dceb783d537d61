package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/werrors"
)

func TestListScans(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "GET", r.Method)
		require.Equal(t, "/scans", r.URL.Path)
		assert.Equal(t, "running", r.URL.Query().Get("status"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "s1", "status": "running", "targets": "10.0.0.0/24", "scan_profile": "quick"},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	scans, err := c.ListScans(context.Background(), ListOptions{Status: models.StatusRunning, Limit: 10})
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "s1", scans[0].ID)
	assert.Equal(t, models.StatusRunning, scans[0].Status)
	assert.Equal(t, "10.0.0.0/24", scans[0].Target)
}

func TestGetScanNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.GetScan(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, werrors.CodeScanNotFound, werrors.GetCode(err))
}

func TestServerErrorCarriesStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.ListScans(context.Background(), ListOptions{})
	require.Error(t, err)
	assert.Equal(t, werrors.CodeAPIStatus, werrors.GetCode(err))
	assert.Contains(t, err.Error(), "500")
}

func TestUnreachableBackend(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.ListScans(context.Background(), ListOptions{})
	require.Error(t, err)
	assert.Equal(t, werrors.CodeAPIUnavailable, werrors.GetCode(err))
}

func TestCreateScanPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/scans", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "192.168.1.1", req["targets"])
		assert.Equal(t, "vuln_scan", req["scan_profile"])

		json.NewEncoder(w).Encode(map[string]any{
			"id": "s2", "status": "pending", "targets": "192.168.1.1", "scan_profile": "vuln_scan",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	scan, err := c.CreateScan(context.Background(), CreateScanRequest{
		Target:  "192.168.1.1",
		Profile: models.ProfileVulnScan,
	})
	require.NoError(t, err)
	assert.Equal(t, "s2", scan.ID)
	assert.Equal(t, models.StatusPending, scan.Status)
}

func TestCancelScan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/scans/s1/cancel", r.URL.Path)
		w.Write([]byte(`{"message": "cancelled"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	ok, err := c.CancelScan(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/scans/s1/progress", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"scan_id": "s1", "status": "running", "progress": 42,
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	progress, err := c.GetProgress(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 42, progress.Progress)
	assert.Equal(t, models.StatusRunning, progress.Status)
}

func TestGetStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/scans/statistics", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"total_scans": 7, "scans_completed": 5, "total_vulnerabilities": 12,
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)
	stats, err := c.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalScans)
	assert.Equal(t, 12, stats.TotalVulnerabilities)
}

func TestValidateTargets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/scans/validate-targets", r.URL.Path)
		valid := r.URL.Query().Get("targets") == "10.0.0.1"
		json.NewEncoder(w).Encode(map[string]any{
			"target": r.URL.Query().Get("targets"), "is_valid": valid, "message": "bad target",
		})
	}))
	defer server.Close()

	c := NewClient(server.URL)

	result, err := c.ValidateTargets(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	result, err = c.ValidateTargets(context.Background(), "not a host")
	require.Error(t, err)
	assert.Equal(t, werrors.CodeInvalidTarget, werrors.GetCode(err))
	require.NotNil(t, result, "the validation detail rides along with the error")
	assert.False(t, result.IsValid)
}

func TestBearerTokenHeader(t *testing.T) {
	t.Setenv("SCANWATCH_API_TOKEN", "secret-token")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	_, err := c.ListScans(context.Background(), ListOptions{})
	require.NoError(t, err)
}
