package models

import "time"

// ScanStatus is the lifecycle state reported by the scan backend.
type ScanStatus string

const (
	StatusPending   ScanStatus = "pending"
	StatusRunning   ScanStatus = "running"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
	StatusCancelled ScanStatus = "cancelled"
)

// IsTerminal reports whether no further status change is possible.
func (s ScanStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the backend is still working on the scan.
func (s ScanStatus) IsActive() bool {
	return s == StatusPending || s == StatusRunning
}

// ParseScanStatus validates a raw status string from the backend.
func ParseScanStatus(raw string) (ScanStatus, bool) {
	switch ScanStatus(raw) {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return ScanStatus(raw), true
	}
	return "", false
}

// ScanProfile selects which scan template the backend executes.
type ScanProfile string

const (
	ProfileQuick            ScanProfile = "quick"
	ProfileFull             ScanProfile = "full"
	ProfileServiceDetection ScanProfile = "service_detection"
	ProfileVulnScan         ScanProfile = "vuln_scan"
	ProfileUDPScan          ScanProfile = "udp_scan"
)

// Scan is the client-side view of a backend scan job. Target, Profile and
// CreatedAt never change after creation; Status only moves forward along
// pending -> running -> {completed, failed, cancelled}.
type Scan struct {
	ID        string      `json:"id"`
	Status    ScanStatus  `json:"status"`
	Target    string      `json:"targets"`
	Profile   ScanProfile `json:"scan_profile"`
	CreatedAt time.Time   `json:"created_at"`

	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`

	// Present only once the scan reaches completed. Supplied by the backend,
	// never derived locally.
	FindingsCount *int     `json:"vulnerabilities_found,omitempty"`
	RiskScore     *float64 `json:"risk_score,omitempty"`

	HostsUp      int    `json:"hosts_up"`
	OpenPorts    int    `json:"open_ports"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ScanProgress is the detail-poll payload for a single scan.
type ScanProgress struct {
	ScanID    string     `json:"scan_id"`
	Status    ScanStatus `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// ScanStats is the read-only aggregate counts endpoint payload.
type ScanStats struct {
	TotalScans           int        `json:"total_scans"`
	ScansCompleted       int        `json:"scans_completed"`
	ScansFailed          int        `json:"scans_failed"`
	ScansRunning         int        `json:"scans_running"`
	TotalVulnerabilities int        `json:"total_vulnerabilities"`
	AverageRiskScore     float64    `json:"average_risk_score"`
	LastScanDate         *time.Time `json:"last_scan_date,omitempty"`
}
