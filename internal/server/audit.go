package server

import (
	"time"
)

// AuditLogEntry is one request/response pair as published to the audit topic.
type AuditLogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Proto      string    `json:"proto"`
	StatusCode int       `json:"status_code"`
	DurationMs int64     `json:"duration_ms"`
	PackageID  string    `json:"package_id,omitempty"`
	Request    string    `json:"request,omitempty"`
	Response   string    `json:"response,omitempty"`
}
