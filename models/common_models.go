package models

import "time"

// Response status constants
const (
	StatusHealthy = "healthy"
	StatusError   = "error"
)

// ErrorResponse is the body returned for every non-2xx response.
// Detail is either a string or a list of ValidationIssue.
type ErrorResponse struct {
	Detail interface{} `json:"detail"`
}

// ValidationIssue describes a single rejected field in a request body
type ValidationIssue struct {
	Loc  []string `json:"loc"`  // e.g. ["body", "user_input"]
	Msg  string   `json:"msg"`
	Type string   `json:"type"` // e.g. "missing", "string_type", "json_invalid"
}

// HealthResponse represents the health endpoint response
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Endpoints []string  `json:"endpoints"`
	Dialogue  Metadata  `json:"dialogue"`
	Discord   Metadata  `json:"discord,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Metadata represents generic metadata
type Metadata map[string]interface{}
