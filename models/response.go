package models

// HealthCheckResponse returns if the service is alive
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// ReportsResponse is the list envelope for GET /reports. Count is the size
// of the filtered result set, TotalCount the size of the whole store.
type ReportsResponse struct {
	Success    bool     `json:"success"`
	Count      int      `json:"count"`
	TotalCount int      `json:"totalCount"`
	Data       []Report `json:"data"`
}

// ReportResponse wraps a single report
type ReportResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Data    *Report `json:"data,omitempty"`
}

// MessageResponse is the envelope for operations that return no data
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UpstreamResponse is the envelope for collaborator proxies. Source is
// "live" when the upstream call succeeded and "fallback" when the payload
// is best-effort substitute content after an upstream failure.
type UpstreamResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Source  string      `json:"source"`
	Error   string      `json:"error,omitempty"`
}

// Upstream response sources.
const (
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)
