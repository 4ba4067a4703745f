package models

import (
	"strings"
	"time"
)

// Severity levels accepted on a report. Critical sits above high so the
// dashboard can float catastrophic events to the top of severity sorts.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Report statuses. Any status may move directly to any other status;
// responders are trusted to reopen or fast-close reports as a situation
// develops, so no transition ordering is enforced.
const (
	StatusNew        = "new"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

// ResponseAction is a single action a responder has taken against a report.
type ResponseAction struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	By        string    `json:"by"`
}

// Report represents a citizen-submitted disaster report
type Report struct {
	ID          string           `json:"id"`
	Type        string           `json:"type"`
	Location    string           `json:"location"`
	Description string           `json:"description"`
	Severity    string           `json:"severity"`
	ReportedAt  time.Time        `json:"reportedAt"`
	ReportedBy  string           `json:"reportedBy"`
	Contact     string           `json:"contact,omitempty"`
	Status      string           `json:"status"`
	AssignedTo  string           `json:"assignedTo"`
	Actions     []ResponseAction `json:"actions"`
	LastUpdated time.Time        `json:"lastUpdated"`
}

// Clone returns a deep copy so callers can never alias the store's state.
func (r Report) Clone() Report {
	out := r
	out.Actions = make([]ResponseAction, len(r.Actions))
	copy(out.Actions, r.Actions)
	return out
}

// ReportInput is the request body for POST /reports
type ReportInput struct {
	Type        string `json:"type"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	ReportedBy  string `json:"reportedBy"`
	Contact     string `json:"contact"`
	Status      string `json:"status"`
}

// ReportPatch is the request body for PATCH /reports/{report_id}. Nil fields
// are left untouched (merge semantics, never a full replace). A present but
// blank status, action or assignee is a validation error.
type ReportPatch struct {
	Status     *string `json:"status,omitempty"`
	Action     *string `json:"action,omitempty"`
	ActionBy   *string `json:"actionBy,omitempty"`
	AssignedTo *string `json:"assignedTo,omitempty"`
}

// ValidStatus reports whether s is a recognized status, ignoring case.
func ValidStatus(s string) bool {
	switch strings.ToLower(s) {
	case StatusNew, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// ValidSeverity reports whether s is a recognized severity, ignoring case.
func ValidSeverity(s string) bool {
	switch strings.ToLower(s) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// SeverityRank maps a severity to its sort weight, highest first.
func SeverityRank(s string) int {
	switch strings.ToLower(s) {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}
