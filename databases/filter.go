package databases

import (
	"sort"
	"strings"

	"github.com/resqconnect/resqconnect-api/models"
)

// Sort orders accepted by FilterReports.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortSeverity = "severity"
)

// Criteria selects and orders reports. Zero-value fields are pass-through,
// all provided fields are combined with AND.
type Criteria struct {
	Status     string
	Location   string
	Type       string
	ReportedBy string
	AssignedTo string
	Search     string
	SortOrder  string
}

// FilterReports applies the criteria to reports and returns a new sorted
// slice. The default order is most-recent-first; the dashboard depends on
// that, so it applies even when no criteria are set. The input slice is
// never modified.
func FilterReports(reports []models.Report, c Criteria) []models.Report {
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if matches(r, c) {
			out = append(out, r)
		}
	}

	switch c.SortOrder {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ReportedAt.Before(out[j].ReportedAt)
		})
	case SortSeverity:
		sort.SliceStable(out, func(i, j int) bool {
			ri, rj := models.SeverityRank(out[i].Severity), models.SeverityRank(out[j].Severity)
			if ri != rj {
				return ri > rj
			}
			return out[i].ReportedAt.After(out[j].ReportedAt)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ReportedAt.After(out[j].ReportedAt)
		})
	}
	return out
}

func matches(r models.Report, c Criteria) bool {
	if c.Status != "" && !strings.EqualFold(r.Status, c.Status) {
		return false
	}
	if !containsFold(r.Location, c.Location) {
		return false
	}
	if !containsFold(r.Type, c.Type) {
		return false
	}
	if !containsFold(r.ReportedBy, c.ReportedBy) {
		return false
	}
	if !containsFold(r.AssignedTo, c.AssignedTo) {
		return false
	}
	if c.Search != "" {
		term := c.Search
		if !strings.Contains(strings.ToLower(r.Type), strings.ToLower(term)) &&
			!strings.Contains(strings.ToLower(r.Location), strings.ToLower(term)) &&
			!strings.Contains(strings.ToLower(r.Description), strings.ToLower(term)) &&
			!strings.Contains(strings.ToLower(r.ReportedBy), strings.ToLower(term)) &&
			!strings.Contains(strings.ToLower(r.AssignedTo), strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// containsFold is a case-insensitive substring match that passes when the
// term is empty.
func containsFold(field, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(term))
}
