package databases_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqconnect/resqconnect-api/databases"
	"github.com/resqconnect/resqconnect-api/models"
)

func sampleReports() []models.Report {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	return []models.Report{
		{
			ID: "r-1", Type: "Earthquake", Location: "San Francisco, CA",
			Description: "Moderate shaking, structural damage reported",
			Severity:    models.SeverityHigh, Status: models.StatusNew,
			ReportedBy: "John Smith", AssignedTo: "Response Team A",
			ReportedAt: base.Add(-24 * time.Hour),
		},
		{
			ID: "r-2", Type: "Flood", Location: "New Orleans, LA",
			Description: "Rising water levels in residential areas",
			Severity:    models.SeverityLow, Status: models.StatusResolved,
			ReportedBy: "Sarah Johnson", AssignedTo: "Flood Response Unit",
			ReportedAt: base.Add(-48 * time.Hour),
		},
		{
			ID: "r-3", Type: "Wildfire", Location: "Los Angeles, CA",
			Description: "Brush fire spreading rapidly",
			Severity:    models.SeverityCritical, Status: models.StatusInProgress,
			ReportedBy: "Fire Watch Volunteer", AssignedTo: "Wildfire Taskforce",
			ReportedAt: base.Add(-12 * time.Hour),
		},
	}
}

func ids(reports []models.Report) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}

func TestFilterEmptyCriteriaReturnsAllNewestFirst(t *testing.T) {
	got := databases.FilterReports(sampleReports(), databases.Criteria{})

	require.Len(t, got, 3)
	assert.Equal(t, []string{"r-3", "r-1", "r-2"}, ids(got))
	// content is unchanged
	assert.Equal(t, "Rising water levels in residential areas", got[2].Description)
}

func TestFilterStatusMatchesExactCaseInsensitive(t *testing.T) {
	got := databases.FilterReports(sampleReports(), databases.Criteria{Status: "RESOLVED"})

	require.Len(t, got, 1)
	assert.Equal(t, "r-2", got[0].ID)

	// exact match, not substring: "new" must not match "renewed" style values
	got = databases.FilterReports(sampleReports(), databases.Criteria{Status: "progress"})
	assert.Empty(t, got)
}

func TestFilterSubstringFields(t *testing.T) {
	got := databases.FilterReports(sampleReports(), databases.Criteria{Location: "ca"})
	assert.Equal(t, []string{"r-3", "r-1"}, ids(got))

	got = databases.FilterReports(sampleReports(), databases.Criteria{Type: "flood"})
	assert.Equal(t, []string{"r-2"}, ids(got))

	got = databases.FilterReports(sampleReports(), databases.Criteria{ReportedBy: "volunteer"})
	assert.Equal(t, []string{"r-3"}, ids(got))

	got = databases.FilterReports(sampleReports(), databases.Criteria{AssignedTo: "taskforce"})
	assert.Equal(t, []string{"r-3"}, ids(got))
}

func TestFilterSearchSpansFields(t *testing.T) {
	// matches description of r-1 only
	got := databases.FilterReports(sampleReports(), databases.Criteria{Search: "structural"})
	assert.Equal(t, []string{"r-1"}, ids(got))

	// matches reportedBy of r-2
	got = databases.FilterReports(sampleReports(), databases.Criteria{Search: "sarah"})
	assert.Equal(t, []string{"r-2"}, ids(got))

	got = databases.FilterReports(sampleReports(), databases.Criteria{Search: "zebra"})
	assert.Empty(t, got)
}

func TestFilterCriteriaCombineWithAnd(t *testing.T) {
	got := databases.FilterReports(sampleReports(), databases.Criteria{
		Location: "ca",
		Status:   models.StatusNew,
	})
	assert.Equal(t, []string{"r-1"}, ids(got))
}

func TestFilterSortOldest(t *testing.T) {
	got := databases.FilterReports(sampleReports(), databases.Criteria{SortOrder: databases.SortOldest})
	assert.Equal(t, []string{"r-2", "r-1", "r-3"}, ids(got))
}

func TestFilterSortSeverity(t *testing.T) {
	got := databases.FilterReports(sampleReports(), databases.Criteria{SortOrder: databases.SortSeverity})
	assert.Equal(t, []string{"r-3", "r-1", "r-2"}, ids(got))
}

func TestFilterSortSeverityBreaksTiesByRecency(t *testing.T) {
	reports := sampleReports()
	reports[1].Severity = models.SeverityHigh // r-2 ties with r-1, but is older

	got := databases.FilterReports(reports, databases.Criteria{SortOrder: databases.SortSeverity})
	assert.Equal(t, []string{"r-3", "r-1", "r-2"}, ids(got))
}

func TestFilterSeverityAndStatusScenario(t *testing.T) {
	// Store contains A (high, newer, new) and B (low, older, resolved).
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	a := models.Report{ID: "a", Severity: models.SeverityHigh, Status: models.StatusNew, ReportedAt: base.Add(-24 * time.Hour)}
	b := models.Report{ID: "b", Severity: models.SeverityLow, Status: models.StatusResolved, ReportedAt: base.Add(-48 * time.Hour)}

	got := databases.FilterReports([]models.Report{b, a}, databases.Criteria{SortOrder: databases.SortSeverity})
	assert.Equal(t, []string{"a", "b"}, ids(got))

	got = databases.FilterReports([]models.Report{b, a}, databases.Criteria{Status: models.StatusResolved})
	assert.Equal(t, []string{"b"}, ids(got))
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	reports := sampleReports()
	databases.FilterReports(reports, databases.Criteria{SortOrder: databases.SortOldest})
	assert.Equal(t, []string{"r-1", "r-2", "r-3"}, ids(reports))
}
