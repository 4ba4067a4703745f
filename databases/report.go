package databases

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/resqconnect/resqconnect-api/models"
)

// ReportDatabase contains the methods to use with the report store
type ReportDatabase interface {
	Create(input models.ReportInput) (models.Report, error)
	FindByID(id string) (models.Report, error)
	Find() []models.Report
	Update(id string, patch models.ReportPatch) (models.Report, error)
	Delete(id string) error
	TotalCount() int
}

// reportDatabase owns all report state. Every mutation runs behind a single
// mutex so racing requests on the same report id cannot lose updates, and
// every read hands out a clone so callers never alias internal state.
type reportDatabase struct {
	mu      sync.RWMutex
	reports map[string]*models.Report
	clock   clockwork.Clock
}

// NewReportDatabase initializes a new in-memory report store. Pass nil to
// use the real clock; tests inject a fake for deterministic timestamps.
func NewReportDatabase(clock clockwork.Clock) ReportDatabase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &reportDatabase{
		reports: make(map[string]*models.Report),
		clock:   clock,
	}
}

func (d *reportDatabase) Create(input models.ReportInput) (models.Report, error) {
	// Validation is atomic: nothing is stored unless every required field
	// passes.
	var missing []string
	if strings.TrimSpace(input.Type) == "" {
		missing = append(missing, "type")
	}
	if strings.TrimSpace(input.Location) == "" {
		missing = append(missing, "location")
	}
	if strings.TrimSpace(input.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return models.Report{}, fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}

	severity := strings.ToLower(input.Severity)
	if severity == "" {
		severity = models.SeverityMedium
	} else if !models.ValidSeverity(severity) {
		return models.Report{}, fmt.Errorf("%w: severity %q is not recognized", ErrValidation, input.Severity)
	}

	status := strings.ToLower(input.Status)
	if status == "" {
		status = models.StatusNew
	} else if !models.ValidStatus(status) {
		return models.Report{}, fmt.Errorf("%w: status %q is not recognized", ErrValidation, input.Status)
	}

	reportedBy := strings.TrimSpace(input.ReportedBy)
	if reportedBy == "" {
		reportedBy = "Anonymous"
	}

	now := d.clock.Now().UTC()
	report := models.Report{
		ID:          newReportID(now.Unix()),
		Type:        input.Type,
		Location:    input.Location,
		Description: input.Description,
		Severity:    severity,
		ReportedAt:  now,
		ReportedBy:  reportedBy,
		Contact:     input.Contact,
		Status:      status,
		AssignedTo:  "Unassigned",
		Actions:     []models.ResponseAction{},
		LastUpdated: now,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.reports[report.ID] = &report

	return report.Clone(), nil
}

func (d *reportDatabase) FindByID(id string) (models.Report, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	report, ok := d.reports[id]
	if !ok {
		return models.Report{}, ErrNotFound
	}
	return report.Clone(), nil
}

// Find returns a copy of every report. Order is unspecified; callers sort
// explicitly via FilterReports.
func (d *reportDatabase) Find() []models.Report {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Report, 0, len(d.reports))
	for _, report := range d.reports {
		out = append(out, report.Clone())
	}
	return out
}

// Update merges the patch into the stored report. The patch is validated in
// full before any field is applied, so a bad status can never land alongside
// a good assignee.
func (d *reportDatabase) Update(id string, patch models.ReportPatch) (models.Report, error) {
	var status, assignee string
	var action *models.ResponseAction

	if patch.Status != nil {
		status = strings.ToLower(strings.TrimSpace(*patch.Status))
		if !models.ValidStatus(status) {
			return models.Report{}, fmt.Errorf("%w: status %q is not recognized", ErrValidation, *patch.Status)
		}
	}
	if patch.AssignedTo != nil {
		assignee = strings.TrimSpace(*patch.AssignedTo)
		if assignee == "" {
			return models.Report{}, fmt.Errorf("%w: assignee must not be empty", ErrValidation)
		}
	}
	if patch.Action != nil {
		text := strings.TrimSpace(*patch.Action)
		if text == "" {
			return models.Report{}, fmt.Errorf("%w: action text must not be empty", ErrValidation)
		}
		by := "Responder"
		if patch.ActionBy != nil && strings.TrimSpace(*patch.ActionBy) != "" {
			by = strings.TrimSpace(*patch.ActionBy)
		}
		action = &models.ResponseAction{Text: text, By: by}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	report, ok := d.reports[id]
	if !ok {
		return models.Report{}, ErrNotFound
	}

	changed := false
	now := d.clock.Now().UTC()
	if patch.Status != nil {
		report.Status = status
		changed = true
	}
	if patch.AssignedTo != nil {
		report.AssignedTo = assignee
		changed = true
	}
	if action != nil {
		action.Timestamp = now
		report.Actions = append(report.Actions, *action)
		changed = true
	}
	if changed {
		report.LastUpdated = now
	}

	return report.Clone(), nil
}

func (d *reportDatabase) Delete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.reports[id]; !ok {
		return ErrNotFound
	}
	delete(d.reports, id)
	return nil
}

func (d *reportDatabase) TotalCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.reports)
}

// newReportID keeps the r-<timestamp>-<random> shape the dashboard already
// parses, with a uuid suffix so ids stay unique within a single second.
func newReportID(unix int64) string {
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("r-%d-%s", unix, suffix)
}
