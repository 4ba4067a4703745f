package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/api"
	"github.com/resqconnect/resqconnect-api/config"
	"github.com/resqconnect/resqconnect-api/databases"
	"github.com/resqconnect/resqconnect-api/models"
)

// Report handles report-related requests
type Report struct {
	DB      databases.ReportDatabase
	Hub     *Hub
	Metrics *api.Metrics
}

// ReportsHandler returns all reports matching the query filters, most
// recent first
func (re Report) ReportsHandler(w http.ResponseWriter, r *http.Request) {
	criteria := criteriaFromQuery(r)
	zap.S().Debugw("query filters", "criteria", criteria)

	filtered := databases.FilterReports(re.DB.Find(), criteria)

	// Because the frontend requires that the data elements exist, if
	// len == 0 then we will just return an empty data array
	if len(filtered) == 0 {
		filtered = []models.Report{}
	}

	b, err := json.Marshal(models.ReportsResponse{
		Success:    true,
		Count:      len(filtered),
		TotalCount: re.DB.TotalCount(),
		Data:       filtered,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportByIDHandler returns a report by ID
func (re Report) ReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	report, err := re.DB.FindByID(reportID)
	if err != nil {
		config.ErrorStatus("Report not found", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(models.ReportResponse{Success: true, Data: &report})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateReportHandler creates a new report
func (re Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	var input models.ReportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	report, err := re.DB.Create(input)
	if err != nil {
		if errors.Is(err, databases.ErrValidation) {
			config.ErrorStatus("Missing required fields: type, location, and description are required", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to create report", http.StatusInternalServerError, w, err)
		return
	}

	re.trackStoreSize()
	re.broadcast(ReportEvent{Event: "created", ID: report.ID, Report: &report})

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.ReportResponse{
		Success: true,
		Message: "Report created successfully",
		Data:    &report,
	})
}

// UpdateReportHandler merges a patch of status, action and assignee changes
// into a report
func (re Report) UpdateReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	var patch models.ReportPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	report, err := re.DB.Update(reportID, patch)
	if err != nil {
		switch {
		case errors.Is(err, databases.ErrNotFound):
			config.ErrorStatus("Report not found", http.StatusNotFound, w, err)
		case errors.Is(err, databases.ErrValidation):
			config.ErrorStatus("invalid report update", http.StatusBadRequest, w, err)
		default:
			config.ErrorStatus("failed to update report", http.StatusInternalServerError, w, err)
		}
		return
	}

	re.broadcast(ReportEvent{Event: "updated", ID: report.ID, Report: &report})

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.ReportResponse{
		Success: true,
		Message: "Report updated successfully",
		Data:    &report,
	})
}

// DeleteReportHandler deletes a report by ID
func (re Report) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	if err := re.DB.Delete(reportID); err != nil {
		config.ErrorStatus("Report not found", http.StatusNotFound, w, err)
		return
	}

	re.trackStoreSize()
	re.broadcast(ReportEvent{Event: "deleted", ID: reportID})

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.MessageResponse{
		Success: true,
		Message: "Report deleted successfully",
	})
}

func (re Report) broadcast(ev ReportEvent) {
	if re.Hub != nil {
		re.Hub.Broadcast(ev)
	}
}

func (re Report) trackStoreSize() {
	if re.Metrics != nil {
		re.Metrics.ReportsInStore.Set(float64(re.DB.TotalCount()))
	}
}

func criteriaFromQuery(r *http.Request) databases.Criteria {
	q := r.URL.Query()
	return databases.Criteria{
		Status:     q.Get("status"),
		Location:   q.Get("location"),
		Type:       q.Get("type"),
		ReportedBy: q.Get("reportedBy"),
		AssignedTo: q.Get("assignedTo"),
		Search:     q.Get("search"),
		SortOrder:  q.Get("sortOrder"),
	}
}
