// Package docs ResQConnect API.
//
// Documentation of the ResQConnect disaster alerting API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//     Host: https://api.resqconnect.app
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
// swagger:meta
package docs

import (
	"github.com/resqconnect/resqconnect-api/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/reports reports listReports
// Lists incident reports, filtered by the query parameters and most recent first.
// responses:
//   200: reportsResponse

// The filtered reports plus the unfiltered total count.
// swagger:response reportsResponse
type reportsResponseWrapper struct {
	// in:body
	Body models.ReportsResponse
}

// swagger:route GET /api/v1/reports/{report_id} reports reportByID
// Gets a single incident report by ID.
// responses:
//   200: reportResponse

// Shows a single report by the given {report_id}
// swagger:response reportResponse
type reportResponseWrapper struct {
	// in:body
	Body models.ReportResponse
}

// swagger:route GET /api/v1/disasters disasters listDisasters
// Returns one cursor-paginated page of the cached NASA EONET feed.
// responses:
//   200: disasterFeedResponse

// A page of disaster events plus the cursor for the next page.
// swagger:response disasterFeedResponse
type disasterFeedResponseWrapper struct {
	// in:body
	Body models.DisasterFeedResponse
}

// swagger:route POST /api/v1/chatbot/message chatbot chatbotMessage
// Exchanges one turn with the disaster-assistance chatbot.
// responses:
//   200: chatResponse

// The assistant's reply, or a canned safety response when the LLM is unreachable.
// swagger:response chatResponse
type chatResponseWrapper struct {
	// in:body
	Body models.ChatResponse
}
