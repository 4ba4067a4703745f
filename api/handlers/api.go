package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/api"
	"github.com/resqconnect/resqconnect-api/api/scheduler"
	"github.com/resqconnect/resqconnect-api/config"
	"github.com/resqconnect/resqconnect-api/databases"
	"github.com/resqconnect/resqconnect-api/models"
)

// App stores the router, report store and shared collaborators, so they can
// be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	RDB       databases.ReportDatabase
	FDB       databases.DisasterFeedDatabase
	Hub       *Hub
	Metrics   *api.Metrics
	Scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()

	report := Report{DB: a.RDB, Hub: a.Hub, Metrics: a.Metrics}
	stream := Stream{Hub: a.Hub}
	weather := NewWeather(a.Config, a.Metrics)
	feed := DisasterFeed{DB: a.FDB, Metrics: a.Metrics}
	geocode := NewGeocode(a.Config, a.Metrics)
	chat := NewChat(a.Config, a.Metrics)
	notify := NewNotification(a.Config, a.Metrics)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	// The stream route upgrades to a websocket, so it skips the JSON
	// middleware chain.
	apiCreate.Handle("/reports/stream", http.HandlerFunc(stream.StreamHandler)).Methods("GET")

	apiCreate.Handle("/reports", a.wrap(report.ReportsHandler)).Methods("GET")
	apiCreate.Handle("/reports", a.wrap(report.CreateReportHandler)).Methods("POST")
	apiCreate.Handle("/reports/{report_id}", a.wrap(report.ReportByIDHandler)).Methods("GET")
	apiCreate.Handle("/reports/{report_id}", a.wrap(report.UpdateReportHandler)).Methods("PATCH")
	apiCreate.Handle("/reports/{report_id}", a.wrap(report.DeleteReportHandler)).Methods("DELETE")

	apiCreate.Handle("/weather", a.wrap(weather.WeatherHandler)).Methods("GET")
	apiCreate.Handle("/disasters", a.wrap(feed.DisastersHandler)).Methods("GET")
	apiCreate.Handle("/disasters/geocode", a.wrap(geocode.GeocodeHandler)).Methods("GET")
	apiCreate.Handle("/chatbot/message", a.wrapWithTimeout(chat.MessageHandler, a.Config.ChatTimeout+5*time.Second)).Methods("POST")
	apiCreate.Handle("/notifications/push", a.wrap(notify.PushHandler)).Methods("POST")
	apiCreate.Handle("/notifications/sms", a.wrap(notify.SmsHandler)).Methods("POST")

	// CORS preflight for every API route
	apiCreate.PathPrefix("/").Handler(api.CORSMiddleware(http.NotFoundHandler())).Methods("OPTIONS")

	return r
}

// wrap applies the standard JSON middleware chain to a handler.
func (a *App) wrap(h http.HandlerFunc) http.Handler {
	return a.wrapWithTimeout(h, 30*time.Second)
}

func (a *App) wrapWithTimeout(h http.HandlerFunc, timeout time.Duration) http.Handler {
	var handler http.Handler = h
	if a.Metrics != nil {
		handler = a.Metrics.Middleware(handler)
	}
	return api.CORSMiddleware(api.Middleware(api.TimeoutMiddleware(timeout)(handler)))
}

// Initialize is invoked by main to build the store, the collaborators and
// the router
func (a *App) Initialize() error {
	a.RDB = databases.NewReportDatabase(clockwork.NewRealClock())
	a.FDB = databases.NewDisasterFeedDatabase(a.Config.EonetURL, a.Config.UpstreamTimeout, clockwork.NewRealClock())
	a.Hub = NewHub()
	a.Metrics = api.NewMetrics()

	// Warm the disaster feed cache so the first page load never waits on
	// NASA; failures fall back to the scheduler's next refresh.
	ctx, cancel := context.WithTimeout(context.Background(), a.Config.UpstreamTimeout)
	defer cancel()
	if err := a.FDB.Refresh(ctx); err != nil {
		zap.S().Warnw("initial disaster feed refresh failed", "error", err)
	}

	a.Scheduler = scheduler.New(a.FDB, a.RDB, &a.Config)
	a.Scheduler.Start()

	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
