package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/config"
	"github.com/resqconnect/resqconnect-api/databases"
	"github.com/resqconnect/resqconnect-api/models"
)

// Scheduler handles periodic background jobs: refreshing the disaster feed
// cache and emailing a digest of unresolved severe reports.
type Scheduler struct {
	cron *cron.Cron
	FDB  databases.DisasterFeedDatabase
	RDB  databases.ReportDatabase
	conf *config.Config
}

// New creates a new scheduler instance
func New(fdb databases.DisasterFeedDatabase, rdb databases.ReportDatabase, conf *config.Config) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		FDB:  fdb,
		RDB:  rdb,
		conf: conf,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Keep the disaster feed snapshot at most two minutes stale, matching
	// the dashboard's own refresh cadence.
	_, err := s.cron.AddFunc("@every 2m", s.refreshDisasterFeed)
	if err != nil {
		zap.S().Errorw("failed to register feed refresh job", "error", err)
	}

	// Hourly digest of severe reports that nobody has resolved yet.
	_, err = s.cron.AddFunc("0 * * * *", s.sendSeverityDigest)
	if err != nil {
		zap.S().Errorw("failed to register severity digest job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("resqconnect scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("resqconnect scheduler stopped")
}

func (s *Scheduler) refreshDisasterFeed() {
	ctx, cancel := context.WithTimeout(context.Background(), s.conf.UpstreamTimeout)
	defer cancel()

	if err := s.FDB.Refresh(ctx); err != nil {
		zap.S().Warnw("disaster feed refresh failed", "error", err)
		return
	}
	zap.S().Debugw("disaster feed refresh complete", "lastRefreshed", s.FDB.LastRefreshed())
}

// sendSeverityDigest emails a summary of open high and critical reports so
// coordinators notice reports the dashboard polling missed.
func (s *Scheduler) sendSeverityDigest() {
	if s.conf.SendgridKey == "" || s.conf.AlertEmail == "" {
		zap.S().Debug("severity digest skipped, sendgrid not configured")
		return
	}

	open := openSevereReports(s.RDB.Find())
	if len(open) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d severe report(s) still open:\n\n", len(open))
	for _, r := range open {
		fmt.Fprintf(&b, "- [%s] %s at %s (status: %s, assigned: %s, reported %s)\n",
			strings.ToUpper(r.Severity), r.Type, r.Location, r.Status, r.AssignedTo,
			r.ReportedAt.Format(time.RFC3339))
	}

	subject := fmt.Sprintf("ResQConnect: %d severe reports need attention", len(open))
	if err := s.sendEmail(s.conf.AlertEmail, subject, b.String()); err != nil {
		zap.S().Errorw("failed to send severity digest", "error", err)
		return
	}
	zap.S().Infow("severity digest sent", "reports", len(open))
}

func openSevereReports(reports []models.Report) []models.Report {
	filtered := databases.FilterReports(reports, databases.Criteria{SortOrder: databases.SortSeverity})
	out := filtered[:0:0]
	for _, r := range filtered {
		severe := r.Severity == models.SeverityHigh || r.Severity == models.SeverityCritical
		open := r.Status == models.StatusNew || r.Status == models.StatusInProgress
		if severe && open {
			out = append(out, r)
		}
	}
	return out
}

func (s *Scheduler) sendEmail(toEmail, subject, plainText string) error {
	from := mail.NewEmail("ResQConnect", "no-reply@resqconnect.app")
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, "")
	client := sendgrid.NewSendClient(s.conf.SendgridKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
