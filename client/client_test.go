package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqconnect/resqconnect-api/api/handlers"
	"github.com/resqconnect/resqconnect-api/client"
	"github.com/resqconnect/resqconnect-api/config"
	"github.com/resqconnect/resqconnect-api/databases"
	"github.com/resqconnect/resqconnect-api/models"
)

// newTestServer runs the real report routes against an in-memory store so
// the client is exercised end to end.
func newTestServer(t *testing.T) (*httptest.Server, databases.ReportDatabase) {
	t.Helper()
	store := databases.NewReportDatabase(clockwork.NewRealClock())
	a := handlers.App{
		Config: config.Config{ChatTimeout: time.Second, UpstreamTimeout: time.Second},
		RDB:    store,
		FDB:    databases.NewDisasterFeedDatabase("http://127.0.0.1:0", time.Second, nil),
		Hub:    handlers.NewHub(),
	}
	srv := httptest.NewServer(a.New())
	t.Cleanup(srv.Close)
	return srv, store
}

func submit(t *testing.T, c *client.Client, input models.ReportInput) models.Report {
	t.Helper()
	report, err := c.SubmitReport(context.Background(), input)
	require.NoError(t, err)
	return report
}

func TestClientSubmitAndRefresh(t *testing.T) {
	srv, store := newTestServer(t)
	c := client.New(srv.URL, 0)
	defer c.Close()

	created := submit(t, c, models.ReportInput{Type: "Earthquake", Location: "San Francisco, CA", Description: "Shaking"})

	assert.Equal(t, 1, store.TotalCount())

	cached, ok := c.Report(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Earthquake", cached.Type)
	assert.Equal(t, models.StatusNew, cached.Status)
	assert.Len(t, c.Reports(), 1)
}

func TestClientOptimisticUpdateConfirmedByServer(t *testing.T) {
	srv, store := newTestServer(t)
	c := client.New(srv.URL, 0)
	defer c.Close()

	created := submit(t, c, models.ReportInput{Type: "Flood", Location: "New Orleans, LA", Description: "Rising water"})

	require.NoError(t, c.UpdateStatus(context.Background(), created.ID, models.StatusInProgress))

	// cache and server agree after reconciliation
	cached, ok := c.Report(created.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, cached.Status)

	onServer, err := store.FindByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, onServer.Status)
}

func TestClientRollsBackRejectedUpdateByRefetch(t *testing.T) {
	srv, store := newTestServer(t)
	c := client.New(srv.URL, 0)
	defer c.Close()

	created := submit(t, c, models.ReportInput{Type: "Flood", Location: "New Orleans, LA", Description: "Rising water"})

	err := c.UpdateStatus(context.Background(), created.ID, "escalated")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid report update")

	// the optimistic "escalated" state was discarded by the refetch
	cached, ok := c.Report(created.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusNew, cached.Status)

	onServer, err := store.FindByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, onServer.Status)
}

func TestClientApplyOptimisticIsVisibleBeforeConfirmation(t *testing.T) {
	srv, _ := newTestServer(t)
	c := client.New(srv.URL, 0)
	defer c.Close()

	created := submit(t, c, models.ReportInput{Type: "Wildfire", Location: "Los Angeles, CA", Description: "Brush fire"})

	status := models.StatusResolved
	c.ApplyOptimistic(created.ID, models.ReportPatch{Status: &status})

	cached, ok := c.Report(created.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusResolved, cached.Status)

	// nothing was sent to the server yet, so a refetch restores its truth
	require.NoError(t, c.Refresh(context.Background()))
	cached, _ = c.Report(created.ID)
	assert.Equal(t, models.StatusNew, cached.Status)
}

func TestClientConcurrentOptimisticUpdatesLastWriterWins(t *testing.T) {
	srv, _ := newTestServer(t)
	c := client.New(srv.URL, 0)
	defer c.Close()

	created := submit(t, c, models.ReportInput{Type: "Flood", Location: "Houston, TX", Description: "Street flooding"})

	first, second := models.StatusInProgress, models.StatusClosed
	c.ApplyOptimistic(created.ID, models.ReportPatch{Status: &first})
	c.ApplyOptimistic(created.ID, models.ReportPatch{Status: &second})

	cached, ok := c.Report(created.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusClosed, cached.Status)
}

func TestClientAddActionAppends(t *testing.T) {
	srv, store := newTestServer(t)
	c := client.New(srv.URL, 0)
	defer c.Close()

	created := submit(t, c, models.ReportInput{Type: "Flood", Location: "New Orleans, LA", Description: "Rising water"})

	require.NoError(t, c.AddAction(context.Background(), created.ID, "Dispatched rescue boats"))
	require.NoError(t, c.AddAction(context.Background(), created.ID, "Opened shelter"))

	onServer, err := store.FindByID(created.ID)
	require.NoError(t, err)
	require.Len(t, onServer.Actions, 2)
	assert.Equal(t, "Dispatched rescue boats", onServer.Actions[0].Text)
	assert.Equal(t, "Opened shelter", onServer.Actions[1].Text)

	cached, _ := c.Report(created.ID)
	assert.Len(t, cached.Actions, 2)
}

func TestClientAssign(t *testing.T) {
	srv, _ := newTestServer(t)
	c := client.New(srv.URL, 0)
	defer c.Close()

	created := submit(t, c, models.ReportInput{Type: "Earthquake", Location: "San Francisco, CA", Description: "Shaking"})

	require.NoError(t, c.Assign(context.Background(), created.ID, "Urban Search and Rescue"))

	cached, _ := c.Report(created.ID)
	assert.Equal(t, "Urban Search and Rescue", cached.AssignedTo)
}

func TestClientDeleteReport(t *testing.T) {
	srv, store := newTestServer(t)
	c := client.New(srv.URL, 0)
	defer c.Close()

	created := submit(t, c, models.ReportInput{Type: "Flood", Location: "New Orleans, LA", Description: "Rising water"})

	require.NoError(t, c.DeleteReport(context.Background(), created.ID))

	_, ok := c.Report(created.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.TotalCount())

	// deleting a missing report surfaces the server's 404 but leaves the
	// cache consistent with the server
	err := c.DeleteReport(context.Background(), created.ID)
	require.Error(t, err)
	assert.Len(t, c.Reports(), 0)
}

func TestClientMutationOnUnknownIDSurfacesNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	c := client.New(srv.URL, 0)
	defer c.Close()

	err := c.UpdateStatus(context.Background(), "r-0-missing", models.StatusClosed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Report not found")
}

func TestClientBackgroundRefreshPicksUpServerChanges(t *testing.T) {
	srv, store := newTestServer(t)
	c := client.New(srv.URL, 25*time.Millisecond)
	defer c.Close()

	_, err := store.Create(models.ReportInput{Type: "Wildfire", Location: "Los Angeles, CA", Description: "Brush fire"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(c.Reports()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
