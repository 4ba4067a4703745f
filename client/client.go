// Package client is the Go client for the report API. It keeps a local
// cache mirroring the last known server state and applies optimistic
// updates ahead of the server's confirmation, so UIs built on it can render
// mutations immediately.
//
// Reconciliation is a two-phase protocol: the mutation is applied to the
// cache tentatively, then the authoritative list is refetched and replaces
// the cache wholesale, whether the network call succeeded or failed.
// Rollback is by refetch, not by inverse patch: after a failure the cache
// shows whatever the server holds now, which may differ from the
// pre-optimistic state if another actor mutated the report in the interim.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/databases"
	"github.com/resqconnect/resqconnect-api/models"
)

// Client mirrors the last known server state of all reports
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	cache map[string]models.Report

	stop chan struct{}
	once sync.Once
}

// New creates a client for the API at baseURL. When refreshEvery is greater
// than zero a background refresh keeps the cache at most that stale;
// background fetches race freely with user-initiated ones and the last
// fetch wins.
func New(baseURL string, refreshEvery time.Duration) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   make(map[string]models.Report),
		stop:    make(chan struct{}),
	}
	if refreshEvery > 0 {
		go c.refreshLoop(refreshEvery)
	}
	return c
}

// Close stops the background refresh
func (c *Client) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Client) refreshLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.Refresh(context.Background()); err != nil {
				zap.S().Warnw("background report refresh failed", "error", err)
			}
		case <-c.stop:
			return
		}
	}
}

// Refresh fetches the authoritative report list and replaces the cache
// wholesale, discarding any optimistic state.
func (c *Client) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/reports", nil)
	if err != nil {
		return fmt.Errorf("create refresh request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("refresh failed: status %d: %s", resp.StatusCode, body)
	}

	var decoded models.ReportsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}

	fresh := make(map[string]models.Report, len(decoded.Data))
	for _, r := range decoded.Data {
		fresh[r.ID] = r
	}

	c.mu.Lock()
	c.cache = fresh
	c.mu.Unlock()
	return nil
}

// Reports returns the cached reports, most recent first
func (c *Client) Reports() []models.Report {
	c.mu.RLock()
	all := make([]models.Report, 0, len(c.cache))
	for _, r := range c.cache {
		all = append(all, r.Clone())
	}
	c.mu.RUnlock()
	return databases.FilterReports(all, databases.Criteria{})
}

// Report returns the cached report for id, if present
func (c *Client) Report(id string) (models.Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.cache[id]
	if !ok {
		return models.Report{}, false
	}
	return r.Clone(), true
}

// ApplyOptimistic mutates the cached report as if the server had already
// applied the patch. Concurrent optimistic updates to the same id are
// last-writer-wins until the next refetch reconciles.
func (c *Client) ApplyOptimistic(id string, patch models.ReportPatch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.cache[id]
	if !ok {
		return
	}

	now := time.Now().UTC()
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.AssignedTo != nil {
		r.AssignedTo = *patch.AssignedTo
	}
	if patch.Action != nil {
		by := "Responder"
		if patch.ActionBy != nil && *patch.ActionBy != "" {
			by = *patch.ActionBy
		}
		actions := make([]models.ResponseAction, len(r.Actions), len(r.Actions)+1)
		copy(actions, r.Actions)
		r.Actions = append(actions, models.ResponseAction{Text: *patch.Action, Timestamp: now, By: by})
	}
	r.LastUpdated = now
	c.cache[id] = r
}

// UpdateStatus optimistically sets the report's status, then confirms it
// with the server
func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	return c.mutate(ctx, id, models.ReportPatch{Status: &status})
}

// AddAction optimistically appends a response action, then confirms it with
// the server
func (c *Client) AddAction(ctx context.Context, id, text string) error {
	return c.mutate(ctx, id, models.ReportPatch{Action: &text})
}

// Assign optimistically sets the assignee, then confirms it with the server
func (c *Client) Assign(ctx context.Context, id, assignee string) error {
	return c.mutate(ctx, id, models.ReportPatch{AssignedTo: &assignee})
}

// mutate runs the two-phase protocol: tentative local mutation, server
// call, then a reconciling refetch regardless of the call's outcome.
func (c *Client) mutate(ctx context.Context, id string, patch models.ReportPatch) error {
	c.ApplyOptimistic(id, patch)

	patchErr := c.patch(ctx, id, patch)
	if err := c.Refresh(ctx); err != nil {
		// The optimistic state may now be stale; the next refresh (manual
		// or background) reconciles it.
		zap.S().Warnw("reconciling refetch failed", "reportId", id, "error", err)
	}
	return patchErr
}

func (c *Client) patch(ctx context.Context, id string, patch models.ReportPatch) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/api/v1/reports/"+id, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create patch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("patch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// SubmitReport creates a report on the server and refreshes the cache so
// the new report appears immediately.
func (c *Client) SubmitReport(ctx context.Context, input models.ReportInput) (models.Report, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return models.Report{}, fmt.Errorf("marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/reports", bytes.NewReader(body))
	if err != nil {
		return models.Report{}, fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Report{}, fmt.Errorf("submit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return models.Report{}, decodeError(resp)
	}

	var decoded models.ReportResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.Report{}, fmt.Errorf("decode submit response: %w", err)
	}

	if err := c.Refresh(ctx); err != nil {
		zap.S().Warnw("refetch after submit failed", "error", err)
	}
	if decoded.Data == nil {
		return models.Report{}, fmt.Errorf("submit response missing report data")
	}
	return *decoded.Data, nil
}

// DeleteReport removes a report on the server, optimistically dropping it
// from the cache first
func (c *Client) DeleteReport(ctx context.Context, id string) error {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/v1/reports/"+id, nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}

	resp, err := c.http.Do(req)
	var deleteErr error
	if err != nil {
		deleteErr = fmt.Errorf("delete request: %w", err)
	} else {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			deleteErr = decodeError(resp)
		}
	}

	if err := c.Refresh(ctx); err != nil {
		zap.S().Warnw("reconciling refetch failed", "reportId", id, "error", err)
	}
	return deleteErr
}

func decodeError(resp *http.Response) error {
	var decoded models.ErrorMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err == nil && decoded.Message != "" {
		return fmt.Errorf("server rejected request: status %d: %s", resp.StatusCode, decoded.Message)
	}
	return fmt.Errorf("server rejected request: status %d", resp.StatusCode)
}
