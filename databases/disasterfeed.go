package databases

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/models"
)

const eonetEventLimit = 50

// DisasterFeedDatabase caches a snapshot of the NASA EONET natural-event
// feed and serves cursor-paginated pages from it. The scheduler refreshes
// the snapshot on a fixed interval so request handling never waits on NASA.
type DisasterFeedDatabase interface {
	Refresh(ctx context.Context) error
	Page(after string, limit int) ([]models.DisasterEvent, string)
	LastRefreshed() time.Time
}

type disasterFeedDatabase struct {
	mu        sync.RWMutex
	events    []models.DisasterEvent
	refreshed time.Time

	baseURL string
	client  *http.Client
	clock   clockwork.Clock
}

// NewDisasterFeedDatabase initializes a feed cache backed by the EONET API
// at baseURL. Outbound calls are bounded by timeout.
func NewDisasterFeedDatabase(baseURL string, timeout time.Duration, clock clockwork.Clock) DisasterFeedDatabase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &disasterFeedDatabase{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		clock:   clock,
	}
}

// EONET API response types.

type eonetResponse struct {
	Events []eonetEvent `json:"events"`
}

type eonetEvent struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Link       string          `json:"link"`
	Categories []eonetCategory `json:"categories"`
	Geometry   []eonetGeometry `json:"geometry"`
}

type eonetCategory struct {
	Title string `json:"title"`
}

type eonetGeometry struct {
	Date        time.Time     `json:"date"`
	Coordinates []interface{} `json:"coordinates"`
}

// Refresh replaces the snapshot with the current open events from EONET.
// On failure the previous snapshot is kept.
func (d *disasterFeedDatabase) Refresh(ctx context.Context) error {
	url := fmt.Sprintf("%s/api/v3/events?status=open&limit=%d", d.baseURL, eonetEventLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create eonet request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("eonet request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("eonet API error: status %d: %s", resp.StatusCode, body)
	}

	var feed eonetResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return fmt.Errorf("decode eonet response: %w", err)
	}

	events := make([]models.DisasterEvent, 0, len(feed.Events))
	for _, ev := range feed.Events {
		events = append(events, flattenEonetEvent(ev))
	}
	// Cursor pagination walks ids in ascending order.
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })

	d.mu.Lock()
	d.events = events
	d.refreshed = d.clock.Now().UTC()
	d.mu.Unlock()

	zap.S().Debugw("disaster feed refreshed", "events", len(events))
	return nil
}

// Page returns up to limit events with ids greater than after, plus the
// cursor for the next page. An empty cursor means the start of the feed.
func (d *disasterFeedDatabase) Page(after string, limit int) ([]models.DisasterEvent, string) {
	if limit <= 0 {
		limit = 5
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	page := make([]models.DisasterEvent, 0, limit)
	for _, ev := range d.events {
		if after != "" && ev.ID <= after {
			continue
		}
		page = append(page, ev)
		if len(page) == limit {
			break
		}
	}

	nextCursor := ""
	if len(page) > 0 {
		nextCursor = page[len(page)-1].ID
	}
	return page, nextCursor
}

func (d *disasterFeedDatabase) LastRefreshed() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refreshed
}

func flattenEonetEvent(ev eonetEvent) models.DisasterEvent {
	out := models.DisasterEvent{
		ID:    ev.ID,
		Title: ev.Title,
		Link:  ev.Link,
	}
	if len(ev.Categories) > 0 {
		out.Category = ev.Categories[0].Title
	}
	if len(ev.Geometry) > 0 {
		// Most recent geometry entry carries the latest position.
		g := ev.Geometry[len(ev.Geometry)-1]
		out.Date = g.Date
		for _, c := range g.Coordinates {
			if f, ok := c.(float64); ok {
				out.Coordinates = append(out.Coordinates, f)
			}
		}
	}
	return out
}
