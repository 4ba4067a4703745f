package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/api"
	"github.com/resqconnect/resqconnect-api/config"
	"github.com/resqconnect/resqconnect-api/databases"
	"github.com/resqconnect/resqconnect-api/models"
)

const googleMapsBaseURL = "https://maps.googleapis.com"

// DisasterFeed serves cursor-paginated pages of the cached NASA EONET feed
type DisasterFeed struct {
	DB      databases.DisasterFeedDatabase
	Metrics *api.Metrics
}

// DisastersHandler returns one page of disaster events. If the cache has
// never been filled and cannot be filled now, a small static fallback set is
// served so the dashboard still renders.
func (d DisasterFeed) DisastersHandler(w http.ResponseWriter, r *http.Request) {
	after := r.URL.Query().Get("after")

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			zap.S().Warnf("limit not set, using default of %v, err: %v", limit, err)
		} else {
			limit = parsed
		}
	}

	source := models.SourceCache
	if d.DB.LastRefreshed().IsZero() {
		if err := d.DB.Refresh(r.Context()); err != nil {
			zap.S().Warnw("disaster feed unavailable, serving fallback", "error", err)
			d.Metrics.ObserveUpstream("eonet", "fallback")
			writeJSON(w, http.StatusOK, models.DisasterFeedResponse{
				Success: true,
				Data:    disasterFallback(),
				Source:  models.SourceFallback,
				Error:   "Error fetching disasters",
			})
			return
		}
		source = models.SourceLive
	}

	page, nextCursor := d.DB.Page(after, limit)
	if len(page) == 0 {
		page = []models.DisasterEvent{}
	}

	d.Metrics.ObserveUpstream("eonet", "success")
	writeJSON(w, http.StatusOK, models.DisasterFeedResponse{
		Success:    true,
		Data:       page,
		NextCursor: nextCursor,
		Source:     source,
	})
}

// disasterFallback is the documented payload served when the EONET feed has
// never loaded.
func disasterFallback() []models.DisasterEvent {
	return []models.DisasterEvent{
		{
			ID:       "fallback-1",
			Title:    "Disaster feed temporarily unavailable",
			Category: "Notice",
			Date:     time.Now().UTC(),
		},
	}
}

// Geocode proxies address lookups to the Google Maps Geocoding API
type Geocode struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Metrics *api.Metrics
}

// NewGeocode builds the geocoding proxy from config
func NewGeocode(conf config.Config, metrics *api.Metrics) Geocode {
	return Geocode{
		APIKey:  conf.GoogleMapsKey,
		BaseURL: googleMapsBaseURL,
		Client:  &http.Client{Timeout: conf.UpstreamTimeout},
		Metrics: metrics,
	}
}

// Google geocoding API response types.

type googleGeocodeResponse struct {
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status string `json:"status"`
}

// GeocodeHandler resolves a free-text address to coordinates. Upstream
// failures degrade to a fallback payload echoing the query.
func (g Geocode) GeocodeHandler(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		config.ErrorStatus("address query parameter is required", http.StatusBadRequest, w, errors.New("missing address"))
		return
	}

	result, err := g.fetch(r, address)
	if err != nil {
		zap.S().Warnw("geocode failed, serving fallback", "error", err, "address", address)
		g.Metrics.ObserveUpstream("geocode", "fallback")
		writeJSON(w, http.StatusOK, models.UpstreamResponse{
			Success: true,
			Data:    models.GeocodeResult{FormattedAddress: address},
			Source:  models.SourceFallback,
			Error:   "Geolocation failed",
		})
		return
	}

	g.Metrics.ObserveUpstream("geocode", "success")
	writeJSON(w, http.StatusOK, models.UpstreamResponse{
		Success: true,
		Data:    result,
		Source:  models.SourceLive,
	})
}

func (g Geocode) fetch(r *http.Request, address string) (models.GeocodeResult, error) {
	params := url.Values{
		"address": {address},
		"key":     {g.APIKey},
	}
	u := fmt.Sprintf("%s/maps/api/geocode/json?%s", g.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u, nil)
	if err != nil {
		return models.GeocodeResult{}, fmt.Errorf("create geocode request: %w", err)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return models.GeocodeResult{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return models.GeocodeResult{}, fmt.Errorf("geocode API error: status %d: %s", resp.StatusCode, body)
	}

	var decoded googleGeocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.GeocodeResult{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if decoded.Status != "OK" || len(decoded.Results) == 0 {
		return models.GeocodeResult{}, fmt.Errorf("geocode returned no results: status %s", decoded.Status)
	}

	first := decoded.Results[0]
	return models.GeocodeResult{
		FormattedAddress: first.FormattedAddress,
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
	}, nil
}
