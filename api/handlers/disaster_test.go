package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resqconnect/resqconnect-api/api/handlers"
	"github.com/resqconnect/resqconnect-api/databases"
	"github.com/resqconnect/resqconnect-api/models"
)

const eonetHandlerSample = `{
	"events": [
		{
			"id": "EONET_0001",
			"title": "Wildfire - Northern California",
			"link": "https://eonet.gsfc.nasa.gov/api/v3/events/EONET_0001",
			"categories": [{"id": "wildfires", "title": "Wildfires"}],
			"geometry": [{"date": "2024-03-09T00:00:00Z", "type": "Point", "coordinates": [-122.1, 39.7]}]
		},
		{
			"id": "EONET_0002",
			"title": "Tropical Storm Delta",
			"link": "https://eonet.gsfc.nasa.gov/api/v3/events/EONET_0002",
			"categories": [{"id": "severeStorms", "title": "Severe Storms"}],
			"geometry": [{"date": "2024-03-10T00:00:00Z", "type": "Point", "coordinates": [-80.2, 25.8]}]
		}
	]
}`

func TestDisastersHandlerLazyRefreshAndPaging(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(eonetHandlerSample))
	}))
	defer upstream.Close()

	d := handlers.DisasterFeed{DB: databases.NewDisasterFeedDatabase(upstream.URL, 2*time.Second, nil)}

	req := httptest.NewRequest("GET", "/api/v1/disasters?limit=1", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(d.DisastersHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.DisasterFeedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.SourceLive, resp.Source)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "EONET_0001", resp.Data[0].ID)
	assert.Equal(t, "EONET_0001", resp.NextCursor)

	// second page picks up after the cursor, and the warm cache answers
	req = httptest.NewRequest("GET", "/api/v1/disasters?limit=1&after=EONET_0001", nil)
	rr = httptest.NewRecorder()
	http.HandlerFunc(d.DisastersHandler).ServeHTTP(rr, req)

	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.SourceCache, resp.Source)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "EONET_0002", resp.Data[0].ID)
}

func TestDisastersHandlerServesFallbackWhenFeedNeverLoaded(t *testing.T) {
	d := handlers.DisasterFeed{DB: databases.NewDisasterFeedDatabase("http://127.0.0.1:0", time.Second, nil)}

	req := httptest.NewRequest("GET", "/api/v1/disasters", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(d.DisastersHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.DisasterFeedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.SourceFallback, resp.Source)
	assert.Equal(t, "Error fetching disasters", resp.Error)
	require.NotEmpty(t, resp.Data)
	assert.Equal(t, "fallback-1", resp.Data[0].ID)
}

func TestGeocodeHandlerRequiresAddress(t *testing.T) {
	g := handlers.Geocode{Client: http.DefaultClient}

	req := httptest.NewRequest("GET", "/api/v1/disasters/geocode", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(g.GeocodeHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "address query parameter is required")
}

func TestGeocodeHandlerResolvesAddress(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "New Orleans, LA", r.URL.Query().Get("address"))
		w.Write([]byte(`{"status":"OK","results":[{"formatted_address":"New Orleans, LA, USA","geometry":{"location":{"lat":29.95,"lng":-90.07}}}]}`))
	}))
	defer upstream.Close()

	g := handlers.Geocode{
		APIKey:  "test-key",
		BaseURL: upstream.URL,
		Client:  &http.Client{Timeout: 2 * time.Second},
	}

	req := httptest.NewRequest("GET", "/api/v1/disasters/geocode?address=New+Orleans%2C+LA", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(g.GeocodeHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "New Orleans, LA, USA")
	assert.Contains(t, rr.Body.String(), `"source":"live"`)
}

func TestGeocodeHandlerFallsBackEchoingAddress(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	}))
	defer upstream.Close()

	g := handlers.Geocode{
		APIKey:  "test-key",
		BaseURL: upstream.URL,
		Client:  &http.Client{Timeout: 2 * time.Second},
	}

	req := httptest.NewRequest("GET", "/api/v1/disasters/geocode?address=Nowhere", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(g.GeocodeHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.UpstreamResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.SourceFallback, resp.Source)
	assert.Equal(t, "Geolocation failed", resp.Error)
	assert.Contains(t, rr.Body.String(), "Nowhere")
}
