package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/api"
	"github.com/resqconnect/resqconnect-api/config"
	"github.com/resqconnect/resqconnect-api/models"
)

const openWeatherBaseURL = "https://api.openweathermap.org"

// Weather proxies current-conditions lookups to OpenWeatherMap
type Weather struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Metrics *api.Metrics
}

// NewWeather builds the weather proxy from config
func NewWeather(conf config.Config, metrics *api.Metrics) Weather {
	return Weather{
		APIKey:  conf.OpenWeatherKey,
		BaseURL: openWeatherBaseURL,
		Client:  &http.Client{Timeout: conf.UpstreamTimeout},
		Metrics: metrics,
	}
}

// WeatherHandler returns current weather for a lat/lon pair. Upstream
// failures degrade to a fallback payload rather than an error status.
func (wx Weather) WeatherHandler(w http.ResponseWriter, r *http.Request) {
	lat := r.URL.Query().Get("lat")
	lon := r.URL.Query().Get("lon")
	if lat == "" || lon == "" {
		config.ErrorStatus("lat and lon query parameters are required", http.StatusBadRequest, w, errors.New("missing coordinates"))
		return
	}

	data, err := wx.fetch(r, lat, lon)
	if err != nil {
		zap.S().Warnw("weather fetch failed, serving fallback", "error", err)
		wx.Metrics.ObserveUpstream("openweather", "fallback")
		writeJSON(w, http.StatusOK, models.UpstreamResponse{
			Success: true,
			Data:    weatherFallback(),
			Source:  models.SourceFallback,
			Error:   "Weather data fetch failed",
		})
		return
	}

	wx.Metrics.ObserveUpstream("openweather", "success")
	writeJSON(w, http.StatusOK, models.UpstreamResponse{
		Success: true,
		Data:    data,
		Source:  models.SourceLive,
	})
}

func (wx Weather) fetch(r *http.Request, lat, lon string) (json.RawMessage, error) {
	params := url.Values{
		"lat":   {lat},
		"lon":   {lon},
		"appid": {wx.APIKey},
		"units": {"metric"},
	}
	u := fmt.Sprintf("%s/data/2.5/weather?%s", wx.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}

	resp, err := wx.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read weather response: %w", err)
	}
	return json.RawMessage(raw), nil
}

// weatherFallback is the documented shape served when OpenWeatherMap is
// unreachable: enough for the widget to render without crashing.
func weatherFallback() map[string]interface{} {
	return map[string]interface{}{
		"weather": []map[string]string{{"main": "Unknown", "description": "weather data unavailable"}},
		"main":    map[string]interface{}{"temp": nil, "humidity": nil},
		"name":    "",
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	b, err := json.Marshal(body)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(status)
	w.Write(b)
}
