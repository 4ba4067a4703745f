package config

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/models"
)

// Config holds the project config values
type Config struct {
	Port            string
	Env             string
	OpenWeatherKey  string
	GoogleMapsKey   string
	DeepseekKey     string
	DeepseekURL     string
	EonetURL        string
	TwilioSID       string
	TwilioToken     string
	TwilioFrom      string
	SendgridKey     string
	AlertEmail      string
	UpstreamTimeout time.Duration
	ChatTimeout     time.Duration
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	env := os.Getenv("ENV")
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		Port:            envOr("PORT", "5001"),
		Env:             env,
		OpenWeatherKey:  os.Getenv("OPENWEATHER_API_KEY"),
		GoogleMapsKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		DeepseekKey:     os.Getenv("DEEPSEEK_API_KEY"),
		DeepseekURL:     envOr("DEEPSEEK_API_URL", "https://api.deepseek.com"),
		EonetURL:        envOr("EONET_API_URL", "https://eonet.gsfc.nasa.gov"),
		TwilioSID:       os.Getenv("TWILIO_SID"),
		TwilioToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:      os.Getenv("TWILIO_FROM_NUMBER"),
		SendgridKey:     os.Getenv("SENDGRID_API_KEY"),
		AlertEmail:      os.Getenv("ALERT_DIGEST_EMAIL"),
		UpstreamTimeout: envDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		ChatTimeout:     envDuration("CHAT_TIMEOUT", 60*time.Second),
	}

}

// setLogger builds a zap logger matching the deployment environment
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. The error detail is suppressed in production
// so internal messages never leak to callers.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	resp := models.ErrorMessageResponse{Success: false, Message: message}
	if err != nil && os.Getenv("ENV") != "production" {
		resp.Error = err.Error()
	}
	b, _ := json.Marshal(resp)
	w.WriteHeader(httpStatusCode)
	w.Write(b)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		zap.S().Warnf("invalid duration for %s: %v, using default of %v", key, err, fallback)
		return fallback
	}
	return d
}
