package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/api"
	"github.com/resqconnect/resqconnect-api/config"
	"github.com/resqconnect/resqconnect-api/models"
)

const (
	expoPushURL    = "https://exp.host/--/api/v2/push/send"
	twilioBaseURL  = "https://api.twilio.com"
	expoBatchLimit = 100
)

// ExpoPushMessage represents a single push notification message for the Expo push API
type ExpoPushMessage struct {
	To        string                 `json:"to"`
	Title     string                 `json:"title,omitempty"`
	Body      string                 `json:"body,omitempty"`
	Sound     string                 `json:"sound,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Priority  string                 `json:"priority,omitempty"`
	ChannelID string                 `json:"channelId,omitempty"`
}

// Notification dispatches disaster alerts over push and SMS
type Notification struct {
	PushURL    string
	TwilioURL  string
	TwilioSID  string
	TwilioAuth string
	TwilioFrom string
	Client     *http.Client
	Metrics    *api.Metrics
}

// NewNotification builds the dispatcher from config
func NewNotification(conf config.Config, metrics *api.Metrics) Notification {
	return Notification{
		PushURL:    expoPushURL,
		TwilioURL:  twilioBaseURL,
		TwilioSID:  conf.TwilioSID,
		TwilioAuth: conf.TwilioToken,
		TwilioFrom: conf.TwilioFrom,
		Client:     &http.Client{Timeout: conf.UpstreamTimeout},
		Metrics:    metrics,
	}
}

// PushHandler sends a disaster alert to a single push token
func (n Notification) PushHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(req.Token) == "" || strings.TrimSpace(req.Message) == "" {
		config.ErrorStatus("token and message are required", http.StatusBadRequest, w, errors.New("missing token or message"))
		return
	}

	if err := n.sendExpoBatch([]ExpoPushMessage{{
		To:        req.Token,
		Title:     "Disaster Alert",
		Body:      req.Message,
		Sound:     "default",
		Priority:  "high",
		ChannelID: "default",
	}}); err != nil {
		n.Metrics.ObserveUpstream("expo", "error")
		config.ErrorStatus("failed to send push notification", http.StatusBadGateway, w, err)
		return
	}

	n.Metrics.ObserveUpstream("expo", "success")
	writeJSON(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Notification sent",
	})
}

// SendPushNotifications sends an alert to a list of push tokens, batched in
// groups of 100 per the Expo API limit. A failed batch does not stop the
// remaining batches.
func (n Notification) SendPushNotifications(tokens []string, title, body string, data map[string]interface{}) error {
	if len(tokens) == 0 {
		return nil
	}

	var messages []ExpoPushMessage
	for _, token := range tokens {
		messages = append(messages, ExpoPushMessage{
			To:        token,
			Title:     title,
			Body:      body,
			Sound:     "default",
			Data:      data,
			Priority:  "high",
			ChannelID: "default",
		})
	}

	for i := 0; i < len(messages); i += expoBatchLimit {
		end := i + expoBatchLimit
		if end > len(messages) {
			end = len(messages)
		}
		if err := n.sendExpoBatch(messages[i:end]); err != nil {
			zap.S().Errorf("Failed to send push batch (tokens %d-%d): %v", i, end-1, err)
		}
	}
	return nil
}

func (n Notification) sendExpoBatch(messages []ExpoPushMessage) error {
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal push messages: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, n.PushURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expo push API error: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

// SmsHandler sends a disaster alert SMS through the Twilio REST API
func (n Notification) SmsHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SmsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if strings.TrimSpace(req.PhoneNumber) == "" || strings.TrimSpace(req.Message) == "" {
		config.ErrorStatus("phoneNumber and message are required", http.StatusBadRequest, w, errors.New("missing phoneNumber or message"))
		return
	}

	if err := n.sendSms(req.PhoneNumber, req.Message); err != nil {
		n.Metrics.ObserveUpstream("twilio", "error")
		config.ErrorStatus("failed to send SMS", http.StatusBadGateway, w, err)
		return
	}

	n.Metrics.ObserveUpstream("twilio", "success")
	writeJSON(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "SMS sent",
	})
}

func (n Notification) sendSms(to, message string) error {
	form := url.Values{
		"Body": {message},
		"From": {n.TwilioFrom},
		"To":   {to},
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", n.TwilioURL, n.TwilioSID)

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(n.TwilioSID, n.TwilioAuth)

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio API error: status %d: %s", resp.StatusCode, body)
	}
	return nil
}
