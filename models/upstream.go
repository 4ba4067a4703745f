package models

import "time"

// DisasterEvent is one natural event from the NASA EONET feed, flattened
// to the fields the dashboard renders.
type DisasterEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Link        string    `json:"link,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
	Date        time.Time `json:"date"`
}

// DisasterFeedResponse carries one cursor page of the disaster feed
type DisasterFeedResponse struct {
	Success    bool            `json:"success"`
	Data       []DisasterEvent `json:"data"`
	NextCursor string          `json:"nextCursor,omitempty"`
	Source     string          `json:"source"`
	Error      string          `json:"error,omitempty"`
}

// GeocodeResult is the flattened geocoding payload for an address lookup
type GeocodeResult struct {
	FormattedAddress string  `json:"formattedAddress"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
}

// ChatMessage is one turn of a chatbot conversation. Sender is "user" or
// "assistant", matching what the dashboard widget stores.
type ChatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatRequest is the request body for POST /chatbot/message
type ChatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []ChatMessage `json:"conversationHistory"`
}

// ChatResponse wraps a chatbot reply
type ChatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Source   string `json:"source"`
	Error    string `json:"error,omitempty"`
}

// PushRequest is the request body for POST /notifications/push
type PushRequest struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// SmsRequest is the request body for POST /notifications/sms
type SmsRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
}
