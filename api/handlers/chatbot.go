package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/resqconnect/resqconnect-api/api"
	"github.com/resqconnect/resqconnect-api/config"
	"github.com/resqconnect/resqconnect-api/models"
)

const chatModel = "deepseek-chat"

// chatSystemPrompt steers the assistant toward disaster-response guidance.
const chatSystemPrompt = `You are ResQConnect assistant, specialized in providing disaster management and emergency response information.
Your goal is to provide helpful, accurate, and concise information about emergency procedures, safety tips, and disaster response.
For emergency situations, always remind the user to call emergency services (911) first.
Keep responses under 150 words unless detailed safety instructions are needed.
Always prioritize safety and official guidance from emergency management authorities.`

// chatFallbackResponse is served when the LLM is unreachable or unconfigured.
const chatFallbackResponse = `I'm currently unable to reach the assistant service. ` +
	`If this is an emergency, call 911 immediately. For preparedness guidance, ` +
	`consult your local emergency management authority or ready.gov.`

// Chat proxies conversation turns to the DeepSeek chat API
type Chat struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Metrics *api.Metrics
}

// NewChat builds the chatbot proxy from config
func NewChat(conf config.Config, metrics *api.Metrics) Chat {
	return Chat{
		APIKey:  conf.DeepseekKey,
		BaseURL: conf.DeepseekURL,
		Client:  &http.Client{Timeout: conf.ChatTimeout},
		Metrics: metrics,
	}
}

// DeepSeek request/response types (OpenAI-compatible schema).

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	MaxTokens   int                     `json:"max_tokens"`
	Temperature float64                 `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

// MessageHandler exchanges one chatbot turn. LLM failures degrade to a
// canned safety response, never an error status.
func (c Chat) MessageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.Message == "" {
		config.ErrorStatus("Please provide a message", http.StatusBadRequest, w, errors.New("empty message"))
		return
	}

	if c.APIKey == "" {
		zap.S().Warn("no chat API key configured, serving fallback response")
		c.Metrics.ObserveUpstream("deepseek", "fallback")
		writeJSON(w, http.StatusOK, models.ChatResponse{
			Success:  true,
			Response: chatFallbackResponse,
			Source:   models.SourceFallback,
		})
		return
	}

	reply, err := c.complete(r, req)
	if err != nil {
		zap.S().Warnw("chat completion failed, serving fallback", "error", err)
		c.Metrics.ObserveUpstream("deepseek", "fallback")
		writeJSON(w, http.StatusOK, models.ChatResponse{
			Success:  true,
			Response: chatFallbackResponse,
			Source:   models.SourceFallback,
			Error:    "Failed to get chatbot response",
		})
		return
	}

	c.Metrics.ObserveUpstream("deepseek", "success")
	writeJSON(w, http.StatusOK, models.ChatResponse{
		Success:  true,
		Response: reply,
		Source:   models.SourceLive,
	})
}

func (c Chat) complete(r *http.Request, req models.ChatRequest) (string, error) {
	messages := make([]chatCompletionMessage, 0, len(req.ConversationHistory)+2)
	messages = append(messages, chatCompletionMessage{Role: "system", Content: chatSystemPrompt})
	for _, msg := range req.ConversationHistory {
		role := "assistant"
		if msg.Sender == "user" {
			role = "user"
		}
		messages = append(messages, chatCompletionMessage{Role: role, Content: msg.Text})
	}
	messages = append(messages, chatCompletionMessage{Role: "user", Content: req.Message})

	body, err := json.Marshal(chatCompletionRequest{
		Model:       chatModel,
		Messages:    messages,
		MaxTokens:   800,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat API error: status %d: %s", resp.StatusCode, raw)
	}

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("chat API returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
