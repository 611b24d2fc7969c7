package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"screen-ocr-translate/src/apperr"
)

// Providers with an OpenAI-compatible chat completions endpoint.
const (
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
)

const (
	groqBaseURL       = "https://api.groq.com/openai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"

	DefaultVisionModel     = "meta-llama/llama-4-maverick-17b-128e-instruct"
	DefaultTextModel       = "llama-3.3-70b-versatile"
	DefaultTranscribeModel = "whisper-large-v3-turbo"

	defaultTimeout = 45 * time.Second
	maxErrorBody   = 4 << 10
)

type Config struct {
	APIKey   string
	Provider string
	// BaseURL overrides the provider endpoint root (".../v1").
	BaseURL         string
	Model           string
	TextModel       string
	TranscribeModel string
	Timeout         time.Duration
	HTTPClient      *http.Client
}

// Client talks to the recognition, translation and transcription endpoints.
// It never retries; one capture attempt is one request.
type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGroq
	}
	if cfg.Model == "" {
		cfg.Model = DefaultVisionModel
	}
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.TranscribeModel == "" {
		cfg.TranscribeModel = DefaultTranscribeModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: hc}
}

// WithKey returns a copy of c that authenticates with key and provider. An
// empty provider keeps the current one.
func (c *Client) WithKey(key, provider string) *Client {
	cfg := c.cfg
	cfg.APIKey = key
	if provider != "" && provider != cfg.Provider {
		cfg.Provider = provider
		if c.cfg.Model == DefaultVisionModel && provider == ProviderOpenRouter {
			cfg.Model = "meta-llama/llama-4-maverick"
		}
	}
	return &Client{cfg: cfg, http: c.http}
}

func (c *Client) Config() Config { return c.cfg }

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return strings.TrimRight(c.cfg.BaseURL, "/")
	}
	if c.cfg.Provider == ProviderOpenRouter {
		return openRouterBaseURL
	}
	return groqBaseURL
}

func (c *Client) checkKey() error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return apperr.Config("API key is not configured. Set it with `screen-ocr-translate settings set apiKey <key>` or GROQ_API_KEY")
	}
	return nil
}

// Chat completion wire types.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ChatResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Message ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Content string `json:"content"`
}

type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"` // Can be string or number
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (type: %s)", e.Message, e.Type)
}

// chat sends one chat completion and returns the first choice's content.
func (c *Client) chat(ctx context.Context, op string, request ChatRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Transport(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Transport(op, fmt.Errorf("read response: %w", err))
	}
	if err := statusError(resp.StatusCode, raw); err != nil {
		return "", apperr.Transport(op, err)
	}

	var response ChatResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return "", apperr.Parse(string(raw), fmt.Errorf("failed to decode response: %w", err))
	}
	if response.Error != nil {
		return "", apperr.Transport(op, response.Error)
	}
	if len(response.Choices) == 0 {
		return "", apperr.Parse(string(raw), fmt.Errorf("no choices in API response"))
	}
	return response.Choices[0].Message.Content, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Provider == ProviderOpenRouter {
		req.Header.Set("X-Title", "Screen OCR Translate")
	}
}

// statusError turns a non-2xx response into an error carrying the API's own
// message when it sent one.
func statusError(code int, raw []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	var payload ChatResponse
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != nil && payload.Error.Message != "" {
		return fmt.Errorf("API returned status %d: %w", code, payload.Error)
	}
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return fmt.Errorf("API returned status %d: %s", code, msg)
	}
	return fmt.Errorf("API returned status %d", code)
}

// Ping verifies the key and endpoint by listing models.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.checkKey(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Transport("ping", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := statusError(resp.StatusCode, raw); err != nil {
		return apperr.Transport("ping", err)
	}
	return nil
}
