// Package llm is the transport to the reasoning service: an OpenAI-compatible chat
// completions gateway, plus a deterministic mock for offline runs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"closer-insights-go/internal/logger"
)

// Task names the kind of request; used for logs, metrics and the mock.
type Task string

const (
	TaskPhaseScoring        Task = "phase_scoring"
	TaskObjectionExtraction Task = "objection_extraction"
)

// Request is one system+user exchange.
type Request struct {
	Task        Task
	System      string
	User        string
	Temperature float64
	JSONMode    bool
}

// Client returns the raw text content of the model's reply.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// HTTPDoer allows tests to fake HTTP transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is a non-2xx reply from the gateway.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm gateway status %d: %s", e.Code, e.Message)
}

// Retryable reports whether another attempt could succeed.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests || e.Code == http.StatusRequestTimeout
}

// IsPermanent reports whether err is a gateway rejection that retrying will not fix.
func IsPermanent(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && !se.Retryable()
}

// GatewayClient speaks the chat completions protocol.
type GatewayClient struct {
	url        string
	apiKey     string
	model      string
	httpClient HTTPDoer
	log        *logger.Logger
}

// NewGatewayClient creates a client with sane defaults.
func NewGatewayClient(url, apiKey, model string, httpClient HTTPDoer) *GatewayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &GatewayClient{
		url:        url,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
		log:        logger.ForComponent("llm-gateway"),
	}
}

func (c *GatewayClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.url == "" || c.apiKey == "" {
		return "", &StatusError{Code: http.StatusUnauthorized, Message: "llm gateway not configured"}
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal llm request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build llm request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	log := c.log.WithField("task", req.Task)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.WithError(err).Warn("llm request failed")
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}
	log.WithField("http_status", resp.StatusCode).WithField("payload_len", len(payload)).Debug("llm response received")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
			return "", &StatusError{Code: resp.StatusCode, Message: env.Error.Message}
		}
		return "", &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// some gateways return the bare model output
		if content, ok := ExtractJSON(string(raw)); ok {
			return content, nil
		}
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if parsed.Error.Message != "" {
		return "", fmt.Errorf("llm error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("llm returned no choices")
	}
	msg := parsed.Choices[0].Message
	if strings.TrimSpace(msg.Refusal) != "" {
		return "", fmt.Errorf("llm refusal: %s", strings.TrimSpace(msg.Refusal))
	}
	content, err := messageContent(msg.Content)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", errors.New("llm returned empty content")
	}
	return content, nil
}

// messageContent accepts both a plain string and a list of typed parts.
func messageContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString, nil
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			if p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("unsupported llm message content: %s", string(raw))
}

type chatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
			Refusal string          `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
	Error errorBody `json:"error"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
}
