package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pollichat/internal/domain"
	"pollichat/internal/domain/models"
)

const (
	// DefaultTimeout is the default HTTP timeout for gateway requests.
	// Completions over large multimodal payloads can take a while.
	DefaultTimeout = 120 * time.Second

	completionsPath = "/v1/chat/completions"
	balancePath     = "/account/balance"
)

// Message is one entry of the outbound message list, in the gateway's
// OpenAI-compatible wire shape.
type Message struct {
	Role    string         `json:"role"`
	Content models.Content `json:"content"`
}

// Completion is a whole (non-streamed) model response. Reasoning is the
// optional trace delivered separately from the visible answer.
type Completion struct {
	Content   string
	Reasoning *string
}

// Client issues requests to the model gateway and its account endpoint.
// No retries: at-most-once delivery per call; retrying is a caller concern.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// NewClientWithHTTP creates a gateway client with a custom HTTP client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
			Thinking         *struct {
				Text string `json:"text"`
			} `json:"thinking"`
		} `json:"message"`
	} `json:"choices"`
}

// Send posts the assembled message list and returns the whole completion.
// Non-success responses become *domain.GatewayError carrying the upstream
// status and body for verbatim display.
func (c *Client) Send(ctx context.Context, model string, messages []Message, credential string) (*Completion, error) {
	if credential == "" {
		return nil, &domain.AuthenticationError{Message: "API key missing"}
	}

	payload, err := json.Marshal(completionRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.GatewayError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse gateway response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("gateway response contained no choices")
	}

	msg := parsed.Choices[0].Message
	completion := &Completion{Content: msg.Content}
	switch {
	case msg.ReasoningContent != "":
		reasoning := msg.ReasoningContent
		completion.Reasoning = &reasoning
	case msg.Thinking != nil && msg.Thinking.Text != "":
		reasoning := msg.Thinking.Text
		completion.Reasoning = &reasoning
	}

	return completion, nil
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

// Balance fetches the account balance for the credential.
func (c *Client) Balance(ctx context.Context, credential string) (float64, error) {
	if credential == "" {
		return 0, &domain.AuthenticationError{Message: "API key missing"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+balancePath, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("balance request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &domain.GatewayError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed balanceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse balance response: %w", err)
	}

	return parsed.Balance, nil
}
