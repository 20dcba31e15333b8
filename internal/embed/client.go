package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the Gemini embedContent endpoint.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-embedding-001:embedContent"
	// DefaultModel is the embedding model identifier sent with every request.
	DefaultModel = "models/gemini-embedding-001"
	// DefaultRequestTimeout bounds a single provider call.
	DefaultRequestTimeout = 30 * time.Second

	retrievalDocumentTask = "RETRIEVAL_DOCUMENT"
)

// ProviderError carries the provider's HTTP status alongside its message so
// callers can tell quota exhaustion from transient failures.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider status %d: %s", e.StatusCode, e.Message)
}

// Client calls an embedContent-style endpoint and returns raw vectors.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	dimensions int
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(endpoint, model, apiKey string, dimensions int, opts ...ClientOption) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	client := &Client{
		endpoint:   endpoint,
		model:      model,
		apiKey:     apiKey,
		dimensions: dimensions,
		httpClient: &http.Client{
			Timeout: DefaultRequestTimeout,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type embedContentRequest struct {
	Model                string       `json:"model"`
	Content              embedContent `json:"content"`
	TaskType             string       `json:"taskType"`
	OutputDimensionality int          `json:"outputDimensionality,omitempty"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

type embedContentResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

type providerErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed requests one document embedding for the given input text.
func (c *Client) Embed(ctx context.Context, input string) ([]float64, error) {
	if strings.TrimSpace(input) == "" {
		return nil, fmt.Errorf("embedding input is empty")
	}

	body, err := json.Marshal(embedContentRequest{
		Model: c.model,
		Content: embedContent{
			Parts: []embedPart{{Text: input}},
		},
		TaskType:             retrievalDocumentTask,
		OutputDimensionality: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	requestURL := c.endpoint
	if c.apiKey != "" {
		separator := "?"
		if strings.Contains(requestURL, "?") {
			separator = "&"
		}
		requestURL += separator + "key=" + c.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(respBody))
		var errPayload providerErrorResponse
		if unmarshalErr := json.Unmarshal(respBody, &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				message = msg
			}
		}
		return nil, &ProviderError{StatusCode: resp.StatusCode, Message: message}
	}

	var parsed embedContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(parsed.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding response missing values")
	}

	return parsed.Embedding.Values, nil
}
