package llamacpp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/samcharles93/llamabricks/internal/metrics"
)

// LoopbackHost is the only interface llama-server is bound to.
const LoopbackHost = "127.0.0.1"

// Client calls the llama-server HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient targets llama-server on the loopback interface at port.
func NewClient(port int) *Client {
	return NewClientURL(fmt.Sprintf("http://%s:%d", LoopbackHost, port))
}

// NewClientURL targets an explicit base URL.
func NewClientURL(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: GenerateTimeout},
	}
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type completionResponse struct {
	Content string `json:"content"`
}

// Complete POSTs {prompt, ...params} to /completion and returns the content
// field of the answer. params are forwarded verbatim.
func (c *Client) Complete(ctx context.Context, prompt string, params map[string]any) (string, error) {
	body := make(map[string]any, len(params)+1)
	maps.Copy(body, params)
	body["prompt"] = prompt

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completion", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveEngine("http", "transport_error")
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveEngine("http", "transport_error")
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveEngine("http", "http_error")
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		metrics.ObserveEngine("http", "decode_error")
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	metrics.ObserveEngine("http", "ok")
	return out.Content, nil
}

// Health sends GET /health. Anything but 200 wraps ErrNotReady.
func (c *Client) Health(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(healthCtx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrNotReady, resp.StatusCode)
	}
	return nil
}
