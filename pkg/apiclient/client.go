// Package apiclient calls the service's submission and status endpoints.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vyvo/animate/pkg/generation"
)

// Client interacts with the animate HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client with a bounded per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type submitResponse struct {
	Success bool              `json:"success"`
	TaskID  string            `json:"taskId"`
	Status  generation.Status `json:"status"`
	Error   string            `json:"error"`
}

// Submit posts a generation request and returns the created task.
func (c *Client) Submit(ctx context.Context, req generation.Request) (generation.Task, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return generation.Task{}, fmt.Errorf("marshal generate request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/generate", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return generation.Task{}, fmt.Errorf("create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return generation.Task{}, &generation.ProviderError{Op: "submit", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return generation.Task{}, decodeError(resp, "submit")
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return generation.Task{}, fmt.Errorf("decode generate response: %w", err)
	}
	return generation.Task{ID: out.TaskID, Status: out.Status}, nil
}

// Check fetches the current status of taskID.
func (c *Client) Check(ctx context.Context, taskID string) (generation.Task, error) {
	endpoint := fmt.Sprintf("%s/api/status?taskId=%s", c.baseURL, url.QueryEscape(taskID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return generation.Task{}, fmt.Errorf("create status request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return generation.Task{}, &generation.ProviderError{Op: "query", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return generation.Task{}, decodeError(resp, "query")
	}

	var task generation.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return generation.Task{}, fmt.Errorf("decode status response: %w", err)
	}
	return task, nil
}

// Download streams the video at videoURL into w.
func (c *Client) Download(ctx context.Context, videoURL string, w io.Writer) (int64, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create download request: %w", err)
	}

	// Videos can be large; the download is bounded by ctx instead of the client timeout.
	resp, err := (&http.Client{Transport: c.httpClient.Transport}).Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download video failed: %s", resp.Status)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("write video: %w", err)
	}
	return n, nil
}

// decodeError converts an {error} body into the matching generation error.
func decodeError(resp *http.Response, op string) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(payload))
	if err := json.Unmarshal(payload, &body); err == nil && body.Error != "" {
		msg = body.Error
	}
	if resp.StatusCode == http.StatusBadRequest {
		return &generation.ValidationError{Msg: msg}
	}
	if msg == "" {
		msg = resp.Status
	}
	return &generation.ProviderError{Op: op, Message: msg}
}
