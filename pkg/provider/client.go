package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyvo/animate/pkg/generation"
)

var tracer = otel.Tracer("github.com/vyvo/animate/pkg/provider")

// ErrMissingAPIKey is returned when the client is built without credentials.
var ErrMissingAPIKey = errors.New("provider api key is not configured")

// Config holds the settings needed to reach the video generation API.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client talks to the provider's asynchronous video generation API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient validates cfg and returns a client with a bounded per-call timeout.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid provider base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// GenerateRequest is the payload of a generation submission.
type GenerateRequest struct {
	Model     string `json:"model,omitempty"`
	ImageURL  string `json:"image_url"`
	Prompt    string `json:"prompt"`
	Quality   string `json:"quality"`
	Duration  int    `json:"duration"`
	FPS       int    `json:"fps"`
	Size      string `json:"size"`
	RequestID string `json:"request_id,omitempty"`
}

// GenerateResponse is returned once the provider accepted a task.
type GenerateResponse struct {
	ID         string    `json:"id"`
	TaskStatus string    `json:"task_status"`
	RequestID  string    `json:"request_id,omitempty"`
	Model      string    `json:"model,omitempty"`
	Error      *APIError `json:"error,omitempty"`
}

// VideoResult is one entry of the list-wrapped result field.
type VideoResult struct {
	URL           string `json:"url,omitempty"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
}

// Result is the raw async-result payload. Providers place the video location
// in different fields; use ResolveVideoURL rather than reading them directly.
type Result struct {
	ID          string        `json:"id,omitempty"`
	TaskStatus  string        `json:"task_status"`
	VideoResult []VideoResult `json:"video_result,omitempty"`
	VideoURL    string        `json:"video_url,omitempty"`
	URL         string        `json:"url,omitempty"`
	ResultURL   string        `json:"result_url,omitempty"`
}

// APIError is the provider's error object.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// CreateGeneration submits a new image-to-video task.
func (c *Client) CreateGeneration(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	ctx, span := tracer.Start(ctx, "provider.CreateGeneration")
	defer span.End()

	if req.Model == "" {
		req.Model = c.model
	}
	body, err := json.Marshal(req)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("marshal generation request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/videos/generations", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var out GenerateResponse
	if err := c.do(httpReq, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GenerateResponse{}, err
	}
	if out.ID == "" {
		msg := "provider returned no task id"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		err := &generation.ProviderError{Op: "submit", Message: msg}
		span.SetStatus(codes.Error, err.Error())
		return GenerateResponse{}, err
	}
	span.SetAttributes(attribute.String("task.id", out.ID), attribute.String("task.status", out.TaskStatus))
	return out, nil
}

// QueryResult fetches the current state of a task.
func (c *Client) QueryResult(ctx context.Context, taskID string) (Result, error) {
	ctx, span := tracer.Start(ctx, "provider.QueryResult",
		trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	endpoint := fmt.Sprintf("%s/async-result/%s", c.baseURL, url.PathEscape(taskID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("create result request: %w", err)
	}

	var out Result
	if err := c.do(httpReq, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.String("task.status", out.TaskStatus))
	return out, nil
}

func (c *Client) do(httpReq *http.Request, out any) error {
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &generation.ProviderError{Message: errorMessage(payload, resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

// errorMessage extracts the provider's message from an error body, falling
// back to the raw text.
func errorMessage(payload []byte, status int) string {
	var env errorEnvelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Error != nil && env.Error.Message != "" {
		return env.Error.Message
	}
	if text := strings.TrimSpace(string(payload)); text != "" {
		return text
	}
	return fmt.Sprintf("provider responded with status %d", status)
}
