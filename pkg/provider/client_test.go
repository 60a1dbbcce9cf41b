package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyvo/animate/pkg/generation"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/api/paas/v4", APIKey: "secret", Model: "cogvideox-3"})
	require.NoError(t, err)
	return c
}

func TestCreateGeneration(t *testing.T) {
	var got GenerateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/paas/v4/videos/generations", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(GenerateResponse{ID: "task-1", TaskStatus: "PROCESSING"})
	})

	resp, err := c.CreateGeneration(context.Background(), GenerateRequest{
		ImageURL: "data:image/png;base64,AAAA",
		Prompt:   "move",
		Quality:  "speed",
		Duration: 5,
		FPS:      30,
		Size:     "1024x1024",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", resp.ID)
	assert.Equal(t, "PROCESSING", resp.TaskStatus)
	assert.Equal(t, "cogvideox-3", got.Model)
	assert.Equal(t, "1024x1024", got.Size)
}

func TestCreateGenerationProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"1113","message":"insufficient balance"}}`))
	})

	_, err := c.CreateGeneration(context.Background(), GenerateRequest{ImageURL: "data:image/png;base64,AAAA"})
	var pe *generation.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "insufficient balance", pe.Message)
}

func TestCreateGenerationErrorInSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"1214","message":"image_url is invalid"}}`))
	})

	_, err := c.CreateGeneration(context.Background(), GenerateRequest{})
	require.Error(t, err)
	assert.Equal(t, "image_url is invalid", err.Error())
}

func TestQueryResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/paas/v4/async-result/task-9", r.URL.Path)
		_, _ = w.Write([]byte(`{"task_status":"SUCCESS","video_result":[{"url":"https://cdn/v.mp4","cover_image_url":"https://cdn/c.png"}]}`))
	})

	res, err := c.QueryResult(context.Background(), "task-9")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", res.TaskStatus)
	u, field := ResolveVideoURL(res)
	assert.Equal(t, "https://cdn/v.mp4", u)
	assert.Equal(t, "video_result[0].url", field)
}

func TestQueryResultPlainTextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := c.QueryResult(context.Background(), "task-9")
	require.Error(t, err)
	assert.Equal(t, "upstream down", err.Error())
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "https://example.com"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewClient(Config{BaseURL: "not a url", APIKey: "k"})
	assert.Error(t, err)
}

func TestLazyBuildsOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"task_status":"PROCESSING"}`))
	}))
	defer srv.Close()

	l := NewLazy(Config{BaseURL: srv.URL, APIKey: "k"})
	first, err := l.Get()
	require.NoError(t, err)
	second, err := l.Get()
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = l.QueryResult(context.Background(), "t")
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestLazyStickyError(t *testing.T) {
	l := NewLazy(Config{BaseURL: "https://example.com"})
	_, err := l.CreateGeneration(context.Background(), GenerateRequest{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	_, err = l.QueryResult(context.Background(), "t")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
