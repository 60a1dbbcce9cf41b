package provider

import (
	"context"
	"sync"
)

// Lazy builds the shared Client on first use and hands the same instance to
// every caller afterwards. A construction error is sticky.
type Lazy struct {
	once   sync.Once
	cfg    Config
	client *Client
	err    error
}

// NewLazy returns an accessor that constructs a Client from cfg on demand.
func NewLazy(cfg Config) *Lazy {
	return &Lazy{cfg: cfg}
}

// Get returns the shared client, creating it on the first call.
func (l *Lazy) Get() (*Client, error) {
	l.once.Do(func() {
		l.client, l.err = NewClient(l.cfg)
	})
	return l.client, l.err
}

// CreateGeneration implements submission.Generator on top of the shared client.
func (l *Lazy) CreateGeneration(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	c, err := l.Get()
	if err != nil {
		return GenerateResponse{}, err
	}
	return c.CreateGeneration(ctx, req)
}

// QueryResult implements poller.Querier on top of the shared client.
func (l *Lazy) QueryResult(ctx context.Context, taskID string) (Result, error) {
	c, err := l.Get()
	if err != nil {
		return Result{}, err
	}
	return c.QueryResult(ctx, taskID)
}
