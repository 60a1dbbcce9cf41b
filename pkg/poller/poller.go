// Package poller performs single status queries against the provider and
// normalizes the answer.
package poller

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vyvo/animate/pkg/generation"
	"github.com/vyvo/animate/pkg/metrics"
	"github.com/vyvo/animate/pkg/provider"
)

// Querier fetches raw task results from the provider.
type Querier interface {
	QueryResult(ctx context.Context, taskID string) (provider.Result, error)
}

// Poller is the status poller component.
type Poller struct {
	q      Querier
	logger zerolog.Logger
}

// New returns a Poller backed by q.
func New(q Querier, logger zerolog.Logger) *Poller {
	return &Poller{q: q, logger: logger}
}

// Check queries the provider once for taskID. VideoURL is only populated
// for successful tasks whose result location could be resolved.
func (p *Poller) Check(ctx context.Context, taskID string) (generation.Task, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return generation.Task{}, &generation.ValidationError{Field: "taskId", Msg: "task id is required"}
	}

	started := time.Now()
	res, err := p.q.QueryResult(ctx, taskID)
	metrics.ObserveProvider("query", started)
	if err != nil {
		metrics.RecordStatusQuery("error")
		p.logger.Error().Err(err).Str("task_id", taskID).Msg("task status query failed")
		return generation.Task{}, generation.NewProviderError("query", err)
	}

	task := generation.Task{ID: taskID, Status: generation.NormalizeStatus(res.TaskStatus)}
	if task.Status == generation.StatusSuccess {
		url, field := provider.ResolveVideoURL(res)
		task.VideoURL = url
		if url == "" {
			p.logger.Warn().Str("task_id", taskID).Msg("task succeeded without a recognizable video url")
		} else {
			p.logger.Debug().Str("task_id", taskID).Str("field", field).Msg("resolved video url")
		}
	}
	metrics.RecordStatusQuery(string(task.Status))
	return task, nil
}
