// Package submission validates generation requests and hands them to the provider.
package submission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vyvo/animate/pkg/generation"
	"github.com/vyvo/animate/pkg/metrics"
	"github.com/vyvo/animate/pkg/provider"
)

// Generator creates provider-side generation tasks.
type Generator interface {
	CreateGeneration(ctx context.Context, req provider.GenerateRequest) (provider.GenerateResponse, error)
}

// Service is the task submission component.
type Service struct {
	gen    Generator
	logger zerolog.Logger
}

// New returns a Service submitting through gen.
func New(gen Generator, logger zerolog.Logger) *Service {
	return &Service{gen: gen, logger: logger}
}

// Submit validates req, applies defaults and creates the provider task. It
// returns as soon as the provider has accepted the task.
func (s *Service) Submit(ctx context.Context, req generation.Request) (generation.Task, error) {
	params, err := generation.Normalize(req)
	if err != nil {
		metrics.RecordSubmission("invalid")
		return generation.Task{}, err
	}

	requestID := uuid.NewString()
	started := time.Now()
	resp, err := s.gen.CreateGeneration(ctx, provider.GenerateRequest{
		ImageURL:  params.ImageURL,
		Prompt:    params.Prompt,
		Quality:   string(params.Quality),
		Duration:  params.Duration,
		FPS:       params.FPS,
		Size:      params.Size,
		RequestID: requestID,
	})
	metrics.ObserveProvider("submit", started)
	if err != nil {
		metrics.RecordSubmission("provider_error")
		s.logger.Error().Err(err).Str("request_id", requestID).Msg("provider rejected generation task")
		return generation.Task{}, generation.NewProviderError("submit", err)
	}

	task := generation.Task{ID: resp.ID, Status: generation.NormalizeStatus(resp.TaskStatus)}
	metrics.RecordSubmission("accepted")
	s.logger.Info().
		Str("request_id", requestID).
		Str("task_id", task.ID).
		Str("status", string(task.Status)).
		Str("quality", string(params.Quality)).
		Int("duration", params.Duration).
		Int("fps", params.FPS).
		Str("size", params.Size).
		Msg("generation task submitted")
	return task, nil
}
