package submission

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyvo/animate/pkg/generation"
	"github.com/vyvo/animate/pkg/provider"
)

const imageData = "data:image/jpeg;base64,/9j/4AAQ"

type fakeGenerator struct {
	calls []provider.GenerateRequest
	resp  provider.GenerateResponse
	err   error
}

func (f *fakeGenerator) CreateGeneration(_ context.Context, req provider.GenerateRequest) (provider.GenerateResponse, error) {
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func TestSubmitDefaults(t *testing.T) {
	gen := &fakeGenerator{resp: provider.GenerateResponse{ID: "abc", TaskStatus: "PROCESSING"}}
	svc := New(gen, zerolog.Nop())

	task, err := svc.Submit(context.Background(), generation.Request{ImageData: imageData})
	require.NoError(t, err)
	assert.Equal(t, generation.Task{ID: "abc", Status: generation.StatusProcessing}, task)

	require.Len(t, gen.calls, 1)
	got := gen.calls[0]
	assert.Equal(t, imageData, got.ImageURL)
	assert.Equal(t, "Make this image come alive with smooth, loopable motion", got.Prompt)
	assert.Equal(t, "speed", got.Quality)
	assert.Equal(t, 5, got.Duration)
	assert.Equal(t, 30, got.FPS)
	assert.Equal(t, "1024x1024", got.Size)
	_, err = uuid.Parse(got.RequestID)
	assert.NoError(t, err)
}

func TestSubmitForwardsExplicitValues(t *testing.T) {
	gen := &fakeGenerator{resp: provider.GenerateResponse{ID: "abc"}}
	svc := New(gen, zerolog.Nop())

	task, err := svc.Submit(context.Background(), generation.Request{
		ImageData: imageData,
		Prompt:    "leaves drifting",
		Quality:   "quality",
		Duration:  10,
		FPS:       60,
		Size:      "1920x1080",
	})
	require.NoError(t, err)
	assert.Equal(t, generation.StatusPending, task.Status)

	got := gen.calls[0]
	assert.Equal(t, "leaves drifting", got.Prompt)
	assert.Equal(t, "quality", got.Quality)
	assert.Equal(t, 10, got.Duration)
	assert.Equal(t, 60, got.FPS)
	assert.Equal(t, "1920x1080", got.Size)
}

func TestSubmitValidationSkipsProvider(t *testing.T) {
	gen := &fakeGenerator{}
	svc := New(gen, zerolog.Nop())

	for _, data := range []string{"", "hello", "data:application/pdf;base64,JVBE"} {
		_, err := svc.Submit(context.Background(), generation.Request{ImageData: data})
		var ve *generation.ValidationError
		assert.True(t, errors.As(err, &ve), "input %q: got %v", data, err)
	}
	assert.Empty(t, gen.calls)
}

func TestSubmitProviderError(t *testing.T) {
	gen := &fakeGenerator{err: &generation.ProviderError{Message: "invalid api key"}}
	svc := New(gen, zerolog.Nop())

	_, err := svc.Submit(context.Background(), generation.Request{ImageData: imageData})
	var pe *generation.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "submit", pe.Op)
	assert.Equal(t, "invalid api key", err.Error())
}

func TestSubmitTransportError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("dial tcp: connection refused")}
	svc := New(gen, zerolog.Nop())

	_, err := svc.Submit(context.Background(), generation.Request{ImageData: imageData})
	require.Error(t, err)
	assert.Equal(t, "failed to submit generation task", err.Error())
}
