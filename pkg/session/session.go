// Package session drives one image through upload, submission and polling
// until a video is ready, the provider gives up or the poll ceiling is hit.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vyvo/animate/pkg/generation"
	"github.com/vyvo/animate/pkg/metrics"
)

// State is a node of the session state machine.
type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
	StateTimedOut   State = "timed_out"
)

// IsTerminal reports whether the state ends a generation attempt.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

const (
	MaxUploadBytes      = 10 << 20
	DefaultPollInterval = 3 * time.Second
	DefaultMaxAttempts  = 200
	InitialProgress     = 20
	MaxPollingProgress  = 90
)

var (
	// ErrNoImage is returned by Generate before an image was accepted.
	ErrNoImage = errors.New("upload an image first")
	// ErrBusy is returned by Generate while a task is already in flight.
	ErrBusy = errors.New("a generation is already in progress")
	// ErrSuperseded is returned by Generate when the session was reset or
	// given a new image while the submission was in flight.
	ErrSuperseded = errors.New("generation was cancelled")
)

// Submitter creates a generation task.
type Submitter interface {
	Submit(ctx context.Context, req generation.Request) (generation.Task, error)
}

// StatusChecker queries a task's status once.
type StatusChecker interface {
	Check(ctx context.Context, taskID string) (generation.Task, error)
}

// Options are the user supplied generation parameters. Zero values are
// defaulted by the submission endpoint.
type Options struct {
	Prompt   string
	Quality  string
	Duration int
	FPS      int
	Size     string
}

// Snapshot is an immutable view of the session.
type Snapshot struct {
	SessionID string
	State     State
	ImageName string
	TaskID    string
	Attempts  int
	Progress  int
	Message   string
	VideoURL  string
	Err       error
}

type image struct {
	name    string
	mime    string
	dataURL string
}

// Session is a single generation session. Methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id          string
	submitter   Submitter
	checker     StatusChecker
	sched       Scheduler
	now         func() time.Time
	interval    time.Duration
	maxAttempts int
	logger      zerolog.Logger
	observers   []func(Snapshot)

	state     State
	image     *image
	task      *generation.Task
	epoch     uint64
	attempts  int
	progress  int
	message   string
	videoURL  string
	err       error
	startedAt time.Time
	done      chan struct{}

	cancelTimer func()
	cancelQuery context.CancelFunc
}

// Option configures a Session.
type Option func(*Session)

// WithScheduler replaces the timer based scheduler.
func WithScheduler(s Scheduler) Option { return func(ss *Session) { ss.sched = s } }

// WithClock replaces time.Now for elapsed time reporting.
func WithClock(now func() time.Time) Option { return func(ss *Session) { ss.now = now } }

// WithPollInterval sets the spacing between status queries.
func WithPollInterval(d time.Duration) Option { return func(ss *Session) { ss.interval = d } }

// WithMaxAttempts sets the poll ceiling.
func WithMaxAttempts(n int) Option { return func(ss *Session) { ss.maxAttempts = n } }

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option { return func(ss *Session) { ss.logger = l } }

// WithObserver registers fn to receive a snapshot after every transition.
// Observers run with the session locked and must not call back into it.
func WithObserver(fn func(Snapshot)) Option {
	return func(ss *Session) { ss.observers = append(ss.observers, fn) }
}

// New returns an idle session.
func New(submitter Submitter, checker StatusChecker, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		submitter:   submitter,
		checker:     checker,
		sched:       TimerScheduler{},
		now:         time.Now,
		interval:    DefaultPollInterval,
		maxAttempts: DefaultMaxAttempts,
		logger:      zerolog.Nop(),
		state:       StateIdle,
		done:        closedChan(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = DefaultPollInterval
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	s.logger = s.logger.With().Str("session_id", s.id).Logger()
	return s
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Upload validates and stores an image, discarding any previous task or result.
// A rejected image leaves the session untouched.
func (s *Session) Upload(name string, data []byte) error {
	if len(data) == 0 {
		return &generation.ValidationError{Field: "image", Msg: "image is empty"}
	}
	if len(data) > MaxUploadBytes {
		return &generation.ValidationError{Field: "image", Msg: fmt.Sprintf("image is larger than %dMB", MaxUploadBytes>>20)}
	}
	mime := mimetype.Detect(data).String()
	if !strings.HasPrefix(mime, "image/") {
		return &generation.ValidationError{Field: "image", Msg: fmt.Sprintf("%s is not an image", mime)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.image = &image{name: name, mime: mime, dataURL: generation.EncodeDataURL(mime, data)}
	s.state = StateUploading
	s.message = fmt.Sprintf("Image %q ready", name)
	s.logger.Info().Str("image", name).Str("mime", mime).Int("bytes", len(data)).Msg("image accepted")
	s.notifyLocked()
	return nil
}

// Generate submits the uploaded image and starts polling. It returns once the
// provider accepted the task; use Done to wait for the outcome.
func (s *Session) Generate(ctx context.Context, opts Options) (generation.Task, error) {
	s.mu.Lock()
	if s.image == nil {
		s.mu.Unlock()
		return generation.Task{}, ErrNoImage
	}
	if s.state == StateSubmitting || s.state == StatePolling {
		s.mu.Unlock()
		return generation.Task{}, ErrBusy
	}
	s.clearTaskLocked()
	epoch := s.epoch
	s.done = make(chan struct{})
	s.state = StateSubmitting
	s.message = "Submitting generation task..."
	req := generation.Request{
		ImageData: s.image.dataURL,
		Prompt:    opts.Prompt,
		Quality:   opts.Quality,
		Duration:  opts.Duration,
		FPS:       opts.FPS,
		Size:      opts.Size,
	}
	s.notifyLocked()
	s.mu.Unlock()

	task, err := s.submitter.Submit(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug().Str("task_id", task.ID).Msg("discarding submission after reset")
		return generation.Task{}, ErrSuperseded
	}
	if err != nil {
		s.finishLocked(StateFailed, err)
		return generation.Task{}, err
	}

	s.task = &task
	s.state = StatePolling
	s.progress = InitialProgress
	s.startedAt = s.now()
	s.message = "Task submitted, generating video..."
	s.logger.Info().Str("task_id", task.ID).Msg("generation started")
	s.scheduleLocked(0)
	s.notifyLocked()
	return task, nil
}

// Reset returns the session to Idle from any state. Pending polls are
// cancelled locally and responses for the abandoned task are ignored.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.image = nil
	s.state = StateIdle
	s.notifyLocked()
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Done is closed once the current generation reaches a terminal state or is
// abandoned by Reset or Upload.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		State:     s.state,
		Attempts:  s.attempts,
		Progress:  s.progress,
		Message:   s.message,
		VideoURL:  s.videoURL,
		Err:       s.err,
	}
	if s.image != nil {
		snap.ImageName = s.image.name
	}
	if s.task != nil {
		snap.TaskID = s.task.ID
	}
	return snap
}

func (s *Session) notifyLocked() {
	if len(s.observers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, fn := range s.observers {
		fn(snap)
	}
}

// clearLocked abandons any in-flight work and drops task and result state.
func (s *Session) clearLocked() {
	s.clearTaskLocked()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *Session) clearTaskLocked() {
	if s.cancelTimer != nil {
		s.cancelTimer()
		s.cancelTimer = nil
	}
	if s.cancelQuery != nil {
		s.cancelQuery()
		s.cancelQuery = nil
	}
	s.epoch++
	s.task = nil
	s.attempts = 0
	s.progress = 0
	s.message = ""
	s.videoURL = ""
	s.err = nil
	s.startedAt = time.Time{}
}

func (s *Session) finishLocked(state State, err error) {
	s.state = state
	s.err = err
	if err != nil {
		s.message = err.Error()
	}
	if s.cancelTimer != nil {
		s.cancelTimer()
		s.cancelTimer = nil
	}
	s.cancelQuery = nil
	metrics.RecordSessionOutcome(string(state))

	ev := s.logger.Info()
	if err != nil {
		ev = s.logger.Warn().Err(err)
	}
	ev.Str("state", string(state)).Int("attempts", s.attempts).Msg("generation finished")

	s.notifyLocked()
	close(s.done)
}
