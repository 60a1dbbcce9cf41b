package session

import (
	"context"
	"fmt"
	"time"

	"github.com/vyvo/animate/pkg/generation"
)

// scheduleLocked queues the next status query for the current task. The step
// carries the epoch and task id it was scheduled for so that a reset, or a
// new task, turns it into a no-op.
func (s *Session) scheduleLocked(delay time.Duration) {
	epoch, taskID := s.epoch, s.task.ID
	s.cancelTimer = s.sched.Schedule(delay, func() { s.poll(epoch, taskID) })
}

func (s *Session) isCurrentLocked(epoch uint64, taskID string) bool {
	return s.epoch == epoch && s.state == StatePolling && s.task != nil && s.task.ID == taskID
}

func (s *Session) poll(epoch uint64, taskID string) {
	s.mu.Lock()
	if !s.isCurrentLocked(epoch, taskID) {
		s.mu.Unlock()
		return
	}
	s.cancelTimer = nil
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelQuery = cancel
	s.mu.Unlock()

	task, err := s.checker.Check(ctx, taskID)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isCurrentLocked(epoch, taskID) {
		s.logger.Debug().Str("task_id", taskID).Msg("discarding stale status response")
		return
	}
	s.cancelQuery = nil

	switch {
	case err != nil:
		s.finishLocked(StateFailed, generation.NewProviderError("query", err))
	case task.Status == generation.StatusSuccess && task.VideoURL != "":
		s.progress = 100
		s.videoURL = task.VideoURL
		s.task.Status = task.Status
		s.task.VideoURL = task.VideoURL
		s.message = "Video ready!"
		s.finishLocked(StateSucceeded, nil)
	case task.Status == generation.StatusFail:
		s.task.Status = task.Status
		s.finishLocked(StateFailed, &generation.GenerationFailure{TaskID: taskID})
	default:
		s.task.Status = task.Status
		s.attempts++
		if p := estimateProgress(s.attempts, s.maxAttempts); p > s.progress {
			s.progress = p
		}
		if s.attempts >= s.maxAttempts {
			s.finishLocked(StateTimedOut, &generation.TimeoutError{Elapsed: time.Duration(s.attempts) * s.interval})
			return
		}
		s.message = fmt.Sprintf("Generating video... %s elapsed (attempt %d/%d)",
			s.now().Sub(s.startedAt).Round(time.Second), s.attempts, s.maxAttempts)
		s.scheduleLocked(s.interval)
		s.notifyLocked()
	}
}

// estimateProgress interpolates linearly from InitialProgress towards
// MaxPollingProgress as attempts approach the ceiling.
func estimateProgress(attempts, maxAttempts int) int {
	p := InitialProgress + (MaxPollingProgress-InitialProgress)*attempts/maxAttempts
	if p > MaxPollingProgress {
		return MaxPollingProgress
	}
	return p
}
