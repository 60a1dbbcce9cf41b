package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vyvo/animate/pkg/generation"
)

// GenerateResponse is returned when the provider accepted a task.
type GenerateResponse struct {
	Success bool              `json:"success"`
	TaskID  string            `json:"taskId"`
	Status  generation.Status `json:"status"`
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generation.Request
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.submitter.Submit(r.Context(), req)
	if err != nil {
		status := generation.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			s.opts.Logger.Error().Err(err).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("generation submission failed")
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{Success: true, TaskID: task.ID, Status: task.Status})
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("taskId")

	task, err := s.status.Check(r.Context(), taskID)
	if err != nil {
		status := generation.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			s.opts.Logger.Error().Err(err).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("task_id", taskID).
				Msg("task status lookup failed")
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, task)
}
