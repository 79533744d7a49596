package blok

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StartJobRequest is the body for POST /jobs.
type StartJobRequest struct {
	EntryID   string `json:"entryId"`
	Action    string `json:"action"` // mute | block
	PostTitle string `json:"postTitle"`
}

// ResumeJobRequest is the body for POST /jobs/resume.
type ResumeJobRequest struct {
	PostTitle string `json:"postTitle"`
}

// Handler returns the control API. It is the process-local stand-in for the
// original foreground messaging: progress rides the /events SSE stream and
// is best-effort, at-most-once.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/jobs", s.handleStart)
	r.Post("/jobs/resume", s.handleResume)
	r.Post("/jobs/stop", s.handleStop)
	r.Get("/jobs/current", s.handleStatus)
	r.Delete("/jobs/saved", s.handleClearSaved)
	r.Get("/entries/{entryID}/favorites", s.handleFavorites)
	r.Get("/events", s.handleEvents)

	return r
}

func (s *Service) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.EntryID == "" {
		http.Error(w, "entryId required", http.StatusBadRequest)
		return
	}

	err := s.Start(r.Context(), StartRequest{
		EntryID:   req.EntryID,
		Action:    Action(req.Action),
		PostTitle: req.PostTitle,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Service) handleResume(w http.ResponseWriter, r *http.Request) {
	var req ResumeJobRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body is fine
	}

	if err := s.Resume(r.Context(), req.PostTitle); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "resumed"})
}

func (s *Service) handleStop(w http.ResponseWriter, r *http.Request) {
	stopped := s.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": stopped})
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Service) handleClearSaved(w http.ResponseWriter, r *http.Request) {
	if err := s.ClearSaved(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleFavorites(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryID")
	urls, err := s.Favorites(r.Context(), entryID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entryId": entryID, "count": len(urls), "users": urls})
}

// handleEvents streams notifications as server-sent events until the client
// disconnects. A slow client loses messages rather than stalling the job.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := s.broadcast.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case n, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAlreadyRunning), errors.Is(err, ErrUnfinishedOperation):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNoSavedOperation):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidAction), errors.Is(err, ErrNoUsers):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("control api error", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
