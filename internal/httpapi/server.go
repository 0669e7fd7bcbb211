// Package httpapi exposes the Lexiscore practice service as a JSON HTTP API.
//
// Routes (all under /api):
//
//	POST   /api/compare                     score candidate text against a reference
//	GET    /api/passages                    list passages, ?kind= filters
//	POST   /api/passages                    create a passage
//	GET    /api/passages/{id}               fetch one passage
//	PUT    /api/passages/{id}               replace a passage
//	DELETE /api/passages/{id}               delete a passage and its attempts
//	POST   /api/passages/{id}/attempts      submit and score an attempt
//	GET    /api/passages/{id}/attempts      attempt history, ?user_id= filters
//	GET    /api/passages/{id}/leaderboard   ranked best attempts, ?limit= caps
//	GET    /api/users/{id}/stats            per-user aggregate statistics
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/lexiscore/lexiscore/internal/observe"
	"github.com/lexiscore/lexiscore/internal/passage"
	"github.com/lexiscore/lexiscore/internal/practice"
)

// maxBodyBytes caps request bodies. Passages are prose, not uploads.
const maxBodyBytes = 1 << 20

// Server holds the handlers for the practice API.
type Server struct {
	svc *practice.Service
}

// NewServer creates a [Server] backed by svc.
func NewServer(svc *practice.Service) *Server {
	return &Server{svc: svc}
}

// Register adds all API routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/compare", s.handleCompare)
	mux.HandleFunc("GET /api/passages", s.handleListPassages)
	mux.HandleFunc("POST /api/passages", s.handleCreatePassage)
	mux.HandleFunc("GET /api/passages/{id}", s.handleGetPassage)
	mux.HandleFunc("PUT /api/passages/{id}", s.handleUpdatePassage)
	mux.HandleFunc("DELETE /api/passages/{id}", s.handleDeletePassage)
	mux.HandleFunc("POST /api/passages/{id}/attempts", s.handleSubmitAttempt)
	mux.HandleFunc("GET /api/passages/{id}/attempts", s.handleListAttempts)
	mux.HandleFunc("GET /api/passages/{id}/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/users/{id}/stats", s.handleUserStats)
}

// compareRequest is the body of POST /api/compare.
type compareRequest struct {
	Reference string `json:"reference"`
	Candidate string `json:"candidate"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res := s.svc.Compare(r.Context(), req.Reference, req.Candidate)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListPassages(w http.ResponseWriter, r *http.Request) {
	kind := passage.Kind(r.URL.Query().Get("kind"))
	passages, err := s.svc.ListPassages(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, passages)
}

func (s *Server) handleCreatePassage(w http.ResponseWriter, r *http.Request) {
	var p passage.Passage
	if !decodeJSON(w, r, &p) {
		return
	}
	created, err := s.svc.CreatePassage(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetPassage(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetPassage(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePassage(w http.ResponseWriter, r *http.Request) {
	var p passage.Passage
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = r.PathValue("id")
	stored, err := s.svc.UpdatePassage(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeletePassage(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePassage(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// submitRequest is the body of POST /api/passages/{id}/attempts.
type submitRequest struct {
	UserID           string  `json:"user_id"`
	Text             string  `json:"text"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
}

func (s *Server) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Submit(r.Context(), practice.SubmitRequest{
		PassageID:        r.PathValue("id"),
		UserID:           req.UserID,
		Text:             req.Text,
		TimeTakenSeconds: req.TimeTakenSeconds,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := s.svc.Attempts(r.Context(), r.PathValue("id"), r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	board, err := s.svc.Leaderboard(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.UserStats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// apiError is the JSON error body.
type apiError struct {
	Error string `json:"error"`
}

// decodeJSON decodes the request body into v, writing a 400 response and
// returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeError maps service errors onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, practice.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, passage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, passage.ErrDuplicateID):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		observe.Logger(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeJSON(w, status, apiError{Error: "internal error"})
		return
	}
	writeJSON(w, status, apiError{Error: err.Error()})
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failure"}`, http.StatusInternalServerError)
	}
}
