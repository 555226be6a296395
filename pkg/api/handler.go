package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"exportsync/pkg/extract"
	"exportsync/pkg/pipeline"

	log "github.com/sirupsen/logrus"
)

const defaultRunsLimit = 50

// Server serves the HTTP trigger and the run ledger.
type Server struct {
	runner  Runner
	history History

	target string
	clear  bool
}

// NewServer returns a Server. target and clear are used when a request
// does not set them. history may be nil.
func NewServer(runner Runner, history History, target string, clear bool) *Server {
	return &Server{runner: runner, history: history, target: target, clear: clear}
}

func (s *Server) getIndex(w http.ResponseWriter, r *http.Request) {
	resp := IndexResponse{Status: "ok"}
	if s.history != nil {
		last, err := s.history.Last(r.Context())
		if err != nil {
			log.WithError(err).Warn("Could not read last run")
		}
		resp.LastRun = last
	}
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) getRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		sendJSON(w, http.StatusOK, RunsResponse{})
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		log.WithError(err).Error("Could not list runs")
		sendJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "could not list runs"})
		return
	}
	sendJSON(w, http.StatusOK, RunsResponse{Runs: runs})
}

func (s *Server) postSync(w http.ResponseWriter, r *http.Request) {
	var body SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	req := pipeline.Request{Path: body.Path, Target: s.target, Clear: s.clear}
	if body.Target != nil {
		req.Target = *body.Target
	}
	if body.Clear != nil {
		req.Clear = *body.Clear
	}

	// A dropped client must not leave a half-written sheet behind.
	res, err := s.runner.Run(context.WithoutCancel(r.Context()), req)
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		sendJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, extract.ErrNoCandidate), errors.Is(err, extract.ErrFileNotFound):
		sendJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, extract.ErrInvalidFormat):
		sendJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case res == nil && err != nil:
		log.WithError(err).Error("Run failed")
		sendJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	case err != nil:
		sendJSON(w, http.StatusBadGateway, newSyncResponse(res, err))
	default:
		sendJSON(w, http.StatusOK, newSyncResponse(res, nil))
	}
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("Could not encode response")
		sendResponse(w, http.StatusInternalServerError, []byte(`{"error":"internal error"}`))
		return
	}
	sendResponse(w, status, body)
}

func sendResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
