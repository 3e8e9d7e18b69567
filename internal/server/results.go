package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/marksheet/internal/models"
	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/desertthunder/marksheet/internal/tasks"
)

const maxRequestBody = 1 << 20

// Publisher is the slice of [tasks.Publisher] the results API serves.
type Publisher interface {
	PublishBatch(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*models.BatchReport, error)
	PublishOne(ctx context.Context, studentID, term string) (*models.PublishOutcome, error)
	StatusSummary(ctx context.Context) (*tasks.StatusSummary, error)
}

// ResultsHandler serves the publication endpoints under /api/results/.
type ResultsHandler struct {
	publisher Publisher
	logger    *log.Logger
	routes    *BasicRouter

	// batch serializes batch runs; a second concurrent run gets 409.
	batch sync.Mutex
}

// PublishOneRequest is the body of POST /api/results/publish-one.
type PublishOneRequest struct {
	StudentID string `json:"student_id"`
	Term      string `json:"term"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// NewResultsHandler creates a [ResultsHandler].
func NewResultsHandler(publisher Publisher, logger *log.Logger) *ResultsHandler {
	h := &ResultsHandler{publisher: publisher, logger: logger, routes: NewBasicRouter()}
	h.routes.Handle(http.MethodPost, "/api/results/publish", http.HandlerFunc(h.publishBatch))
	h.routes.Handle(http.MethodPost, "/api/results/publish-one", http.HandlerFunc(h.publishOne))
	h.routes.Handle(http.MethodGet, "/api/results/status", NoStore(http.HandlerFunc(h.status)))
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *ResultsHandler) Routes() []string {
	return []string{"/api/results/"}
}

func (h *ResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.routes.ServeHTTP(w, r)
}

func (h *ResultsHandler) publishBatch(w http.ResponseWriter, r *http.Request) {
	if !h.batch.TryLock() {
		writeError(w, http.StatusConflict, errors.New("a publication run is already in progress"))
		return
	}
	defer h.batch.Unlock()

	// a run that has started finishes even if the client goes away
	report, err := h.publisher.PublishBatch(context.WithoutCancel(r.Context()), nil)
	if err != nil {
		h.logger.Error("batch publication failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ResultsHandler) publishOne(w http.ResponseWriter, r *http.Request) {
	var req PublishOneRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	outcome, err := h.publisher.PublishOne(r.Context(), req.StudentID, req.Term)
	if err != nil {
		writeError(w, StatusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *ResultsHandler) status(w http.ResponseWriter, r *http.Request) {
	summary, err := h.publisher.StatusSummary(r.Context())
	if err != nil {
		h.logger.Error("status summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// StatusFor maps a publication error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrOrphanedData),
		errors.Is(err, shared.ErrInvalidRecipient),
		errors.Is(err, shared.ErrAccountRestricted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrDispatchFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// kindOf names the error kind for clients.
func kindOf(err error) string {
	kinds := []struct {
		err  error
		name string
	}{
		{shared.ErrNotFound, "not_found"},
		{shared.ErrOrphanedData, "orphaned_data"},
		{shared.ErrInvalidRecipient, "invalid_recipient"},
		{shared.ErrAccountRestricted, "account_restricted"},
		{shared.ErrRenderFailure, "render_failure"},
		{shared.ErrDispatchFailure, "dispatch_failure"},
		{shared.ErrInvalidInput, "invalid_input"},
		{shared.ErrMissingArgument, "missing_argument"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kindOf(err)})
}
