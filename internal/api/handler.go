// Package api exposes the registration intake over HTTP.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vofmun/registrar/internal/log"
	"github.com/vofmun/registrar/internal/registration"
	"github.com/vofmun/registrar/internal/storage"
)

// Committer runs one submission through the intake pipeline.
type Committer interface {
	Commit(ctx context.Context, env *registration.Envelope) (*registration.Outcome, error)
}

// Handler provides the HTTP endpoints for registration intake.
type Handler struct {
	committer Committer
	db        *sql.DB
}

// NewHandler creates a handler over the committer. db is optional and
// only used by the health endpoint.
func NewHandler(committer Committer, db *sql.DB) *Handler {
	return &Handler{committer: committer, db: db}
}

// Routes returns an http.Handler with all API routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/signup", h.Signup)
	mux.HandleFunc("GET /health", h.Health)
	return mux
}

// === Request/Response Types ===

// SuccessResponse is the response body for a committed registration.
type SuccessResponse struct {
	Status  string `json:"status"`
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// ErrorResponse is the response body for rejected submissions.
type ErrorResponse struct {
	Status  string                    `json:"status"`
	Message string                    `json:"message"`
	Errors  []registration.FieldError `json:"errors,omitempty"`
}

// ReferralRejection is the response body for unknown referral codes. Each
// rejected code carries its ranked alternatives so the client can render
// a "did you mean" prompt.
type ReferralRejection struct {
	Status      string           `json:"status"`
	Message     string           `json:"message"`
	Suggestions []CodeSuggestion `json:"suggestions"`
}

// CodeSuggestion pairs one rejected code with its candidates.
type CodeSuggestion struct {
	Code        string          `json:"code"`
	Suggestions []SuggestedCode `json:"suggestions"`
}

// SuggestedCode is one ranked alternative.
type SuggestedCode struct {
	Code  string `json:"code"`
	Owner string `json:"owner,omitempty"`
}

// HealthResponse is the response body for the health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// === Handlers ===

// Signup accepts one registration submission and runs it through the
// commit pipeline.
// POST /api/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var env registration.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	outcome, err := h.committer.Commit(r.Context(), &env)
	if err != nil {
		h.writeCommitError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, SuccessResponse{
		Status:  "success",
		UserID:  outcome.UserID,
		Message: outcome.Message,
	})
}

// writeCommitError classifies a pipeline error into exactly one response.
// Classification happens here and nowhere else; inner layers pass errors
// through unchanged.
func (h *Handler) writeCommitError(w http.ResponseWriter, err error) {
	var verr *registration.ValidationError
	if errors.As(err, &verr) {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Status:  "error",
			Message: "Validation error",
			Errors:  verr.Fields,
		})
		return
	}

	var rerr *registration.ReferralError
	if errors.As(err, &rerr) {
		h.writeJSON(w, http.StatusBadRequest, referralRejection(rerr))
		return
	}

	if errors.Is(err, registration.ErrEmailExists) {
		h.writeError(w, http.StatusConflict, "An account with this email already exists.")
		return
	}

	if errors.Is(err, storage.ErrBadProofPayload) {
		h.writeError(w, http.StatusBadRequest, "The payment proof file could not be read. Please upload it again.")
		return
	}

	var cfgErr *storage.BucketConfigError
	if errors.As(err, &cfgErr) {
		// Operator checklist is already logged by the storage layer.
		h.writeError(w, http.StatusInternalServerError, cfgErr.UserMessage())
		return
	}

	log.ErrorErr(log.CatHTTP, "signup failed", err)
	h.writeError(w, http.StatusInternalServerError, "Internal server error. Please try again.")
}

func referralRejection(rerr *registration.ReferralError) ReferralRejection {
	rejection := ReferralRejection{
		Status:      "invalid_referral_codes",
		Message:     rerr.Message(),
		Suggestions: make([]CodeSuggestion, 0, len(rerr.Invalid)),
	}
	for _, inv := range rerr.Invalid {
		cs := CodeSuggestion{
			Code:        inv.Code,
			Suggestions: make([]SuggestedCode, 0, len(inv.Suggestions)),
		}
		for _, s := range inv.Suggestions {
			cs.Suggestions = append(cs.Suggestions, SuggestedCode{Code: s.Code, Owner: s.Owner})
		}
		rejection.Suggestions = append(rejection.Suggestions, cs)
	}
	return rejection
}

// Health reports process and database liveness.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			h.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:   "unhealthy",
				Database: err.Error(),
			})
			return
		}
		resp.Database = "ok"
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// === Helpers ===

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error(log.CatHTTP, "Failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Status: "error", Message: message})
}
