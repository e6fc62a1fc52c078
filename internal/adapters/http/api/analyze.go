// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/bikefit/internal/app"
	"github.com/okian/bikefit/internal/domain/features"
	"github.com/okian/bikefit/internal/domain/model"
)

// AnalyzeHandler handles analysis requests.
type AnalyzeHandler struct {
	deps Dependencies
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps Dependencies) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps}
}

// HandleAnalyze handles POST /api/analyze requests: a two-photo set in,
// a full fit report out.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	photos := make([]*model.Frame, len(req.Photos))
	for i, p := range req.Photos {
		photos[i] = p.toFrame()
	}

	report, err := h.deps.Analyze(r.Context(), photos)
	if err != nil {
		writeAnalysisError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleAnalyzeSingle handles POST /api/analyze/single requests, the
// legacy single-photo submission.
func (h *AnalyzeHandler) HandleAnalyzeSingle(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze_single"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req photoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	report, err := h.deps.AnalyzeSingle(r.Context(), req.toFrame())
	if err != nil {
		writeAnalysisError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// writeAnalysisError translates pipeline failures to HTTP statuses. The
// typed domain errors are client problems; anything else is internal.
func writeAnalysisError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPositionInput):
		writeError(w, http.StatusBadRequest, "invalid_position_input", err)
	case errors.Is(err, features.ErrMissingLandmarks):
		writeError(w, http.StatusBadRequest, "missing_landmarks", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
