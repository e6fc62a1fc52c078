// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/bikefit/internal/domain/model"
	"github.com/okian/bikefit/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Analyze runs the two-photo pipeline and returns the finished report.
	Analyze(ctx context.Context, photos []*model.Frame) (*model.FitReport, error)

	// AnalyzeSingle runs the legacy single-photo pipeline.
	AnalyzeSingle(ctx context.Context, photo *model.Frame) (*model.SinglePhotoReport, error)

	// Read operations expose the report history.
	Report(ctx context.Context, id string) (*model.FitReport, error)
	RecentReports(ctx context.Context, n int) ([]types.ReportSummary, error)
	MaxReportLimit() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	analyzeHandler *AnalyzeHandler
	reportsHandler *ReportsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		analyzeHandler: NewAnalyzeHandler(deps),
		reportsHandler: NewReportsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/api/analyze/single", MetricsMiddleware(s.analyzeHandler.HandleAnalyzeSingle, "analyze_single"))
	mux.HandleFunc("/api/reports", MetricsMiddleware(s.reportsHandler.HandleListReports, "reports"))
	mux.HandleFunc("/api/reports/", MetricsMiddleware(s.reportsHandler.HandleGetReport, "report"))
}

// photoRequest mirrors the OpenAPI schema for one submitted photo. A null
// entry in landmarks models a joint the pose detector could not place.
type photoRequest struct {
	Position    string            `json:"position"`
	ImageWidth  int               `json:"image_width"`
	ImageHeight int               `json:"image_height"`
	Landmarks   []*model.Landmark `json:"landmarks"`
}

func (p photoRequest) validate() error {
	if !model.PedalPosition(p.Position).Valid() {
		return fmt.Errorf("unknown position %q; must be %q or %q", p.Position, model.SixOClock, model.ThreeOClock)
	}
	if p.ImageWidth <= 0 || p.ImageHeight <= 0 {
		return fmt.Errorf("image dimensions must be positive, got %dx%d", p.ImageWidth, p.ImageHeight)
	}
	if len(p.Landmarks) == 0 {
		return fmt.Errorf("%s photo: landmarks are required", p.Position)
	}
	return nil
}

func (p photoRequest) toFrame() *model.Frame {
	return &model.Frame{
		Landmarks:     p.Landmarks,
		Position:      model.PedalPosition(p.Position),
		ImageWidthPx:  p.ImageWidth,
		ImageHeightPx: p.ImageHeight,
	}
}

// analyzeRequest mirrors the OpenAPI schema for POST /api/analyze.
type analyzeRequest struct {
	Photos []photoRequest `json:"photos"`
}

func (a analyzeRequest) validate() error {
	if len(a.Photos) == 0 {
		return fmt.Errorf("photos are required")
	}
	for _, p := range a.Photos {
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
