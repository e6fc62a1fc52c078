// Package service provides the core business service that implements
// the dependencies required by the HTTP API: it runs the analysis
// pipeline per request and maintains the durable report history.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/bikefit/internal/adapters/mq/queue"
	"github.com/okian/bikefit/internal/adapters/mq/worker"
	"github.com/okian/bikefit/internal/adapters/repository"
	"github.com/okian/bikefit/internal/domain/analysis"
	"github.com/okian/bikefit/internal/domain/features"
	"github.com/okian/bikefit/internal/domain/model"
	"github.com/okian/bikefit/internal/domain/recommend"
	"github.com/okian/bikefit/internal/domain/types"
	"github.com/okian/bikefit/pkg/logger"
	"github.com/okian/bikefit/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultDBPath         = "bikefit.db"
	defaultQueueSize      = 1024
	defaultWorkerCount    = 2
	requiredPhotoCount    = 2
	defaultMaxReportLimit = 100
)

// Service runs the analysis pipeline and owns the persistence plumbing.
// The pipeline itself is pure and stateless; the mutexed fields only guard
// start/stop lifecycle.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine   *recommend.Engine
	analyzer *analysis.Analyzer
	store    repository.Store
	queue    *queue.InMemoryQueue
	pool     *worker.Pool

	// Configuration
	dbPath          string
	queueSize       int
	workerCount     int
	maxReportLimit  int
	thresholds      recommend.Thresholds
	analyzerOptions []analysis.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the SQLite path for report history. Use ":memory:" for
// an ephemeral store.
func WithDBPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.dbPath = path
		}
	}
}

// WithQueueSize sets the capacity of the persistence queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of persistence workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithMaxReportLimit caps history listing sizes.
func WithMaxReportLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxReportLimit = limit
		}
	}
}

// WithThresholds replaces the default rule-table constants.
func WithThresholds(t recommend.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = t
	}
}

// WithAnalyzerOptions forwards options to the cross-photo analyzer.
func WithAnalyzerOptions(opts ...analysis.Option) Option {
	return func(s *Service) {
		s.analyzerOptions = opts
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dbPath:         defaultDBPath,
		queueSize:      defaultQueueSize,
		workerCount:    defaultWorkerCount,
		maxReportLimit: defaultMaxReportLimit,
		thresholds:     recommend.DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the engine, the report store, and the persistence pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting bike-fit service...")

	s.engine = recommend.New(recommend.WithThresholds(s.thresholds))
	s.analyzer = analysis.New(s.analyzerOptions...)

	store, err := repository.OpenSQLite(s.dbPath)
	if err != nil {
		return fmt.Errorf("open report store: %w", err)
	}
	s.store = store

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "bike-fit service started",
		logger.String("dbPath", s.dbPath),
		logger.Int("persistWorkers", s.workerCount),
		logger.Int("persistQueueSize", s.queueSize),
	)

	return nil
}

// Stop gracefully shuts down the service, draining queued reports.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping bike-fit service...")

	// Closing the queue lets workers drain the backlog and exit.
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "bike-fit service stopped")
}

// ready reports whether Start has run.
func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Analyze runs the full two-photo pipeline: validate the photo set,
// extract per-photo features, run the cross-photo checks, evaluate the
// rule table, and hand the finished report to the persistence queue.
func (s *Service) Analyze(ctx context.Context, photos []*model.Frame) (*model.FitReport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	six, three, err := splitByPosition(photos)
	if err != nil {
		metrics.RecordAnalysisError("invalid_input")
		return nil, err
	}

	sixFeatures, err := features.Extract(six)
	if err != nil {
		metrics.RecordAnalysisError("missing_landmarks")
		return nil, err
	}
	threeFeatures, err := features.Extract(three)
	if err != nil {
		metrics.RecordAnalysisError("missing_landmarks")
		return nil, err
	}

	kops, err := s.analyzer.KOPS(three)
	if err != nil {
		// The only locally recovered failure: KOPS degrades to neutral and
		// the rest of the report proceeds.
		s.logger.Warn(ctx, "KOPS degraded to neutral result", logger.Error(err))
		metrics.RecordKOPSFallback()
		kops = analysis.NeutralKOPS()
	}

	consistency := s.analyzer.Consistency(sixFeatures, threeFeatures)
	for range consistency.Issues {
		metrics.RecordConsistencyIssue()
	}

	out := s.engine.Evaluate(recommend.Input{
		Six:         sixFeatures,
		Three:       threeFeatures,
		KOPS:        kops,
		Consistency: consistency,
	})
	for _, diag := range out.Diagnostics {
		s.logger.Warn(ctx, "analysis diagnostic", logger.String("detail", diag))
	}

	report := &model.FitReport{
		ID:              uuid.NewString(),
		SixOClock:       sixFeatures,
		ThreeOClock:     threeFeatures,
		KOPS:            kops,
		Consistency:     consistency,
		Recommendations: out.Recommendations,
		OverallScore:    out.OverallScore,
		Summary:         out.Summary,
		Diagnostics:     out.Diagnostics,
		CreatedAt:       time.Now().UTC(),
	}

	metrics.RecordAnalysis()
	metrics.ObserveFitScore(float64(report.OverallScore))
	for _, rec := range report.Recommendations {
		metrics.RecordRecommendation(string(rec.Type))
	}

	if !s.queue.Enqueue(ctx, report) {
		// History is best-effort: report generation never fails on a full
		// persistence queue.
		s.logger.Warn(ctx, "persistence queue full; report not stored",
			logger.String("reportID", report.ID),
		)
	}

	return report, nil
}

// AnalyzeSingle is the legacy single-photo path: extraction plus the
// reduced rule set. Nothing is persisted; single-photo submissions predate
// the history feature.
func (s *Service) AnalyzeSingle(ctx context.Context, photo *model.Frame) (*model.SinglePhotoReport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	if !photo.Position.Valid() {
		metrics.RecordAnalysisError("invalid_input")
		return nil, &InvalidPositionInputError{
			Reason: fmt.Sprintf("unknown pedal position %q", photo.Position),
		}
	}

	fs, err := features.Extract(photo)
	if err != nil {
		metrics.RecordAnalysisError("missing_landmarks")
		return nil, err
	}

	out := s.engine.EvaluateSingle(fs)

	metrics.RecordSingleAnalysis()
	metrics.ObserveFitScore(float64(out.OverallScore))
	for _, rec := range out.Recommendations {
		metrics.RecordRecommendation(string(rec.Type))
	}

	return &model.SinglePhotoReport{
		ID:              uuid.NewString(),
		Features:        fs,
		Recommendations: out.Recommendations,
		OverallScore:    out.OverallScore,
		Summary:         out.Summary,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// Report returns a stored report by ID.
func (s *Service) Report(ctx context.Context, id string) (*model.FitReport, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.Report(ctx, id)
}

// RecentReports returns up to n report summaries, newest first.
func (s *Service) RecentReports(ctx context.Context, n int) ([]types.ReportSummary, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if n > s.maxReportLimit {
		n = s.maxReportLimit
	}
	return s.store.RecentReports(ctx, n)
}

// MaxReportLimit returns the cap applied to history listings.
func (s *Service) MaxReportLimit() int {
	return s.maxReportLimit
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":          s.started,
		"persistWorkers":   s.workerCount,
		"persistQueueSize": s.queueSize,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		if count, err := s.store.Count(ctx); err == nil {
			stats["reportsStored"] = count
			metrics.UpdateReportsStored(count)
		}
	}

	return stats
}

// splitByPosition validates the photo set and returns the six-o'clock and
// three-o'clock frames, in that order. All failures here are
// *InvalidPositionInputError, raised before any computation.
func splitByPosition(photos []*model.Frame) (six, three *model.Frame, err error) {
	if len(photos) != requiredPhotoCount {
		return nil, nil, &InvalidPositionInputError{
			Reason: fmt.Sprintf("need exactly %d photos, got %d", requiredPhotoCount, len(photos)),
		}
	}

	for _, photo := range photos {
		switch photo.Position {
		case model.SixOClock:
			if six != nil {
				return nil, nil, &InvalidPositionInputError{Reason: "duplicate six-oclock photo"}
			}
			six = photo
		case model.ThreeOClock:
			if three != nil {
				return nil, nil, &InvalidPositionInputError{Reason: "duplicate three-oclock photo"}
			}
			three = photo
		default:
			return nil, nil, &InvalidPositionInputError{
				Reason: fmt.Sprintf("unknown pedal position %q", photo.Position),
			}
		}
	}

	if six == nil {
		return nil, nil, &InvalidPositionInputError{Reason: "six-oclock photo is missing"}
	}
	if three == nil {
		return nil, nil, &InvalidPositionInputError{Reason: "three-oclock photo is missing"}
	}
	return six, three, nil
}

// IsNotFound reports whether err is the repository's not-found condition.
// The HTTP layer uses this to translate to 404 without importing the
// repository package directly.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
