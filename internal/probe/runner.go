package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/bikefit/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// persistSettleDelay gives the async persistence pipeline time to drain
// before the probe reads the report history back.
const persistSettleDelay = 2 * time.Second

// Run executes the complete probe: health check, synthetic submissions,
// history readback, and verification.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting bikefit analysis probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("requests", config.NumRequests),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate synthetic rider payloads
	payloads := generatePayloads(ctx, config, stats)

	// Step 3: Submit and verify each returned report
	if err := submitPayloads(ctx, config, payloads, stats); err != nil {
		return fmt.Errorf("analysis submission failed: %w", err)
	}

	// Step 4: Let the persistence queue drain
	logger.Get().Info(ctx, "waiting for reports to persist")
	time.Sleep(persistSettleDelay)

	// Step 5: Read the history back
	if err := fetchRecentReports(ctx, config, stats); err != nil {
		return fmt.Errorf("report history readback failed: %w", err)
	}

	// Step 6: Save payloads to file
	if err := savePayloadsToFile(ctx, config, payloads); err != nil {
		logger.Get().Warn(ctx, "failed to save payloads to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "probe completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// fetchRecentReports lists the newest report summaries and sanity-checks
// their scores.
func fetchRecentReports(ctx context.Context, config *Config, stats *Stats) error {
	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/api/reports?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to fetch reports: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read reports body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reports request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var summaries []reportSummary
	if err := json.Unmarshal(body, &summaries); err != nil {
		return fmt.Errorf("failed to decode report summaries: %w", err)
	}

	for _, s := range summaries {
		if s.OverallScore < 0 || s.OverallScore > 100 {
			logger.Get().Error(ctx, "persisted report score outside [0,100]",
				logger.String("id", s.ID),
				logger.Int("score", s.OverallScore))
		}
	}

	stats.ReportsFetched = len(summaries)
	logger.Get().Info(ctx, "fetched recent reports", logger.Int("count", len(summaries)))
	return nil
}

// savePayloadsToFile saves the generated payloads to a JSON file.
func savePayloadsToFile(ctx context.Context, config *Config, payloads []analyzePayload) error {
	if len(payloads) == 0 {
		return fmt.Errorf("no payloads to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_payloads_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(payloads, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal payloads: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	logger.Get().Info(ctx, "payloads saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final probe statistics.
func displayFinalStats(stats *Stats) {
	var successRate, requestsPerSecond, meanScore float64

	if stats.RequestsSubmitted > 0 {
		successRate = float64(stats.RequestsSucceeded) / float64(stats.RequestsSubmitted) * 100
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsSubmitted) / stats.Duration.Seconds()
	}
	if stats.RequestsSucceeded > 0 {
		meanScore = float64(stats.ScoreSum) / float64(stats.RequestsSucceeded)
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("requestsGenerated", stats.RequestsGenerated),
		logger.Int("requestsSubmitted", stats.RequestsSubmitted),
		logger.Int("requestsSucceeded", stats.RequestsSucceeded),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("reportsFetched", stats.ReportsFetched),
		logger.Float64("meanScore", meanScore),
		logger.Int("scoreMin", stats.ScoreMin),
		logger.Int("scoreMax", stats.ScoreMax),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}
