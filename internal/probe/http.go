package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bikefit/pkg/logger"
)

// HTTPClient wraps http.Client with a shared timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitPayloads posts the analysis payloads concurrently and folds the
// returned scores into stats.
func submitPayloads(ctx context.Context, config *Config, payloads []analyzePayload, stats *Stats) error {
	logger.Get().Info(ctx, "submitting analysis requests",
		logger.Int("requests", len(payloads)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/analyze"

	var (
		submitted int64
		succeeded int64
		failed    int64
		scoreSum  int64
		scoreMin  = int64(101)
		scoreMax  = int64(-1)
	)
	var scoreMu sync.Mutex

	payloadChan := make(chan analyzePayload, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for payload := range payloadChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddInt64(&submitted, 1)
				report, err := submitSinglePayload(ctx, client, url, payload)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						logger.Get().Warn(ctx, "analysis request failed", logger.Error(err))
					}
					continue
				}

				atomic.AddInt64(&succeeded, 1)
				atomic.AddInt64(&scoreSum, int64(report.OverallScore))
				scoreMu.Lock()
				if int64(report.OverallScore) < scoreMin {
					scoreMin = int64(report.OverallScore)
				}
				if int64(report.OverallScore) > scoreMax {
					scoreMax = int64(report.OverallScore)
				}
				scoreMu.Unlock()

				if err := verifyReport(report); err != nil {
					logger.Get().Error(ctx, "report failed verification",
						logger.String("id", report.ID),
						logger.Error(err))
				}
			}
		}()
	}

	go func() {
		defer close(payloadChan)
		for _, payload := range payloads {
			select {
			case <-ctx.Done():
				return
			case payloadChan <- payload:
			}
		}
	}()

	wg.Wait()

	stats.RequestsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RequestsSucceeded = int(atomic.LoadInt64(&succeeded))
	stats.RequestsFailed = int(atomic.LoadInt64(&failed))
	stats.ScoreSum = int(atomic.LoadInt64(&scoreSum))
	stats.ScoreMin = int(scoreMin)
	stats.ScoreMax = int(scoreMax)

	logger.Get().Info(ctx, "analysis submission completed",
		logger.Int("succeeded", stats.RequestsSucceeded),
		logger.Int("failed", stats.RequestsFailed))
	return nil
}

// submitSinglePayload posts one payload and decodes the report.
func submitSinglePayload(ctx context.Context, client *HTTPClient, url string, payload analyzePayload) (*reportResponse, error) {
	resp, err := client.Post(ctx, url, payload)
	if err != nil {
		return nil, fmt.Errorf("post failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var report reportResponse
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decode report failed: %w", err)
	}
	return &report, nil
}
