package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumRequests int           // Number of analysis requests to generate
	TopN        int           // Number of recent report summaries to fetch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated payloads
	LogFile     string        // Log file for probe output
	Verbose     bool          // Enable verbose logging
}

// Stats holds probe statistics.
type Stats struct {
	RequestsGenerated int
	RequestsSubmitted int
	RequestsSucceeded int
	RequestsFailed    int
	ReportsFetched    int
	ScoreSum          int
	ScoreMin          int
	ScoreMax          int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
