// Package types contains common types used across the application
package types

import "time"

// ReportSummary is the read shape returned by report-history listings.
type ReportSummary struct {
	ID           string    `json:"id"`
	OverallScore int       `json:"overallScore"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"createdAt"`
}
