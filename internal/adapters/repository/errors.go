package repository

import "errors"

// Sentinel kinds for report-history errors.
var (
	ErrNotFound     = errors.New("report not found")
	ErrInvalidLimit = errors.New("invalid report limit")
)
