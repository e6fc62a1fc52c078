package service

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidPositionInput = errors.New("invalid position input")
	ErrNotStarted           = errors.New("service not started")
)

// InvalidPositionInputError reports a photo set that cannot be analyzed:
// the wrong number of photos, an unknown pedal-position tag, or a missing
// required position. It is raised before any computation starts.
type InvalidPositionInputError struct {
	Reason string
}

func (e *InvalidPositionInputError) Error() string {
	return fmt.Sprintf("invalid photo set: %s", e.Reason)
}

func (e *InvalidPositionInputError) Unwrap() error { return ErrInvalidPositionInput }
