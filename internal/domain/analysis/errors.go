package analysis

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrKOPSComputation = errors.New("kops computation failed")
)

// KOPSComputationError reports that the three-o'clock frame is missing a
// joint the KOPS check needs. Callers recover locally by substituting a
// neutral KOPSResult; the rest of the report does not depend on KOPS.
type KOPSComputationError struct {
	Joint string
}

func (e *KOPSComputationError) Error() string {
	return fmt.Sprintf("three-oclock photo: %s required for KOPS is absent", e.Joint)
}

func (e *KOPSComputationError) Unwrap() error { return ErrKOPSComputation }
