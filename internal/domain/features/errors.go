package features

import (
	"errors"
	"fmt"

	"github.com/okian/bikefit/internal/domain/model"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMissingLandmarks = errors.New("missing landmarks")
)

// MissingLandmarksError reports a landmark array that cannot support feature
// extraction: either too few entries, or a required joint is absent. It is
// fatal to that photo's extraction.
type MissingLandmarksError struct {
	Position model.PedalPosition
	Got      int    // landmarks present in the array
	Joint    string // name of the missing required joint, if any
}

func (e *MissingLandmarksError) Error() string {
	if e.Joint != "" {
		return fmt.Sprintf("%s photo: required joint %s is absent", e.Position, e.Joint)
	}
	return fmt.Sprintf("%s photo: got %d landmarks, need at least %d", e.Position, e.Got, model.MinLandmarks)
}

func (e *MissingLandmarksError) Unwrap() error { return ErrMissingLandmarks }
