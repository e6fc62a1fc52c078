// Package model contains domain models passed between layers.
package model

// PedalPosition identifies the crank orientation a photo was taken at,
// using clock-face naming: six o'clock is pedal-at-bottom (leg most
// extended), three o'clock is pedal-forward/horizontal.
type PedalPosition string

const (
	SixOClock   PedalPosition = "six-oclock"
	ThreeOClock PedalPosition = "three-oclock"
)

// Valid reports whether p is one of the two supported positions.
func (p PedalPosition) Valid() bool {
	return p == SixOClock || p == ThreeOClock
}

// Landmark is a single body-joint coordinate produced by an external pose
// detector. X and Y are normalized image fractions in [0,1]; Z is a relative
// depth estimate. Visibility is an optional confidence in [0,1].
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Point2D is the planar projection of a landmark used for angle math.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Point projects the landmark onto the image plane.
func (l *Landmark) Point() Point2D {
	return Point2D{X: l.X, Y: l.Y}
}

// LandmarkIndex addresses a joint inside an ordered landmark array. The
// indexing scheme matches the 33-point layout emitted by MediaPipe-style
// pose detectors.
type LandmarkIndex int

// Joints used by the analysis. The right side is used uniformly so the two
// photos stay left-right consistent.
const (
	RightShoulder LandmarkIndex = 12
	RightElbow    LandmarkIndex = 14
	RightWrist    LandmarkIndex = 16
	RightHip      LandmarkIndex = 24
	RightKnee     LandmarkIndex = 26
	RightAnkle    LandmarkIndex = 28
)

// MinLandmarks is the smallest landmark array the extractor accepts.
const MinLandmarks = 33

// Frame is one photo's worth of pose-detection output: the ordered landmark
// array, the source image's pixel dimensions, and the declared pedal
// position. A nil entry models a joint the detector could not place.
type Frame struct {
	Landmarks     []*Landmark
	Position      PedalPosition
	ImageWidthPx  int
	ImageHeightPx int
}

// Joint returns the landmark at index i, or false when the index is out of
// range or the detector left the slot empty.
func (f *Frame) Joint(i LandmarkIndex) (*Landmark, bool) {
	if f == nil || int(i) < 0 || int(i) >= len(f.Landmarks) {
		return nil, false
	}
	lm := f.Landmarks[int(i)]
	if lm == nil {
		return nil, false
	}
	return lm, true
}
