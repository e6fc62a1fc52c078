// Package analysis compares the two photos of a pedal stroke: the KOPS
// horizontal offset from the three-o'clock frame, and the postural
// consistency of the body angles across both frames.
package analysis

import (
	"math"

	"github.com/okian/bikefit/internal/domain/geometry"
	"github.com/okian/bikefit/internal/domain/model"
)

// Default analyzer configuration constants.
const (
	defaultPixelToCm       = 0.05
	defaultKOPSOptimalCm   = 2.0
	defaultTorsoDeltaLimit = 10.0
	defaultElbowDeltaLimit = 15.0
)

// Issue strings raised by the consistency check.
const (
	IssueTorsoInstability = "torso instability"
	IssueElbowInstability = "elbow/reach instability"
)

// Analyzer holds the read-only thresholds for cross-photo checks.
type Analyzer struct {
	pixelToCm       float64
	kopsOptimalCm   float64
	torsoDeltaLimit float64
	elbowDeltaLimit float64
}

// New creates an Analyzer with the default thresholds, then applies options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		pixelToCm:       defaultPixelToCm,
		kopsOptimalCm:   defaultKOPSOptimalCm,
		torsoDeltaLimit: defaultTorsoDeltaLimit,
		elbowDeltaLimit: defaultElbowDeltaLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// KOPS computes the knee-over-pedal-spindle horizontal offset from the
// three-o'clock frame. The ankle stands in for the pedal spindle. A missing
// knee or ankle fails with a *KOPSComputationError; callers substitute
// NeutralKOPS and continue.
func (a *Analyzer) KOPS(frame *model.Frame) (model.KOPSResult, error) {
	knee, ok := frame.Joint(model.RightKnee)
	if !ok {
		return model.KOPSResult{}, &KOPSComputationError{Joint: "right knee"}
	}
	ankle, ok := frame.Joint(model.RightAnkle)
	if !ok {
		return model.KOPSResult{}, &KOPSComputationError{Joint: "right ankle"}
	}

	offset := (knee.X - ankle.X) * float64(frame.ImageWidthPx) * a.pixelToCm
	offset = geometry.Round1(offset)

	return model.KOPSResult{
		KneePoint:          knee.Point(),
		PedalPoint:         ankle.Point(),
		HorizontalOffsetCm: offset,
		IsOptimal:          math.Abs(offset) <= a.kopsOptimalCm,
	}, nil
}

// NeutralKOPS is the fallback result used when KOPS cannot be computed:
// zero offset, treated as optimal, so the rest of the report is unaffected.
func NeutralKOPS() model.KOPSResult {
	return model.KOPSResult{HorizontalOffsetCm: 0, IsOptimal: true}
}

// Consistency compares torso and elbow angles between the two feature
// records. It is pure and total: it never fails.
func (a *Analyzer) Consistency(six, three model.PoseFeatureSet) model.ConsistencyResult {
	torsoDelta := geometry.Round1(math.Abs(six.TorsoAngle - three.TorsoAngle))
	elbowDelta := geometry.Round1(math.Abs(six.ElbowAngle - three.ElbowAngle))

	issues := make([]string, 0, 2)
	if torsoDelta > a.torsoDeltaLimit {
		issues = append(issues, IssueTorsoInstability)
	}
	if elbowDelta > a.elbowDeltaLimit {
		issues = append(issues, IssueElbowInstability)
	}

	return model.ConsistencyResult{
		TorsoAngleDelta: torsoDelta,
		ElbowAngleDelta: elbowDelta,
		IsConsistent:    len(issues) == 0,
		Issues:          issues,
	}
}
