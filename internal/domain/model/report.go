package model

import "time"

// Priority orders recommendations: high > medium > low.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank maps a priority to its sort weight.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// RecommendationType identifies which part of the bike an adjustment targets.
type RecommendationType string

const (
	SaddleHeight    RecommendationType = "saddle_height"
	SaddleForeAft   RecommendationType = "saddle_fore_aft"
	HandlebarHeight RecommendationType = "handlebar_height"
	StemLength      RecommendationType = "stem_length"
	CoreStability   RecommendationType = "core_stability"
)

// PoseFeatureSet is the normalized feature record derived from one photo.
// All angles are degrees rounded to one decimal. ReachDistance and
// SaddleHeightProxy are normalized-coordinate magnitudes scaled by 100;
// they are relative proxies, not physical measurements.
type PoseFeatureSet struct {
	KneeAngle         float64       `json:"kneeAngle"`
	TorsoAngle        float64       `json:"torsoAngle"`
	ElbowAngle        float64       `json:"elbowAngle"`
	ReachDistance     float64       `json:"reachDistance"`
	SaddleHeightProxy float64       `json:"saddleHeightProxy"`
	PedalPosition     PedalPosition `json:"pedalPosition"`
}

// KOPSResult captures the knee-over-pedal-spindle check from the
// three-o'clock photo. Positive offset means the knee sits forward of the
// pedal axle. IsOptimal holds iff the offset magnitude is within the
// configured band.
type KOPSResult struct {
	KneePoint          Point2D `json:"kneePoint"`
	PedalPoint         Point2D `json:"pedalPoint"`
	HorizontalOffsetCm float64 `json:"horizontalOffsetCm"`
	IsOptimal          bool    `json:"isOptimal"`
}

// ConsistencyResult compares posture between the two photos. IsConsistent
// holds iff no issue was raised.
type ConsistencyResult struct {
	TorsoAngleDelta float64  `json:"torsoAngleDelta"`
	ElbowAngleDelta float64  `json:"elbowAngleDelta"`
	IsConsistent    bool     `json:"isConsistent"`
	Issues          []string `json:"issues"`
}

// Recommendation is one prioritized, human-readable adjustment.
type Recommendation struct {
	Type             RecommendationType `json:"type"`
	CurrentValue     float64            `json:"currentValue"`
	RecommendedValue float64            `json:"recommendedValue"`
	AdjustmentText   string             `json:"adjustmentText"`
	Priority         Priority           `json:"priority"`
	Description      string             `json:"description"`
	BasedOn          string             `json:"basedOn"`
}

// FitReport is the terminal artifact of a two-photo analysis. It is a value
// object: once produced, no component mutates it.
type FitReport struct {
	ID              string            `json:"id"`
	SixOClock       PoseFeatureSet    `json:"sixOClock"`
	ThreeOClock     PoseFeatureSet    `json:"threeOClock"`
	KOPS            KOPSResult        `json:"kops"`
	Consistency     ConsistencyResult `json:"consistency"`
	Recommendations []Recommendation  `json:"recommendations"`
	OverallScore    int               `json:"overallScore"`
	Summary         string            `json:"summary"`
	Diagnostics     []string          `json:"diagnostics,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// SinglePhotoReport is the legacy single-photo artifact: the same feature
// record with a reduced rule set and a simplified score. No KOPS, no
// consistency.
type SinglePhotoReport struct {
	ID              string           `json:"id"`
	Features        PoseFeatureSet   `json:"features"`
	Recommendations []Recommendation `json:"recommendations"`
	OverallScore    int              `json:"overallScore"`
	Summary         string           `json:"summary"`
	CreatedAt       time.Time        `json:"createdAt"`
}
