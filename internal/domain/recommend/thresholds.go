package recommend

// Thresholds is the single immutable bundle of domain constants the engine
// evaluates against: optimal bands, recommended targets, and penalty
// weights. Values are fixed fitting-industry heuristics; nothing here is
// learned or adapted at runtime.
type Thresholds struct {
	// Six-o'clock knee bend band and target (degrees of bend from straight).
	KneeBendMin    float64
	KneeBendMax    float64
	KneeBendTarget float64

	// Three-o'clock knee bend sanity band. Out-of-band values are flagged
	// for diagnostics and penalized, but never produce a recommendation.
	ThreeOClockKneeMin float64
	ThreeOClockKneeMax float64

	// Torso lean band and target (mean across both photos).
	TorsoMin    float64
	TorsoMax    float64
	TorsoTarget float64

	// Elbow interior-angle band and target (mean across both photos).
	ElbowMin    float64
	ElbowMax    float64
	ElbowTarget float64

	// Half-width of the optimal KOPS band in centimeters.
	KOPSOptimalCm float64

	// Score deduction weights, applied additively then clamped to [0,100].
	KneeWeight        float64
	SanityPenalty     float64
	TorsoWeight       float64
	ElbowWeight       float64
	KOPSWeight        float64
	ConsistencyWeight float64
}

// DefaultThresholds returns the standard rule table constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		KneeBendMin:        25,
		KneeBendMax:        35,
		KneeBendTarget:     30,
		ThreeOClockKneeMin: 60,
		ThreeOClockKneeMax: 100,
		TorsoMin:           35,
		TorsoMax:           55,
		TorsoTarget:        45,
		ElbowMin:           150,
		ElbowMax:           165,
		ElbowTarget:        155,
		KOPSOptimalCm:      2,
		KneeWeight:         2,
		SanityPenalty:      10,
		TorsoWeight:        1,
		ElbowWeight:        0.5,
		KOPSWeight:         2,
		ConsistencyWeight:  0.5,
	}
}

// elbowMidpoint is the scoring anchor for the elbow deduction: the center
// of the optimal band.
func (t Thresholds) elbowMidpoint() float64 {
	return (t.ElbowMin + t.ElbowMax) / 2
}

// bandDeviation returns how far v sits outside [lo,hi], or 0 inside it.
func bandDeviation(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	default:
		return 0
	}
}
