package analysis

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithPixelToCm sets the pixel-to-centimeter conversion factor used by the
// KOPS offset. The default is a heuristic with no stated calibration; treat
// it as an approximation, not a physical truth.
func WithPixelToCm(factor float64) Option {
	return func(a *Analyzer) {
		if factor > 0 {
			a.pixelToCm = factor
		}
	}
}

// WithKOPSOptimalCm sets the half-width of the optimal KOPS band.
func WithKOPSOptimalCm(cm float64) Option {
	return func(a *Analyzer) {
		if cm > 0 {
			a.kopsOptimalCm = cm
		}
	}
}

// WithTorsoDeltaLimit sets the torso-angle delta above which the two photos
// are flagged as inconsistent.
func WithTorsoDeltaLimit(degrees float64) Option {
	return func(a *Analyzer) {
		if degrees > 0 {
			a.torsoDeltaLimit = degrees
		}
	}
}

// WithElbowDeltaLimit sets the elbow-angle delta above which the two photos
// are flagged as inconsistent.
func WithElbowDeltaLimit(degrees float64) Option {
	return func(a *Analyzer) {
		if degrees > 0 {
			a.elbowDeltaLimit = degrees
		}
	}
}
