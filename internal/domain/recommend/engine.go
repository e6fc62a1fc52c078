// Package recommend evaluates the fixed bike-fit rule table: an ordered
// list of independent rule evaluators, each contributing an optional
// recommendation, an optional score deduction, and an optional diagnostic.
package recommend

import (
	"math"
	"slices"

	"github.com/okian/bikefit/internal/domain/model"
)

const maxScore = 100

// Assessment is the engine's output: prioritized recommendations, the
// clamped 0-100 score, the tier summary, and any diagnostics raised.
type Assessment struct {
	Recommendations []model.Recommendation
	OverallScore    int
	Summary         string
	Diagnostics     []string
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithThresholds replaces the default rule-table constants.
func WithThresholds(t Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// Engine evaluates the rule table. It holds only read-only configuration
// and is safe for concurrent use.
type Engine struct {
	thresholds Thresholds
	rules      []rule
}

// New creates an Engine with the default thresholds, then applies options.
func New(opts ...Option) *Engine {
	e := &Engine{
		thresholds: DefaultThresholds(),
		rules:      ruleTable(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Thresholds returns the constants the engine evaluates against.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate runs every rule in order against the two-photo input, collects
// recommendations and diagnostics, and scores the fit. Rules are
// independent: multiple recommendations may fire, and a rule may deduct
// without recommending.
func (e *Engine) Evaluate(in Input) Assessment {
	var (
		recs        []model.Recommendation
		diagnostics []string
		total       float64
	)
	for _, r := range e.rules {
		v := r.eval(e.thresholds, in)
		if v.Recommendation != nil {
			recs = append(recs, *v.Recommendation)
		}
		if v.Diagnostic != "" {
			diagnostics = append(diagnostics, v.Diagnostic)
		}
		total += v.Deduction
	}

	sortByPriority(recs)
	score := clampScore(maxScore - total)

	return Assessment{
		Recommendations: recs,
		OverallScore:    score,
		Summary:         summaryFor(score),
		Diagnostics:     diagnostics,
	}
}

// EvaluateSingle is the legacy single-photo path: the saddle-height rule
// only, and a simplified score built from the knee, torso, and elbow band
// deviations. No KOPS, no consistency.
func (e *Engine) EvaluateSingle(fs model.PoseFeatureSet) Assessment {
	t := e.thresholds

	var recs []model.Recommendation
	v := evalSaddleHeight(t, Input{Six: fs})
	if v.Recommendation != nil {
		recs = append(recs, *v.Recommendation)
	}

	total := bandDeviation(fs.KneeAngle, t.KneeBendMin, t.KneeBendMax)*t.KneeWeight +
		bandDeviation(fs.TorsoAngle, t.TorsoMin, t.TorsoMax)*t.TorsoWeight +
		bandDeviation(fs.ElbowAngle, t.ElbowMin, t.ElbowMax)*t.ElbowWeight

	score := clampScore(maxScore - total)
	return Assessment{
		Recommendations: recs,
		OverallScore:    score,
		Summary:         summaryFor(score),
	}
}

// sortByPriority orders recommendations descending by priority. The sort is
// stable so equal-priority recommendations keep rule-table order.
func sortByPriority(recs []model.Recommendation) {
	slices.SortStableFunc(recs, func(a, b model.Recommendation) int {
		return b.Priority.Rank() - a.Priority.Rank()
	})
}

// clampScore rounds and clamps a raw score into [0,100].
func clampScore(raw float64) int {
	return int(math.Round(math.Max(0, math.Min(maxScore, raw))))
}

// Score tier boundaries. The boundaries are part of the contract; the
// wording is presentation.
const (
	excellentTier = 80
	goodTier      = 60
)

// summaryFor selects the report summary by score tier.
func summaryFor(score int) string {
	switch {
	case score >= excellentTier:
		return "Excellent fit. Your position is well dialed in; only minor refinements remain."
	case score >= goodTier:
		return "Good foundation. A few targeted adjustments will improve comfort and power."
	default:
		return "Significant opportunities. Several adjustments are recommended to improve your position."
	}
}
