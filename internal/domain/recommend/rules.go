package recommend

import (
	"fmt"
	"math"

	"github.com/okian/bikefit/internal/domain/model"
)

// Input bundles everything the rule table evaluates: both feature records
// plus the cross-photo results.
type Input struct {
	Six         model.PoseFeatureSet
	Three       model.PoseFeatureSet
	KOPS        model.KOPSResult
	Consistency model.ConsistencyResult
}

func (in Input) meanTorso() float64 {
	return (in.Six.TorsoAngle + in.Three.TorsoAngle) / 2
}

func (in Input) meanElbow() float64 {
	return (in.Six.ElbowAngle + in.Three.ElbowAngle) / 2
}

// Verdict is one rule's contribution to the report. Any field may be empty:
// a rule can recommend without deducting, deduct without recommending, or
// raise only a diagnostic. Keeping the three channels separate makes the
// recommendation/scoring asymmetry a visible, testable property.
type Verdict struct {
	Recommendation *model.Recommendation
	Deduction      float64
	Diagnostic     string
}

// rule is one independent evaluator in the fixed table. Rules never see
// each other's verdicts.
type rule struct {
	name string
	eval func(t Thresholds, in Input) Verdict
}

// ruleTable returns the rules in their fixed evaluation order. Within a
// priority tier, recommendations keep this order (stable sort downstream).
func ruleTable() []rule {
	return []rule{
		{name: "saddle_height", eval: evalSaddleHeight},
		{name: "three_oclock_sanity", eval: evalThreeOClockSanity},
		{name: "saddle_fore_aft", eval: evalSaddleForeAft},
		{name: "handlebar_height", eval: evalHandlebarHeight},
		{name: "stem_length", eval: evalStemLength},
		{name: "core_stability", eval: evalCoreStability},
	}
}

// evalSaddleHeight checks the six-o'clock knee bend against the optimal
// band. Too little bend means the saddle is too high; too much means too
// low. The deduction scales with distance from the nearer band edge.
func evalSaddleHeight(t Thresholds, in Input) Verdict {
	knee := in.Six.KneeAngle
	deviation := bandDeviation(knee, t.KneeBendMin, t.KneeBendMax)
	if deviation == 0 {
		return Verdict{}
	}

	rec := model.Recommendation{
		Type:             model.SaddleHeight,
		CurrentValue:     knee,
		RecommendedValue: t.KneeBendTarget,
		Priority:         model.PriorityHigh,
		BasedOn:          "six o'clock knee angle",
	}
	if knee < t.KneeBendMin {
		rec.AdjustmentText = "Raise your saddle"
		rec.Description = fmt.Sprintf(
			"Your knee bends only %.1f° at the bottom of the stroke; aim for %.0f-%.0f°. A saddle that is too high overextends the leg and strains the hamstrings.",
			knee, t.KneeBendMin, t.KneeBendMax)
	} else {
		rec.AdjustmentText = "Lower your saddle"
		rec.Description = fmt.Sprintf(
			"Your knee bends %.1f° at the bottom of the stroke; aim for %.0f-%.0f°. A saddle that is too low compresses the knee and costs power.",
			knee, t.KneeBendMin, t.KneeBendMax)
	}

	return Verdict{Recommendation: &rec, Deduction: deviation * t.KneeWeight}
}

// evalThreeOClockSanity flags a three-o'clock knee bend far outside the
// plausible range. This rule never recommends anything: it deducts a fixed
// penalty and raises a diagnostic for logging.
func evalThreeOClockSanity(t Thresholds, in Input) Verdict {
	knee := in.Three.KneeAngle
	if knee >= t.ThreeOClockKneeMin && knee <= t.ThreeOClockKneeMax {
		return Verdict{}
	}
	return Verdict{
		Deduction: t.SanityPenalty,
		Diagnostic: fmt.Sprintf(
			"three o'clock knee angle %.1f° outside plausible range [%.0f, %.0f]; possible mislabeled photo or poor landmark quality",
			knee, t.ThreeOClockKneeMin, t.ThreeOClockKneeMax),
	}
}

// evalSaddleForeAft checks the KOPS offset. Positive offset means the knee
// sits forward of the pedal axle.
func evalSaddleForeAft(t Thresholds, in Input) Verdict {
	if in.KOPS.IsOptimal {
		return Verdict{}
	}

	offset := in.KOPS.HorizontalOffsetCm
	rec := model.Recommendation{
		Type:             model.SaddleForeAft,
		CurrentValue:     offset,
		RecommendedValue: 0,
		Priority:         model.PriorityMedium,
		BasedOn:          "knee-over-pedal-spindle offset",
	}
	if offset > 0 {
		rec.AdjustmentText = "Move your saddle backward"
		rec.Description = fmt.Sprintf(
			"Your knee sits %.1f cm forward of the pedal axle at three o'clock; keep it within %.0f cm. Sliding the saddle back rebalances weight over the pedals.",
			offset, t.KOPSOptimalCm)
	} else {
		rec.AdjustmentText = "Move your saddle forward"
		rec.Description = fmt.Sprintf(
			"Your knee sits %.1f cm behind the pedal axle at three o'clock; keep it within %.0f cm. Sliding the saddle forward rebalances weight over the pedals.",
			math.Abs(offset), t.KOPSOptimalCm)
	}

	return Verdict{Recommendation: &rec, Deduction: math.Abs(offset) * t.KOPSWeight}
}

// evalHandlebarHeight checks the mean torso lean across both photos.
func evalHandlebarHeight(t Thresholds, in Input) Verdict {
	torso := in.meanTorso()
	v := Verdict{Deduction: math.Abs(torso-t.TorsoTarget) * t.TorsoWeight}
	if bandDeviation(torso, t.TorsoMin, t.TorsoMax) == 0 {
		return v
	}

	rec := model.Recommendation{
		Type:             model.HandlebarHeight,
		CurrentValue:     torso,
		RecommendedValue: t.TorsoTarget,
		Priority:         model.PriorityMedium,
		BasedOn:          "average torso angle",
	}
	if torso < t.TorsoMin {
		rec.AdjustmentText = "Raise your handlebars"
		rec.Description = fmt.Sprintf(
			"Your torso leans %.1f° from vertical, a very aggressive position; %.0f-%.0f° suits most riders. Raising the bars eases load on the back and neck.",
			torso, t.TorsoMin, t.TorsoMax)
	} else {
		rec.AdjustmentText = "Lower your handlebars"
		rec.Description = fmt.Sprintf(
			"Your torso leans %.1f° from vertical, a very upright position; %.0f-%.0f° suits most riders. Lowering the bars improves aerodynamics and weight distribution.",
			torso, t.TorsoMin, t.TorsoMax)
	}

	v.Recommendation = &rec
	return v
}

// evalStemLength checks the mean elbow angle across both photos. The
// deduction anchors on the band midpoint, not the recommended target.
func evalStemLength(t Thresholds, in Input) Verdict {
	elbow := in.meanElbow()
	v := Verdict{Deduction: math.Abs(elbow-t.elbowMidpoint()) * t.ElbowWeight}
	if bandDeviation(elbow, t.ElbowMin, t.ElbowMax) == 0 {
		return v
	}

	rec := model.Recommendation{
		Type:             model.StemLength,
		CurrentValue:     elbow,
		RecommendedValue: t.ElbowTarget,
		Priority:         model.PriorityMedium,
		BasedOn:          "average elbow angle",
	}
	if elbow < t.ElbowMin {
		rec.AdjustmentText = "Fit a longer stem"
		rec.Description = fmt.Sprintf(
			"Your elbows bend to %.1f°, which cramps the cockpit; aim for %.0f-%.0f°. A longer stem opens the arms and steadies steering.",
			elbow, t.ElbowMin, t.ElbowMax)
	} else {
		rec.AdjustmentText = "Fit a shorter stem"
		rec.Description = fmt.Sprintf(
			"Your arms are nearly locked at %.1f°; aim for %.0f-%.0f°. A shorter stem restores the slight elbow bend that absorbs road shock.",
			elbow, t.ElbowMin, t.ElbowMax)
	}

	v.Recommendation = &rec
	return v
}

// evalCoreStability fires when the two photos disagree about posture.
func evalCoreStability(t Thresholds, in Input) Verdict {
	if in.Consistency.IsConsistent {
		return Verdict{}
	}

	delta := math.Max(in.Consistency.TorsoAngleDelta, in.Consistency.ElbowAngleDelta)
	rec := model.Recommendation{
		Type:             model.CoreStability,
		CurrentValue:     delta,
		RecommendedValue: 0,
		AdjustmentText:   "Work on core stability",
		Priority:         model.PriorityLow,
		BasedOn:          "postural consistency",
		Description: fmt.Sprintf(
			"Your posture shifts up to %.1f° between pedal positions. A stable upper body keeps power delivery even; core work or a bike-fit follow-up can help.",
			delta),
	}

	deduction := (in.Consistency.TorsoAngleDelta + in.Consistency.ElbowAngleDelta) * t.ConsistencyWeight
	return Verdict{Recommendation: &rec, Deduction: deduction}
}
