// Package geometry holds the pure trigonometric primitives the pipeline is
// built on. Every function is total over finite coordinates and has no side
// effects.
package geometry

import (
	"math"

	"github.com/okian/bikefit/internal/domain/model"
)

const (
	degreesPerRadian = 180 / math.Pi
	fullCircle       = 360
	straightAngle    = 180

	// verticalRefOffset places the synthetic reference point used for torso
	// lean directly above the hip, in normalized image fractions.
	verticalRefOffset = 0.1
)

// InteriorAngle returns the unsigned interior angle in degrees at vertex b,
// formed by the rays b->a and b->c. The atan2 bearing difference is folded
// into [0,180]: any reflex value over 180 is mirrored back.
func InteriorAngle(a, b, c model.Point2D) float64 {
	angle := math.Abs(
		(math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)) * degreesPerRadian,
	)
	if angle > straightAngle {
		angle = fullCircle - angle
	}
	return angle
}

// KneeBendAngle converts the interior knee angle into degrees of bend from
// a fully straight leg, the convention bike fitters quote. A straight leg
// yields ~0; a fully folded knee approaches 180.
func KneeBendAngle(hip, knee, ankle model.Point2D) float64 {
	return straightAngle - InteriorAngle(hip, knee, ankle)
}

// Distance returns the planar Euclidean distance between a and b.
func Distance(a, b model.Point2D) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// TorsoLeanAngle measures how far the torso leans away from true vertical:
// the interior angle at the hip between a synthetic point directly above it
// and the shoulder.
func TorsoLeanAngle(hip, shoulder model.Point2D) float64 {
	ref := model.Point2D{X: hip.X, Y: hip.Y - verticalRefOffset}
	return InteriorAngle(ref, hip, shoulder)
}

// Round1 rounds v to one decimal place, the precision feature records carry.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
