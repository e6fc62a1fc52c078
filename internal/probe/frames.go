package probe

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"

	"github.com/okian/bikefit/pkg/logger"
)

// Wire types mirroring the service's JSON contract. The probe keeps its own
// copies so a contract drift shows up as a failing probe, not a silently
// shared struct.
type landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

type photo struct {
	Position    string      `json:"position"`
	ImageWidth  int         `json:"image_width"`
	ImageHeight int         `json:"image_height"`
	Landmarks   []*landmark `json:"landmarks"`
}

type analyzePayload struct {
	Photos []photo `json:"photos"`
}

// reportResponse is the subset of the fit report the probe verifies.
type reportResponse struct {
	ID              string `json:"id"`
	OverallScore    int    `json:"overallScore"`
	Summary         string `json:"summary"`
	Recommendations []struct {
		Type     string `json:"type"`
		Priority string `json:"priority"`
	} `json:"recommendations"`
}

type reportSummary struct {
	ID           string `json:"id"`
	OverallScore int    `json:"overallScore"`
	Summary      string `json:"summary"`
}

// Landmark indices of the standard 33-point body model used by the service.
const (
	idxRightShoulder = 12
	idxRightElbow    = 14
	idxRightWrist    = 16
	idxRightHip      = 24
	idxRightKnee     = 26
	idxRightAnkle    = 28

	landmarkCount = 33
)

// Synthetic skeleton proportions in normalized image coordinates. The rider
// faces +x; y grows downward.
const (
	kneeX = 0.5
	kneeY = 0.68

	shinLength  = 0.18
	thighLength = 0.20
	torsoLength = 0.30
	upperArmLen = 0.15
	forearmLen  = 0.15

	upperArmBearing = 100.0 // degrees, shoulder -> elbow

	imageSide = 1000 // px, square synthetic photos

	pixelToCm = 0.05 // must match the service's KOPS conversion
)

// riderProfile is one synthetic rider posture. Angles are degrees; the KOPS
// offset is centimeters at the three-o'clock position.
type riderProfile struct {
	name string

	sixKnee   float64
	threeKnee float64

	sixTorso   float64
	threeTorso float64

	sixElbow   float64
	threeElbow float64

	kopsOffsetCm float64
}

// profiles covers the interesting corners of the rule table: a dialed-in
// rider, each single-adjustment fault, and an inconsistent posture.
var profiles = []riderProfile{
	{name: "dialed", sixKnee: 30, threeKnee: 80, sixTorso: 44, threeTorso: 46, sixElbow: 156, threeElbow: 158, kopsOffsetCm: 0.5},
	{name: "saddle_high", sixKnee: 19, threeKnee: 75, sixTorso: 45, threeTorso: 45, sixElbow: 157, threeElbow: 157, kopsOffsetCm: 1},
	{name: "saddle_low", sixKnee: 43, threeKnee: 85, sixTorso: 45, threeTorso: 45, sixElbow: 157, threeElbow: 157, kopsOffsetCm: 1},
	{name: "knee_forward", sixKnee: 30, threeKnee: 80, sixTorso: 45, threeTorso: 45, sixElbow: 157, threeElbow: 157, kopsOffsetCm: 4.5},
	{name: "aggressive", sixKnee: 30, threeKnee: 80, sixTorso: 28, threeTorso: 30, sixElbow: 157, threeElbow: 157, kopsOffsetCm: 1},
	{name: "stretched", sixKnee: 30, threeKnee: 80, sixTorso: 45, threeTorso: 45, sixElbow: 171, threeElbow: 173, kopsOffsetCm: 1},
	{name: "unstable", sixKnee: 30, threeKnee: 80, sixTorso: 38, threeTorso: 52, sixElbow: 150, threeElbow: 168, kopsOffsetCm: 1},
}

// jitter amplitudes so repeated requests are not byte-identical.
const (
	angleJitter  = 1.5 // degrees
	offsetJitter = 0.3 // centimeters
	jitterSteps  = 1000
)

// randomFloat returns a random float64 in [0,1) using crypto/rand.
func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(jitterSteps))
	return float64(n.Int64()) / float64(jitterSteps)
}

func jittered(v, amplitude float64) float64 {
	return v + (randomFloat()*2-1)*amplitude
}

// generatePayloads builds NumRequests analysis payloads cycling through the
// rider profiles with a little jitter on every angle.
func generatePayloads(ctx context.Context, config *Config, stats *Stats) []analyzePayload {
	logger.Get().Info(ctx, "generating synthetic rider payloads",
		logger.Int("numRequests", config.NumRequests),
		logger.Int("profiles", len(profiles)))

	payloads := make([]analyzePayload, config.NumRequests)
	for i := range payloads {
		p := profiles[i%len(profiles)]
		payloads[i] = analyzePayload{
			Photos: []photo{
				buildPhoto("six-oclock", jittered(p.sixKnee, angleJitter), jittered(p.sixTorso, angleJitter),
					jittered(p.sixElbow, angleJitter), 0),
				buildPhoto("three-oclock", jittered(p.threeKnee, angleJitter), jittered(p.threeTorso, angleJitter),
					jittered(p.threeElbow, angleJitter), jittered(p.kopsOffsetCm, offsetJitter)),
			},
		}
	}

	stats.RequestsGenerated = len(payloads)
	return payloads
}

// buildPhoto places the six right-side joints so that the service's derived
// angles come out at the requested values.
//
// The shin direction is chosen so the knee-to-ankle horizontal gap converts
// to the requested KOPS offset; the thigh is rotated off the shin by the
// interior knee angle; the torso is tilted off vertical by the lean angle;
// the forearm is rotated off the upper arm by the interior elbow angle.
func buildPhoto(position string, kneeBend, torsoLean, elbowAngle, kopsOffsetCm float64) photo {
	knee := [2]float64{kneeX, kneeY}

	// Ankle: horizontal gap dx satisfies (knee.x - ankle.x) * width * pixelToCm = offset.
	dx := kopsOffsetCm / (imageSide * pixelToCm)
	if dx > shinLength {
		dx = shinLength
	}
	if dx < -shinLength {
		dx = -shinLength
	}
	shinBearing := math.Atan2(math.Sqrt(shinLength*shinLength-dx*dx), -dx)
	ankle := [2]float64{knee[0] + shinLength*math.Cos(shinBearing), knee[1] + shinLength*math.Sin(shinBearing)}

	// Thigh: interior angle at the knee is 180 minus the bend.
	thighBearing := shinBearing + rad(180-kneeBend)
	hip := [2]float64{knee[0] + thighLength*math.Cos(thighBearing), knee[1] + thighLength*math.Sin(thighBearing)}

	// Torso: tilted torsoLean degrees forward of straight up (-y).
	shoulder := [2]float64{hip[0] + torsoLength*math.Sin(rad(torsoLean)), hip[1] - torsoLength*math.Cos(rad(torsoLean))}

	// Arm: fixed upper-arm bearing, forearm rotated to hit the elbow angle.
	elbow := [2]float64{shoulder[0] + upperArmLen*math.Cos(rad(upperArmBearing)), shoulder[1] + upperArmLen*math.Sin(rad(upperArmBearing))}
	forearmBearing := rad(upperArmBearing + 180 + elbowAngle)
	wrist := [2]float64{elbow[0] + forearmLen*math.Cos(forearmBearing), elbow[1] + forearmLen*math.Sin(forearmBearing)}

	marks := make([]*landmark, landmarkCount)
	place := func(idx int, pt [2]float64) {
		marks[idx] = &landmark{X: pt[0], Y: pt[1], Visibility: 1}
	}
	place(idxRightShoulder, shoulder)
	place(idxRightElbow, elbow)
	place(idxRightWrist, wrist)
	place(idxRightHip, hip)
	place(idxRightKnee, knee)
	place(idxRightAnkle, ankle)

	return photo{
		Position:    position,
		ImageWidth:  imageSide,
		ImageHeight: imageSide,
		Landmarks:   marks,
	}
}

func rad(degrees float64) float64 {
	return degrees * math.Pi / 180
}
