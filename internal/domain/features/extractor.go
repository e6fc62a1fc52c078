// Package features turns one photo's landmark array into a normalized
// feature record. The angle math is identical for both pedal positions;
// the position tag only labels the output for downstream interpretation.
package features

import (
	"github.com/okian/bikefit/internal/domain/geometry"
	"github.com/okian/bikefit/internal/domain/model"
)

// proxyScale expresses normalized-coordinate magnitudes as percentage-like
// values. These are relative proxies with no physical calibration.
const proxyScale = 100

// requiredJoints lists the joints a frame must carry, with the names used
// in error messages.
var requiredJoints = []struct {
	index model.LandmarkIndex
	name  string
}{
	{model.RightShoulder, "right shoulder"},
	{model.RightElbow, "right elbow"},
	{model.RightWrist, "right wrist"},
	{model.RightHip, "right hip"},
	{model.RightKnee, "right knee"},
	{model.RightAnkle, "right ankle"},
}

// Extract produces the feature record for a single frame. It fails with a
// *MissingLandmarksError when the array is shorter than model.MinLandmarks
// or any required joint is absent.
func Extract(frame *model.Frame) (model.PoseFeatureSet, error) {
	if len(frame.Landmarks) < model.MinLandmarks {
		return model.PoseFeatureSet{}, &MissingLandmarksError{
			Position: frame.Position,
			Got:      len(frame.Landmarks),
		}
	}

	joints := make(map[model.LandmarkIndex]model.Point2D, len(requiredJoints))
	for _, rj := range requiredJoints {
		lm, ok := frame.Joint(rj.index)
		if !ok {
			return model.PoseFeatureSet{}, &MissingLandmarksError{
				Position: frame.Position,
				Got:      len(frame.Landmarks),
				Joint:    rj.name,
			}
		}
		joints[rj.index] = lm.Point()
	}

	shoulder := joints[model.RightShoulder]
	elbow := joints[model.RightElbow]
	wrist := joints[model.RightWrist]
	hip := joints[model.RightHip]
	knee := joints[model.RightKnee]
	ankle := joints[model.RightAnkle]

	return model.PoseFeatureSet{
		KneeAngle:         geometry.Round1(geometry.KneeBendAngle(hip, knee, ankle)),
		TorsoAngle:        geometry.Round1(geometry.TorsoLeanAngle(hip, shoulder)),
		ElbowAngle:        geometry.Round1(geometry.InteriorAngle(shoulder, elbow, wrist)),
		ReachDistance:     geometry.Round1(abs(shoulder.X-wrist.X) * proxyScale),
		SaddleHeightProxy: geometry.Round1(geometry.Distance(hip, ankle) * proxyScale),
		PedalPosition:     frame.Position,
	}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
