package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	service "github.com/okian/bikefit/internal/app"
	"github.com/okian/bikefit/internal/domain/features"
	"github.com/okian/bikefit/internal/domain/model"
	"github.com/okian/bikefit/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

// buildFrame places the six right-side joints so the derived angles come
// out at the requested values. The shin is tilted so the knee-over-ankle
// horizontal offset maps to kopsCm at the frame's pixel width; the thigh
// is rotated off the shin to keep the knee bend exact regardless.
func buildFrame(position model.PedalPosition, kneeBend, torsoLean, elbowAngle, kopsCm float64) *model.Frame {
	const (
		widthPx   = 1000
		pixelToCm = 0.05
		shinLen   = 0.18
	)

	knee := model.Point2D{X: 0.5, Y: 0.68}
	dx := kopsCm / (widthPx * pixelToCm)
	shinBearing := math.Atan2(math.Sqrt(shinLen*shinLen-dx*dx), -dx)
	ankle := model.Point2D{X: knee.X + shinLen*math.Cos(shinBearing), Y: knee.Y + shinLen*math.Sin(shinBearing)}

	thighBearing := shinBearing + rad(180-kneeBend)
	hip := model.Point2D{X: knee.X + 0.2*math.Cos(thighBearing), Y: knee.Y + 0.2*math.Sin(thighBearing)}

	shoulder := model.Point2D{X: hip.X + 0.3*math.Sin(rad(torsoLean)), Y: hip.Y - 0.3*math.Cos(rad(torsoLean))}

	upperArm := 100.0
	elbow := model.Point2D{X: shoulder.X + 0.15*math.Cos(rad(upperArm)), Y: shoulder.Y + 0.15*math.Sin(rad(upperArm))}
	forearmBearing := rad(upperArm + 180 + elbowAngle)
	wrist := model.Point2D{X: elbow.X + 0.15*math.Cos(forearmBearing), Y: elbow.Y + 0.15*math.Sin(forearmBearing)}

	marks := make([]*model.Landmark, model.MinLandmarks)
	place := func(idx model.LandmarkIndex, pt model.Point2D) {
		marks[idx] = &model.Landmark{X: pt.X, Y: pt.Y, Visibility: 1}
	}
	place(model.RightShoulder, shoulder)
	place(model.RightElbow, elbow)
	place(model.RightWrist, wrist)
	place(model.RightHip, hip)
	place(model.RightKnee, knee)
	place(model.RightAnkle, ankle)

	return &model.Frame{
		Landmarks:     marks,
		Position:      position,
		ImageWidthPx:  widthPx,
		ImageHeightPx: widthPx,
	}
}

// idealPair is a dialed-in rider: every angle on target, knee over the
// pedal spindle.
func idealPair() []*model.Frame {
	return []*model.Frame{
		buildFrame(model.SixOClock, 30, 45, 157, 0),
		buildFrame(model.ThreeOClock, 80, 45, 158, 0),
	}
}

func startedService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithDBPath(":memory:")}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.MaxReportLimit(), ShouldEqual, 100)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithDBPath(":memory:"),
			service.WithQueueSize(64),
			service.WithWorkerCount(4),
			service.WithMaxReportLimit(10),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
			So(svc.MaxReportLimit(), ShouldEqual, 10)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithDBPath(":memory:"))
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
			})

			Convey("And starting twice should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stopping should mark it stopped", func() {
				svc.Stop()
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})
		})

		Convey("When stopping before starting", func() {
			svc.Stop()

			Convey("Then nothing should panic", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_NotStarted(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New(service.WithDBPath(":memory:"))
		ctx := context.Background()

		Convey("When calling the pipeline entry points", func() {
			_, analyzeErr := svc.Analyze(ctx, idealPair())
			_, singleErr := svc.AnalyzeSingle(ctx, buildFrame(model.SixOClock, 30, 45, 157, 0))
			_, reportErr := svc.Report(ctx, "some-id")
			_, recentErr := svc.RecentReports(ctx, 10)

			Convey("Then every call should fail with the not-started error", func() {
				So(errors.Is(analyzeErr, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(singleErr, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(reportErr, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(recentErr, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Analyze(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When analyzing a dialed-in photo pair", func() {
			report, err := svc.Analyze(ctx, idealPair())

			Convey("Then it should produce a perfect report", func() {
				So(err, ShouldBeNil)
				So(report.ID, ShouldNotBeEmpty)
				So(report.OverallScore, ShouldEqual, 100)
				So(report.Summary, ShouldEqual, "Excellent fit. Your position is well dialed in; only minor refinements remain.")
				So(report.Recommendations, ShouldBeEmpty)
				So(report.KOPS.IsOptimal, ShouldBeTrue)
				So(report.Consistency.IsConsistent, ShouldBeTrue)
				So(report.CreatedAt.IsZero(), ShouldBeFalse)
			})

			Convey("And the report should land in history", func() {
				time.Sleep(200 * time.Millisecond)

				stored, storeErr := svc.Report(ctx, report.ID)
				So(storeErr, ShouldBeNil)
				So(stored.ID, ShouldEqual, report.ID)
				So(stored.OverallScore, ShouldEqual, report.OverallScore)
				So(stored.CreatedAt.Equal(report.CreatedAt), ShouldBeTrue)
			})
		})

		Convey("When the six-o'clock knee is under-bent", func() {
			photos := []*model.Frame{
				buildFrame(model.SixOClock, 20, 45, 157, 0),
				buildFrame(model.ThreeOClock, 80, 45, 158, 0),
			}
			report, err := svc.Analyze(ctx, photos)

			Convey("Then a raise-saddle recommendation should fire", func() {
				So(err, ShouldBeNil)
				So(report.OverallScore, ShouldEqual, 90)
				So(report.Recommendations, ShouldHaveLength, 1)

				rec := report.Recommendations[0]
				So(rec.Type, ShouldEqual, model.SaddleHeight)
				So(rec.Priority, ShouldEqual, model.PriorityHigh)
				So(rec.AdjustmentText, ShouldEqual, "Raise your saddle")
				So(rec.RecommendedValue, ShouldAlmostEqual, 30, 1e-9)
				So(rec.CurrentValue, ShouldAlmostEqual, 20, 0.06)
			})
		})

		Convey("When the knee sits well forward of the pedal spindle", func() {
			photos := []*model.Frame{
				buildFrame(model.SixOClock, 30, 45, 157, 0),
				buildFrame(model.ThreeOClock, 80, 45, 158, 4.5),
			}
			report, err := svc.Analyze(ctx, photos)

			Convey("Then a fore-aft recommendation should fire", func() {
				So(err, ShouldBeNil)
				So(report.KOPS.HorizontalOffsetCm, ShouldAlmostEqual, 4.5, 1e-9)
				So(report.KOPS.IsOptimal, ShouldBeFalse)

				var found bool
				for _, rec := range report.Recommendations {
					if rec.Type == model.SaddleForeAft {
						found = true
						So(rec.AdjustmentText, ShouldEqual, "Move your saddle backward")
						So(rec.Priority, ShouldEqual, model.PriorityMedium)
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When the torso angle shifts between the two photos", func() {
			photos := []*model.Frame{
				buildFrame(model.SixOClock, 30, 29, 157, 0),
				buildFrame(model.ThreeOClock, 80, 45, 158, 0),
			}
			report, err := svc.Analyze(ctx, photos)

			Convey("Then a core-stability recommendation should fire", func() {
				So(err, ShouldBeNil)
				So(report.Consistency.IsConsistent, ShouldBeFalse)
				So(report.Consistency.Issues, ShouldContain, "torso instability")
				So(report.Consistency.TorsoAngleDelta, ShouldAlmostEqual, 16, 0.2)

				var found bool
				for _, rec := range report.Recommendations {
					if rec.Type == model.CoreStability {
						found = true
						So(rec.Priority, ShouldEqual, model.PriorityLow)
						So(rec.CurrentValue, ShouldAlmostEqual, 16, 0.2)
					}
				}
				So(found, ShouldBeTrue)
				So(report.OverallScore, ShouldBeBetween, 75, 95)
			})
		})

		Convey("When the three-o'clock knee angle is implausible", func() {
			photos := []*model.Frame{
				buildFrame(model.SixOClock, 30, 45, 157, 0),
				buildFrame(model.ThreeOClock, 150, 45, 158, 0),
			}
			report, err := svc.Analyze(ctx, photos)

			Convey("Then it should deduct and raise a diagnostic without recommending", func() {
				So(err, ShouldBeNil)
				So(report.OverallScore, ShouldEqual, 90)
				So(report.Recommendations, ShouldBeEmpty)
				So(report.Diagnostics, ShouldHaveLength, 1)
				So(report.Diagnostics[0], ShouldContainSubstring, "outside plausible range")
			})
		})
	})
}

func TestService_AnalyzeInvalidInput(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When submitting a single photo to the pair pipeline", func() {
			_, err := svc.Analyze(ctx, idealPair()[:1])

			Convey("Then it should fail before any computation", func() {
				So(errors.Is(err, service.ErrInvalidPositionInput), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "need exactly 2 photos")
			})
		})

		Convey("When both photos carry the same position tag", func() {
			photos := []*model.Frame{
				buildFrame(model.SixOClock, 30, 45, 157, 0),
				buildFrame(model.SixOClock, 30, 45, 157, 0),
			}
			_, err := svc.Analyze(ctx, photos)

			Convey("Then it should reject the duplicate", func() {
				So(errors.Is(err, service.ErrInvalidPositionInput), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "duplicate six-oclock")
			})
		})

		Convey("When a photo carries an unknown position tag", func() {
			photos := idealPair()
			photos[1].Position = model.PedalPosition("noon")
			_, err := svc.Analyze(ctx, photos)

			Convey("Then it should name the bad tag", func() {
				So(errors.Is(err, service.ErrInvalidPositionInput), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "noon")
			})
		})

		Convey("When a required joint is missing from one photo", func() {
			photos := idealPair()
			photos[1].Landmarks[model.RightAnkle] = nil
			_, err := svc.Analyze(ctx, photos)

			Convey("Then it should fail with a missing-landmarks error naming the joint", func() {
				So(errors.Is(err, features.ErrMissingLandmarks), ShouldBeTrue)

				var missing *features.MissingLandmarksError
				So(errors.As(err, &missing), ShouldBeTrue)
				So(missing.Joint, ShouldEqual, "right ankle")
				So(missing.Position, ShouldEqual, model.ThreeOClock)
			})
		})

		Convey("When a photo carries too few landmarks", func() {
			photos := idealPair()
			photos[0].Landmarks = photos[0].Landmarks[:10]
			_, err := svc.Analyze(ctx, photos)

			Convey("Then it should fail with a missing-landmarks error", func() {
				So(errors.Is(err, features.ErrMissingLandmarks), ShouldBeTrue)
			})
		})
	})
}

func TestService_AnalyzeSingle(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When analyzing a dialed-in six-o'clock photo", func() {
			report, err := svc.AnalyzeSingle(ctx, buildFrame(model.SixOClock, 30, 45, 157, 0))

			Convey("Then it should score perfectly with no recommendations", func() {
				So(err, ShouldBeNil)
				So(report.ID, ShouldNotBeEmpty)
				So(report.OverallScore, ShouldEqual, 100)
				So(report.Recommendations, ShouldBeEmpty)
				So(report.Features.PedalPosition, ShouldEqual, model.SixOClock)
			})
		})

		Convey("When the knee is under-bent", func() {
			report, err := svc.AnalyzeSingle(ctx, buildFrame(model.SixOClock, 20, 45, 157, 0))

			Convey("Then the saddle-height rule should fire", func() {
				So(err, ShouldBeNil)
				So(report.OverallScore, ShouldEqual, 90)
				So(report.Recommendations, ShouldHaveLength, 1)
				So(report.Recommendations[0].Type, ShouldEqual, model.SaddleHeight)
			})
		})

		Convey("When the position tag is invalid", func() {
			photo := buildFrame(model.SixOClock, 30, 45, 157, 0)
			photo.Position = model.PedalPosition("sideways")
			_, err := svc.AnalyzeSingle(ctx, photo)

			Convey("Then it should reject the photo", func() {
				So(errors.Is(err, service.ErrInvalidPositionInput), ShouldBeTrue)
			})
		})
	})
}

func TestService_History(t *testing.T) {
	Convey("Given a started service with a small listing cap", t, func() {
		svc := startedService(service.WithMaxReportLimit(2))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When several analyses have been persisted", func() {
			for i := 0; i < 3; i++ {
				_, err := svc.Analyze(ctx, idealPair())
				So(err, ShouldBeNil)
			}
			time.Sleep(300 * time.Millisecond)

			Convey("Then listings are capped at the configured limit", func() {
				summaries, err := svc.RecentReports(ctx, 50)
				So(err, ShouldBeNil)
				So(summaries, ShouldHaveLength, 2)
			})

			Convey("And smaller limits are honored as-is", func() {
				summaries, err := svc.RecentReports(ctx, 1)
				So(err, ShouldBeNil)
				So(summaries, ShouldHaveLength, 1)
				So(summaries[0].OverallScore, ShouldEqual, 100)
			})

			Convey("And stats should report the stored count", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["reportsStored"], ShouldEqual, 3)
				So(stats, ShouldContainKey, "queueLength")
			})
		})

		Convey("When fetching a report that does not exist", func() {
			_, err := svc.Report(ctx, "no-such-report")

			Convey("Then the not-found condition should be recognizable", func() {
				So(err, ShouldNotBeNil)
				So(service.IsNotFound(err), ShouldBeTrue)
			})
		})
	})
}
