package ride

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hannah505/roller-coaster-builder/internal/config"
	"github.com/hannah505/roller-coaster-builder/internal/geom"
	"github.com/hannah505/roller-coaster-builder/internal/track"
)

func flatSample(pos geom.Vec) *track.TrackSample {
	return &track.TrackSample{Pos: pos, Tangent: geom.V(1, 0, 0), Up: geom.Up()}
}

func vecsClose(a, b geom.Vec, tol float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= tol
}

func TestCameraFirstTickSeedsPose(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	cam := NewCameraState(cfg)

	pose := cam.Update(flatSample(geom.V(5, 2, 0)), 0)

	want := geom.V(5, 2+cfg.GetCameraHeight(), 0)
	if !vecsClose(pose.Position, want, 1e-9) {
		t.Errorf("seeded position = %v, want %v", pose.Position, want)
	}
	if math.Abs(pose.FOV-cfg.GetFOVBase()) > 1e-9 {
		t.Errorf("seeded FOV = %f, want %f", pose.FOV, cfg.GetFOVBase())
	}
	if math.Abs(quat.Abs(pose.Orientation)-1) > 1e-9 {
		t.Errorf("orientation norm = %f, want 1", quat.Abs(pose.Orientation))
	}
	// Camera space looks along -z; on flat +x track that is the tangent.
	fwd := geom.RotateVec(pose.Orientation, geom.V(0, 0, -1))
	if !vecsClose(fwd, geom.V(1, 0, 0), 1e-9) {
		t.Errorf("camera forward = %v, want +x", fwd)
	}

	// Second tick smooths toward the new target instead of jumping.
	pose = cam.Update(flatSample(geom.V(6, 2, 0)), 0)
	wantX := 5 + (6-5)*cfg.GetCameraSmoothing()
	if math.Abs(pose.Position.X-wantX) > 1e-9 {
		t.Errorf("smoothed position.X = %f, want %f", pose.Position.X, wantX)
	}
}

func TestCameraFlatTrackUpStaysVertical(t *testing.T) {
	cam := NewCameraState(config.EmptyTuningConfig())
	for i := 0; i < 100; i++ {
		cam.Update(flatSample(geom.V(float64(i), 2, 0)), 0)
		if !vecsClose(cam.Up(), geom.Up(), 1e-12) {
			t.Fatalf("tick %d: up = %v, want +y", i, cam.Up())
		}
		if cam.Roll() != 0 {
			t.Fatalf("tick %d: roll = %f, want 0", i, cam.Roll())
		}
	}
}

func TestCameraRollConvergesToTilt(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	cam := NewCameraState(cfg)
	sample := flatSample(geom.V(0, 2, 0))

	for i := 0; i < 300; i++ {
		cam.Update(sample, 30)
	}
	want := 30 * math.Pi / 180
	if math.Abs(cam.Roll()-want) > 1e-3 {
		t.Errorf("roll = %f, want %f", cam.Roll(), want)
	}

	// A sub-threshold tilt decays the roll to exactly zero.
	for i := 0; i < 300; i++ {
		cam.Update(sample, 0.2)
	}
	if cam.Roll() != 0 {
		t.Errorf("roll after snap = %g, want exactly 0", cam.Roll())
	}
}

func TestCameraDiveResponse(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	cam := NewCameraState(cfg)
	dive := &track.TrackSample{
		Pos:     geom.V(0, 10, 0),
		Tangent: r3.Unit(geom.V(1, -1, 0)),
		Up:      geom.Up(),
	}

	for i := 0; i < 300; i++ {
		cam.Update(dive, 0)
	}

	slope := 1 / math.Sqrt2
	wantFOV := cfg.GetFOVBase() + slope*cfg.GetFOVBoostMax()
	if math.Abs(cam.FOV()-wantFOV) > 1e-6 {
		t.Errorf("dive FOV = %f, want %f", cam.FOV(), wantFOV)
	}
	wantPitch := -slope * cfg.GetPitchMaxDegrees() * math.Pi / 180
	if math.Abs(cam.Pitch()-wantPitch) > 1e-6 {
		t.Errorf("dive pitch = %f, want %f", cam.Pitch(), wantPitch)
	}
	if cam.FOV() > cfg.GetFOVBase()+cfg.GetFOVBoostMax()+1e-9 {
		t.Errorf("FOV %f exceeds the boost cap", cam.FOV())
	}
}

func TestCameraFlipCorrectionAfterLoop(t *testing.T) {
	cam := NewCameraState(config.EmptyTuningConfig())

	// Trace half a vertical circle of in-loop samples; parallel
	// transport carries the up vector through inverted.
	for i := 0; i <= 10; i++ {
		theta := math.Pi * float64(i) / 10
		sample := &track.TrackSample{
			Pos:     geom.V(math.Sin(theta)*8, (1-math.Cos(theta))*8, 0),
			Tangent: geom.V(math.Cos(theta), math.Sin(theta), 0),
			Up:      geom.Up(),
			InLoop:  true,
		}
		cam.Update(sample, 0)
	}
	if cam.Up().Y > -0.5 {
		t.Fatalf("up at loop top = %v, want inverted", cam.Up())
	}

	// Back on flat track the inverted frame is an artifact and must be
	// righted immediately.
	flat := &track.TrackSample{
		Pos:     geom.V(-10, 0, 0),
		Tangent: geom.V(-1, 0, 0),
		Up:      geom.Up(),
	}
	cam.Update(flat, 0)
	if cam.Up().Y < 0.5 {
		t.Errorf("up after loop exit = %v, want upright", cam.Up())
	}
}

func TestCameraOrthonormalOverManyTicks(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	s := track.NewStore()
	s.AddPoint(geom.V(0, 10, 0))
	s.AddPoint(geom.V(15, 8, 0))
	s.AddPoint(geom.V(30, 6, 0))
	s.AddPoint(geom.V(45, 4, 0))
	if !s.CreateLoop(s.Points()[1].ID, track.DefaultLoopParams()) {
		t.Fatal("CreateLoop failed")
	}
	s.SetClosed(true)
	geo := geometryFor(t, s)

	sess := NewSession(cfg, false)
	if !sess.Start(geo, 1, false, true) {
		t.Fatal("Start failed")
	}

	for i := 0; i < 10000; i++ {
		out := sess.Advance(geo, tickDt)
		if out.Done {
			t.Fatalf("closed-track ride terminated at tick %d", i)
		}
		up := sess.Camera().Up()
		if math.Abs(r3.Norm(up)-1) > 1e-4 {
			t.Fatalf("tick %d: |up| = %f, want 1", i, r3.Norm(up))
		}
		if d := math.Abs(r3.Dot(up, out.Sample.Tangent)); d > 1e-4 {
			t.Fatalf("tick %d: dot(up, tangent) = %g, want 0", i, d)
		}
		if math.Abs(quat.Abs(out.Camera.Orientation)-1) > 1e-6 {
			t.Fatalf("tick %d: orientation norm = %f", i, quat.Abs(out.Camera.Orientation))
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	cfg := config.EmptyTuningConfig()
	s := track.NewStore()
	s.AddPoint(geom.V(0, 10, 0))
	s.AddPoint(geom.V(20, 8, 0))
	s.AddPoint(geom.V(40, 6, 0))
	geo := geometryFor(t, s)

	sess := NewSession(cfg, true)
	if !sess.Preview() {
		t.Error("Preview flag lost")
	}
	if sess.Riding() {
		t.Error("new session must be stopped")
	}
	if !sess.Start(geo, 1, false, false) {
		t.Fatal("Start failed")
	}
	if !sess.Riding() {
		t.Error("session must be riding after Start")
	}

	out := sess.Advance(geo, tickDt)
	if out.Done || out.Sample == nil {
		t.Fatal("first tick must produce a sample")
	}
	if out.Progress <= 0 {
		t.Errorf("first tick progress = %f, want > 0", out.Progress)
	}
	if sess.Ticks() != 1 {
		t.Errorf("ticks = %d, want 1", sess.Ticks())
	}

	var done TickOutput
	for i := 0; i < 1000000; i++ {
		done = sess.Advance(geo, tickDt)
		if done.Done {
			break
		}
	}
	if !done.Done {
		t.Fatal("open-track session never finished")
	}
	if done.Sample != nil {
		t.Error("Done tick must carry no sample")
	}
	if sess.Riding() {
		t.Error("session must be stopped after the Done tick")
	}
	if done.Progress != 0 {
		t.Errorf("Done tick progress = %f, want 0", done.Progress)
	}
}
