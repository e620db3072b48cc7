// Package monitor provides debugging views of the ride engine: echarts
// HTML profiles served over HTTP and gonum/plot PNG output for headless
// runs. None of it is load-bearing for the simulation itself.
package monitor

import (
	"github.com/hannah505/roller-coaster-builder/internal/coaster"
	"github.com/hannah505/roller-coaster-builder/internal/monitoring"
)

// DefaultMaxTicks caps a recorded ride. A closed circuit never
// terminates on its own, so the recorder needs a hard stop.
const DefaultMaxTicks = 20000

// TickSample is one recorded tick of a headless ride.
type TickSample struct {
	Tick     int     `json:"tick"`
	Progress float64 `json:"progress"`
	Speed    float64 `json:"speed"`
	Height   float64 `json:"height"`
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	FOV      float64 `json:"fov"`
	Phase    string  `json:"phase"`
	InLoop   bool    `json:"in_loop"`
}

// RideRecording is the full trace of one headless ride.
type RideRecording struct {
	DT           float64      `json:"dt"`
	Samples      []TickSample `json:"samples"`
	Completed    bool         `json:"completed"`
	DurationSecs float64      `json:"duration_secs"`
	MaxSpeed     float64      `json:"max_speed"`
	TotalLength  float64      `json:"total_length"`
}

// RecordRide simulates a full ride of the source engine's current track
// at a fixed dt and returns the trace. The live engine is never touched:
// the track is copied into a scratch engine, so recording cannot disturb
// an in-progress ride or the edit state. maxTicks <= 0 uses
// DefaultMaxTicks; Completed is false when the cap fired first.
func RecordRide(src *coaster.Engine, dt float64, maxTicks int) *RideRecording {
	if dt <= 0 {
		dt = 1.0 / 60
	}
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}

	st := src.Snapshot()
	scratch := coaster.NewEngine(src.Config())
	scratch.ReplaceDesign(st.Points, st.Closed, st.ChainLift, st.ShowSupports)
	scratch.SetRideSpeed(src.RideSpeed())

	rec := &RideRecording{
		DT:          dt,
		TotalLength: scratch.Stats().TotalLength,
	}
	if !scratch.StartRide() {
		monitoring.Logf("ride recording skipped: track cannot carry a ride")
		return rec
	}

	for tick := 0; tick < maxTicks; tick++ {
		out, ok := scratch.Advance(dt)
		if !ok {
			break
		}
		if out.Done {
			rec.Completed = true
			break
		}
		if out.Speed > rec.MaxSpeed {
			rec.MaxSpeed = out.Speed
		}
		s := TickSample{
			Tick:     tick,
			Progress: out.Progress,
			Speed:    out.Speed,
			Phase:    string(out.Phase),
		}
		if out.Sample != nil {
			s.Height = out.Sample.Pos.Y
			s.X = out.Sample.Pos.X
			s.Z = out.Sample.Pos.Z
			s.InLoop = out.Sample.InLoop
		}
		s.FOV = out.Camera.FOV
		rec.Samples = append(rec.Samples, s)
	}
	rec.DurationSecs = float64(len(rec.Samples)) * dt
	return rec
}
