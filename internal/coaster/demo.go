package coaster

import (
	"github.com/hannah505/roller-coaster-builder/internal/geom"
)

// demoLayout is the default demonstration circuit: a station, a chain
// lift to a crest, a first drop into a valley, then a swooping return
// run. Units are track-world units; y is up.
var demoLayout = []geom.Vec{
	{X: 0, Y: 2, Z: 0},
	{X: 14, Y: 6, Z: 0},
	{X: 26, Y: 22, Z: 0},
	{X: 40, Y: 6, Z: 3},
	{X: 54, Y: 10, Z: -4},
	{X: 68, Y: 4, Z: -2},
	{X: 80, Y: 8, Z: 4},
	{X: 92, Y: 3, Z: 0},
}

// BuildDemoTrack replaces the engine's track with the demonstration
// layout. With withLoop set, a vertical loop is spliced into the valley
// after the first drop. The result is deterministic, so tests and the
// headless simulator can rely on its shape.
func BuildDemoTrack(e *Engine, withLoop bool) {
	e.Clear()
	ids := make([]int64, 0, len(demoLayout))
	for _, pos := range demoLayout {
		ids = append(ids, e.AddPoint(pos))
	}
	e.SetChainLift(true)
	if withLoop {
		e.CreateLoop(ids[3])
	}
}
