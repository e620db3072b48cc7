package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/hannah505/roller-coaster-builder/internal/monitoring"
)

var (
	speedColor  = color.RGBA{R: 31, G: 158, B: 137, A: 255}
	heightColor = color.RGBA{R: 62, G: 73, B: 137, A: 255}
	layoutColor = color.RGBA{R: 181, G: 222, B: 43, A: 255}
)

// WritePlots renders a recorded ride as PNG files in outputDir:
// speed_profile.png, elevation_profile.png and layout.png. Returns the
// number of plots written.
func WritePlots(rec *RideRecording, outputDir string) (int, error) {
	if rec == nil || len(rec.Samples) == 0 {
		return 0, fmt.Errorf("nothing to plot: recording is empty")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output dir: %w", err)
	}

	count := 0
	if err := writeSpeedProfile(rec, outputDir); err != nil {
		return count, err
	}
	count++
	if err := writeElevationProfile(rec, outputDir); err != nil {
		return count, err
	}
	count++
	if err := writeLayout(rec, outputDir); err != nil {
		return count, err
	}
	count++
	monitoring.Logf("wrote %d ride plots to %s", count, outputDir)
	return count, nil
}

func writeSpeedProfile(rec *RideRecording, outputDir string) error {
	p := plot.New()
	p.Title.Text = "Ride Speed"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Speed (units/s)"

	pts := make(plotter.XYs, len(rec.Samples))
	for i, s := range rec.Samples {
		pts[i] = plotter.XY{X: float64(s.Tick) * rec.DT, Y: s.Speed}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = speedColor
	line.Width = vg.Points(1)
	p.Add(line)

	file := filepath.Join(outputDir, "speed_profile.png")
	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save %s: %w", file, err)
	}
	return nil
}

func writeElevationProfile(rec *RideRecording, outputDir string) error {
	p := plot.New()
	p.Title.Text = "Track Elevation"
	p.X.Label.Text = "Progress"
	p.Y.Label.Text = "Height (units)"

	pts := make(plotter.XYs, len(rec.Samples))
	for i, s := range rec.Samples {
		pts[i] = plotter.XY{X: s.Progress, Y: s.Height}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = heightColor
	line.Width = vg.Points(1)
	p.Add(line)

	file := filepath.Join(outputDir, "elevation_profile.png")
	if err := p.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save %s: %w", file, err)
	}
	return nil
}

// writeLayout draws the ridden path top-down, X against Z.
func writeLayout(rec *RideRecording, outputDir string) error {
	p := plot.New()
	p.Title.Text = "Track Layout (top-down)"
	p.X.Label.Text = "X (units)"
	p.Y.Label.Text = "Z (units)"

	pts := make(plotter.XYs, len(rec.Samples))
	for i, s := range rec.Samples {
		pts[i] = plotter.XY{X: s.X, Y: s.Z}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = layoutColor
	line.Width = vg.Points(1)
	p.Add(line)

	file := filepath.Join(outputDir, "layout.png")
	if err := p.Save(10*vg.Inch, 10*vg.Inch, file); err != nil {
		return fmt.Errorf("failed to save %s: %w", file, err)
	}
	return nil
}
