package monitor

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/hannah505/roller-coaster-builder/internal/coaster"
)

// Monitor serves debug chart endpoints for an engine.
type Monitor struct {
	engine *coaster.Engine
}

func NewMonitor(engine *coaster.Engine) *Monitor {
	return &Monitor{engine: engine}
}

// AttachRoutes mounts the monitor endpoints on mux.
func (m *Monitor) AttachRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/monitor/profile", m.handleRideProfile)
	mux.HandleFunc("/monitor/layout", m.handleTrackLayout)
}

// handleRideProfile simulates a complete ride of the current track and
// renders speed, elevation and field-of-view traces as an echarts HTML
// page. Query params:
//   - dt (optional; default 1/60) tick length in seconds
//   - max_ticks (optional; default DefaultMaxTicks)
func (m *Monitor) handleRideProfile(w http.ResponseWriter, r *http.Request) {
	dt := 1.0 / 60
	if v := r.URL.Query().Get("dt"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			dt = f
		}
	}
	maxTicks := 0
	if v := r.URL.Query().Get("max_ticks"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200000 {
			maxTicks = n
		}
	}

	rec := RecordRide(m.engine, dt, maxTicks)
	if len(rec.Samples) == 0 {
		writeJSONError(w, http.StatusNotFound, "track cannot carry a ride")
		return
	}

	xAxis := make([]string, len(rec.Samples))
	speed := make([]opts.LineData, len(rec.Samples))
	height := make([]opts.LineData, len(rec.Samples))
	fov := make([]opts.LineData, len(rec.Samples))
	for i, s := range rec.Samples {
		xAxis[i] = fmt.Sprintf("%.2f", float64(s.Tick)*dt)
		speed[i] = opts.LineData{Value: s.Speed}
		height[i] = opts.LineData{Value: s.Height}
		fov[i] = opts.LineData{Value: s.FOV}
	}

	subtitle := fmt.Sprintf("ticks=%d dt=%.4fs length=%.1f max_speed=%.1f completed=%v",
		len(rec.Samples), dt, rec.TotalLength, rec.MaxSpeed, rec.Completed)

	speedChart := charts.NewLine()
	speedChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Ride Profile", Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Ride Speed", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (units/s)"}),
	)
	speedChart.SetXAxis(xAxis).AddSeries("speed", speed)

	heightChart := charts.NewLine()
	heightChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Track Elevation"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Height (units)"}),
	)
	heightChart.SetXAxis(xAxis).AddSeries("height", height)

	fovChart := charts.NewLine()
	fovChart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Camera Field of View"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "FOV (deg)"}),
	)
	fovChart.SetXAxis(xAxis).AddSeries("fov", fov)

	page := components.NewPage()
	page.AddCharts(speedChart, heightChart, fovChart)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render charts: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleTrackLayout renders a top-down scatter of the control points,
// colored by height, to eyeball the track shape without the renderer.
func (m *Monitor) handleTrackLayout(w http.ResponseWriter, r *http.Request) {
	st := m.engine.Snapshot()
	if len(st.Points) == 0 {
		writeJSONError(w, http.StatusNotFound, "track is empty")
		return
	}

	data := make([]opts.ScatterData, 0, len(st.Points))
	maxAbs, maxHeight := 0.0, 0.0
	for _, p := range st.Points {
		if abs := math.Max(math.Abs(p.Pos.X), math.Abs(p.Pos.Z)); abs > maxAbs {
			maxAbs = abs
		}
		if p.Pos.Y > maxHeight {
			maxHeight = p.Pos.Y
		}
		data = append(data, opts.ScatterData{Value: []interface{}{p.Pos.X, p.Pos.Z, p.Pos.Y}})
	}

	// Add a small padding so points at the edges are visible
	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}
	if maxHeight == 0 {
		maxHeight = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Track Layout", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Track Layout (top-down)", Subtitle: fmt.Sprintf("points=%d", len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Z", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxHeight),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("points", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, "{%q:%q}\n", "error", msg)
}
