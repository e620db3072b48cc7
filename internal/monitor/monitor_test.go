package monitor

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannah505/roller-coaster-builder/internal/coaster"
	"github.com/hannah505/roller-coaster-builder/internal/geom"
)

func demoEngine(t *testing.T, withLoop bool) *coaster.Engine {
	t.Helper()
	e := coaster.NewEngine(nil)
	coaster.BuildDemoTrack(e, withLoop)
	return e
}

func TestRecordRide(t *testing.T) {
	t.Parallel()

	t.Run("open track terminates", func(t *testing.T) {
		t.Parallel()
		rec := RecordRide(demoEngine(t, false), 0.016, 0)
		require.NotEmpty(t, rec.Samples)
		assert.True(t, rec.Completed)
		assert.Greater(t, rec.MaxSpeed, 0.0)
		assert.Greater(t, rec.TotalLength, 0.0)
		assert.InDelta(t, float64(len(rec.Samples))*0.016, rec.DurationSecs, 1e-9)

		// Progress only moves forward on an open track.
		for i := 1; i < len(rec.Samples); i++ {
			assert.GreaterOrEqual(t, rec.Samples[i].Progress, rec.Samples[i-1].Progress)
		}
	})

	t.Run("loop track marks loop ticks", func(t *testing.T) {
		t.Parallel()
		rec := RecordRide(demoEngine(t, true), 0.016, 0)
		require.NotEmpty(t, rec.Samples)
		var sawLoop bool
		for _, s := range rec.Samples {
			if s.InLoop {
				sawLoop = true
				break
			}
		}
		assert.True(t, sawLoop)
	})

	t.Run("closed track hits the tick cap", func(t *testing.T) {
		t.Parallel()
		e := demoEngine(t, false)
		e.SetClosed(true)
		rec := RecordRide(e, 0.016, 50)
		assert.False(t, rec.Completed)
		assert.Len(t, rec.Samples, 50)
	})

	t.Run("recording does not disturb the live engine", func(t *testing.T) {
		t.Parallel()
		e := demoEngine(t, false)
		before := e.Snapshot()
		_ = RecordRide(e, 0.016, 0)
		assert.Equal(t, before.Version, e.Snapshot().Version)
		assert.False(t, e.Riding())
	})

	t.Run("degenerate track yields an empty recording", func(t *testing.T) {
		t.Parallel()
		e := coaster.NewEngine(nil)
		e.AddPoint(geom.V(0, 0, 0))
		rec := RecordRide(e, 0.016, 0)
		assert.Empty(t, rec.Samples)
		assert.False(t, rec.Completed)
	})
}

func TestMonitorRoutes(t *testing.T) {
	t.Parallel()

	t.Run("ride profile renders charts", func(t *testing.T) {
		t.Parallel()
		mux := http.NewServeMux()
		NewMonitor(demoEngine(t, true)).AttachRoutes(mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/monitor/profile?dt=0.05")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	})

	t.Run("layout renders a scatter", func(t *testing.T) {
		t.Parallel()
		mux := http.NewServeMux()
		NewMonitor(demoEngine(t, false)).AttachRoutes(mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/monitor/layout")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	})

	t.Run("empty track reports 404", func(t *testing.T) {
		t.Parallel()
		mux := http.NewServeMux()
		NewMonitor(coaster.NewEngine(nil)).AttachRoutes(mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		for _, path := range []string{"/monitor/profile", "/monitor/layout"} {
			resp, err := http.Get(ts.URL + path)
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
			resp.Body.Close()
		}
	})
}

func TestWritePlots(t *testing.T) {
	t.Parallel()

	t.Run("writes all three plots", func(t *testing.T) {
		t.Parallel()
		rec := RecordRide(demoEngine(t, true), 0.016, 0)
		dir := t.TempDir()

		count, err := WritePlots(rec, filepath.Join(dir, "run"))
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		for _, name := range []string{"speed_profile.png", "elevation_profile.png", "layout.png"} {
			info, err := os.Stat(filepath.Join(dir, "run", name))
			require.NoError(t, err, name)
			assert.Greater(t, info.Size(), int64(0), name)
		}
	})

	t.Run("empty recording is an error", func(t *testing.T) {
		t.Parallel()
		_, err := WritePlots(&RideRecording{}, t.TempDir())
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "empty"))
	})
}
