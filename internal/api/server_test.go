package api

import (
	"bytes"
	"image/png"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/solarlens/internal/db"
	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/l4sources"
	"github.com/banshee-data/solarlens/internal/imaging/pipeline"
	"github.com/banshee-data/solarlens/internal/testutil"
)

func setupServer(t *testing.T) (*Server, *db.DetectionStore) {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return NewServer(database), db.NewDetectionStore(database.DB)
}

// insertRun stores one run. withArtefacts controls whether the spectrum and
// processed image snapshots are kept.
func insertRun(t *testing.T, store *db.DetectionStore, label string, detected bool, at time.Time, withArtefacts bool) *db.DetectionRun {
	t.Helper()
	scale := imaging.SpectralScale{MinNM: 400, MaxNM: 2400, Bins: 200}
	img := imaging.NewImage(8, 8)
	img.Set(4, 4, 900)

	report := &pipeline.Report{
		RunAt:     at,
		Planet:    pipeline.PlanetData{Detected: detected, Confidence: 7, TemperatureK: 5800},
		Detection: l4sources.Detection{Found: detected, SNR: 70, Flux: 1e6},
	}
	obs := pipeline.Observation{
		Frame:              imaging.NewFrame(8, 8),
		IntegrationSeconds: 1000,
		TargetDistanceLY:   10,
		WavelengthNM:       550,
	}
	if withArtefacts {
		report.Image = img
		obs.Spectrum = testutil.EarthLikeSpectrum(scale)
	}

	run, err := db.NewDetectionRun(report, obs, scale, label)
	require.NoError(t, err)
	require.NoError(t, store.Insert(run))
	return run
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t)
	w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, "/healthz"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	body := testutil.DecodeJSON[map[string]string](t, w.Body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "solarlens", body["service"])
}

func TestHealth_DatabaseClosed(t *testing.T) {
	s, _ := setupServer(t)
	require.NoError(t, s.db.Close())

	w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, "/healthz"))
	testutil.AssertStatusCode(t, w.Code, http.StatusServiceUnavailable)
}

func TestListDetections(t *testing.T) {
	s, store := setupServer(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	insertRun(t, store, "first", true, base, false)
	insertRun(t, store, "second", false, base.Add(time.Minute), false)
	insertRun(t, store, "third", true, base.Add(2*time.Minute), false)

	tests := []struct {
		name   string
		query  string
		labels []string
	}{
		{"all newest first", "", []string{"third", "second", "first"}},
		{"limit", "?limit=2", []string{"third", "second"}},
		{"detected only", "?detected=true", []string{"third", "first"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, "/detections"+tt.query))
			testutil.AssertStatusCode(t, w.Code, http.StatusOK)

			runs := testutil.DecodeJSON[[]db.DetectionRun](t, w.Body)
			var labels []string
			for _, r := range runs {
				labels = append(labels, r.Label)
			}
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func TestListDetections_EmptyIsArray(t *testing.T) {
	s, _ := setupServer(t)
	w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, "/detections"))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestListDetections_BadParams(t *testing.T) {
	s, _ := setupServer(t)
	for _, q := range []string{"limit=0", "limit=abc", "limit=1001", "detected=maybe"} {
		t.Run(q, func(t *testing.T) {
			w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, "/detections?"+q))
			testutil.AssertStatusCode(t, w.Code, http.StatusBadRequest)
			body := testutil.DecodeJSON[map[string]string](t, w.Body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := setupServer(t)
	for _, path := range []string{"/healthz", "/detections", "/detections/abc"} {
		w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodPost, path))
		testutil.AssertStatusCode(t, w.Code, http.StatusMethodNotAllowed)
	}
}

func TestGetDetection(t *testing.T) {
	s, store := setupServer(t)
	run := insertRun(t, store, "alpha-cen", true, time.Now(), true)

	w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, "/detections/"+run.RunID))
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	got := testutil.DecodeJSON[db.DetectionRun](t, w.Body)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, "alpha-cen", got.Label)
	assert.True(t, got.Planet.Detected)
	assert.Nil(t, got.SpectrumBlob, "blobs are not exposed in JSON")
}

func TestGetDetection_NotFound(t *testing.T) {
	s, _ := setupServer(t)
	for _, path := range []string{
		"/detections/missing",
		"/detections/",
		"/detections/missing/spectrum.png",
		"/detections/a/b/c",
	} {
		w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, path))
		testutil.AssertStatusCode(t, w.Code, http.StatusNotFound)
	}
}

func TestDetectionArtefacts(t *testing.T) {
	s, store := setupServer(t)
	run := insertRun(t, store, "", true, time.Now(), true)
	base := "/detections/" + run.RunID + "/"

	t.Run("spectrum.png", func(t *testing.T) {
		w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, base+"spectrum.png"))
		testutil.AssertStatusCode(t, w.Code, http.StatusOK)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), run.RunID+"-spectrum.png")
		_, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
		assert.NoError(t, err)
	})

	t.Run("image.png", func(t *testing.T) {
		w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, base+"image.png"))
		testutil.AssertStatusCode(t, w.Code, http.StatusOK)
		cfg, err := png.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		assert.Positive(t, cfg.Width)
	})

	t.Run("spectrum.html", func(t *testing.T) {
		w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, base+"spectrum.html"))
		testutil.AssertStatusCode(t, w.Code, http.StatusOK)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "O2")
		assert.Contains(t, w.Body.String(), run.RunID)
	})

	t.Run("unknown artefact", func(t *testing.T) {
		w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, base+"frame.fits"))
		testutil.AssertStatusCode(t, w.Code, http.StatusNotFound)
	})
}

func TestDetectionArtefacts_Missing(t *testing.T) {
	s, store := setupServer(t)
	run := insertRun(t, store, "bare", false, time.Now(), false)

	for _, a := range []string{"spectrum.png", "spectrum.html", "image.png"} {
		w := testutil.Serve(s.ServeMux(), testutil.NewTestRequest(http.MethodGet, "/detections/"+run.RunID+"/"+a))
		testutil.AssertStatusCode(t, w.Code, http.StatusNotFound)
	}
}

func TestRunSubtitle(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := &db.DetectionRun{CreatedAt: at.UnixNano(), SNR: 3.5}
	assert.Equal(t, "2026-03-01T12:00:00Z, no detection (SNR 3.50)", runSubtitle(run))

	run.Planet.Detected = true
	run.Planet.TemperatureK = 288
	run.Planet.Atmosphere.BiosignatureScore = 0.9
	assert.Equal(t, "2026-03-01T12:00:00Z, SNR 3.50, T 288 K, biosignature 0.9", runSubtitle(run))

	assert.Equal(t, "Run x", runTitle(&db.DetectionRun{RunID: "x"}))
	assert.Equal(t, "kepler (x)", runTitle(&db.DetectionRun{RunID: "x", Label: "kepler"}))
}

func TestStatusCodeColor(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, colorBoldGreen + "200" + colorReset},
		{302, colorYellow + "302" + colorReset},
		{404, colorBoldRed + "404" + colorReset},
		{500, colorBoldRed + "500" + colorReset},
		{101, "101"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusCodeColor(tt.code))
	}
}

func TestLoggingMiddleware_PassesStatus(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	w := testutil.Serve(h, testutil.NewTestRequest(http.MethodGet, "/x?y=1"))
	testutil.AssertStatusCode(t, w.Code, http.StatusAccepted)
}

func TestArtefactName(t *testing.T) {
	assert.Equal(t, "abc-image.png", artefactName(&db.DetectionRun{RunID: "abc"}, "image.png"))
	assert.Equal(t, "Proxima_Cen_b-spectrum.png",
		artefactName(&db.DetectionRun{RunID: "abc", Label: "Proxima Cen b"}, "spectrum.png"))
}
