// Package testutil provides shared test helpers and synthetic fixtures.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/synth"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewTestRequest creates a test HTTP request without a body.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// Serve runs req against h and returns the recorded response.
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// DecodeJSON decodes r into a new T, failing the test on error.
func DecodeJSON[T any](t testing.TB, r io.Reader) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return v
}

// PointSourceFrame returns a size×size frame that is zero except for one
// pixel of the given counts.
func PointSourceFrame(size, x, y int, counts uint16) *imaging.Frame {
	g := synth.NewFrameGenerator(size, 1)
	g.Sources = []synth.Source{{X: float64(x), Y: float64(y), PeakCounts: float64(counts)}}
	return g.Frame()
}

// EarthLikeSpectrum returns a noiseless Sun-temperature spectrum with
// Earth-like absorption bands on scale.
func EarthLikeSpectrum(scale imaging.SpectralScale) imaging.Spectrum {
	g := synth.NewSpectrumGenerator(scale, 1)
	g.Depths = synth.EarthLikeDepths
	return g.Spectrum()
}

// FilledImage returns a w×h image with every pixel set to v.
func FilledImage(w, h int, v float32) *imaging.Image {
	im := imaging.NewImage(w, h)
	for i := range im.Pix {
		im.Pix[i] = v
	}
	return im
}

// SumRegion sums the pixels of im in the half-open rectangle
// [x0,x1)×[y0,y1), clipped to the image.
func SumRegion(im *imaging.Image, x0, y0, x1, y1 int) float64 {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, im.Width), min(y1, im.Height)
	var s float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			s += float64(im.At(x, y))
		}
	}
	return s
}
