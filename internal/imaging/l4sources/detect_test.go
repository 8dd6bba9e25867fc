package l4sources

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/testutil"
)

// sourceImage places value at (cx, cy) on a 32×32 grid and fills every
// annulus pixel around it with bg.
func sourceImage(cx, cy int, value, bg float32) *imaging.Image {
	im := imaging.NewImage(32, 32)
	for dy := -10; dy <= 10; dy++ {
		for dx := -10; dx <= 10; dx++ {
			if max(abs(dx), abs(dy)) >= 6 {
				im.Set(cx+dx, cy+dy, bg)
			}
		}
	}
	im.Set(cx, cy, value)
	return im
}

func TestDetect_ThresholdBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Epsilon = 0
	d, err := NewDetector(cfg)
	require.NoError(t, err)

	at := d.Detect(sourceImage(16, 16, 5.0, 1), 0, nil)
	assert.Equal(t, 5.0, at.SNR)
	assert.False(t, at.Found, "SNR exactly at threshold must not be a detection")

	above := d.Detect(sourceImage(16, 16, 5.01, 1), 0, nil)
	assert.InDelta(t, 5.01, above.SNR, 1e-6)
	assert.True(t, above.Found)
}

func TestDetect_Measurements(t *testing.T) {
	d, err := NewDetector(DefaultConfig())
	require.NoError(t, err)

	im := sourceImage(15, 17, 100, 2)
	im.Set(16, 17, 10) // inside the aperture
	im.Set(12, 17, 50) // Chebyshev 3: neither aperture nor annulus

	spec := imaging.Spectrum{1, 2, 3}
	det := d.Detect(im, 9.9e-5, spec)

	assert.True(t, det.Found)
	assert.Equal(t, 15, det.PeakX)
	assert.Equal(t, 17, det.PeakY)
	assert.Equal(t, 100.0, det.PeakValue)
	assert.InDelta(t, 110.0, det.Flux, 1e-9)
	assert.InDelta(t, 2.0, det.Noise, 1e-9)
	assert.InDelta(t, 55.0, det.SNR, 1e-6)
	assert.Equal(t, 9.9e-5, det.DopplerShift)
	assert.Equal(t, spec, det.Spectrum)
}

func TestDetect_PeakOnlyInInterior(t *testing.T) {
	d, _ := NewDetector(DefaultConfig())
	im := imaging.NewImage(32, 32)
	im.Set(5, 16, 1000)  // inside the margin
	im.Set(16, 22, 1000) // row 22 is outside [10, 22)
	im.Set(20, 12, 3)

	x, y, v, ok := d.FindPeak(im)
	require.True(t, ok)
	assert.Equal(t, 20, x)
	assert.Equal(t, 12, y)
	assert.Equal(t, float32(3), v)
}

func TestDetect_NoPositivePixel(t *testing.T) {
	d, _ := NewDetector(DefaultConfig())
	im := testutil.FilledImage(32, 32, -4)

	det := d.Detect(im, 1e-4, imaging.Spectrum{1})
	assert.False(t, det.Found)
	assert.Zero(t, det.Flux)
	assert.Zero(t, det.SNR)
	assert.Equal(t, 1e-4, det.DopplerShift)

	// Interior smaller than the margins
	_, _, _, ok := d.FindPeak(imaging.NewImage(16, 16))
	assert.False(t, ok)
}

func TestDetect_ZeroNoiseUsesEpsilon(t *testing.T) {
	d, _ := NewDetector(DefaultConfig())
	im := imaging.NewImage(32, 32)
	im.Set(16, 16, 1)

	det := d.Detect(im, 0, nil)
	assert.True(t, det.Found)
	assert.False(t, math.IsInf(det.SNR, 0))
	assert.InDelta(t, 1e10, det.SNR, 1)
}

func TestAnnulusPixelCount(t *testing.T) {
	assert.Equal(t, 320, DefaultConfig().AnnulusPixelCount())

	d, _ := NewDetector(DefaultConfig())
	im := testutil.FilledImage(32, 32, 1)
	d.annulusRMS(im, 16, 16)
	assert.Len(t, d.annulus, 320)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative aperture", func(c *Config) { c.ApertureRadius = -1 }},
		{"inner inside aperture", func(c *Config) { c.AnnulusInner = 2 }},
		{"outer below inner", func(c *Config) { c.AnnulusOuter = 5 }},
		{"negative margin", func(c *Config) { c.Margin = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewDetector(cfg)
			assert.Error(t, err)
		})
	}
}
