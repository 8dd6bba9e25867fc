package l4sources

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/solarlens/internal/imaging"
)

// Config holds the detection geometry and threshold.
type Config struct {
	Margin         int     // pixels excluded from the peak search on every side
	ApertureRadius int     // square aperture half-width; 2 gives 5×5
	AnnulusInner   int     // inclusive Chebyshev radius
	AnnulusOuter   int     // inclusive Chebyshev radius
	Threshold      float64 // SNR must exceed this
	Epsilon        float64 // added to the noise before dividing
}

// DefaultConfig returns the reference mission settings.
func DefaultConfig() Config {
	return Config{
		Margin:         10,
		ApertureRadius: 2,
		AnnulusInner:   6,
		AnnulusOuter:   10,
		Threshold:      5.0,
		Epsilon:        1e-10,
	}
}

// Validate checks the geometry is self-consistent.
func (c Config) Validate() error {
	if c.ApertureRadius < 0 {
		return fmt.Errorf("aperture radius must be non-negative, got %d", c.ApertureRadius)
	}
	if c.AnnulusInner <= c.ApertureRadius {
		return fmt.Errorf("annulus inner radius %d must exceed aperture radius %d", c.AnnulusInner, c.ApertureRadius)
	}
	if c.AnnulusOuter < c.AnnulusInner {
		return fmt.Errorf("annulus outer radius %d below inner radius %d", c.AnnulusOuter, c.AnnulusInner)
	}
	if c.Margin < 0 {
		return fmt.Errorf("margin must be non-negative, got %d", c.Margin)
	}
	return nil
}

// Detection is the outcome of a point-source search.
type Detection struct {
	Found        bool             `json:"found"`
	Flux         float64          `json:"flux"`
	SNR          float64          `json:"snr"`
	Noise        float64          `json:"noise"`
	PeakX        int              `json:"peak_x"`
	PeakY        int              `json:"peak_y"`
	PeakValue    float64          `json:"peak_value"`
	DopplerShift float64          `json:"doppler_shift"`
	Spectrum     imaging.Spectrum `json:"-"`
}

// Detector measures the brightest source in an image. The annulus scratch
// slice is reused between calls, so a Detector is not safe for concurrent
// use.
type Detector struct {
	cfg     Config
	annulus []float64
}

// NewDetector validates cfg and returns a detector.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	side := 2*cfg.AnnulusOuter + 1
	return &Detector{cfg: cfg, annulus: make([]float64, 0, side*side)}, nil
}

// Config returns the detector settings.
func (d *Detector) Config() Config { return d.cfg }

// FindPeak returns the brightest strictly positive pixel inside the margin.
// ok is false when the interior is empty or holds no positive pixel.
func (d *Detector) FindPeak(img *imaging.Image) (x, y int, value float32, ok bool) {
	m := d.cfg.Margin
	x, y = -1, -1
	for py := m; py < img.Height-m; py++ {
		row := img.Pix[py*img.Width : (py+1)*img.Width]
		for px := m; px < img.Width-m; px++ {
			if row[px] > value {
				value = row[px]
				x, y = px, py
			}
		}
	}
	return x, y, value, x >= 0
}

// Detect searches img for a point source. The Doppler shift and spectrum
// are carried through unchanged. A missing peak yields a zero Detection
// apart from the pass-through fields.
func (d *Detector) Detect(img *imaging.Image, dopplerShift float64, spectrum imaging.Spectrum) Detection {
	det := Detection{DopplerShift: dopplerShift, Spectrum: spectrum}

	px, py, peak, ok := d.FindPeak(img)
	if !ok {
		return det
	}
	det.PeakX, det.PeakY, det.PeakValue = px, py, float64(peak)

	det.Flux = d.apertureSum(img, px, py)
	det.Noise = d.annulusRMS(img, px, py)
	det.SNR = det.Flux / (det.Noise + d.cfg.Epsilon)
	if math.IsNaN(det.SNR) {
		det.SNR = 0
	}
	det.Found = det.SNR > d.cfg.Threshold
	return det
}

func (d *Detector) apertureSum(img *imaging.Image, cx, cy int) float64 {
	r := d.cfg.ApertureRadius
	var s float64
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if img.In(x, y) {
				s += float64(img.At(x, y))
			}
		}
	}
	return s
}

// annulusRMS is the RMS over in-bounds pixels whose Chebyshev distance from
// (cx, cy) lies in [AnnulusInner, AnnulusOuter].
func (d *Detector) annulusRMS(img *imaging.Image, cx, cy int) float64 {
	d.annulus = d.annulus[:0]
	ro, ri := d.cfg.AnnulusOuter, d.cfg.AnnulusInner
	for dy := -ro; dy <= ro; dy++ {
		for dx := -ro; dx <= ro; dx++ {
			if max(abs(dx), abs(dy)) < ri {
				continue
			}
			x, y := cx+dx, cy+dy
			if img.In(x, y) {
				d.annulus = append(d.annulus, float64(img.At(x, y)))
			}
		}
	}
	if len(d.annulus) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(d.annulus, d.annulus) / float64(len(d.annulus)))
}

// AnnulusPixelCount returns the number of pixels in a fully in-bounds
// annulus.
func (c Config) AnnulusPixelCount() int {
	outer := 2*c.AnnulusOuter + 1
	inner := 2*(c.AnnulusInner-1) + 1
	return outer*outer - inner*inner
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
