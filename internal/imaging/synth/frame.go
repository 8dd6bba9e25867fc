package synth

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/optics"
)

// Source is a Gaussian point source. Sigma of zero places all counts in
// the nearest pixel.
type Source struct {
	X, Y       float64 // pixel coordinates of the centre
	PeakCounts float64 // counts per second at the centre
	Sigma      float64 // pixels
}

// FrameGenerator produces detector frames in counts per second.
type FrameGenerator struct {
	Size               int
	IntegrationSeconds uint32 // converts the corona model into count rates

	// Corona is added when PixelsPerSolarRadius is positive.
	PixelsPerSolarRadius float64
	CoronaWavelengthNM   float64

	Background float64 // counts per second per pixel
	Sources    []Source
	Noise      bool // draw Poisson counts instead of rounding the rate

	lens *optics.Lens
	src  rand.Source
}

// NewFrameGenerator returns a noiseless generator for size×size frames.
func NewFrameGenerator(size int, seed uint64) *FrameGenerator {
	return &FrameGenerator{
		Size:               size,
		IntegrationSeconds: 1000,
		CoronaWavelengthNM: optics.CoronaReferenceWavelengthNM,
		lens:               optics.NewLens(),
		src:                rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
	}
}

// Rate returns the expected count rate at pixel (x, y) before clipping.
func (g *FrameGenerator) Rate(x, y int) float64 {
	rate := g.Background
	if g.PixelsPerSolarRadius > 0 && g.IntegrationSeconds > 0 {
		cx, cy := float64(g.Size)/2.0, float64(g.Size)/2.0
		r := math.Hypot(float64(x)-cx, float64(y)-cy) / g.PixelsPerSolarRadius
		rate += g.lens.CoronaBrightness(r, g.CoronaWavelengthNM) / float64(g.IntegrationSeconds)
	}
	for _, s := range g.Sources {
		dx, dy := float64(x)-s.X, float64(y)-s.Y
		if s.Sigma <= 0 {
			if math.Round(s.X) == float64(x) && math.Round(s.Y) == float64(y) {
				rate += s.PeakCounts
			}
			continue
		}
		rate += s.PeakCounts * math.Exp(-(dx*dx+dy*dy)/(2*s.Sigma*s.Sigma))
	}
	return rate
}

// Frame draws one frame. Counts are clipped to the uint16 range.
func (g *FrameGenerator) Frame() *imaging.Frame {
	f := imaging.NewFrame(g.Size, g.Size)
	poisson := distuv.Poisson{Src: g.src}
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			rate := g.Rate(x, y)
			var counts float64
			switch {
			case rate <= 0:
				counts = 0
			case rate >= math.MaxUint16:
				counts = math.MaxUint16
			case g.Noise:
				poisson.Lambda = rate
				counts = poisson.Rand()
			default:
				counts = math.Round(rate)
			}
			f.Set(x, y, uint16(min(counts, math.MaxUint16)))
		}
	}
	return f
}
