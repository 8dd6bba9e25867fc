package l2corona

import (
	"fmt"
	"math"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/optics"
)

// Config describes the detector geometry used to map pixels onto angular
// distance from the Sun.
type Config struct {
	Width                int
	Height               int
	PixelsPerSolarRadius float64
	WavelengthNM         float64 // wavelength the corona model is evaluated at
}

// Subtractor removes a precomputed corona model from an image. The model
// is evaluated once per pixel at construction.
type Subtractor struct {
	cfg   Config
	model []float32
}

// NewSubtractor evaluates the corona model over the detector, using the
// radial distance of each pixel from (W/2, H/2).
func NewSubtractor(lens *optics.Lens, cfg Config) (*Subtractor, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", imaging.ErrDimensions, cfg.Width, cfg.Height)
	}
	if !(cfg.PixelsPerSolarRadius > 0) {
		return nil, fmt.Errorf("pixels per solar radius must be positive, got %v", cfg.PixelsPerSolarRadius)
	}
	if !(cfg.WavelengthNM > 0) {
		return nil, fmt.Errorf("corona wavelength must be positive, got %v", cfg.WavelengthNM)
	}

	s := &Subtractor{cfg: cfg, model: make([]float32, cfg.Width*cfg.Height)}
	cx := float64(cfg.Width) / 2.0
	cy := float64(cfg.Height) / 2.0
	for y := 0; y < cfg.Height; y++ {
		dy := float64(y) - cy
		for x := 0; x < cfg.Width; x++ {
			dx := float64(x) - cx
			r := math.Sqrt(dx*dx+dy*dy) / cfg.PixelsPerSolarRadius
			s.model[y*cfg.Width+x] = float32(lens.CoronaBrightness(r, cfg.WavelengthNM))
		}
	}
	return s, nil
}

// Model returns the corona brightness at (x, y).
func (s *Subtractor) Model(x, y int) float32 {
	return s.model[y*s.cfg.Width+x]
}

// Subtract writes src minus the corona model into dst. dst and src may be
// the same image. The target distance is accepted for a future
// distance-dependent model and does not affect the result.
func (s *Subtractor) Subtract(dst, src *imaging.Image, targetDistanceLY float64) error {
	_ = targetDistanceLY
	if src.Width != s.cfg.Width || src.Height != s.cfg.Height || !dst.SameShape(src) {
		return fmt.Errorf("%w: model %dx%d, src %dx%d, dst %dx%d", imaging.ErrDimensions,
			s.cfg.Width, s.cfg.Height, src.Width, src.Height, dst.Width, dst.Height)
	}
	for i, v := range src.Pix {
		dst.Pix[i] = v - s.model[i]
	}
	return nil
}
