package l3deconv

import (
	"fmt"
	"math"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/optics"
)

// Config controls the iteration.
type Config struct {
	Iterations   int     // fixed iteration count
	KernelRadius int     // box kernel half-width; 2 gives a 5×5 kernel
	Epsilon      float64 // added to the forward convolution before dividing
}

// DefaultConfig returns the reference mission settings.
func DefaultConfig() Config {
	return Config{Iterations: 50, KernelRadius: 2, Epsilon: 1e-10}
}

// Deconvolver owns the working buffers for one image size. It is not safe
// for concurrent use.
type Deconvolver struct {
	cfg      Config
	width    int
	height   int
	weight   float64
	estimate *imaging.Image
	ratio    *imaging.Image
	conv     *imaging.Image
	rowSum   []float64
}

// NewDeconvolver allocates buffers for width×height images.
func NewDeconvolver(width, height int, cfg Config) (*Deconvolver, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", imaging.ErrDimensions, width, height)
	}
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("iterations must be non-negative, got %d", cfg.Iterations)
	}
	if cfg.KernelRadius < 0 {
		return nil, fmt.Errorf("kernel radius must be non-negative, got %d", cfg.KernelRadius)
	}
	side := float64(2*cfg.KernelRadius + 1)
	return &Deconvolver{
		cfg:      cfg,
		width:    width,
		height:   height,
		weight:   1.0 / (side * side),
		estimate: imaging.NewImage(width, height),
		ratio:    imaging.NewImage(width, height),
		conv:     imaging.NewImage(width, height),
		rowSum:   make([]float64, width*height),
	}, nil
}

// Deconvolve replaces img with its deconvolved estimate. Each iteration
// convolves the estimate with the box kernel, divides the observed image
// by it, convolves that ratio with the same kernel and multiplies it into
// the estimate. Out-of-bounds taps are skipped without renormalisation, so
// pixels near the edges lose flux. The psf does not shape the kernel,
// which is always the fixed box.
func (d *Deconvolver) Deconvolve(img *imaging.Image, psf *optics.PSF) error {
	if img.Width != d.width || img.Height != d.height || len(img.Pix) != d.width*d.height {
		return fmt.Errorf("%w: deconvolver %dx%d, image %dx%d",
			imaging.ErrDimensions, d.width, d.height, img.Width, img.Height)
	}
	d.estimate.CopyFrom(img)
	eps := d.cfg.Epsilon
	for iter := 0; iter < d.cfg.Iterations; iter++ {
		d.boxConvolve(d.conv, d.estimate)
		for i, obs := range img.Pix {
			r := float64(obs) / (float64(d.conv.Pix[i]) + eps)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			d.ratio.Pix[i] = float32(r)
		}

		d.boxConvolve(d.conv, d.ratio)
		for i, c := range d.conv.Pix {
			v := d.estimate.Pix[i] * c
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				v = 0
			}
			d.estimate.Pix[i] = v
		}
	}
	img.CopyFrom(d.estimate)
	return nil
}

// boxConvolve writes the clipped box-kernel convolution of src into dst as
// two separable passes. Summing clipped rows of clipped columns covers the
// same taps as the direct 2-D window.
func (d *Deconvolver) boxConvolve(dst, src *imaging.Image) {
	r := d.cfg.KernelRadius
	w, h := d.width, d.height

	for y := 0; y < h; y++ {
		row := src.Pix[y*w : (y+1)*w]
		out := d.rowSum[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			x0, x1 := max(x-r, 0), min(x+r, w-1)
			var s float64
			for k := x0; k <= x1; k++ {
				s += float64(row[k])
			}
			out[x] = s
		}
	}

	for y := 0; y < h; y++ {
		y0, y1 := max(y-r, 0), min(y+r, h-1)
		for x := 0; x < w; x++ {
			var s float64
			for k := y0; k <= y1; k++ {
				s += d.rowSum[k*w+x]
			}
			dst.Pix[y*w+x] = float32(s * d.weight)
		}
	}
}
