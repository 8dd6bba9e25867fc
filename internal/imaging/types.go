package imaging

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensions is returned when a grid has non-positive dimensions or a
// backing slice whose length does not match them.
var ErrDimensions = errors.New("invalid grid dimensions")

// Frame is a row-major grid of raw detector counts. The pipeline only reads
// frames.
type Frame struct {
	Width  int
	Height int
	Counts []uint16
}

// NewFrame allocates a zeroed frame.
func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Counts: make([]uint16, width*height)}
}

// At returns the count at column x, row y.
func (f *Frame) At(x, y int) uint16 { return f.Counts[y*f.Width+x] }

// Set stores a count at column x, row y.
func (f *Frame) Set(x, y int, v uint16) { f.Counts[y*f.Width+x] = v }

// Validate checks the frame shape.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrDimensions)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDimensions, f.Width, f.Height)
	}
	if len(f.Counts) != f.Width*f.Height {
		return fmt.Errorf("%w: %dx%d frame has %d counts", ErrDimensions, f.Width, f.Height, len(f.Counts))
	}
	return nil
}

// Image is a row-major float32 grid. Buffers are allocated once and
// overwritten in place by the layers.
type Image struct {
	Width  int
	Height int
	Pix    []float32
}

// NewImage allocates a zeroed image.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]float32, width*height)}
}

// Idx returns the flat index of (x, y).
func (im *Image) Idx(x, y int) int { return y*im.Width + x }

// At returns the value at column x, row y.
func (im *Image) At(x, y int) float32 { return im.Pix[y*im.Width+x] }

// Set stores v at column x, row y.
func (im *Image) Set(x, y int, v float32) { im.Pix[y*im.Width+x] = v }

// In reports whether (x, y) lies inside the image.
func (im *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < im.Width && y < im.Height
}

// SameShape reports whether two images have identical dimensions.
func (im *Image) SameShape(o *Image) bool {
	return im.Width == o.Width && im.Height == o.Height
}

// CopyFrom overwrites the pixels with those of src. Shapes must match.
func (im *Image) CopyFrom(src *Image) {
	copy(im.Pix, src.Pix)
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	out := NewImage(im.Width, im.Height)
	copy(out.Pix, im.Pix)
	return out
}

// Sum returns the total of all pixels, accumulated in float64.
func (im *Image) Sum() float64 {
	var s float64
	for _, v := range im.Pix {
		s += float64(v)
	}
	return s
}

// MinMax returns the smallest and largest pixel values.
func (im *Image) MinMax() (lo, hi float32) {
	if len(im.Pix) == 0 {
		return 0, 0
	}
	lo, hi = im.Pix[0], im.Pix[0]
	for _, v := range im.Pix[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Spectrum holds per-bin intensity samples.
type Spectrum []float32

// Clone returns a copy of the spectrum; nil stays nil.
func (s Spectrum) Clone() Spectrum {
	if s == nil {
		return nil
	}
	out := make(Spectrum, len(s))
	copy(out, s)
	return out
}

// PeakBin returns the index of the largest strictly positive sample, or -1
// when no sample is positive. Ties resolve to the lowest index.
func (s Spectrum) PeakBin() int {
	peak := -1
	var best float32
	for i, v := range s {
		if v > best {
			best = v
			peak = i
		}
	}
	return peak
}

// SpectralScale maps spectrum bins linearly onto a wavelength range.
type SpectralScale struct {
	MinNM float64 `json:"min_nm"`
	MaxNM float64 `json:"max_nm"`
	Bins  int     `json:"bins"`
}

// ReferenceScale returns the 2048-bin 400-2400 nm scale of the mission
// spectrometer.
func ReferenceScale() SpectralScale {
	return SpectralScale{MinNM: 400, MaxNM: 2400, Bins: 2048}
}

// Validate checks that the scale describes a non-empty increasing range.
func (sc SpectralScale) Validate() error {
	if sc.Bins <= 0 {
		return fmt.Errorf("spectral scale bins must be positive, got %d", sc.Bins)
	}
	if !(sc.MaxNM > sc.MinNM) || sc.MinNM < 0 || math.IsInf(sc.MaxNM, 0) {
		return fmt.Errorf("spectral scale range [%g, %g] nm is invalid", sc.MinNM, sc.MaxNM)
	}
	return nil
}

// BinForWavelength returns the bin containing nm, truncating toward zero.
// The result may lie outside [0, Bins).
func (sc SpectralScale) BinForWavelength(nm float64) int {
	return int((nm - sc.MinNM) * float64(sc.Bins) / (sc.MaxNM - sc.MinNM))
}

// WavelengthForBin returns the wavelength at the lower edge of bin i.
func (sc SpectralScale) WavelengthForBin(i int) float64 {
	return sc.MinNM + float64(i)*(sc.MaxNM-sc.MinNM)/float64(sc.Bins)
}
