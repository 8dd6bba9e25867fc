package optics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/solarlens/internal/units"
)

// DefaultPSFSize is the kernel size of the reference mission.
const DefaultPSFSize = 256

// rayleighFactor is the first-null coefficient of a circular aperture.
const rayleighFactor = 1.22

// PSF is a square point-spread-function kernel together with the
// diffraction-limited resolution of the lens at the wavelength it was
// generated for.
type PSF struct {
	Size    int
	Kernel  *mat.Dense
	FWHMMas float64 // milliarcseconds
}

// Sum returns the total kernel weight.
func (p *PSF) Sum() float64 {
	if p == nil || p.Kernel == nil {
		return 0
	}
	return mat.Sum(p.Kernel)
}

// PSF generates a size×size Gaussian kernel (sigma = size/6, centred at
// size/2) and the Rayleigh-like angular resolution for the wavelength and
// observer baseline distance. A non-positive size falls back to
// DefaultPSFSize.
func (l *Lens) PSF(wavelengthNM, observerDistanceAU float64, size int) *PSF {
	if size <= 0 {
		size = DefaultPSFSize
	}

	psf := &PSF{Size: size, Kernel: mat.NewDense(size, size, nil)}

	baseline := units.ToMeters(observerDistanceAU, units.AU)
	if baseline > 0 {
		theta := rayleighFactor * units.NanometersToMeters(wavelengthNM) / baseline
		psf.FWHMMas = units.RadiansToMilliarcseconds(theta)
	}

	sigma := float64(size) / 6.0
	center := float64(size) / 2.0
	twoSigma2 := 2.0 * sigma * sigma
	for i := 0; i < size; i++ {
		di := float64(i) - center
		for j := 0; j < size; j++ {
			dj := float64(j) - center
			psf.Kernel.Set(i, j, math.Exp(-(di*di+dj*dj)/twoSigma2))
		}
	}
	return psf
}
