package synth

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/l6spectra"
	"github.com/banshee-data/solarlens/internal/units"
)

// EarthLikeDepths are absorption depths in percent for an inhabited,
// Earth-like atmosphere.
var EarthLikeDepths = map[string]float64{
	"O2":  2.0,
	"CH4": 0.5,
	"H2O": 1.0,
	"CO2": 0.5,
	"N2":  0.2,
}

// SpectrumGenerator produces planet spectra on a fixed scale.
type SpectrumGenerator struct {
	Scale        imaging.SpectralScale
	TemperatureK float64
	Depths       map[string]float64 // percent, keyed by molecule
	NoiseSigma   float64            // Gaussian noise relative to the peak

	src rand.Source
}

// NewSpectrumGenerator returns a noiseless generator for a Sun-like
// continuum without absorption.
func NewSpectrumGenerator(scale imaging.SpectralScale, seed uint64) *SpectrumGenerator {
	return &SpectrumGenerator{
		Scale:        scale,
		TemperatureK: units.SolarTemperatureK,
		src:          rand.NewPCG(seed, seed^0x6a09e667f3bcc909),
	}
}

// Planck returns the blackbody spectral radiance at wavelength nm.
func Planck(nm, temperatureK float64) float64 {
	lambda := units.NanometersToMeters(nm)
	if lambda <= 0 || temperatureK <= 0 {
		return 0
	}
	a := 2 * units.Planck * units.C * units.C / math.Pow(lambda, 5)
	x := units.Planck * units.C / (lambda * units.Boltzmann * temperatureK)
	return a / math.Expm1(x)
}

// Spectrum draws one spectrum normalised to a continuum peak of 1.
func (g *SpectrumGenerator) Spectrum() imaging.Spectrum {
	n := g.Scale.Bins
	if n <= 0 {
		return nil
	}
	cont := make([]float64, n)
	for i := range cont {
		cont[i] = Planck(g.Scale.WavelengthForBin(i), g.TemperatureK)
	}
	if peak := floats.Max(cont); peak > 0 {
		floats.Scale(1/peak, cont)
	}

	for _, line := range l6spectra.Lines {
		depth, ok := g.Depths[line.Molecule]
		if !ok {
			continue
		}
		bin := g.Scale.BinForWavelength(line.WavelengthNM)
		if bin >= 0 && bin < n {
			cont[bin] *= 1 - depth/100
		}
	}

	if g.NoiseSigma > 0 {
		noise := distuv.Normal{Mu: 0, Sigma: g.NoiseSigma, Src: g.src}
		for i := range cont {
			cont[i] += noise.Rand()
		}
	}

	s := make(imaging.Spectrum, n)
	for i, v := range cont {
		s[i] = float32(v)
	}
	return s
}
