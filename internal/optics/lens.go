package optics

import (
	"errors"
	"math"

	"github.com/banshee-data/solarlens/internal/units"
)

// ErrNoFocus is returned when no real focal distance exists for a
// wavelength (plasma dispersion factor negative or wavelength invalid).
var ErrNoFocus = errors.New("no valid focus at this wavelength")

const (
	// coronaElectronDensity is the electron density model (electrons/cm³)
	// used for the plasma dispersion correction.
	coronaElectronDensity = 1e8

	// perfectAlignment is the normalised impact parameter below which the
	// magnification saturates.
	perfectAlignment = 1e-6

	// MaxMagnification is the saturated magnification at perfect alignment.
	MaxMagnification = 1e12
)

// Lens holds the precomputed constants of the solar gravitational lens.
type Lens struct {
	schwarzschildRadius float64 // m
	einsteinRadius1AU   float64 // m
}

// NewLens precomputes the Schwarzschild radius of the Sun and the Einstein
// radius for a 1 AU lens distance.
func NewLens() *Lens {
	c2 := units.C * units.C
	return &Lens{
		schwarzschildRadius: 2.0 * units.G * units.SolarMassKg / c2,
		einsteinRadius1AU:   math.Sqrt(4.0 * units.G * units.SolarMassKg * units.AstronomicalUnitM / c2),
	}
}

// SchwarzschildRadius returns the Schwarzschild radius of the Sun in meters.
func (l *Lens) SchwarzschildRadius() float64 { return l.schwarzschildRadius }

// EinsteinRadius1AU returns the Einstein radius in meters for a lens at 1 AU.
func (l *Lens) EinsteinRadius1AU() float64 { return l.einsteinRadius1AU }

// FocalDistanceAU returns the chromatic-corrected focal distance in AU for
// the given wavelength. The achromatic base focal length is scaled by the
// square root of the plasma dispersion factor of the corona. When the
// factor is negative (the wavelength is below the plasma cutoff frequency)
// the result is NaN with ErrNoFocus.
func (l *Lens) FocalDistanceAU(wavelengthNM float64) (float64, error) {
	if !(wavelengthNM > 0) || math.IsInf(wavelengthNM, 0) {
		return math.NaN(), ErrNoFocus
	}
	wavelength := units.NanometersToMeters(wavelengthNM)

	base := units.SolarRadiusM * units.SolarRadiusM / (4.0 * l.schwarzschildRadius)

	plasmaFreq := 8.98e3 * math.Sqrt(coronaElectronDensity) // Hz
	lightFreq := units.C / wavelength
	dispersion := 1.0 - (plasmaFreq*plasmaFreq)/(lightFreq*lightFreq)
	if dispersion < 0 {
		return math.NaN(), ErrNoFocus
	}

	return base * math.Sqrt(dispersion) / units.AstronomicalUnitM, nil
}

// InFocalRange reports whether a heliocentric distance in AU lies on the
// usable focal line of the mission.
func InFocalRange(distanceAU float64) bool {
	return distanceAU >= units.FocalMinAU && distanceAU <= units.FocalMaxAU
}

// Magnification returns the point-lens magnification for a source at
// sourceDistanceLY observed from observerDistanceAU behind the Sun with the
// given impact parameter in km. The standard formula is attenuated by
// corona scattering. Near-perfect alignment saturates to MaxMagnification;
// a geometry without a real Einstein ring (source not beyond the observer)
// yields 0.
func (l *Lens) Magnification(sourceDistanceLY, observerDistanceAU, impactParameterKM float64) float64 {
	ds := units.ToMeters(sourceDistanceLY, units.LightYears)
	dl := units.ToMeters(observerDistanceAU, units.AU)
	if dl <= 0 || ds <= dl {
		return 0
	}

	thetaE := math.Sqrt(2.0 * l.schwarzschildRadius * (ds - dl) / (dl * ds))
	rE := thetaE * dl

	u := math.Abs(impactParameterKM*1000.0) / rE
	if u < perfectAlignment {
		return MaxMagnification
	}

	mu := (u*u + 2.0) / (u * math.Sqrt(u*u+4.0))
	coronaFactor := math.Exp(-0.1 / 500.0)
	return mu * coronaFactor
}
