package optics

import "math"

const (
	// SolarDiskBrightness is the saturated brightness returned on the disk.
	SolarDiskBrightness = 1e10

	// CoronaReferenceWavelengthNM normalises the wavelength scaling.
	CoronaReferenceWavelengthNM = 550.0
)

// CoronaBrightness returns the sky brightness of the solar corona at an
// angular distance (in solar radii) from the Sun's centre. Inside one solar
// radius the value saturates; outside it is the sum of the K-corona
// (Thomson scattering, r^-2.5) and F-corona (dust, r^-2.2) power laws scaled
// by (λ/550nm)^-1.2.
func (l *Lens) CoronaBrightness(angularDistanceSolarRadii, wavelengthNM float64) float64 {
	r := angularDistanceSolarRadii
	if r < 1.0 {
		return SolarDiskBrightness
	}

	kCorona := 1e6 * math.Pow(r, -2.5)
	fCorona := 1e5 * math.Pow(r, -2.2)
	lambdaFactor := math.Pow(wavelengthNM/CoronaReferenceWavelengthNM, -1.2)

	return (kCorona + fCorona) * lambdaFactor
}
