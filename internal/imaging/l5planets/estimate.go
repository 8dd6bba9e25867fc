package l5planets

import (
	"math"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/l4sources"
	"github.com/banshee-data/solarlens/internal/units"
)

// Config holds the reference assumptions used to invert the observables.
type Config struct {
	ReferenceAlbedo     float64 // Bond albedo assumed for the radius estimate
	ReferenceDistanceLY float64 // distance assumed for the radius estimate
	TargetLuminosity    float64 // in solar luminosities
	HabitableInnerAU    float64 // inner edge at 1 L_sun
	HabitableOuterAU    float64 // outer edge at 1 L_sun
	Scale               imaging.SpectralScale
}

// DefaultConfig returns the reference mission assumptions.
func DefaultConfig() Config {
	return Config{
		ReferenceAlbedo:     0.3,
		ReferenceDistanceLY: 10,
		TargetLuminosity:    1.0,
		HabitableInnerAU:    0.95,
		HabitableOuterAU:    1.37,
		Scale:               imaging.ReferenceScale(),
	}
}

// Estimate is the physical characterisation of a detected planet.
type Estimate struct {
	RadiusEarth     float64 `json:"radius_earth"`
	TemperatureK    float64 `json:"temperature_k"`
	Albedo          float64 `json:"albedo"`
	OrbitalRadiusAU float64 `json:"orbital_radius_au"`
	InHabitableZone bool    `json:"in_habitable_zone"`
}

// Estimator applies Config to detections.
type Estimator struct {
	cfg Config
}

// NewEstimator returns an estimator for cfg.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Estimate derives every physical parameter from det.
func (e *Estimator) Estimate(det l4sources.Detection) Estimate {
	var out Estimate
	out.RadiusEarth = e.RadiusFromFlux(det.Flux)
	out.TemperatureK = e.TemperatureFromSpectrum(det.Spectrum)
	out.Albedo = AlbedoFromTemperature(out.TemperatureK)
	out.OrbitalRadiusAU = OrbitFromDoppler(det.DopplerShift)
	out.InHabitableZone = e.InHabitableZone(out.OrbitalRadiusAU)
	return out
}

// RadiusFromFlux inverts flux = (R/d)² · albedo · L / (4π) for R, using the
// reference albedo and distance and a sun-like luminosity, and returns R in
// Earth radii. Non-positive flux gives 0.
func (e *Estimator) RadiusFromFlux(flux float64) float64 {
	if !(flux > 0) || math.IsInf(flux, 0) || !(e.cfg.ReferenceAlbedo > 0) {
		return 0
	}
	d := units.ToMeters(e.cfg.ReferenceDistanceLY, units.LightYears)
	radius := math.Sqrt(flux * 4.0 * math.Pi * d * d / (e.cfg.ReferenceAlbedo * units.SolarLuminosityW))
	return units.MetersToEarthRadii(radius)
}

// TemperatureFromSpectrum applies Wien's displacement law to the
// wavelength of the peak bin. A spectrum without a positive sample gives 0.
func (e *Estimator) TemperatureFromSpectrum(s imaging.Spectrum) float64 {
	peak := s.PeakBin()
	if peak < 0 {
		return 0
	}
	return WienTemperature(e.cfg.Scale.WavelengthForBin(peak))
}

// WienTemperature returns the blackbody temperature in K whose emission
// peaks at wavelengthNM.
func WienTemperature(wavelengthNM float64) float64 {
	if !(wavelengthNM > 0) {
		return 0
	}
	return units.WienB / units.NanometersToMeters(wavelengthNM)
}

// AlbedoFromTemperature returns the Bond albedo 1 - σT⁴/S, where S is the
// solar flux at 1 AU. Zero temperature gives 0.
func AlbedoFromTemperature(temperatureK float64) float64 {
	if !(temperatureK > 0) || math.IsInf(temperatureK, 0) {
		return 0
	}
	emitted := units.StefanBoltzmann * math.Pow(temperatureK, 4)
	incident := units.SolarLuminosityW / (4.0 * math.Pi * units.AstronomicalUnitM * units.AstronomicalUnitM)
	return 1.0 - emitted/incident
}

// OrbitFromDoppler returns the circular edge-on orbital radius in AU for a
// line-of-sight velocity of dopplerShift·c around one solar mass. Zero
// shift, or one so small the radius overflows, gives 0.
func OrbitFromDoppler(dopplerShift float64) float64 {
	v := dopplerShift * units.C
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	r := units.G * units.SolarMassKg / (v * v)
	if !units.IsFinite(r) {
		return 0
	}
	return units.ConvertDistance(r, units.AU)
}

// HabitableZone returns the inner and outer edges in AU for the target
// luminosity.
func (e *Estimator) HabitableZone() (inner, outer float64) {
	s := math.Sqrt(math.Max(e.cfg.TargetLuminosity, 0))
	return e.cfg.HabitableInnerAU * s, e.cfg.HabitableOuterAU * s
}

// InHabitableZone reports whether orbitAU lies strictly between the edges.
func (e *Estimator) InHabitableZone(orbitAU float64) bool {
	inner, outer := e.HabitableZone()
	return orbitAU > inner && orbitAU < outer
}

// Confidence maps an SNR onto the reported confidence. It is not clamped.
func Confidence(snr float64) float64 {
	return snr / 10.0
}
