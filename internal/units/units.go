// Package units provides shared physical constants, distance units and
// conversions used by the optics and imaging packages.
package units

import "math"

// Distance unit constants
const (
	Meters      = "m"
	AU          = "au"
	LightYears  = "ly"
	Parsecs     = "pc"
	SolarRadius = "rsun"
)

// ValidDistanceUnits contains all valid distance unit values
var ValidDistanceUnits = []string{Meters, AU, LightYears, Parsecs, SolarRadius}

// IsValid checks if the given unit is in the list of valid distance units
func IsValid(unit string) bool {
	for _, validUnit := range ValidDistanceUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, au, ly, pc, rsun"
}

// ConvertDistance converts a distance in meters to the target units.
// Unknown units return the value in meters.
func ConvertDistance(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case AU:
		return meters / AstronomicalUnitM
	case LightYears:
		return meters / LightYearM
	case Parsecs:
		return meters / ParsecM
	case SolarRadius:
		return meters / SolarRadiusM
	case Meters:
		return meters
	default:
		return meters
	}
}

// ToMeters converts a distance expressed in the given units to meters.
func ToMeters(value float64, fromUnits string) float64 {
	switch fromUnits {
	case AU:
		return value * AstronomicalUnitM
	case LightYears:
		return value * LightYearM
	case Parsecs:
		return value * ParsecM
	case SolarRadius:
		return value * SolarRadiusM
	default:
		return value
	}
}

// NanometersToMeters converts a wavelength in nm to meters.
func NanometersToMeters(nm float64) float64 {
	return nm * 1e-9
}

// RadiansToMilliarcseconds converts an angle in radians to milliarcseconds.
func RadiansToMilliarcseconds(rad float64) float64 {
	return rad * MilliarcsecPerRadian
}

// MetersToEarthRadii converts a length in meters to Earth radii.
func MetersToEarthRadii(m float64) float64 {
	return m / EarthRadiusM
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
