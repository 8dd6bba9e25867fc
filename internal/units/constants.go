package units

// Fundamental physical constants (SI units).
const (
	G                    = 6.67430e-11    // gravitational constant (m³/kg·s²)
	C                    = 299792458.0    // speed of light (m/s)
	Planck               = 6.62607015e-34 // Planck constant (J·s)
	Boltzmann            = 1.380649e-23   // Boltzmann constant (J/K)
	StefanBoltzmann      = 5.67e-8        // Stefan-Boltzmann constant (W/m²/K⁴)
	WienB                = 2.897e-3       // Wien displacement constant (m·K)
	MilliarcsecPerRadian = 206265000.0    // 206265 arcsec/rad × 1000
)

// Solar parameters.
const (
	SolarMassKg       = 1.98847e30 // kg
	SolarRadiusM      = 6.95700e8  // m
	SolarLuminosityW  = 3.828e26   // W
	SolarTemperatureK = 5778.0     // K
	EarthRadiusM      = 6.371e6    // m
)

// Distances.
const (
	AstronomicalUnitM = 1.495978707e11     // m
	LightYearM        = 9.4607304725808e15 // m
	ParsecM           = 3.0857e16          // m
)

// Mission focal-line parameters in AU.
const (
	FocalMinAU     = 547.8
	FocalOptimalAU = 650.0
	FocalMaxAU     = 900.0
)
