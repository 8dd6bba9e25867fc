package l5planets

import (
	"math"
	"testing"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/l4sources"
	"github.com/banshee-data/solarlens/internal/units"
)

func TestTemperatureFromSpectrum_WienRoundTrip(t *testing.T) {
	e := NewEstimator(DefaultConfig())
	s := make(imaging.Spectrum, 2048)
	for i := range s {
		s[i] = 0.1
	}
	s[103] = 1 // 400 + 103·2000/2048 ≈ 500.59 nm

	got := e.TemperatureFromSpectrum(s)
	if rel := math.Abs(got-5786) / 5786; rel > 0.01 {
		t.Errorf("temperature = %v K, want within 1%% of 5786", got)
	}
}

func TestTemperatureFromSpectrum_NoPositiveSample(t *testing.T) {
	e := NewEstimator(DefaultConfig())
	if got := e.TemperatureFromSpectrum(make(imaging.Spectrum, 2048)); got != 0 {
		t.Errorf("zero spectrum temperature = %v, want 0", got)
	}
	if got := e.TemperatureFromSpectrum(nil); got != 0 {
		t.Errorf("nil spectrum temperature = %v, want 0", got)
	}
}

func TestRadiusFromFlux(t *testing.T) {
	e := NewEstimator(DefaultConfig())
	tests := []struct {
		name string
		flux float64
		want float64
	}{
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"NaN", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.RadiusFromFlux(tt.flux); got != tt.want {
				t.Errorf("RadiusFromFlux(%v) = %v, want %v", tt.flux, got, tt.want)
			}
		})
	}

	// Radius scales with the square root of flux
	r1 := e.RadiusFromFlux(1e6)
	r4 := e.RadiusFromFlux(4e6)
	if math.Abs(r4/r1-2) > 1e-12 {
		t.Errorf("radius ratio = %v, want 2", r4/r1)
	}

	d := 10 * units.LightYearM
	want := math.Sqrt(1e6*4*math.Pi*d*d/(0.3*units.SolarLuminosityW)) / units.EarthRadiusM
	if math.Abs(r1-want) > 1e-9*want {
		t.Errorf("RadiusFromFlux(1e6) = %v, want %v", r1, want)
	}
}

func TestAlbedoFromTemperature(t *testing.T) {
	if got := AlbedoFromTemperature(0); got != 0 {
		t.Errorf("albedo at 0 K = %v, want 0", got)
	}
	// 394 K radiates the 1 AU solar constant: albedo near 0
	if got := AlbedoFromTemperature(394); math.Abs(got) > 0.02 {
		t.Errorf("albedo at 394 K = %v, want about 0", got)
	}
	// Cold bodies reflect almost everything
	if got := AlbedoFromTemperature(50); got < 0.99 || got > 1 {
		t.Errorf("albedo at 50 K = %v, want just under 1", got)
	}
	// Hot bodies go negative and are reported as such
	if got := AlbedoFromTemperature(5786); got >= 0 {
		t.Errorf("albedo at 5786 K = %v, want negative", got)
	}
}

func TestOrbitFromDoppler(t *testing.T) {
	// Earth's orbital speed is 29.78 km/s
	if got := OrbitFromDoppler(9.934e-5); math.Abs(got-1) > 0.01 {
		t.Errorf("orbit = %v AU, want about 1", got)
	}
	if got := OrbitFromDoppler(-9.934e-5); math.Abs(got-1) > 0.01 {
		t.Errorf("receding orbit = %v AU, want about 1", got)
	}
	if got := OrbitFromDoppler(0); got != 0 {
		t.Errorf("zero shift orbit = %v, want 0", got)
	}
	// Halving the speed quadruples the radius
	a1, a2 := OrbitFromDoppler(2e-4), OrbitFromDoppler(1e-4)
	if math.Abs(a2/a1-4) > 1e-9 {
		t.Errorf("orbit ratio = %v, want 4", a2/a1)
	}
}

func TestOrbitFromDoppler_DegenerateShifts(t *testing.T) {
	tests := []struct {
		name  string
		shift float64
	}{
		{"subnormal velocity squared", 1e-170},
		{"velocity squared underflows", 1e-200},
		{"NaN", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrbitFromDoppler(tt.shift); got != 0 {
				t.Errorf("OrbitFromDoppler(%v) = %v, want 0", tt.shift, got)
			}
		})
	}
}

func TestHabitableZone(t *testing.T) {
	e := NewEstimator(DefaultConfig())
	tests := []struct {
		orbit float64
		want  bool
	}{
		{0.95, false},
		{0.96, true},
		{1.0, true},
		{1.369, true},
		{1.37, false},
		{0, false},
	}
	for _, tt := range tests {
		if got := e.InHabitableZone(tt.orbit); got != tt.want {
			t.Errorf("InHabitableZone(%v) = %v, want %v", tt.orbit, got, tt.want)
		}
	}

	cfg := DefaultConfig()
	cfg.TargetLuminosity = 4
	inner, outer := NewEstimator(cfg).HabitableZone()
	if inner != 1.9 || outer != 2.74 {
		t.Errorf("HabitableZone(4 L_sun) = (%v, %v), want (1.9, 2.74)", inner, outer)
	}
}

func TestEstimate(t *testing.T) {
	e := NewEstimator(DefaultConfig())
	s := make(imaging.Spectrum, 2048)
	s[103] = 1
	det := l4sources.Detection{Found: true, Flux: 1e7, SNR: 20, DopplerShift: 9.934e-5, Spectrum: s}

	got := e.Estimate(det)
	if got.RadiusEarth != e.RadiusFromFlux(1e7) {
		t.Errorf("RadiusEarth = %v", got.RadiusEarth)
	}
	if got.TemperatureK != WienTemperature(400+103*2000.0/2048) {
		t.Errorf("TemperatureK = %v", got.TemperatureK)
	}
	if got.Albedo != AlbedoFromTemperature(got.TemperatureK) {
		t.Errorf("Albedo = %v", got.Albedo)
	}
	if !got.InHabitableZone {
		t.Errorf("expected habitable zone for a 1 AU orbit, orbit = %v", got.OrbitalRadiusAU)
	}
}

func TestConfidenceUncapped(t *testing.T) {
	if got := Confidence(25); got != 2.5 {
		t.Errorf("Confidence(25) = %v, want 2.5", got)
	}
}
