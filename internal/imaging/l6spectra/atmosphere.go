package l6spectra

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/units"
)

// Atmosphere holds absorption depths in percent and the biosignature score.
type Atmosphere struct {
	Oxygen            float64 `json:"oxygen"`
	Methane           float64 `json:"methane"`
	Water             float64 `json:"water"`
	CO2               float64 `json:"co2"`
	Nitrogen          float64 `json:"nitrogen"`
	BiosignatureScore float64 `json:"biosignature_score"`
}

// AbsorptionLine names a molecular band and the Atmosphere field its depth
// is written to.
type AbsorptionLine struct {
	WavelengthNM float64
	Molecule     string
	field        func(*Atmosphere) *float64
}

// Lines is the ordered table of bands that are measured.
var Lines = []AbsorptionLine{
	{760, "O2", func(a *Atmosphere) *float64 { return &a.Oxygen }},    // O2 A-band
	{1640, "CH4", func(a *Atmosphere) *float64 { return &a.Methane }}, // methane
	{940, "H2O", func(a *Atmosphere) *float64 { return &a.Water }},    // water vapour
	{2013, "CO2", func(a *Atmosphere) *float64 { return &a.CO2 }},     // carbon dioxide
	{2300, "N2", func(a *Atmosphere) *float64 { return &a.Nitrogen }}, // nitrogen
}

// Biosignature thresholds in percent depth.
const (
	OxygenPresentPct  = 1.0
	MethanePresentPct = 0.01
	WaterPresentPct   = 0.1
)

// Measurement is the depth of one band in one spectrum.
type Measurement struct {
	Molecule     string  `json:"molecule"`
	WavelengthNM float64 `json:"wavelength_nm"`
	Bin          int     `json:"bin"`
	Continuum    float64 `json:"continuum"`
	Value        float64 `json:"value"`
	DepthPct     float64 `json:"depth_pct"`
	Skipped      bool    `json:"skipped"`
}

// Analyzer measures absorption on a fixed spectral scale.
type Analyzer struct {
	Scale           imaging.SpectralScale
	ContinuumOffset int // bins either side of the band used for the continuum
}

// NewAnalyzer returns an analyzer for scale with the given continuum offset.
func NewAnalyzer(scale imaging.SpectralScale, continuumOffset int) *Analyzer {
	if continuumOffset <= 0 {
		continuumOffset = 10
	}
	return &Analyzer{Scale: scale, ContinuumOffset: continuumOffset}
}

// Measure returns one Measurement per entry in Lines. A band is skipped
// when its continuum bins fall outside the spectrum; a non-positive
// continuum or a non-finite sample gives zero depth.
func (a *Analyzer) Measure(s imaging.Spectrum) []Measurement {
	out := make([]Measurement, 0, len(Lines))
	off := a.ContinuumOffset
	n := min(len(s), a.Scale.Bins)
	for _, line := range Lines {
		bin := a.Scale.BinForWavelength(line.WavelengthNM)
		m := Measurement{Molecule: line.Molecule, WavelengthNM: line.WavelengthNM, Bin: bin}
		if bin-off < 0 || bin+off >= n {
			m.Skipped = true
			out = append(out, m)
			continue
		}
		m.Continuum = stat.Mean([]float64{float64(s[bin-off]), float64(s[bin+off])}, nil)
		m.Value = float64(s[bin])
		if !units.IsFinite(m.Continuum) || !units.IsFinite(m.Value) {
			m.Continuum, m.Value = 0, 0
		}
		if m.Continuum > 0 {
			m.DepthPct = (m.Continuum - m.Value) / m.Continuum * 100.0
		}
		out = append(out, m)
	}
	return out
}

// Analyze measures every band and scores the result.
func (a *Analyzer) Analyze(s imaging.Spectrum) Atmosphere {
	var atm Atmosphere
	for i, m := range a.Measure(s) {
		if m.Skipped {
			continue
		}
		*Lines[i].field(&atm) = m.DepthPct
	}
	atm.BiosignatureScore = BiosignatureScore(atm)
	return atm
}

// BiosignatureScore applies the oxygen-methane disequilibrium table:
// O2 with CH4 scores 0.9, O2 with H2O 0.6, H2O alone 0.3, otherwise 0.
func BiosignatureScore(atm Atmosphere) float64 {
	oxygen := atm.Oxygen > OxygenPresentPct
	methane := atm.Methane > MethanePresentPct
	water := atm.Water > WaterPresentPct

	switch {
	case oxygen && methane:
		return 0.9
	case oxygen && water:
		return 0.6
	case water:
		return 0.3
	default:
		return 0.0
	}
}
