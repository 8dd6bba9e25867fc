package l6spectra

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/banshee-data/solarlens/internal/imaging"
)

func flatSpectrum(v float32) imaging.Spectrum {
	s := make(imaging.Spectrum, 2048)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestBiosignatureTable(t *testing.T) {
	a := NewAnalyzer(imaging.ReferenceScale(), 10)

	tests := []struct {
		name  string
		dips  map[int]float32
		score float64
	}{
		{"oxygen and methane", map[int]float32{368: 0.98, 1269: 0.9998}, 0.9},
		{"oxygen and water", map[int]float32{368: 0.98, 552: 0.995}, 0.6},
		{"water only", map[int]float32{552: 0.995}, 0.3},
		{"oxygen only", map[int]float32{368: 0.98}, 0.0},
		{"methane only", map[int]float32{1269: 0.9}, 0.0},
		{"featureless", nil, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := flatSpectrum(1)
			for bin, v := range tt.dips {
				s[bin] = v
			}
			if got := a.Analyze(s).BiosignatureScore; got != tt.score {
				t.Errorf("score = %v, want %v", got, tt.score)
			}
		})
	}
}

func TestAnalyzeDepths(t *testing.T) {
	a := NewAnalyzer(imaging.ReferenceScale(), 10)
	s := flatSpectrum(2)
	s[368] = 1.5  // O2 25%
	s[1651] = 1.9 // CO2 5%
	s[1945] = 2.2 // N2 emission, negative depth

	got := a.Analyze(s)
	want := Atmosphere{Oxygen: 25, CO2: 5, Nitrogen: -10, BiosignatureScore: 0}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-4)); diff != "" {
		t.Errorf("Analyze mismatch (-want +got):\n%s", diff)
	}
}

func TestMeasure_SkipsEdgeBands(t *testing.T) {
	// Narrow scale: only O2 (bin 36) keeps both continuum bins; H2O lands on bin 54
	a := NewAnalyzer(imaging.SpectralScale{MinNM: 400, MaxNM: 1000, Bins: 60}, 10)
	s := make(imaging.Spectrum, 60)
	for i := range s {
		s[i] = 1
	}

	ms := a.Measure(s)
	if len(ms) != len(Lines) {
		t.Fatalf("got %d measurements, want %d", len(ms), len(Lines))
	}
	for _, m := range ms {
		wantSkipped := m.Molecule != "O2"
		if m.Skipped != wantSkipped {
			t.Errorf("%s skipped = %v, want %v (bin %d)", m.Molecule, m.Skipped, wantSkipped, m.Bin)
		}
	}
}

func TestAnalyze_NonPositiveContinuum(t *testing.T) {
	a := NewAnalyzer(imaging.ReferenceScale(), 10)
	s := make(imaging.Spectrum, 2048)
	s[368] = 5
	s[358], s[378] = 1, -1

	got := a.Analyze(s)
	if got != (Atmosphere{}) {
		t.Errorf("expected zero atmosphere, got %+v", got)
	}
}

func TestMeasure_NonFiniteSamples(t *testing.T) {
	nan, inf := float32(math.NaN()), float32(math.Inf(1))
	tests := []struct {
		name string
		bin  int
		v    float32
	}{
		{"NaN at band", 368, nan},
		{"+Inf at band", 368, inf},
		{"-Inf at band", 368, -inf},
		{"NaN continuum", 358, nan},
		{"+Inf continuum", 378, inf},
	}
	a := NewAnalyzer(imaging.ReferenceScale(), 10)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := flatSpectrum(1)
			s[tt.bin] = tt.v

			ms := a.Measure(s)
			if ms[0].Molecule != "O2" || ms[0].DepthPct != 0 || ms[0].Value != 0 || ms[0].Continuum != 0 {
				t.Errorf("O2 measurement = %+v, want zeroed", ms[0])
			}
			atm := a.Analyze(s)
			if atm.Oxygen != 0 {
				t.Errorf("oxygen = %v, want 0", atm.Oxygen)
			}
			if _, err := json.Marshal(ms); err != nil {
				t.Errorf("measurements not encodable: %v", err)
			}
			if _, err := json.Marshal(atm); err != nil {
				t.Errorf("atmosphere not encodable: %v", err)
			}
		})
	}
}

func TestAnalyze_ShortSpectrum(t *testing.T) {
	a := NewAnalyzer(imaging.ReferenceScale(), 10)
	if got := a.Analyze(nil); got != (Atmosphere{}) {
		t.Errorf("nil spectrum gave %+v", got)
	}
	if got := a.Analyze(make(imaging.Spectrum, 100)); got != (Atmosphere{}) {
		t.Errorf("short spectrum gave %+v", got)
	}
}

func TestNewAnalyzer_DefaultOffset(t *testing.T) {
	if got := NewAnalyzer(imaging.ReferenceScale(), 0).ContinuumOffset; got != 10 {
		t.Errorf("ContinuumOffset = %d, want 10", got)
	}
}
