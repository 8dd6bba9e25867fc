package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/l4sources"
	"github.com/banshee-data/solarlens/internal/imaging/l6spectra"
	"github.com/banshee-data/solarlens/internal/imaging/pipeline"
	"github.com/banshee-data/solarlens/internal/timeutil"
)

// setupTestDB creates a migrated database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// sampleReport returns a detected run with a small processed image.
func sampleReport(at time.Time) *pipeline.Report {
	img := imaging.NewImage(8, 8)
	img.Set(4, 4, 1234.5)
	img.Set(0, 7, -3)
	return &pipeline.Report{
		RunAt: at,
		Planet: pipeline.PlanetData{
			Detected:        true,
			Confidence:      12.5,
			RadiusEarth:     1.02,
			OrbitalRadiusAU: 1.0,
			TemperatureK:    288,
			Albedo:          0.3,
			InHabitableZone: true,
			Atmosphere: l6spectra.Atmosphere{
				Oxygen:            21,
				Methane:           1.8,
				Water:             3,
				BiosignatureScore: 0.9,
			},
		},
		Detection: l4sources.Detection{
			Found: true, Flux: 4.2e8, SNR: 125, Noise: 3.3e6,
			PeakX: 46, PeakY: 18, PeakValue: 6.5e7,
		},
		PSFFWHMMas: 0.11,
		Timings: []timeutil.Lap{
			{Name: pipeline.StagePhotons, Duration: time.Millisecond},
			{Name: pipeline.StageCorona, Duration: 2 * time.Millisecond},
		},
		Image: img,
	}
}

func sampleObservation() pipeline.Observation {
	spec := make(imaging.Spectrum, 16)
	for i := range spec {
		spec[i] = 1
	}
	spec[5] = 0.5
	return pipeline.Observation{
		Frame:              imaging.NewFrame(8, 8),
		IntegrationSeconds: 1000,
		TargetDistanceLY:   4.37,
		WavelengthNM:       550,
		DopplerShift:       9.934e-5,
		Spectrum:           spec,
	}
}

func sampleScale() imaging.SpectralScale {
	return imaging.SpectralScale{MinNM: 400, MaxNM: 2400, Bins: 16}
}

var fixedTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
