package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/pipeline"
	"github.com/banshee-data/solarlens/internal/timeutil"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("detection run not found")

// DefaultListLimit bounds List when no positive limit is given.
const DefaultListLimit = 100

// DetectionRun is one persisted pipeline run: the observation parameters,
// the characterisation and the detection diagnostics. The input spectrum
// and the processed image are stored as compressed snapshots.
type DetectionRun struct {
	RunID              string              `json:"run_id"`
	CreatedAt          int64               `json:"created_at"`
	Label              string              `json:"label,omitempty"`
	IntegrationSeconds uint32              `json:"integration_seconds"`
	TargetDistanceLY   float64             `json:"target_distance_ly"`
	WavelengthNM       float64             `json:"wavelength_nm"`
	DopplerShift       float64             `json:"doppler_shift"`
	Planet             pipeline.PlanetData `json:"planet"`
	Flux               float64             `json:"flux"`
	SNR                float64             `json:"snr"`
	Noise              float64             `json:"noise"`
	PeakX              int                 `json:"peak_x"`
	PeakY              int                 `json:"peak_y"`
	PSFFWHMMas         float64             `json:"psf_fwhm_mas"`
	Timings            []timeutil.Lap      `json:"timings,omitempty"`
	SpectrumBlob       []byte              `json:"-"`
	ImageBlob          []byte              `json:"-"`
}

// NewDetectionRun builds a record from a pipeline report and the
// observation that produced it. scale describes obs.Spectrum.
func NewDetectionRun(report *pipeline.Report, obs pipeline.Observation, scale imaging.SpectralScale, label string) (*DetectionRun, error) {
	if report == nil {
		return nil, errors.New("nil report")
	}
	run := &DetectionRun{
		CreatedAt:          report.RunAt.UnixNano(),
		Label:              label,
		IntegrationSeconds: obs.IntegrationSeconds,
		TargetDistanceLY:   obs.TargetDistanceLY,
		WavelengthNM:       obs.WavelengthNM,
		DopplerShift:       obs.DopplerShift,
		Planet:             report.Planet,
		Flux:               report.Detection.Flux,
		SNR:                report.Detection.SNR,
		Noise:              report.Detection.Noise,
		PeakX:              report.Detection.PeakX,
		PeakY:              report.Detection.PeakY,
		PSFFWHMMas:         report.PSFFWHMMas,
		Timings:            report.Timings,
	}
	if obs.Spectrum != nil {
		blob, err := imaging.SerializeSpectrum(obs.Spectrum, scale)
		if err != nil {
			return nil, fmt.Errorf("serialize spectrum: %w", err)
		}
		run.SpectrumBlob = blob
	}
	if report.Image != nil {
		blob, err := imaging.SerializeImage(report.Image)
		if err != nil {
			return nil, fmt.Errorf("serialize image: %w", err)
		}
		run.ImageBlob = blob
	}
	return run, nil
}

// Spectrum decodes the stored input spectrum. ok is false when the run
// was stored without one.
func (r *DetectionRun) Spectrum() (s imaging.Spectrum, scale imaging.SpectralScale, ok bool, err error) {
	if len(r.SpectrumBlob) == 0 {
		return nil, imaging.SpectralScale{}, false, nil
	}
	s, scale, err = imaging.DeserializeSpectrum(r.SpectrumBlob)
	if err != nil {
		return nil, imaging.SpectralScale{}, false, err
	}
	return s, scale, true, nil
}

// Image decodes the stored processed image, or returns nil when absent.
func (r *DetectionRun) Image() (*imaging.Image, error) {
	if len(r.ImageBlob) == 0 {
		return nil, nil
	}
	return imaging.DeserializeImage(r.ImageBlob)
}

// DetectionStore provides persistence for detection runs.
type DetectionStore struct {
	db *sql.DB
}

// NewDetectionStore creates a new DetectionStore.
func NewDetectionStore(db *sql.DB) *DetectionStore {
	return &DetectionStore{db: db}
}

const runColumns = `
	run_id, created_at, label, integration_seconds, target_distance_ly,
	wavelength_nm, doppler_shift, detected, confidence, radius_earth,
	orbital_radius_au, temperature_k, albedo, in_habitable_zone,
	oxygen, methane, water, co2, nitrogen, biosignature_score,
	flux, snr, noise, peak_x, peak_y, psf_fwhm_mas,
	timings_json, spectrum_blob, image_blob`

// Insert persists a new run. If RunID is empty, a UUID is generated.
func (s *DetectionStore) Insert(run *DetectionRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	var timings interface{}
	if len(run.Timings) > 0 {
		b, err := json.Marshal(run.Timings)
		if err != nil {
			return fmt.Errorf("marshal timings: %w", err)
		}
		timings = string(b)
	}

	p := run.Planet
	a := p.Atmosphere
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`INSERT INTO detection_runs (`+runColumns+`
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CreatedAt, run.Label, run.IntegrationSeconds, run.TargetDistanceLY,
			run.WavelengthNM, run.DopplerShift, p.Detected, p.Confidence, p.RadiusEarth,
			p.OrbitalRadiusAU, p.TemperatureK, p.Albedo, p.InHabitableZone,
			a.Oxygen, a.Methane, a.Water, a.CO2, a.Nitrogen, a.BiosignatureScore,
			run.Flux, run.SNR, run.Noise, run.PeakX, run.PeakY, run.PSFFWHMMas,
			timings, run.SpectrumBlob, run.ImageBlob,
		)
		if err != nil {
			return fmt.Errorf("insert detection run: %w", err)
		}
		return nil
	})
}

// Get returns a single run by id, including its blobs.
func (s *DetectionStore) Get(runID string) (*DetectionRun, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM detection_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	return run, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Limit        int
	DetectedOnly bool
}

// List returns runs ordered by creation time descending.
func (s *DetectionStore) List(f ListFilter) ([]*DetectionRun, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT ` + runColumns + ` FROM detection_runs`
	if f.DetectedOnly {
		query += ` WHERE detected = 1`
	}
	query += ` ORDER BY created_at DESC, run_id LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("query detection runs: %w", err)
	}
	defer rows.Close()

	var runs []*DetectionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Delete removes a run by id.
func (s *DetectionStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM detection_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete detection run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil
	})
}

// Count returns the number of stored runs.
func (s *DetectionStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM detection_runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count detection runs: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc rowScanner) (*DetectionRun, error) {
	var r DetectionRun
	var timings sql.NullString
	p := &r.Planet
	a := &p.Atmosphere
	err := sc.Scan(
		&r.RunID, &r.CreatedAt, &r.Label, &r.IntegrationSeconds, &r.TargetDistanceLY,
		&r.WavelengthNM, &r.DopplerShift, &p.Detected, &p.Confidence, &p.RadiusEarth,
		&p.OrbitalRadiusAU, &p.TemperatureK, &p.Albedo, &p.InHabitableZone,
		&a.Oxygen, &a.Methane, &a.Water, &a.CO2, &a.Nitrogen, &a.BiosignatureScore,
		&r.Flux, &r.SNR, &r.Noise, &r.PeakX, &r.PeakY, &r.PSFFWHMMas,
		&timings, &r.SpectrumBlob, &r.ImageBlob,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan detection run: %w", err)
	}
	if timings.Valid && timings.String != "" {
		if err := json.Unmarshal([]byte(timings.String), &r.Timings); err != nil {
			return nil, fmt.Errorf("decode timings for %s: %w", r.RunID, err)
		}
	}
	return &r, nil
}

const (
	busyRetries = 5
	busyBackoff = 20 * time.Millisecond
)

// retryOnBusy retries fn while sqlite reports the database as locked.
func retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		if err = fn(); err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(busyBackoff * time.Duration(attempt+1))
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
