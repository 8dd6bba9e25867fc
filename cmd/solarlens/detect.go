package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/banshee-data/solarlens/internal/config"
	"github.com/banshee-data/solarlens/internal/db"
	"github.com/banshee-data/solarlens/internal/fsutil"
	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/pipeline"
	"github.com/banshee-data/solarlens/internal/monitoring"
	"github.com/banshee-data/solarlens/internal/plots"
	"github.com/banshee-data/solarlens/internal/security"
)

// fileSystem is swapped for an in-memory one in tests.
var fileSystem fsutil.FileSystem = fsutil.OSFileSystem{}

type detectOptions struct {
	FramePath          string
	SpectrumPath       string
	ConfigPath         string
	IntegrationSeconds uint
	TargetDistanceLY   float64
	WavelengthNM       float64
	DopplerShift       float64
	DBPath             string
	Label              string
	PlotsDir           string
}

// detectOutput is the JSON document printed by detect.
type detectOutput struct {
	RunID string `json:"run_id,omitempty"`
	*pipeline.Report
}

func handleDetect(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(out)
	var o detectOptions
	fs.StringVar(&o.FramePath, "frame", "", "Path to the frame file (required)")
	fs.StringVar(&o.SpectrumPath, "spectrum", "", "Path to the spectrum file")
	fs.StringVar(&o.ConfigPath, "config", "", "Path to a tuning JSON file (defaults apply when empty)")
	fs.UintVar(&o.IntegrationSeconds, "integration", 1000, "Integration time in seconds")
	fs.Float64Var(&o.TargetDistanceLY, "distance-ly", 10, "Target distance in light years")
	fs.Float64Var(&o.WavelengthNM, "wavelength", 550, "Observing wavelength in nm")
	fs.Float64Var(&o.DopplerShift, "doppler", 0, "Fractional Doppler shift of the planet's spectrum")
	fs.StringVar(&o.DBPath, "db", "", "Persist the run to this sqlite database")
	fs.StringVar(&o.Label, "label", "", "Label stored with the run")
	fs.StringVar(&o.PlotsDir, "plots", "", "Write spectrum and image plots to this directory")
	initLogging := logFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	initLogging()

	if o.FramePath == "" {
		return fmt.Errorf("-frame is required")
	}
	return runDetect(o, fileSystem, out)
}

func runDetect(o detectOptions, fsys fsutil.FileSystem, out io.Writer) error {
	log := monitoring.Named("detect")

	if o.IntegrationSeconds > math.MaxUint32 {
		return fmt.Errorf("-integration %d exceeds %d seconds", o.IntegrationSeconds, uint64(math.MaxUint32))
	}

	if o.PlotsDir != "" {
		if err := security.OutputPath(o.PlotsDir); err != nil {
			return err
		}
	}

	cfg := config.DefaultTuningConfig()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(o.ConfigPath); err != nil {
			return err
		}
	}

	p, err := pipeline.New(cfg, nil)
	if err != nil {
		return err
	}

	obs := pipeline.Observation{
		IntegrationSeconds: uint32(o.IntegrationSeconds),
		TargetDistanceLY:   o.TargetDistanceLY,
		WavelengthNM:       o.WavelengthNM,
		DopplerShift:       o.DopplerShift,
	}
	if obs.Frame, err = loadFrame(fsys, o.FramePath); err != nil {
		return err
	}
	if o.SpectrumPath != "" {
		spec, scale, err := loadSpectrum(fsys, o.SpectrumPath)
		if err != nil {
			return err
		}
		if scale != p.Scale() {
			log.Warn().
				Interface("file_scale", scale).
				Interface("config_scale", p.Scale()).
				Msg("spectrum scale differs from the configured scale; bands are located on the configured scale")
		}
		obs.Spectrum = spec
	}

	report, err := p.Run(obs)
	if err != nil {
		return err
	}
	log.Info().
		Bool("detected", report.Planet.Detected).
		Float64("snr", report.Detection.SNR).
		Int("peak_x", report.Detection.PeakX).
		Int("peak_y", report.Detection.PeakY).
		Msg("pipeline finished")

	result := detectOutput{Report: report}
	if o.DBPath != "" {
		id, err := persistRun(o, report, obs, p.Scale())
		if err != nil {
			return err
		}
		result.RunID = id
		log.Info().Str("run_id", id).Str("db", o.DBPath).Msg("run stored")
	}

	if o.PlotsDir != "" {
		if err := writePlots(fsys, o.PlotsDir, report, obs.Spectrum, p.Scale()); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func loadFrame(fsys fsutil.FileSystem, path string) (*imaging.Frame, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	f, err := imaging.ReadFrame(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return f, nil
}

func loadSpectrum(fsys fsutil.FileSystem, path string) (imaging.Spectrum, imaging.SpectralScale, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, imaging.SpectralScale{}, fmt.Errorf("failed to read spectrum: %w", err)
	}
	s, scale, err := imaging.ReadSpectrum(bytes.NewReader(data))
	if err != nil {
		return nil, imaging.SpectralScale{}, fmt.Errorf("failed to decode spectrum %s: %w", path, err)
	}
	return s, scale, nil
}

func persistRun(o detectOptions, report *pipeline.Report, obs pipeline.Observation, scale imaging.SpectralScale) (string, error) {
	database, err := db.NewDB(o.DBPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	run, err := db.NewDetectionRun(report, obs, scale, o.Label)
	if err != nil {
		return "", err
	}
	if err := db.NewDetectionStore(database.DB).Insert(run); err != nil {
		return "", fmt.Errorf("failed to store run: %w", err)
	}
	return run.RunID, nil
}

func writePlots(fsys fsutil.FileSystem, dir string, report *pipeline.Report, spec imaging.Spectrum, scale imaging.SpectralScale) error {
	title := "Detection"
	if !report.Planet.Detected {
		title = "No detection"
	}
	if spec != nil {
		err := fsutil.WriteWith(fsys, filepath.Join(dir, "spectrum.png"), func(w io.Writer) error {
			return plots.SpectrumPNG(w, spec, scale, title)
		})
		if err != nil {
			return fmt.Errorf("failed to write spectrum plot: %w", err)
		}
		subtitle := fmt.Sprintf("SNR %.2f", report.Detection.SNR)
		err = fsutil.WriteWith(fsys, filepath.Join(dir, "spectrum.html"), func(w io.Writer) error {
			return plots.RenderSpectrumHTML(w, spec, scale, title, subtitle)
		})
		if err != nil {
			return fmt.Errorf("failed to write spectrum chart: %w", err)
		}
	}
	if report.Image != nil {
		err := fsutil.WriteWith(fsys, filepath.Join(dir, "image.png"), func(w io.Writer) error {
			return plots.ImageHeatmapPNG(w, report.Image, title)
		})
		if err != nil {
			return fmt.Errorf("failed to write image plot: %w", err)
		}
	}
	return nil
}
