package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/banshee-data/solarlens/internal/config"
	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/l1photons"
	"github.com/banshee-data/solarlens/internal/imaging/l2corona"
	"github.com/banshee-data/solarlens/internal/imaging/l3deconv"
	"github.com/banshee-data/solarlens/internal/imaging/l4sources"
	"github.com/banshee-data/solarlens/internal/imaging/l5planets"
	"github.com/banshee-data/solarlens/internal/imaging/l6spectra"
	"github.com/banshee-data/solarlens/internal/monitoring"
	"github.com/banshee-data/solarlens/internal/optics"
	"github.com/banshee-data/solarlens/internal/timeutil"
)

// PlanetData is the characterisation returned for every observation. All
// fields are zero when nothing is detected.
type PlanetData struct {
	Detected        bool                 `json:"detected"`
	Confidence      float64              `json:"confidence"`
	RadiusEarth     float64              `json:"radius_earth"`
	OrbitalRadiusAU float64              `json:"orbital_radius_au"`
	TemperatureK    float64              `json:"temperature_k"`
	Albedo          float64              `json:"albedo"`
	InHabitableZone bool                 `json:"in_habitable_zone"`
	Atmosphere      l6spectra.Atmosphere `json:"atmosphere"`
}

// Report extends PlanetData with the intermediate results of a run.
type Report struct {
	RunAt      time.Time               `json:"run_at"`
	Planet     PlanetData              `json:"planet"`
	Detection  l4sources.Detection     `json:"detection"`
	Lines      []l6spectra.Measurement `json:"lines,omitempty"`
	PSFFWHMMas float64                 `json:"psf_fwhm_mas"`
	Timings    []timeutil.Lap          `json:"timings"`
	Image      *imaging.Image          `json:"-"` // processed image after deconvolution
}

// Pipeline runs the six detection stages over buffers it owns. Calls are
// serialised by an internal mutex; use one Pipeline per goroutine for
// parallel work.
type Pipeline struct {
	mu sync.Mutex

	cfg   *config.TuningConfig
	lens  *optics.Lens
	scale imaging.SpectralScale
	size  int
	clock timeutil.Clock
	log   *zerolog.Logger

	raw       *imaging.Image
	processed *imaging.Image

	photons    PhotonStage
	background BackgroundStage
	deconv     DeconvolutionStage
	sources    DetectionStage
	planets    EstimationStage
	spectra    SpectroscopyStage
	analyzer   *l6spectra.Analyzer
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithClock sets the clock used for run timestamps and stage timings.
func WithClock(c timeutil.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithLogger replaces the pipeline's logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New validates cfg, allocates every buffer and builds the stages. A nil
// cfg uses the reference defaults; a nil lens is constructed.
func New(cfg *config.TuningConfig, lens *optics.Lens, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultTuningConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning config: %w", err)
	}
	if lens == nil {
		lens = optics.NewLens()
	}

	size := cfg.GetImageSize()
	p := &Pipeline{
		cfg:  cfg,
		lens: lens,
		scale: imaging.SpectralScale{
			MinNM: cfg.GetSpectrumMinNM(),
			MaxNM: cfg.GetSpectrumMaxNM(),
			Bins:  cfg.GetSpectrumBins(),
		},
		size:      size,
		clock:     timeutil.RealClock{},
		log:       monitoring.Named("pipeline"),
		raw:       imaging.NewImage(size, size),
		processed: imaging.NewImage(size, size),
	}

	p.photons = l1photons.NewAccumulator(cfg.GetDarkCurrentRate())

	corona, err := l2corona.NewSubtractor(lens, l2corona.Config{
		Width:                size,
		Height:               size,
		PixelsPerSolarRadius: cfg.GetPixelsPerSolarRadius(),
		WavelengthNM:         cfg.GetCoronaWavelengthNM(),
	})
	if err != nil {
		return nil, fmt.Errorf("corona model: %w", err)
	}
	p.background = corona

	deconv, err := l3deconv.NewDeconvolver(size, size, l3deconv.Config{
		Iterations:   cfg.GetDeconvolutionIterations(),
		KernelRadius: cfg.GetKernelRadius(),
		Epsilon:      cfg.GetDeconvolutionEpsilon(),
	})
	if err != nil {
		return nil, fmt.Errorf("deconvolver: %w", err)
	}
	p.deconv = deconv

	detector, err := l4sources.NewDetector(l4sources.Config{
		Margin:         cfg.GetInteriorMargin(),
		ApertureRadius: cfg.GetApertureRadius(),
		AnnulusInner:   cfg.GetAnnulusInner(),
		AnnulusOuter:   cfg.GetAnnulusOuter(),
		Threshold:      cfg.GetSNRThreshold(),
		Epsilon:        cfg.GetSNREpsilon(),
	})
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}
	p.sources = detector

	p.planets = l5planets.NewEstimator(l5planets.Config{
		ReferenceAlbedo:     cfg.GetReferenceAlbedo(),
		ReferenceDistanceLY: cfg.GetReferenceDistanceLY(),
		TargetLuminosity:    cfg.GetTargetLuminosity(),
		HabitableInnerAU:    cfg.GetHabitableInnerAU(),
		HabitableOuterAU:    cfg.GetHabitableOuterAU(),
		Scale:               p.scale,
	})

	p.analyzer = l6spectra.NewAnalyzer(p.scale, cfg.GetContinuumOffsetBins())
	p.spectra = p.analyzer

	for _, opt := range opts {
		opt(p)
	}
	if p.clock == nil {
		p.clock = timeutil.RealClock{}
	}
	if p.log == nil {
		nop := zerolog.Nop()
		p.log = &nop
	}
	return p, nil
}

// ImageSize returns the detector side length in pixels.
func (p *Pipeline) ImageSize() int { return p.size }

// Scale returns the spectral scale observations must use.
func (p *Pipeline) Scale() imaging.SpectralScale { return p.scale }

// Lens returns the shared lens model.
func (p *Pipeline) Lens() *optics.Lens { return p.lens }

// Detect runs every stage and returns the planet characterisation.
func (p *Pipeline) Detect(obs Observation) (PlanetData, error) {
	r, err := p.run(obs, false)
	if err != nil {
		return PlanetData{}, err
	}
	return r.Planet, nil
}

// Run is Detect with the intermediate results: detection diagnostics,
// per-stage timings, line measurements and a copy of the processed image.
func (p *Pipeline) Run(obs Observation) (*Report, error) {
	return p.run(obs, true)
}

func (p *Pipeline) run(obs Observation, keepImage bool) (*Report, error) {
	if err := obs.Validate(p.size, p.size, p.scale.Bins); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sw := timeutil.NewStopwatch(p.clock)
	report := &Report{RunAt: sw.Started()}

	if err := p.photons.Accumulate(p.raw, obs.Frame, float64(obs.IntegrationSeconds)); err != nil {
		return nil, fmt.Errorf("%s: %w", StagePhotons, err)
	}
	p.lap(sw, StagePhotons)

	if err := p.background.Subtract(p.processed, p.raw, obs.TargetDistanceLY); err != nil {
		return nil, fmt.Errorf("%s: %w", StageCorona, err)
	}
	p.lap(sw, StageCorona)

	psf := p.lens.PSF(obs.WavelengthNM, p.cfg.GetOptimalFocalAU(), p.cfg.GetPSFSize())
	report.PSFFWHMMas = psf.FWHMMas
	if err := p.deconv.Deconvolve(p.processed, psf); err != nil {
		return nil, fmt.Errorf("%s: %w", StageDeconv, err)
	}
	p.lap(sw, StageDeconv)

	det := p.sources.Detect(p.processed, obs.DopplerShift, obs.Spectrum)
	report.Detection = det
	p.lap(sw, StageSources)

	if det.Found {
		est := p.planets.Estimate(det)
		report.Planet = PlanetData{
			Detected:        true,
			Confidence:      l5planets.Confidence(det.SNR),
			RadiusEarth:     est.RadiusEarth,
			OrbitalRadiusAU: est.OrbitalRadiusAU,
			TemperatureK:    est.TemperatureK,
			Albedo:          est.Albedo,
			InHabitableZone: est.InHabitableZone,
		}
		p.lap(sw, StagePlanets)

		report.Planet.Atmosphere = p.spectra.Analyze(det.Spectrum)
		if keepImage {
			report.Lines = p.analyzer.Measure(det.Spectrum)
		}
		p.lap(sw, StageSpectra)
	}

	report.Timings = sw.Laps()
	if keepImage {
		report.Image = p.processed.Clone()
	}

	p.log.Debug().
		Bool("found", det.Found).
		Float64("snr", det.SNR).
		Float64("flux", det.Flux).
		Int("peak_x", det.PeakX).
		Int("peak_y", det.PeakY).
		Float64("psf_fwhm_mas", psf.FWHMMas).
		Float64("psf_weight", psf.Sum()).
		Dur("total", sw.Total()).
		Msg("detection run complete")
	return report, nil
}

func (p *Pipeline) lap(sw *timeutil.Stopwatch, stage string) {
	d := sw.Lap(stage)
	p.log.Debug().Str("stage", stage).Dur("elapsed", d).Msg("stage complete")
}
