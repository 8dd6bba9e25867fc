package pipeline

import (
	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/l4sources"
	"github.com/banshee-data/solarlens/internal/imaging/l5planets"
	"github.com/banshee-data/solarlens/internal/imaging/l6spectra"
	"github.com/banshee-data/solarlens/internal/optics"
)

// Stage names as they appear in timings and logs.
const (
	StagePhotons = "photons"
	StageCorona  = "corona"
	StageDeconv  = "deconvolution"
	StageSources = "sources"
	StagePlanets = "planets"
	StageSpectra = "spectra"
)

// PhotonStage converts raw counts into accumulated photons (L1).
type PhotonStage interface {
	Accumulate(dst *imaging.Image, frame *imaging.Frame, integrationSeconds float64) error
}

// BackgroundStage removes the solar corona from the accumulated image (L2).
type BackgroundStage interface {
	Subtract(dst, src *imaging.Image, targetDistanceLY float64) error
}

// DeconvolutionStage sharpens the background-subtracted image in place (L3).
type DeconvolutionStage interface {
	Deconvolve(img *imaging.Image, psf *optics.PSF) error
}

// DetectionStage finds the brightest point source (L4).
type DetectionStage interface {
	Detect(img *imaging.Image, dopplerShift float64, spectrum imaging.Spectrum) l4sources.Detection
}

// EstimationStage derives physical parameters from a detection (L5).
type EstimationStage interface {
	Estimate(det l4sources.Detection) l5planets.Estimate
}

// SpectroscopyStage measures atmospheric absorption (L6).
type SpectroscopyStage interface {
	Analyze(s imaging.Spectrum) l6spectra.Atmosphere
}
