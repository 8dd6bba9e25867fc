// Command gen-frame writes a synthetic observation: a detector frame with
// a planet-like point source and a blackbody spectrum with absorption
// bands, in the binary formats read by 'solarlens detect'.
package main

import (
	"flag"
	"io"
	"log"

	"github.com/banshee-data/solarlens/internal/config"
	"github.com/banshee-data/solarlens/internal/fsutil"
	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/synth"
)

type options struct {
	FramePath    string
	SpectrumPath string
	Size         int
	Seed         uint64
	Integration  uint
	PlanetX      float64
	PlanetY      float64
	PlanetCounts float64
	PlanetSigma  float64
	Background   float64
	PixelsPerR   float64
	Noise        bool
	Temperature  float64
	Bins         int
	Inhabited    bool
	SpecNoise    float64
}

func main() {
	defaults := config.DefaultTuningConfig()
	var o options
	flag.StringVar(&o.FramePath, "frame", "sample.slfr", "frame output path")
	flag.StringVar(&o.SpectrumPath, "spectrum", "sample.slsp", "spectrum output path (empty to skip)")
	flag.IntVar(&o.Size, "size", defaults.GetImageSize(), "frame width and height in pixels")
	flag.Uint64Var(&o.Seed, "seed", 1, "random seed")
	flag.UintVar(&o.Integration, "integration", 1000, "integration time used to scale the corona to a count rate")
	flag.Float64Var(&o.PlanetX, "x", 0, "planet x pixel (default: 3/4 of the width)")
	flag.Float64Var(&o.PlanetY, "y", 0, "planet y pixel (default: 1/4 of the height)")
	flag.Float64Var(&o.PlanetCounts, "counts", 65535, "planet peak count rate (0 for no planet)")
	flag.Float64Var(&o.PlanetSigma, "sigma", 0, "planet Gaussian sigma in pixels (0 for a single pixel)")
	flag.Float64Var(&o.Background, "background", 0, "uniform background count rate")
	flag.Float64Var(&o.PixelsPerR, "pps", 0, "pixels per solar radius for the corona (0 for no corona)")
	flag.BoolVar(&o.Noise, "noise", false, "draw Poisson photon noise")
	flag.Float64Var(&o.Temperature, "temperature", 0, "continuum temperature in K (default: solar)")
	flag.IntVar(&o.Bins, "bins", defaults.GetSpectrumBins(), "spectrum bins")
	flag.BoolVar(&o.Inhabited, "inhabited", true, "apply Earth-like absorption bands")
	flag.Float64Var(&o.SpecNoise, "spectrum-noise", 0, "Gaussian spectrum noise relative to the peak")
	flag.Parse()

	scale := imaging.SpectralScale{
		MinNM: defaults.GetSpectrumMinNM(),
		MaxNM: defaults.GetSpectrumMaxNM(),
		Bins:  o.Bins,
	}
	if err := generate(o, scale, fsutil.OSFileSystem{}); err != nil {
		log.Fatalf("gen-frame: %v", err)
	}
	log.Printf("✓ Created: %s", o.FramePath)
	if o.SpectrumPath != "" {
		log.Printf("✓ Created: %s", o.SpectrumPath)
	}
}

func generate(o options, scale imaging.SpectralScale, fsys fsutil.FileSystem) error {
	fg := synth.NewFrameGenerator(o.Size, o.Seed)
	fg.IntegrationSeconds = uint32(o.Integration)
	fg.Background = o.Background
	fg.PixelsPerSolarRadius = o.PixelsPerR
	fg.Noise = o.Noise
	if o.PlanetCounts > 0 {
		x, y := o.PlanetX, o.PlanetY
		if x == 0 && y == 0 {
			x, y = float64(o.Size*3/4), float64(o.Size/4)
		}
		fg.Sources = []synth.Source{{X: x, Y: y, PeakCounts: o.PlanetCounts, Sigma: o.PlanetSigma}}
	}
	frame := fg.Frame()
	if err := fsutil.WriteWith(fsys, o.FramePath, func(w io.Writer) error {
		return imaging.WriteFrame(w, frame)
	}); err != nil {
		return err
	}

	if o.SpectrumPath == "" {
		return nil
	}
	if err := scale.Validate(); err != nil {
		return err
	}
	sg := synth.NewSpectrumGenerator(scale, o.Seed)
	if o.Temperature > 0 {
		sg.TemperatureK = o.Temperature
	}
	if o.Inhabited {
		sg.Depths = synth.EarthLikeDepths
	}
	sg.NoiseSigma = o.SpecNoise
	spec := sg.Spectrum()
	return fsutil.WriteWith(fsys, o.SpectrumPath, func(w io.Writer) error {
		return imaging.WriteSpectrum(w, spec, scale)
	})
}
