package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"

	"github.com/banshee-data/solarlens/internal/optics"
	"github.com/banshee-data/solarlens/internal/units"
)

// opticsReport is the JSON printed by the optics command. The focal
// distance is omitted when the wavelength has no focus.
type opticsReport struct {
	WavelengthNM        float64  `json:"wavelength_nm"`
	FocalDistanceAU     *float64 `json:"focal_distance_au,omitempty"`
	ObserverDistanceAU  float64  `json:"observer_distance_au"`
	InFocalRange        bool     `json:"in_focal_range"`
	SchwarzschildRadius float64  `json:"schwarzschild_radius_m"`
	EinsteinRadius1AU   float64  `json:"einstein_radius_1au_m"`
	Magnification       float64  `json:"magnification"`
	PSFFWHMMas          float64  `json:"psf_fwhm_mas"`
	CoronaBrightness    float64  `json:"corona_brightness"`
}

func handleOptics(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("optics", flag.ContinueOnError)
	fs.SetOutput(out)
	wavelength := fs.Float64("wavelength", 550, "Wavelength in nm")
	distanceAU := fs.Float64("distance-au", units.FocalOptimalAU, "Observer distance behind the Sun in AU")
	sourceLY := fs.Float64("source-ly", 10, "Source distance in light years")
	impactKM := fs.Float64("impact-km", 1000, "Impact parameter in km")
	coronaR := fs.Float64("corona-r", 2, "Angular distance for the corona model in solar radii")
	if err := fs.Parse(args); err != nil {
		return err
	}

	lens := optics.NewLens()
	rep := opticsReport{
		WavelengthNM:        *wavelength,
		ObserverDistanceAU:  *distanceAU,
		InFocalRange:        optics.InFocalRange(*distanceAU),
		SchwarzschildRadius: lens.SchwarzschildRadius(),
		EinsteinRadius1AU:   lens.EinsteinRadius1AU(),
		Magnification:       lens.Magnification(*sourceLY, *distanceAU, *impactKM),
		PSFFWHMMas:          lens.PSF(*wavelength, *distanceAU, 1).FWHMMas,
		CoronaBrightness:    lens.CoronaBrightness(*coronaR, *wavelength),
	}
	focal, err := lens.FocalDistanceAU(*wavelength)
	switch {
	case err == nil:
		rep.FocalDistanceAU = &focal
	case !errors.Is(err, optics.ErrNoFocus):
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
