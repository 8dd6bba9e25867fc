package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the detection pipeline.
// Every field is optional; the Get* accessors fall back to the reference
// mission values when a field is nil.
type TuningConfig struct {
	// Buffer geometry
	ImageSize     *int     `json:"image_size,omitempty"`
	SpectrumBins  *int     `json:"spectrum_bins,omitempty"`
	SpectrumMinNM *float64 `json:"spectrum_min_nm,omitempty"`
	SpectrumMaxNM *float64 `json:"spectrum_max_nm,omitempty"`

	// Photon accumulation
	DarkCurrentRate *float64 `json:"dark_current_rate,omitempty"` // e-/pixel/s

	// Corona subtraction
	PixelsPerSolarRadius *float64 `json:"pixels_per_solar_radius,omitempty"`
	CoronaWavelengthNM   *float64 `json:"corona_wavelength_nm,omitempty"`

	// Deconvolution
	DeconvolutionIterations *int     `json:"deconvolution_iterations,omitempty"`
	KernelRadius            *int     `json:"kernel_radius,omitempty"`
	DeconvolutionEpsilon    *float64 `json:"deconvolution_epsilon,omitempty"`
	PSFSize                 *int     `json:"psf_size,omitempty"`
	OptimalFocalAU          *float64 `json:"optimal_focal_au,omitempty"`

	// Point-source detection
	InteriorMargin *int     `json:"interior_margin,omitempty"`
	ApertureRadius *int     `json:"aperture_radius,omitempty"`
	AnnulusInner   *int     `json:"annulus_inner,omitempty"`
	AnnulusOuter   *int     `json:"annulus_outer,omitempty"`
	SNRThreshold   *float64 `json:"snr_threshold,omitempty"`
	SNREpsilon     *float64 `json:"snr_epsilon,omitempty"`

	// Physical parameter estimation
	ReferenceAlbedo     *float64 `json:"reference_albedo,omitempty"`
	ReferenceDistanceLY *float64 `json:"reference_distance_ly,omitempty"`
	TargetLuminosity    *float64 `json:"target_luminosity,omitempty"` // solar units
	HabitableInnerAU    *float64 `json:"habitable_inner_au,omitempty"`
	HabitableOuterAU    *float64 `json:"habitable_outer_au,omitempty"`

	// Atmosphere analysis
	ContinuumOffsetBins *int `json:"continuum_offset_bins,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to the
// reference mission value.
func DefaultTuningConfig() *TuningConfig {
	c := EmptyTuningConfig()
	return &TuningConfig{
		ImageSize:               ptrInt(c.GetImageSize()),
		SpectrumBins:            ptrInt(c.GetSpectrumBins()),
		SpectrumMinNM:           ptrFloat64(c.GetSpectrumMinNM()),
		SpectrumMaxNM:           ptrFloat64(c.GetSpectrumMaxNM()),
		DarkCurrentRate:         ptrFloat64(c.GetDarkCurrentRate()),
		PixelsPerSolarRadius:    ptrFloat64(c.GetPixelsPerSolarRadius()),
		CoronaWavelengthNM:      ptrFloat64(c.GetCoronaWavelengthNM()),
		DeconvolutionIterations: ptrInt(c.GetDeconvolutionIterations()),
		KernelRadius:            ptrInt(c.GetKernelRadius()),
		DeconvolutionEpsilon:    ptrFloat64(c.GetDeconvolutionEpsilon()),
		PSFSize:                 ptrInt(c.GetPSFSize()),
		OptimalFocalAU:          ptrFloat64(c.GetOptimalFocalAU()),
		InteriorMargin:          ptrInt(c.GetInteriorMargin()),
		ApertureRadius:          ptrInt(c.GetApertureRadius()),
		AnnulusInner:            ptrInt(c.GetAnnulusInner()),
		AnnulusOuter:            ptrInt(c.GetAnnulusOuter()),
		SNRThreshold:            ptrFloat64(c.GetSNRThreshold()),
		SNREpsilon:              ptrFloat64(c.GetSNREpsilon()),
		ReferenceAlbedo:         ptrFloat64(c.GetReferenceAlbedo()),
		ReferenceDistanceLY:     ptrFloat64(c.GetReferenceDistanceLY()),
		TargetLuminosity:        ptrFloat64(c.GetTargetLuminosity()),
		HabitableInnerAU:        ptrFloat64(c.GetHabitableInnerAU()),
		HabitableOuterAU:        ptrFloat64(c.GetHabitableOuterAU()),
		ContinuumOffsetBins:     ptrInt(c.GetContinuumOffsetBins()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/imaging/pipeline/
		"../../../../" + DefaultConfigPath,    // deeper packages
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid. The resolved
// values (explicit or default) are checked together so that cross-field
// constraints such as the annulus fitting inside the interior margin hold.
func (c *TuningConfig) Validate() error {
	if v := c.GetImageSize(); v <= 0 {
		return fmt.Errorf("image_size must be positive, got %d", v)
	}
	if v := c.GetSpectrumBins(); v <= 0 {
		return fmt.Errorf("spectrum_bins must be positive, got %d", v)
	}
	if lo, hi := c.GetSpectrumMinNM(), c.GetSpectrumMaxNM(); lo < 0 || hi <= lo {
		return fmt.Errorf("spectrum range must satisfy 0 <= min < max, got [%f, %f]", lo, hi)
	}
	if v := c.GetDarkCurrentRate(); v < 0 {
		return fmt.Errorf("dark_current_rate must be non-negative, got %f", v)
	}
	if v := c.GetPixelsPerSolarRadius(); v <= 0 {
		return fmt.Errorf("pixels_per_solar_radius must be positive, got %f", v)
	}
	if v := c.GetCoronaWavelengthNM(); v <= 0 {
		return fmt.Errorf("corona_wavelength_nm must be positive, got %f", v)
	}
	if v := c.GetDeconvolutionIterations(); v < 0 {
		return fmt.Errorf("deconvolution_iterations must be non-negative, got %d", v)
	}
	if v := c.GetKernelRadius(); v < 0 {
		return fmt.Errorf("kernel_radius must be non-negative, got %d", v)
	}
	if v := c.GetDeconvolutionEpsilon(); v <= 0 {
		return fmt.Errorf("deconvolution_epsilon must be positive, got %g", v)
	}
	if v := c.GetPSFSize(); v <= 0 {
		return fmt.Errorf("psf_size must be positive, got %d", v)
	}
	if v := c.GetOptimalFocalAU(); v <= 0 {
		return fmt.Errorf("optimal_focal_au must be positive, got %f", v)
	}
	if v := c.GetApertureRadius(); v < 0 {
		return fmt.Errorf("aperture_radius must be non-negative, got %d", v)
	}
	inner, outer := c.GetAnnulusInner(), c.GetAnnulusOuter()
	if inner <= c.GetApertureRadius() || outer < inner {
		return fmt.Errorf("annulus must satisfy aperture_radius < annulus_inner <= annulus_outer, got %d/%d/%d",
			c.GetApertureRadius(), inner, outer)
	}
	if m := c.GetInteriorMargin(); m < outer {
		return fmt.Errorf("interior_margin (%d) must be at least annulus_outer (%d)", m, outer)
	}
	if 2*c.GetInteriorMargin() >= c.GetImageSize() {
		return fmt.Errorf("interior_margin %d leaves no interior in a %d pixel image", c.GetInteriorMargin(), c.GetImageSize())
	}
	if v := c.GetSNRThreshold(); v < 0 {
		return fmt.Errorf("snr_threshold must be non-negative, got %f", v)
	}
	if v := c.GetSNREpsilon(); v <= 0 {
		return fmt.Errorf("snr_epsilon must be positive, got %g", v)
	}
	if v := c.GetReferenceAlbedo(); v <= 0 || v > 1 {
		return fmt.Errorf("reference_albedo must be in (0, 1], got %f", v)
	}
	if v := c.GetReferenceDistanceLY(); v <= 0 {
		return fmt.Errorf("reference_distance_ly must be positive, got %f", v)
	}
	if v := c.GetTargetLuminosity(); v <= 0 {
		return fmt.Errorf("target_luminosity must be positive, got %f", v)
	}
	if lo, hi := c.GetHabitableInnerAU(), c.GetHabitableOuterAU(); lo <= 0 || hi <= lo {
		return fmt.Errorf("habitable zone must satisfy 0 < inner < outer, got [%f, %f]", lo, hi)
	}
	if v := c.GetContinuumOffsetBins(); v <= 0 {
		return fmt.Errorf("continuum_offset_bins must be positive, got %d", v)
	}
	return nil
}

// GetImageSize returns the image_size value or the default.
func (c *TuningConfig) GetImageSize() int {
	if c.ImageSize == nil {
		return 1024
	}
	return *c.ImageSize
}

// GetSpectrumBins returns the spectrum_bins value or the default.
func (c *TuningConfig) GetSpectrumBins() int {
	if c.SpectrumBins == nil {
		return 2048
	}
	return *c.SpectrumBins
}

// GetSpectrumMinNM returns the spectrum_min_nm value or the default.
func (c *TuningConfig) GetSpectrumMinNM() float64 {
	if c.SpectrumMinNM == nil {
		return 400.0
	}
	return *c.SpectrumMinNM
}

// GetSpectrumMaxNM returns the spectrum_max_nm value or the default.
func (c *TuningConfig) GetSpectrumMaxNM() float64 {
	if c.SpectrumMaxNM == nil {
		return 2400.0
	}
	return *c.SpectrumMaxNM
}

// GetDarkCurrentRate returns the dark_current_rate value or the default
// (e-/pixel/s at -80°C).
func (c *TuningConfig) GetDarkCurrentRate() float64 {
	if c.DarkCurrentRate == nil {
		return 0.01
	}
	return *c.DarkCurrentRate
}

// GetPixelsPerSolarRadius returns the pixels_per_solar_radius value or the default.
func (c *TuningConfig) GetPixelsPerSolarRadius() float64 {
	if c.PixelsPerSolarRadius == nil {
		return 100.0
	}
	return *c.PixelsPerSolarRadius
}

// GetCoronaWavelengthNM returns the corona_wavelength_nm value or the default.
func (c *TuningConfig) GetCoronaWavelengthNM() float64 {
	if c.CoronaWavelengthNM == nil {
		return 550.0
	}
	return *c.CoronaWavelengthNM
}

// GetDeconvolutionIterations returns the deconvolution_iterations value or the default.
func (c *TuningConfig) GetDeconvolutionIterations() int {
	if c.DeconvolutionIterations == nil {
		return 50
	}
	return *c.DeconvolutionIterations
}

// GetKernelRadius returns the kernel_radius value or the default (5x5 box).
func (c *TuningConfig) GetKernelRadius() int {
	if c.KernelRadius == nil {
		return 2
	}
	return *c.KernelRadius
}

// GetDeconvolutionEpsilon returns the deconvolution_epsilon value or the default.
func (c *TuningConfig) GetDeconvolutionEpsilon() float64 {
	if c.DeconvolutionEpsilon == nil {
		return 1e-10
	}
	return *c.DeconvolutionEpsilon
}

// GetPSFSize returns the psf_size value or the default.
func (c *TuningConfig) GetPSFSize() int {
	if c.PSFSize == nil {
		return 256
	}
	return *c.PSFSize
}

// GetOptimalFocalAU returns the optimal_focal_au value or the default.
func (c *TuningConfig) GetOptimalFocalAU() float64 {
	if c.OptimalFocalAU == nil {
		return 650.0
	}
	return *c.OptimalFocalAU
}

// GetInteriorMargin returns the interior_margin value or the default.
func (c *TuningConfig) GetInteriorMargin() int {
	if c.InteriorMargin == nil {
		return 10
	}
	return *c.InteriorMargin
}

// GetApertureRadius returns the aperture_radius value or the default.
func (c *TuningConfig) GetApertureRadius() int {
	if c.ApertureRadius == nil {
		return 2
	}
	return *c.ApertureRadius
}

// GetAnnulusInner returns the annulus_inner value or the default.
func (c *TuningConfig) GetAnnulusInner() int {
	if c.AnnulusInner == nil {
		return 6
	}
	return *c.AnnulusInner
}

// GetAnnulusOuter returns the annulus_outer value or the default.
func (c *TuningConfig) GetAnnulusOuter() int {
	if c.AnnulusOuter == nil {
		return 10
	}
	return *c.AnnulusOuter
}

// GetSNRThreshold returns the snr_threshold value or the default (5 sigma).
func (c *TuningConfig) GetSNRThreshold() float64 {
	if c.SNRThreshold == nil {
		return 5.0
	}
	return *c.SNRThreshold
}

// GetSNREpsilon returns the snr_epsilon value or the default.
func (c *TuningConfig) GetSNREpsilon() float64 {
	if c.SNREpsilon == nil {
		return 1e-10
	}
	return *c.SNREpsilon
}

// GetReferenceAlbedo returns the reference_albedo value or the default.
func (c *TuningConfig) GetReferenceAlbedo() float64 {
	if c.ReferenceAlbedo == nil {
		return 0.3
	}
	return *c.ReferenceAlbedo
}

// GetReferenceDistanceLY returns the reference_distance_ly value or the default.
func (c *TuningConfig) GetReferenceDistanceLY() float64 {
	if c.ReferenceDistanceLY == nil {
		return 10.0
	}
	return *c.ReferenceDistanceLY
}

// GetTargetLuminosity returns the target_luminosity value or the default.
// The value is a mission constant and is not derived from the target star.
func (c *TuningConfig) GetTargetLuminosity() float64 {
	if c.TargetLuminosity == nil {
		return 1.0
	}
	return *c.TargetLuminosity
}

// GetHabitableInnerAU returns the habitable_inner_au value or the default.
func (c *TuningConfig) GetHabitableInnerAU() float64 {
	if c.HabitableInnerAU == nil {
		return 0.95
	}
	return *c.HabitableInnerAU
}

// GetHabitableOuterAU returns the habitable_outer_au value or the default.
func (c *TuningConfig) GetHabitableOuterAU() float64 {
	if c.HabitableOuterAU == nil {
		return 1.37
	}
	return *c.HabitableOuterAU
}

// GetContinuumOffsetBins returns the continuum_offset_bins value or the default.
func (c *TuningConfig) GetContinuumOffsetBins() int {
	if c.ContinuumOffsetBins == nil {
		return 10
	}
	return *c.ContinuumOffsetBins
}
