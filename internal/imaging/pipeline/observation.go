package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/units"
)

var (
	// ErrInvalidObservation is returned for inputs rejected before any
	// buffer is written.
	ErrInvalidObservation = errors.New("invalid observation")

	// ErrFrameSize is returned when the frame does not match the
	// configured detector resolution.
	ErrFrameSize = errors.New("frame size mismatch")
)

// Observation is one exposure handed to the pipeline.
type Observation struct {
	Frame              *imaging.Frame   `json:"-" validate:"required"`
	IntegrationSeconds uint32           `json:"integration_seconds" validate:"gt=0"`
	TargetDistanceLY   float64          `json:"target_distance_ly" validate:"gte=0"`
	WavelengthNM       float64          `json:"wavelength_nm" validate:"gt=0"`
	DopplerShift       float64          `json:"doppler_shift"`
	Spectrum           imaging.Spectrum `json:"-"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the observation against a detector of the given
// resolution and spectrum length. Numeric fields and spectrum samples must
// be finite. Every returned error wraps
// ErrInvalidObservation; shape problems also wrap ErrFrameSize.
func (o *Observation) Validate(width, height, spectrumBins int) error {
	if o == nil {
		return fmt.Errorf("%w: nil observation", ErrInvalidObservation)
	}
	if err := getValidator().Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidObservation, fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidObservation, err)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"TargetDistanceLY", o.TargetDistanceLY},
		{"WavelengthNM", o.WavelengthNM},
		{"DopplerShift", o.DopplerShift},
	} {
		if !units.IsFinite(f.v) {
			return fmt.Errorf("%w: %s is not finite (value %v)", ErrInvalidObservation, f.name, f.v)
		}
	}
	if err := o.Frame.Validate(); err != nil {
		return fmt.Errorf("%w: %w: %v", ErrInvalidObservation, ErrFrameSize, err)
	}
	if o.Frame.Width != width || o.Frame.Height != height {
		return fmt.Errorf("%w: %w: got %dx%d, want %dx%d",
			ErrInvalidObservation, ErrFrameSize, o.Frame.Width, o.Frame.Height, width, height)
	}
	if o.Spectrum != nil && len(o.Spectrum) != spectrumBins {
		return fmt.Errorf("%w: spectrum has %d bins, want %d", ErrInvalidObservation, len(o.Spectrum), spectrumBins)
	}
	for i, v := range o.Spectrum {
		if !units.IsFinite(float64(v)) {
			return fmt.Errorf("%w: spectrum bin %d is not finite (value %v)", ErrInvalidObservation, i, v)
		}
	}
	return nil
}
