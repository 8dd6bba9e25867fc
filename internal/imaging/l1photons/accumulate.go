package l1photons

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/solarlens/internal/imaging"
)

// DefaultDarkCurrentRate is the detector dark current in e-/pixel/s at -80°C.
const DefaultDarkCurrentRate = 0.01

// ErrIntegrationTime is returned for a non-positive or non-finite
// integration time.
var ErrIntegrationTime = errors.New("integration time must be positive")

// Accumulator converts detector counts into photon estimates.
type Accumulator struct {
	DarkCurrentRate float64 // e-/pixel/s
}

// NewAccumulator returns an accumulator with the given dark current. A
// negative rate falls back to DefaultDarkCurrentRate.
func NewAccumulator(darkCurrentRate float64) *Accumulator {
	if darkCurrentRate < 0 || math.IsNaN(darkCurrentRate) {
		darkCurrentRate = DefaultDarkCurrentRate
	}
	return &Accumulator{DarkCurrentRate: darkCurrentRate}
}

// Accumulate writes signal + sqrt(signal + dark·t) into dst for every pixel,
// where signal = count·t. dst must have the frame's shape. Nothing is
// written when the inputs are rejected.
func (a *Accumulator) Accumulate(dst *imaging.Image, frame *imaging.Frame, integrationSeconds float64) error {
	if !(integrationSeconds > 0) || math.IsInf(integrationSeconds, 0) {
		return fmt.Errorf("%w: got %v", ErrIntegrationTime, integrationSeconds)
	}
	if err := frame.Validate(); err != nil {
		return err
	}
	if dst.Width != frame.Width || dst.Height != frame.Height || len(dst.Pix) != len(frame.Counts) {
		return fmt.Errorf("%w: image %dx%d, frame %dx%d",
			imaging.ErrDimensions, dst.Width, dst.Height, frame.Width, frame.Height)
	}

	dark := a.DarkCurrentRate * integrationSeconds
	for i, c := range frame.Counts {
		signal := float64(c) * integrationSeconds
		dst.Pix[i] = float32(signal + math.Sqrt(signal+dark))
	}
	return nil
}
