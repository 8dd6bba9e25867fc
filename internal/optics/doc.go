// Package optics models the Sun as a gravitational lens.
//
// Responsibilities: chromatic focal distance, point-lens magnification,
// point-spread-function generation and the solar corona brightness model
// used for background subtraction.
// Key types: Lens, PSF.
//
// A Lens is immutable after NewLens and safe for concurrent use by any
// number of detection pipelines.
package optics
