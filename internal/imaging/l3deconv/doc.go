// Package l3deconv owns Layer 3 (Deconvolution) of the imaging data model.
//
// Responsibilities: Richardson-Lucy style iterative deconvolution of the
// corona-subtracted image with a uniform box kernel.
// Key types: Deconvolver.
//
// Dependency rule: L3 may depend on L1-L2 and optics, but never on L4+.
package l3deconv
