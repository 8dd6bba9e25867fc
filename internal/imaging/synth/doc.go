// Package synth generates synthetic detector frames and planet spectra for
// tests, demos and the gen-frame tool.
//
// Frames combine a uniform background, the corona model used by l2corona
// and Gaussian point sources, with optional Poisson photon noise. Spectra
// are a Planck continuum with absorption applied at the l6spectra bands.
// Both generators are seeded so output is reproducible.
package synth
