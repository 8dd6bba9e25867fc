// Package imaging holds the data model shared by the detection layers.
//
// Key types: Frame (raw detector counts), Image (float32 working grid),
// Spectrum and SpectralScale. The package also owns the binary file codecs
// for frames and spectra and the compressed snapshot encoding used by
// persistence.
//
// Dependency rule: imaging depends only on the standard library and
// internal/units. Layer packages (l1photons .. l6spectra) import it; it
// never imports them.
package imaging
