// Package l4sources owns Layer 4 (Sources) of the imaging data model.
//
// Responsibilities: locating the brightest interior point source and
// measuring its aperture flux against annulus noise.
// Key types: Detector, Detection.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5+.
package l4sources
