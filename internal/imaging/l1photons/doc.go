// Package l1photons owns Layer 1 (Photons) of the imaging data model.
//
// Responsibilities: converting raw detector counts into accumulated photon
// estimates with a shot-noise term.
// Key types: Accumulator.
//
// Dependency rule: L1 depends only on imaging. No SQL/database code is
// allowed in this package.
package l1photons
