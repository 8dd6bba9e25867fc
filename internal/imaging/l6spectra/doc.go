// Package l6spectra owns Layer 6 (Spectra) of the imaging data model.
//
// Responsibilities: measuring molecular absorption depths in a planet
// spectrum and scoring biosignature evidence.
// Key types: Analyzer, Atmosphere, AbsorptionLine.
//
// Dependency rule: L6 may depend on L1-L5. No SQL/database code is
// allowed in this package.
package l6spectra
