// Package l5planets owns Layer 5 (Planets) of the imaging data model.
//
// Responsibilities: turning a detection into physical parameters (radius,
// temperature, albedo, orbital radius) and the habitable-zone verdict.
// Key types: Estimator, Estimate.
//
// Dependency rule: L5 may depend on L1-L4, but never on L6.
package l5planets
