// Package l2corona owns Layer 2 (Corona) of the imaging data model.
//
// Responsibilities: subtracting the modelled solar corona from the
// accumulated image.
// Key types: Subtractor.
//
// Dependency rule: L2 may depend on L1 and optics, but never on L3+.
package l2corona
