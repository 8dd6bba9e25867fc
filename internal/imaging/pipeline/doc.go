// Package pipeline orchestrates the exoplanet detection stages.
//
// This package is the composition root: it imports the layer packages
// (l1photons, l2corona, l3deconv, l4sources, l5planets, l6spectra) and
// owns the image buffers they operate on. None of those packages import
// pipeline/.
package pipeline
