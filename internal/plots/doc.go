// Package plots renders spectra and processed images.
//
// PNG output uses gonum/plot for files written by the CLI and served by the
// API; interactive HTML charts use go-echarts. Absorption bands from
// l6spectra.Lines are marked on every spectrum plot.
package plots
