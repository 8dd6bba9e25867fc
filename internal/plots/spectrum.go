package plots

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/solarlens/internal/imaging"
	"github.com/banshee-data/solarlens/internal/imaging/l6spectra"
)

// Default PNG dimensions.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 4 * vg.Inch
)

// ErrEmpty is returned when there is nothing to plot.
var ErrEmpty = errors.New("nothing to plot")

var (
	spectrumColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	bandColor     = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// spectrumXYs pairs each sample with the wavelength at the start of its bin.
func spectrumXYs(s imaging.Spectrum, scale imaging.SpectralScale) plotter.XYs {
	n := min(len(s), scale.Bins)
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i] = plotter.XY{X: scale.WavelengthForBin(i), Y: float64(s[i])}
	}
	return pts
}

// SpectrumPlot builds a line plot of s with a dashed marker at every
// absorption band inside the scale.
func SpectrumPlot(s imaging.Spectrum, scale imaging.SpectralScale, title string) (*plot.Plot, error) {
	if err := scale.Validate(); err != nil {
		return nil, err
	}
	pts := spectrumXYs(s, scale)
	if len(pts) == 0 {
		return nil, ErrEmpty
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Wavelength (nm)"
	p.Y.Label.Text = "Intensity"
	p.X.Min, p.X.Max = scale.MinNM, scale.MaxNM

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("spectrum line: %w", err)
	}
	line.Color = spectrumColor
	line.Width = vg.Points(1)
	p.Add(line)

	lo, hi := yRange(pts)
	var labels plotter.XYLabels
	for _, band := range bandsIn(scale) {
		marker, err := plotter.NewLine(plotter.XYs{{X: band.WavelengthNM, Y: lo}, {X: band.WavelengthNM, Y: hi}})
		if err != nil {
			return nil, fmt.Errorf("band marker %s: %w", band.Molecule, err)
		}
		marker.Color = bandColor
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(marker)

		labels.XYs = append(labels.XYs, plotter.XY{X: band.WavelengthNM, Y: hi})
		labels.Labels = append(labels.Labels, band.Molecule)
	}
	if len(labels.Labels) > 0 {
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, fmt.Errorf("band labels: %w", err)
		}
		p.Add(l)
	}
	return p, nil
}

// SpectrumPNG renders s as a PNG to w.
func SpectrumPNG(w io.Writer, s imaging.Spectrum, scale imaging.SpectralScale, title string) error {
	p, err := SpectrumPlot(s, scale, title)
	if err != nil {
		return err
	}
	return writePNG(w, p, DefaultWidth, DefaultHeight)
}

func writePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// yRange returns the sample range, widened when flat so markers stay visible.
func yRange(pts plotter.XYs) (lo, hi float64) {
	_, _, lo, hi = plotter.XYRange(pts)
	if hi <= lo {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}

// bandsIn returns the absorption bands that fall inside scale.
func bandsIn(scale imaging.SpectralScale) []l6spectra.AbsorptionLine {
	var out []l6spectra.AbsorptionLine
	for _, band := range l6spectra.Lines {
		if band.WavelengthNM >= scale.MinNM && band.WavelengthNM < scale.MaxNM {
			out = append(out, band)
		}
	}
	return out
}
