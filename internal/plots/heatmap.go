package plots

import (
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/solarlens/internal/imaging"
)

// imageGrid adapts an Image to plotter.GridXYZ with one cell per pixel.
type imageGrid struct {
	img *imaging.Image
}

func (g imageGrid) Dims() (c, r int)   { return g.img.Width, g.img.Height }
func (g imageGrid) Z(c, r int) float64 { return float64(g.img.At(c, r)) }
func (g imageGrid) X(c int) float64    { return float64(c) }
func (g imageGrid) Y(r int) float64    { return float64(r) }

// ImageHeatmap builds a heat map of img with row 0 at the top.
func ImageHeatmap(img *imaging.Image, title string) (*plot.Plot, error) {
	if img == nil || img.Width < 2 || img.Height < 2 {
		return nil, ErrEmpty
	}

	hm := plotter.NewHeatMap(imageGrid{img}, palette.Heat(64, 1))
	lo, hi := img.MinMax()
	hm.Min, hm.Max = float64(lo), float64(hi)
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	p.Add(hm)
	return p, nil
}

// ImageHeatmapPNG renders img as a square PNG heat map to w.
func ImageHeatmapPNG(w io.Writer, img *imaging.Image, title string) error {
	p, err := ImageHeatmap(img, title)
	if err != nil {
		return err
	}
	return writePNG(w, p, 6*vg.Inch, 6*vg.Inch)
}
