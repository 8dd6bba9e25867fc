package plots

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/solarlens/internal/imaging"
)

// AssetsHost is where rendered HTML pages load the echarts scripts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// SpectrumChart builds an interactive line chart of s with a mark line at
// every absorption band inside the scale.
func SpectrumChart(s imaging.Spectrum, scale imaging.SpectralScale, title, subtitle string) (*charts.Line, error) {
	if err := scale.Validate(); err != nil {
		return nil, err
	}
	pts := spectrumXYs(s, scale)
	if len(pts) == 0 {
		return nil, ErrEmpty
	}

	data := make([]opts.LineData, len(pts))
	for i, pt := range pts {
		data[i] = opts.LineData{Value: []interface{}{pt.X, pt.Y}}
	}

	var marks []opts.MarkLineNameXAxisItem
	for _, band := range bandsIn(scale) {
		marks = append(marks, opts.MarkLineNameXAxisItem{Name: band.Molecule, XAxis: band.WavelengthNM})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Wavelength (nm)", NameLocation: "middle", NameGap: 25, Min: scale.MinNM, Max: scale.MaxNM}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Intensity", NameLocation: "middle", NameGap: 40}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)
	line.AddSeries("spectrum", data,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithMarkLineNameXAxisItemOpts(marks...),
	)
	return line, nil
}

// RenderSpectrumHTML writes a standalone HTML page with the spectrum chart.
func RenderSpectrumHTML(w io.Writer, s imaging.Spectrum, scale imaging.SpectralScale, title, subtitle string) error {
	line, err := SpectrumChart(s, scale, title, subtitle)
	if err != nil {
		return err
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
