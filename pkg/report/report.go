// Package report renders an HTML summary of a generated dataset from its
// catalog records using go-echarts.
package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"straingen/internal/catalog"
)

// FileName is the name of the report under the dataset root.
const FileName = "report.html"

// Write renders the dataset report to path: a bar chart of the mean
// absolute displacement per sample and a scatter of the maximum absolute
// strain against the noise sigma.
func Write(path string, samples []catalog.Sample) error {
	page := components.NewPage()
	page.PageTitle = "straingen dataset report"
	page.AddCharts(displacementBar(samples), strainScatter(samples))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %v", err)
	}
	defer file.Close()

	if err := page.Render(file); err != nil {
		return fmt.Errorf("failed to render report: %v", err)
	}

	return nil
}

// displacementBar charts the mean absolute displacement of each sample,
// averaged over the two components.
func displacementBar(samples []catalog.Sample) *charts.Bar {
	x := make([]string, 0, len(samples))
	y := make([]opts.BarData, 0, len(samples))
	for _, s := range samples {
		x = append(x, fmt.Sprintf("%04d", s.Index))
		y = append(y, opts.BarData{Value: (s.MeanAbsU + s.MeanAbsV) / 2})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Mean absolute displacement",
			Subtitle: fmt.Sprintf("samples=%d", len(samples)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "sample"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "pixels"}),
	)
	bar.SetXAxis(x).AddSeries("mean |u|", y)

	return bar
}

// strainScatter charts the maximum absolute strain of each sample against
// its noise sigma.
func strainScatter(samples []catalog.Sample) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(samples))
	for _, s := range samples {
		data = append(data, opts.ScatterData{Value: []interface{}{s.NoiseSigma, s.MaxAbsStrain}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Max absolute strain vs noise"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "noise sigma", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "max |strain|", Type: "value"}),
	)
	scatter.AddSeries("samples", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	return scatter
}
