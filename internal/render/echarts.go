package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/odour.report/internal/odour"
)

// NewMapChart builds the interactive scatter map. Axis ranges are pinned to
// the accepted observation region so maps from different uploads line up.
func NewMapChart(res *odour.Result) (*charts.Scatter, error) {
	series, err := res.Series()
	if err != nil {
		return nil, err
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: MapTitle, Width: "900px", Height: "560px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    MapTitle,
			Subtitle: fmt.Sprintf("k=%d rows=%d run=%s", res.K, res.Dataset.Len(), res.RunID),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10", Orient: "vertical"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: XAxisLabel, NameLocation: "middle", NameGap: 25,
			Min: odour.MinLongitude, Max: odour.MaxLongitude,
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: YAxisLabel, NameLocation: "middle", NameGap: 30,
			Min: odour.MinLatitude, Max: odour.MaxLatitude,
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
	)

	for _, s := range series {
		data := make([]opts.ScatterData, len(s.Points))
		for i, pt := range s.Points {
			data[i] = opts.ScatterData{Value: []interface{}{pt.Lon, pt.Lat}}
		}
		scatter.AddSeries(s.Label, data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color.Hex()}),
		)
	}
	return scatter, nil
}

// MapHTML writes the interactive scatter map as a standalone HTML page.
func MapHTML(w io.Writer, res *odour.Result) error {
	chart, err := NewMapChart(res)
	if err != nil {
		return err
	}
	if err := chart.Render(w); err != nil {
		return fmt.Errorf("render map chart: %w", err)
	}
	return nil
}
