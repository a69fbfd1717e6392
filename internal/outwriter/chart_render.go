package outwriter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/chemflow/equipctl/internal/contract"
	"github.com/chemflow/equipctl/schema"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Chart image geometry in pixels.
const (
	chartHeight     = 480
	chartMinWidth   = 640
	chartBarSpacing = 30
)

// ChartRenderer draws a chart dataset as a PNG bar chart.
type ChartRenderer struct{}

var _ contract.ChartRenderer = &ChartRenderer{} // Compile-time check

// NewChartRenderer returns a PNG chart renderer.
func NewChartRenderer() *ChartRenderer {
	return &ChartRenderer{}
}

// RenderPNG renders the dataset. An empty dataset renders a single
// zero-height "No data" bar so the report still gets an image.
func (r *ChartRenderer) RenderPNG(dataset schema.ChartDataset) ([]byte, error) {
	series := dataset.Series()
	barWidth := series.BarThickness
	if barWidth <= 0 {
		barWidth = schema.ChartBarThickness
	}

	var bars []chart.Value
	peak := 0
	for i, label := range dataset.Labels {
		v := 0
		if i < len(series.Data) {
			v = series.Data[i]
		}
		peak = max(peak, v)
		bars = append(bars, chart.Value{
			Label: label,
			Value: float64(v),
			Style: chart.Style{
				FillColor:   hexColor(schema.HexFor(i)),
				StrokeColor: hexColor(schema.HexFor(i)),
				StrokeWidth: float64(max(series.BorderWidth, schema.ChartBorderWidth)),
			},
		})
	}
	if len(bars) == 0 {
		bars = []chart.Value{{Label: "No data", Value: 0}}
	}

	width := max(chartMinWidth, len(bars)*(barWidth+chartBarSpacing)+120)
	graph := chart.BarChart{
		Title:      schema.ChartSeriesLabel,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:      width,
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: chartBarSpacing,
		XAxis:      chart.Style{FontSize: float64(dataset.XAxis.FontSize)},
		YAxis: chart.YAxis{
			// Baseline at 0 with a minimal positive height when every count is 0
			Range: &chart.ContinuousRange{Min: 0, Max: float64(max(peak, 1))},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
