package core

import (
	"slices"

	"github.com/chemflow/equipctl/schema"
)

// ToChartDataset projects a snapshot's distribution into a bar chart.
// The result shares no memory with the snapshot and only depends on its distribution.
// Colours are the fixed palette; renderers cycle through it by bar index.
func ToChartDataset(s schema.StatsSnapshot) schema.ChartDataset {
	return schema.ChartDataset{
		Labels: slices.Clone(s.Distribution.Labels),
		Datasets: []schema.ChartSeries{{
			Label:           schema.ChartSeriesLabel,
			Data:            slices.Clone(s.Distribution.Values),
			BackgroundColor: slices.Clone(schema.ChartFill),
			BorderColor:     slices.Clone(schema.ChartBorder),
			BorderWidth:     schema.ChartBorderWidth,
			BarThickness:    schema.ChartBarThickness,
		}},
		XAxis: schema.DefaultAxisTicks,
	}
}
