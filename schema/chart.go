package schema

// ChartSeriesLabel is the label of the single bar series.
const ChartSeriesLabel = "Equipment Count"

// Fixed bar styling.
const (
	ChartBorderWidth  = 1
	ChartBarThickness = 50
)

// ChartFill is the bar fill palette. Bars cycle through it by index.
var ChartFill = []string{
	"rgba(56, 189, 248, 0.6)",
	"rgba(129, 140, 248, 0.6)",
	"rgba(244, 114, 182, 0.6)",
}

// ChartBorder is the bar border palette, the fill palette at full opacity.
var ChartBorder = []string{
	"rgba(56, 189, 248, 1)",
	"rgba(129, 140, 248, 1)",
	"rgba(244, 114, 182, 1)",
}

// ChartHex is the palette as hex colours for raster rendering.
var ChartHex = []string{"#38bdf8", "#818cf8", "#f472b6"}

// ChartSeries is one bar series of a chart.
type ChartSeries struct {
	Label           string   `json:"label"`
	Data            []int    `json:"data"`
	BackgroundColor []string `json:"backgroundColor"`
	BorderColor     []string `json:"borderColor"`
	BorderWidth     int      `json:"borderWidth"`
	BarThickness    int      `json:"barThickness"`
}

// AxisTicks holds the category axis tick layout.
type AxisTicks struct {
	Offset      bool   `json:"offset"`
	Align       string `json:"align"`
	AutoSkip    bool   `json:"autoSkip"`
	MaxRotation int    `json:"maxRotation"`
	MinRotation int    `json:"minRotation"`
	FontSize    int    `json:"fontSize"`
}

// DefaultAxisTicks keeps every label visible, centred and horizontal.
var DefaultAxisTicks = AxisTicks{
	Offset:      true,
	Align:       "center",
	AutoSkip:    false,
	MaxRotation: 0,
	MinRotation: 0,
	FontSize:    10,
}

// ChartDataset is the render-ready form of a snapshot's distribution.
type ChartDataset struct {
	Labels   []string      `json:"labels"`
	Datasets []ChartSeries `json:"datasets"`
	XAxis    AxisTicks     `json:"xAxis"`
}

// Series returns the single bar series, or an empty one.
func (c ChartDataset) Series() ChartSeries {
	if len(c.Datasets) == 0 {
		return ChartSeries{}
	}
	return c.Datasets[0]
}

// HexFor returns the raster colour for bar i.
func HexFor(i int) string {
	return ChartHex[i%len(ChartHex)]
}
