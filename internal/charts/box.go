package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/tabsight-cli/internal/profile"
	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

var (
	boxColor     = drawing.ColorFromHex("4c72b0")
	medianColor  = drawing.ColorFromHex("dd8452")
	outlierColor = drawing.ColorFromHex("c44e52")
)

// BoxPlot draws a Tukey box plot for the column d describes: the box spans the
// quartiles, whiskers reach the most extreme values within 1.5 IQR, and values
// past the fences are drawn as points.
func BoxPlot(w io.Writer, t *table.Table, d profile.ColumnProfile) error {
	if d.Count == 0 || math.IsNaN(d.Q25) {
		return fmt.Errorf("box plot %s: %w", d.Name, ErrNoData)
	}
	c, ok := t.Column(d.Name)
	if !ok || c.Kind != table.Numeric {
		return fmt.Errorf("box plot: %q is not a numeric column", d.Name)
	}
	iqr := d.Q75 - d.Q25
	loFence, hiFence := d.Q25-1.5*iqr, d.Q75+1.5*iqr
	loW, hiW := d.Q25, d.Q75
	var ox, oy []float64
	for i, v := range c.Nums {
		if c.IsMissing(i) {
			continue
		}
		if v < loFence || v > hiFence {
			ox, oy = append(ox, 1), append(oy, v)
			continue
		}
		loW = min(loW, v)
		hiW = max(hiW, v)
	}

	line := func(xs, ys []float64, col drawing.Color, width float64) chart.Series {
		return chart.ContinuousSeries{XValues: xs, YValues: ys, Style: chart.Style{StrokeColor: col, StrokeWidth: width}}
	}
	series := []chart.Series{
		line([]float64{0.7, 1.3, 1.3, 0.7, 0.7}, []float64{d.Q25, d.Q25, d.Q75, d.Q75, d.Q25}, boxColor, 2),
		line([]float64{0.7, 1.3}, []float64{d.Q50, d.Q50}, medianColor, 3),
		line([]float64{1, 1}, []float64{d.Q25, loW}, boxColor, 1),
		line([]float64{1, 1}, []float64{d.Q75, hiW}, boxColor, 1),
		line([]float64{0.85, 1.15}, []float64{loW, loW}, boxColor, 1),
		line([]float64{0.85, 1.15}, []float64{hiW, hiW}, boxColor, 1),
	}
	if len(ox) > 0 {
		series = append(series, chart.ContinuousSeries{XValues: ox, YValues: oy, Style: pointStyle(outlierColor)})
	}

	lo, hi := d.Min, d.Max
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.05, 1)
	}
	ch := chart.Chart{
		Title:      fmt.Sprintf("Box plot of %s", d.Name),
		Width:      width / 2,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: 2},
			Ticks: []chart.Tick{{Value: 1, Label: d.Name}},
		},
		YAxis:  chart.YAxis{Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}},
		Series: series,
	}
	return ch.Render(chart.PNG, w)
}
