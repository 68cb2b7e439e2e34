// Package charts renders profile histograms, box plots and pair scatter plots as PNG.
package charts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tabsight-cli/internal/profile"
	"github.com/KaramelBytes/tabsight-cli/internal/table"
	"github.com/KaramelBytes/tabsight-cli/internal/utils"
)

// ErrNoData is returned when a chart would have nothing to draw.
var ErrNoData = errors.New("no data to chart")

var (
	barColor   = drawing.ColorFromHex("4c72b0")
	dotColor   = drawing.ColorFromHex("1f77b4")
	trendColor = drawing.ColorFromHex("d62728")
)

const (
	width  = 800
	height = 480
)

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

// Histogram draws h as a filled step outline.
func Histogram(w io.Writer, h profile.Histogram) error {
	if len(h.Bins) == 0 {
		return fmt.Errorf("histogram %s: %w", h.Column, ErrNoData)
	}
	var xs, ys []float64
	maxCount := 1
	for i, b := range h.Bins {
		lo, hi := b.Lo, b.Hi
		if hi <= lo {
			hi = lo + 1
		}
		if i == 0 {
			xs, ys = append(xs, lo), append(ys, 0)
		}
		xs = append(xs, lo, hi)
		ys = append(ys, float64(b.Count), float64(b.Count))
		if b.Count > maxCount {
			maxCount = b.Count
		}
		if i == len(h.Bins)-1 {
			xs, ys = append(xs, hi), append(ys, 0)
		}
	}
	ch := chart.Chart{
		Title:      fmt.Sprintf("Distribution of %s", h.Column),
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: h.Column},
		YAxis:      chart.YAxis{Name: "count", Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount) * 1.05}},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    h.Column,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: barColor, StrokeWidth: 1, FillColor: barColor.WithAlpha(160)},
		}},
	}
	return ch.Render(chart.PNG, w)
}

// Scatter plots b against a over rows where both are present, with an
// ordinary least squares trend line.
func Scatter(w io.Writer, t *table.Table, a, b string) error {
	ca, ok := t.Column(a)
	if !ok || ca.Kind != table.Numeric {
		return fmt.Errorf("scatter: %q is not a numeric column", a)
	}
	cb, ok := t.Column(b)
	if !ok || cb.Kind != table.Numeric {
		return fmt.Errorf("scatter: %q is not a numeric column", b)
	}
	var xs, ys []float64
	for i := 0; i < ca.Len(); i++ {
		if ca.IsMissing(i) || cb.IsMissing(i) {
			continue
		}
		xs = append(xs, ca.Nums[i])
		ys = append(ys, cb.Nums[i])
	}
	if len(xs) < 2 {
		return fmt.Errorf("scatter %s ~ %s: %w", a, b, ErrNoData)
	}
	minX, maxX := xs[0], xs[0]
	for _, x := range xs {
		minX = min(minX, x)
		maxX = max(maxX, x)
	}
	series := []chart.Series{chart.ContinuousSeries{Name: b, XValues: xs, YValues: ys, Style: pointStyle(dotColor)}}
	if maxX > minX {
		alpha, beta := stat.LinearRegression(xs, ys, nil, false)
		series = append(series, chart.ContinuousSeries{
			Name:    "OLS fit",
			XValues: []float64{minX, maxX},
			YValues: []float64{alpha + beta*minX, alpha + beta*maxX},
			Style:   chart.Style{StrokeColor: trendColor, StrokeWidth: 2},
		})
	} else {
		// single x value: widen the axis so the chart has a range
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{minX - 1, minX + 1},
			YValues: []float64{ys[0], ys[0]},
			Style:   chart.Style{StrokeWidth: chart.Disabled},
		})
	}
	ch := chart.Chart{
		Title:      fmt.Sprintf("%s vs %s", b, a),
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: a},
		YAxis:      chart.YAxis{Name: b},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

// WriteAll writes a histogram and a box plot per numeric column and a scatter
// plot per top pair into dir, returning the written paths. Nothing is written when the
// summary has no numeric data.
func WriteAll(dir string, s *profile.Summary, t *table.Table) ([]string, error) {
	if !s.HasNumericData {
		return nil, nil
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	var out []string
	write := func(name string, draw func(io.Writer) error) error {
		p := filepath.Join(dir, name)
		f, err := os.Create(p)
		if err != nil {
			return err
		}
		if err := draw(f); err != nil {
			f.Close()
			_ = os.Remove(p)
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	}
	for _, h := range s.Histograms {
		if len(h.Bins) == 0 {
			continue
		}
		if err := write("hist_"+slug(h.Column)+".png", func(w io.Writer) error { return Histogram(w, h) }); err != nil {
			return out, fmt.Errorf("histogram %s: %w", h.Column, err)
		}
	}
	for _, d := range s.Describe {
		if d.Count == 0 {
			continue
		}
		if err := write("box_"+slug(d.Name)+".png", func(w io.Writer) error { return BoxPlot(w, t, d) }); err != nil {
			return out, fmt.Errorf("box plot %s: %w", d.Name, err)
		}
	}
	for _, p := range s.Pairs {
		err := write("scatter_"+slug(p.A)+"_"+slug(p.B)+".png", func(w io.Writer) error { return Scatter(w, t, p.A, p.B) })
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			return out, fmt.Errorf("scatter %s ~ %s: %w", p.A, p.B, err)
		}
	}
	return out, nil
}

func slug(s string) string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(parts) == 0 {
		return "column"
	}
	return strings.Join(parts, "_")
}
