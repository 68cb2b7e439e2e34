package profile

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/KaramelBytes/tabsight-cli/internal/table"
	"gonum.org/v1/gonum/stat"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
// Undefined entries (too few complete rows, zero variance) are NaN.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// RankedPair is an off-diagonal matrix entry ranked by absolute correlation.
type RankedPair struct {
	A   string  `json:"a"`
	B   string  `json:"b"`
	R   float64 `json:"r"`
	Abs float64 `json:"abs"`
}

// At returns the coefficient for two column names.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	if m == nil {
		return math.NaN(), false
	}
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ia = i
		}
		if c == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return math.NaN(), false
	}
	return m.Values[ia][ib], true
}

// Rounded returns a display copy rounded to the given number of decimals.
func (m *CorrMatrix) Rounded(decimals int) *CorrMatrix {
	if m == nil {
		return nil
	}
	scale := math.Pow(10, float64(decimals))
	out := &CorrMatrix{Columns: append([]string(nil), m.Columns...), Values: make([][]float64, len(m.Values))}
	for i, row := range m.Values {
		out.Values[i] = make([]float64, len(row))
		for j, v := range row {
			out.Values[i][j] = math.Round(v*scale) / scale
		}
	}
	return out
}

// Ranked lists each unordered pair once, strongest |r| first. Ties keep
// upper-triangle row-major order. topK <= 0 keeps every pair.
func (m *CorrMatrix) Ranked(topK int, minAbs float64) []RankedPair {
	if m == nil {
		return nil
	}
	var pairs []RankedPair
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			abs := math.Abs(r)
			if abs < minAbs {
				continue
			}
			pairs = append(pairs, RankedPair{A: m.Columns[i], B: m.Columns[j], R: r, Abs: abs})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Abs > pairs[j].Abs })
	if topK > 0 && len(pairs) > topK {
		pairs = pairs[:topK]
	}
	return pairs
}

// MarshalJSON writes undefined coefficients as null.
func (m *CorrMatrix) MarshalJSON() ([]byte, error) {
	vals := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		vals[i] = make([]*float64, len(row))
		for j, v := range row {
			vals[i][j] = jsonFloat(v)
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}{m.Columns, vals})
}

// correlate builds the pairwise-complete Pearson matrix. Each pair uses only the
// rows where both columns are present, independently of every other pair.
func correlate(cols []*table.Column) *CorrMatrix {
	n := len(cols)
	if n < 2 {
		return nil
	}
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		if hasVariance(cols[i].Present()) {
			m.Values[i][i] = 1
		} else {
			m.Values[i][i] = math.NaN()
		}
		for j := i + 1; j < n; j++ {
			r := pearsonComplete(cols[i], cols[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

func pearsonComplete(a, b *table.Column) float64 {
	rows := a.Len()
	xs := make([]float64, 0, rows)
	ys := make([]float64, 0, rows)
	for k := 0; k < rows; k++ {
		if a.IsMissing(k) || b.IsMissing(k) {
			continue
		}
		xs = append(xs, a.Nums[k])
		ys = append(ys, b.Nums[k])
	}
	if len(xs) < 2 || !hasVariance(xs) || !hasVariance(ys) {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN()
	}
	return math.Max(-1, math.Min(1, r))
}

func hasVariance(vals []float64) bool {
	for _, v := range vals[min(1, len(vals)):] {
		if v != vals[0] {
			return true
		}
	}
	return false
}
