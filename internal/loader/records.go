package loader

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

// FromRecords builds a typed table from a header row and string records.
// Short rows are padded with missing cells and extra cells are dropped. A
// column is numeric or datetime only when at least kindShare of its
// non-missing cells parse that way; the few stray cells left over become
// missing and are counted in Table.Coerced. Anything more mixed stays text.
func FromRecords(name string, header []string, rows [][]string, opt Options) *table.Table {
	t := &table.Table{Name: name, Coerced: map[string]int{}}
	if len(header) == 0 {
		return t
	}
	if opt.CategoricalMaxUnique <= 0 {
		opt.CategoricalMaxUnique = DefaultOptions().CategoricalMaxUnique
	}
	used := make(map[string]struct{}, len(header))
	for _, h := range header {
		clean, _ := splitUnits(h)
		used[clean] = struct{}{}
	}
	taken := map[string]struct{}{}
	for i, h := range header {
		clean, unit := splitUnits(h)
		if clean == "" {
			clean = "column_" + strconv.Itoa(i+1)
		}
		clean = uniqueName(clean, taken, used)
		taken[clean] = struct{}{}
		cells := make([]string, len(rows))
		for r, rec := range rows {
			if i < len(rec) {
				cells[r] = strings.TrimSpace(rec[i])
			}
		}
		col, coerced := buildColumn(clean, unit, cells, opt)
		if coerced > 0 {
			t.Coerced[col.Name] = coerced
		}
		t.Columns = append(t.Columns, col)
	}
	return t
}

// uniqueName returns name, or name.N with the smallest N that no earlier
// column took and no later header spells out literally.
func uniqueName(name string, taken, headers map[string]struct{}) string {
	if _, dup := taken[name]; !dup {
		return name
	}
	for n := 1; ; n++ {
		cand := name + "." + strconv.Itoa(n)
		if _, dup := taken[cand]; dup {
			continue
		}
		if _, lit := headers[cand]; lit {
			continue
		}
		return cand
	}
}

// kindShare is the fraction of non-missing cells that must parse as numbers
// (or datetimes) for a column to take that kind.
const kindShare = 0.95

func buildColumn(name, unit string, cells []string, opt Options) (*table.Column, int) {
	var numCnt, dtCnt, boolCnt, txtCnt int
	percent := false
	distinct := map[string]struct{}{}
	for _, s := range cells {
		if isMissing(s) {
			continue
		}
		distinct[s] = struct{}{}
		if _, ok := parseNumeric(s, opt); ok {
			numCnt++
			if strings.Contains(s, "%") {
				percent = true
			}
			continue
		}
		if _, ok := parseTimeMaybe(s); ok {
			dtCnt++
			continue
		}
		if parseBool(s) {
			boolCnt++
			continue
		}
		txtCnt++
	}
	nonMissing := numCnt + dtCnt + boolCnt + txtCnt
	switch {
	case nonMissing == 0 || float64(numCnt) >= kindShare*float64(nonMissing):
		if unit == "" && percent {
			unit = "%"
		}
		return numericColumn(name, unit, cells, opt)
	case float64(dtCnt) >= kindShare*float64(nonMissing):
		return temporalColumn(name, unit, cells)
	}
	kind := table.Textual
	if boolCnt == nonMissing || (len(distinct) <= opt.CategoricalMaxUnique && len(distinct) < nonMissing) {
		kind = table.Categorical
	}
	col := &table.Column{Name: name, Kind: kind, Unit: unit, Strs: make([]string, len(cells)), Missing: make([]bool, len(cells))}
	for i, s := range cells {
		if isMissing(s) {
			col.Missing[i] = true
			continue
		}
		col.Strs[i] = s
	}
	return col, 0
}

func numericColumn(name, unit string, cells []string, opt Options) (*table.Column, int) {
	col := &table.Column{Name: name, Kind: table.Numeric, Unit: unit, Nums: make([]float64, len(cells)), Missing: make([]bool, len(cells))}
	coerced := 0
	for i, s := range cells {
		if isMissing(s) {
			col.Nums[i], col.Missing[i] = math.NaN(), true
			continue
		}
		x, ok := parseNumeric(s, opt)
		if !ok {
			col.Nums[i], col.Missing[i] = math.NaN(), true
			coerced++
			continue
		}
		if opt.UnitNormalize && unit != "" {
			if y, to, changed := normalizeUnit(x, unit, opt); changed {
				x = y
				col.Unit = to
			}
		}
		col.Nums[i] = x
	}
	return col, coerced
}

func temporalColumn(name, unit string, cells []string) (*table.Column, int) {
	col := &table.Column{Name: name, Kind: table.Temporal, Unit: unit, Strs: make([]string, len(cells)), Times: make([]time.Time, len(cells)), Missing: make([]bool, len(cells))}
	coerced := 0
	for i, s := range cells {
		if isMissing(s) {
			col.Missing[i] = true
			continue
		}
		ts, ok := parseTimeMaybe(s)
		if !ok {
			col.Missing[i] = true
			coerced++
			continue
		}
		col.Strs[i], col.Times[i] = s, ts
	}
	return col, coerced
}
