package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

var csvRows = []string{
	"Group;Concentration (g/L);Temp (°F);Score;LocaleNumber;Category;Note",
	"A;0,5;70;10,0;1.000,0;alpha;first",
	"A;0,6;71;11,0;1.100,0;alpha;second",
	"A;0,55;69;9,5;0.900,0;beta;third",
	"B;0,7;75;10,5;1.050,0;alpha;fourth",
	"B;0,65;74;9,8;0.980,0;beta;fifth",
	"B;0,68;73;10,2;1.020,0;alpha;sixth",
	"A;0,52;68;8,8;0.880,0;gamma;seventh",
	"B;0,75;76;9,7;0.970,0;beta;eighth",
	"A;3,0;95;50,0;5.000,0;alpha;ninth",
	"B;0,66;72;10,1;1.010,0;gamma;tenth",
}

func load(t *testing.T, body, name string, opt Options) *table.Table {
	t.Helper()
	tab, err := LoadCSV(strings.NewReader(body), name, opt)
	require.NoError(t, err)
	require.NoError(t, tab.Validate())
	return tab
}

func col(t *testing.T, tab *table.Table, name string) *table.Column {
	t.Helper()
	c, ok := tab.Column(name)
	require.True(t, ok, "column %q not found in %v", name, tab.Names())
	return c
}

func TestLoadCSVLocaleUnitsAndKinds(t *testing.T) {
	opt := DefaultOptions()
	opt.Delimiter = ';'
	tab := load(t, strings.Join(csvRows, "\n")+"\n", "lab.csv", opt)

	assert.Equal(t, "lab.csv", tab.Name)
	assert.Equal(t, 10, tab.Rows())
	assert.Equal(t, []string{"Group", "Concentration", "Temp", "Score", "LocaleNumber", "Category", "Note"}, tab.Names())

	conc := col(t, tab, "Concentration")
	assert.Equal(t, table.Numeric, conc.Kind)
	assert.Equal(t, "mg/L", conc.Unit)
	assert.InDelta(t, 500, conc.Nums[0], 1e-9)
	assert.InDelta(t, 3000, conc.Nums[8], 1e-9)

	temp := col(t, tab, "Temp")
	assert.Equal(t, "°C", temp.Unit)
	assert.InDelta(t, (70.0-32)*5/9, temp.Nums[0], 1e-9)

	loc := col(t, tab, "LocaleNumber")
	assert.Equal(t, []float64{1000, 1100, 900, 1050, 980, 1020, 880, 970, 5000, 1010}, loc.Nums)

	assert.Equal(t, table.Numeric, col(t, tab, "Score").Kind)
	assert.Equal(t, table.Categorical, col(t, tab, "Group").Kind)
	assert.Equal(t, table.Categorical, col(t, tab, "Category").Kind)
	assert.Equal(t, table.Textual, col(t, tab, "Note").Kind)
	assert.Empty(t, tab.Coerced)
}

func TestLoadCSVUnitNormalizationOff(t *testing.T) {
	opt := DefaultOptions()
	opt.Delimiter = ';'
	opt.UnitNormalize = false
	tab := load(t, strings.Join(csvRows, "\n"), "lab.csv", opt)
	conc := col(t, tab, "Concentration")
	assert.Equal(t, "g/L", conc.Unit)
	assert.InDelta(t, 0.5, conc.Nums[0], 1e-12)
}

func TestLoadCSVMissingTokens(t *testing.T) {
	body := "a,b,c\n1,NA,x\n2,,None\n3,5,N/A\n4,null,y\n"
	tab := load(t, body, "m.csv", DefaultOptions())
	b := col(t, tab, "b")
	assert.Equal(t, table.Numeric, b.Kind)
	assert.Equal(t, 3, b.MissingCount())
	assert.Equal(t, []float64{5}, b.Present())
	assert.Equal(t, 2, col(t, tab, "c").MissingCount())
	assert.Empty(t, tab.Coerced)
}

func TestLoadCSVMixedColumnStaysText(t *testing.T) {
	body := "Fare,Ticket\n7.25,A/5 21171\n71.28,PC 17599\n7.92,373450\n53.1,113803\n8.05,330877\n"
	tab := load(t, body, "titanic.csv", DefaultOptions())
	ticket := col(t, tab, "Ticket")
	assert.NotEqual(t, table.Numeric, ticket.Kind)
	assert.Equal(t, 0, ticket.MissingCount())
	assert.Equal(t, "PC 17599", ticket.Strs[1])
	assert.Empty(t, tab.Coerced)
	nums := tab.NumericColumns()
	require.Len(t, nums, 1)
	assert.Equal(t, "Fare", nums[0].Name)
}

func TestLoadCSVCoercesStrayValues(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 20; i++ {
		b.WriteString("1" + strings.Repeat("0", i%3) + "\n")
	}
	b.WriteString("abc\n")
	tab := load(t, b.String(), "c.csv", DefaultOptions())
	n := col(t, tab, "n")
	assert.Equal(t, table.Numeric, n.Kind)
	assert.True(t, n.IsMissing(20))
	assert.Equal(t, map[string]int{"n": 1}, tab.Coerced)
}

func TestLoadCSVRaggedRowsArePadded(t *testing.T) {
	body := "a,b,c\n1,2\n3,4,5,6\n"
	tab := load(t, body, "r.csv", DefaultOptions())
	assert.Equal(t, 3, tab.Width())
	c := col(t, tab, "c")
	assert.True(t, c.IsMissing(0))
	assert.Equal(t, 5.0, c.Nums[1])
}

func TestLoadCSVPercentAndTemporal(t *testing.T) {
	body := "Alpha,when\n12%,2024-01-01\n15.5%,2024-02-01\n,2024-03-01\n"
	tab := load(t, body, "p.csv", DefaultOptions())
	alpha := col(t, tab, "Alpha")
	assert.Equal(t, "%", alpha.Unit)
	assert.Equal(t, 15.5, alpha.Nums[1])

	when := col(t, tab, "when")
	assert.Equal(t, table.Temporal, when.Kind)
	assert.Equal(t, 2024, when.Times[2].Year())
	assert.Equal(t, "2024-02-01", when.Strs[1])
}

func TestLoadCSVBooleansAreCategorical(t *testing.T) {
	body := "flag\ntrue\nfalse\nTRUE\n"
	tab := load(t, body, "b.csv", DefaultOptions())
	assert.Equal(t, table.Categorical, col(t, tab, "flag").Kind)
}

func TestLoadCSVMaxRows(t *testing.T) {
	body := "x\n1\n2\n3\n4\n"
	opt := DefaultOptions()
	opt.MaxRows = 2
	tab := load(t, body, "x.csv", opt)
	assert.Equal(t, 2, tab.Rows())
	assert.Equal(t, 4, tab.SourceRows)
}

func TestLoadCSVEmptyAndHeaderOnly(t *testing.T) {
	tab := load(t, "", "e.csv", DefaultOptions())
	assert.Equal(t, 0, tab.Width())

	tab = load(t, "a,b\n", "h.csv", DefaultOptions())
	assert.Equal(t, 2, tab.Width())
	assert.Equal(t, 0, tab.Rows())
}

func TestLoadCSVDuplicateAndBlankHeaders(t *testing.T) {
	tab := load(t, "a,a,\n1,2,3\n", "d.csv", DefaultOptions())
	assert.Equal(t, []string{"a", "a.1", "column_3"}, tab.Names())

	tab = load(t, "a.1,a,a\n1,2,3\n", "d.csv", DefaultOptions())
	assert.Equal(t, []string{"a.1", "a", "a.2"}, tab.Names())
	assert.Equal(t, 1.0, col(t, tab, "a.1").Nums[0])
	assert.Equal(t, 3.0, col(t, tab, "a.2").Nums[0])

	tab = load(t, "a,a,a.1\n1,2,3\n", "d.csv", DefaultOptions())
	assert.Equal(t, []string{"a", "a.2", "a.1"}, tab.Names())
}

func TestLoadCSVFileTSVAndBOM(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "data.tsv")
	require.NoError(t, os.WriteFile(p, []byte("\ufeffx\ty\n1\t2\n3\t4\n"), 0o644))
	tab, err := LoadFile(p, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "data.tsv", tab.Name)
	assert.Equal(t, []string{"x", "y"}, tab.Names())
	assert.Equal(t, []float64{2, 4}, col(t, tab, "y").Nums)
}

func TestLoadFileUnsupported(t *testing.T) {
	_, err := LoadFile("report.json", DefaultOptions())
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestFromRecordsAllMissingColumnIsNumeric(t *testing.T) {
	tab := FromRecords("t", []string{"empty"}, [][]string{{""}, {"NA"}}, DefaultOptions())
	c := col(t, tab, "empty")
	assert.Equal(t, table.Numeric, c.Kind)
	assert.Equal(t, 2, c.MissingCount())
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		opt  Options
		want float64
		ok   bool
	}{
		{"1.5", Options{}, 1.5, true},
		{"1,5", Options{}, 1.5, true},
		{"1.000,5", Options{}, 1000.5, true},
		{"1,000.5", Options{}, 1000.5, true},
		{"3e4", Options{}, 30000, true},
		{"12%", Options{}, 12, true},
		{"1 234", Options{}, 1234, true},
		{"1.234", Options{DecimalSeparator: ',', ThousandsSeparator: '.'}, 1234, true},
		{"inf", Options{}, 0, false},
		{"abc", Options{}, 0, false},
		{"2024-01-01", Options{}, 0, false},
	}
	for _, tc := range cases {
		got, ok := parseNumeric(tc.in, tc.opt)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, tc.in)
		}
	}
}

func TestSplitUnits(t *testing.T) {
	cases := map[string][2]string{
		"Alpha (%)":    {"Alpha", "%"},
		"Mass [mg/L]":  {"Mass", "mg/L"},
		"Temp_°F":      {"Temp", "°F"},
		"Conc ug/L":    {"Conc", "ug/L"},
		"Plain":        {"Plain", ""},
		"  Spaced  ":   {"Spaced", ""},
		"Sugar - Brix": {"Sugar", "Brix"},
		"Age (years)":  {"Age (years)", ""},
		"Cabin [deck]": {"Cabin [deck]", ""},
	}
	for in, want := range cases {
		clean, unit := splitUnits(in)
		assert.Equal(t, want[0], clean, in)
		assert.Equal(t, want[1], unit, in)
	}
}
