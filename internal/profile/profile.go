package profile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/tabsight-cli/internal/insight"
	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

var (
	// ErrEmptyTable is returned when the table has no columns.
	ErrEmptyTable = errors.New("table has no columns")
	// ErrRaggedTable is returned when columns disagree on row count.
	ErrRaggedTable = errors.New("table is not rectangular")
	// ErrUnknownColumn is returned when a group-by column does not exist.
	ErrUnknownColumn = errors.New("unknown column")
)

// NoneSentinel is reported in place of an empty missing-column list.
const NoneSentinel = "none"

// Options controls which optional sections are computed.
type Options struct {
	// TopK limits ranked correlation pairs; 0 keeps all.
	TopK int
	// MinAbsCorr drops pairs whose |r| is below this value.
	MinAbsCorr float64
	// GroupBy computes per-group numeric summaries for these columns.
	GroupBy []string
	// Outliers enables robust MAD z-score counts in addition to IQR fences.
	Outliers         bool
	OutlierThreshold float64
	// Bins is the histogram bin count per numeric column.
	Bins int
	// TopValues limits the frequent values listed per categorical column.
	TopValues int
	// Rules overrides the insight rule table; nil uses insight.DefaultRules.
	Rules []insight.Rule
}

// DefaultOptions mirrors the dashboard defaults: two top pairs, 30 histogram bins.
func DefaultOptions() Options {
	return Options{
		TopK:             2,
		Outliers:         true,
		OutlierThreshold: 3.5,
		Bins:             30,
		TopValues:        5,
	}
}

// ColumnKind pairs a column name with its semantic type.
type ColumnKind struct {
	Name string     `json:"name"`
	Kind table.Kind `json:"kind"`
	Unit string     `json:"unit,omitempty"`
}

// Summary is the read-only result of one profiling pass.
type Summary struct {
	Name           string            `json:"name,omitempty"`
	Rows           int               `json:"rows"`
	Cols           int               `json:"cols"`
	Columns        []string          `json:"columns"`
	Kinds          []ColumnKind      `json:"kinds"`
	Missing        map[string]int    `json:"missing"`
	HasNumericData bool              `json:"has_numeric_data"`
	Describe       []ColumnProfile   `json:"describe,omitempty"`
	Categorical    []CategoryProfile `json:"categorical,omitempty"`
	Corr           *CorrMatrix       `json:"correlation,omitempty"`
	Pairs          []RankedPair      `json:"top_pairs,omitempty"`
	Groups         []GroupSummary    `json:"groups,omitempty"`
	Histograms     []Histogram       `json:"histograms,omitempty"`
	Insights       []insight.Insight `json:"insights"`
	Coerced        map[string]int    `json:"coerced,omitempty"`
	Notes          []string          `json:"notes,omitempty"`
}

// Profile computes the full summary for t. It performs no I/O and never writes to t,
// so distinct goroutines may profile tables concurrently.
func Profile(t *table.Table, opt Options) (*Summary, error) {
	if t == nil || len(t.Columns) == 0 {
		return nil, ErrEmptyTable
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRaggedTable, err)
	}
	if opt.Bins <= 0 {
		opt.Bins = 30
	}
	if opt.TopValues <= 0 {
		opt.TopValues = 5
	}
	if opt.OutlierThreshold <= 0 {
		opt.OutlierThreshold = 3.5
	}

	s := &Summary{
		Name:    t.Name,
		Rows:    t.Rows(),
		Cols:    t.Width(),
		Columns: t.Names(),
		Kinds:   make([]ColumnKind, 0, t.Width()),
		Missing: make(map[string]int, t.Width()),
	}
	for _, c := range t.Columns {
		s.Kinds = append(s.Kinds, ColumnKind{Name: c.Name, Kind: c.Kind, Unit: c.Unit})
		s.Missing[c.Name] = c.MissingCount()
		if c.Kind != table.Numeric {
			s.Categorical = append(s.Categorical, categorical(c, opt.TopValues))
		}
	}
	if len(t.Coerced) > 0 {
		s.Coerced = make(map[string]int, len(t.Coerced))
		for _, name := range s.Columns {
			if v, ok := t.Coerced[name]; ok {
				s.Coerced[name] = v
				s.Notes = append(s.Notes, fmt.Sprintf("%s: %d unparsable values treated as missing", name, v))
			}
		}
	}

	if t.SourceRows > s.Rows {
		s.Notes = append(s.Notes, fmt.Sprintf("processed only %d/%d rows due to MaxRows", s.Rows, t.SourceRows))
	}

	nums := t.NumericColumns()
	s.HasNumericData = len(nums) > 0
	if s.HasNumericData {
		s.Describe = make([]ColumnProfile, 0, len(nums))
		s.Histograms = make([]Histogram, 0, len(nums))
		for _, c := range nums {
			vals := c.Present()
			s.Describe = append(s.Describe, describe(c.Name, vals, opt))
			s.Histograms = append(s.Histograms, histogram(c.Name, vals, opt.Bins))
		}
		s.Corr = correlate(nums)
		s.Pairs = s.Corr.Ranked(opt.TopK, opt.MinAbsCorr)
	} else {
		s.Notes = append(s.Notes, "no numeric columns; numeric sections skipped")
	}

	if len(opt.GroupBy) > 0 {
		groups, err := groupRates(t, opt.GroupBy)
		if err != nil {
			return nil, err
		}
		s.Groups = groups
	}

	rules := opt.Rules
	if rules == nil {
		rules = insight.DefaultRules
	}
	s.Insights = insight.Evaluate(rules, s.facts())
	return s, nil
}

func (s *Summary) facts() insight.Facts {
	f := insight.Facts{TotalMissing: s.TotalMissing()}
	for _, d := range s.Describe {
		f.Means = append(f.Means, insight.Mean{Column: d.Name, Value: d.Mean})
	}
	for _, p := range s.Pairs {
		f.TopPairs = append(f.TopPairs, insight.Pair{A: p.A, B: p.B, R: p.R})
	}
	return f
}

// TotalMissing sums missing entries across every column.
func (s *Summary) TotalMissing() int {
	n := 0
	for _, v := range s.Missing {
		n += v
	}
	return n
}

// MissingColumns lists columns with at least one missing entry, in table order.
func (s *Summary) MissingColumns() []string {
	var out []string
	for _, name := range s.Columns {
		if s.Missing[name] > 0 {
			out = append(out, name)
		}
	}
	return out
}

// MissingList is MissingColumns with the "none" sentinel when nothing is missing.
func (s *Summary) MissingList() []string {
	if cols := s.MissingColumns(); len(cols) > 0 {
		return cols
	}
	return []string{NoneSentinel}
}

// MissingCount is one entry of MissingSorted.
type MissingCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// MissingSorted returns columns with missing entries, largest count first.
func (s *Summary) MissingSorted() []MissingCount {
	var out []MissingCount
	for _, name := range s.MissingColumns() {
		out = append(out, MissingCount{Column: name, Count: s.Missing[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ColumnProfileFor returns the describe row for a numeric column.
func (s *Summary) ColumnProfileFor(name string) (ColumnProfile, bool) {
	for _, d := range s.Describe {
		if d.Name == name {
			return d, true
		}
	}
	return ColumnProfile{}, false
}
