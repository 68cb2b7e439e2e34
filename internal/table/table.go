package table

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Kind is the semantic type of a column, fixed when the table is loaded.
type Kind int

const (
	Numeric Kind = iota
	Categorical
	Textual
	Temporal
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Textual:
		return "text"
	case Temporal:
		return "datetime"
	default:
		return "unknown"
	}
}

// MarshalText lets kinds appear by name in JSON reports.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ErrRagged is returned by Validate when columns disagree on row count.
var ErrRagged = errors.New("columns have different row counts")

// Column is a named, typed sequence of values. Numeric columns store values in
// Nums; every other kind stores the raw text in Strs. Temporal columns also
// carry the parsed instant in Times. Missing[i] marks an absent entry; the
// value slot at i is then meaningless.
type Column struct {
	Name    string
	Kind    Kind
	Unit    string
	Nums    []float64
	Strs    []string
	Times   []time.Time
	Missing []bool
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch {
	case c.Kind == Numeric:
		return len(c.Nums)
	default:
		return len(c.Strs)
	}
}

// IsMissing reports whether row i is absent.
func (c *Column) IsMissing(i int) bool {
	if i < len(c.Missing) && c.Missing[i] {
		return true
	}
	return c.Kind == Numeric && math.IsNaN(c.Nums[i])
}

// MissingCount counts absent entries.
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Present returns the non-missing numeric values in row order.
// It returns nil for non-numeric columns.
func (c *Column) Present() []float64 {
	if c.Kind != Numeric {
		return nil
	}
	out := make([]float64, 0, len(c.Nums))
	for i, v := range c.Nums {
		if c.IsMissing(i) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Table is an in-memory rectangular dataset. Callers treat it as read-only once
// built; the profiler never writes to it.
type Table struct {
	Name    string
	Columns []*Column
	// Coerced counts values a loader could not parse and recorded as missing, by column name.
	Coerced map[string]int
	// SourceRows is the row count seen in the source when a loader stopped early; 0 if unknown.
	SourceRows int
}

// New assembles a table from columns.
func New(name string, cols ...*Column) *Table {
	return &Table{Name: name, Columns: cols}
}

// NewNumeric builds a numeric column. NaN entries are treated as missing.
func NewNumeric(name string, vals ...float64) *Column {
	nums := make([]float64, len(vals))
	miss := make([]bool, len(vals))
	for i, v := range vals {
		nums[i] = v
		miss[i] = math.IsNaN(v)
	}
	return &Column{Name: name, Kind: Numeric, Nums: nums, Missing: miss}
}

// NewStrings builds a non-numeric column of the given kind. Empty strings are missing.
func NewStrings(name string, kind Kind, vals ...string) *Column {
	strs := make([]string, len(vals))
	miss := make([]bool, len(vals))
	for i, v := range vals {
		strs[i] = v
		miss[i] = v == ""
	}
	return &Column{Name: name, Kind: kind, Strs: strs, Missing: miss}
}

// Rows returns the row count, taken from the first column.
func (t *Table) Rows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Width returns the column count.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Names returns column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumericColumns returns the numeric columns in table order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind == Numeric {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks that every column has the same length and a missing mask to match.
func (t *Table) Validate() error {
	n := t.Rows()
	for _, c := range t.Columns {
		if c.Len() != n {
			return fmt.Errorf("column %q has %d rows, want %d: %w", c.Name, c.Len(), n, ErrRagged)
		}
		if c.Missing != nil && len(c.Missing) != n {
			return fmt.Errorf("column %q missing mask has %d entries, want %d: %w", c.Name, len(c.Missing), n, ErrRagged)
		}
		if c.Kind == Temporal && c.Times != nil && len(c.Times) != n {
			return fmt.Errorf("column %q has %d timestamps, want %d: %w", c.Name, len(c.Times), n, ErrRagged)
		}
	}
	return nil
}
