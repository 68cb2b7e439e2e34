// Package loader turns CSV, XLSX, URL and SQL sources into typed tables.
package loader

import "errors"

// ErrUnsupported is returned for file extensions no loader understands.
var ErrUnsupported = errors.New("unsupported file type")

// Options controls how raw cells become typed columns.
type Options struct {
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, auto-detect common separators (',' '.' space)
	// Unit normalization: convert values to target units using simple mappings.
	UnitNormalize bool
	UnitTargets   map[string]string // map[fromUnit]toUnit, e.g., {"g/L":"mg/L", "ug/L":"mg/L", "°F":"°C"}
	// CategoricalMaxUnique is the largest distinct-value count a text column
	// may have and still be treated as categorical.
	CategoricalMaxUnique int
	// XLSX sheet selection. SheetName wins; SheetIndex is 1-based and defaults to the first sheet.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for dataset loading.
func DefaultOptions() Options {
	return Options{
		MaxRows:              100000,
		UnitNormalize:        true,
		CategoricalMaxUnique: 50,
		UnitTargets: map[string]string{
			"g/L":  "mg/L",
			"ug/L": "mg/L",
			"°F":   "°C",
		},
	}
}
