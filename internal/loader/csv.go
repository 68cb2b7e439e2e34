package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

// LoadCSV reads delimited text with a header row from r.
func LoadCSV(r io.Reader, name string, opt Options) (*table.Table, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name)
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &table.Table{Name: name}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var rows [][]string
	total := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", total+2, err)
		}
		total++
		if opt.MaxRows > 0 && len(rows) >= opt.MaxRows {
			continue
		}
		rows = append(rows, rec)
	}
	t := FromRecords(name, header, rows, opt)
	if total > len(rows) {
		t.SourceRows = total
	}
	return t, nil
}

// LoadCSVFile opens path and reads it with LoadCSV.
func LoadCSVFile(path string, opt Options) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return LoadCSV(f, filepath.Base(path), opt)
}

// LoadFile dispatches on the file extension.
func LoadFile(path string, opt Options) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return LoadCSVFile(path, opt)
	case ".xlsx", ".xlsm":
		return LoadXLSXFile(path, opt)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}
