package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

// LoadXLSXFile reads the selected sheet of a workbook on disk.
func LoadXLSXFile(path string, opt Options) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return readWorkbook(f, filepath.Base(path), opt)
}

// LoadXLSX reads the selected sheet of a workbook from r.
func LoadXLSX(r io.Reader, name string, opt Options) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return readWorkbook(f, name, opt)
}

func readWorkbook(f *excelize.File, name string, opt Options) (*table.Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &table.Table{Name: name}, nil
	}
	sheet := ""
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.SheetName, name, strings.Join(sheets, ", "))
		}
	} else {
		idx := opt.SheetIndex
		if idx <= 0 {
			idx = 1
		}
		if idx > len(sheets) {
			return nil, fmt.Errorf("sheet index %d out of range; workbook '%s' has %d sheets", idx, name, len(sheets))
		}
		sheet = sheets[idx-1]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &table.Table{Name: name}, nil
	}
	body := rows[1:]
	total := len(body)
	if opt.MaxRows > 0 && total > opt.MaxRows {
		body = body[:opt.MaxRows]
	}
	t := FromRecords(name, rows[0], body, opt)
	if total > len(body) {
		t.SourceRows = total
	}
	return t, nil
}
