package loader

import (
	"context"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"

	"github.com/KaramelBytes/tabsight-cli/internal/table"
)

// OpenSQL connects to a Postgres DSN through the pgx stdlib driver.
func OpenSQL(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return db, nil
}

// LoadSQL runs query and types the result set like CSV cells. Driver values
// are rendered so numbers, times and booleans land in the matching kind.
func LoadSQL(ctx context.Context, db *sqlx.DB, name, query string, opt Options) (*table.Table, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	var records [][]string
	total := 0
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", total+1, err)
		}
		total++
		if opt.MaxRows > 0 && len(records) >= opt.MaxRows {
			continue
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = sqlCell(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// numeric strings from the driver always use '.' and no grouping
	opt.DecimalSeparator, opt.ThousandsSeparator = '.', 0
	t := FromRecords(name, header, records, opt)
	if total > len(records) {
		t.SourceRows = total
	}
	return t, nil
}

func sqlCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
