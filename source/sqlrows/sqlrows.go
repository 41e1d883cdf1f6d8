// Package sqlrows turns database/sql result sets into raw records.
package sqlrows

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	storeskema "github.com/kioskcart/storeskema"
)

// Collect reads every remaining row of rows. Column names become keys and
// NULL becomes an explicit nil. Byte slices are returned as strings and
// times as RFC3339 text. Drivers without a native boolean (sqlite) report
// BOOLEAN columns as integers; those are turned back into bools.
// Collect closes rows.
func Collect(rows *sql.Rows) ([]storeskema.RawRecord, error) {
	defer rows.Close()

	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("sqlrows: column types: %w", err)
	}
	var out []storeskema.RawRecord
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlrows: scan row %d: %w", len(out), err)
		}
		rec := make(storeskema.RawRecord, len(cols))
		for i, c := range cols {
			rec[c.Name()] = convert(vals[i], c.DatabaseTypeName())
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlrows: %w", err)
	}
	return out, nil
}

func convert(v any, dbType string) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(t)
	case time.Time:
		return storeskema.FormatTime(t)
	case int64:
		if isBool(dbType) {
			return t != 0
		}
		return t
	default:
		return v
	}
}

func isBool(dbType string) bool {
	switch strings.ToUpper(dbType) {
	case "BOOL", "BOOLEAN":
		return true
	}
	return false
}
