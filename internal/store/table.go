package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/querysql"
)

// CreateTable creates a record table with an id column and the given
// columns. Columns are untyped; SQLite keeps each value's storage class.
// Existing tables are left as they are.
func (s *Store) CreateTable(ctx context.Context, table string, columns ...string) error {
	if err := ir.ValidatePath(table); err != nil || strings.Contains(table, ".") {
		return fmt.Errorf("create table: invalid table name %q", table)
	}
	defs := []string{"id TEXT PRIMARY KEY"}
	for _, c := range columns {
		if c == "id" {
			continue
		}
		defs = append(defs, quote(c))
	}
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// Insert writes a record under id, replacing any previous record with the
// same id. Nested maps are flattened to dotted columns and missing columns
// are added to the table.
func (s *Store) Insert(ctx context.Context, table, id string, record map[string]any) error {
	flat := make(map[string]any)
	if err := flatten("", record, flat); err != nil {
		return fmt.Errorf("insert %s/%s: %w", table, id, err)
	}
	delete(flat, "id")

	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)

	if err := s.ensureColumns(ctx, table, names); err != nil {
		return fmt.Errorf("insert %s/%s: %w", table, id, err)
	}

	cols := []string{"id"}
	marks := []string{"?"}
	args := []any{id}
	for _, name := range names {
		cols = append(cols, quote(name))
		marks = append(marks, "?")
		args = append(args, flat[name])
	}
	stmt := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert %s/%s: %w", table, id, err)
	}

	slog.Debug("record written", "table", table, "id", id, "columns", len(names))
	return nil
}

// ensureColumns adds any of names that the table does not have yet.
func (s *Store) ensureColumns(ctx context.Context, table string, names []string) error {
	existing, err := s.Columns(ctx, table)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return fmt.Errorf("table %s does not exist", table)
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c] = true
	}
	for _, name := range names {
		if have[name] {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quote(table), quote(name))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", name, err)
		}
	}
	return nil
}

// Columns returns the column names of a table in declaration order, or an
// empty slice if the table does not exist.
func (s *Store) Columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quote(table)))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info: %w", err)
	}
	if cols == nil {
		cols = []string{}
	}
	return cols, nil
}

// flatten copies record into out, joining nested keys with dots and
// converting values to their column form.
func flatten(prefix string, record map[string]any, out map[string]any) error {
	for k, v := range record {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			if err := flatten(key, nested, out); err != nil {
				return err
			}
			continue
		}
		col, err := columnValue(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		out[key] = col
	}
	return nil
}

// columnValue converts a record value to a driver value following the
// package's value encoding.
func columnValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case float32:
		return float64(val), nil
	case time.Time:
		return querysql.FormatTime(val), nil
	case uuid.UUID:
		return val.String(), nil
	case orb.Geometry:
		return wkt.MarshalString(val), nil
	case ir.Literal:
		return querysql.LiteralParam(val)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// quote double-quotes an identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
