package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// Record is one row of a record table. Fields are keyed by column name and
// exclude the id.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// FindOptions narrows a Find.
type FindOptions struct {
	Config ir.Config
	Limit  int // 0 = unlimited
}

// Find returns the records of table matching the filter tree, ordered by
// id. A nil root matches every record.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Find(ctx context.Context, table string, root ir.Node, opts FindOptions) ([]Record, error) {
	sqlText, params, err := s.Compile(table, root, opts)
	if err != nil {
		return nil, err
	}

	slog.Debug("store query", "table", table, "sql", sqlText, "params", len(params))

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", table, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", table, err)
	}
	return records, nil
}

// Compile returns the SQL and parameters Find would run.
func (s *Store) Compile(table string, root ir.Node, opts FindOptions) (string, []any, error) {
	sel := queryir.Select{From: table, Limit: opts.Limit}
	if root != nil {
		if err := compiler.Check(root, ir.Selectors{}); err != nil {
			return "", nil, fmt.Errorf("invalid filter: %w", err)
		}
		pred, err := queryir.Translate(root, opts.Config)
		if err != nil {
			return "", nil, fmt.Errorf("translate filter: %w", err)
		}
		sel.Filter = pred
	}
	sqlText, params, err := s.compiler.Compile(sel)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return sqlText, params, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	records := []Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		rec := Record{Fields: make(map[string]any, len(cols)-1)}
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			if col == "id" {
				rec.ID = fmt.Sprint(v)
				continue
			}
			if v != nil {
				rec.Fields[col] = v
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return records, nil
}
