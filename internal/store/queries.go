package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/printer"
)

// ErrNotFound is returned when a saved query does not exist.
var ErrNotFound = errors.New("not found")

// SavedQuery is a named filter persisted in canonical form.
type SavedQuery struct {
	Name        string
	Query       string
	Fingerprint string
	Selectors   ir.Selectors
	Tree        ir.Node
}

// SaveQuery stores a filter under name, replacing any previous query with
// that name. The tree is stored in canonical printed form along with the
// allow-list needed to parse it back.
func (s *Store) SaveQuery(ctx context.Context, name string, root ir.Node, allowed ir.Selectors) error {
	if name == "" {
		return fmt.Errorf("save query: name must not be empty")
	}
	text, err := printer.Print(root)
	if err != nil {
		return fmt.Errorf("save query %s: %w", name, err)
	}
	fp, err := ir.Fingerprint(root)
	if err != nil {
		return fmt.Errorf("save query %s: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_queries (name, query, fingerprint, selectors)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			query = excluded.query,
			fingerprint = excluded.fingerprint,
			selectors = excluded.selectors
	`, name, text, fp, strings.Join(allowed.Descending(), ","))
	if err != nil {
		return fmt.Errorf("save query %s: %w", name, err)
	}
	return nil
}

// LoadQuery reads a saved query and parses it back into a tree.
func (s *Store) LoadQuery(ctx context.Context, name string) (SavedQuery, error) {
	var q SavedQuery
	var selectors string
	err := s.db.QueryRowContext(ctx, `
		SELECT name, query, fingerprint, selectors
		FROM saved_queries
		WHERE name = ?
	`, name).Scan(&q.Name, &q.Query, &q.Fingerprint, &selectors)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedQuery{}, fmt.Errorf("saved query %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return SavedQuery{}, fmt.Errorf("load query %s: %w", name, err)
	}

	var paths []string
	if selectors != "" {
		paths = strings.Split(selectors, ",")
	}
	q.Selectors, err = ir.NewSelectors(paths...)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("load query %s: %w", name, err)
	}
	q.Tree, err = compiler.Parse(q.Query, q.Selectors)
	if err != nil {
		return SavedQuery{}, fmt.Errorf("load query %s: %w", name, err)
	}
	return q, nil
}

// ListQueries returns saved query names in binary order.
func (s *Store) ListQueries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM saved_queries ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan query name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query names: %w", err)
	}
	return names, nil
}

// QueriesByFingerprint returns the names of saved queries whose tree has the
// given fingerprint.
func (s *Store) QueriesByFingerprint(ctx context.Context, fingerprint string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM saved_queries WHERE fingerprint = ? ORDER BY name COLLATE BINARY ASC
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("queries by fingerprint: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan query name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
