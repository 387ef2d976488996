package engine

import (
	"fmt"
	"log/slog"

	"github.com/gobwas/glob"

	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// Filter is a compiled filter ready to be matched against records.
type Filter struct {
	pred     queryir.Predicate
	geodesic bool
	globs    map[string]glob.Glob // compiled wildcard patterns, read-only
}

// Option configures Compile.
type Option func(*options)

type options struct {
	config   ir.Config
	geodesic bool
}

// WithConfig applies field mapping and wildcard equality.
func WithConfig(cfg ir.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithGeodesic makes =near= measure great-circle distance in meters,
// treating coordinates as longitude/latitude.
func WithGeodesic() Option {
	return func(o *options) {
		o.geodesic = true
	}
}

// Compile prepares a tree for evaluation. Constraints that have no meaning
// (an ordering against null, malformed geometry) fail here rather than on
// every record.
func Compile(root ir.Node, opts ...Option) (*Filter, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if root != nil {
		if err := compiler.Check(root, ir.Selectors{}); err != nil {
			return nil, fmt.Errorf("compile filter: %w", err)
		}
	}
	pred, err := queryir.Translate(root, o.config)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	globs := make(map[string]glob.Glob)
	if err := collectGlobs(pred, globs); err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	return &Filter{pred: pred, geodesic: o.geodesic, globs: globs}, nil
}

// Predicate returns the translated predicate the filter evaluates.
func (f *Filter) Predicate() queryir.Predicate {
	return f.pred
}

// Match reports whether record satisfies the filter.
func (f *Filter) Match(record map[string]any) (bool, error) {
	m := matcher{record: record, geodesic: f.geodesic, globs: f.globs}
	return m.eval(f.pred)
}

// Select returns the indexes of the matching records, in input order.
// It stops at the first evaluation error.
func (f *Filter) Select(records []map[string]any) ([]int, error) {
	matched := []int{}
	for i, rec := range records {
		ok, err := f.Match(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if ok {
			matched = append(matched, i)
		}
	}
	slog.Debug("filter evaluated", "records", len(records), "matched", len(matched))
	return matched, nil
}
