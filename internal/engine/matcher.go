package engine

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/roach88/sieve/internal/queryir"
)

// matcher evaluates a predicate against one record.
type matcher struct {
	record   map[string]any
	geodesic bool
	globs    map[string]glob.Glob
}

func (m matcher) eval(p queryir.Predicate) (bool, error) {
	switch pred := p.(type) {
	case nil:
		return true, nil
	case queryir.And:
		for _, sub := range pred.Predicates {
			ok, err := m.eval(sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case queryir.Or:
		for _, sub := range pred.Predicates {
			ok, err := m.eval(sub)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case queryir.Not:
		ok, err := m.eval(pred.Predicate)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case queryir.IsNull:
		v, found := lookup(m.record, pred.Field)
		return !found || v == nil, nil
	case queryir.Compare:
		return m.compare(pred)
	case queryir.In:
		return m.in(pred)
	case queryir.Like:
		return m.like(pred)
	case queryir.Spatial:
		return m.spatial(pred)
	case queryir.Near:
		return m.near(pred)
	default:
		return false, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// lookup finds a field by exact key first, then by walking nested maps
// along the dotted path.
func lookup(record map[string]any, path string) (any, bool) {
	if v, ok := record[path]; ok {
		return v, true
	}
	for i := 0; i < len(path); i++ {
		if path[i] != '.' {
			continue
		}
		nested, ok := record[path[:i]].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := lookup(nested, path[i+1:]); ok {
			return v, true
		}
	}
	return nil, false
}

// value looks up and normalizes a field. A missing field is nil.
func (m matcher) value(field string) (any, error) {
	raw, _ := lookup(m.record, field)
	v, ok := native(raw)
	if !ok {
		return nil, unsupportedValue(field, raw)
	}
	return v, nil
}

// elements returns the members of a list-valued field, or the value itself.
func elements(field string, v any) ([]any, error) {
	list, ok := v.([]any)
	if !ok {
		return []any{v}, nil
	}
	out := make([]any, len(list))
	for i, e := range list {
		n, ok := native(e)
		if !ok {
			return nil, unsupportedValue(fmt.Sprintf("%s[%d]", field, i), e)
		}
		out[i] = n
	}
	return out, nil
}

func (m matcher) compare(pred queryir.Compare) (bool, error) {
	v, err := m.value(pred.Field)
	if err != nil {
		return false, err
	}
	if pred.Op == queryir.OpNe {
		eq, err := m.compare(queryir.Compare{Field: pred.Field, Op: queryir.OpEq, Value: pred.Value})
		return !eq, err
	}
	elems, err := elements(pred.Field, v)
	if err != nil {
		return false, err
	}
	for _, e := range elems {
		c, comparable := compareValue(e, pred.Value)
		if !comparable {
			continue
		}
		if holds(pred.Op, c) {
			return true, nil
		}
	}
	return false, nil
}

func holds(op queryir.CompareOp, c int) bool {
	switch op {
	case queryir.OpEq:
		return c == 0
	case queryir.OpNe:
		return c != 0
	case queryir.OpGt:
		return c > 0
	case queryir.OpGe:
		return c >= 0
	case queryir.OpLt:
		return c < 0
	case queryir.OpLe:
		return c <= 0
	default:
		return false
	}
}

func (m matcher) in(pred queryir.In) (bool, error) {
	v, err := m.value(pred.Field)
	if err != nil {
		return false, err
	}
	elems, err := elements(pred.Field, v)
	if err != nil {
		return false, err
	}
	for _, e := range elems {
		for _, lit := range pred.Values {
			if e == nil {
				if literalValue(lit) == nil {
					return true, nil
				}
				continue
			}
			if c, ok := compareValue(e, lit); ok && c == 0 {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m matcher) like(pred queryir.Like) (bool, error) {
	g, ok := m.globs[pred.Pattern]
	if !ok {
		var err error
		if g, err = compileGlob(pred.Pattern); err != nil {
			return false, err
		}
	}
	v, err := m.value(pred.Field)
	if err != nil {
		return false, err
	}
	elems, err := elements(pred.Field, v)
	if err != nil {
		return false, err
	}
	for _, e := range elems {
		if s, ok := e.(string); ok && g.Match(strings.ToLower(s)) {
			return true, nil
		}
	}
	return false, nil
}

// compileGlob turns a '*' wildcard pattern into a case-folded glob. Every
// other glob metacharacter is matched literally.
func compileGlob(pattern string) (glob.Glob, error) {
	quoted := glob.QuoteMeta(strings.ToLower(pattern))
	quoted = strings.ReplaceAll(quoted, `\*`, `*`)
	g, err := glob.Compile(quoted)
	if err != nil {
		return nil, fmt.Errorf("wildcard %q: %w", pattern, err)
	}
	return g, nil
}

// collectGlobs compiles every wildcard pattern in a predicate.
func collectGlobs(p queryir.Predicate, out map[string]glob.Glob) error {
	switch pred := p.(type) {
	case queryir.Like:
		if _, ok := out[pred.Pattern]; ok {
			return nil
		}
		g, err := compileGlob(pred.Pattern)
		if err != nil {
			return err
		}
		out[pred.Pattern] = g
	case queryir.And:
		for _, sub := range pred.Predicates {
			if err := collectGlobs(sub, out); err != nil {
				return err
			}
		}
	case queryir.Or:
		for _, sub := range pred.Predicates {
			if err := collectGlobs(sub, out); err != nil {
				return err
			}
		}
	case queryir.Not:
		return collectGlobs(pred.Predicate, out)
	}
	return nil
}
