package queryir

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/roach88/sieve/internal/ir"
)

// TranslateError reports a constraint that has no predicate form.
type TranslateError struct {
	Selector   string
	Comparison ir.Comparison
	Message    string
}

func (e *TranslateError) Error() string {
	return fmt.Sprintf("%s%s: %s", e.Selector, e.Comparison.Sign(), e.Message)
}

// Translator converts a filter tree into a Predicate. It is the reference
// ir.Visitor for relational backends.
//
// Mapping:
//
//	a==v        Compare{a = v}      a==null   IsNull{a}
//	a!=v        Compare{a <> v}     a!=null   Not{IsNull{a}}
//	a==x*y      Like (WildcardEquality only)
//	a=in=[..]   In                  a=out=[..] Not{In}
//	a=within=g  Spatial{within}     a=intersects=g Spatial{intersects}
//	a=near=[g,d] Near
//	l,r  And    l;r  Or    l.r  Not{And}    l:r  Not{Or}
type Translator struct {
	Config ir.Config
}

// Translate converts a tree into a predicate under cfg.
func Translate(root ir.Node, cfg ir.Config) (Predicate, error) {
	return ir.Start[Predicate](Translator{Config: cfg}, root)
}

// VisitOperation combines both translated children. Nested conjunctions and
// disjunctions are flattened.
func (t Translator) VisitOperation(n *ir.OperationNode) (Predicate, error) {
	left, err := ir.Visit[Predicate](t, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ir.Visit[Predicate](t, n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case ir.And:
		return And{Predicates: flattenAnd(left, right)}, nil
	case ir.Or:
		return Or{Predicates: flattenOr(left, right)}, nil
	case ir.Nand:
		return Not{Predicate: And{Predicates: flattenAnd(left, right)}}, nil
	case ir.Nor:
		return Not{Predicate: Or{Predicates: flattenOr(left, right)}}, nil
	default:
		return nil, fmt.Errorf("operator %s cannot appear in a tree", n.Operator)
	}
}

func flattenAnd(ps ...Predicate) []Predicate {
	var out []Predicate
	for _, p := range ps {
		if and, ok := p.(And); ok {
			out = append(out, and.Predicates...)
			continue
		}
		out = append(out, p)
	}
	return out
}

func flattenOr(ps ...Predicate) []Predicate {
	var out []Predicate
	for _, p := range ps {
		if or, ok := p.(Or); ok {
			out = append(out, or.Predicates...)
			continue
		}
		out = append(out, p)
	}
	return out
}

// VisitConstraint translates one leaf.
func (t Translator) VisitConstraint(n *ir.ConstraintNode) (Predicate, error) {
	field := t.Config.Field(n.Selector)
	fail := func(format string, args ...any) (Predicate, error) {
		return nil, &TranslateError{
			Selector:   n.Selector,
			Comparison: n.Comparison,
			Message:    fmt.Sprintf(format, args...),
		}
	}

	switch n.Comparison {
	case ir.Equal, ir.NotEqual:
		lit, ok := n.Argument.(ir.Literal)
		if !ok {
			return fail("expects a single value")
		}
		var p Predicate
		switch {
		case lit.Kind() == ir.KindNull:
			p = IsNull{Field: field}
		case t.Config.IsWildcard(n.Constraint):
			p = Like{Field: field, Pattern: string(lit.(ir.String))}
		default:
			p = Compare{Field: field, Op: OpEq, Value: lit}
		}
		if n.Comparison == ir.NotEqual {
			if cmp, ok := p.(Compare); ok {
				cmp.Op = OpNe
				return cmp, nil
			}
			return Not{Predicate: p}, nil
		}
		return p, nil

	case ir.GreaterThan, ir.GreaterOrEqual, ir.LessThan, ir.LessOrEqual:
		lit, ok := n.Argument.(ir.Literal)
		if !ok {
			return fail("expects a single value")
		}
		if lit.Kind() == ir.KindNull || lit.Kind() == ir.KindBool {
			return fail("%s values are not ordered", lit.Kind())
		}
		return Compare{Field: field, Op: orderOps[n.Comparison], Value: lit}, nil

	case ir.In, ir.NotIn:
		values := ir.Literals(n.Argument)
		if len(values) == 0 {
			return fail("expects at least one value")
		}
		var p Predicate = In{Field: field, Values: values}
		if n.Comparison == ir.NotIn {
			p = Not{Predicate: p}
		}
		return p, nil

	case ir.Within, ir.Intersects:
		text, ok := n.Argument.(ir.String)
		if !ok {
			return fail("expects a WKT geometry string")
		}
		geom, err := ParseGeometry(string(text))
		if err != nil {
			return fail("%v", err)
		}
		rel := RelWithin
		if n.Comparison == ir.Intersects {
			rel = RelIntersects
		}
		return Spatial{Field: field, Relation: rel, Geometry: geom, WKT: string(text)}, nil

	case ir.Near:
		list, ok := n.Argument.(ir.List)
		if !ok || len(list) != 2 {
			return fail("expects [point,distance]")
		}
		text, ok := list[0].(ir.String)
		if !ok {
			return fail("expects a WKT point as first value")
		}
		geom, err := ParseGeometry(string(text))
		if err != nil {
			return fail("%v", err)
		}
		point, ok := geom.(orb.Point)
		if !ok {
			return fail("expects a POINT, got %s", geom.GeoJSONType())
		}
		dist, ok := Number(list[1])
		if !ok || dist < 0 {
			return fail("expects a non-negative distance")
		}
		return Near{Field: field, Point: point, Distance: dist}, nil

	default:
		return fail("unsupported comparison")
	}
}

var orderOps = map[ir.Comparison]CompareOp{
	ir.GreaterThan:    OpGt,
	ir.GreaterOrEqual: OpGe,
	ir.LessThan:       OpLt,
	ir.LessOrEqual:    OpLe,
}

// Number widens a numeric literal to float64.
func Number(lit ir.Literal) (float64, bool) {
	switch v := lit.(type) {
	case ir.Int32:
		return float64(v), true
	case ir.Int64:
		return float64(v), true
	case ir.Float32:
		return float64(v), true
	case ir.Float64:
		return float64(v), true
	default:
		return 0, false
	}
}
