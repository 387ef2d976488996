package queryir

import (
	"fmt"

	"github.com/roach88/sieve/internal/ir"
)

// ValidationResult contains portability analysis of a query.
//
// The portable fragment is the subset of QueryIR that every relational
// backend evaluates the same way. Queries outside this fragment still
// compile for SQLite but may behave differently elsewhere.
type ValidationResult struct {
	// IsPortable indicates if the query uses only portable fragment features.
	IsPortable bool

	// Warnings lists non-portable features used in the query, in tree order.
	// Empty when IsPortable is true.
	Warnings []string
}

// Validate checks a query against the portable fragment: every rule of
// ValidatePredicate on the filter, plus explicit bindings (no SELECT *).
//
// Non-portable queries are allowed and will execute correctly with the
// SQL backend. Warnings are returned to inform developers.
func Validate(query Query) ValidationResult {
	var warnings []string
	switch q := query.(type) {
	case nil:
		warnings = append(warnings, "nil query - portable fragment requires valid query nodes")
	case Select:
		warnings = validateSelect(q)
	case *Select:
		warnings = validateSelect(*q)
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown query type: %T - portability cannot be verified", query))
	}
	return result(warnings)
}

func validateSelect(sel Select) []string {
	var warnings []string
	if len(sel.Bindings) == 0 {
		warnings = append(warnings, "Empty bindings (SELECT *) - portable fragment requires explicit field selection")
	}
	return walkRules(sel.Filter, warnings)
}

// ValidatePredicate runs the portability rules on a bare filter:
//  1. No NULL tests or null set members - null semantics differ between backends
//  2. No spatial or proximity predicates - they need a spatial extension
//  3. No exact equality on floating point values
//
// A nil predicate is portable.
func ValidatePredicate(p Predicate) ValidationResult {
	return result(walkRules(p, nil))
}

func result(warnings []string) ValidationResult {
	if warnings == nil {
		warnings = []string{}
	}
	return ValidationResult{IsPortable: len(warnings) == 0, Warnings: warnings}
}

// portabilityRule inspects one predicate node and returns a warning, or ""
// when the node is portable. Rules do not recurse.
type portabilityRule func(Predicate) string

var portabilityRules = []portabilityRule{
	nullTest,
	nullMember,
	spatialExtension,
	floatEquality,
	knownPredicate,
}

// walkRules applies every rule to p and its descendants, depth first.
func walkRules(p Predicate, warnings []string) []string {
	if p == nil {
		return warnings
	}
	for _, rule := range portabilityRules {
		if w := rule(p); w != "" {
			warnings = append(warnings, w)
		}
	}
	switch pred := p.(type) {
	case And:
		for _, sub := range pred.Predicates {
			warnings = walkRules(sub, warnings)
		}
	case Or:
		for _, sub := range pred.Predicates {
			warnings = walkRules(sub, warnings)
		}
	case Not:
		warnings = walkRules(pred.Predicate, warnings)
	}
	return warnings
}

func nullTest(p Predicate) string {
	if n, ok := p.(IsNull); ok {
		return fmt.Sprintf("Field '%s' tested for NULL - null semantics are backend-specific", n.Field)
	}
	return ""
}

func nullMember(p Predicate) string {
	in, ok := p.(In)
	if !ok {
		return ""
	}
	for _, v := range in.Values {
		if v.Kind() == ir.KindNull {
			return fmt.Sprintf("Field '%s' set contains null - null membership is backend-specific", in.Field)
		}
	}
	return ""
}

func spatialExtension(p Predicate) string {
	switch pred := p.(type) {
	case Spatial:
		return fmt.Sprintf("Field '%s' uses spatial relation %s - requires a spatial extension", pred.Field, pred.Relation)
	case Near:
		return fmt.Sprintf("Field '%s' uses proximity search - requires a spatial extension", pred.Field)
	}
	return ""
}

func floatEquality(p Predicate) string {
	cmp, ok := p.(Compare)
	if !ok || (cmp.Op != OpEq && cmp.Op != OpNe) {
		return ""
	}
	switch cmp.Value.(type) {
	case ir.Float32, ir.Float64:
		return fmt.Sprintf("Field '%s' compared for exact equality with a floating point value", cmp.Field)
	}
	return ""
}

func knownPredicate(p Predicate) string {
	switch p.(type) {
	case Compare, In, Like, IsNull, Spatial, Near, And, Or, Not:
		return ""
	}
	return fmt.Sprintf("Unknown predicate type: %T - portability cannot be verified", p)
}
