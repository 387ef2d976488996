package queryir

import (
	"github.com/paulmach/orb"

	"github.com/roach88/sieve/internal/ir"
)

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
// Predicates are produced by Translate from a filter tree and consumed by
// the SQL compiler.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select represents a basic table access query with filtering.
//
// Semantics:
//
//	SELECT <bindings> FROM <from> WHERE <filter> ORDER BY id LIMIT <limit>
//
// Example:
//
//	Select{
//	  From:     "people",
//	  Filter:   &Compare{Field: "age", Op: OpGe, Value: ir.Int32(18)},
//	  Bindings: map[string]string{"name": "name"},
//	}
//
// Translates to SQL:
//
//	SELECT name FROM people WHERE age >= ? ORDER BY id COLLATE BINARY ASC
type Select struct {
	From     string            // Table/source name
	Filter   Predicate         // WHERE conditions (nil = no filter)
	Bindings map[string]string // source_field → output name (empty = all columns)
	Limit    int               // 0 = unlimited
}

func (Select) queryNode() {}

// CompareOp is a scalar comparison operator.
type CompareOp uint8

const (
	OpEq CompareOp = iota + 1
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe
)

var compareSymbols = [...]string{
	OpEq: "=",
	OpNe: "<>",
	OpGt: ">",
	OpGe: ">=",
	OpLt: "<",
	OpLe: "<=",
}

// Symbol returns the SQL operator symbol.
func (op CompareOp) Symbol() string {
	if op < OpEq || op > OpLe {
		return ""
	}
	return compareSymbols[op]
}

// Compare represents a field-versus-literal scalar comparison.
//
// Semantics:
//
//	<field> <op> <value>
//
// Value is never Null: equality against null translates to IsNull.
type Compare struct {
	Field string
	Op    CompareOp
	Value ir.Literal
}

func (Compare) predicateNode() {}

// In represents set membership: the field equals one of Values.
type In struct {
	Field  string
	Values []ir.Literal
}

func (In) predicateNode() {}

// Like represents a wildcard match. Pattern uses '*' for any run of
// characters; backends translate it to their own syntax.
type Like struct {
	Field   string
	Pattern string
}

func (Like) predicateNode() {}

// IsNull is true when the field is absent or null.
type IsNull struct {
	Field string
}

func (IsNull) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates (at least one must be true).
// An empty Or is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Relation is a spatial relationship between a field geometry and a fixed
// geometry.
type Relation uint8

const (
	RelWithin Relation = iota + 1
	RelIntersects
)

func (r Relation) String() string {
	switch r {
	case RelWithin:
		return "within"
	case RelIntersects:
		return "intersects"
	default:
		return "relation(?)"
	}
}

// Spatial tests a field geometry against Geometry. WKT is the source text
// the geometry was parsed from.
type Spatial struct {
	Field    string
	Relation Relation
	Geometry orb.Geometry
	WKT      string
}

func (Spatial) predicateNode() {}

// Near is true when the field geometry lies within Distance of Point.
// Distance is in the units of the coordinate system.
type Near struct {
	Field    string
	Point    orb.Point
	Distance float64
}

func (Near) predicateNode() {}
