// Package queryir provides an abstract query intermediate representation (IR)
// for relational backends of the filter language.
//
// QueryIR is the abstraction boundary between filter trees and backend query
// engines:
//
//	[filter tree] → Translate → [Query IR] → [SQL Backend]
//
// Translate is an ir.Visitor: it walks the tree once and produces a
// Predicate, honoring ir.Config (field mapping and wildcard equality). The
// negated operators are expressed with Not, so backends only need And, Or
// and Not:
//
//	a.b  (NAND)  → Not{And{a, b}}
//	a:b  (NOR)   → Not{Or{a, b}}
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement Query or Predicate interfaces,
// so backends can switch over them exhaustively:
//
//	switch p := pred.(type) {
//	case Compare:
//	case In:
//	case Like:
//	case IsNull:
//	case And, Or, Not:
//	case Spatial, Near:
//	}
//
// PORTABLE FRAGMENT:
//
// Validate reports features outside the portable fragment: NULL tests, null
// set members, spatial and proximity predicates, exact float equality and
// SELECT *. Such queries still compile for SQLite.
package queryir
