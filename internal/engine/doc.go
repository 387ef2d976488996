// Package engine evaluates filter trees against in-memory records.
//
// A record is a map[string]any, typically decoded from YAML or JSON. A
// selector "a.b" first looks for the key "a.b" and then walks nested maps
// (record["a"]["b"]). Compile translates the tree once through queryir, so
// the evaluator sees the same predicates the SQL backend compiles, and the
// resulting Filter is immutable and safe for concurrent use.
//
// Evaluation rules:
//
//   - A missing or null field never equals a value; != is the negation of ==.
//   - Numbers compare numerically across Int32, Int64, Float32 and Float64.
//   - Dates and timestamps compare against time.Time values or ISO text.
//   - A list-valued field matches ==, ordering and =in= when any element does.
//   - Wildcard patterns match case-insensitively, as SQLite LIKE does.
//   - Spatial fields may be orb geometries, WKT text or [x, y] pairs.
//     Within and Intersects use planar geometry; Near uses planar distance or,
//     with WithGeodesic, great-circle distance in meters.
//
// Values of a type the evaluator does not understand fail with a
// RuntimeError rather than silently not matching.
package engine
