// Package store runs filter queries against SQLite tables.
//
// Records are flat rows keyed by a TEXT id. Nested record fields are stored
// in columns named by their dotted path ("address.city"), so a selector maps
// to a column without any FieldMapping. Find translates a filter tree with
// queryir, compiles it with querysql and scans the matching rows.
//
// # Value encoding
//
//   - integers as INTEGER, floats as REAL, booleans as 0/1
//   - strings, UUIDs and dates (YYYY-MM-DD) as TEXT
//   - timestamps as TEXT in querysql.TimestampLayout (UTC, fixed width)
//   - orb geometries as WKT TEXT
//
// Every query is ordered by id COLLATE BINARY ASC so results are stable.
//
// # Database configuration
//
// File databases run in WAL mode. ":memory:" databases keep SQLite's memory
// journal, and every store holds a single connection so all statements see
// the same in-memory database. Both get synchronous=NORMAL, a 5 second
// busy_timeout and foreign_keys=ON.
//
// PRAGMA user_version tracks the bookkeeping schema. Open applies pending
// migrations and refuses databases written by a newer release.
//
// Saved queries are kept in the saved_queries table in canonical printed
// form together with their tree fingerprint.
package store
