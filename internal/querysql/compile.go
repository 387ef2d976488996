package querysql

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// TimestampLayout is the text form timestamps are bound and stored in. It is
// fixed width and always UTC so that text comparison orders instants.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// All queries include ORDER BY for deterministic results, and all values are
// parameterized (never interpolated).
type SQLCompiler struct {
	// Spatial enables SpatiaLite functions for Spatial and Near predicates.
	// Geometry columns are expected to hold WKT text.
	Spatial bool
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// compileSelect compiles a queryir.Select to SQL.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if q.From == "" {
		return "", nil, fmt.Errorf("select requires a source table")
	}
	selectClause := c.compileBindings(q.Bindings)

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.CompilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	orderByClause := " ORDER BY " + c.stableOrderKey(q)

	var limitClause string
	if q.Limit > 0 {
		limitClause = " LIMIT ?"
		params = append(params, q.Limit)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s%s",
		selectClause,
		quoteIdentifier(q.From),
		whereClause,
		orderByClause,
		limitClause)

	return sql, params, nil
}

// compileBindings converts bindings map to SELECT column list.
// Example: {"item_id": "itemId"} → "item_id AS itemId"
// Keys are sorted for deterministic output.
func (c *SQLCompiler) compileBindings(bindings map[string]string) string {
	if len(bindings) == 0 {
		return "*"
	}

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, sourceField := range keys {
		alias := bindings[sourceField]
		if sourceField == alias {
			parts = append(parts, quoteIdentifier(sourceField))
		} else {
			parts = append(parts, fmt.Sprintf("%s AS %s", quoteIdentifier(sourceField), quoteIdentifier(alias)))
		}
	}

	return strings.Join(parts, ", ")
}

// stableOrderKey returns the ORDER BY clause for a query.
// COLLATE BINARY ensures deterministic text ordering across SQLite versions.
func (c *SQLCompiler) stableOrderKey(q queryir.Select) string {
	return "id COLLATE BINARY ASC"
}

// CompilePredicate compiles a predicate to a WHERE clause fragment.
// Values are never interpolated - always ? placeholders.
func (c *SQLCompiler) CompilePredicate(p queryir.Predicate) (string, []any, error) {
	if p == nil {
		return "1 = 1", nil, nil
	}

	switch pred := p.(type) {
	case queryir.Compare:
		return c.compileCompare(pred)
	case queryir.In:
		return c.compileIn(pred)
	case queryir.Like:
		return quoteIdentifier(pred.Field) + ` LIKE ? ESCAPE '\'`, []any{likePattern(pred.Pattern)}, nil
	case queryir.IsNull:
		return quoteIdentifier(pred.Field) + " IS NULL", nil, nil
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	case queryir.Not:
		sql, params, err := c.CompilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	case queryir.Spatial:
		return c.compileSpatial(pred)
	case queryir.Near:
		return c.compileNear(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileCompare compiles a Compare predicate to "field op ?".
func (c *SQLCompiler) compileCompare(cmp queryir.Compare) (string, []any, error) {
	symbol := cmp.Op.Symbol()
	if symbol == "" {
		return "", nil, fmt.Errorf("field %s: invalid compare operator %d", cmp.Field, cmp.Op)
	}
	param, err := LiteralParam(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", cmp.Field, err)
	}
	return fmt.Sprintf("%s %s ?", quoteIdentifier(cmp.Field), symbol), []any{param}, nil
}

// compileIn compiles set membership to "field IN (?, ?)". A null member
// becomes an IS NULL alternative since NULL never equals anything in SQL.
func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}
	field := quoteIdentifier(in.Field)
	var marks []string
	var params []any
	hasNull := false
	for i, v := range in.Values {
		if v.Kind() == ir.KindNull {
			hasNull = true
			continue
		}
		param, err := LiteralParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("field %s value[%d]: %w", in.Field, i, err)
		}
		marks = append(marks, "?")
		params = append(params, param)
	}
	var sql string
	switch {
	case len(marks) == 0:
		sql = field + " IS NULL"
	case hasNull:
		sql = fmt.Sprintf("(%s IN (%s) OR %s IS NULL)", field, strings.Join(marks, ", "), field)
	default:
		sql = fmt.Sprintf("%s IN (%s)", field, strings.Join(marks, ", "))
	}
	return sql, params, nil
}

func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, op, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range preds {
		sql, params, err := c.CompilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}
	if len(sqlParts) == 1 {
		return sqlParts[0], allParams, nil
	}

	return "(" + strings.Join(sqlParts, op) + ")", allParams, nil
}

func (c *SQLCompiler) compileSpatial(s queryir.Spatial) (string, []any, error) {
	if !c.Spatial {
		return "", nil, fmt.Errorf("field %s: spatial predicates require SpatiaLite", s.Field)
	}
	fn := "ST_Within"
	if s.Relation == queryir.RelIntersects {
		fn = "ST_Intersects"
	}
	sql := fmt.Sprintf("%s(GeomFromText(%s), GeomFromText(?))", fn, quoteIdentifier(s.Field))
	return sql, []any{s.WKT}, nil
}

func (c *SQLCompiler) compileNear(n queryir.Near) (string, []any, error) {
	if !c.Spatial {
		return "", nil, fmt.Errorf("field %s: proximity predicates require SpatiaLite", n.Field)
	}
	sql := fmt.Sprintf("ST_Distance(GeomFromText(%s), MakePoint(?, ?)) <= ?", quoteIdentifier(n.Field))
	return sql, []any{n.Point.X(), n.Point.Y(), n.Distance}, nil
}

// likePattern turns a '*' wildcard pattern into a LIKE pattern escaped
// with backslash.
func likePattern(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteByte('%')
		case '%', '_', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LiteralParam converts a literal to a Go value for a SQL parameter.
// Dates bind as YYYY-MM-DD and timestamps in TimestampLayout.
func LiteralParam(lit ir.Literal) (any, error) {
	switch v := lit.(type) {
	case ir.Null:
		return nil, nil
	case ir.Bool:
		return bool(v), nil
	case ir.Int32:
		return int64(v), nil
	case ir.Int64:
		return int64(v), nil
	case ir.Float32:
		return float64(v), nil
	case ir.Float64:
		return float64(v), nil
	case ir.String:
		return string(v), nil
	case ir.Char:
		return string(rune(v)), nil
	case ir.UUID:
		return v.String(), nil
	case ir.Date:
		return ir.FormatDate(v), nil
	case ir.Timestamp:
		return FormatTime(v.Time), nil
	default:
		return nil, fmt.Errorf("unsupported literal type for SQL parameter: %T", lit)
	}
}

// FormatTime renders t in TimestampLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
