package queryir

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/ir"
	tu "github.com/roach88/sieve/internal/testutil"
)

var allowed = tu.Selectors("name", "age", "tags", "geo", "address.city")

func translate(t *testing.T, query string, cfg ir.Config) Predicate {
	t.Helper()
	p, err := Translate(compiler.MustParse(query, allowed), cfg)
	require.NoError(t, err)
	return p
}

func TestTranslate_Constraints(t *testing.T) {
	tests := []struct {
		query string
		want  Predicate
	}{
		{"age==30", Compare{Field: "age", Op: OpEq, Value: ir.Int32(30)}},
		{"age!=30", Compare{Field: "age", Op: OpNe, Value: ir.Int32(30)}},
		{"age=gt=30", Compare{Field: "age", Op: OpGt, Value: ir.Int32(30)}},
		{"age>=30", Compare{Field: "age", Op: OpGe, Value: ir.Int32(30)}},
		{"age=lt=30L", Compare{Field: "age", Op: OpLt, Value: ir.Int64(30)}},
		{"age<=1.5", Compare{Field: "age", Op: OpLe, Value: ir.Float64(1.5)}},
		{"name==null", IsNull{Field: "name"}},
		{"name!=null", Not{Predicate: IsNull{Field: "name"}}},
		{"name=='jo*'", Compare{Field: "name", Op: OpEq, Value: ir.String("jo*")}},
		{"tags=in=['a','b']", In{Field: "tags", Values: []ir.Literal{ir.Char('a'), ir.Char('b')}}},
		{"tags=out=[1,2]", Not{Predicate: In{Field: "tags", Values: []ir.Literal{ir.Int32(1), ir.Int32(2)}}}},
		{"tags=in=1", In{Field: "tags", Values: []ir.Literal{ir.Int32(1)}}},
		{"address.city=='Oslo'", Compare{Field: "address.city", Op: OpEq, Value: ir.String("Oslo")}},
		{"geo=near=['POINT(1 2)',5]", Near{Field: "geo", Point: orb.Point{1, 2}, Distance: 5}},
		{
			"geo=within='POLYGON((0 0,4 0,4 4,0 4,0 0))'",
			Spatial{
				Field:    "geo",
				Relation: RelWithin,
				Geometry: orb.Polygon{orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}},
				WKT:      "POLYGON((0 0,4 0,4 4,0 4,0 0))",
			},
		},
		{
			"geo=intersects='LINESTRING(0 0,1 1)'",
			Spatial{
				Field:    "geo",
				Relation: RelIntersects,
				Geometry: orb.LineString{{0, 0}, {1, 1}},
				WKT:      "LINESTRING(0 0,1 1)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, translate(t, tt.query, ir.Config{}))
		})
	}
}

func TestTranslate_Operators(t *testing.T) {
	a := Compare{Field: "age", Op: OpEq, Value: ir.Int32(1)}
	b := Compare{Field: "age", Op: OpEq, Value: ir.Int32(2)}
	c := Compare{Field: "age", Op: OpEq, Value: ir.Int32(3)}

	tests := []struct {
		query string
		want  Predicate
	}{
		{"age==1,age==2", And{Predicates: []Predicate{a, b}}},
		{"age==1;age==2", Or{Predicates: []Predicate{a, b}}},
		{"age==1.age==2", Not{Predicate: And{Predicates: []Predicate{a, b}}}},
		{"age==1:age==2", Not{Predicate: Or{Predicates: []Predicate{a, b}}}},
		{"age==1,age==2,age==3", And{Predicates: []Predicate{a, b, c}}},
		{"age==1;age==2;age==3", Or{Predicates: []Predicate{a, b, c}}},
		{"(age==1,age==2),age==3", And{Predicates: []Predicate{a, b, c}}},
		{"age==1,age==2;age==3", Or{Predicates: []Predicate{And{Predicates: []Predicate{a, b}}, c}}},
		{"age==1:age==2,age==3", Not{Predicate: Or{Predicates: []Predicate{a, And{Predicates: []Predicate{b, c}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, translate(t, tt.query, ir.Config{}))
		})
	}
}

func TestTranslate_Config(t *testing.T) {
	cfg := ir.Config{
		FieldMapping:     map[string]string{"address.city": "city"},
		WildcardEquality: true,
	}

	assert.Equal(t,
		Compare{Field: "city", Op: OpEq, Value: ir.String("Oslo")},
		translate(t, "address.city=='Oslo'", cfg))
	assert.Equal(t,
		Like{Field: "name", Pattern: "jo*"},
		translate(t, "name=='jo*'", cfg))
	assert.Equal(t,
		Not{Predicate: Like{Field: "name", Pattern: "*son"}},
		translate(t, "name!='*son'", cfg))
	assert.Equal(t,
		Compare{Field: "name", Op: OpEq, Value: ir.String("plain")},
		translate(t, "name=='plain'", cfg))
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		tree    ir.Node
		wantMsg string
	}{
		{"list equality", tu.C("age", ir.Equal, 1, 2), "single value"},
		{"ordered null", tu.C("age", ir.GreaterThan, nil), "null values are not ordered"},
		{"ordered bool", tu.C("age", ir.LessThan, true), "bool values are not ordered"},
		{"within number", tu.C("geo", ir.Within, 1), "WKT geometry"},
		{"within bad wkt", tu.C("geo", ir.Within, "BLOB(1)"), "invalid WKT"},
		{"near single", tu.C("geo", ir.Near, "POINT(1 2)"), "[point,distance]"},
		{"near polygon", tu.C("geo", ir.Near, "POLYGON((0 0,4 0,4 4,0 4,0 0))", 1), "expects a POINT"},
		{"near negative", tu.C("geo", ir.Near, "POINT(1 2)", -1), "non-negative distance"},
		{"near text distance", tu.C("geo", ir.Near, "POINT(1 2)", "far"), "non-negative distance"},
		{"near number first", tu.C("geo", ir.Near, 1, 2), "WKT point"},
		{"invalid comparison", ir.NewConstraint("age", ir.Comparison(0), ir.Int32(1)), "unsupported comparison"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Translate(tt.tree, ir.Config{})
			require.Error(t, err)
			var terr *TranslateError
			require.ErrorAs(t, err, &terr)
			assert.Contains(t, terr.Message, tt.wantMsg)
		})
	}

	_, err := Translate(nil, ir.Config{})
	assert.ErrorIs(t, err, ir.ErrNilNode)

	_, err = Translate(ir.NewOperation(ir.Left, tu.C("age", ir.Equal, 1), tu.C("age", ir.Equal, 2)), ir.Config{})
	assert.Error(t, err)
}

func TestTranslateError_Message(t *testing.T) {
	err := &TranslateError{Selector: "geo", Comparison: ir.Near, Message: "expects [point,distance]"}
	assert.Equal(t, "geo=near=: expects [point,distance]", err.Error())
}

func TestNumber(t *testing.T) {
	for _, lit := range []ir.Literal{ir.Int32(2), ir.Int64(2), ir.Float32(2), ir.Float64(2)} {
		n, ok := Number(lit)
		assert.True(t, ok)
		assert.Equal(t, 2.0, n)
	}
	_, ok := Number(ir.String("2"))
	assert.False(t, ok)
}
