package printer

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/ir"
	tu "github.com/roach88/sieve/internal/testutil"
)

func TestPrintGrouping(t *testing.T) {
	a := func() ir.Node { return tu.C("a", ir.Equal, 1) }
	b := func() ir.Node { return tu.C("b", ir.Equal, 2) }
	c := func() ir.Node { return tu.C("c", ir.Equal, 3) }

	tests := []struct {
		name string
		tree ir.Node
		want string
	}{
		{"loose under tight on the left", tu.And(tu.Or(a(), b()), c()), "(a==1;b==2),c==3"},
		{"loose under tight on the right", tu.And(a(), tu.Or(b(), c())), "a==1,(b==2;c==3)"},
		{"tight under loose", tu.Or(tu.And(a(), b()), c()), "a==1,b==2;c==3"},
		{"same class on the right", tu.And(a(), tu.Nor(b(), c())), "a==1,b==2:c==3"},
		{"same class on the left", tu.Nor(tu.And(a(), b()), c()), "(a==1,b==2):c==3"},
		{"loose same class on the left", tu.Nand(tu.Or(a(), b()), c()), "(a==1;b==2).c==3"},
		{
			"tight over tight over loose",
			tu.And(a(), tu.And(b(), tu.Or(c(), a()))),
			"a==1,b==2,(c==3;a==1)",
		},
		{
			"left-nested tight over loose",
			tu.And(tu.And(a(), tu.Or(b(), c())), a()),
			"(a==1,(b==2;c==3)),a==1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Print(tt.tree)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintLiterals(t *testing.T) {
	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")

	tests := []struct {
		name string
		lit  ir.Literal
		want string
	}{
		{"null", ir.Null{}, "null"},
		{"bool", ir.Bool(true), "true"},
		{"int32", ir.Int32(-12), "-12"},
		{"int64", ir.Int64(45), "45L"},
		{"float32", ir.Float32(23.234), "23.234f"},
		{"float32 whole", ir.Float32(2), "2.0f"},
		{"float64", ir.Float64(0.1), "0.1"},
		{"float64 whole", ir.Float64(3), "3.0"},
		{"float64 exponent", ir.Float64(1e21), "1.0e+21"},
		{"float64 small", ir.Float64(1.5e-7), "1.5e-07"},
		{"string", ir.String("abc"), "'abc'"},
		{"empty string", ir.String(""), "''"},
		{"string escapes", ir.String("it's 50% #1"), "'it%27s 50%25 %231'"},
		{"string control", ir.String("a\tb"), "'a%09b'"},
		{"string unprintable", ir.String("a\u00a0b"), "'a%C2%A0b'"},
		{"string hex lookalike", ir.String("0x0041"), "'0%780041'"},
		{"unicode kept", ir.String("日本"), "'日本'"},
		{"char", ir.Char('z'), "'z'"},
		{"char quote", ir.Char('\''), "'%27'"},
		{"uuid", ir.UUID(id), "123e4567-e89b-12d3-a456-426614174000"},
		{"date", ir.Date{Year: 2020, Month: time.January, Day: 5}, "2020-01-05"},
		{"timestamp", ir.Timestamp{Time: time.Date(2020, 1, 5, 10, 30, 0, 5000, time.UTC)}, "2020-01-05T10:30:00.000005Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Literal(tt.lit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintErrors(t *testing.T) {
	tests := []struct {
		name string
		tree ir.Node
	}{
		{"nil root", nil},
		{"nil child", ir.NewOperation(ir.And, tu.C("a", ir.Equal, 1), nil)},
		{"grouping operator", ir.NewOperation(ir.Left, tu.C("a", ir.Equal, 1), tu.C("b", ir.Equal, 1))},
		{"invalid comparison", ir.NewConstraint("a", ir.Comparison(0), ir.Int32(1))},
		{"short list", ir.NewConstraint("a", ir.In, ir.List{ir.Int32(1)})},
		{"nil argument", ir.NewConstraint("a", ir.Equal, nil)},
		{"nan", ir.NewConstraint("a", ir.Equal, ir.Float64(math.NaN()))},
		{"infinite float32", ir.NewConstraint("a", ir.Equal, ir.Float32(math.Inf(1)))},
		{"invalid utf8", ir.NewConstraint("a", ir.Equal, ir.String("\xff\xfe"))},
		{"surrogate char", ir.NewConstraint("a", ir.Equal, ir.Char(0xD800))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Print(tt.tree)
			assert.Error(t, err)
		})
	}
	assert.Panics(t, func() { MustPrint(nil) })
}

// leaves used by the round-trip enumeration; one per literal kind.
var roundTripLeaves = []func() ir.Node{
	func() ir.Node { return ir.NewConstraint("a", ir.Equal, ir.Int32(1)) },
	func() ir.Node { return ir.NewConstraint("a.b", ir.NotEqual, ir.String("x;y")) },
	func() ir.Node { return ir.NewConstraint("c", ir.GreaterThan, ir.Float32(1.25)) },
	func() ir.Node { return ir.NewConstraint("d", ir.In, ir.List{ir.Int64(1), ir.Null{}}) },
	func() ir.Node {
		return ir.NewConstraint("e", ir.LessOrEqual, ir.Timestamp{Time: time.Date(2021, 6, 1, 0, 0, 0, 0, ir.FixedZone(-3600))})
	},
}

// trees enumerates every binary tree shape with n leaves and every operator
// assignment.
func trees(n int, leaf *int) []func() ir.Node {
	if n == 1 {
		i := *leaf % len(roundTripLeaves)
		*leaf++
		return []func() ir.Node{roundTripLeaves[i]}
	}
	var out []func() ir.Node
	for k := 1; k < n; k++ {
		for _, l := range trees(k, leaf) {
			for _, r := range trees(n-k, leaf) {
				for _, op := range []ir.Operator{ir.And, ir.Or, ir.Nand, ir.Nor} {
					l, r, op := l, r, op
					out = append(out, func() ir.Node { return ir.NewOperation(op, l(), r()) })
				}
			}
		}
	}
	return out
}

func TestPrintRoundTrip(t *testing.T) {
	allowed := tu.Selectors("a", "a.b", "c", "d", "e")

	leaf := 0
	var all []func() ir.Node
	for n := 1; n <= 4; n++ {
		all = append(all, trees(n, &leaf)...)
	}
	require.Greater(t, len(all), 300)

	for _, build := range all {
		tree := build()
		printed, err := Print(tree)
		require.NoError(t, err)

		parsed, err := compiler.Parse(printed, allowed)
		require.NoError(t, err, printed)
		require.True(t, ir.TreeEqual(tree, parsed), "round trip changed tree for %s", printed)

		again, err := Print(parsed)
		require.NoError(t, err)
		require.Equal(t, printed, again, "printing is idempotent")
	}
}

func TestPrinterIsAVisitor(t *testing.T) {
	var v ir.Visitor[string] = Printer{}
	s, err := ir.Start(v, tu.C("a", ir.Equal, 1))
	require.NoError(t, err)
	assert.Equal(t, "a==1", s)
}
