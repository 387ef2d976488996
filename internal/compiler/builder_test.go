package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/ir"
	tu "github.com/roach88/sieve/internal/testutil"
)

func TestBuilderMatchesParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		build func() (ir.Node, error)
	}{
		{
			name:  "and",
			query: "first==1,second!=2",
			build: func() (ir.Node, error) {
				return Start().
					Constraint("first", ir.Equal, ir.Int32(1)).
					And().
					Constraint("second", ir.NotEqual, ir.Int32(2)).
					Build()
			},
		},
		{
			name:  "precedence tie-break",
			query: "first==1;second!=2,third>=3",
			build: func() (ir.Node, error) {
				return Start().
					Constraint("first", ir.Equal, ir.Int32(1)).
					Or().
					Constraint("second", ir.NotEqual, ir.Int32(2)).
					And().
					Constraint("third", ir.GreaterOrEqual, ir.Int32(3)).
					Build()
			},
		},
		{
			name:  "sub-group",
			query: "(first==1;second!=2),third>=3",
			build: func() (ir.Node, error) {
				return Start().
					Sub().
					Constraint("first", ir.Equal, ir.Int32(1)).
					Or().
					Constraint("second", ir.NotEqual, ir.Int32(2)).
					EndSub().
					And().
					Constraint("third", ir.GreaterOrEqual, ir.Int32(3)).
					Build()
			},
		},
		{
			name:  "nested sub-groups with nand and nor",
			query: "x==1.((first==1:second==2);third==3)",
			build: func() (ir.Node, error) {
				return Start().
					Constraint("x", ir.Equal, ir.Int32(1)).
					Nand().
					Sub().
					Sub().
					Constraint("first", ir.Equal, ir.Int32(1)).
					Nor().
					Constraint("second", ir.Equal, ir.Int32(2)).
					EndSub().
					Or().
					Constraint("third", ir.Equal, ir.Int32(3)).
					EndSub().
					Build()
			},
		},
		{
			name:  "list and char normalization",
			query: "x=in=['a','bc'],b=='z'",
			build: func() (ir.Node, error) {
				return Start().
					ConstraintOf("x", ir.In, "a", "bc").
					And().
					ConstraintOf("b", ir.Equal, "z").
					Build()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := Parse(tt.query, testSelectors)
			require.NoError(t, err)
			built, err := tt.build()
			require.NoError(t, err)
			assert.True(t, ir.TreeEqual(parsed, built), "parsed %#v\nbuilt %#v", parsed, built)
		})
	}
}

func TestBuilderConstraintOf(t *testing.T) {
	root, err := Start().ConstraintOf("x", ir.In, 1, int64(2), 2.5).Build()
	require.NoError(t, err)
	assert.Equal(t, ir.List{ir.Int32(1), ir.Int64(2), ir.Float64(2.5)}, root.(*ir.ConstraintNode).Argument)

	root, err = Start().ConstraintOf("x", ir.Equal, nil).Build()
	require.NoError(t, err)
	assert.Equal(t, ir.Null{}, root.(*ir.ConstraintNode).Argument)
}

func TestBuilderErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() (ir.Node, error)
		kind  ErrorKind
	}{
		{
			name: "empty selector",
			build: func() (ir.Node, error) {
				return Start().Constraint("", ir.Equal, ir.Int32(1)).Build()
			},
			kind: InvalidArgument,
		},
		{
			name: "malformed selector",
			build: func() (ir.Node, error) {
				return Start().Constraint("a..b", ir.Equal, ir.Int32(1)).Build()
			},
			kind: InvalidArgument,
		},
		{
			name: "invalid comparison",
			build: func() (ir.Node, error) {
				return Start().Constraint("a", ir.Comparison(0), ir.Int32(1)).Build()
			},
			kind: InvalidArgument,
		},
		{
			name: "no values",
			build: func() (ir.Node, error) {
				return Start().Constraint("a", ir.Equal).Build()
			},
			kind: InvalidArgument,
		},
		{
			name: "nil value",
			build: func() (ir.Node, error) {
				return Start().Constraint("a", ir.In, ir.Int32(1), nil).Build()
			},
			kind: InvalidArgument,
		},
		{
			name: "unconvertible value",
			build: func() (ir.Node, error) {
				return Start().ConstraintOf("a", ir.Equal, struct{}{}).Build()
			},
			kind: InvalidArgument,
		},
		{
			name: "selector outside allow-list",
			build: func() (ir.Node, error) {
				return Start(WithSelectors(tu.Selectors("first"))).Constraint("second", ir.Equal, ir.Int32(1)).Build()
			},
			kind: UnknownSelector,
		},
		{
			name: "end sub without sub",
			build: func() (ir.Node, error) {
				return Start().Constraint("a", ir.Equal, ir.Int32(1)).EndSub().Build()
			},
			kind: UnbalancedGrouping,
		},
		{
			name: "unclosed sub",
			build: func() (ir.Node, error) {
				return Start().Sub().Constraint("a", ir.Equal, ir.Int32(1)).Build()
			},
			kind: UnbalancedGrouping,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := tt.build()
			require.Error(t, err)
			assert.Nil(t, root)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, -1, ce.Pos, "builder errors carry no position")
		})
	}
}

func TestBuilderReusedStepFailsFast(t *testing.T) {
	term := Start()
	term.Constraint("a", ir.Equal, ir.Int32(1))
	op := term.Constraint("b", ir.Equal, ir.Int32(2))

	require.Error(t, op.Err())
	assert.True(t, IsKind(op.Err(), MalformedSequence))

	_, err := op.Build()
	assert.True(t, IsKind(err, MalformedSequence))
}

func TestBuilderReusedOperatorFailsFast(t *testing.T) {
	op := Start().Constraint("a", ir.Equal, ir.Int32(1))
	op.And()
	term := op.Or()

	assert.True(t, IsKind(term.Err(), MalformedSequence))
}

func TestBuilderErrorIsSticky(t *testing.T) {
	op := Start().
		Constraint("", ir.Equal, ir.Int32(1)).
		And().
		Constraint("b", ir.Comparison(0), ir.Int32(2))

	err := op.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selector must not be empty", "first error wins")

	_, buildErr := op.Build()
	assert.Equal(t, err, buildErr)
}

func TestBuilderWithSelectorsAllowed(t *testing.T) {
	root, err := Start(WithSelectors(tu.Selectors("first"))).
		Constraint("first", ir.Equal, ir.Int32(1)).
		Build()
	require.NoError(t, err)
	assert.True(t, ir.TreeEqual(tu.C("first", ir.Equal, 1), root))
}
