package compiler

import (
	"github.com/roach88/sieve/internal/ir"
)

// Parse compiles a filter query into a tree. Every selector in the query must
// be in allowed.
//
// Parse is safe for concurrent use; all parsing state is local to the call.
//
//	root, err := compiler.Parse("first==1;second!=2,third>=3",
//		ir.MustSelectors("first", "second", "third"))
func Parse(query string, allowed ir.Selectors) (ir.Node, error) {
	tokens, err := newParser(query, allowed).parse()
	if err != nil {
		return nil, err
	}
	return reduce(tokens, query)
}

// MustParse is like Parse but panics on error.
// Use only in tests or for queries known to be valid.
func MustParse(query string, allowed ir.Selectors) ir.Node {
	root, err := Parse(query, allowed)
	if err != nil {
		panic(err)
	}
	return root
}
