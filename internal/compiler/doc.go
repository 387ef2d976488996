// Package compiler turns filter query text into ir trees.
//
// Parse runs three grammars (literal, selector/comparison, expression) that
// produce a flat token sequence, then reduces it with operator precedence:
// AND and NOR bind tighter than OR and NAND, and parentheses override both.
// The fluent builder (Start) produces the same token sequence from Go calls
// and goes through the same reducer.
//
// CompileProfile loads CUE selector profiles, and Validate re-checks trees
// that were not produced by Parse.
package compiler
