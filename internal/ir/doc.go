// Package ir provides the filter expression tree shared by every sieve
// package.
//
// This package contains type definitions only: literals, comparisons,
// operators, nodes, the selector allow-list and the Visitor contract. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Node, Argument and Literal are sealed; consumers switch exhaustively
//   - Trees are immutable once built and never share subtrees
//   - Operation nodes are always binary; Left and Right only appear in
//     token streams, never in a tree
package ir
