package compiler

import (
	"unicode/utf8"

	"github.com/roach88/sieve/internal/ir"
)

// BuilderOption configures a builder session.
type BuilderOption func(*session)

// WithSelectors restricts the builder to an allow-list, as Parse does.
func WithSelectors(allowed ir.Selectors) BuilderOption {
	return func(s *session) {
		s.allowed = allowed
		s.restricted = true
	}
}

// session is the state shared by the steps of one builder chain.
type session struct {
	tokens     []token
	depth      int
	err        error
	allowed    ir.Selectors
	restricted bool
	// wantOperand is true when the next call must supply a term.
	wantOperand bool
}

func (s *session) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *session) push(t token) {
	s.tokens = append(s.tokens, t)
}

// TermStep is a builder position that expects a constraint or a sub-group.
type TermStep struct{ s *session }

// OpStep is a builder position that follows a complete term; it expects an
// operator, the end of a sub-group, or Build.
type OpStep struct{ s *session }

// Start begins a fluent builder chain. The token sequence it produces goes
// through the same reducer as Parse:
//
//	root, err := compiler.Start().
//		Constraint("first", ir.Equal, ir.Int32(1)).
//		Or().
//		Sub().Constraint("second", ir.NotEqual, ir.Int32(2)).And().Constraint("third", ir.GreaterOrEqual, ir.Int32(3)).EndSub().
//		Build()
//
// The first failing call records an error; later calls do nothing and Build
// returns it.
func Start(opts ...BuilderOption) *TermStep {
	s := &session{wantOperand: true}
	for _, opt := range opts {
		opt(s)
	}
	return &TermStep{s: s}
}

// Err returns the first error recorded by the chain.
func (t *TermStep) Err() error { return t.s.err }

// Err returns the first error recorded by the chain.
func (o *OpStep) Err() error { return o.s.err }

// Constraint adds a leaf. One value gives a single-value argument; two or
// more give a list.
func (t *TermStep) Constraint(selector string, cmp ir.Comparison, values ...ir.Literal) *OpStep {
	s := t.s
	next := &OpStep{s: s}
	if s.err != nil {
		return next
	}
	if !s.wantOperand {
		s.fail(argumentError(MalformedSequence, "constraint %q without a preceding operator", selector))
		return next
	}
	leaf, err := s.leaf(selector, cmp, values)
	if err != nil {
		s.fail(err)
		return next
	}
	s.push(constraintToken(leaf, -1))
	s.wantOperand = false
	return next
}

// ConstraintOf is Constraint with native Go values converted by ir.ValueOf.
func (t *TermStep) ConstraintOf(selector string, cmp ir.Comparison, values ...any) *OpStep {
	lits := make([]ir.Literal, 0, len(values))
	for i, v := range values {
		lit, err := ir.ValueOf(v)
		if err != nil {
			t.s.fail(argumentError(InvalidArgument, "selector %q: value %d: %v", selector, i, err))
			return &OpStep{s: t.s}
		}
		lits = append(lits, lit)
	}
	return t.Constraint(selector, cmp, lits...)
}

func (s *session) leaf(selector string, cmp ir.Comparison, values []ir.Literal) (*ir.ConstraintNode, error) {
	if selector == "" {
		return nil, argumentError(InvalidArgument, "selector must not be empty")
	}
	if err := ir.ValidatePath(selector); err != nil {
		return nil, argumentError(InvalidArgument, "%v", err)
	}
	if s.restricted && !s.allowed.Contains(selector) {
		return nil, argumentError(UnknownSelector, "selector %q is not allowed", selector)
	}
	if !cmp.Valid() {
		return nil, argumentError(InvalidArgument, "selector %q: invalid comparison %d", selector, cmp)
	}
	for i, v := range values {
		if v == nil {
			return nil, argumentError(InvalidArgument, "selector %q: value %d is nil", selector, i)
		}
	}

	var arg ir.Argument
	switch len(values) {
	case 0:
		return nil, argumentError(InvalidArgument, "selector %q: at least one value required", selector)
	case 1:
		arg = normalize(values[0])
	default:
		list := make(ir.List, len(values))
		for i, v := range values {
			list[i] = normalize(v)
		}
		arg = list
	}
	return ir.NewConstraint(selector, cmp, arg), nil
}

// normalize maps literals to the form the grammar would produce, so built
// and parsed trees compare equal.
func normalize(lit ir.Literal) ir.Literal {
	if s, ok := lit.(ir.String); ok && utf8.RuneCountInString(string(s)) == 1 {
		r, _ := utf8.DecodeRuneInString(string(s))
		return ir.Char(r)
	}
	return lit
}

// Sub opens a group.
func (t *TermStep) Sub() *TermStep {
	s := t.s
	if s.err != nil {
		return t
	}
	if !s.wantOperand {
		s.fail(argumentError(MalformedSequence, "sub-group without a preceding operator"))
		return t
	}
	s.push(operatorToken(ir.Left, -1))
	s.depth++
	return t
}

func (o *OpStep) operator(op ir.Operator) *TermStep {
	s := o.s
	next := &TermStep{s: s}
	if s.err != nil {
		return next
	}
	if s.wantOperand {
		s.fail(argumentError(MalformedSequence, "%s without a left operand", op))
		return next
	}
	s.push(operatorToken(op, -1))
	s.wantOperand = true
	return next
}

// And combines with the next term (tight binding).
func (o *OpStep) And() *TermStep { return o.operator(ir.And) }

// Or combines with the next term (loose binding).
func (o *OpStep) Or() *TermStep { return o.operator(ir.Or) }

// Nand combines with the next term (loose binding).
func (o *OpStep) Nand() *TermStep { return o.operator(ir.Nand) }

// Nor combines with the next term (tight binding).
func (o *OpStep) Nor() *TermStep { return o.operator(ir.Nor) }

// EndSub closes the innermost group opened by Sub.
func (o *OpStep) EndSub() *OpStep {
	s := o.s
	if s.err != nil {
		return o
	}
	if s.depth == 0 {
		s.fail(argumentError(UnbalancedGrouping, "EndSub without matching Sub"))
		return o
	}
	s.push(operatorToken(ir.Right, -1))
	s.depth--
	return o
}

// Build reduces the chain into a tree.
func (o *OpStep) Build() (ir.Node, error) {
	s := o.s
	if s.err != nil {
		return nil, s.err
	}
	if s.depth > 0 {
		return nil, argumentError(UnbalancedGrouping, "%d unclosed Sub", s.depth)
	}
	return reduce(s.tokens, "")
}
