package ir

import (
	"fmt"
	"sort"
)

// Comparison relates a selector to its argument. The zero value is invalid.
type Comparison uint8

const (
	Equal Comparison = iota + 1
	NotEqual
	GreaterThan
	GreaterOrEqual
	LessThan
	LessOrEqual
	In
	NotIn
	Near
	Within
	Intersects
)

type comparisonInfo struct {
	name    string
	sign    string   // canonical, printed form
	aliases []string // accepted by the grammar only
}

var comparisons = [...]comparisonInfo{
	Equal:          {name: "EQ", sign: "=="},
	NotEqual:       {name: "NEQ", sign: "!="},
	GreaterThan:    {name: "GT", sign: "=gt=", aliases: []string{">"}},
	GreaterOrEqual: {name: "GE", sign: "=ge=", aliases: []string{">="}},
	LessThan:       {name: "LT", sign: "=lt=", aliases: []string{"<"}},
	LessOrEqual:    {name: "LE", sign: "=le=", aliases: []string{"<="}},
	In:             {name: "IN", sign: "=in="},
	NotIn:          {name: "OUT", sign: "=out="},
	Near:           {name: "NEAR", sign: "=near="},
	Within:         {name: "WITHIN", sign: "=within="},
	Intersects:     {name: "INTERSECTS", sign: "=intersects="},
}

// signEntry binds one accepted sign to its comparison.
type signEntry struct {
	Sign       string
	Comparison Comparison
}

// signTable holds every accepted sign, longest first. Built once at init and
// never mutated.
var signTable = buildSignTable()

func buildSignTable() []signEntry {
	var table []signEntry
	for c := Equal; c <= Intersects; c++ {
		info := comparisons[c]
		table = append(table, signEntry{Sign: info.sign, Comparison: c})
		for _, alias := range info.aliases {
			table = append(table, signEntry{Sign: alias, Comparison: c})
		}
	}
	sort.SliceStable(table, func(i, j int) bool {
		if len(table[i].Sign) != len(table[j].Sign) {
			return len(table[i].Sign) > len(table[j].Sign)
		}
		return table[i].Sign < table[j].Sign
	})
	return table
}

// Valid reports whether c is one of the defined comparisons.
func (c Comparison) Valid() bool {
	return c >= Equal && c <= Intersects
}

// Sign returns the canonical textual sign, or "" for an invalid comparison.
func (c Comparison) Sign() string {
	if !c.Valid() {
		return ""
	}
	return comparisons[c].sign
}

// String returns the comparison's short name (EQ, NEQ, GT, ...).
func (c Comparison) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Comparison(%d)", uint8(c))
	}
	return comparisons[c].name
}

// Spatial reports whether the comparison takes a geometry argument.
func (c Comparison) Spatial() bool {
	return c == Near || c == Within || c == Intersects
}

// Membership reports whether the comparison tests set membership.
func (c Comparison) Membership() bool {
	return c == In || c == NotIn
}

// LookupComparison returns the comparison bound to an exact sign.
func LookupComparison(sign string) (Comparison, bool) {
	for _, e := range signTable {
		if e.Sign == sign {
			return e.Comparison, true
		}
	}
	return 0, false
}

// MatchComparison returns the longest sign that prefixes s.
func MatchComparison(s string) (Comparison, string, bool) {
	for _, e := range signTable {
		if len(s) >= len(e.Sign) && s[:len(e.Sign)] == e.Sign {
			return e.Comparison, e.Sign, true
		}
	}
	return 0, "", false
}

// Signs returns every accepted sign, longest first.
func Signs() []string {
	out := make([]string, len(signTable))
	for i, e := range signTable {
		out[i] = e.Sign
	}
	return out
}

// Operator combines two nodes, or marks a grouping boundary in a token stream.
type Operator uint8

const (
	And Operator = iota + 1
	Or
	Nand
	Nor
	// Left opens an explicit group. It only appears in token streams.
	Left
	// Right closes an explicit group. It only appears in token streams.
	Right
)

type operatorInfo struct {
	name  string
	sign  string
	tight bool
}

var operators = [...]operatorInfo{
	And:   {name: "AND", sign: ",", tight: true},
	Or:    {name: "OR", sign: ";", tight: false},
	Nand:  {name: "NAND", sign: ".", tight: false},
	Nor:   {name: "NOR", sign: ":", tight: true},
	Left:  {name: "LEFT", sign: "(", tight: false},
	Right: {name: "RIGHT", sign: ")", tight: true},
}

// Valid reports whether o is a defined operator (including Left/Right).
func (o Operator) Valid() bool {
	return o >= And && o <= Right
}

// Logical reports whether o combines two operands (AND, OR, NAND, NOR).
func (o Operator) Logical() bool {
	return o >= And && o <= Nor
}

// Tight reports whether o binds tighter than the loose class. AND and NOR are
// tight, OR and NAND are loose.
func (o Operator) Tight() bool {
	if !o.Valid() {
		return false
	}
	return operators[o].tight
}

// Sign returns the operator's surface character.
func (o Operator) Sign() string {
	if !o.Valid() {
		return ""
	}
	return operators[o].sign
}

func (o Operator) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Operator(%d)", uint8(o))
	}
	return operators[o].name
}

// LookupOperator maps a logical operator character to its Operator.
func LookupOperator(c byte) (Operator, bool) {
	switch c {
	case ',':
		return And, true
	case ';':
		return Or, true
	case '.':
		return Nand, true
	case ':':
		return Nor, true
	default:
		return 0, false
	}
}
