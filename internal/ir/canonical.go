package ir

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces a deterministic JSON encoding of a tree.
//
// Object keys are emitted in sorted order, strings are NFC normalized and
// only quote, backslash and control characters are escaped (no HTML
// escaping). Two structurally equal trees always produce identical bytes,
// which is what Fingerprint relies on.
//
// Shapes:
//
//	{"argument":<arg>,"comparison":"==","selector":"a","type":"constraint"}
//	{"left":<node>,"operator":"AND","right":<node>,"type":"operation"}
//	{"kind":"int32","value":1}
//	{"kind":"list","values":[<literal>,...]}
func MarshalCanonical(n Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n Node) error {
	switch node := n.(type) {
	case *ConstraintNode:
		if node == nil {
			return ErrNilNode
		}
		if !node.Comparison.Valid() {
			return fmt.Errorf("selector %q: invalid comparison %d", node.Selector, node.Comparison)
		}
		buf.WriteString(`{"argument":`)
		if err := writeArgument(buf, node.Argument); err != nil {
			return fmt.Errorf("selector %q: %w", node.Selector, err)
		}
		buf.WriteString(`,"comparison":`)
		writeString(buf, node.Comparison.Sign())
		buf.WriteString(`,"selector":`)
		writeString(buf, node.Selector)
		buf.WriteString(`,"type":"constraint"}`)
		return nil
	case *OperationNode:
		if node == nil {
			return ErrNilNode
		}
		if !node.Operator.Logical() {
			return fmt.Errorf("operation with non-logical operator %s", node.Operator)
		}
		buf.WriteString(`{"left":`)
		if err := writeNode(buf, node.Left); err != nil {
			return fmt.Errorf("left: %w", err)
		}
		buf.WriteString(`,"operator":`)
		writeString(buf, node.Operator.String())
		buf.WriteString(`,"right":`)
		if err := writeNode(buf, node.Right); err != nil {
			return fmt.Errorf("right: %w", err)
		}
		buf.WriteString(`,"type":"operation"}`)
		return nil
	case nil:
		return ErrNilNode
	default:
		return fmt.Errorf("unsupported node type: %T", n)
	}
}

func writeArgument(buf *bytes.Buffer, arg Argument) error {
	switch a := arg.(type) {
	case List:
		buf.WriteString(`{"kind":"list","values":[`)
		for i, lit := range a {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeLiteral(buf, lit); err != nil {
				return fmt.Errorf("list[%d]: %w", i, err)
			}
		}
		buf.WriteString(`]}`)
		return nil
	case Literal:
		return writeLiteral(buf, a)
	default:
		return fmt.Errorf("unsupported argument type: %T", arg)
	}
}

func writeLiteral(buf *bytes.Buffer, lit Literal) error {
	if lit == nil {
		return fmt.Errorf("nil literal")
	}
	buf.WriteString(`{"kind":`)
	writeString(buf, lit.Kind().String())
	if _, isNull := lit.(Null); isNull {
		buf.WriteByte('}')
		return nil
	}
	buf.WriteString(`,"value":`)
	switch v := lit.(type) {
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case Int32:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Int64:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Float32:
		buf.WriteString(FormatFloat(float64(v), 32))
	case Float64:
		buf.WriteString(FormatFloat(float64(v), 64))
	case String:
		writeString(buf, string(v))
	case Char:
		writeString(buf, string(rune(v)))
	case UUID:
		writeString(buf, v.String())
	case Date:
		writeString(buf, FormatDate(v))
	case Timestamp:
		writeString(buf, FormatTimestamp(v))
	default:
		return fmt.Errorf("unsupported literal type: %T", lit)
	}
	buf.WriteByte('}')
	return nil
}

const hexDigits = "0123456789abcdef"

// writeString writes an NFC-normalized JSON string, escaping only what JSON
// requires.
func writeString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[r>>4])
			buf.WriteByte(hexDigits[r&0xF])
		case r == utf8.RuneError && size == 1:
			buf.WriteString(`�`)
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}
