// Package filter implements the boolean predicate AST shared by the string
// filter grammar and the legacy facet/numeric/tag JSON dialects (see
// package legacyfilter), plus a recursive-descent parser for the grammar
// itself.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Op enumerates the comparison operators a Node of kind Compare carries.
type Op int

const (
	OpEquals Op = iota
	OpNotEquals
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
)

func (o Op) String() string {
	switch o {
	case OpEquals:
		return "="
	case OpNotEquals:
		return "!="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanOrEqual:
		return ">="
	case OpLessThan:
		return "<"
	case OpLessThanOrEqual:
		return "<="
	default:
		return "?"
	}
}

// ValueKind tags the literal type a comparison is made against.
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueInteger
	ValueFloat
)

// Value is a typed comparison literal.
type Value struct {
	Kind    ValueKind
	Text    string
	Integer int64
	Float   float64
}

func TextValue(s string) Value    { return Value{Kind: ValueText, Text: s} }
func IntegerValue(i int64) Value  { return Value{Kind: ValueInteger, Integer: i} }
func FloatValue(f float64) Value  { return Value{Kind: ValueFloat, Float: f} }

func (v Value) String() string {
	switch v.Kind {
	case ValueText:
		return strconv.Quote(v.Text)
	case ValueInteger:
		return strconv.FormatInt(v.Integer, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return ""
	}
}

// NodeKind tags the Node variant.
type NodeKind int

const (
	NodeCompare NodeKind = iota
	NodeAnd
	NodeOr
	NodeNot
)

// Node is the filter AST: a recursive tree over typed field comparisons
// combined with And/Or/Not. The zero value is not a valid node.
type Node struct {
	Kind     NodeKind
	Field    string
	Op       Op
	Value    Value
	Children []*Node // And/Or
	Child    *Node   // Not
}

func Equals(field string, v Value) *Node             { return compare(NodeCompare, field, OpEquals, v) }
func NotEquals(field string, v Value) *Node           { return compare(NodeCompare, field, OpNotEquals, v) }
func GreaterThan(field string, v Value) *Node         { return compare(NodeCompare, field, OpGreaterThan, v) }
func GreaterThanOrEqual(field string, v Value) *Node  { return compare(NodeCompare, field, OpGreaterThanOrEqual, v) }
func LessThan(field string, v Value) *Node            { return compare(NodeCompare, field, OpLessThan, v) }
func LessThanOrEqual(field string, v Value) *Node     { return compare(NodeCompare, field, OpLessThanOrEqual, v) }

func compare(kind NodeKind, field string, op Op, v Value) *Node {
	return &Node{Kind: kind, Field: field, Op: op, Value: v}
}

// And combines children with AND semantics. A single child collapses to
// itself; zero children returns nil (no filter).
func And(children ...*Node) *Node {
	return combine(NodeAnd, children)
}

// Or combines children with OR semantics. Same collapsing rules as And.
func Or(children ...*Node) *Node {
	return combine(NodeOr, children)
}

func combine(kind NodeKind, children []*Node) *Node {
	nonNil := make([]*Node, 0, len(children))
	for _, c := range children {
		if c != nil {
			nonNil = append(nonNil, c)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return &Node{Kind: kind, Children: nonNil}
	}
}

// Not negates a node. Not(nil) is nil (no filter to negate).
func Not(child *Node) *Node {
	if child == nil {
		return nil
	}
	return &Node{Kind: NodeNot, Child: child}
}

// Tag builds the Equals(_tags, text) shape the _tags reserved field uses
// for tag containment.
func Tag(text string) *Node {
	return Equals("_tags", TextValue(text))
}

// String pretty-prints the AST back into the string filter grammar. The
// parser is idempotent over this round-trip for every supported operator.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Kind {
	case NodeCompare:
		fmt.Fprintf(b, "%s %s %s", n.Field, n.Op, n.Value)
	case NodeNot:
		b.WriteString("NOT (")
		n.Child.write(b)
		b.WriteString(")")
	case NodeAnd, NodeOr:
		sep := " AND "
		if n.Kind == NodeOr {
			sep = " OR "
		}
		b.WriteString("(")
		for i, c := range n.Children {
			if i > 0 {
				b.WriteString(sep)
			}
			c.write(b)
		}
		b.WriteString(")")
	}
}
