package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ludo-technologies/pydup/internal/parser"
)

// Dump returns a deterministic structural serialization of a node:
// node kind, field structure, and values, with source positions
// excluded. Two trees normalize-equivalent iff their dumps are equal.
func Dump(n *parser.Node) string {
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

// DumpList serializes an ordered statement list, one statement dump per
// line.
func DumpList(stmts []*parser.Node) string {
	parts := make([]string, 0, len(stmts))
	for _, s := range stmts {
		parts = append(parts, Dump(s))
	}
	return strings.Join(parts, "\n")
}

func writeNode(sb *strings.Builder, n *parser.Node) {
	if n == nil {
		sb.WriteByte('~')
		return
	}
	sb.WriteString(string(n.Type))
	sb.WriteByte('(')

	first := true
	field := func(name string) {
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(name)
		sb.WriteByte('=')
	}
	one := func(name string, c *parser.Node) {
		if c != nil {
			field(name)
			writeNode(sb, c)
		}
	}
	many := func(name string, cs []*parser.Node) {
		if len(cs) == 0 {
			return
		}
		field(name)
		sb.WriteByte('[')
		for i, c := range cs {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeNode(sb, c)
		}
		sb.WriteByte(']')
	}

	if n.Name != "" {
		field("name")
		sb.WriteString(n.Name)
	}
	if n.Op != "" {
		field("op")
		sb.WriteString(n.Op)
	}
	if len(n.Ops) > 0 {
		field("ops")
		sb.WriteString(strings.Join(n.Ops, " "))
	}
	if n.Type == parser.NodeConstant {
		field("value")
		sb.WriteString(formatConstant(n))
	}
	if len(n.Names) > 0 {
		field("names")
		sb.WriteString(strings.Join(n.Names, " "))
	}
	if n.GroupExcept {
		field("group")
		sb.WriteString("true")
	}

	many("decorators", n.Decorators)
	many("args", n.Args)
	one("annotation", n.Annotation)
	one("returns", n.Returns)
	many("targets", n.Targets)
	one("test", n.Test)
	one("iter", n.Iter)
	one("left", n.Left)
	one("right", n.Right)
	many("comparators", n.Comparators)
	one("value", n.Value)
	many("elts", n.Elts)
	many("keywords", n.Keywords)
	many("bases", n.Bases)
	many("body", n.Body)
	many("orelse", n.Orelse)
	many("handlers", n.Handlers)
	many("finalbody", n.Finalbody)
	sb.WriteByte(')')
}

// formatConstant tags the literal with its kind so that 1, 1.0 and "1"
// stay distinct when constant normalization is off.
func formatConstant(n *parser.Node) string {
	switch v := n.Constant.(type) {
	case nil:
		return "none"
	case float64:
		return n.Kind.String() + ":" + strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%s:%v", n.Kind, v)
	}
}
