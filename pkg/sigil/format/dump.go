package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rdenadai/sigil/pkg/sigil/ast"
	"github.com/rdenadai/sigil/pkg/sigil/lexer"
)

// Tree renders a node and its descendants as an indented outline, one
// node per line with its position. Conditions are shown before the
// children, prefixed with "if:".
func Tree(node *ast.Node) string {
	var sb strings.Builder
	writeTree(&sb, node, 0, "")
	return sb.String()
}

// ProgramTree renders the whole program under a Program root.
func ProgramTree(program *ast.Program) string {
	if program == nil {
		return ""
	}
	return Tree(program.Root())
}

func writeTree(sb *strings.Builder, n *ast.Node, depth int, prefix string) {
	if n == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(prefix)
	sb.WriteString(n.Kind.String())
	if n.Value != nil && n.Condition() == nil {
		sb.WriteString(" ")
		sb.WriteString(n.Value.String())
	}
	fmt.Fprintf(sb, " @%d:%d\n", n.Line, n.Column)

	if cond := n.Condition(); cond != nil {
		writeTree(sb, cond, depth+1, "if: ")
	}
	for _, child := range n.Children {
		writeTree(sb, child, depth+1, "")
	}
}

// Sexp renders the program as one s-expression per top-level node.
func Sexp(program *ast.Program) string {
	if program == nil {
		return ""
	}
	return program.String()
}

// jsonNode is the stable JSON shape of a syntax tree node
type jsonNode struct {
	Kind     string      `json:"kind"`
	Value    any         `json:"value,omitempty"`
	Children []*jsonNode `json:"children,omitempty"`
	Line     int         `json:"line"`
	Column   int         `json:"column"`
}

func toJSONNode(n *ast.Node) *jsonNode {
	out := &jsonNode{
		Kind:   n.Kind.String(),
		Line:   n.Line,
		Column: n.Column,
	}
	switch v := n.Value.(type) {
	case nil:
	case ast.Text:
		out.Value = string(v)
	case ast.Tag:
		out.Value = lexer.TokenType(v).String()
	case *ast.Node:
		out.Value = toJSONNode(v)
	default:
		out.Value = v.String()
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, toJSONNode(child))
	}
	return out
}

// JSON renders the program as indented JSON rooted at a Program node.
// Conditions of if and else-if nodes appear as a nested node under "value".
func JSON(program *ast.Program) (string, error) {
	if program == nil {
		return "null", nil
	}
	data, err := json.MarshalIndent(toJSONNode(program.Root()), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Literals returns the source text of every literal leaf in source order.
// String literals are returned without quotes.
func Literals(program *ast.Program) []string {
	var out []string
	if program == nil {
		return out
	}
	program.Inspect(func(n *ast.Node) bool {
		if n.Kind.IsLiteral() && n.Value != nil {
			out = append(out, n.Text())
		}
		return true
	})
	return out
}
