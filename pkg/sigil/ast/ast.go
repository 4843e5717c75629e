// Package ast defines the syntax tree produced by the Sigil parser.
//
// Every node shares one shape: a Kind, an optional Value payload and an
// ordered list of children. Layout tokens inside blocks are kept as leaf
// nodes (NewLine, Indent, Dedent, EOF) so the tree preserves the structure
// of the source it came from.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rdenadai/sigil/pkg/sigil/lexer"
)

// Kind identifies what a node represents
type Kind int

const (
	ProgramNode Kind = iota
	BinaryExpression
	LogicalExpression
	UnaryExpression
	CallExpression
	Identifier
	BooleanLiteral
	NumberLiteral
	ComplexLiteral
	StringLiteral
	EllipsisLiteral
	NoneLiteral
	StringTemplate
	IfStatement
	ElseIfStatement
	ElseStatement
	TernaryExpression
	PipeExpression
	AssignmentExpression
	MatchStatement
	LoopStatement
	ForStatement
	MainDeclaration
	VariableDeclaration
	FunctionDeclaration
	ClassDeclaration
	ClassAttribute
	ClassMethod
	ClassMemberAccess
	LambdaExpression
	ReturnStatement
	NewLine
	EOF
	Indent
	Dedent
)

var kindNames = [...]string{
	ProgramNode:          "Program",
	BinaryExpression:     "BinaryExpression",
	LogicalExpression:    "LogicalExpression",
	UnaryExpression:      "UnaryExpression",
	CallExpression:       "CallExpression",
	Identifier:           "Identifier",
	BooleanLiteral:       "BooleanLiteral",
	NumberLiteral:        "NumberLiteral",
	ComplexLiteral:       "ComplexLiteral",
	StringLiteral:        "StringLiteral",
	EllipsisLiteral:      "EllipsisLiteral",
	NoneLiteral:          "NoneLiteral",
	StringTemplate:       "StringTemplate",
	IfStatement:          "IfStatement",
	ElseIfStatement:      "ElseIfStatement",
	ElseStatement:        "ElseStatement",
	TernaryExpression:    "TernaryExpression",
	PipeExpression:       "PipeExpression",
	AssignmentExpression: "AssignmentExpression",
	MatchStatement:       "MatchStatement",
	LoopStatement:        "LoopStatement",
	ForStatement:         "ForStatement",
	MainDeclaration:      "MainDeclaration",
	VariableDeclaration:  "VariableDeclaration",
	FunctionDeclaration:  "FunctionDeclaration",
	ClassDeclaration:     "ClassDeclaration",
	ClassAttribute:       "ClassAttribute",
	ClassMethod:          "ClassMethod",
	ClassMemberAccess:    "ClassMemberAccess",
	LambdaExpression:     "LambdaExpression",
	ReturnStatement:      "ReturnStatement",
	NewLine:              "NewLine",
	EOF:                  "EOF",
	Indent:               "Indent",
	Dedent:               "Dedent",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindFromString returns the kind with the given name.
func KindFromString(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// IsLayout reports whether nodes of this kind mirror layout tokens.
func (k Kind) IsLayout() bool {
	switch k {
	case NewLine, EOF, Indent, Dedent:
		return true
	}
	return false
}

// IsLiteral reports whether nodes of this kind are literal leaves.
func (k Kind) IsLiteral() bool {
	switch k {
	case BooleanLiteral, NumberLiteral, ComplexLiteral, StringLiteral, EllipsisLiteral, NoneLiteral:
		return true
	}
	return false
}

// Value is the payload carried by a node. The set of implementations is
// closed: Text, Tag, *FunctionSignature, *VariableBinding, *AttributeInfo,
// *MethodInfo, *ClassHeader and *Node.
type Value interface {
	fmt.Stringer
	value()
}

// Text is raw source text: a literal, an operator or a name.
type Text string

// Tag marks a node with the keyword or operator that produced it.
type Tag lexer.TokenType

// Annotation is a built-in type annotation
type Annotation int

const (
	NONE Annotation = iota
	BYTE
	INT32
	INT64
	FLOAT32
	FLOAT64
	COMPLEX
	BOOL
	STRING
	ELLIPSIS
	CALLABLE
	OBJECT
)

var annotationNames = [...]string{
	NONE:     "NONE",
	BYTE:     "BYTE",
	INT32:    "INT32",
	INT64:    "INT64",
	FLOAT32:  "FLOAT32",
	FLOAT64:  "FLOAT64",
	COMPLEX:  "COMPLEX",
	BOOL:     "BOOL",
	STRING:   "STRING",
	ELLIPSIS: "ELLIPSIS",
	CALLABLE: "CALLABLE",
	OBJECT:   "OBJECT",
}

func (a Annotation) String() string {
	if a >= 0 && int(a) < len(annotationNames) {
		return annotationNames[a]
	}
	return fmt.Sprintf("Annotation(%d)", int(a))
}

var typeKeywords = map[lexer.TokenType]Annotation{
	lexer.BYTE_TYPE:     BYTE,
	lexer.INT32_TYPE:    INT32,
	lexer.INT64_TYPE:    INT64,
	lexer.FLOAT32_TYPE:  FLOAT32,
	lexer.FLOAT64_TYPE:  FLOAT64,
	lexer.COMPLEX_TYPE:  COMPLEX,
	lexer.BOOL_TYPE:     BOOL,
	lexer.STRING_TYPE:   STRING,
	lexer.CALLABLE_TYPE: CALLABLE,
	lexer.OBJECT_TYPE:   OBJECT,
	lexer.NONE:          NONE,
	lexer.ELLIPSIS:      ELLIPSIS,
}

// AnnotationFor maps a token that may appear in type position to its
// annotation.
func AnnotationFor(tt lexer.TokenType) (Annotation, bool) {
	a, ok := typeKeywords[tt]
	return a, ok
}

// TypeRef is a type annotation. User-defined types are OBJECT with Name set.
type TypeRef struct {
	Annotation Annotation
	Name       string
}

func (t TypeRef) String() string {
	if t.Annotation == OBJECT && t.Name != "" {
		return t.Name
	}
	return t.Annotation.String()
}

// Param is one function parameter
type Param struct {
	Name string
	Type TypeRef
}

// FunctionSignature describes a function, method, lambda or main declaration.
type FunctionSignature struct {
	Name       string
	Params     []Param
	ReturnType TypeRef
}

// VariableBinding is the payload of a VariableDeclaration.
type VariableBinding struct {
	Name  string
	Type  TypeRef
	Const bool
}

// AttributeInfo is the payload of a ClassAttribute.
type AttributeInfo struct {
	Name     string
	Type     TypeRef
	IsStatic bool
	IsPub    bool
	IsConst  bool
}

// MethodInfo is the payload of a ClassMethod.
type MethodInfo struct {
	Signature *FunctionSignature
	IsStatic  bool
	IsPub     bool
}

// ClassHeader is the payload of a ClassDeclaration.
type ClassHeader struct {
	Name  string
	Bases []string
}

func (Text) value()               {}
func (Tag) value()                {}
func (*FunctionSignature) value() {}
func (*VariableBinding) value()   {}
func (*AttributeInfo) value()     {}
func (*MethodInfo) value()        {}
func (*ClassHeader) value()       {}
func (*Node) value()              {}

func (t Text) String() string { return strconv.Quote(string(t)) }

func (t Tag) String() string { return lexer.TokenType(t).String() }

func (f *FunctionSignature) String() string {
	var sb strings.Builder
	sb.WriteString(f.Name)
	sb.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteString(": ")
		sb.WriteString(p.Type.String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(f.ReturnType.String())
	return sb.String()
}

func (v *VariableBinding) String() string {
	keyword := "let"
	if v.Const {
		keyword = "const"
	}
	return fmt.Sprintf("%s %s: %s", keyword, v.Name, v.Type)
}

func (a *AttributeInfo) String() string {
	return fmt.Sprintf("%s%s: %s", modifiers(a.IsPub, a.IsStatic, a.IsConst), a.Name, a.Type)
}

func (m *MethodInfo) String() string {
	return modifiers(m.IsPub, m.IsStatic, false) + m.Signature.String()
}

func (c *ClassHeader) String() string {
	if len(c.Bases) == 0 {
		return c.Name
	}
	return c.Name + "(" + strings.Join(c.Bases, ", ") + ")"
}

func modifiers(pub, static, isConst bool) string {
	var sb strings.Builder
	if pub {
		sb.WriteString("pub ")
	}
	if static {
		sb.WriteString("static ")
	}
	if isConst {
		sb.WriteString("const ")
	}
	return sb.String()
}

// Node is a single syntax tree node. Line is 1-based and Column 0-based,
// both taken from the first token of the construct.
type Node struct {
	Kind     Kind
	Value    Value
	Children []*Node
	Line     int
	Column   int
}

// New creates a node positioned at tok.
func New(kind Kind, value Value, tok lexer.Token, children ...*Node) *Node {
	return &Node{
		Kind:     kind,
		Value:    value,
		Children: children,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}

// Append adds children in order
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// Text returns the node's value when it is Text, or "".
func (n *Node) Text() string {
	if t, ok := n.Value.(Text); ok {
		return string(t)
	}
	return ""
}

// Condition returns the condition of an IfStatement or ElseIfStatement.
func (n *Node) Condition() *Node {
	if c, ok := n.Value.(*Node); ok {
		return c
	}
	return nil
}

// String renders the node as a one-line s-expression.
func (n *Node) String() string {
	var sb strings.Builder
	n.writeSexp(&sb)
	return sb.String()
}

func (n *Node) writeSexp(sb *strings.Builder) {
	if n == nil {
		sb.WriteString("()")
		return
	}
	sb.WriteString("(")
	sb.WriteString(n.Kind.String())
	if n.Value != nil {
		sb.WriteString(" ")
		if cond, ok := n.Value.(*Node); ok {
			cond.writeSexp(sb)
		} else {
			sb.WriteString(n.Value.String())
		}
	}
	for _, child := range n.Children {
		sb.WriteString(" ")
		child.writeSexp(sb)
	}
	sb.WriteString(")")
}

// Program is the root of every syntax tree
type Program struct {
	Body []*Node
}

// Append adds a top-level statement
func (p *Program) Append(nodes ...*Node) {
	p.Body = append(p.Body, nodes...)
}

// Root wraps the program body in a Program node.
func (p *Program) Root() *Node {
	return &Node{Kind: ProgramNode, Children: p.Body, Line: 1}
}

// String renders one s-expression per top-level node.
func (p *Program) String() string {
	var sb strings.Builder
	for i, n := range p.Body {
		if i > 0 {
			sb.WriteString("\n")
		}
		n.writeSexp(&sb)
	}
	return sb.String()
}

// Walk visits n and its descendants depth-first, conditions before
// children. Returning false from fn skips the node's subtree.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	if cond := n.Condition(); cond != nil {
		Walk(cond, fn)
	}
	for _, child := range n.Children {
		Walk(child, fn)
	}
}

// Inspect walks every top-level node of the program.
func (p *Program) Inspect(fn func(*Node) bool) {
	for _, n := range p.Body {
		Walk(n, fn)
	}
}
