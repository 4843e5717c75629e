package format

import (
	"strings"
	"unicode"

	"github.com/rdenadai/sigil/pkg/sigil/ast"
	"github.com/rdenadai/sigil/pkg/sigil/lexer"
)

// Expression precedence, lowest first
const (
	precLowest = iota
	precAssign
	precPipe
	precTernary
	precOr
	precAnd
	precCompare
	precAdd
	precMul
	precUnary
	precPrimary
)

// Source re-prints a program as Sigil source. Indentation, spacing and
// blank lines are regenerated and literal text is written exactly as it was
// lexed. Multi-line ternaries keep their line breaks, with the colon leading
// its continuation line.
func Source(program *ast.Program) string {
	if program == nil {
		return ""
	}
	p := NewPrinter()
	p.formatBody(program.Body, true)
	return p.String()
}

// FormatNode formats a single statement or expression.
func FormatNode(node *ast.Node) string {
	if node == nil {
		return ""
	}
	p := NewPrinter()
	if isStatement(node) {
		p.formatStatement(node)
		return strings.TrimSuffix(p.String(), "\n")
	}
	return expr(node, precLowest)
}

// formatBody prints a statement list. Top-level functions and classes are
// separated from their neighbours by blank lines.
func (p *Printer) formatBody(nodes []*ast.Node, topLevel bool) {
	var prev *ast.Node
	for _, n := range nodes {
		if n.Kind.IsLayout() || n.Kind == ast.EOF {
			continue
		}
		if prev != nil && (isDefinition(n) || isDefinition(prev)) && (topLevel || n.Kind == ast.ClassMethod) {
			p.blankLines(BlankLinesBetweenDefs)
		}
		p.formatStatement(n)
		prev = n
	}
}

func isDefinition(n *ast.Node) bool {
	switch n.Kind {
	case ast.FunctionDeclaration, ast.MainDeclaration, ast.ClassDeclaration, ast.ClassMethod:
		return true
	}
	return false
}

func isStatement(n *ast.Node) bool {
	switch n.Kind {
	case ast.VariableDeclaration, ast.FunctionDeclaration, ast.MainDeclaration,
		ast.ClassDeclaration, ast.ClassAttribute, ast.ClassMethod,
		ast.IfStatement, ast.LoopStatement, ast.ForStatement, ast.ReturnStatement:
		return true
	}
	return false
}

func (p *Printer) formatStatement(n *ast.Node) {
	switch n.Kind {
	case ast.VariableDeclaration:
		p.formatVariableDeclaration(n)
	case ast.FunctionDeclaration, ast.MainDeclaration:
		p.formatFunction(n, "")
	case ast.ClassDeclaration:
		p.formatClass(n)
	case ast.ClassAttribute:
		p.formatAttribute(n)
	case ast.ClassMethod:
		p.formatMethod(n)
	case ast.IfStatement:
		p.formatIf(n, "if ")
	case ast.LoopStatement:
		p.line("loop:")
		p.formatBlock(n.Children)
	case ast.ForStatement:
		p.formatFor(n)
	case ast.ReturnStatement:
		if len(n.Children) == 0 {
			p.line("return")
		} else {
			p.line("return " + expr(n.Children[0], precLowest))
		}
	default:
		p.line(expr(n, precLowest))
	}
}

func (p *Printer) formatBlock(children []*ast.Node) {
	p.indentInc()
	p.formatBody(children, false)
	p.indentDec()
}

func (p *Printer) formatVariableDeclaration(n *ast.Node) {
	binding := n.Value.(*ast.VariableBinding)

	var sb strings.Builder
	if binding.Const {
		sb.WriteString("const ")
	} else {
		sb.WriteString("let ")
	}
	sb.WriteString(binding.Name)
	if binding.Type.Annotation != ast.NONE {
		sb.WriteString(": ")
		sb.WriteString(typeName(binding.Type))
	}
	sb.WriteString(" = ")
	if len(n.Children) > 0 {
		sb.WriteString(expr(n.Children[0], precLowest))
	}
	p.line(sb.String())
}

func (p *Printer) formatFunction(n *ast.Node, modifiers string) {
	sig := n.Value.(*ast.FunctionSignature)

	name := sig.Name
	if n.Kind == ast.MainDeclaration {
		name = "main"
	}
	p.line(modifiers + "fn " + name + "(" + params(sig.Params) + ") -> " + typeName(sig.ReturnType) + ":")
	p.formatBlock(n.Children)
}

func (p *Printer) formatClass(n *ast.Node) {
	header := n.Value.(*ast.ClassHeader)
	line := "class " + header.Name
	if len(header.Bases) > 0 {
		line += "(" + strings.Join(header.Bases, ", ") + ")"
	}
	p.line(line + ":")
	p.formatBlock(n.Children)
}

func (p *Printer) formatAttribute(n *ast.Node) {
	attr := n.Value.(*ast.AttributeInfo)

	var sb strings.Builder
	sb.WriteString(modifierPrefix(attr.IsStatic, attr.IsPub, attr.IsConst))
	sb.WriteString(attr.Name)
	if attr.Type.Annotation != ast.NONE {
		sb.WriteString(": ")
		sb.WriteString(typeName(attr.Type))
	}
	if len(n.Children) > 0 {
		value := n.Children[0]
		if value.Kind != ast.NoneLiteral || value.Value != nil {
			sb.WriteString(" = ")
			sb.WriteString(expr(value, precLowest))
		}
	}
	p.line(sb.String())
}

func (p *Printer) formatMethod(n *ast.Node) {
	info := n.Value.(*ast.MethodInfo)
	fn := &ast.Node{Kind: ast.FunctionDeclaration, Value: info.Signature, Children: n.Children}
	p.formatFunction(fn, modifierPrefix(info.IsStatic, info.IsPub, false))
}

// formatIf prints an if or else-if link and then the rest of its chain.
func (p *Printer) formatIf(n *ast.Node, keyword string) {
	p.line(keyword + expr(n.Condition(), precLowest) + ":")

	var next *ast.Node
	body := make([]*ast.Node, 0, len(n.Children))
	for _, child := range n.Children {
		if child.Kind == ast.ElseIfStatement || child.Kind == ast.ElseStatement {
			next = child
			continue
		}
		body = append(body, child)
	}
	p.formatBlock(body)

	switch {
	case next == nil:
	case next.Kind == ast.ElseIfStatement:
		p.formatIf(next, "else if ")
	default:
		p.line("else:")
		p.formatBlock(next.Children)
	}
}

func (p *Printer) formatFor(n *ast.Node) {
	if len(n.Children) < 2 {
		return
	}
	p.line("for " + n.Children[0].Text() + " in " + expr(n.Children[1], precLowest) + ":")
	p.formatBlock(n.Children[2:])
}

func modifierPrefix(isStatic, isPub, isConst bool) string {
	var sb strings.Builder
	if isPub {
		sb.WriteString("pub ")
	}
	if isStatic {
		sb.WriteString("static ")
	}
	if isConst {
		sb.WriteString("const ")
	}
	return sb.String()
}

func typeName(t ast.TypeRef) string {
	if t.Annotation == ast.OBJECT && t.Name != "" {
		return t.Name
	}
	return strings.ToLower(t.Annotation.String())
}

func params(list []ast.Param) string {
	parts := make([]string, len(list))
	for i, param := range list {
		parts[i] = param.Name
		if param.Type.Annotation != ast.NONE {
			parts[i] += ": " + typeName(param.Type)
		}
	}
	return strings.Join(parts, ", ")
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// expr renders an expression, adding parentheses when its precedence is
// below minPrec.
func expr(n *ast.Node, minPrec int) string {
	s, prec := exprPrec(n)
	if prec < minPrec {
		return "(" + s + ")"
	}
	return s
}

func exprPrec(n *ast.Node) (string, int) {
	switch n.Kind {
	case ast.NumberLiteral, ast.ComplexLiteral, ast.BooleanLiteral,
		ast.NoneLiteral, ast.EllipsisLiteral, ast.Identifier:
		return n.Text(), precPrimary
	case ast.StringLiteral:
		return "'" + n.Text() + "'", precPrimary
	case ast.StringTemplate:
		return template(n), precPrimary
	case ast.CallExpression, ast.ClassMemberAccess:
		return chain(n), precPrimary

	case ast.UnaryExpression:
		operand := expr(n.Children[0], precUnary)
		if n.Text() == "-" {
			// "--" would lex as a decrement
			if strings.HasPrefix(operand, "-") {
				operand = "(" + operand + ")"
			}
			return "-" + operand, precUnary
		}
		return "not " + operand, precUnary

	case ast.BinaryExpression:
		prec := precAdd
		if op := n.Text(); op != "+" && op != "-" {
			prec = precMul
		}
		return infix(n, n.Text(), prec), prec

	case ast.LogicalExpression:
		tt := lexer.TokenType(n.Value.(ast.Tag))
		op, _ := tt.Lexeme()
		prec := precCompare
		switch tt {
		case lexer.OR:
			prec = precOr
		case lexer.AND:
			prec = precAnd
		}
		return infix(n, op, prec), prec

	case ast.TernaryExpression:
		w := &ternaryWriter{}
		w.ternary(n)
		return strings.TrimRight(w.sb.String(), " \n"), precTernary

	case ast.PipeExpression:
		return expr(n.Children[0], precPipe) + " |> " + expr(n.Children[1], precPrimary), precPipe

	case ast.AssignmentExpression:
		return expr(n.Children[0], precPrimary) + " = " + expr(n.Children[1], precPipe), precAssign

	case ast.LambdaExpression:
		return lambda(n), precLowest
	}

	return n.String(), precPrimary
}

// infix renders a left-associative binary operator
func infix(n *ast.Node, op string, prec int) string {
	return expr(n.Children[0], prec) + " " + op + " " + expr(n.Children[1], prec+1)
}

// chain renders calls and member accesses. A member access holding a call
// and a next link renders as call.next.
func chain(n *ast.Node) string {
	switch {
	case n.Kind == ast.CallExpression:
		args := make([]string, len(n.Children))
		for i, arg := range n.Children {
			args[i] = expr(arg, precLowest)
		}
		return callName(n.Text()) + "(" + strings.Join(args, ", ") + ")"
	case len(n.Children) == 2:
		return chain(n.Children[0]) + "." + chain(n.Children[1])
	case len(n.Children) == 1:
		return n.Text() + "." + chain(n.Children[0])
	default:
		return n.Text()
	}
}

// callName quotes call targets that are not plain names in backticks.
func callName(name string) string {
	tt := lexer.LookupWord(name)
	if isWord(name) && (tt == lexer.IDENTIFIER || tt.IsTypeKeyword()) {
		return name
	}
	return "`" + name + "`"
}

func isWord(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r > unicode.MaxASCII, unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

// ternaryWriter renders a ternary chain, turning the layout nodes captured
// between its parts back into line breaks.
type ternaryWriter struct {
	sb    strings.Builder
	depth int
	fresh bool // at the start of a continuation line
}

func (w *ternaryWriter) ternary(n *ast.Node) {
	var parts []*ast.Node
	var layout [3][]*ast.Node
	for _, child := range n.Children {
		if !child.Kind.IsLayout() {
			parts = append(parts, child)
			continue
		}
		if i := len(parts) - 1; i >= 0 && i < len(layout) {
			layout[i] = append(layout[i], child)
		}
	}
	if len(parts) != 3 {
		return
	}

	w.word(expr(parts[0], precOr))
	w.word("?")
	w.layout(layout[0])
	w.branch(parts[1])
	w.layout(layout[1])
	w.word(":")
	w.branch(parts[2])
	w.layout(layout[2])
}

func (w *ternaryWriter) branch(n *ast.Node) {
	if n.Kind == ast.TernaryExpression {
		w.ternary(n)
		return
	}
	w.word(expr(n, precTernary))
}

func (w *ternaryWriter) word(s string) {
	if !w.fresh && w.sb.Len() > 0 {
		w.sb.WriteString(" ")
	}
	w.sb.WriteString(s)
	w.fresh = false
}

// layout breaks the line if the nodes hold a NewLine, indenting to the
// depth left after their Indents and Dedents.
func (w *ternaryWriter) layout(nodes []*ast.Node) {
	broke := false
	for _, n := range nodes {
		switch n.Kind {
		case ast.NewLine:
			broke = true
		case ast.Indent:
			w.depth++
		case ast.Dedent:
			if w.depth > 0 {
				w.depth--
			}
		}
	}
	if broke {
		w.sb.WriteString("\n" + strings.Repeat(IndentString, w.depth))
		w.fresh = true
	}
}

func lambda(n *ast.Node) string {
	sig := n.Value.(*ast.FunctionSignature)

	var sb strings.Builder
	sb.WriteString("lambda")
	if len(sig.Params) > 0 {
		sb.WriteString(" ")
		sb.WriteString(params(sig.Params))
	}
	if sig.ReturnType.Annotation != ast.NONE {
		sb.WriteString(" -> ")
		sb.WriteString(typeName(sig.ReturnType))
	}
	sb.WriteString(" => ")
	if len(n.Children) > 0 {
		sb.WriteString(expr(n.Children[0], precLowest))
	}
	return sb.String()
}

// template renders a string template. Empty literal segments between other
// parts come from {} spans.
func template(n *ast.Node) string {
	var sb strings.Builder
	sb.WriteString("`")
	for _, part := range n.Children {
		if part.Kind != ast.StringLiteral {
			sb.WriteString("{")
			sb.WriteString(expr(part, precLowest))
			sb.WriteString("}")
			continue
		}
		if part.Text() == "" && len(n.Children) > 1 {
			sb.WriteString("{}")
			continue
		}
		sb.WriteString(part.Text())
	}
	sb.WriteString("`")
	return sb.String()
}
