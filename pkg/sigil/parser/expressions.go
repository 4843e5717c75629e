package parser

import (
	"github.com/rdenadai/sigil/pkg/sigil/ast"
	perrors "github.com/rdenadai/sigil/pkg/sigil/errors"
	"github.com/rdenadai/sigil/pkg/sigil/lexer"
)

var comparisonOperators = []lexer.TokenType{
	lexer.EQUAL_EQUAL,
	lexer.NOT_EQUAL,
	lexer.LESS,
	lexer.LESS_EQUAL,
	lexer.GREATER,
	lexer.GREATER_EQUAL,
}

var multiplicativeOperators = []lexer.TokenType{
	lexer.MULTIPLY,
	lexer.DIV,
	lexer.FLOOR_DIV,
	lexer.POWER,
	lexer.MOD,
}

// parseExpression parses a full expression, assignment included.
func (p *Parser) parseExpression() *ast.Node {
	if !p.enter() {
		return nil
	}
	defer p.leave()
	return p.parseAssignment()
}

// parseAssignment parses `target = value`. Only names and member accesses
// can be assigned.
func (p *Parser) parseAssignment() *ast.Node {
	left := p.parsePipe()
	if left == nil {
		return nil
	}

	eq, ok := p.accept(lexer.EQUAL)
	if !ok {
		return left
	}
	if left.Kind != ast.Identifier && left.Kind != ast.ClassMemberAccess {
		p.errorAt("PARSE-0003", eq, map[string]any{"Kind": left.Kind.String()})
		return nil
	}

	right := p.parsePipe()
	if right == nil {
		return nil
	}
	return nodeAt(ast.AssignmentExpression, nil, left, left, right)
}

// parsePipe parses `value |> stage |> stage`. A stage is a call, a
// backtick call or a bare function name.
func (p *Parser) parsePipe() *ast.Node {
	left := p.parseTernary()
	if left == nil {
		return nil
	}

	for p.curIs(lexer.PIPE) {
		p.advance()

		tok := p.cur()
		var stage *ast.Node
		switch {
		case tok.Type == lexer.IDENTIFIER && p.peek(1).Type == lexer.LPAREN:
			stage = p.parseCall()
		case tok.Type == lexer.IDENTIFIER:
			p.advance()
			stage = ast.New(ast.Identifier, ast.Text(tok.Literal), tok)
		case tok.Type == lexer.BACKSTICK && p.isTemplateCall():
			stage = p.parseTemplateCall()
		default:
			p.expected("function after |>")
		}
		if stage == nil {
			return nil
		}
		left = nodeAt(ast.PipeExpression, nil, left, left, stage)
	}

	return left
}

// parseTernary parses `cond ? then : else`. Both branches may be ternaries.
// Layout tokens after `?`, around `:` and, while absorbed INDENTs remain
// open, after the else branch become children so that multi-line chains keep
// their shape.
func (p *Parser) parseTernary() *ast.Node {
	cond := p.parseOr()
	if cond == nil {
		return nil
	}
	if _, ok := p.accept(lexer.QUESTION); !ok {
		return cond
	}

	if !p.enter() {
		return nil
	}
	defer p.leave()

	if p.ternaryNest == 0 {
		p.layoutBalance = 0
	}
	p.ternaryNest++
	defer func() { p.ternaryNest-- }()

	children := []*ast.Node{cond}
	children = append(children, p.captureLayout()...)

	then := p.parseTernary()
	if then == nil {
		return nil
	}
	children = append(children, then)
	children = append(children, p.captureLayout()...)

	if _, ok := p.expect(lexer.COLON); !ok {
		return nil
	}
	children = append(children, p.captureLayout()...)

	otherwise := p.parseTernary()
	if otherwise == nil {
		return nil
	}
	children = append(children, otherwise)
	children = append(children, p.closeLayout()...)

	return nodeAt(ast.TernaryExpression, nil, cond, children...)
}

// captureLayout consumes NEWLINE, INDENT and DEDENT tokens inside a ternary.
func (p *Parser) captureLayout() []*ast.Node {
	var nodes []*ast.Node
	for p.curIs(lexer.NEWLINE, lexer.INDENT, lexer.DEDENT) {
		tok := p.advance()
		switch tok.Type {
		case lexer.INDENT:
			p.layoutBalance++
		case lexer.DEDENT:
			p.layoutBalance--
		}
		nodes = append(nodes, layoutNode(tok))
	}
	return nodes
}

// closeLayout consumes NEWLINE and DEDENT tokens after a ternary branch
// until the INDENTs the chain absorbed are closed again.
func (p *Parser) closeLayout() []*ast.Node {
	var nodes []*ast.Node
	for p.layoutBalance > 0 && p.curIs(lexer.NEWLINE, lexer.DEDENT) {
		tok := p.advance()
		if tok.Type == lexer.DEDENT {
			p.layoutBalance--
		}
		nodes = append(nodes, layoutNode(tok))
	}
	return nodes
}

// parseOr parses logical OR
func (p *Parser) parseOr() *ast.Node {
	return p.parseLogical(p.parseAnd, lexer.OR)
}

// parseAnd parses logical AND
func (p *Parser) parseAnd() *ast.Node {
	return p.parseLogical(p.parseComparison, lexer.AND)
}

// parseComparison parses comparisons. They are logical expressions tagged
// with the operator's token type.
func (p *Parser) parseComparison() *ast.Node {
	return p.parseLogical(p.parseAdditive, comparisonOperators...)
}

func (p *Parser) parseLogical(next func() *ast.Node, operators ...lexer.TokenType) *ast.Node {
	left := next()
	if left == nil {
		return nil
	}
	for p.curIs(operators...) {
		op := p.advance()
		right := next()
		if right == nil {
			return nil
		}
		left = nodeAt(ast.LogicalExpression, ast.Tag(op.Type), left, left, right)
	}
	return left
}

// parseAdditive parses + and -
func (p *Parser) parseAdditive() *ast.Node {
	return p.parseBinary(p.parseMultiplicative, lexer.PLUS, lexer.MINUS)
}

// parseMultiplicative parses * / // ** %
func (p *Parser) parseMultiplicative() *ast.Node {
	return p.parseBinary(p.parseUnary, multiplicativeOperators...)
}

func (p *Parser) parseBinary(next func() *ast.Node, operators ...lexer.TokenType) *ast.Node {
	left := next()
	if left == nil {
		return nil
	}
	for p.curIs(operators...) {
		op := p.advance()
		right := next()
		if right == nil {
			return nil
		}
		left = nodeAt(ast.BinaryExpression, ast.Text(op.Literal), left, left, right)
	}
	return left
}

// parseUnary parses prefix `not` and `-`
func (p *Parser) parseUnary() *ast.Node {
	tok := p.cur()
	if tok.Type != lexer.NOT && tok.Type != lexer.MINUS {
		return p.parseFactor()
	}

	if !p.enter() {
		return nil
	}
	defer p.leave()

	p.advance()
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}

	var op ast.Value = ast.Text(tok.Literal)
	if tok.Type == lexer.NOT {
		op = ast.Tag(lexer.NOT)
	}
	return ast.New(ast.UnaryExpression, op, tok, operand)
}

// parseFactor parses literals, names, calls, member chains, groups,
// lambdas and string templates.
func (p *Parser) parseFactor() *ast.Node {
	tok := p.cur()

	switch tok.Type {
	case lexer.INTEGER, lexer.FLOAT:
		p.advance()
		return ast.New(ast.NumberLiteral, ast.Text(tok.Literal), tok)
	case lexer.COMPLEX:
		p.advance()
		return ast.New(ast.ComplexLiteral, ast.Text(tok.Literal), tok)
	case lexer.STRING:
		p.advance()
		return ast.New(ast.StringLiteral, ast.Text(tok.Literal), tok)
	case lexer.BOOLEAN:
		p.advance()
		return ast.New(ast.BooleanLiteral, ast.Text(tok.Literal), tok)
	case lexer.NONE:
		p.advance()
		return ast.New(ast.NoneLiteral, ast.Text(tok.Literal), tok)
	case lexer.ELLIPSIS:
		p.advance()
		return ast.New(ast.EllipsisLiteral, ast.Text(tok.Literal), tok)
	case lexer.IDENTIFIER, lexer.SELF:
		return p.parseMemberChain()
	case lexer.LPAREN:
		p.advance()
		inner := p.parseExpression()
		if inner == nil {
			return nil
		}
		if _, ok := p.expect(lexer.RPAREN); !ok {
			return nil
		}
		return inner
	case lexer.LAMBDA, lexer.LAMBDA_SPECIAL:
		return p.parseLambda()
	case lexer.BACKSTICK:
		if p.isTemplateCall() {
			return p.parseTemplateCall()
		}
		return p.parseTemplate()
	case lexer.EOF:
		p.errorAt("PARSE-0004", tok, nil)
		return nil
	}

	// Conversion calls such as complex(1, 2)
	if tok.Type.IsTypeKeyword() && p.peek(1).Type == lexer.LPAREN {
		return p.parseMemberChain()
	}

	p.errorAt("PARSE-0002", tok, map[string]any{"Got": describe(tok)})
	return nil
}

// parseCall parses `name(args)`
func (p *Parser) parseCall() *ast.Node {
	name := p.advance()
	p.advance() // (
	args, ok := p.parseArguments()
	if !ok {
		return nil
	}
	return ast.New(ast.CallExpression, ast.Text(name.Literal), name, args...)
}

// isTemplateCall reports whether the backtick string at the cursor is
// followed by `(`.
func (p *Parser) isTemplateCall() bool {
	for n := 1; ; n++ {
		switch p.peek(n).Type {
		case lexer.BACKSTICK:
			return p.peek(n+1).Type == lexer.LPAREN
		case lexer.EOF, lexer.NEWLINE:
			return false
		}
	}
}

// parseTemplateCall parses `name`(args). The call is named by the raw text
// between the backticks.
func (p *Parser) parseTemplateCall() *ast.Node {
	open := p.cur()
	name := p.peek(1).Literal
	if p.parseTemplate() == nil {
		return nil
	}
	p.advance() // (
	args, ok := p.parseArguments()
	if !ok {
		return nil
	}
	return ast.New(ast.CallExpression, ast.Text(name), open, args...)
}

// parseArguments parses a comma-separated argument list after `(` up to
// and including `)`.
func (p *Parser) parseArguments() ([]*ast.Node, bool) {
	var args []*ast.Node
	if _, ok := p.accept(lexer.RPAREN); ok {
		return args, true
	}
	for {
		arg := p.parseExpression()
		if arg == nil {
			return nil, false
		}
		args = append(args, arg)
		if _, ok := p.accept(lexer.COMMA); !ok {
			break
		}
	}
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil, false
	}
	return args, true
}

// memberLink is one `.name` or `.name(args)` step of a member chain.
type memberLink struct {
	tok  lexer.Token
	call bool
	args []*ast.Node
}

// node builds the link's subtree given the already built rest of the chain.
// A call that ends the chain is a bare CallExpression; a call followed by
// more links is wrapped in a ClassMemberAccess holding the call and the rest.
func (m memberLink) node(next *ast.Node) *ast.Node {
	name := ast.Text(m.tok.Literal)
	if !m.call {
		n := ast.New(ast.ClassMemberAccess, name, m.tok)
		if next != nil {
			n.Append(next)
		}
		return n
	}
	call := ast.New(ast.CallExpression, name, m.tok, m.args...)
	if next == nil {
		return call
	}
	return ast.New(ast.ClassMemberAccess, name, m.tok, call, next)
}

// parseMemberChain parses a name or call optionally followed by `.member`
// and `.method(args)` links. The chain becomes a right-nested tree rooted at
// the base: a.b.c is ClassMemberAccess(a)[ClassMemberAccess(b)[ClassMemberAccess(c)]].
func (p *Parser) parseMemberChain() *ast.Node {
	base := memberLink{tok: p.advance()}
	if p.curIs(lexer.LPAREN) {
		p.advance()
		args, ok := p.parseArguments()
		if !ok {
			return nil
		}
		base.call, base.args = true, args
	}

	var links []memberLink
	for p.curIs(lexer.DOT) {
		p.advance()
		member, ok := p.expect(lexer.IDENTIFIER)
		if !ok {
			return nil
		}
		link := memberLink{tok: member}
		if p.curIs(lexer.LPAREN) {
			p.advance()
			args, ok := p.parseArguments()
			if !ok {
				return nil
			}
			link.call, link.args = true, args
		}
		links = append(links, link)
	}

	if len(links) == 0 {
		if base.call {
			return base.node(nil)
		}
		return ast.New(ast.Identifier, ast.Text(base.tok.Literal), base.tok)
	}

	var next *ast.Node
	for i := len(links) - 1; i >= 0; i-- {
		next = links[i].node(next)
	}
	if base.call {
		return base.node(next)
	}
	return ast.New(ast.ClassMemberAccess, ast.Text(base.tok.Literal), base.tok, next)
}

// parseLambda parses `lambda params [-> type] => body`. Parameters are
// optional.
func (p *Parser) parseLambda() *ast.Node {
	tok := p.advance()

	sig := &ast.FunctionSignature{Name: "<lambda>"}
	if p.curIs(lexer.IDENTIFIER) {
		params, ok := p.parseParams()
		if !ok {
			return nil
		}
		sig.Params = params
	}
	if _, ok := p.accept(lexer.ARROW); ok {
		if sig.ReturnType, ok = p.parseTypeRef(); !ok {
			return nil
		}
	}
	if _, ok := p.expect(lexer.DOUBLE_ARROW); !ok {
		return nil
	}

	body := p.parseExpression()
	if body == nil {
		return nil
	}
	return ast.New(ast.LambdaExpression, sig, tok, body)
}

// parseTemplate parses a backtick string. Literal segments become
// StringLiterals and every {…} span is parsed as an expression.
func (p *Parser) parseTemplate() *ast.Node {
	open := p.advance()
	node := ast.New(ast.StringTemplate, nil, open)

	tok := p.cur()
	switch tok.Type {
	case lexer.STRING:
		p.advance()
		node.Append(ast.New(ast.StringLiteral, ast.Text(tok.Literal), tok))
	case lexer.STRING_TEMPLATE:
		p.advance()
		for _, part := range lexer.SplitTemplate(tok.Literal) {
			if !part.Span {
				segment := tok
				segment.Column += part.Offset
				node.Append(ast.New(ast.StringLiteral, ast.Text(part.Text), segment))
				continue
			}
			expr := p.parseSpan()
			if expr == nil {
				return nil
			}
			node.Append(expr)
		}
	case lexer.BACKSTICK:
	default:
		p.expected("string template")
		return nil
	}

	if _, ok := p.expect(lexer.BACKSTICK); !ok {
		return nil
	}
	return node
}

// parseSpan parses the token the lexer emitted for one {…} span. The span
// text is tokenized again and parsed as a standalone expression, with
// positions shifted onto the original line.
func (p *Parser) parseSpan() *ast.Node {
	span := p.cur()
	switch span.Type {
	case lexer.STRING:
		p.advance()
		return ast.New(ast.StringLiteral, ast.Text(""), span)
	case lexer.IDENTIFIER:
		p.advance()
	default:
		p.expected("interpolation")
		return nil
	}

	// The line lexer would read a # as a comment and drop the rest
	if at := commentStart([]rune(span.Literal)); at >= 0 {
		hash := lexer.Token{File: span.File, Line: span.Line, Column: span.Column + at, Type: lexer.ILLEGAL, Literal: "#"}
		p.errorAt("PARSE-0001", hash, map[string]any{
			"Expected": "end of interpolation",
			"Got":      describe(hash),
		})
		return nil
	}

	tokens, err := lexer.Tokenize(span.File, []string{span.Literal})
	if err != nil {
		if serr, ok := err.(*perrors.SigilError); ok {
			p.adopt(serr.WithPosition(span.Line, span.Column+serr.Column))
		}
		return nil
	}
	for i := range tokens {
		tokens[i].Line = span.Line
		tokens[i].Column += span.Column
	}

	sub := New(tokens, WithMaxDepth(p.maxDepth))
	sub.depth = p.depth
	expr := sub.parseExpression()
	if expr != nil && !sub.curIs(lexer.NEWLINE) {
		sub.expected("end of interpolation")
	}
	if sub.failed() {
		p.adopt(sub.structuredErrors[0])
		return nil
	}
	return expr
}

// commentStart returns the offset of the first # outside a quoted string,
// or -1.
func commentStart(text []rune) int {
	quoted := false
	for i := 0; i < len(text); i++ {
		switch {
		case quoted && text[i] == '\\':
			i++
		case text[i] == '\'':
			quoted = !quoted
		case !quoted && text[i] == '#':
			return i
		}
	}
	return -1
}
