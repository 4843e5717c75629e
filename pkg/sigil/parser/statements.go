package parser

import (
	"github.com/rdenadai/sigil/pkg/sigil/ast"
	perrors "github.com/rdenadai/sigil/pkg/sigil/errors"
	"github.com/rdenadai/sigil/pkg/sigil/lexer"
)

// parseStatement parses statements
func (p *Parser) parseStatement() *ast.Node {
	tok := p.cur()
	switch tok.Type {
	case lexer.LET, lexer.CONST:
		return p.simpleStatement(p.parseVariableDeclaration)
	case lexer.FN, lexer.FUNCTION:
		return p.parseFunctionDeclaration()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.LOOP:
		return p.parseLoopStatement()
	case lexer.FOR:
		return p.parseForStatement()
	case lexer.MATCH:
		p.errorAt("PARSE-0005", tok, map[string]any{"Construct": "match"})
		return nil
	case lexer.RETURN:
		return p.simpleStatement(p.parseReturnStatement)
	case lexer.CLASS:
		return p.parseClassDeclaration()
	case lexer.NEWLINE, lexer.INDENT, lexer.DEDENT, lexer.EOF:
		p.advance()
		return layoutNode(tok)
	}
	return p.simpleStatement(p.parseExpression)
}

// simpleStatement parses a single-line statement and checks that nothing
// follows it on the same line.
func (p *Parser) simpleStatement(parse func() *ast.Node) *ast.Node {
	stmt := parse()
	if stmt == nil || !p.endOfStatement(stmt) {
		return nil
	}
	return stmt
}

// endOfStatement reports whether the statement just parsed is properly
// terminated, recording PARSE-0006 otherwise. A statement that already
// consumed its closing layout (a multi-line ternary) is terminated.
func (p *Parser) endOfStatement(stmt *ast.Node) bool {
	switch p.prev().Type {
	case lexer.NEWLINE, lexer.DEDENT:
		return true
	}
	tok := p.cur()
	if tok.Type.IsLayout() || tok.Type == lexer.EOF {
		return true
	}

	err := p.errorAt("PARSE-0006", tok, map[string]any{"Got": describe(tok)})
	if err != nil && stmt.Kind == ast.Identifier {
		if suggestion := perrors.FindClosestMatch(stmt.Text(), perrors.SigilKeywords); suggestion != "" {
			err.Hints = append(err.Hints, "Did you mean '"+suggestion+"'?")
		}
	}
	return false
}

// parseVariableDeclaration parses `let name [: type] = expr` and its const form.
func (p *Parser) parseVariableDeclaration() *ast.Node {
	tok := p.advance()

	name, ok := p.expect(lexer.IDENTIFIER)
	if !ok {
		return nil
	}

	binding := &ast.VariableBinding{Name: name.Literal, Const: tok.Type == lexer.CONST}
	if _, ok := p.accept(lexer.COLON); ok {
		if binding.Type, ok = p.parseTypeRef(); !ok {
			return nil
		}
	}

	if _, ok := p.expect(lexer.EQUAL); !ok {
		return nil
	}

	value := p.parseExpression()
	if value == nil {
		return nil
	}

	return ast.New(ast.VariableDeclaration, binding, tok, value)
}

// parseTypeRef parses a type in annotation position: a built-in type word,
// none, ellipsis or a user type name.
func (p *Parser) parseTypeRef() (ast.TypeRef, bool) {
	tok := p.cur()
	if tok.Type == lexer.IDENTIFIER {
		p.advance()
		return ast.TypeRef{Annotation: ast.OBJECT, Name: tok.Literal}, true
	}
	if annotation, ok := ast.AnnotationFor(tok.Type); ok {
		p.advance()
		return ast.TypeRef{Annotation: annotation}, true
	}
	p.expected("type")
	return ast.TypeRef{}, false
}

// parseParams parses `name [: type]` separated by commas.
func (p *Parser) parseParams() ([]ast.Param, bool) {
	var params []ast.Param
	for {
		name, ok := p.expect(lexer.IDENTIFIER)
		if !ok {
			return nil, false
		}
		param := ast.Param{Name: name.Literal}
		if _, ok := p.accept(lexer.COLON); ok {
			if param.Type, ok = p.parseTypeRef(); !ok {
				return nil, false
			}
		}
		params = append(params, param)

		if _, ok := p.accept(lexer.COMMA); !ok {
			return params, true
		}
	}
}

// parseFunctionDeclaration parses `fn name(params) [-> type]:` and its body.
// `fn main()` produces a MainDeclaration.
func (p *Parser) parseFunctionDeclaration() *ast.Node {
	tok := p.advance()

	kind := ast.FunctionDeclaration
	sig := &ast.FunctionSignature{}
	if _, ok := p.accept(lexer.MAIN); ok {
		kind = ast.MainDeclaration
		sig.Name = lexer.MAIN.String()
	} else {
		name, ok := p.expect(lexer.IDENTIFIER)
		if !ok {
			return nil
		}
		sig.Name = name.Literal
	}

	if _, ok := p.expect(lexer.LPAREN); !ok {
		return nil
	}
	if !p.curIs(lexer.RPAREN) {
		params, ok := p.parseParams()
		if !ok {
			return nil
		}
		sig.Params = params
	}
	if _, ok := p.expect(lexer.RPAREN); !ok {
		return nil
	}

	if _, ok := p.accept(lexer.ARROW); ok {
		if sig.ReturnType, ok = p.parseTypeRef(); !ok {
			return nil
		}
	}

	if _, ok := p.expect(lexer.COLON); !ok {
		return nil
	}
	newline, ok := p.expect(lexer.NEWLINE)
	if !ok {
		return nil
	}

	body, ok := p.parseWrappedBlock()
	if !ok {
		return nil
	}

	node := ast.New(kind, sig, tok, layoutNode(newline))
	node.Append(body...)
	return node
}

// parseBlockHeader consumes the `:` NEWLINE that opens every block.
func (p *Parser) parseBlockHeader() bool {
	if _, ok := p.expect(lexer.COLON); !ok {
		return false
	}
	_, ok := p.expect(lexer.NEWLINE)
	return ok
}

// parseWrappedBlock parses INDENT statements DEDENT. A block closed by EOF
// leaves the EOF in place for the enclosing statement loop.
func (p *Parser) parseWrappedBlock() ([]*ast.Node, bool) {
	indent, ok := p.expect(lexer.INDENT)
	if !ok {
		return nil, false
	}

	body := []*ast.Node{layoutNode(indent)}
	for !p.curIs(lexer.DEDENT, lexer.EOF) {
		stmt := p.parseStatement()
		if stmt == nil {
			return nil, false
		}
		body = append(body, stmt)
	}

	closing := p.advance()
	if closing.Type == lexer.DEDENT {
		body = append(body, layoutNode(closing))
	} else {
		p.rewind()
	}
	return body, true
}

// parseIfStatement parses an if / else if / else chain. Each else-if is
// appended to the children of the previous link; a final else ends the chain.
func (p *Parser) parseIfStatement() *ast.Node {
	tok := p.advance()

	cond := p.parseExpression()
	if cond == nil || !p.parseBlockHeader() {
		return nil
	}
	body, ok := p.parseWrappedBlock()
	if !ok {
		return nil
	}

	ifNode := ast.New(ast.IfStatement, cond, tok, body...)

	tail := ifNode
	for p.curIs(lexer.ELSE) {
		elseTok := p.advance()

		if _, ok := p.accept(lexer.IF); ok {
			cond := p.parseExpression()
			if cond == nil || !p.parseBlockHeader() {
				return nil
			}
			body, ok := p.parseWrappedBlock()
			if !ok {
				return nil
			}
			elseIf := ast.New(ast.ElseIfStatement, cond, elseTok, body...)
			tail.Append(elseIf)
			tail = elseIf
			continue
		}

		if !p.parseBlockHeader() {
			return nil
		}
		body, ok := p.parseWrappedBlock()
		if !ok {
			return nil
		}
		tail.Append(ast.New(ast.ElseStatement, nil, elseTok, body...))
		break
	}

	return ifNode
}

// parseLoopStatement parses an unconditional `loop:` block.
func (p *Parser) parseLoopStatement() *ast.Node {
	tok := p.advance()
	if !p.parseBlockHeader() {
		return nil
	}
	body, ok := p.parseWrappedBlock()
	if !ok {
		return nil
	}
	return ast.New(ast.LoopStatement, nil, tok, body...)
}

// parseForStatement parses `for name in iterable:` and its block.
func (p *Parser) parseForStatement() *ast.Node {
	tok := p.advance()

	iter, ok := p.expect(lexer.IDENTIFIER)
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.IN); !ok {
		return nil
	}
	iterable := p.parseExpression()
	if iterable == nil || !p.parseBlockHeader() {
		return nil
	}
	body, ok := p.parseWrappedBlock()
	if !ok {
		return nil
	}

	node := ast.New(ast.ForStatement, nil, tok,
		ast.New(ast.Identifier, ast.Text(iter.Literal), iter),
		iterable,
	)
	node.Append(body...)
	return node
}

// parseReturnStatement parses `return [expr]`.
func (p *Parser) parseReturnStatement() *ast.Node {
	tok := p.advance()
	node := ast.New(ast.ReturnStatement, ast.Tag(lexer.RETURN), tok)

	if next := p.cur().Type; next.IsLayout() || next == lexer.EOF {
		return node
	}

	value := p.parseExpression()
	if value == nil {
		return nil
	}
	node.Append(value)
	return node
}

// parseClassDeclaration parses a class header and its indented members.
func (p *Parser) parseClassDeclaration() *ast.Node {
	tok := p.advance()

	name, ok := p.expect(lexer.IDENTIFIER)
	if !ok {
		return nil
	}
	header := &ast.ClassHeader{Name: name.Literal}

	if _, ok := p.accept(lexer.LPAREN); ok {
		for {
			base, ok := p.expect(lexer.IDENTIFIER)
			if !ok {
				return nil
			}
			header.Bases = append(header.Bases, base.Literal)
			if _, ok := p.accept(lexer.COMMA); !ok {
				break
			}
		}
		if _, ok := p.expect(lexer.RPAREN); !ok {
			return nil
		}
	}

	if !p.parseBlockHeader() {
		return nil
	}
	indent, ok := p.expect(lexer.INDENT)
	if !ok {
		return nil
	}

	node := ast.New(ast.ClassDeclaration, header, tok, layoutNode(indent))
	for !p.curIs(lexer.DEDENT) {
		if p.curIs(lexer.EOF) {
			p.expected(lexer.DEDENT.String())
			return nil
		}
		if newline, ok := p.accept(lexer.NEWLINE); ok {
			node.Append(layoutNode(newline))
			continue
		}
		member := p.parseClassMember()
		if member == nil {
			return nil
		}
		node.Append(member)
	}
	node.Append(layoutNode(p.advance()))

	return node
}

// parseClassMember parses one attribute or method with its modifiers.
func (p *Parser) parseClassMember() *ast.Node {
	start := p.cur()

	var isStatic, isPub, isConst bool
modifiers:
	for {
		switch p.cur().Type {
		case lexer.STATIC:
			isStatic = true
		case lexer.PUB:
			isPub = true
		case lexer.CONST:
			isConst = true
		default:
			break modifiers
		}
		p.advance()
	}

	if p.curIs(lexer.FN, lexer.FUNCTION) {
		fn := p.parseFunctionDeclaration()
		if fn == nil {
			return nil
		}
		sig := fn.Value.(*ast.FunctionSignature)
		return ast.New(ast.ClassMethod, &ast.MethodInfo{
			Signature: sig,
			IsStatic:  isStatic,
			IsPub:     isPub,
		}, start, fn.Children...)
	}

	name, ok := p.expect(lexer.IDENTIFIER)
	if !ok {
		return nil
	}
	attr := &ast.AttributeInfo{
		Name:     name.Literal,
		IsStatic: isStatic,
		IsPub:    isPub,
		IsConst:  isConst,
	}
	if _, ok := p.accept(lexer.COLON); ok {
		if attr.Type, ok = p.parseTypeRef(); !ok {
			return nil
		}
	}

	// Uninitialised attributes hold a NoneLiteral without text
	value := ast.New(ast.NoneLiteral, nil, name)
	if _, ok := p.accept(lexer.EQUAL); ok {
		if value = p.parseExpression(); value == nil {
			return nil
		}
	}

	node := ast.New(ast.ClassAttribute, attr, start, value)
	if !p.endOfStatement(node) {
		return nil
	}
	return node
}
