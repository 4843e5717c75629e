// Package parser builds a Sigil syntax tree from a token stream.
//
// The parser is a hand-written recursive descent parser with one function
// per precedence level. It stops at the first error: the failing function
// records a structured error and returns nil, and every caller unwinds.
package parser

import (
	"fmt"
	"strings"

	"github.com/rdenadai/sigil/pkg/sigil/ast"
	perrors "github.com/rdenadai/sigil/pkg/sigil/errors"
	"github.com/rdenadai/sigil/pkg/sigil/lexer"
)

// MaxDepth is the default limit on expression nesting.
const MaxDepth = 256

// Parser represents the parser
type Parser struct {
	tokens []lexer.Token
	pos    int

	maxDepth int
	depth    int

	// Layout captured by a ternary chain. INDENTs absorbed inside the chain
	// must be matched by DEDENTs before the chain gives layout back.
	ternaryNest   int
	layoutBalance int

	structuredErrors []*perrors.SigilError
}

// Option configures a Parser
type Option func(*Parser)

// WithMaxDepth overrides the expression nesting limit.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// New creates a new parser over a complete token stream.
func New(tokens []lexer.Token, opts ...Option) *Parser {
	p := &Parser{
		tokens:   tokens,
		maxDepth: MaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses tokens and returns the program or the first error.
func Parse(tokens []lexer.Token, opts ...Option) (*ast.Program, error) {
	p := New(tokens, opts...)
	program := p.ParseProgram()
	if errs := p.StructuredErrors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return program, nil
}

// ParseSource tokenizes and parses source text.
func ParseSource(filename, source string, opts ...Option) (*ast.Program, error) {
	tokens, err := lexer.TokenizeSource(filename, source)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, opts...)
}

// Errors returns parser errors as strings (convenience method for tests).
// Prefer StructuredErrors() for production code.
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		if err.Line > 0 {
			result[i] = fmt.Sprintf("line %d, column %d: %s", err.Line, err.Column, err.Message)
		} else {
			result[i] = err.Message
		}
	}
	return result
}

// StructuredErrors returns parser errors as structured SigilError objects.
func (p *Parser) StructuredErrors() []*perrors.SigilError {
	return p.structuredErrors
}

// ParseProgram parses the token stream and returns the AST. Parsing stops
// at the first error; the partial program is still returned.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}

	if len(p.tokens) == 0 {
		p.errorAt("PARSE-0004", p.cur(), nil)
		return program
	}

	for p.pos < len(p.tokens) && !p.failed() {
		stmt := p.parseStatement()
		if stmt == nil {
			break
		}
		program.Append(stmt)
	}

	return program
}

// failed reports whether an error has been recorded.
func (p *Parser) failed() bool {
	return len(p.structuredErrors) > 0
}

// errorAt records an error positioned at tok. Only the first error is kept;
// later calls return nil.
func (p *Parser) errorAt(code string, tok lexer.Token, data map[string]any) *perrors.SigilError {
	if p.failed() {
		return nil
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Category"] = tok.Category().String()

	column := 0
	if tok.Line > 0 {
		column = tok.Column + 1
	}
	err := perrors.NewWithPosition(code, tok.Line, column, data)
	err.File = tok.File
	err.Token = tok.Type.String()
	if !tok.Type.IsLayout() && tok.Type != lexer.EOF {
		err.Lexeme = tok.Literal
	}

	p.structuredErrors = append(p.structuredErrors, err)
	return err
}

// adopt records an error raised by a nested lexer or parser.
func (p *Parser) adopt(err *perrors.SigilError) {
	if p.failed() || err == nil {
		return
	}
	p.structuredErrors = append(p.structuredErrors, err)
}

// ----------------------------------------------------------------------------
// Cursor
// ----------------------------------------------------------------------------

func (p *Parser) cur() lexer.Token {
	return p.peek(0)
}

func (p *Parser) peek(n int) lexer.Token {
	if i := p.pos + n; i >= 0 && i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.endToken()
}

// endToken stands in for the token past the end of an exhausted stream.
func (p *Parser) endToken() lexer.Token {
	tok := lexer.Token{Type: lexer.EOF}
	if n := len(p.tokens); n > 0 {
		last := p.tokens[n-1]
		tok.File, tok.Line, tok.Column = last.File, last.Line, last.Column
	}
	return tok
}

func (p *Parser) prev() lexer.Token {
	if p.pos > 0 && p.pos <= len(p.tokens) {
		return p.tokens[p.pos-1]
	}
	return lexer.Token{Type: lexer.ILLEGAL}
}

func (p *Parser) advance() lexer.Token {
	tok := p.cur()
	p.pos++
	return tok
}

// rewind steps back one token. Used only to leave a block-closing EOF for
// the enclosing statement loop.
func (p *Parser) rewind() {
	if p.pos > 0 {
		p.pos--
	}
}

func (p *Parser) curIs(types ...lexer.TokenType) bool {
	tt := p.cur().Type
	for _, t := range types {
		if tt == t {
			return true
		}
	}
	return false
}

// accept consumes the current token if it has one of the given types.
func (p *Parser) accept(types ...lexer.TokenType) (lexer.Token, bool) {
	if p.curIs(types...) {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

// expect consumes the current token or records an expected-token error.
func (p *Parser) expect(types ...lexer.TokenType) (lexer.Token, bool) {
	if tok, ok := p.accept(types...); ok {
		return tok, true
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	p.expected(strings.Join(names, " or "))
	return lexer.Token{}, false
}

// expected records PARSE-0001 against the current token.
func (p *Parser) expected(what string) {
	tok := p.cur()
	p.errorAt("PARSE-0001", tok, map[string]any{
		"Expected": what,
		"Got":      describe(tok),
	})
}

// enter guards recursion depth; every successful enter needs a leave.
func (p *Parser) enter() bool {
	if p.depth >= p.maxDepth {
		p.errorAt("PARSE-0007", p.cur(), map[string]any{"Limit": p.maxDepth})
		return false
	}
	p.depth++
	return true
}

func (p *Parser) leave() {
	p.depth--
}

// describe renders a token for error messages.
func describe(tok lexer.Token) string {
	if tok.Type.IsLayout() || tok.Type == lexer.EOF {
		return tok.Type.String()
	}
	return fmt.Sprintf("%s '%s'", tok.Type, tok.Literal)
}

// layoutNode mirrors a NEWLINE, INDENT, DEDENT or EOF token.
func layoutNode(tok lexer.Token) *ast.Node {
	var kind ast.Kind
	switch tok.Type {
	case lexer.NEWLINE:
		kind = ast.NewLine
	case lexer.INDENT:
		kind = ast.Indent
	case lexer.DEDENT:
		kind = ast.Dedent
	default:
		kind = ast.EOF
	}
	return ast.New(kind, nil, tok)
}

// nodeAt creates a node positioned where pos starts.
func nodeAt(kind ast.Kind, value ast.Value, pos *ast.Node, children ...*ast.Node) *ast.Node {
	return &ast.Node{
		Kind:     kind,
		Value:    value,
		Children: children,
		Line:     pos.Line,
		Column:   pos.Column,
	}
}
