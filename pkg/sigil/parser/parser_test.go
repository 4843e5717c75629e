package parser

import (
	"strings"
	"testing"

	"github.com/rdenadai/sigil/pkg/sigil/ast"
	perrors "github.com/rdenadai/sigil/pkg/sigil/errors"
	"github.com/rdenadai/sigil/pkg/sigil/lexer"
)

// Helper to parse source lines and fail on error
func mustParse(t *testing.T, lines ...string) *ast.Program {
	t.Helper()
	tokens, err := lexer.Tokenize("test.sl", lines)
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	program, err := Parse(tokens)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return program
}

// Helper to parse one line and return its first statement
func parseLine(t *testing.T, line string) *ast.Node {
	t.Helper()
	program := mustParse(t, line)
	if len(program.Body) != 3 {
		t.Fatalf("expected statement, NewLine, EOF; got %d nodes:\n%s", len(program.Body), program)
	}
	return program.Body[0]
}

func parseFail(t *testing.T, code string, line, column int, lines ...string) *perrors.SigilError {
	t.Helper()
	tokens, err := lexer.Tokenize("test.sl", lines)
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	program, err := Parse(tokens)
	if err == nil {
		t.Fatalf("expected %s, got program:\n%s", code, program)
	}
	if program != nil {
		t.Errorf("expected nil program on error")
	}
	serr, ok := err.(*perrors.SigilError)
	if !ok {
		t.Fatalf("error is %T, want *errors.SigilError", err)
	}
	if serr.Code != code {
		t.Errorf("Code = %s, want %s (%s)", serr.Code, code, serr.Message)
	}
	if serr.Line != line || serr.Column != column {
		t.Errorf("position = %d:%d, want %d:%d (%s)", serr.Line, serr.Column, line, column, serr.Message)
	}
	return serr
}

func findAll(program *ast.Program, kind ast.Kind) []*ast.Node {
	var found []*ast.Node
	program.Inspect(func(n *ast.Node) bool {
		if n.Kind == kind {
			found = append(found, n)
		}
		return true
	})
	return found
}

func TestLetStatement(t *testing.T) {
	program := mustParse(t, "let x = 42")

	expected := `(VariableDeclaration let x: NONE (NumberLiteral "42"))
(NewLine)
(EOF)`
	if got := program.String(); got != expected {
		t.Errorf("got:\n%s\nwant:\n%s", got, expected)
	}

	decl := program.Body[0]
	binding, ok := decl.Value.(*ast.VariableBinding)
	if !ok {
		t.Fatalf("value is %T, want *ast.VariableBinding", decl.Value)
	}
	if binding.Name != "x" || binding.Type.Annotation != ast.NONE || binding.Const {
		t.Errorf("unexpected binding %+v", binding)
	}
	if decl.Line != 1 || decl.Column != 0 {
		t.Errorf("position = %d:%d, want 1:0", decl.Line, decl.Column)
	}
}

func TestTypedDeclarations(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"let a: int32 = 3", `(VariableDeclaration let a: INT32 (NumberLiteral "3"))`},
		{"const pi: float64 = 3.14", `(VariableDeclaration const pi: FLOAT64 (NumberLiteral "3.14"))`},
		{"let p: Point = Point(3.0, 4.0)", `(VariableDeclaration let p: Point (CallExpression "Point" (NumberLiteral "3.0") (NumberLiteral "4.0")))`},
		{"let c: complex = 2 + 3i", `(VariableDeclaration let c: COMPLEX (BinaryExpression "+" (NumberLiteral "2") (ComplexLiteral "3i")))`},
		{"let greeting: string = 'Hello, World!'", `(VariableDeclaration let greeting: STRING (StringLiteral "Hello, World!"))`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLine(t, tt.input).String(); got != tt.expected {
				t.Errorf("got  %s\nwant %s", got, tt.expected)
			}
		})
	}
}

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", `(BinaryExpression "+" (NumberLiteral "1") (BinaryExpression "*" (NumberLiteral "2") (NumberLiteral "3")))`},
		{"(1 + 2) * 3", `(BinaryExpression "*" (BinaryExpression "+" (NumberLiteral "1") (NumberLiteral "2")) (NumberLiteral "3"))`},
		{"a - b - c", `(BinaryExpression "-" (BinaryExpression "-" (Identifier "a") (Identifier "b")) (Identifier "c"))`},
		{"a // b % c", `(BinaryExpression "%" (BinaryExpression "//" (Identifier "a") (Identifier "b")) (Identifier "c"))`},
		{"-x - 1", `(BinaryExpression "-" (UnaryExpression "-" (Identifier "x")) (NumberLiteral "1"))`},
		{"not not a", `(UnaryExpression NOT (UnaryExpression NOT (Identifier "a")))`},
		{"not a and b or c", `(LogicalExpression OR (LogicalExpression AND (UnaryExpression NOT (Identifier "a")) (Identifier "b")) (Identifier "c"))`},
		{"a <= 3", `(LogicalExpression LESS_EQUAL (Identifier "a") (NumberLiteral "3"))`},
		{"a + 1 == b", `(LogicalExpression EQUAL_EQUAL (BinaryExpression "+" (Identifier "a") (NumberLiteral "1")) (Identifier "b"))`},
		{"c.real == 1.0 and c.imag == 2.0", `(LogicalExpression AND (LogicalExpression EQUAL_EQUAL (ClassMemberAccess "c" (ClassMemberAccess "real")) (NumberLiteral "1.0")) (LogicalExpression EQUAL_EQUAL (ClassMemberAccess "c" (ClassMemberAccess "imag")) (NumberLiteral "2.0")))`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLine(t, tt.input).String(); got != tt.expected {
				t.Errorf("got  %s\nwant %s", got, tt.expected)
			}
		})
	}
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"42", `(NumberLiteral "42")`},
		{"1_000_000", `(NumberLiteral "1_000_000")`},
		{"6.022e23", `(NumberLiteral "6.022e23")`},
		{"3i", `(ComplexLiteral "3i")`},
		{"'hi'", `(StringLiteral "hi")`},
		{"true", `(BooleanLiteral "true")`},
		{"None", `(NoneLiteral "None")`},
		{"...", `(EllipsisLiteral "...")`},
		{"ellipsis", `(EllipsisLiteral "ellipsis")`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLine(t, tt.input).String(); got != tt.expected {
				t.Errorf("got  %s\nwant %s", got, tt.expected)
			}
		})
	}
}

func TestMemberChains(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a", `(Identifier "a")`},
		{"a.b.c", `(ClassMemberAccess "a" (ClassMemberAccess "b" (ClassMemberAccess "c")))`},
		{"p.move(1.0, 2.0)", `(ClassMemberAccess "p" (CallExpression "move" (NumberLiteral "1.0") (NumberLiteral "2.0")))`},
		{"p.display()", `(ClassMemberAccess "p" (CallExpression "display"))`},
		{"a.b().c", `(ClassMemberAccess "a" (ClassMemberAccess "b" (CallExpression "b") (ClassMemberAccess "c")))`},
		{"make(1).x", `(ClassMemberAccess "make" (CallExpression "make" (NumberLiteral "1")) (ClassMemberAccess "x"))`},
		{"self.x", `(ClassMemberAccess "self" (ClassMemberAccess "x"))`},
		{"sum(2, f(3))", `(CallExpression "sum" (NumberLiteral "2") (CallExpression "f" (NumberLiteral "3")))`},
		{"complex(1, 2)", `(CallExpression "complex" (NumberLiteral "1") (NumberLiteral "2"))`},
		{"`f`(1)", `(CallExpression "f" (NumberLiteral "1"))`},
		{"`to list`()", `(CallExpression "to list")`},
		{"`f`(`g`(x))", `(CallExpression "f" (CallExpression "g" (Identifier "x")))`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLine(t, tt.input).String(); got != tt.expected {
				t.Errorf("got  %s\nwant %s", got, tt.expected)
			}
		})
	}
}

func TestAssignment(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x = 1", `(AssignmentExpression (Identifier "x") (NumberLiteral "1"))`},
		{"self.x = self.x + dx", `(AssignmentExpression (ClassMemberAccess "self" (ClassMemberAccess "x")) (BinaryExpression "+" (ClassMemberAccess "self" (ClassMemberAccess "x")) (Identifier "dx")))`},
		{"x = data |> sort", `(AssignmentExpression (Identifier "x") (PipeExpression (Identifier "data") (Identifier "sort")))`},
		{"x = data |> `top n`(3)", `(AssignmentExpression (Identifier "x") (PipeExpression (Identifier "data") (CallExpression "top n" (NumberLiteral "3"))))`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLine(t, tt.input).String(); got != tt.expected {
				t.Errorf("got  %s\nwant %s", got, tt.expected)
			}
		})
	}
}

func TestPipe(t *testing.T) {
	node := parseLine(t, "data |> filter(x) |> show")
	expected := `(PipeExpression (PipeExpression (Identifier "data") (CallExpression "filter" (Identifier "x"))) (Identifier "show"))`
	if got := node.String(); got != expected {
		t.Errorf("got  %s\nwant %s", got, expected)
	}
}

func TestNestedTernary(t *testing.T) {
	node := parseLine(t, "let b = a ? a <= 3 ? 5 : 10 : 20")

	ternary := node.Children[0]
	if ternary.Kind != ast.TernaryExpression || len(ternary.Children) != 3 {
		t.Fatalf("expected 3-child ternary, got %s", ternary)
	}
	inner := ternary.Children[1]
	expected := `(TernaryExpression (LogicalExpression LESS_EQUAL (Identifier "a") (NumberLiteral "3")) (NumberLiteral "5") (NumberLiteral "10"))`
	if got := inner.String(); got != expected {
		t.Errorf("inner ternary:\ngot  %s\nwant %s", got, expected)
	}
	if got := ternary.Children[2].String(); got != `(NumberLiteral "20")` {
		t.Errorf("else branch = %s", got)
	}
}

func TestMultiLineTernary(t *testing.T) {
	program := mustParse(t,
		"fn main() -> none:",
		"    let a: int32 = 3",
		"    let total: int32 = a ? ",
		"        a <= 3 ? 5 ",
		"            : 10 ",
		"        : 20",
		"    if a <= 3:",
		"        print('a is less than or equal to 3')",
	)

	expected := strings.Join([]string{
		`(MainDeclaration MAIN() -> NONE (NewLine) (Indent)`,
		` (VariableDeclaration let a: INT32 (NumberLiteral "3")) (NewLine)`,
		` (VariableDeclaration let total: INT32 (TernaryExpression (Identifier "a") (NewLine) (Indent)`,
		` (TernaryExpression (LogicalExpression LESS_EQUAL (Identifier "a") (NumberLiteral "3")) (NumberLiteral "5") (NewLine) (Indent) (NumberLiteral "10") (NewLine) (Dedent))`,
		` (NumberLiteral "20") (NewLine) (Dedent)))`,
		` (IfStatement (LogicalExpression LESS_EQUAL (Identifier "a") (NumberLiteral "3")) (Indent) (CallExpression "print" (StringLiteral "a is less than or equal to 3")) (NewLine) (Dedent))`,
		` (Dedent))`,
		"\n(EOF)",
	}, "")
	if got := program.String(); got != expected {
		t.Errorf("got:\n%s\nwant:\n%s", got, expected)
	}
}

func TestSingleLineTernaryLeavesLayout(t *testing.T) {
	program := mustParse(t,
		"fn main():",
		"    let x = a ? 1 : 2",
	)
	fn := program.Body[0]
	// NewLine, Indent, decl, NewLine, Dedent
	if len(fn.Children) != 5 {
		t.Fatalf("expected 5 children, got %d: %s", len(fn.Children), fn)
	}
	if fn.Children[3].Kind != ast.NewLine || fn.Children[4].Kind != ast.Dedent {
		t.Errorf("layout after ternary was absorbed: %s", fn)
	}
	if n := len(fn.Children[2].Children[0].Children); n != 3 {
		t.Errorf("single-line ternary has %d children, want 3", n)
	}
}

func TestFunctionDeclarations(t *testing.T) {
	program := mustParse(t,
		"fn sum(a: int32, b: int32) -> int32:",
		"    return a + b",
		"",
		"fn main() -> none:",
		"    let total: int32 = sum(3, 3)",
		"    return",
	)

	expected := `(FunctionDeclaration sum(a: INT32, b: INT32) -> INT32 (NewLine) (Indent) (ReturnStatement RETURN (BinaryExpression "+" (Identifier "a") (Identifier "b"))) (NewLine) (Dedent))
(MainDeclaration MAIN() -> NONE (NewLine) (Indent) (VariableDeclaration let total: INT32 (CallExpression "sum" (NumberLiteral "3") (NumberLiteral "3"))) (NewLine) (ReturnStatement RETURN) (NewLine) (Dedent))
(EOF)`
	if got := program.String(); got != expected {
		t.Errorf("got:\n%s\nwant:\n%s", got, expected)
	}

	main := program.Body[1]
	if main.Kind != ast.MainDeclaration || main.Line != 4 {
		t.Errorf("main = %s at line %d", main.Kind, main.Line)
	}
}

func TestIfElseChain(t *testing.T) {
	program := mustParse(t,
		"if a < 1:",
		"    x = 1",
		"else if a < 2:",
		"    x = 2",
		"else:",
		"    x = 3",
	)

	expected := `(IfStatement (LogicalExpression LESS (Identifier "a") (NumberLiteral "1")) (Indent) (AssignmentExpression (Identifier "x") (NumberLiteral "1")) (NewLine) (Dedent)` +
		` (ElseIfStatement (LogicalExpression LESS (Identifier "a") (NumberLiteral "2")) (Indent) (AssignmentExpression (Identifier "x") (NumberLiteral "2")) (NewLine) (Dedent)` +
		` (ElseStatement (Indent) (AssignmentExpression (Identifier "x") (NumberLiteral "3")) (NewLine) (Dedent))))` +
		"\n(EOF)"
	if got := program.String(); got != expected {
		t.Errorf("got:\n%s\nwant:\n%s", got, expected)
	}

	elseIf := findAll(program, ast.ElseIfStatement)
	if len(elseIf) != 1 || elseIf[0].Line != 3 {
		t.Fatalf("expected one else-if on line 3, got %v", elseIf)
	}
	if cond := elseIf[0].Condition(); cond == nil || cond.Kind != ast.LogicalExpression {
		t.Errorf("else-if condition = %v", cond)
	}
}

func TestLoops(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected string
	}{
		{
			"for",
			[]string{"for item in items:", "    print(item)"},
			`(ForStatement (Identifier "item") (Identifier "items") (Indent) (CallExpression "print" (Identifier "item")) (NewLine) (Dedent))`,
		},
		{
			"loop",
			[]string{"loop:", "    tick()"},
			`(LoopStatement (Indent) (CallExpression "tick") (NewLine) (Dedent))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := mustParse(t, tt.lines...)
			if got := program.Body[0].String(); got != tt.expected {
				t.Errorf("got  %s\nwant %s", got, tt.expected)
			}
		})
	}
}

func TestBlockClosedByEOF(t *testing.T) {
	tokens, err := lexer.Tokenize("test.sl", []string{"loop:", "    tick()"})
	if err != nil {
		t.Fatal(err)
	}
	// Drop the synthesized DEDENT
	var trimmed []lexer.Token
	for _, tok := range tokens {
		if tok.Type != lexer.DEDENT {
			trimmed = append(trimmed, tok)
		}
	}

	program, err := Parse(trimmed)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	expected := "(LoopStatement (Indent) (CallExpression \"tick\") (NewLine))\n(EOF)"
	if got := program.String(); got != expected {
		t.Errorf("got:\n%s\nwant:\n%s", got, expected)
	}
}

func TestLambdas(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"const sum = λ x, y => x + y", `(VariableDeclaration const sum: NONE (LambdaExpression <lambda>(x: NONE, y: NONE) -> NONE (BinaryExpression "+" (Identifier "x") (Identifier "y"))))`},
		{"const sum = Λ x: int32, y: int32 -> int32 => x + y", `(VariableDeclaration const sum: NONE (LambdaExpression <lambda>(x: INT32, y: INT32) -> INT32 (BinaryExpression "+" (Identifier "x") (Identifier "y"))))`},
		{"let f = lambda => 1", `(VariableDeclaration let f: NONE (LambdaExpression <lambda>() -> NONE (NumberLiteral "1")))`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLine(t, tt.input).String(); got != tt.expected {
				t.Errorf("got  %s\nwant %s", got, tt.expected)
			}
		})
	}
}

func TestStringTemplates(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"``", `(StringTemplate (StringLiteral ""))`},
		{"`plain`", `(StringTemplate (StringLiteral "plain"))`},
		{"`Hello, {name}!`", `(StringTemplate (StringLiteral "Hello, ") (Identifier "name") (StringLiteral "!"))`},
		{"`Point({self.x}, {self.y})`", `(StringTemplate (StringLiteral "Point(") (ClassMemberAccess "self" (ClassMemberAccess "x")) (StringLiteral ", ") (ClassMemberAccess "self" (ClassMemberAccess "y")) (StringLiteral ")"))`},
		{"`{ a + 1 }`", `(StringTemplate (BinaryExpression "+" (Identifier "a") (NumberLiteral "1")))`},
		{"`x{}y`", `(StringTemplate (StringLiteral "x") (StringLiteral "") (StringLiteral "y"))`},
		{"`{f('#')}`", `(StringTemplate (CallExpression "f" (StringLiteral "#")))`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLine(t, tt.input).String(); got != tt.expected {
				t.Errorf("got  %s\nwant %s", got, tt.expected)
			}
		})
	}
}

func TestTemplateSpanPositions(t *testing.T) {
	node := parseLine(t, "print(`Hi {a + b}`)")
	template := node.Children[0]
	sum := template.Children[1]
	// The span starts at column 11
	if sum.Line != 1 || sum.Column != 11 {
		t.Errorf("span position = %d:%d, want 1:11", sum.Line, sum.Column)
	}
	if b := sum.Children[1]; b.Column != 15 {
		t.Errorf("b column = %d, want 15", b.Column)
	}
}

func TestClassDeclaration(t *testing.T) {
	program := mustParse(t,
		"class Point:",
		"    pub x: float64",
		"    pub y: float64",
		"",
		"    fn new(x: float64, y: float64) -> Point:",
		"        self.x = x",
		"        self.y = y",
		"",
		"    fn move(dx: float64, dy: float64) -> none:",
		"        self.x = self.x + dx",
		"        self.y = self.y + dy",
		"",
		"    fn display() -> none:",
		"        print(`Point({self.x}, {self.y})`)",
		"",
		"fn main() -> none:",
		"    let p: Point = Point(3.0, 4.0)",
		"    p.move(1.0, 2.0)",
		"    p.display()",
	)

	class := program.Body[0]
	if class.Kind != ast.ClassDeclaration {
		t.Fatalf("first node is %s", class.Kind)
	}
	if got := class.Value.String(); got != "Point" {
		t.Errorf("class header = %q", got)
	}

	attrs := findAll(program, ast.ClassAttribute)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if got := attrs[0].String(); got != "(ClassAttribute pub x: FLOAT64 (NoneLiteral))" {
		t.Errorf("attribute = %s", got)
	}

	methods := findAll(program, ast.ClassMethod)
	if len(methods) != 3 {
		t.Fatalf("expected 3 methods, got %d", len(methods))
	}
	want := []string{
		"new(x: FLOAT64, y: FLOAT64) -> Point",
		"move(dx: FLOAT64, dy: FLOAT64) -> NONE",
		"display() -> NONE",
	}
	for i, m := range methods {
		if got := m.Value.String(); got != want[i] {
			t.Errorf("method %d = %q, want %q", i, got, want[i])
		}
	}

	assign := methods[0].Children[2]
	expected := `(AssignmentExpression (ClassMemberAccess "self" (ClassMemberAccess "x")) (Identifier "x"))`
	if got := assign.String(); got != expected {
		t.Errorf("got  %s\nwant %s", got, expected)
	}
	if assign.Line != 6 || assign.Column != 8 {
		t.Errorf("assignment position = %d:%d, want 6:8", assign.Line, assign.Column)
	}

	templates := findAll(program, ast.StringTemplate)
	if len(templates) != 1 || len(templates[0].Children) != 5 {
		t.Fatalf("expected one 5-part template, got %v", templates)
	}

	last := class.Children[len(class.Children)-1]
	if last.Kind != ast.Dedent {
		t.Errorf("class body should end with Dedent, got %s", last.Kind)
	}
	if program.Body[1].Kind != ast.MainDeclaration {
		t.Errorf("second node is %s, want MainDeclaration", program.Body[1].Kind)
	}
}

func TestClassModifiersAndBases(t *testing.T) {
	program := mustParse(t,
		"class Counter(Base, Mixin):",
		"    static const limit: int32 = 10",
		"    const pub static tag = 'c'",
		"    pub static fn make() -> Counter:",
		"        return Counter()",
	)

	class := program.Body[0]
	if got := class.Value.String(); got != "Counter(Base, Mixin)" {
		t.Errorf("header = %q", got)
	}

	attrs := findAll(program, ast.ClassAttribute)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	limit := attrs[0].Value.(*ast.AttributeInfo)
	if !limit.IsStatic || !limit.IsConst || limit.IsPub || limit.Type.Annotation != ast.INT32 {
		t.Errorf("limit = %+v", limit)
	}
	tag := attrs[1].Value.(*ast.AttributeInfo)
	if !tag.IsStatic || !tag.IsConst || !tag.IsPub {
		t.Errorf("tag = %+v", tag)
	}
	if got := attrs[1].Children[0].String(); got != `(StringLiteral "c")` {
		t.Errorf("tag value = %s", got)
	}

	methods := findAll(program, ast.ClassMethod)
	if len(methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(methods))
	}
	if got := methods[0].Value.String(); got != "pub static make() -> Counter" {
		t.Errorf("method = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	t.Run("match is reserved", func(t *testing.T) {
		parseFail(t, "PARSE-0005", 1, 1, "match x:", "    1")
	})

	t.Run("invalid assignment target", func(t *testing.T) {
		err := parseFail(t, "PARSE-0003", 1, 3, "1 = 2")
		if err.Data["Kind"] != "NumberLiteral" {
			t.Errorf("Kind = %v", err.Data["Kind"])
		}
	})

	t.Run("missing value", func(t *testing.T) {
		err := parseFail(t, "PARSE-0002", 1, 8, "let x =")
		if err.Token != "NEWLINE" || err.Lexeme != "" {
			t.Errorf("token = %s lexeme = %q", err.Token, err.Lexeme)
		}
	})

	t.Run("unclosed paren", func(t *testing.T) {
		err := parseFail(t, "PARSE-0001", 1, 15, "let x = (1 + 2")
		if !strings.Contains(err.Message, "expected RPAREN") {
			t.Errorf("message = %q", err.Message)
		}
	})

	t.Run("keyword typo", func(t *testing.T) {
		err := parseFail(t, "PARSE-0006", 1, 6, "lett x = 5")
		if len(err.Hints) == 0 || err.Hints[0] != "Did you mean 'let'?" {
			t.Errorf("hints = %v", err.Hints)
		}
		if err.Lexeme != "x" {
			t.Errorf("lexeme = %q", err.Lexeme)
		}
	})

	t.Run("missing block header", func(t *testing.T) {
		parseFail(t, "PARSE-0001", 1, 5, "loop", "    tick()")
	})

	t.Run("class without members", func(t *testing.T) {
		parseFail(t, "PARSE-0001", 2, 1, "class Empty:", "x = 1")
	})

	t.Run("bad interpolation", func(t *testing.T) {
		parseFail(t, "PARSE-0002", 1, 10, "x = `{a +}`")
	})

	t.Run("comment inside interpolation", func(t *testing.T) {
		parseFail(t, "PARSE-0001", 1, 9, "x = `{a # b}`")
	})

	t.Run("lex error inside interpolation", func(t *testing.T) {
		parseFail(t, "LEX-0004", 1, 9, "x = `{a $ b}`")
	})
}

func TestEmptyTokenStream(t *testing.T) {
	_, err := Parse(nil)
	if err == nil {
		t.Fatal("expected error for empty token stream")
	}
	serr := err.(*perrors.SigilError)
	if serr.Code != "PARSE-0004" || serr.Line != 0 {
		t.Errorf("got %s at line %d", serr.Code, serr.Line)
	}
}

func TestEOFOnlyProgram(t *testing.T) {
	program := mustParse(t)
	if len(program.Body) != 1 || program.Body[0].Kind != ast.EOF {
		t.Errorf("expected single EOF node, got %s", program)
	}
}

func TestDepthLimit(t *testing.T) {
	tokens, err := lexer.Tokenize("test.sl", []string{"((((1))))"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Parse(tokens, WithMaxDepth(3)); err == nil {
		t.Fatal("expected depth error")
	} else if serr := err.(*perrors.SigilError); serr.Code != "PARSE-0007" {
		t.Errorf("Code = %s, want PARSE-0007", serr.Code)
	}

	if _, err := Parse(tokens); err != nil {
		t.Errorf("default limit rejected shallow input: %v", err)
	}
}

func TestErrorsStrings(t *testing.T) {
	tokens, _ := lexer.Tokenize("test.sl", []string{"1 = 2"})
	p := New(tokens)
	p.ParseProgram()
	errs := p.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got %v", errs)
	}
	if !strings.HasPrefix(errs[0], "line 1, column 3: invalid assignment target") {
		t.Errorf("error = %q", errs[0])
	}
}

func TestParseSource(t *testing.T) {
	program, err := ParseSource("test.sl", "let x = 1\r\nlet y = x\n")
	if err != nil {
		t.Fatalf("ParseSource error: %v", err)
	}
	if got := len(findAll(program, ast.VariableDeclaration)); got != 2 {
		t.Errorf("expected 2 declarations, got %d", got)
	}

	if _, err := ParseSource("test.sl", "let s = 'open"); err == nil {
		t.Error("expected lexer error")
	}
}
