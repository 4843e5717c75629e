package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/rdenadai/sigil/pkg/sigil/ast"
	perrors "github.com/rdenadai/sigil/pkg/sigil/errors"
)

const pointSource = `class Point:
    pub x: float64
    pub y: float64
    fn move(dx: float64, dy: float64) -> none:
        self.x = self.x + dx

fn main() -> none:
    let p: Point = Point(3.0, 4.0)
    p.move(1.0, 2.0)
`

func TestCompileStages(t *testing.T) {
	tests := []struct {
		stop       Stage
		hasProgram bool
		hasSymbols bool
		hasIR      bool
	}{
		{StageTokens, false, false, false},
		{StageParse, true, false, false},
		{StageAnalyze, true, true, false},
		{StageGenerate, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.stop.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Stop = tt.stop
			result, err := Compile("point.sl", pointSource, opts)
			if err != nil {
				t.Fatalf("Compile error: %v", err)
			}
			if len(result.Tokens) == 0 {
				t.Error("expected tokens")
			}
			if (result.Program != nil) != tt.hasProgram {
				t.Errorf("program present = %v, want %v", result.Program != nil, tt.hasProgram)
			}
			if (result.Symbols != nil) != tt.hasSymbols {
				t.Errorf("symbols present = %v, want %v", result.Symbols != nil, tt.hasSymbols)
			}
			if (result.IR != "") != tt.hasIR {
				t.Errorf("IR present = %v, want %v", result.IR != "", tt.hasIR)
			}
		})
	}
}

func TestCompileReturnsSigilErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{"lex", "let s = 'open\n", "LEX-0001"},
		{"parse", "let = 1\n", "PARSE-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Compile("bad.sl", tt.source, DefaultOptions())
			if err == nil {
				t.Fatal("expected error")
			}
			var serr *perrors.SigilError
			if !errors.As(err, &serr) {
				t.Fatalf("error is %T, want *errors.SigilError", err)
			}
			if serr.Code != tt.code {
				t.Errorf("Code = %s, want %s", serr.Code, tt.code)
			}
			if result == nil || result.Program != nil {
				t.Errorf("expected partial result without program")
			}
		})
	}
}

func TestCompileMaxDepth(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxDepth = 2
	_, err := Compile("deep.sl", "let x = (((1)))\n", opts)
	var serr *perrors.SigilError
	if !errors.As(err, &serr) || serr.Code != "PARSE-0007" {
		t.Errorf("expected PARSE-0007, got %v", err)
	}
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(*ast.Program) (*SymbolTable, error) {
	return nil, errors.New("boom")
}

func TestCompileWrapsBackEndErrors(t *testing.T) {
	opts := DefaultOptions()
	opts.Analyzer = failingAnalyzer{}
	_, err := Compile("x.sl", "let x = 1\n", opts)
	if err == nil || !strings.Contains(err.Error(), "analyze x.sl: boom") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStubGenerator(t *testing.T) {
	ir, err := StubGenerator{Module: "point", Triple: "x86_64-unknown-linux-gnu"}.Generate(&ast.Program{})
	if err != nil {
		t.Fatal(err)
	}
	expected := "; ModuleID = \"point\"\ntarget triple = \"x86_64-unknown-linux-gnu\"\ntarget datalayout = \"\"\n"
	if ir != expected {
		t.Errorf("expected %q, got %q", expected, ir)
	}

	if HostTriple() == "" {
		t.Error("HostTriple should not be empty")
	}
}

func TestDefaultModuleName(t *testing.T) {
	opts := DefaultOptions()
	opts.Generator = nil
	result, err := Compile("src/hello.sigil", "let x = 1\n", opts)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(result.IR, "; ModuleID = \"hello\"") {
		t.Errorf("IR = %q", result.IR)
	}
}

func TestNopAnalyzer(t *testing.T) {
	st, err := NopAnalyzer{}.Analyze(&ast.Program{})
	if err != nil || st.Len() != 0 {
		t.Errorf("expected empty table, got %d symbols, err %v", st.Len(), err)
	}
}

func TestDeclarationAnalyzer(t *testing.T) {
	opts := DefaultOptions()
	opts.Analyzer = DeclarationAnalyzer{}
	result, err := Compile("point.sl", pointSource, opts)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, sym := range result.Symbols.All() {
		names = append(names, sym.Name+":"+sym.Kind.String())
	}
	expected := "MAIN:function Point:class Point.move:method Point.x:attribute Point.y:attribute"
	if got := strings.Join(names, " "); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}

	move, ok := result.Symbols.Lookup("Point.move")
	if !ok || move.Type != "move(dx: FLOAT64, dy: FLOAT64) -> NONE" || move.Line != 4 {
		t.Errorf("Point.move = %+v", move)
	}
}

func TestDeclarationAnalyzerDuplicates(t *testing.T) {
	opts := DefaultOptions()
	opts.Analyzer = DeclarationAnalyzer{}
	_, err := Compile("dup.sl", "let x = 1\nconst x = 2\n", opts)
	if err == nil || !strings.Contains(err.Error(), `constant "x" already declared on line 1`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsSource(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		expected   bool
	}{
		{"a.sl", nil, true},
		{"dir/b.sigil", nil, true},
		{"c.go", nil, false},
		{"d.sx", []string{".sx"}, true},
		{"e.sl", []string{".sx"}, false},
	}

	for _, tt := range tests {
		if got := IsSource(tt.path, tt.extensions); got != tt.expected {
			t.Errorf("IsSource(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.expected)
		}
	}
}
