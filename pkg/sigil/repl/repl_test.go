package repl

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"empty", "", false},
		{"simple statement", "let x = 1", false},
		{"block header", "fn main():", true},
		{"block body", "fn main():\n    let x = 1", true},
		{"block closed by empty line", "fn main():\n    let x = 1\n", false},
		{"open paren", "print(1,", true},
		{"closed paren", "print(1, 2)", false},
		{"paren in string", "print('(')", false},
		{"open template", "let s = `abc", true},
		{"trailing ternary", "let x = a ?", true},
		{"colon in comment", "let x = 1 # note:", false},
		{"colon in string", "let s = 'a:'", false},
		{"braces in template", "print(`{a}`)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsMoreInput(tt.input); got != tt.expected {
				t.Errorf("needsMoreInput(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFilterCompletions(t *testing.T) {
	tests := []struct {
		line     string
		expected []string
	}{
		{"", nil},
		{"let x = ", nil},
		{"le", []string{"let"}},
		{"x = tr", []string{"x = try", "x = true"}},
		{"fu", []string{"function"}},
	}

	for _, tt := range tests {
		got := filterCompletions(tt.line)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("filterCompletions(%q) = %v, want %v", tt.line, got, tt.expected)
		}
	}
}

func TestHandleReplCommand(t *testing.T) {
	tests := []struct {
		cmd      string
		expected Mode
		output   string
	}{
		{":sexp", ModeSexp, "Output mode: sexp"},
		{":tokens", ModeTokens, "Output mode: tokens"},
		{":fmt", ModeSource, "Output mode: fmt"},
		{":mode", ModeJSON, "Output mode: json"},
		{":help", ModeJSON, "REPL Commands:"},
		{":nope", ModeJSON, "Unknown command: :nope"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			var out bytes.Buffer
			got := handleReplCommand(tt.cmd, &out, ModeJSON)
			if got != tt.expected {
				t.Errorf("mode = %s, want %s", got, tt.expected)
			}
			if !strings.Contains(out.String(), tt.output) {
				t.Errorf("output %q does not contain %q", out.String(), tt.output)
			}
		})
	}
}

func TestEvalModes(t *testing.T) {
	tests := []struct {
		mode     Mode
		input    string
		contains []string
	}{
		{ModeAST, "let x = 42", []string{"Program @1:0", `NumberLiteral "42" @1:8`}},
		{ModeSexp, "let x = 42", []string{`(VariableDeclaration let x: NONE (NumberLiteral "42"))`}},
		{ModeJSON, "let x = 42", []string{`"kind": "VariableDeclaration"`}},
		{ModeTokens, "let x = 42", []string{`1:0 LET "let"`, `1:8 INTEGER "42"`, "2:0 EOF"}},
		{ModeSource, "let   x=(1+2)*3", []string{"let x = (1 + 2) * 3"}},
		{ModeSymbols, "fn f(a: int32) -> int32:\n    return a\n", []string{"f: function f(a: INT32) -> INT32"}},
		{ModeSymbols, "1 + 1", []string{"(no declarations)"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			var out bytes.Buffer
			Eval(tt.input, tt.mode, &out)
			for _, want := range tt.contains {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output %q does not contain %q", out.String(), want)
				}
			}
		})
	}
}

func TestEvalPrintsPrettyErrors(t *testing.T) {
	var out bytes.Buffer
	Eval("lett x = 5", ModeAST, &out)
	got := out.String()
	for _, want := range []string{"Parser error", "Did you mean 'let'?"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q does not contain %q", got, want)
		}
	}
}
