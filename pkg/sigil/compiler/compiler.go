// Package compiler runs the Sigil pipeline: tokenize, parse, analyze and
// generate. Semantic analysis and code generation sit behind interfaces so
// drivers can plug in real back ends.
package compiler

import (
	"fmt"
	"strings"

	"github.com/rdenadai/sigil/pkg/sigil/ast"
	"github.com/rdenadai/sigil/pkg/sigil/lexer"
	"github.com/rdenadai/sigil/pkg/sigil/parser"
)

// Stage identifies a pipeline step
type Stage int

const (
	StageTokens Stage = iota
	StageParse
	StageAnalyze
	StageGenerate
)

func (s Stage) String() string {
	switch s {
	case StageTokens:
		return "tokens"
	case StageParse:
		return "parse"
	case StageAnalyze:
		return "analyze"
	case StageGenerate:
		return "generate"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Options configures a compilation
type Options struct {
	Stop      Stage // last stage to run; the zero value runs only the lexer
	MaxDepth  int   // parser nesting limit, parser.MaxDepth when zero
	Analyzer  Analyzer
	Generator Generator
}

// DefaultOptions runs every stage with the stub back ends.
func DefaultOptions() Options {
	return Options{
		Stop:      StageGenerate,
		Analyzer:  NopAnalyzer{},
		Generator: StubGenerator{Module: "sigil"},
	}
}

// Result holds the output of every stage that ran.
type Result struct {
	Tokens  []lexer.Token
	Program *ast.Program
	Symbols *SymbolTable
	IR      string
}

// Compile runs the pipeline over source up to opts.Stop. Errors from the
// lexer and parser are returned unwrapped so callers can inspect them as
// *errors.SigilError; the partial result is returned alongside.
func Compile(filename, source string, opts Options) (*Result, error) {
	result := &Result{}

	tokens, err := lexer.TokenizeSource(filename, source)
	if err != nil {
		return result, err
	}
	result.Tokens = tokens
	if opts.Stop < StageParse {
		return result, nil
	}

	var parserOpts []parser.Option
	if opts.MaxDepth > 0 {
		parserOpts = append(parserOpts, parser.WithMaxDepth(opts.MaxDepth))
	}
	program, err := parser.Parse(tokens, parserOpts...)
	if err != nil {
		return result, err
	}
	result.Program = program
	if opts.Stop < StageAnalyze {
		return result, nil
	}

	analyzer := opts.Analyzer
	if analyzer == nil {
		analyzer = NopAnalyzer{}
	}
	symbols, err := analyzer.Analyze(program)
	if err != nil {
		return result, fmt.Errorf("analyze %s: %w", filename, err)
	}
	result.Symbols = symbols
	if opts.Stop < StageGenerate {
		return result, nil
	}

	generator := opts.Generator
	if generator == nil {
		generator = StubGenerator{Module: moduleName(filename)}
	}
	ir, err := generator.Generate(program)
	if err != nil {
		return result, fmt.Errorf("generate %s: %w", filename, err)
	}
	result.IR = ir

	return result, nil
}

// moduleName derives an IR module name from a source file name
func moduleName(filename string) string {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	for _, ext := range SourceExtensions {
		name = strings.TrimSuffix(name, ext)
	}
	if name == "" {
		return "sigil"
	}
	return name
}

// SourceExtensions are the file extensions recognised as Sigil source
var SourceExtensions = []string{".sl", ".sigil"}

// IsSource reports whether path has a Sigil source extension.
func IsSource(path string, extensions []string) bool {
	if len(extensions) == 0 {
		extensions = SourceExtensions
	}
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
