package compiler

import (
	"fmt"
	"sort"

	"github.com/rdenadai/sigil/pkg/sigil/ast"
)

// SymbolKind classifies a declared name
type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolConstant
	SymbolFunction
	SymbolClass
	SymbolAttribute
	SymbolMethod
)

var symbolKindNames = map[SymbolKind]string{
	SymbolVariable:  "variable",
	SymbolConstant:  "constant",
	SymbolFunction:  "function",
	SymbolClass:     "class",
	SymbolAttribute: "attribute",
	SymbolMethod:    "method",
}

func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// Symbol is one declared name
type Symbol struct {
	Name   string     `json:"name"`
	Kind   SymbolKind `json:"-"`
	Type   string     `json:"type"`
	Line   int        `json:"line"`
	Column int        `json:"column"`
}

// SymbolTable maps qualified names (Point.move) to their declarations
type SymbolTable struct {
	symbols map[string]Symbol
}

// NewSymbolTable creates an empty table
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]Symbol)}
}

// Define adds a symbol. It reports false if the name is already taken.
func (st *SymbolTable) Define(sym Symbol) bool {
	if _, exists := st.symbols[sym.Name]; exists {
		return false
	}
	st.symbols[sym.Name] = sym
	return true
}

// Lookup finds a symbol by qualified name
func (st *SymbolTable) Lookup(name string) (Symbol, bool) {
	sym, ok := st.symbols[name]
	return sym, ok
}

// Len returns the number of symbols
func (st *SymbolTable) Len() int {
	return len(st.symbols)
}

// All returns every symbol sorted by name
func (st *SymbolTable) All() []Symbol {
	out := make([]Symbol, 0, len(st.symbols))
	for _, sym := range st.symbols {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Analyzer builds a symbol table for a parsed program
type Analyzer interface {
	Analyze(program *ast.Program) (*SymbolTable, error)
}

// NopAnalyzer accepts every program and returns an empty table.
type NopAnalyzer struct{}

func (NopAnalyzer) Analyze(*ast.Program) (*SymbolTable, error) {
	return NewSymbolTable(), nil
}

// DeclarationAnalyzer records top-level declarations and class members.
// A name declared twice in the same scope is an error.
type DeclarationAnalyzer struct{}

func (DeclarationAnalyzer) Analyze(program *ast.Program) (*SymbolTable, error) {
	st := NewSymbolTable()
	for _, n := range program.Body {
		if err := declare(st, "", n); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func declare(st *SymbolTable, scope string, n *ast.Node) error {
	var sym Symbol
	switch v := n.Value.(type) {
	case *ast.VariableBinding:
		sym = Symbol{Name: v.Name, Kind: SymbolVariable, Type: v.Type.String()}
		if v.Const {
			sym.Kind = SymbolConstant
		}
	case *ast.FunctionSignature:
		if n.Kind != ast.FunctionDeclaration && n.Kind != ast.MainDeclaration {
			return nil
		}
		sym = Symbol{Name: v.Name, Kind: SymbolFunction, Type: v.String()}
	case *ast.ClassHeader:
		sym = Symbol{Name: v.Name, Kind: SymbolClass, Type: v.String()}
	case *ast.AttributeInfo:
		sym = Symbol{Name: v.Name, Kind: SymbolAttribute, Type: v.Type.String()}
	case *ast.MethodInfo:
		sym = Symbol{Name: v.Signature.Name, Kind: SymbolMethod, Type: v.Signature.String()}
	default:
		return nil
	}

	if scope != "" {
		sym.Name = scope + "." + sym.Name
	}
	sym.Line, sym.Column = n.Line, n.Column
	if !st.Define(sym) {
		prev, _ := st.Lookup(sym.Name)
		return fmt.Errorf("line %d: %s %q already declared on line %d", sym.Line, sym.Kind, sym.Name, prev.Line)
	}

	if sym.Kind == SymbolClass {
		for _, member := range n.Children {
			if err := declare(st, sym.Name, member); err != nil {
				return err
			}
		}
	}
	return nil
}
