package compiler

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/rdenadai/sigil/pkg/sigil/ast"
)

// Generator lowers a program to a textual intermediate representation
type Generator interface {
	Generate(program *ast.Program) (string, error)
}

// StubGenerator emits an empty LLVM IR module. Lowering and the external
// assembler and linker are not part of the front end.
type StubGenerator struct {
	Module string
	Triple string // target triple, host triple when empty
}

func (g StubGenerator) Generate(*ast.Program) (string, error) {
	module := g.Module
	if module == "" {
		module = "sigil"
	}
	triple := g.Triple
	if triple == "" {
		triple = HostTriple()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "; ModuleID = %q\n", module)
	fmt.Fprintf(&sb, "target triple = %q\n", triple)
	sb.WriteString("target datalayout = \"\"\n")
	return sb.String(), nil
}

// HostTriple returns an LLVM target triple for the running platform.
func HostTriple() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i386"
	}

	switch runtime.GOOS {
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-msvc"
	default:
		return arch + "-unknown-" + runtime.GOOS + "-gnu"
	}
}
