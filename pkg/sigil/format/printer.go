package format

import (
	"strings"
)

// Printer accumulates re-printed Sigil source one line at a time. Block
// depth is tracked so that statements nested in functions, classes and
// control flow are indented with IndentString.
type Printer struct {
	output strings.Builder
	depth  int
}

// NewPrinter returns a Printer at block depth zero.
func NewPrinter() *Printer {
	return &Printer{}
}

// String returns the source printed so far.
func (p *Printer) String() string {
	return p.output.String()
}

// line writes s at the current block depth. Continuation lines inside s,
// such as those of a multi-line ternary, are indented relative to it.
func (p *Printer) line(s string) {
	prefix := strings.Repeat(IndentString, p.depth)
	for part := range strings.SplitSeq(s, "\n") {
		p.output.WriteString(prefix)
		p.output.WriteString(part)
		p.output.WriteByte('\n')
	}
}

// blankLines separates definitions; nothing is written at the top of the
// file.
func (p *Printer) blankLines(n int) {
	if p.output.Len() == 0 {
		return
	}
	p.output.WriteString(strings.Repeat("\n", n))
}

func (p *Printer) indentInc() {
	p.depth++
}

func (p *Printer) indentDec() {
	if p.depth > 0 {
		p.depth--
	}
}
