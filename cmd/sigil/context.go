package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// printSourceContext shows the offending line with a caret under the
// 1-based rune column colNum. Leading indentation is trimmed and the caret
// accounts for wide characters.
func printSourceContext(w io.Writer, lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := []rune(lines[lineNum-1])

	trimCount := 0
	for trimCount < len(sourceLine) && (sourceLine[trimCount] == ' ' || sourceLine[trimCount] == '\t') {
		trimCount++
	}

	fmt.Fprintf(w, "    %s\n", string(sourceLine[trimCount:]))

	if colNum > 0 {
		end := min(colNum-1, len(sourceLine))
		visualCol := 0
		if end > trimCount {
			visualCol = visualWidth(sourceLine[trimCount:end])
		}
		fmt.Fprintf(w, "    %s^\n", strings.Repeat(" ", visualCol))
	}
}

// visualWidth is the terminal width of runes, with tabs as 8 columns
func visualWidth(runes []rune) int {
	width := 0
	for _, r := range runes {
		if r == '\t' {
			width += 8
			continue
		}
		width += runewidth.RuneWidth(r)
	}
	return width
}
