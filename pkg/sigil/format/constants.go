// Package format renders Sigil syntax trees: indented tree dumps,
// s-expressions, JSON, and Sigil source re-printed from the tree.
package format

// Indentation - Sigil blocks are indented with spaces only
const (
	IndentWidth  = 4
	IndentString = "    "
)

// Structure
const (
	BlankLinesBetweenDefs = 1 // Blank lines around top-level functions and classes
)
