// Package errors provides structured error types for the Sigil front end.
//
// This package defines SigilError, a single error type shared by the lexer,
// the parser and the drivers around them. Errors carry a catalog code, a
// rendered message, optional hints and a source position.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and display.
type ErrorClass string

const (
	ClassLex    ErrorClass = "lex"    // Tokenization errors
	ClassParse  ErrorClass = "parse"  // Syntax errors
	ClassConfig ErrorClass = "config" // sigil.yaml problems
	ClassIO     ErrorClass = "io"     // File operations
)

// SigilError represents any error from tokenizing, parsing or driving a
// compilation.
type SigilError struct {
	Class   ErrorClass     `json:"class"`            // Error category
	Code    string         `json:"code"`             // Error code (e.g., "LEX-0001")
	Message string         `json:"message"`          // Human-readable message
	Hints   []string       `json:"hints,omitempty"`  // Suggestions for fixing
	Line    int            `json:"line"`             // 1-based line (0 if unknown)
	Column  int            `json:"column"`           // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`   // File path (if known)
	Token   string         `json:"token,omitempty"`  // Offending token type, parse errors only
	Lexeme  string         `json:"lexeme,omitempty"` // Offending source text
	Data    map[string]any `json:"data,omitempty"`   // Template variables
}

// Error implements the error interface.
func (e *SigilError) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *SigilError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *SigilError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassLex:
		sb.WriteString("Lexer error")
	case ClassParse:
		sb.WriteString("Parser error")
	case ClassConfig:
		sb.WriteString("Config error")
	default:
		sb.WriteString("Error")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Hint: ")
		} else {
			sb.WriteString("  or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *SigilError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ToJSONIndent returns the error as indented JSON bytes.
func (e *SigilError) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}

// WithFile returns a copy of the error with the file path set.
func (e *SigilError) WithFile(file string) *SigilError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *SigilError) WithPosition(line, column int) *SigilError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsLexError returns true if the error was raised while tokenizing.
func (e *SigilError) IsLexError() bool {
	return e.Class == ClassLex
}

// IsParseError returns true if the error was raised while parsing.
func (e *SigilError) IsParseError() bool {
	return e.Class == ClassParse
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// Lexer errors (LEX-0xxx)
	"LEX-0001": {
		Class:    ClassLex,
		Template: "unterminated string literal",
		Hints:    []string{"close the string with a matching '"},
	},
	"LEX-0002": {
		Class:    ClassLex,
		Template: "unterminated string interpolation",
		Hints:    []string{"close the template with a matching `"},
	},
	"LEX-0003": {
		Class:    ClassLex,
		Template: "tabs are not allowed",
		Hints:    []string{"indent with spaces"},
	},
	"LEX-0004": {
		Class:    ClassLex,
		Template: "unknown character '{{.Char}}'",
	},
	"LEX-0005": {
		Class:    ClassLex,
		Template: "invalid identifier starting with a digit: '{{.Lexeme}}'",
		Hints:    []string{"identifiers must start with a letter or _", "digit separators go between digits: 1_000"},
	},
	"LEX-0006": {
		Class:    ClassLex,
		Template: "unindent does not match any outer indentation level",
	},
	"LEX-0007": {
		Class:    ClassLex,
		Template: "unterminated escape sequence",
	},

	// Parse errors (PARSE-0xxx)
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got {{.Got}}",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected token in expression: {{.Got}}",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "invalid assignment target: {{.Kind}}",
		Hints:    []string{"only names and member accesses can be assigned"},
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "unexpected end of input",
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "{{.Construct}} statements are not supported yet",
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Template: "unexpected {{.Got}} after statement",
		// Hint "Did you mean 'x'?" added dynamically by fuzzy matching
	},
	"PARSE-0007": {
		Class:    ClassParse,
		Template: "expression nested too deeply (limit {{.Limit}})",
	},

	// Driver errors
	"CONFIG-0001": {
		Class:    ClassConfig,
		Template: "invalid configuration: {{.Detail}}",
	},
	"IO-0001": {
		Class:    ClassIO,
		Template: "cannot read {{.Path}}: {{.Detail}}",
	},
}

// New creates a SigilError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *SigilError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &SigilError{
			Class:   ClassIO,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		if rendered := renderTemplate(hintTmpl, data); rendered != "" {
			hints = append(hints, rendered)
		}
	}

	err := &SigilError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
	if lexeme, ok := data["Lexeme"].(string); ok {
		err.Lexeme = lexeme
	}
	return err
}

// NewWithPosition creates a SigilError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *SigilError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string) *SigilError {
	return &SigilError{
		Class:   class,
		Message: message,
	}
}

// NewSimpleWithHints creates a simple error with hints.
func NewSimpleWithHints(class ErrorClass, message string, hints ...string) *SigilError {
	return &SigilError{
		Class:   class,
		Message: message,
		Hints:   hints,
	}
}

func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings,
// counting runes rather than bytes.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// FuzzyMatch represents a fuzzy match result with its distance.
type FuzzyMatch struct {
	Value    string
	Distance int
}

// threshold is the largest edit distance worth suggesting for an input:
// 1 edit for 1-3 runes, 2 for 4-6, 3 beyond that.
func threshold(input string) int {
	n := len([]rune(input))
	switch {
	case n >= 7:
		return 3
	case n >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch finds the closest match to input among candidates.
// Returns "" when nothing is within the length-based threshold or when
// input already matches a candidate exactly.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	inputLower := strings.ToLower(input)

	var bestMatch string
	bestDistance := -1

	for _, candidate := range candidates {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= 0 || bestDistance > threshold(input) {
		return ""
	}

	return bestMatch
}

// FindTopMatches returns up to n candidates within the threshold, closest first.
func FindTopMatches(input string, candidates []string, n int) []string {
	if len(input) == 0 || len(candidates) == 0 || n <= 0 {
		return nil
	}

	inputLower := strings.ToLower(input)

	var matches []FuzzyMatch
	for _, candidate := range candidates {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if dist > 0 {
			matches = append(matches, FuzzyMatch{Value: candidate, Distance: dist})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	limit := threshold(input)
	var result []string
	for i := 0; i < len(matches) && len(result) < n; i++ {
		if matches[i].Distance <= limit {
			result = append(result, matches[i].Value)
		}
	}

	return result
}

// SigilKeywords are the statement-starting words suggested for typos.
var SigilKeywords = []string{
	"class", "const", "else", "fn", "for", "function", "if", "lambda",
	"let", "loop", "main", "match", "pub", "return", "static",
}
