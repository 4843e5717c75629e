// Package lexer turns Sigil source lines into a token stream.
//
// The lexer works one physical line at a time. Leading spaces drive an
// indentation stack that synthesizes INDENT and DEDENT tokens, every line
// with content ends in a NEWLINE token, and the stream always ends in EOF.
package lexer

import (
	"sort"
	"strings"
	"unicode"

	perrors "github.com/rdenadai/sigil/pkg/sigil/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// operatorTable holds operator lexemes sorted longest first for maximal munch
var operatorTable = buildOperatorTable()

// operatorStarts is the set of characters that can begin an operator
var operatorStarts = buildOperatorStarts()

func buildOperatorTable() []string {
	ops := make([]string, 0, len(operators))
	for op := range operators {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		if len(ops[i]) != len(ops[j]) {
			return len(ops[i]) > len(ops[j])
		}
		return ops[i] < ops[j]
	})
	return ops
}

func buildOperatorStarts() map[rune]bool {
	starts := make(map[rune]bool, len(operators))
	for op := range operators {
		starts[rune(op[0])] = true
	}
	return starts
}

// Lexer represents the lexical analyzer for one compilation unit
type Lexer struct {
	filename string
	lines    []string
	line     int   // current 1-based line number
	indents  []int // open indentation levels, indents[0] == 0
	tokens   []Token
	upper    cases.Caser
}

// New creates a new lexer over the given physical lines.
// Lines must not contain newline characters.
func New(filename string, lines []string) *Lexer {
	if filename == "" {
		filename = "<input>"
	}
	return &Lexer{
		filename: filename,
		lines:    lines,
		indents:  []int{0},
		upper:    cases.Upper(language.Und),
	}
}

// Tokenize lexes lines and returns the full token stream.
func Tokenize(filename string, lines []string) ([]Token, error) {
	return New(filename, lines).Tokenize()
}

// TokenizeSource splits source into lines and lexes it.
func TokenizeSource(filename, source string) ([]Token, error) {
	return New(filename, SplitLines(source)).Tokenize()
}

// SplitLines splits source text into physical lines, dropping line
// terminators. A final newline does not produce an extra empty line.
func SplitLines(source string) []string {
	if source == "" {
		return nil
	}
	lines := strings.Split(source, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Tokenize runs the lexer to completion. On failure no tokens are returned.
func (l *Lexer) Tokenize() ([]Token, error) {
	l.tokens = l.tokens[:0]
	l.indents = l.indents[:1]

	for i, raw := range l.lines {
		l.line = i + 1

		if tab := strings.IndexRune(raw, '\t'); tab >= 0 {
			return nil, l.fail("LEX-0003", len([]rune(raw[:tab])), nil)
		}

		line := []rune(raw)
		spaces := 0
		for spaces < len(line) && line[spaces] == ' ' {
			spaces++
		}

		// Blank and comment-only lines leave no trace
		if spaces == len(line) || line[spaces] == '#' {
			continue
		}

		if err := l.reconcileIndent(spaces); err != nil {
			return nil, err
		}
		if err := l.tokenizeLine(line, spaces); err != nil {
			return nil, err
		}
		l.emit(NEWLINE, "\n", len(line))
	}

	l.line = len(l.lines) + 1
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(DEDENT, "", 0)
	}
	l.emit(EOF, "", 0)

	return l.tokens, nil
}

// reconcileIndent pushes or pops indentation levels for a line that starts
// after the given number of spaces.
func (l *Lexer) reconcileIndent(spaces int) error {
	if spaces > l.top() {
		l.indents = append(l.indents, spaces)
		l.emit(INDENT, strings.Repeat(" ", spaces), 0)
		return nil
	}
	for spaces < l.top() {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(DEDENT, "", spaces)
	}
	if spaces != l.top() {
		return l.fail("LEX-0006", spaces, nil)
	}
	return nil
}

func (l *Lexer) top() int {
	return l.indents[len(l.indents)-1]
}

// tokenizeLine lexes the content of a line starting at column start.
func (l *Lexer) tokenizeLine(line []rune, start int) error {
	i := start
	for i < len(line) {
		ch := line[i]

		if ch == '#' {
			return nil
		}
		if unicode.IsSpace(ch) {
			i++
			continue
		}

		if ch == '`' {
			next, err := l.readInterpolation(line, i)
			if err != nil {
				return err
			}
			i = next
			continue
		}

		if ch == '\'' {
			next, err := l.readString(line, i)
			if err != nil {
				return err
			}
			i = next
			continue
		}

		numeric := isDigit(ch) || (ch == '.' && i+1 < len(line) && isDigit(line[i+1]))
		numEnd := i
		if numeric {
			end, tokenType, ok := scanNumber(line, i)
			// A classified numeral stands on its own: 3abc is 3 then abc
			if ok {
				l.emit(tokenType, string(line[i:end]), i)
				i = end
				continue
			}
			numEnd = end
		}

		if isIdentPart(ch) {
			end := i
			for end < len(line) && isIdentPart(line[end]) {
				end++
			}
			word := string(line[i:end])
			if isDigit(ch) {
				if numEnd > end {
					word = string(line[i:numEnd])
				}
				return l.fail("LEX-0005", i, map[string]any{"Lexeme": word})
			}
			l.emit(l.lookupWord(word), word, i)
			i = end
			continue
		}

		if op, ok := matchOperator(line, i); ok {
			l.emit(operators[op], op, i)
			i += len(op)
			continue
		}

		return l.fail("LEX-0004", i, map[string]any{"Char": string(ch)})
	}
	return nil
}

// readString lexes a single-quoted string starting at the opening quote.
// Escapes are skipped as pairs and kept verbatim in the literal.
func (l *Lexer) readString(line []rune, start int) (int, error) {
	j := start + 1
	for j < len(line) {
		switch {
		case line[j] == '\\' && j+1 < len(line):
			j += 2
		case line[j] == '\'':
			l.emit(STRING, string(line[start+1:j]), start)
			return j + 1, nil
		default:
			j++
		}
	}
	return 0, l.fail("LEX-0001", start, nil)
}

// readInterpolation lexes a backtick string and its {…} spans.
func (l *Lexer) readInterpolation(line []rune, start int) (int, error) {
	j := start + 1
	for j < len(line) && line[j] != '`' {
		if line[j] == '\\' {
			if j+1 >= len(line) {
				return 0, l.fail("LEX-0007", j, nil)
			}
			j += 2
			continue
		}
		j++
	}
	if j >= len(line) {
		return 0, l.fail("LEX-0002", start, nil)
	}

	bodyStart := start + 1
	body := string(line[bodyStart:j])

	l.emit(BACKSTICK, "`", start)

	var spans []TemplatePart
	for _, part := range SplitTemplate(body) {
		if part.Span {
			spans = append(spans, part)
		}
	}

	if len(spans) == 0 {
		l.emit(STRING, body, bodyStart)
	} else {
		l.emit(STRING_TEMPLATE, body, bodyStart)
		for _, span := range spans {
			text := strings.TrimSpace(span.Text)
			column := bodyStart + span.Offset
			if text == "" {
				l.emit(STRING, "", column)
				continue
			}
			column += len([]rune(span.Text)) - len([]rune(strings.TrimLeftFunc(span.Text, unicode.IsSpace)))
			l.emit(IDENTIFIER, text, column)
		}
	}

	l.emit(BACKSTICK, "`", j)
	return j + 1, nil
}

// lookupWord classifies an identifier-like word.
func (l *Lexer) lookupWord(word string) TokenType {
	switch {
	case strings.EqualFold(word, "true"), strings.EqualFold(word, "false"):
		return BOOLEAN
	case strings.EqualFold(word, "none"):
		return NONE
	case strings.EqualFold(word, "ellipsis"):
		return ELLIPSIS
	}
	if tt, ok := keywords[l.upper.String(word)]; ok {
		return tt
	}
	if tt, ok := specialKeywords[word]; ok {
		return tt
	}
	return IDENTIFIER
}

// LookupWord classifies an identifier-like word: special literal, keyword,
// special keyword or plain identifier.
func LookupWord(word string) TokenType {
	return New("", nil).lookupWord(word)
}

// matchOperator finds the longest operator lexeme at position i.
func matchOperator(line []rune, i int) (string, bool) {
	if !operatorStarts[line[i]] {
		return "", false
	}
	for _, op := range operatorTable {
		n := len(op)
		if i+n <= len(line) && string(line[i:i+n]) == op {
			return op, true
		}
	}
	return "", false
}

func (l *Lexer) emit(tokenType TokenType, literal string, column int) {
	l.tokens = append(l.tokens, Token{
		File:    l.filename,
		Line:    l.line,
		Column:  column,
		Type:    tokenType,
		Literal: literal,
	})
}

// fail builds a positioned lexer error; column is 0-based.
func (l *Lexer) fail(code string, column int, data map[string]any) *perrors.SigilError {
	err := perrors.NewWithPosition(code, l.line, column+1, data)
	err.File = l.filename
	return err
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentPart(ch rune) bool {
	if ch > unicode.MaxASCII {
		return !unicode.IsSpace(ch)
	}
	return ch == '_' || isDigit(ch) || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}
