package lexer

import (
	"fmt"
	"sort"
	"strings"
)

// TokenType represents different types of tokens
type TokenType int

const (
	ILLEGAL TokenType = iota

	// Identifiers
	IDENTIFIER

	// Keywords
	keywordStart
	CLASS
	ENUM
	STRUCT
	UNION
	MAIN
	WITH
	YIELD
	LAZY
	AWAIT
	ASYNC
	IMPORT
	FROM
	AS
	FN
	DELETE
	FUNCTION
	LAMBDA
	LET
	CONST
	MATCH
	IF
	ELSE
	LOOP
	FOR
	RETURN
	DEFER
	GOTO
	ASSERT
	BREAK
	CONTINUE
	SELF
	SUPER
	TRY
	HANDLE
	CATCH
	FINALLY
	THROW
	USING
	PERFORM
	RESUME
	IN
	IS
	AND
	OR
	NOT
	PUB
	STATIC
	ABSTRACT
	EXPORT
	GLOBAL
	LOCAL
	MACRO
	MODULE

	// Type keywords (int32, float64, ...)
	BYTE_TYPE
	INT32_TYPE
	INT64_TYPE
	FLOAT32_TYPE
	FLOAT64_TYPE
	COMPLEX_TYPE
	BOOL_TYPE
	STRING_TYPE
	CALLABLE_TYPE
	OBJECT_TYPE
	keywordEnd

	// Special keywords
	LAMBDA_SPECIAL // λ Λ

	// Operators
	operatorStart
	FLOOR_DIV_EQUAL   // //=
	POWER_EQUAL       // **=
	SHIFT_LEFT_EQUAL  // <<=
	SHIFT_RIGHT_EQUAL // >>=
	INCREMENT         // ++
	DECREMENT         // --
	POWER             // **
	FLOOR_DIV         // //
	PLUS_EQUAL        // +=
	MINUS_EQUAL       // -=
	MULTIPLY_EQUAL    // *=
	DIV_EQUAL         // /=
	MOD_EQUAL         // %=
	AND_EQUAL         // &=
	OR_EQUAL          // |=
	XOR_EQUAL         // ^=
	EQUAL_EQUAL       // ==
	NOT_EQUAL         // !=
	LESS_EQUAL        // <=
	GREATER_EQUAL     // >=
	ARROW             // ->
	DOUBLE_ARROW      // =>
	PIPE              // |>
	SHIFT_LEFT        // <<
	SHIFT_RIGHT       // >>
	WALRUS            // :=
	PLUS              // +
	MINUS             // -
	MULTIPLY          // *
	DIV               // /
	MOD               // %
	EQUAL             // =
	LESS              // <
	GREATER           // >
	AMPERSAND         // &
	BAR               // |
	AT                // @
	CARET             // ^
	EXCLAMATION       // !
	QUESTION          // ?
	TILDE             // ~
	operatorEnd

	// Delimiters
	COMMA     // ,
	SEMICOLON // ;
	DOT       // .
	COLON     // :
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	BACKSTICK // `

	// Literals
	INTEGER         // 1_000
	FLOAT           // 6.022e23
	COMPLEX         // 3i
	BOOLEAN         // true false
	STRING          // 'text'
	NONE            // none
	ELLIPSIS        // ... ellipsis
	STRING_TEMPLATE // `Hello, {name}!`

	// Indentation
	INDENT
	DEDENT
	NEWLINE
	EOF
)

// Category groups token types into the closed set of lexical categories.
type Category int

const (
	CategoryInvalid Category = iota
	CategoryIdentifier
	CategoryKeyword
	CategoryKeywordSpecial
	CategoryOperator
	CategoryDelimiter
	CategoryLiteral
	CategoryIndentation
)

func (c Category) String() string {
	switch c {
	case CategoryIdentifier:
		return "Identifier"
	case CategoryKeyword:
		return "Keyword"
	case CategoryKeywordSpecial:
		return "KeywordSpecial"
	case CategoryOperator:
		return "Operator"
	case CategoryDelimiter:
		return "Delimiter"
	case CategoryLiteral:
		return "Literal"
	case CategoryIndentation:
		return "Indentation"
	default:
		return "Invalid"
	}
}

// Category returns the lexical category of the token type.
func (tt TokenType) Category() Category {
	switch {
	case tt == IDENTIFIER:
		return CategoryIdentifier
	case tt > keywordStart && tt < keywordEnd:
		return CategoryKeyword
	case tt == LAMBDA_SPECIAL:
		return CategoryKeywordSpecial
	case tt > operatorStart && tt < operatorEnd:
		return CategoryOperator
	case tt >= COMMA && tt <= BACKSTICK:
		return CategoryDelimiter
	case tt >= INTEGER && tt <= STRING_TEMPLATE:
		return CategoryLiteral
	case tt >= INDENT && tt <= EOF:
		return CategoryIndentation
	default:
		return CategoryInvalid
	}
}

// IsTypeKeyword reports whether the token type names a built-in type.
func (tt TokenType) IsTypeKeyword() bool {
	return tt >= BYTE_TYPE && tt <= OBJECT_TYPE
}

// IsLayout reports whether the token type is NEWLINE, INDENT or DEDENT.
func (tt TokenType) IsLayout() bool {
	return tt == NEWLINE || tt == INDENT || tt == DEDENT
}

// Token is a single lexeme with its source position.
// Line is 1-based, Column is 0-based.
type Token struct {
	File    string
	Line    int
	Column  int
	Type    TokenType
	Literal string
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %q, Line: %d, Column: %d}",
		t.Type, t.Literal, t.Line, t.Column)
}

// Category returns the lexical category of the token.
func (t Token) Category() Category {
	return t.Type.Category()
}

var tokenNames = map[TokenType]string{
	ILLEGAL:    "ILLEGAL",
	IDENTIFIER: "IDENTIFIER",

	CLASS:    "CLASS",
	ENUM:     "ENUM",
	STRUCT:   "STRUCT",
	UNION:    "UNION",
	MAIN:     "MAIN",
	WITH:     "WITH",
	YIELD:    "YIELD",
	LAZY:     "LAZY",
	AWAIT:    "AWAIT",
	ASYNC:    "ASYNC",
	IMPORT:   "IMPORT",
	FROM:     "FROM",
	AS:       "AS",
	FN:       "FN",
	DELETE:   "DELETE",
	FUNCTION: "FUNCTION",
	LAMBDA:   "LAMBDA",
	LET:      "LET",
	CONST:    "CONST",
	MATCH:    "MATCH",
	IF:       "IF",
	ELSE:     "ELSE",
	LOOP:     "LOOP",
	FOR:      "FOR",
	RETURN:   "RETURN",
	DEFER:    "DEFER",
	GOTO:     "GOTO",
	ASSERT:   "ASSERT",
	BREAK:    "BREAK",
	CONTINUE: "CONTINUE",
	SELF:     "SELF",
	SUPER:    "SUPER",
	TRY:      "TRY",
	HANDLE:   "HANDLE",
	CATCH:    "CATCH",
	FINALLY:  "FINALLY",
	THROW:    "THROW",
	USING:    "USING",
	PERFORM:  "PERFORM",
	RESUME:   "RESUME",
	IN:       "IN",
	IS:       "IS",
	AND:      "AND",
	OR:       "OR",
	NOT:      "NOT",
	PUB:      "PUB",
	STATIC:   "STATIC",
	ABSTRACT: "ABSTRACT",
	EXPORT:   "EXPORT",
	GLOBAL:   "GLOBAL",
	LOCAL:    "LOCAL",
	MACRO:    "MACRO",
	MODULE:   "MODULE",

	BYTE_TYPE:     "BYTE_TYPE",
	INT32_TYPE:    "INT32_TYPE",
	INT64_TYPE:    "INT64_TYPE",
	FLOAT32_TYPE:  "FLOAT32_TYPE",
	FLOAT64_TYPE:  "FLOAT64_TYPE",
	COMPLEX_TYPE:  "COMPLEX_TYPE",
	BOOL_TYPE:     "BOOL_TYPE",
	STRING_TYPE:   "STRING_TYPE",
	CALLABLE_TYPE: "CALLABLE_TYPE",
	OBJECT_TYPE:   "OBJECT_TYPE",

	LAMBDA_SPECIAL: "LAMBDA_SPECIAL",

	FLOOR_DIV_EQUAL:   "FLOOR_DIV_EQUAL",
	POWER_EQUAL:       "POWER_EQUAL",
	SHIFT_LEFT_EQUAL:  "SHIFT_LEFT_EQUAL",
	SHIFT_RIGHT_EQUAL: "SHIFT_RIGHT_EQUAL",
	INCREMENT:         "INCREMENT",
	DECREMENT:         "DECREMENT",
	POWER:             "POWER",
	FLOOR_DIV:         "FLOOR_DIV",
	PLUS_EQUAL:        "PLUS_EQUAL",
	MINUS_EQUAL:       "MINUS_EQUAL",
	MULTIPLY_EQUAL:    "MULTIPLY_EQUAL",
	DIV_EQUAL:         "DIV_EQUAL",
	MOD_EQUAL:         "MOD_EQUAL",
	AND_EQUAL:         "AND_EQUAL",
	OR_EQUAL:          "OR_EQUAL",
	XOR_EQUAL:         "XOR_EQUAL",
	EQUAL_EQUAL:       "EQUAL_EQUAL",
	NOT_EQUAL:         "NOT_EQUAL",
	LESS_EQUAL:        "LESS_EQUAL",
	GREATER_EQUAL:     "GREATER_EQUAL",
	ARROW:             "ARROW",
	DOUBLE_ARROW:      "DOUBLE_ARROW",
	PIPE:              "PIPE",
	SHIFT_LEFT:        "SHIFT_LEFT",
	SHIFT_RIGHT:       "SHIFT_RIGHT",
	WALRUS:            "WALRUS",
	PLUS:              "PLUS",
	MINUS:             "MINUS",
	MULTIPLY:          "MULTIPLY",
	DIV:               "DIV",
	MOD:               "MOD",
	EQUAL:             "EQUAL",
	LESS:              "LESS",
	GREATER:           "GREATER",
	AMPERSAND:         "AMPERSAND",
	BAR:               "BAR",
	AT:                "AT",
	CARET:             "CARET",
	EXCLAMATION:       "EXCLAMATION",
	QUESTION:          "QUESTION",
	TILDE:             "TILDE",

	COMMA:     "COMMA",
	SEMICOLON: "SEMICOLON",
	DOT:       "DOT",
	COLON:     "COLON",
	LPAREN:    "LPAREN",
	RPAREN:    "RPAREN",
	LBRACE:    "LBRACE",
	RBRACE:    "RBRACE",
	LBRACKET:  "LBRACKET",
	RBRACKET:  "RBRACKET",
	BACKSTICK: "BACKSTICK",

	INTEGER:         "INTEGER",
	FLOAT:           "FLOAT",
	COMPLEX:         "COMPLEX",
	BOOLEAN:         "BOOLEAN",
	STRING:          "STRING",
	NONE:            "NONE",
	ELLIPSIS:        "ELLIPSIS",
	STRING_TEMPLATE: "STRING_TEMPLATE",

	INDENT:  "INDENT",
	DEDENT:  "DEDENT",
	NEWLINE: "NEWLINE",
	EOF:     "EOF",
}

func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// keywords maps upper-cased words to keyword token types
var keywords = map[string]TokenType{
	"CLASS":    CLASS,
	"ENUM":     ENUM,
	"STRUCT":   STRUCT,
	"UNION":    UNION,
	"MAIN":     MAIN,
	"WITH":     WITH,
	"YIELD":    YIELD,
	"LAZY":     LAZY,
	"AWAIT":    AWAIT,
	"ASYNC":    ASYNC,
	"IMPORT":   IMPORT,
	"FROM":     FROM,
	"AS":       AS,
	"FN":       FN,
	"DELETE":   DELETE,
	"FUNCTION": FUNCTION,
	"LAMBDA":   LAMBDA,
	"LET":      LET,
	"CONST":    CONST,
	"MATCH":    MATCH,
	"IF":       IF,
	"ELSE":     ELSE,
	"LOOP":     LOOP,
	"FOR":      FOR,
	"RETURN":   RETURN,
	"DEFER":    DEFER,
	"GOTO":     GOTO,
	"ASSERT":   ASSERT,
	"BREAK":    BREAK,
	"CONTINUE": CONTINUE,
	"SELF":     SELF,
	"SUPER":    SUPER,
	"TRY":      TRY,
	"HANDLE":   HANDLE,
	"CATCH":    CATCH,
	"FINALLY":  FINALLY,
	"THROW":    THROW,
	"USING":    USING,
	"PERFORM":  PERFORM,
	"RESUME":   RESUME,
	"IN":       IN,
	"IS":       IS,
	"AND":      AND,
	"OR":       OR,
	"NOT":      NOT,
	"PUB":      PUB,
	"STATIC":   STATIC,
	"ABSTRACT": ABSTRACT,
	"EXPORT":   EXPORT,
	"GLOBAL":   GLOBAL,
	"LOCAL":    LOCAL,
	"MACRO":    MACRO,
	"MODULE":   MODULE,

	"BYTE":     BYTE_TYPE,
	"INT32":    INT32_TYPE,
	"INT64":    INT64_TYPE,
	"FLOAT32":  FLOAT32_TYPE,
	"FLOAT64":  FLOAT64_TYPE,
	"COMPLEX":  COMPLEX_TYPE,
	"BOOL":     BOOL_TYPE,
	"STRING":   STRING_TYPE,
	"CALLABLE": CALLABLE_TYPE,
	"OBJECT":   OBJECT_TYPE,
}

// specialKeywords maps non-ASCII keyword glyphs
var specialKeywords = map[string]TokenType{
	"λ": LAMBDA_SPECIAL,
	"Λ": LAMBDA_SPECIAL,
}

// operators maps operator and delimiter lexemes to token types
var operators = map[string]TokenType{
	"//=": FLOOR_DIV_EQUAL,
	"**=": POWER_EQUAL,
	"<<=": SHIFT_LEFT_EQUAL,
	">>=": SHIFT_RIGHT_EQUAL,
	"...": ELLIPSIS,
	"++":  INCREMENT,
	"--":  DECREMENT,
	"**":  POWER,
	"//":  FLOOR_DIV,
	"+=":  PLUS_EQUAL,
	"-=":  MINUS_EQUAL,
	"*=":  MULTIPLY_EQUAL,
	"/=":  DIV_EQUAL,
	"%=":  MOD_EQUAL,
	"&=":  AND_EQUAL,
	"|=":  OR_EQUAL,
	"^=":  XOR_EQUAL,
	"==":  EQUAL_EQUAL,
	"!=":  NOT_EQUAL,
	"<=":  LESS_EQUAL,
	">=":  GREATER_EQUAL,
	"->":  ARROW,
	"=>":  DOUBLE_ARROW,
	"|>":  PIPE,
	"<<":  SHIFT_LEFT,
	">>":  SHIFT_RIGHT,
	":=":  WALRUS,
	"+":   PLUS,
	"-":   MINUS,
	"*":   MULTIPLY,
	"/":   DIV,
	"%":   MOD,
	"=":   EQUAL,
	"<":   LESS,
	">":   GREATER,
	"&":   AMPERSAND,
	"|":   BAR,
	"@":   AT,
	"^":   CARET,
	"!":   EXCLAMATION,
	"?":   QUESTION,
	"~":   TILDE,
	",":   COMMA,
	";":   SEMICOLON,
	".":   DOT,
	":":   COLON,
	"(":   LPAREN,
	")":   RPAREN,
	"{":   LBRACE,
	"}":   RBRACE,
	"[":   LBRACKET,
	"]":   RBRACKET,
	"`":   BACKSTICK,
}

// Keywords returns the lower-case spelling of every reserved word, sorted.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for w := range keywords {
		words = append(words, strings.ToLower(w))
	}
	sort.Strings(words)
	return words
}

// Lexeme returns the canonical source spelling of a keyword or operator
// token type. Keywords are spelled in lower case.
func (tt TokenType) Lexeme() (string, bool) {
	for word, t := range keywords {
		if t == tt {
			return strings.ToLower(word), true
		}
	}
	for op, t := range operators {
		if t == tt && t != ELLIPSIS {
			return op, true
		}
	}
	return "", false
}
