package lexer

import "strings"

// numberClass is one step of the numeric classification chain.
type numberClass struct {
	tokenType TokenType
	match     func(string) bool
}

// numberClasses is checked in order. A complex literal such as 3i would
// otherwise read as the integer 3, and a float 3.0 as the integer 3.
var numberClasses = []numberClass{
	{COMPLEX, isComplexLiteral},
	{FLOAT, isFloatLiteral},
	{INTEGER, isIntegerLiteral},
}

// scanNumber consumes the maximal numeric-looking run at start and
// classifies it. end is returned even when classification fails.
func scanNumber(line []rune, start int) (end int, tokenType TokenType, ok bool) {
	i := start
	hasDot, hasExp := false, false

scan:
	for i < len(line) {
		ch := line[i]
		switch {
		case isDigit(ch), ch == '_':
			i++
		case ch == '.' && !hasDot && !hasExp:
			// Leave ... for the ellipsis operator
			if i+2 < len(line) && line[i+1] == '.' && line[i+2] == '.' {
				break scan
			}
			hasDot = true
			i++
		case (ch == 'e' || ch == 'E') && !hasExp:
			hasExp = true
			i++
			if i < len(line) && (line[i] == '+' || line[i] == '-') {
				i++
			}
		case ch == 'i' && i > start:
			i++
			break scan
		default:
			break scan
		}
	}

	lexeme := string(line[start:i])
	if lexeme == "" || lexeme == "." {
		return i, ILLEGAL, false
	}
	tokenType, ok = ClassifyNumber(lexeme)
	return i, tokenType, ok
}

// ClassifyNumber returns the literal type of a numeric lexeme.
func ClassifyNumber(lexeme string) (TokenType, bool) {
	for _, class := range numberClasses {
		if class.match(lexeme) {
			return class.tokenType, true
		}
	}
	return ILLEGAL, false
}

// isDigitGroup reports whether s is digits with single underscores
// strictly between them.
func isDigitGroup(s string) bool {
	if s == "" || s[0] == '_' || s[len(s)-1] == '_' || strings.Contains(s, "__") {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '_' && (s[i] < '0' || s[i] > '9') {
			return false
		}
	}
	return true
}

func isIntegerLiteral(s string) bool {
	return isDigitGroup(s)
}

func isFloatLiteral(s string) bool {
	mantissa, exponent, hasExp := splitExponent(s)
	if hasExp {
		if exponent != "" && (exponent[0] == '+' || exponent[0] == '-') {
			exponent = exponent[1:]
		}
		if !isDigitGroup(exponent) {
			return false
		}
	}

	whole, frac, hasDot := strings.Cut(mantissa, ".")
	if !hasDot {
		return hasExp && isDigitGroup(mantissa)
	}
	if whole == "" && frac == "" {
		return false
	}
	return (whole == "" || isDigitGroup(whole)) && (frac == "" || isDigitGroup(frac))
}

func isComplexLiteral(s string) bool {
	number, found := strings.CutSuffix(s, "i")
	if !found {
		return false
	}
	return isIntegerLiteral(number) || isFloatLiteral(number)
}

func splitExponent(s string) (mantissa, exponent string, ok bool) {
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}
