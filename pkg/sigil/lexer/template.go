package lexer

// TemplatePart is one segment of an interpolated string body.
type TemplatePart struct {
	Text   string // literal text, or the raw text between the braces of a span
	Span   bool
	Offset int // rune offset of Text within the body
}

// SplitTemplate splits an interpolation body into literal segments and
// {…} spans. Braces preceded by a backslash do not open or close a span, and
// an opening brace that is never closed stays literal text.
func SplitTemplate(body string) []TemplatePart {
	runes := []rune(body)
	var parts []TemplatePart

	literalStart, open := 0, -1
	for i, r := range runes {
		escaped := i > 0 && runes[i-1] == '\\'
		switch {
		case r == '{' && !escaped:
			open = i
		case r == '}' && !escaped && open >= 0:
			if open > literalStart {
				parts = append(parts, TemplatePart{
					Text:   string(runes[literalStart:open]),
					Offset: literalStart,
				})
			}
			parts = append(parts, TemplatePart{
				Text:   string(runes[open+1 : i]),
				Span:   true,
				Offset: open + 1,
			})
			literalStart, open = i+1, -1
		}
	}
	if literalStart < len(runes) {
		parts = append(parts, TemplatePart{
			Text:   string(runes[literalStart:]),
			Offset: literalStart,
		})
	}
	return parts
}
