// Package repl is an interactive explorer for the Sigil front end. Each
// complete input is tokenized and parsed and the result is printed in the
// selected output mode.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/rdenadai/sigil/pkg/sigil/compiler"
	"github.com/rdenadai/sigil/pkg/sigil/format"
	"github.com/rdenadai/sigil/pkg/sigil/lexer"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const SIGIL_LOGO = `
█▀ █ █▀▀ █ █░░
▄█ █ █▄█ █ █▄▄ `

// Mode selects how parsed input is displayed
type Mode int

const (
	ModeAST Mode = iota
	ModeSexp
	ModeJSON
	ModeTokens
	ModeSource
	ModeSymbols
)

var modeNames = map[Mode]string{
	ModeAST:     "ast",
	ModeSexp:    "sexp",
	ModeJSON:    "json",
	ModeTokens:  "tokens",
	ModeSource:  "fmt",
	ModeSymbols: "symbols",
}

func (m Mode) String() string {
	return modeNames[m]
}

// completionWords holds keywords and literal words for tab completion
var completionWords = append(lexer.Keywords(), "true", "false", "none", "ellipsis")

// Start starts the REPL with line editing, history, and tab completion
func Start(in io.Reader, out io.Writer, version string) {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	line.SetCompleter(func(line string) []string {
		return filterCompletions(line)
	})

	historyFile := filepath.Join(os.TempDir(), ".sigil_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(out, "%s", SIGIL_LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "Use Tab for completion, ↑↓ for history")
	fmt.Fprintln(out, "Type ':help' for REPL commands")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder
	mode := ModeAST

	for {
		currentPrompt := PROMPT
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				// Ctrl+C - clear any buffered input and return to main prompt
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if inputBuffer.Len() == 0 && (trimmed == "exit" || trimmed == "quit") {
			fmt.Fprintln(out, "Goodbye!")
			return
		}

		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			mode = handleReplCommand(trimmed, out, mode)
			continue
		}

		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}

		line.AppendHistory(strings.TrimRight(fullInput, "\n "))
		Eval(fullInput, mode, out)
		inputBuffer.Reset()
	}
}

// Eval tokenizes and parses input and writes the result in the given mode.
// Errors are written in their pretty form.
func Eval(input string, mode Mode, out io.Writer) {
	opts := compiler.DefaultOptions()
	opts.Stop = compiler.StageParse
	if mode == ModeTokens {
		opts.Stop = compiler.StageTokens
	}
	if mode == ModeSymbols {
		opts.Stop = compiler.StageAnalyze
		opts.Analyzer = compiler.DeclarationAnalyzer{}
	}

	result, err := compiler.Compile("<repl>", input, opts)
	if err != nil {
		printError(out, err)
		return
	}

	switch mode {
	case ModeTokens:
		for _, tok := range result.Tokens {
			fmt.Fprintf(out, "%d:%d %s %q\n", tok.Line, tok.Column, tok.Type, tok.Literal)
		}
	case ModeSexp:
		io.WriteString(out, format.Sexp(result.Program)+"\n")
	case ModeJSON:
		data, err := format.JSON(result.Program)
		if err != nil {
			printError(out, err)
			return
		}
		io.WriteString(out, data+"\n")
	case ModeSource:
		io.WriteString(out, format.Source(result.Program))
	case ModeSymbols:
		symbols := result.Symbols.All()
		if len(symbols) == 0 {
			fmt.Fprintln(out, "(no declarations)")
		}
		for _, sym := range symbols {
			fmt.Fprintf(out, "  %s: %s %s\n", sym.Name, sym.Kind, sym.Type)
		}
	default:
		io.WriteString(out, format.ProgramTree(result.Program))
	}
}

// handleReplCommand handles REPL meta-commands that start with ':'
// and returns the output mode to use from now on.
func handleReplCommand(cmd string, out io.Writer, mode Mode) Mode {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(out, "  :ast            Show the syntax tree (default)")
		fmt.Fprintln(out, "  :sexp           Show s-expressions")
		fmt.Fprintln(out, "  :json           Show the syntax tree as JSON")
		fmt.Fprintln(out, "  :tokens         Show the token stream")
		fmt.Fprintln(out, "  :fmt            Show the input re-printed as source")
		fmt.Fprintln(out, "  :symbols        Show declared names")
		fmt.Fprintln(out, "  :mode           Show the current output mode")
		fmt.Fprintln(out, "  exit, quit      Exit the REPL")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Blocks (lines ending in ':') continue until an empty line.")
		return mode

	case ":mode":
		fmt.Fprintf(out, "Output mode: %s\n", mode)
		return mode
	}

	name := strings.TrimPrefix(cmd, ":")
	for m, n := range modeNames {
		if n == name {
			fmt.Fprintf(out, "Output mode: %s\n", m)
			return m
		}
	}

	fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
	return mode
}

// filterCompletions returns completion suggestions based on current input
func filterCompletions(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	// Don't complete if line ends with whitespace
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}

	words := strings.Fields(line)
	lastWord := words[len(words)-1]
	prefix := line[:len(line)-len(lastWord)]

	var matches []string
	for _, word := range completionWords {
		if strings.HasPrefix(word, lastWord) {
			matches = append(matches, prefix+word)
		}
	}
	return matches
}

// needsMoreInput reports whether the buffered input is incomplete: an open
// bracket or backtick, a trailing '?' or ':' of a multi-line ternary, or an
// indented block that has not been closed by an empty line.
func needsMoreInput(input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}

	depth := 0
	inString, inTemplate := false, false
	for _, raw := range strings.Split(input, "\n") {
		inString = false
		for i := 0; i < len(raw); i++ {
			ch := raw[i]
			if ch == '\\' && (inString || inTemplate) {
				i++
				continue
			}
			switch {
			case inString:
				if ch == '\'' {
					inString = false
				}
			case inTemplate:
				if ch == '`' {
					inTemplate = false
				}
			case ch == '#':
				i = len(raw)
			case ch == '\'':
				inString = true
			case ch == '`':
				inTemplate = true
			case ch == '(' || ch == '[' || ch == '{':
				depth++
			case ch == ')' || ch == ']' || ch == '}':
				depth--
			}
		}
	}
	if depth > 0 || inTemplate {
		return true
	}

	lines := strings.Split(input, "\n")
	last := lines[len(lines)-1]
	lastTrimmed := strings.TrimSpace(stripComment(last))

	// A block is closed by an empty line
	if len(lines) > 1 && lastTrimmed == "" {
		return false
	}
	if strings.HasSuffix(lastTrimmed, ":") || strings.HasSuffix(lastTrimmed, "?") {
		return true
	}
	for _, l := range lines {
		if strings.HasSuffix(strings.TrimSpace(stripComment(l)), ":") {
			return true
		}
	}
	return false
}

// stripComment removes a trailing # comment outside string literals
func stripComment(line string) string {
	inString, inTemplate := false, false
	for i := 0; i < len(line); i++ {
		switch ch := line[i]; {
		case ch == '\\' && (inString || inTemplate):
			i++
		case ch == '\'' && !inTemplate:
			inString = !inString
		case ch == '`' && !inString:
			inTemplate = !inTemplate
		case ch == '#' && !inString && !inTemplate:
			return line[:i]
		}
	}
	return line
}

func printError(out io.Writer, err error) {
	type pretty interface{ PrettyString() string }
	if p, ok := err.(pretty); ok {
		io.WriteString(out, p.PrettyString())
	} else {
		io.WriteString(out, err.Error())
	}
	io.WriteString(out, "\n")
}
