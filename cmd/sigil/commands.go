package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rdenadai/sigil/driver"
	"github.com/rdenadai/sigil/pkg/sigil/compiler"
	perrors "github.com/rdenadai/sigil/pkg/sigil/errors"
	"github.com/rdenadai/sigil/pkg/sigil/format"
	"github.com/rdenadai/sigil/pkg/sigil/lexer"
	"github.com/rdenadai/sigil/pkg/sigil/parser"
	"github.com/rdenadai/sigil/pkg/sigil/repl"
)

// counts formats numbers with grouping separators
var counts = message.NewPrinter(language.English)

func newFlags(name string) *flag.FlagSet {
	flags := flag.NewFlagSet("sigil "+name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	return flags
}

// singleFile parses flags and returns the one file argument
func singleFile(flags *flag.FlagSet, args []string) (string, error) {
	if err := flags.Parse(args); err != nil {
		return "", err
	}
	if flags.NArg() != 1 {
		return "", fmt.Errorf("%s requires exactly one file", flags.Name())
	}
	return flags.Arg(0), nil
}

func readSource(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(content), nil
}

// reportError prints a diagnostic with source context and returns errReported.
// Errors that are not diagnostics are returned unchanged.
func reportError(w io.Writer, source string, err error) error {
	var serr *perrors.SigilError
	if !errors.As(err, &serr) {
		return err
	}
	fmt.Fprintln(w, serr.PrettyString())
	printSourceContext(w, lexer.SplitLines(source), serr.Line, serr.Column)
	return errReported
}

// runTokens implements 'sigil tokens'
func runTokens(e *env, args []string) error {
	flags := newFlags("tokens")
	asJSON := flags.Bool("json", false, "Print tokens as JSON")
	path, err := singleFile(flags, args)
	if err != nil {
		return err
	}
	source, err := readSource(path)
	if err != nil {
		return err
	}

	tokens, err := lexer.TokenizeSource(path, source)
	if err != nil {
		return reportError(e.stderr, source, err)
	}

	if *asJSON {
		type jsonToken struct {
			Line    int    `json:"line"`
			Column  int    `json:"column"`
			Type    string `json:"type"`
			Literal string `json:"literal"`
		}
		out := make([]jsonToken, len(tokens))
		for i, tok := range tokens {
			out[i] = jsonToken{tok.Line, tok.Column, tok.Type.String(), tok.Literal}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, string(data))
		return nil
	}

	for _, tok := range tokens {
		fmt.Fprintf(e.stdout, "%d:%d %s %q\n", tok.Line, tok.Column, tok.Type, tok.Literal)
	}
	return nil
}

// runAST implements 'sigil ast'
func runAST(e *env, args []string) error {
	flags := newFlags("ast")
	formatName := flags.String("format", "tree", "Output format: tree, sexp or json")
	path, err := singleFile(flags, args)
	if err != nil {
		return err
	}
	source, err := readSource(path)
	if err != nil {
		return err
	}

	program, err := parser.ParseSource(path, source, parser.WithMaxDepth(e.cfg.Parser.MaxDepth))
	if err != nil {
		return reportError(e.stderr, source, err)
	}

	switch *formatName {
	case "tree":
		fmt.Fprint(e.stdout, format.ProgramTree(program))
	case "sexp":
		fmt.Fprintln(e.stdout, format.Sexp(program))
	case "json":
		out, err := format.JSON(program)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, out)
	default:
		return fmt.Errorf("unknown format %q (use tree, sexp or json)", *formatName)
	}
	return nil
}

// newChecker builds a checker from config, opening the check log when enabled.
// The returned cleanup closes the log.
func newChecker(e *env) (*driver.Checker, func(), error) {
	checker := driver.NewChecker(e.cfg)
	checker.Logger = e.logger
	if !e.cfg.Cache.Enabled {
		return checker, func() {}, nil
	}
	log, err := driver.OpenCheckLog(e.cfg.Cache.Driver, e.cfg.Cache.DSN)
	if err != nil {
		return nil, nil, err
	}
	checker.Log = log
	return checker, func() { log.Close() }, nil
}

// runCheck implements 'sigil check'
func runCheck(ctx context.Context, e *env, args []string) error {
	flags := newFlags("check")
	reportPath := flags.String("report", "", "Write an HTML report to FILE")
	asJSON := flags.Bool("json", false, "Print errors as JSON")
	workers := flags.Int("workers", 0, "Number of files checked in parallel (default: CPU count)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	roots := flags.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}

	checker, cleanup, err := newChecker(e)
	if err != nil {
		return err
	}
	defer cleanup()
	checker.Workers = *workers

	files, err := checker.Discover(roots...)
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := checker.Check(ctx, files)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	var errs []*perrors.SigilError
	var size int64
	cached := 0
	for _, r := range results {
		size += r.Size
		if r.Cached {
			cached++
		}
		if !r.OK() {
			errs = append(errs, r.Err)
		}
	}

	if *asJSON {
		if errs == nil {
			errs = []*perrors.SigilError{}
		}
		data, err := json.MarshalIndent(errs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, string(data))
	} else {
		for _, serr := range errs {
			fmt.Fprintln(e.stderr, serr.PrettyString())
			if content, err := os.ReadFile(serr.File); err == nil {
				printSourceContext(e.stderr, lexer.SplitLines(string(content)), serr.Line, serr.Column)
			}
		}
		summary := counts.Sprintf("Checked %d files (%s) in %s: %d failed",
			len(results), humanize.Bytes(uint64(size)), elapsed.Round(time.Millisecond), len(errs))
		if cached > 0 {
			summary += counts.Sprintf(", %d unchanged", cached)
		}
		fmt.Fprintln(e.stdout, summary)
	}

	if *reportPath != "" {
		report := &driver.Report{Title: e.cfg.Report.Title, Generated: time.Now(), Results: results}
		if err := report.WriteFile(*reportPath); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		e.logger.Infof("CHECK", "report written to %s", *reportPath)
	}

	if len(errs) > 0 {
		return errReported
	}
	return nil
}

// runFmt implements 'sigil fmt'
func runFmt(e *env, args []string) error {
	flags := newFlags("fmt")
	write := flags.Bool("w", false, "Write result to source file instead of stdout")
	diff := flags.Bool("d", false, "Display diffs instead of rewriting files")
	list := flags.Bool("l", false, "List files whose formatting differs from sigil fmt's")
	if err := flags.Parse(args); err != nil {
		return err
	}

	files := flags.Args()
	if len(files) == 0 {
		return fmt.Errorf("no files specified")
	}

	failed := false
	for _, filename := range files {
		if err := formatFile(e, filename, *write, *diff, *list); err != nil {
			if !errors.Is(err, errReported) {
				fmt.Fprintf(e.stderr, "Error formatting %s: %v\n", filename, err)
			}
			failed = true
		}
	}
	if failed {
		return errReported
	}
	return nil
}

// formatFile formats a single Sigil file
func formatFile(e *env, filename string, write, diff, list bool) error {
	source, err := readSource(filename)
	if err != nil {
		return err
	}

	program, err := parser.ParseSource(filename, source, parser.WithMaxDepth(e.cfg.Parser.MaxDepth))
	if err != nil {
		return reportError(e.stderr, source, err)
	}

	formatted := format.Source(program)
	if !strings.HasSuffix(formatted, "\n") {
		formatted += "\n"
	}
	changed := formatted != source

	switch {
	case list:
		if changed {
			fmt.Fprintln(e.stdout, filename)
		}
	case diff:
		if changed {
			showDiff(e.stdout, filename, source, formatted)
		}
	case write:
		if changed {
			if err := os.WriteFile(filename, []byte(formatted), 0644); err != nil {
				return fmt.Errorf("writing file: %w", err)
			}
		}
	default:
		fmt.Fprint(e.stdout, formatted)
	}
	return nil
}

// showDiff displays a simple line-by-line diff between original and formatted content
func showDiff(w io.Writer, filename, original, formatted string) {
	fmt.Fprintf(w, "diff %s\n", filename)

	origLines := strings.Split(original, "\n")
	fmtLines := strings.Split(formatted, "\n")
	maxLines := max(len(fmtLines), len(origLines))

	for i := range maxLines {
		origLine, fmtLine := "", ""
		if i < len(origLines) {
			origLine = origLines[i]
		}
		if i < len(fmtLines) {
			fmtLine = fmtLines[i]
		}
		if origLine != fmtLine {
			if origLine != "" {
				fmt.Fprintf(w, "-%d: %s\n", i+1, origLine)
			}
			if fmtLine != "" {
				fmt.Fprintf(w, "+%d: %s\n", i+1, fmtLine)
			}
		}
	}
}

// runBuild implements 'sigil build'
func runBuild(e *env, args []string) error {
	flags := newFlags("build")
	outDir := flags.String("o", "", "Output directory (default: output.dir)")
	emitAST := flags.Bool("ast", false, "Also write the syntax tree as JSON")
	path, err := singleFile(flags, args)
	if err != nil {
		return err
	}
	source, err := readSource(path)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	start := time.Now()
	result, err := compiler.Compile(path, source, compiler.Options{
		Stop:      compiler.StageGenerate,
		MaxDepth:  e.cfg.Parser.MaxDepth,
		Analyzer:  compiler.DeclarationAnalyzer{},
		Generator: compiler.StubGenerator{Module: name, Triple: compiler.HostTriple()},
	})
	if err != nil {
		return reportError(e.stderr, source, err)
	}

	writer := driver.ArtifactWriter{
		Dir:         e.cfg.Output.Dir,
		Compression: e.cfg.Output.Compression,
		Level:       e.cfg.Output.Level,
	}
	if *outDir != "" {
		writer.Dir = *outDir
	}

	written, size, err := writer.Write(name+".ll", []byte(result.IR))
	if err != nil {
		return err
	}
	e.logger.Infof("BUILD", "wrote %s (%s)", written, humanize.Bytes(uint64(size)))

	if *emitAST {
		tree, err := format.JSON(result.Program)
		if err != nil {
			return err
		}
		written, size, err := writer.Write(name+".ast.json", []byte(tree+"\n"))
		if err != nil {
			return err
		}
		e.logger.Infof("BUILD", "wrote %s (%s)", written, humanize.Bytes(uint64(size)))
	}

	fmt.Fprintln(e.stdout, counts.Sprintf("Built %s: %d tokens, %d symbols in %s",
		path, len(result.Tokens), result.Symbols.Len(), time.Since(start).Round(time.Microsecond)))
	return nil
}

// runWatch implements 'sigil watch'
func runWatch(ctx context.Context, e *env, args []string) error {
	flags := newFlags("watch")
	if err := flags.Parse(args); err != nil {
		return err
	}
	roots := flags.Args()
	if len(roots) == 0 {
		roots = []string{"."}
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	checker, cleanup, err := newChecker(e)
	if err != nil {
		return err
	}
	defer cleanup()

	files, err := checker.Discover(roots...)
	if err != nil {
		return err
	}
	results, err := checker.Check(ctx, files)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, counts.Sprintf("Checked %d files: %d failed", len(results), driver.Failed(results)))

	watcher, err := driver.NewWatcher(checker, roots, e.cfgPath, e.cfg.Watch.Debounce, e.stdout, e.stderr)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// runREPL implements 'sigil repl'
func runREPL(e *env, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("repl takes no arguments")
	}
	repl.Start(os.Stdin, e.stdout, Version)
	return nil
}
