package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rdenadai/sigil/config"
	"github.com/rdenadai/sigil/driver"
)

// Version is set at compile time via -ldflags
var Version = "0.1.0"

// errReported signals that diagnostics were already printed and the
// process should exit with status 1 without further output.
var errReported = errors.New("errors reported")

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// env bundles what every subcommand needs
type env struct {
	cfg     *config.Config
	cfgPath string
	logger  *driver.Logger
	stdout  io.Writer
	stderr  io.Writer
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("sigil", flag.ContinueOnError)
	flags.SetOutput(io.Discard) // Suppress default -h output

	var (
		configPath  = flags.String("config", "", "Path to config file")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)
	flags.BoolVar(showVersion, "V", false, "Alias for --version")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout)
			return nil
		}
		printUsage(stderr)
		return err
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}
	if *showVersion {
		fmt.Fprintf(stdout, "sigil version %s\n", Version)
		return nil
	}

	if flags.NArg() == 0 {
		printUsage(stderr)
		return fmt.Errorf("missing command")
	}

	cfg, cfgPath, err := config.LoadWithPath(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	for _, warning := range config.Warnings(cfg) {
		fmt.Fprintf(stderr, "[CONFIG] warning: %s\n", warning)
	}

	e := &env{
		cfg:     cfg,
		cfgPath: cfgPath,
		logger:  driver.NewLogger(stderr, cfg.Logging.Format, driver.ParseLevel(cfg.Logging.Level)),
		stdout:  stdout,
		stderr:  stderr,
	}

	command, rest := flags.Arg(0), flags.Args()[1:]
	switch command {
	case "tokens":
		return runTokens(e, rest)
	case "ast":
		return runAST(e, rest)
	case "check":
		return runCheck(ctx, e, rest)
	case "fmt":
		return runFmt(e, rest)
	case "build":
		return runBuild(e, rest)
	case "watch":
		return runWatch(ctx, e, rest)
	case "repl":
		return runREPL(e, rest)
	case "help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `sigil - Sigil language front end version %s

Usage:
  sigil [options] <command> [flags] [args]

Commands:
  tokens [--json] <file>                 Print the token stream
  ast [--format tree|sexp|json] <file>   Print the syntax tree
  check [--report FILE] [--json] [path...]
                                         Check syntax of files and directories
  fmt [-w] [-d] [-l] <file>...           Re-print source in canonical form
  build [-o DIR] [--ast] <file>          Run the full pipeline and write artifacts
  watch [dir...]                         Re-check sources as they change
  repl                                   Start the interactive explorer

Options:
  --config PATH    Path to config file (default: sigil.yaml, then ~/.config/sigil/sigil.yaml)
  -V, --version    Show version information
  --help           Show this help message

Environment:
  SIGIL_CONFIG     Path to config file when --config is not given

Examples:
  sigil ast main.sl                 Print the tree for main.sl
  sigil check src                   Check every source under src
  sigil check --report out.html .   Write an HTML report
  sigil fmt -l src/*.sl             List files that need formatting
  sigil build -o dist main.sl       Write dist/main.ll
`, Version)
}
