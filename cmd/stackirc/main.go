// Package main provides stackirc, the command line driver for lowering AST
// documents to stack-machine IR. It parses global options, loads the
// configuration and routes to one subcommand handler.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/orizon-lang/stackir/internal/cli"
	"github.com/orizon-lang/stackir/internal/diagnostic"
)

const toolName = "stackirc"

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// errFailed reports that diagnostics were already printed.
var errFailed = errors.New("failed")

// app is the state shared by all subcommands.
type app struct {
	cfg    *cli.Config
	log    *cli.Logger
	stdout io.Writer
	stderr io.Writer
	color  bool
}

type command struct {
	info cli.CommandInfo
	run  func(a *app, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{cli.CommandInfo{
			Name:        "lower",
			Description: "Lower AST documents to IR",
			Usage:       "stackirc lower [-emit text|json] [-o file] files...",
			Examples:    []string{"stackirc lower prog.json", "stackirc lower -emit json -o prog.ir.json prog.json"},
		}, (*app).cmdLower},
		{cli.CommandInfo{
			Name:        "verify",
			Description: "Check IR stack and label invariants",
			Usage:       "stackirc verify files...",
			Examples:    []string{"stackirc verify prog.json prog.ir.json"},
		}, (*app).cmdVerify},
		{cli.CommandInfo{
			Name:        "run",
			Description: "Lower and execute on the reference machine",
			Usage:       "stackirc run [-steps n] file",
			Examples:    []string{"stackirc -debug run -steps 1000 prog.json"},
		}, (*app).cmdRun},
		{cli.CommandInfo{
			Name:        "watch",
			Description: "Re-lower documents when they change",
			Usage:       "stackirc watch [-emit text|json] files...",
			Examples:    []string{"stackirc -v watch prog.json"},
		}, (*app).cmdWatch},
		{cli.CommandInfo{
			Name:        "fmt",
			Description: "Rewrite AST documents in canonical form",
			Usage:       "stackirc fmt [-w] files...",
			Examples:    []string{"stackirc fmt -w prog.json"},
		}, (*app).cmdFmt},
		{cli.CommandInfo{
			Name:        "serve",
			Description: "Serve lowering over HTTP/3",
			Usage:       "stackirc serve [-addr host:port] [-tls-cert file -tls-key file]",
			Examples:    []string{"stackirc serve -addr 127.0.0.1:8443"},
		}, (*app).cmdServe},
		{cli.CommandInfo{
			Name:        "config",
			Description: "Print the effective configuration or write it to a file",
			Usage:       "stackirc config [-init file [-force]]",
			Examples:    []string{"stackirc -config stackir.json config", "stackirc config -init stackir.json"},
		}, (*app).cmdConfig},
		{cli.CommandInfo{
			Name:        "version",
			Description: "Print version information",
			Usage:       "stackirc version [--json]",
			Examples:    []string{"stackirc version --json"},
		}, (*app).cmdVersion},
	}
}

func main() {
	color := cli.IsTerminal(os.Stderr)
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, color))
}

// run is main without the process exit, returning the exit code.
func run(args []string, stdout, stderr io.Writer, color bool) int {
	fs := flag.NewFlagSet(toolName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to JSON configuration")
	verbose := fs.Bool("v", false, "verbose logging")
	debug := fs.Bool("debug", false, "debug logging")
	fs.Usage = func() { cli.PrintUsage(stderr, toolName, commandInfos()) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := cli.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	if *verbose {
		cfg.Verbose = true
	}
	if *debug {
		cfg.Debug = true
	}

	a := &app{
		cfg:    cfg,
		log:    cli.NewLoggerTo(stderr, cfg.Verbose, cfg.Debug),
		stdout: stdout,
		stderr: stderr,
		color:  color,
	}

	sub, subArgs := rest[0], rest[1:]
	if sub == "help" || sub == "-h" || sub == "--help" {
		cli.PrintUsage(stdout, toolName, commandInfos())
		return exitOK
	}

	for _, c := range commands {
		if c.info.Name != sub {
			continue
		}
		a.log.Debug("running %s %v", sub, subArgs)
		err := c.run(a, subArgs)
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, errUsage):
			if err != errUsage {
				fmt.Fprintf(stderr, "Error: %s\n", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
			}
			fmt.Fprintf(stderr, "usage: %s\n", c.info.Usage)
			return exitUsage
		case errors.Is(err, errFailed):
			return exitFailure
		default:
			a.report(err)
			return exitFailure
		}
	}

	fmt.Fprintf(stderr, "unknown subcommand: %s\n", sub)
	cli.PrintUsage(stderr, toolName, commandInfos())
	return exitUsage
}

// errUsage asks the router to print the subcommand usage.
var errUsage = cli.ErrUsage

func commandInfos() []cli.CommandInfo {
	infos := make([]cli.CommandInfo, len(commands))
	for i, c := range commands {
		infos[i] = c.info
	}
	return infos
}

// report renders err as a diagnostic on stderr.
func (a *app) report(err error) {
	io.WriteString(a.stderr, diagnostic.Format(diagnostic.FromError(err), a.color))
}

// newEngine returns a diagnostic engine configured from the diagnostic
// policy in the configuration.
func (a *app) newEngine() *diagnostic.DiagnosticEngine {
	return diagnostic.NewDiagnosticEngine(diagnostic.DiagnosticConfig{
		IgnoreCodes:      a.cfg.IgnoreCodes,
		MaxErrors:        a.cfg.MaxErrors,
		WarningsAsErrors: a.cfg.WarningsAsErrors,
		ShowSuggestions:  true,
		Color:            a.color,
	})
}

// collect adds u's warnings and error to de. It reports whether u may be
// emitted: it lowered cleanly and none of its warnings became errors.
func collect(de *diagnostic.DiagnosticEngine, u unit) bool {
	before := len(de.GetErrors())
	for _, w := range u.warnings {
		de.AddDiagnostic(diagnostic.FromWarning(w))
	}
	if u.err != nil {
		de.AddDiagnostic(diagnostic.FromError(u.err))
		return false
	}
	return len(de.GetErrors()) == before
}

// flush prints everything de holds, followed by its summary line.
func (a *app) flush(de *diagnostic.DiagnosticEngine) {
	io.WriteString(a.stderr, de.FormatDiagnostics())
}

// parseFlags parses args into fs. The flag package prints its own message,
// so any failure is reported as plain errUsage.
func (a *app) parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}
