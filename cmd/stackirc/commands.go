package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/stackir/internal/astbridge"
	"github.com/orizon-lang/stackir/internal/cli"
	"github.com/orizon-lang/stackir/internal/diagnostic"
	"github.com/orizon-lang/stackir/internal/lir"
	"github.com/orizon-lang/stackir/internal/service"
	"github.com/orizon-lang/stackir/internal/stackvm"
	"github.com/orizon-lang/stackir/internal/watch"
)

// loadAll loads every path concurrently, at most cfg.MaxConcurrency at a
// time. Results keep the order of paths.
func (a *app) loadAll(ctx context.Context, paths []string) ([]unit, error) {
	units := make([]unit, len(paths))
	sem := make(chan struct{}, a.cfg.MaxConcurrency)
	g, gctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}

			defer func() { <-sem }()

			start := time.Now()
			units[i] = load(path)
			a.log.Debug("loaded %s in %s", path, time.Since(start))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return units, nil
}

func (a *app) cmdLower(args []string) error {
	fs := flag.NewFlagSet("lower", flag.ContinueOnError)
	emit := fs.String("emit", a.cfg.Emit, "output format: text or json")
	out := fs.String("o", "", "write output to file (single input only)")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}
	files := fs.Args()
	if err := cli.ValidateArgs(files, 1, -1); err != nil {
		return err
	}
	if *out != "" && len(files) > 1 {
		return fmt.Errorf("%w: -o takes a single input file", errUsage)
	}
	if err := checkEmit(*emit); err != nil {
		return err
	}

	units, err := a.loadAll(context.Background(), files)
	if err != nil {
		return err
	}

	de := a.newEngine()
	failed := false
	var output []byte
	for _, u := range units {
		if !collect(de, u) {
			failed = true
			continue
		}
		text, err := render(u.prog, *emit)
		if err != nil {
			return err
		}
		output = append(output, text...)
		a.log.Info("lowered %s: %d instructions, %d vars", u.path, len(u.prog.Function.Insns), u.prog.Function.VarCount)
	}
	a.flush(de)

	if *out != "" {
		if !failed {
			if err := os.WriteFile(*out, output, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", *out, err)
			}
		}
	} else {
		a.stdout.Write(output)
	}

	if failed {
		return errFailed
	}
	return nil
}

func (a *app) cmdVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}
	files := fs.Args()
	if err := cli.ValidateArgs(files, 1, -1); err != nil {
		return err
	}

	units, err := a.loadAll(context.Background(), files)
	if err != nil {
		return err
	}

	de := a.newEngine()
	failed := false
	for _, u := range units {
		var an *lir.Analysis
		if u.err == nil {
			an, u.err = lir.Analyze(u.prog.Function)
		}
		if !collect(de, u) {
			fmt.Fprintf(a.stdout, "%s: FAILED\n", u.path)
			failed = true
			continue
		}
		fmt.Fprintf(a.stdout, "%s: ok (%d instructions, max stack %d)\n",
			u.path, len(u.prog.Function.Insns), an.MaxDepth)
	}
	a.flush(de)

	if failed {
		return errFailed
	}
	return nil
}

func (a *app) cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	steps := fs.Int("steps", a.cfg.StepLimit, "maximum instructions to execute (negative for no limit)")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}
	if err := cli.ValidateArgs(fs.Args(), 1, 1); err != nil {
		return err
	}

	u := load(fs.Arg(0))
	de := a.newEngine()
	ok := collect(de, u)
	a.flush(de)
	if !ok {
		return errFailed
	}

	cfg := stackvm.Config{StepLimit: *steps}
	if a.cfg.Debug {
		cfg.Trace = func(pc int, in lir.Insn, stack []int32) {
			a.log.Debug("%4d %-12s %v", pc, in, stack)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := stackvm.Run(ctx, u.prog.Function, cfg)
	if err != nil {
		return err
	}
	a.log.Info("%d steps, max stack %d", res.Steps, res.MaxDepth)
	fmt.Fprintln(a.stdout, res.Value)
	return nil
}

func (a *app) cmdWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	emit := fs.String("emit", a.cfg.Emit, "output format: text or json")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}
	files := fs.Args()
	if err := cli.ValidateArgs(files, 1, -1); err != nil {
		return err
	}
	if err := checkEmit(*emit); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.watchLoop(ctx, files, *emit, nil)
}

// watchLoop lowers files once, then again whenever one changes, until ctx is
// done. ready, when non-nil, is closed once the watcher is armed.
func (a *app) watchLoop(ctx context.Context, files []string, emit string, ready chan<- struct{}) error {
	w, err := watch.New(files, 0)
	if err != nil {
		return err
	}
	defer w.Close()

	// Only the goroutine running this function touches de.
	de := a.newEngine()
	relower := func(path string) {
		de.Clear()
		u := load(path)
		if collect(de, u) {
			if text, err := render(u.prog, emit); err == nil {
				a.stdout.Write(text)
			} else {
				de.AddDiagnostic(diagnostic.FromError(err))
			}
		}
		a.flush(de)
	}

	for _, f := range files {
		relower(f)
	}
	a.log.Info("watching %d file(s)", len(files))
	if ready != nil {
		close(ready)
	}

	err = w.Run(ctx, func(ev watch.Event) {
		a.log.Info("%s changed", ev.Path)
		relower(ev.Path)
	}, func(err error) {
		a.log.Warn("watch: %v", err)
	})
	if err == context.Canceled {
		return nil
	}
	return err
}

func (a *app) cmdFmt(args []string) error {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	write := fs.Bool("w", false, "rewrite files in place instead of printing")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}
	files := fs.Args()
	if err := cli.ValidateArgs(files, 1, -1); err != nil {
		return err
	}

	de := a.newEngine()
	failed := false
	for _, path := range files {
		p, err := astbridge.DecodeFile(path)
		if err == nil {
			var data []byte
			if data, err = astbridge.Encode(p); err == nil {
				data = append(data, '\n')
				if *write {
					err = os.WriteFile(path, data, 0o644)
				} else {
					a.stdout.Write(data)
				}
			}
		}
		if err != nil {
			de.AddDiagnostic(diagnostic.FromError(err))
			failed = true
			continue
		}
		a.log.Info("formatted %s", path)
	}
	a.flush(de)

	if failed {
		return errFailed
	}
	return nil
}

func (a *app) cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", a.cfg.ServeAddr, "UDP listen address")
	cert := fs.String("tls-cert", a.cfg.TLSCert, "path to TLS certificate (PEM)")
	key := fs.String("tls-key", a.cfg.TLSKey, "path to TLS private key (PEM)")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}
	if err := cli.ValidateArgs(fs.Args(), 0, 0); err != nil {
		return err
	}

	tlsCfg, err := service.ServerTLS(*addr, *cert, *key)
	if err != nil {
		return err
	}
	if *cert == "" {
		a.log.Warn("no TLS key pair configured, using a self-signed certificate")
	}

	srv, err := service.Listen(*addr, tlsCfg, service.NewHandler(service.Options{Logger: a.log}))
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	fmt.Fprintf(a.stdout, "serving on https://%s (HTTP/3)\n", srv.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.Serve(ctx)
	a.log.Info("server stopped")
	return err
}

func (a *app) cmdConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	initPath := fs.String("init", "", "write the effective configuration to this file")
	force := fs.Bool("force", false, "overwrite an existing file with -init")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}
	if err := cli.ValidateArgs(fs.Args(), 0, 0); err != nil {
		return err
	}

	if *initPath == "" {
		data, err := json.MarshalIndent(a.cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s\n", data)
		return nil
	}

	if _, err := os.Stat(*initPath); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", *initPath)
	}
	if err := a.cfg.SaveConfig(*initPath); err != nil {
		return err
	}
	a.log.Info("wrote %s", *initPath)
	return nil
}

func (a *app) cmdVersion(args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON")
	if err := a.parseFlags(fs, args); err != nil {
		return err
	}
	if err := cli.ValidateArgs(fs.Args(), 0, 0); err != nil {
		return err
	}
	return cli.PrintVersion(a.stdout, toolName, cli.GetVersionInfo(lir.FormatVersion, astbridge.FormatVersion), *jsonOut)
}
