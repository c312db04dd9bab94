package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/pior/rsdb"
)

// CLI is the rsdb-cli command line. Flags left unset fall back to the config
// file, then to the defaults.
type CLI struct {
	URL      string        `help:"Connection string (default ${default_url})." placeholder:"rsdb://[user@]host[:port][/db]"`
	Config   string        `help:"TOML or YAML config file." type:"existingfile"`
	Timeout  time.Duration `help:"Timeout of each command (default 5s)."`
	LogLevel string        `help:"Log level: debug, info, warn or error."`
	NoColor  bool          `help:"Disable colored output."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("rsdb-cli"),
		kong.Description("Interactive client for the rsdb key-value server."),
		kong.Vars{"default_url": defaultURL},
		kong.UsageOnError(),
	)

	cfg := defaultConfig()
	if cli.Config != "" {
		var err error
		if cfg, err = loadConfig(cli.Config); err != nil {
			kctx.Fatalf("%v", err)
		}
	}
	if err := cfg.applyFlags(&cli); err != nil {
		kctx.Fatalf("%v", err)
	}

	if cfg.NoColor {
		color.NoColor = true
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:   cfg.LogLevel,
		NoColor: color.NoColor || !isatty.IsTerminal(os.Stderr.Fd()),
	}))

	if err := run(cfg, logger); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func run(cfg cliConfig, logger *slog.Logger) error {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	session, err := rsdb.Dial(ctx, cfg.URL, rsdb.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.URL, err)
	}
	defer session.Close()

	if interactive {
		fmt.Println("rsdb CLI - connected to " + session.Addr())
		fmt.Println("Type 'help' for available commands.")
		fmt.Println()
	}

	r := &repl{
		session: session,
		out:     os.Stdout,
		timeout: cfg.Timeout,
		prompt:  interactive,
	}
	return r.run(os.Stdin)
}
