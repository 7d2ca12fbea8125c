// asar reads and writes single-file archives: a JSON header describing a
// directory tree followed by the concatenated contents of its files.
//
// Usage:
//
//	asar list <archive|dir> [--pattern P]
//	asar extract <archive> <dest>
//	asar extract-file <archive> <path> [-o file]
//	asar pack <dir> <archive> [--order sorted|native] [--padding none|4|8] [--integrity]
//	asar check <archive>... [-j N]
//
// Defaults for every flag can be set in a YAML file named by --config or
// ASAR_CONFIG.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"github.com/meigma/asar"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runFunc executes a command after its flags are parsed.
type runFunc func(ctx context.Context, e *env, args []string) error

type command struct {
	name    string
	args    string
	summary string
	minArgs int
	maxArgs int // -1 for no limit
	setup   func(fs *pflag.FlagSet) runFunc
}

var commands = []command{
	{"list", "<archive|dir>", "print every path in an archive or directory", 1, 1, setupList},
	{"extract", "<archive> <dest>", "extract an archive into a directory", 2, 2, setupExtract},
	{"extract-file", "<archive> <path>", "write one file's contents to stdout or --output", 2, 2, setupExtractFile},
	{"pack", "<dir> <archive>", "pack a directory into an archive", 2, 2, setupPack},
	{"check", "<archive>...", "verify that archives decode and every file reads back", 1, -1, setupCheck},
}

// env carries what every command needs once flags and config are resolved.
type env struct {
	cfg    *Config
	flags  *pflag.FlagSet
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func (e *env) openOptions() []asar.Option {
	order, _ := asar.ParseOrder(e.cfg.Pack.Order) //nolint:errcheck // validated by LoadConfig or the command
	return []asar.Option{
		asar.WithLogger(e.logger),
		asar.WithStrictMarker(e.cfg.Open.StrictMarker),
		asar.WithOrder(order),
		asar.WithIntegrity(e.cfg.Pack.Integrity, e.cfg.Pack.BlockSize),
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return errors.New("no command given")
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stderr)
		return nil
	}

	i := slices.IndexFunc(commands, func(c command) bool { return c.name == args[0] })
	if i < 0 {
		printUsage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	cmd := commands[i]

	flagSet := pflag.NewFlagSet("asar "+cmd.name, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: asar %s %s [flags]\n\n%s.\n\nFlags:\n", cmd.name, cmd.args, cmd.summary)
		flagSet.PrintDefaults()
	}
	configPath := flagSet.String("config", "", "YAML file with flag defaults (default $"+configEnv+")")
	verbose := flagSet.BoolP("verbose", "v", false, "log debug detail to stderr")
	runCmd := cmd.setup(flagSet)

	if err := flagSet.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	rest := flagSet.Args()
	if len(rest) < cmd.minArgs || (cmd.maxArgs >= 0 && len(rest) > cmd.maxArgs) {
		flagSet.Usage()
		return fmt.Errorf("%s: wrong number of arguments", cmd.name)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	e := &env{
		cfg:    cfg,
		flags:  flagSet,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		stdout: stdout,
		stderr: stderr,
	}
	return runCmd(ctx, e, rest)
}

func printUsage(w io.Writer) {
	var b strings.Builder
	b.WriteString("asar reads and writes single-file archives.\n\nUsage:\n  asar <command> [flags] [args]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-13s %s\n", c.name, c.summary)
	}
	b.WriteString("\nRun 'asar <command> --help' for the flags of a command.\n")
	fmt.Fprint(w, b.String())
}
