package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/lush-shell/lush/eval"
	"github.com/lush-shell/lush/internal/logging"
	"github.com/lush-shell/lush/process"
	"github.com/lush-shell/lush/scanner"
)

// Execute runs the lush CLI with the given version string.
func Execute(version string) {
	if err := newApp(version).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(version string) *cli.Command {
	return &cli.Command{
		Name:                   "lush",
		Usage:                  "Evaluator for the lush shell language",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load settings from a .toml or .yaml file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Append logs to this file instead of stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "eval",
				Usage:     "Read token lines and evaluate them",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dispatch",
						Aliases: []string{"d"},
						Usage:   "How commands run: shell (sh -c) or line (CMD:<text> on stdout, status on stdin)",
					},
					&cli.BoolFlag{
						Name:    "print",
						Aliases: []string{"p"},
						Usage:   "Print the tree after every line",
					},
				},
				Action: evalAction,
			},
			{
				Name:      "tokens",
				Usage:     "Decode token lines and print one token per line",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "line",
						Aliases: []string{"l"},
						Usage:   "Print each decoded line re-encoded in canonical form instead",
					},
				},
				Action: tokensAction,
			},
		},
	}
}

// loadConfig merges the config file, if any, with command-line flags.
func loadConfig(cmd *cli.Command) (Config, error) {
	cfg := DefaultConfig()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("log-file") {
		cfg.LogFile = cmd.String("log-file")
	}
	if cmd.IsSet("dispatch") {
		cfg.Dispatch = cmd.String("dispatch")
	}
	if cmd.IsSet("print") {
		cfg.PrintTree = cmd.Bool("print")
	}
	return cfg, cfg.Validate()
}

// newLogger builds the session logger. The returned function closes the
// log file, if one was opened.
func newLogger(cfg Config) (*slog.Logger, func() error, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	var h slog.Handler
	closer := func() error { return nil }
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		h = logging.NewTerminalHandler(f, level, false)
		closer = f.Close
	} else {
		w, useColor := logging.Output(os.Stderr)
		h = logging.NewTerminalHandler(w, level, useColor)
	}
	return slog.New(h).With("session", uuid.NewString()), closer, nil
}

func openInput(cmd *cli.Command) (io.ReadCloser, error) {
	if cmd.NArg() == 0 {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(cmd.Args().First())
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	return f, nil
}

func evalAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	in, err := openInput(cmd)
	if err != nil {
		return err
	}
	defer in.Close()
	input := bufio.NewReader(in)

	interactive := cmd.NArg() == 0 && cfg.Dispatch != dispatchLine && term.IsTerminal(int(os.Stdin.Fd()))
	tokensOnStdin := cmd.NArg() == 0 && !interactive
	d, out := newDispatcher(cfg, log, input, tokensOnStdin)
	s := newSession(cfg, log, d, out, os.Stderr)
	log.Debug("session started", "dispatch", cfg.Dispatch)

	if interactive {
		return s.runInteractive(ctx)
	}
	return s.runLines(ctx, input)
}

// newDispatcher picks the command collaborator and the writer results are
// printed to. In line mode stdout carries the command protocol, so results
// go to stderr. When token lines are read from stdin, shell commands get
// no stdin so they cannot consume the script.
func newDispatcher(cfg Config, log *slog.Logger, input io.Reader, tokensOnStdin bool) (eval.Dispatcher, io.Writer) {
	if cfg.Dispatch == dispatchLine {
		return process.NewLineDispatcher(os.Stdout, input, log), os.Stderr
	}
	d := process.NewShellDispatcher(log)
	if tokensOnStdin {
		d.Stdin = nil
	}
	return d, os.Stdout
}

func tokensAction(ctx context.Context, cmd *cli.Command) error {
	in, err := openInput(cmd)
	if err != nil {
		return err
	}
	defer in.Close()
	return printTokens(bufio.NewReader(in), os.Stdout, cmd.Bool("line"))
}

// printTokens decodes every line of r. With canonical set each line is
// written back through scanner.Format; otherwise one token per line.
func printTokens(r *bufio.Reader, w io.Writer, canonical bool) error {
	for n := 1; ; n++ {
		line, err := r.ReadString('\n')
		if line != "" {
			toks, terr := scanner.Tokenize(line)
			if terr != nil {
				return fmt.Errorf("line %d: %w", n, terr)
			}
			if canonical {
				fmt.Fprintln(w, scanner.Format(toks))
			} else {
				for _, tok := range toks {
					fmt.Fprintln(w, tok)
				}
			}
			if d := scanner.Depth(line); d != 0 {
				fmt.Fprintf(w, "# line %d leaves %d open\n", n, d)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
