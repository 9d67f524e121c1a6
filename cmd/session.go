package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"

	"github.com/lush-shell/lush/eval"
	"github.com/lush-shell/lush/scanner"
)

const contPrompt = "....> "

// session feeds token lines to one AST and reports results.
type session struct {
	cfg Config
	ast *eval.AST
	log *slog.Logger
	out io.Writer
	err io.Writer
}

func newSession(cfg Config, log *slog.Logger, d eval.Dispatcher, out, errOut io.Writer) *session {
	return &session{
		cfg: cfg,
		ast: eval.NewAST(eval.WithLogger(log), eval.WithDispatcher(d)),
		log: log,
		out: out,
		err: errOut,
	}
}

// handleLine processes one line of input and reports whether the session
// should end.
func (s *session) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ":") {
		return s.meta(line)
	}

	toks, err := scanner.Tokenize(line)
	if err != nil {
		fmt.Fprintf(s.err, "error: %v\n", err)
		return false
	}
	if err := s.ast.InsertAll(toks); err != nil {
		fmt.Fprintf(s.err, "error: %v\n", err)
	}
	if s.cfg.PrintTree {
		fmt.Fprint(s.out, s.ast.Print())
	}
	vals, err := s.ast.Evaluate(ctx)
	for _, v := range vals {
		fmt.Fprintf(s.out, "=> %s\n", v)
	}
	if err != nil {
		fmt.Fprintf(s.err, "error: %v\n", err)
	}
	return false
}

func (s *session) meta(line string) bool {
	switch strings.ToLower(line) {
	case ":quit", ":q":
		return true
	case ":tree":
		fmt.Fprint(s.out, s.ast.Print())
	case ":vars":
		s.printVars()
	case ":reset":
		s.ast.Reset()
		fmt.Fprintln(s.out, "reset")
	case ":help":
		fmt.Fprintln(s.out, "commands: :tree :vars :reset :quit")
	default:
		fmt.Fprintf(s.err, "unknown command %s; type :help\n", line)
	}
	return false
}

func (s *session) printVars() {
	g := s.ast.Global()
	table := tablewriter.NewWriter(s.out)
	table.SetHeader([]string{"Name", "Type", "Value"})
	for _, name := range g.Names() {
		v, _ := g.Get(name)
		table.Append([]string{name, v.Tag.String(), v.String()})
	}
	table.Render()
}

func (s *session) prompt() string {
	if s.ast.Cursor() != eval.Node(s.ast.Root()) {
		return contPrompt
	}
	return s.cfg.Prompt
}

// runLines reads lines from r until EOF or :quit.
func (s *session) runLines(ctx context.Context, r *bufio.Reader) error {
	for {
		line, err := r.ReadString('\n')
		if line != "" && s.handleLine(ctx, line) {
			return nil
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// runInteractive is the line-editing REPL used when stdin is a terminal.
func (s *session) runInteractive(ctx context.Context) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	hist := s.cfg.historyPath()
	if hist != "" {
		if f, err := os.Open(hist); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(hist); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		line, err := ln.Prompt(s.prompt())
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			s.ast.Reset()
			continue
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if s.handleLine(ctx, line) {
			return nil
		}
	}
}
