// Package process implements the collaborators that run commands for the
// evaluator. Each receives one assembled command string and answers with a
// single status line.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// CmdPrefix starts every request written by LineDispatcher.
const CmdPrefix = "CMD:"

// LineDispatcher speaks the line protocol: it writes "CMD:<text>\n" to w
// and reads exactly one status line back from r.
type LineDispatcher struct {
	mu  sync.Mutex
	w   io.Writer
	r   *bufio.Reader
	log *slog.Logger
}

// NewLineDispatcher returns a dispatcher writing requests to w and reading
// status lines from r.
func NewLineDispatcher(w io.Writer, r io.Reader, log *slog.Logger) *LineDispatcher {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &LineDispatcher{w: w, r: bufio.NewReader(r), log: log}
}

// Dispatch sends cmd and waits for the status line. Newlines inside cmd
// would break framing and are rejected.
func (d *LineDispatcher) Dispatch(ctx context.Context, cmd string) (string, error) {
	if strings.ContainsAny(cmd, "\r\n") {
		return "", fmt.Errorf("command %q contains a line break", cmd)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := io.WriteString(d.w, CmdPrefix+cmd+"\n"); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}
	line, err := d.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read status: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	d.log.Debug("status line", "cmd", cmd, "line", line)
	return line, nil
}

// ShellDispatcher runs each command through sh -c and reports its exit
// code as the status line.
type ShellDispatcher struct {
	Shell  string
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Log    *slog.Logger
}

// NewShellDispatcher returns a dispatcher wired to the process's standard
// streams.
func NewShellDispatcher(log *slog.Logger) *ShellDispatcher {
	return &ShellDispatcher{
		Shell:  "sh",
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Log:    log,
	}
}

// Dispatch runs cmd. A non-zero exit is a status, not an error; only a
// failure to start the shell is returned as an error.
func (d *ShellDispatcher) Dispatch(ctx context.Context, cmd string) (string, error) {
	shell := d.Shell
	if shell == "" {
		shell = "sh"
	}
	c := exec.CommandContext(ctx, shell, "-c", cmd)
	c.Dir = d.Dir
	if d.Env != nil {
		c.Env = append(os.Environ(), d.Env...)
	}
	c.Stdin = d.Stdin
	c.Stdout = d.Stdout
	c.Stderr = d.Stderr

	status := 0
	if err := c.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return "", fmt.Errorf("run %s: %w", shell, err)
		}
		status = exitErr.ExitCode()
	}
	if d.Log != nil {
		d.Log.Debug("shell command finished", "cmd", cmd, "status", status)
	}
	return strconv.Itoa(status), nil
}
