package eval

import (
	"context"
	"strconv"
	"strings"
)

// Dispatcher hands a fully assembled command to the process collaborator
// and returns the single status line it answered with.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd string) (string, error)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, cmd string) (string, error)

func (f DispatcherFunc) Dispatch(ctx context.Context, cmd string) (string, error) {
	return f(ctx, cmd)
}

// CommandFragment is literal command text.
type CommandFragment struct {
	nodeBase
}

func (f *CommandFragment) complete() error {
	if len(f.children) != 0 {
		return structuralf(f, "command fragment cannot have children")
	}
	return nil
}

// Command concatenates its fragments and expression blocks into one
// command string and dispatches it.
type Command struct {
	nodeBase
	skipped bool
}

// Skipped reports whether evaluation skipped dispatch because the command
// contains a code block.
func (c *Command) Skipped() bool { return c.skipped }

func (c *Command) complete() error {
	if len(c.children) == 0 {
		return structuralf(c, "empty command")
	}
	for _, ch := range c.children {
		switch ch.(type) {
		case *CommandFragment, *Block:
		default:
			return structuralf(ch, "command cannot contain %s", ch.Name())
		}
	}
	return nil
}

func (c *Command) hasCodeBlock() bool {
	for _, ch := range c.children {
		if b, ok := ch.(*Block); ok && b.IsCodeBlock() {
			return true
		}
	}
	return false
}

// CmdText assembles the command string from evaluated children. It fails
// if a child block is a code block.
func (c *Command) CmdText() (string, error) {
	var sb strings.Builder
	for _, ch := range c.children {
		switch x := ch.(type) {
		case *CommandFragment:
			sb.WriteString(x.text)
		case *Block:
			s, err := x.cmdText()
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
	}
	return sb.String(), nil
}

func (c *Command) evaluate(ctx context.Context, a *AST) error {
	if c.hasCodeBlock() {
		c.skipped = true
		c.result = Nil()
		a.log.Debug("command skipped", "reason", "code block")
		return nil
	}
	text, err := c.CmdText()
	if err != nil {
		return err
	}
	if a.dispatcher == nil {
		return runtimef(c, "no dispatcher configured for command %q", text)
	}
	a.log.Info("dispatching command", "cmd", text)
	line, err := a.dispatcher.Dispatch(ctx, text)
	if err != nil {
		e := runtimef(c, "dispatching %q failed", text)
		e.Err = err
		return e
	}
	status, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		e := newError(ProtocolError, c, "status line %q is not an integer", line)
		e.Err = err
		return e
	}
	a.log.Debug("command finished", "cmd", text, "status", status)
	c.result = Int(int64(status))
	return nil
}
