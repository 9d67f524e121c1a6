package cmd

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lush-shell/lush/eval"
	"github.com/lush-shell/lush/process"
)

func testSession(d eval.Dispatcher) (*session, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	s := newSession(DefaultConfig(), slog.New(slog.DiscardHandler), d, &out, &errOut)
	return s, &out, &errOut
}

func TestSessionEvaluatesLines(t *testing.T) {
	var cmds []string
	d := eval.DispatcherFunc(func(_ context.Context, cmd string) (string, error) {
		cmds = append(cmds, cmd)
		return "0", nil
	})
	s, out, errOut := testSession(d)
	input := strings.Join([]string{
		"( new ( init ID:'x' INT:'6' ) ) ;",
		"( exp ( STAR ID:'x'",
		"INT:'7' ) ) ;",
		"[ FRAG:'echo ' { ( exp ID:'x' ) } ] ;",
		":quit",
		"( exp INT:'99' ) ;",
	}, "\n")

	require.NoError(t, s.runLines(context.Background(), bufio.NewReader(strings.NewReader(input))))
	assert.Equal(t, "=> 6\n=> 42\n=> 0\n", out.String())
	assert.Empty(t, errOut.String())
	assert.Equal(t, []string{"echo 6"}, cmds)
}

func TestSessionReportsErrorsAndContinues(t *testing.T) {
	s, out, errOut := testSession(nil)
	input := "( exp INT:'1' ;\nFRAG:'oops\n( exp INT:'2' ) ;\n"
	require.NoError(t, s.runLines(context.Background(), bufio.NewReader(strings.NewReader(input))))
	assert.Equal(t, "=> 2\n", out.String())
	assert.Contains(t, errOut.String(), "structural error")
	assert.Contains(t, errOut.String(), "incomplete token value")
}

func TestSessionMetaCommands(t *testing.T) {
	s, out, errOut := testSession(nil)
	ctx := context.Background()
	s.handleLine(ctx, "( new ( init ID:'answer' INT:'42' ) ( init ID:'name' STR:'lush' ) ) ;")
	out.Reset()

	s.handleLine(ctx, ":vars")
	assert.Contains(t, out.String(), "NAME", "header is rendered")
	assert.Contains(t, out.String(), "answer")
	assert.Contains(t, out.String(), "42")
	assert.Contains(t, out.String(), "lush")
	out.Reset()

	s.handleLine(ctx, "( exp")
	assert.Equal(t, contPrompt, s.prompt())
	s.handleLine(ctx, ":tree")
	assert.Contains(t, out.String(), "exp [S----] <")
	s.handleLine(ctx, ":reset")
	assert.Equal(t, "lush> ", s.prompt())

	s.handleLine(ctx, ":frobnicate")
	assert.Contains(t, errOut.String(), "unknown command")
	assert.True(t, s.handleLine(ctx, ":quit"))
}

func TestPrintTokens(t *testing.T) {
	var out bytes.Buffer
	err := printTokens(bufio.NewReader(strings.NewReader("( exp INT:'1' )\nSTR:'it\\'s'")), &out, false)
	require.NoError(t, err)
	assert.Equal(t, "(\nexp\nINT:'1'\n)\nSTR:'it\\'s'\n", out.String())

	err = printTokens(bufio.NewReader(strings.NewReader("ok\nSTR:'open")), &out, false)
	assert.ErrorContains(t, err, "line 2")
}

func TestPrintTokensReportsOpenStructures(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printTokens(bufio.NewReader(strings.NewReader("{ ( exp\n) }\n")), &out, false))
	assert.Equal(t, "{\n(\nexp\n# line 1 leaves 2 open\n)\n}\n# line 2 leaves -2 open\n", out.String())
}

func TestPrintTokensCanonicalLines(t *testing.T) {
	var out bytes.Buffer
	in := "{(exp   INT:'1')}\n\tFRAG:'a\\'b' ;\n"
	require.NoError(t, printTokens(bufio.NewReader(strings.NewReader(in)), &out, true))
	assert.Equal(t, "{ ( exp INT:'1' ) }\nFRAG:'a\\'b' ;\n", out.String())
}

func TestSessionRunsScriptFile(t *testing.T) {
	f, err := os.Open("testdata/scope.lush")
	require.NoError(t, err)
	defer f.Close()

	s, out, errOut := testSession(nil)
	require.NoError(t, s.runLines(context.Background(), bufio.NewReader(f)))
	assert.Empty(t, errOut.String())
	assert.Equal(t, "=> 10\n=> nil\n=> 11\n", out.String())
}

func TestDispatcherStdin(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	input := strings.NewReader("")

	d, out := newDispatcher(DefaultConfig(), log, input, true)
	sh, ok := d.(*process.ShellDispatcher)
	require.True(t, ok)
	assert.Nil(t, sh.Stdin)
	assert.Same(t, os.Stdout, out)

	d, _ = newDispatcher(DefaultConfig(), log, input, false)
	sh, ok = d.(*process.ShellDispatcher)
	require.True(t, ok)
	assert.Same(t, os.Stdin, sh.Stdin)

	cfg := DefaultConfig()
	cfg.Dispatch = dispatchLine
	d, out = newDispatcher(cfg, log, input, true)
	assert.IsType(t, &process.LineDispatcher{}, d)
	assert.Same(t, os.Stderr, out)
}
