package eval

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	cmds   []string
	status string
	err    error
}

func (r *recorder) Dispatch(ctx context.Context, cmd string) (string, error) {
	r.cmds = append(r.cmds, cmd)
	return r.status, r.err
}

func TestCommandDispatch(t *testing.T) {
	rec := &recorder{status: "3\n"}
	a := NewAST(WithDispatcher(rec))
	vals := evalLine(t, a, "( new ( init ID:'n' INT:'4' ) ) ; [ FRAG:'echo ' { ( exp ( STAR ID:'n' INT:'2' ) ) } FRAG:' done' ] ;")

	assert.Equal(t, []string{"echo 8 done"}, rec.cmds)
	assert.Empty(t, cmp.Diff([]Value{Int(4), Int(3)}, vals))

	cmd := a.Root().Children()[1].(*Command)
	assert.False(t, cmd.Skipped())
	text, err := cmd.CmdText()
	require.NoError(t, err)
	assert.Equal(t, "echo 8 done", text)
}

func TestCommandSkipsCodeBlock(t *testing.T) {
	rec := &recorder{status: "0"}
	a := NewAST(WithDispatcher(rec))
	vals := evalLine(t, a, "[ FRAG:'echo ' { ( exp INT:'1' ) ; ( exp INT:'2' ) ; } ] ;")

	assert.Empty(t, rec.cmds)
	assert.Empty(t, cmp.Diff([]Value{Nil()}, vals))
	cmd := a.Root().Children()[0].(*Command)
	assert.True(t, cmd.Skipped())
	_, err := cmd.CmdText()
	assert.ErrorIs(t, err, ErrRuntime)
}

func TestCommandProtocolError(t *testing.T) {
	rec := &recorder{status: "ok"}
	a := NewAST(WithDispatcher(rec))
	require.NoError(t, insertLine(t, a, "( exp INT:'1' ) ; [ FRAG:'ls' ] ; ( exp INT:'2' ) ;"))

	vals, err := a.Evaluate(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProtocol), "got %v", err)
	assert.Empty(t, cmp.Diff([]Value{Int(1)}, vals))
	require.Len(t, a.Root().Children(), 2, "failing command is discarded")

	vals, err = a.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff([]Value{Int(2)}, vals))
	assert.Len(t, rec.cmds, 1)
}

func TestCommandDispatcherFailure(t *testing.T) {
	boom := errors.New("broken pipe")
	a := NewAST(WithDispatcher(&recorder{err: boom}))
	require.NoError(t, insertLine(t, a, "[ FRAG:'ls' ] ;"))
	_, err := a.Evaluate(context.Background())
	assert.ErrorIs(t, err, ErrRuntime)
	assert.ErrorIs(t, err, boom)
}

func TestCommandWithoutDispatcher(t *testing.T) {
	a := NewAST()
	require.NoError(t, insertLine(t, a, "[ FRAG:'ls' ] ;"))
	_, err := a.Evaluate(context.Background())
	assert.ErrorIs(t, err, ErrRuntime)
}

func TestCommandShape(t *testing.T) {
	for _, line := range []string{"[ ]", "[ FRAG:'a' INT:'1' ]", "[ FRAG:'a' ( exp INT:'1' ) ]"} {
		a := NewAST()
		err := insertLine(t, a, line)
		assert.ErrorIs(t, err, ErrStructural, line)
	}
}

func TestCommandInsideBlockRunsWithBlock(t *testing.T) {
	rec := &recorder{status: "0"}
	a := NewAST(WithDispatcher(rec))
	require.NoError(t, insertLine(t, a, "{ [ FRAG:'a' ] ; [ FRAG:'b' ] ;"))
	vals, err := a.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vals)
	assert.Empty(t, rec.cmds, "open block does not run")

	vals = evalLine(t, a, "} ;")
	assert.Empty(t, cmp.Diff([]Value{Nil()}, vals))
	assert.Equal(t, []string{"a", "b"}, rec.cmds)
}
