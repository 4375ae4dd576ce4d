package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jumpstarter-dev/mcp-jumpstarter/pkg/types"
)

func TestRunCapturesStdout(t *testing.T) {
	r := NewRunner(5)

	result, err := r.Run(context.Background(), "echo", []string{"hello"}, "", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Equal(t, "", result.Stderr)
	assert.True(t, result.Succeeded)
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	r := NewRunner(5)

	result, err := r.Run(context.Background(), "sh", []string{"-c", "echo oops >&2; exit 3"}, "", nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "oops\n", result.Stderr)
	assert.False(t, result.Succeeded)
}

func TestRunSpawnFailureIsDispatchError(t *testing.T) {
	r := NewRunner(5)

	_, err := r.Run(context.Background(), "definitely-not-a-real-executable-xyz", nil, "", nil)
	require.Error(t, err)

	var mcpErr *types.MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, types.ErrCodeDispatchError, mcpErr.Code)
}

func TestRunInjectsLeaseScopeVariable(t *testing.T) {
	r := NewRunner(5)

	result, err := r.Run(context.Background(), "sh", []string{"-c", `printf '%s' "$JMP_LEASE"`}, "L123", nil)
	require.NoError(t, err)
	assert.Equal(t, "L123", result.Stdout)
}

func TestRunOmitsLeaseScopeVariableWithoutLease(t *testing.T) {
	t.Setenv(LeaseEnvVar, "") // make sure nothing leaks in from the test environment

	r := NewRunner(5)
	result, err := r.Run(context.Background(), "sh", []string{"-c", `printf '%s' "${JMP_LEASE-unset}"`}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "", result.Stdout)
}

func TestRunExtraEnv(t *testing.T) {
	r := NewRunner(5)

	result, err := r.Run(context.Background(), "sh", []string{"-c", `printf '%s' "$EXTRA_VAR"`}, "", map[string]string{"EXTRA_VAR": "v1"})
	require.NoError(t, err)
	assert.Equal(t, "v1", result.Stdout)
}

func TestRunConcurrencyLimit(t *testing.T) {
	r := NewRunner(1)

	require.NoError(t, r.acquireSlot())
	defer r.releaseSlot()

	_, err := r.Run(context.Background(), "echo", nil, "", nil)
	require.Error(t, err)

	var mcpErr *types.MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, types.ErrCodeDispatchLimitReached, mcpErr.Code)
}

func TestBuildEnvDeterministic(t *testing.T) {
	a := buildEnv("L1", map[string]string{"B": "2", "A": "1", "C": "3"})
	b := buildEnv("L1", map[string]string{"C": "3", "A": "1", "B": "2"})
	assert.Equal(t, a, b)

	tail := a[len(a)-4:]
	assert.Equal(t, []string{LeaseEnvVar + "=L1", "A=1", "B=2", "C=3"}, tail)
}

func TestOutcomeBody(t *testing.T) {
	t.Run("executed", func(t *testing.T) {
		body := Body(Executed{Result: &CommandResult{ExitCode: 0, Stdout: "out", Succeeded: true}})
		assert.Equal(t, map[string]any{
			"exit_code": 0,
			"stdout":    "out",
			"stderr":    "",
			"succeeded": true,
		}, body)
	})

	t.Run("stubbed gets default status", func(t *testing.T) {
		body := Body(Stubbed{Params: map[string]any{"command": []string{"ls"}}})
		assert.Equal(t, StubbedStatus, body["status"])
		assert.Equal(t, []string{"ls"}, body["command"])
	})

	t.Run("stubbed keeps explicit status", func(t *testing.T) {
		body := Body(Stubbed{Params: map[string]any{"status": "Would start port forwarding"}})
		assert.Equal(t, "Would start port forwarding", body["status"])
	})
}
