package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_CapturesStdoutAndExitCode(t *testing.T) {
	e := New(5*time.Second, 30*time.Second, 1<<20, "")
	result, _, err := e.Exec(context.Background(), "echo hello", true, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Stdout, "hello")
	assert.False(t, result.TimedOut)
}

func TestExec_NonZeroExitCodeIsNotADispatchFailure(t *testing.T) {
	e := New(5*time.Second, 30*time.Second, 1<<20, "")
	result, _, err := e.Exec(context.Background(), "exit 7", true, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 7, result.ExitCode)
}

func TestExec_TimeoutIsKilledAndReported(t *testing.T) {
	e := New(100*time.Millisecond, 1*time.Second, 1<<20, "")
	result, _, err := e.Exec(context.Background(), "sleep 5", true, 0, "")
	require.NoError(t, err)
	assert.True(t, result.TimedOut)
}

func TestExec_RequestedTimeoutCappedAtMax(t *testing.T) {
	e := New(30*time.Second, 1*time.Second, 1<<20, "")
	got := e.resolveTimeout(600)
	assert.Equal(t, 1*time.Second, got)
}

func TestExec_OutputTruncatedPastLimit(t *testing.T) {
	e := New(5*time.Second, 30*time.Second, 5, "")
	result, _, err := e.Exec(context.Background(), "echo 0123456789", true, 0, "")
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Contains(t, result.Stdout, truncationMarker)
}

func TestExec_UsesDefaultCwdWhenCommandOmitsOne(t *testing.T) {
	dir := t.TempDir()
	e := New(5*time.Second, 30*time.Second, 1<<20, dir)
	result, _, err := e.Exec(context.Background(), "pwd", true, 0, "")
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, dir)
}

func TestExec_PerCallCwdOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	e := New(5*time.Second, 30*time.Second, 1<<20, "/")
	result, _, err := e.Exec(context.Background(), "pwd", true, 0, dir)
	require.NoError(t, err)
	assert.Contains(t, result.Stdout, dir)
}
