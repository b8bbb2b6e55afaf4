// Package sandbox implements the Sandbox Executor (spec.md §4.1): the
// path to the shell. The File Manager (fsys) and Search Manager (search)
// access the filesystem directly through the os package, not through this
// executor. Grounded on
// haricheung-agentic-shell's internal/tools/shell.go (bash -c under a
// context timeout), generalized to the full exec contract: hard timeout
// cap, output truncation, and a non-blocking handle registry.
package sandbox

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one exec call.
type Result struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	Duration   time.Duration
	TimedOut   bool
	Truncated  bool
}

// Executor runs shell commands inside the task sandbox.
type Executor struct {
	defaultTimeout time.Duration
	maxTimeout     time.Duration
	outputLimit    int
	defaultCwd     string

	mu      sync.Mutex
	running map[string]*runningCmd
}

type runningCmd struct {
	result Result
	done   bool
}

// New builds an Executor with the given default/hard-cap timeouts and
// per-stream output truncation limit. defaultCwd is used as the working
// directory for any Bash action that doesn't supply its own cwd (empty
// means inherit the agentctl process's own working directory).
func New(defaultTimeout, maxTimeout time.Duration, outputLimitBytes int, defaultCwd string) *Executor {
	return &Executor{
		defaultTimeout: defaultTimeout,
		maxTimeout:     maxTimeout,
		outputLimit:    outputLimitBytes,
		defaultCwd:     defaultCwd,
		running:        make(map[string]*runningCmd),
	}
}

// Exec runs cmd. If block is false, it starts the command, registers a
// handle and returns immediately with TimedOut=false and empty output;
// Poll retrieves the eventual result. The reference workload only uses
// the blocking path (spec.md §9 Open Question).
func (e *Executor) Exec(ctx context.Context, command string, block bool, timeoutSecs int, cwd string) (Result, string, error) {
	timeout := e.resolveTimeout(timeoutSecs)

	if !block {
		handle := uuid.NewString()
		e.mu.Lock()
		e.running[handle] = &runningCmd{}
		e.mu.Unlock()
		go func() {
			res := e.run(context.Background(), command, timeout, cwd)
			e.mu.Lock()
			e.running[handle] = &runningCmd{result: res, done: true}
			e.mu.Unlock()
		}()
		return Result{}, handle, nil
	}

	return e.run(ctx, command, timeout, cwd), "", nil
}

// Poll returns the result of a non-blocking Exec call, or ok=false while
// it is still running or the handle is unknown.
func (e *Executor) Poll(handle string) (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rc, exists := e.running[handle]
	if !exists || !rc.done {
		return Result{}, false
	}
	return rc.result, true
}

func (e *Executor) resolveTimeout(requestedSecs int) time.Duration {
	if requestedSecs <= 0 {
		return e.defaultTimeout
	}
	d := time.Duration(requestedSecs) * time.Second
	if d > e.maxTimeout {
		return e.maxTimeout
	}
	return d
}

func (e *Executor) run(ctx context.Context, command string, timeout time.Duration, cwd string) Result {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if cwd == "" {
		cwd = e.defaultCwd
	}

	cmd := exec.CommandContext(runCtx, "bash", "-c", command)
	if cwd != "" {
		cmd.Dir = cwd
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	timedOut := runCtx.Err() == context.DeadlineExceeded
	if timedOut && cmd.Process != nil {
		// Kill the whole process group; fall back to the single pid.
		if killErr := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); killErr != nil {
			_ = cmd.Process.Kill()
		}
	}

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else if !timedOut {
			exitCode = -1
		}
	}

	stdout, outTrunc := truncate(outBuf.String(), e.outputLimit)
	stderr, errTrunc := truncate(errBuf.String(), e.outputLimit)

	return Result{
		Stdout:    stdout,
		Stderr:    stderr,
		ExitCode:  exitCode,
		Duration:  duration,
		TimedOut:  timedOut,
		Truncated: outTrunc || errTrunc,
	}
}

const truncationMarker = "\n...[truncated]..."

func truncate(s string, limit int) (string, bool) {
	if limit <= 0 || len(s) <= limit {
		return s, false
	}
	return s[:limit] + truncationMarker, true
}
