package dispatch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/manishiitg/agentctl/internal/domain"
	"github.com/manishiitg/agentctl/internal/fsys"
	"github.com/manishiitg/agentctl/internal/sandbox"
	"github.com/manishiitg/agentctl/internal/search"
	"github.com/manishiitg/agentctl/internal/state"
)

// SubagentDispatcher routes the subagent-only Action variants (FileOp,
// Search, Bash, Todo, Scratchpad, Report, WriteTempScript, Reasoning).
type SubagentDispatcher struct {
	Executor *sandbox.Executor
	Search   *search.Manager
	State    *state.AgentState
	Caps     Capability
}

// Dispatch executes one action and returns its uniform result.
// Orchestrator-only variants (e.g. TaskCreate) also parse successfully
// from a subagent's response; they reach the default branch and come
// back as a ValidationError result.
func (d *SubagentDispatcher) Dispatch(ctx context.Context, a domain.Action) domain.ExecutionResult {
	switch act := a.(type) {
	case domain.FileOp:
		return d.dispatchFileOp(act)
	case domain.Search:
		return d.dispatchSearch(act)
	case domain.Bash:
		return d.dispatchBash(ctx, act)
	case domain.Todo:
		return d.dispatchTodo(act)
	case domain.Scratchpad:
		d.State.AddNote(act.Note)
		return domain.Ok("note recorded")
	case domain.Report:
		return domain.Ok("report accepted")
	case domain.Reasoning:
		return domain.Ok("")
	case domain.WriteTempScript:
		return d.dispatchWriteTempScript(act)
	default:
		return domain.Fail(domain.ErrValidation, fmt.Sprintf("dispatcher has no handler for %T", a))
	}
}

func (d *SubagentDispatcher) dispatchFileOp(op domain.FileOp) domain.ExecutionResult {
	writeKinds := op.Kind == domain.FileWrite || op.Kind == domain.FileEdit || op.Kind == domain.FileMultiEdit
	if writeKinds && !d.Caps.CanWrite {
		return domain.Fail(domain.ErrCapabilityViolation, fmt.Sprintf("%s is not permitted for this agent's capability set", op.Kind))
	}

	switch op.Kind {
	case domain.FileRead:
		content, err := fsys.Read(op.Path, op.Offset, op.Limit)
		if err != nil {
			return opErrToResult(err)
		}
		return domain.Ok(content)
	case domain.FileWrite:
		if err := fsys.Write(op.Path, op.Content); err != nil {
			return opErrToResult(err)
		}
		return domain.Ok(fmt.Sprintf("wrote %d bytes to %s", len(op.Content), op.Path))
	case domain.FileEdit:
		if err := fsys.Edit(op.Path, op.OldString, op.NewString, op.ReplaceAll); err != nil {
			return opErrToResult(err)
		}
		return domain.Ok(fmt.Sprintf("edited %s", op.Path))
	case domain.FileMultiEdit:
		edits := make([]fsys.EditSpec, len(op.Edits))
		for i, e := range op.Edits {
			edits[i] = fsys.EditSpec{OldString: e.OldString, NewString: e.NewString}
		}
		if err := fsys.MultiEdit(op.Path, edits); err != nil {
			return opErrToResult(err)
		}
		return domain.Ok(fmt.Sprintf("applied %d edits to %s", len(op.Edits), op.Path))
	case domain.FileMetadata:
		rows, err := fsys.Metadata(op.Paths)
		if err != nil {
			return opErrToResult(err)
		}
		return domain.Ok(fsys.FormatMetadata(rows))
	default:
		return domain.Fail(domain.ErrValidation, fmt.Sprintf("unknown file op %q", op.Kind))
	}
}

func opErrToResult(err error) domain.ExecutionResult {
	if opErr, ok := err.(*fsys.OpError); ok {
		return domain.Fail(domain.ErrorKind(opErr.Kind), opErr.Message)
	}
	return domain.Fail(domain.ErrValidation, err.Error())
}

func (d *SubagentDispatcher) dispatchSearch(s domain.Search) domain.ExecutionResult {
	switch s.Kind {
	case domain.SearchGrep:
		rows, truncated, err := d.Search.Grep(s.Pattern, s.Path, s.Include)
		if err != nil {
			return domain.Fail(domain.ErrValidation, err.Error())
		}
		return domain.Ok(search.FormatGrep(rows, truncated))
	case domain.SearchGlob:
		paths, truncated, err := d.Search.Glob(s.Pattern, s.Path)
		if err != nil {
			return domain.Fail(domain.ErrValidation, err.Error())
		}
		return domain.Ok(search.FormatGlob(paths, truncated))
	default:
		return domain.Fail(domain.ErrValidation, fmt.Sprintf("unknown search op %q", s.Kind))
	}
}

// dispatchBash treats sandbox outcomes (timeout, non-zero exit,
// truncation) as information, not dispatch failure, per spec.md §7.
func (d *SubagentDispatcher) dispatchBash(ctx context.Context, b domain.Bash) domain.ExecutionResult {
	result, handle, err := d.Executor.Exec(ctx, b.Command, b.Block, b.TimeoutSecs, b.Cwd)
	if err != nil {
		return domain.Fail(domain.ErrValidation, err.Error())
	}
	if !b.Block {
		return domain.Ok(fmt.Sprintf("started non-blocking command, handle=%s", handle))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "exit_code=%d duration=%s timed_out=%t truncated=%t\n", result.ExitCode, result.Duration, result.TimedOut, result.Truncated)
	if result.Stdout != "" {
		fmt.Fprintf(&sb, "stdout:\n%s\n", result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprintf(&sb, "stderr:\n%s\n", result.Stderr)
	}
	return domain.Ok(sb.String())
}

func (d *SubagentDispatcher) dispatchTodo(t domain.Todo) domain.ExecutionResult {
	switch t.Op {
	case domain.TodoAdd:
		id := d.State.AddTodo(t.Text)
		return domain.Ok(fmt.Sprintf("todo %s added", id))
	case domain.TodoComplete:
		if err := d.State.CompleteTodo(t.ID); err != nil {
			return domain.Fail(domain.ErrUnknownTodo, err.Error())
		}
		return domain.Ok(fmt.Sprintf("todo %s completed", t.ID))
	case domain.TodoDelete:
		if err := d.State.DeleteTodo(t.ID); err != nil {
			return domain.Fail(domain.ErrUnknownTodo, err.Error())
		}
		return domain.Ok(fmt.Sprintf("todo %s deleted", t.ID))
	case domain.TodoViewAll:
		return domain.Ok(state.FormatTodos(d.State.Todos()))
	default:
		return domain.Fail(domain.ErrValidation, fmt.Sprintf("unknown todo op %q", t.Op))
	}
}

func (d *SubagentDispatcher) dispatchWriteTempScript(w domain.WriteTempScript) domain.ExecutionResult {
	if !d.Caps.AllowsTempScript {
		return domain.Fail(domain.ErrCapabilityViolation, "write_temp_script is not available for this agent")
	}
	abs, err := filepath.Abs(w.Path)
	if err != nil {
		return domain.Fail(domain.ErrInvalidPath, err.Error())
	}
	root := d.Caps.TempRoot
	if root == "" {
		root = "/tmp"
	}
	if !strings.HasPrefix(abs, filepath.Clean(root)+string(filepath.Separator)) && abs != root {
		return domain.Fail(domain.ErrCapabilityViolation, fmt.Sprintf("write_temp_script is restricted to %s", root))
	}
	if err := fsys.Write(abs, w.Content); err != nil {
		return opErrToResult(err)
	}
	return domain.Ok(fmt.Sprintf("wrote temp script %s", abs))
}
