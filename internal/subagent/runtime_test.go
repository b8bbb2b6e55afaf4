package subagent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manishiitg/agentctl/internal/dispatch"
	"github.com/manishiitg/agentctl/internal/domain"
	"github.com/manishiitg/agentctl/internal/llmclient"
	"github.com/manishiitg/agentctl/internal/sandbox"
	"github.com/manishiitg/agentctl/internal/search"
	"github.com/manishiitg/agentctl/internal/xlog"
)

// scriptedLLM returns one canned response per call, in order, and the
// last one repeatedly once the script is exhausted.
type scriptedLLM struct {
	responses []string
	calls     int
}

func (s *scriptedLLM) Call(ctx context.Context, messages []llmclient.Message) (llmclient.Response, error) {
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return llmclient.Response{Text: s.responses[idx]}, nil
}

// alwaysFailingLLM simulates a persistently unreachable gateway.
type alwaysFailingLLM struct {
	calls int
}

func (f *alwaysFailingLLM) Call(ctx context.Context, messages []llmclient.Message) (llmclient.Response, error) {
	f.calls++
	return llmclient.Response{}, errors.New("gateway unreachable")
}

func newTestRuntime(t *testing.T, llm LLMCaller, maxTurns int) *Runtime {
	t.Helper()
	return New(Config{
		AgentID:   "test-agent",
		AgentType: domain.AgentExplorer,
		Caps:      dispatch.Explorer(t.TempDir()),
		MaxTurns:  maxTurns,
	}, llm, sandbox.New(5*time.Second, 30*time.Second, 1<<20, ""), search.New(1000), nil, xlog.NewTest())
}

func TestRun_StopsOnExplicitReport(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`<report>
  final_status: "completed"
  comments: "all done"
</report>`,
	}}
	rt := newTestRuntime(t, llm, 5)

	report, err := rt.Run(context.Background(), domain.Task{ID: "task-1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.FinalCompleted, report.FinalStatus)
	assert.Equal(t, "all done", report.Comments)
	assert.Equal(t, "task-1", report.TaskID)
	assert.Equal(t, 1, llm.calls)
}

func TestRun_ForcesReportWhenTurnBudgetExhausted(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`<scratchpad>
  note: "still exploring"
</scratchpad>`,
	}}
	rt := newTestRuntime(t, llm, 3)

	report, err := rt.Run(context.Background(), domain.Task{ID: "task-2"}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.FinalForced, report.FinalStatus)
	assert.Equal(t, 3, llm.calls, "the loop must run exactly MaxTurns times before forcing a report")
}

func TestRun_PersistentLLMFailureForcesReportAfterOneRetry(t *testing.T) {
	llm := &alwaysFailingLLM{}
	rt := newTestRuntime(t, llm, 10)

	report, err := rt.Run(context.Background(), domain.Task{ID: "task-5"}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.FinalForced, report.FinalStatus)
	assert.Equal(t, 2, llm.calls, "the turn must be retried exactly once before forcing a report, independent of MaxTurns")
}

func TestRun_ExplorerCannotWriteFiles(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`<file>
  action: "write"
  path: "/tmp/should-not-exist.txt"
  content: "nope"
</file>
<report>
  final_status: "failed"
  comments: "blocked as expected"
</report>`,
	}}
	rt := newTestRuntime(t, llm, 5)

	report, err := rt.Run(context.Background(), domain.Task{ID: "task-3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.FinalFailed, report.FinalStatus)
}

func TestRun_ResolvedContextsAreInlinedIntoSystemPrompt(t *testing.T) {
	llm := &scriptedLLM{responses: []string{
		`<report>
  final_status: "completed"
</report>`,
	}}
	rt := newTestRuntime(t, llm, 5)

	_, err := rt.Run(context.Background(), domain.Task{ID: "task-4", Title: "investigate"}, []domain.Context{
		{ID: "finding-1", Content: "the bug is in main.go"},
	})
	require.NoError(t, err)

	prompt := rt.renderSystemPrompt(domain.Task{ID: "task-4", Title: "investigate"}, []domain.Context{
		{ID: "finding-1", Content: "the bug is in main.go"},
	})
	assert.Contains(t, prompt, "the bug is in main.go")
}
