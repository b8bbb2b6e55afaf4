package hub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manishiitg/agentctl/internal/domain"
	"github.com/manishiitg/agentctl/internal/events"
	"github.com/manishiitg/agentctl/internal/xlog"
)

type stubLauncher struct {
	report domain.Report
	err    error
}

func (s stubLauncher) Run(ctx context.Context, task domain.Task, resolvedContexts []domain.Context) (domain.Report, error) {
	return s.report, s.err
}

func newTestHub() *Hub {
	return NewWithSink(xlog.NewTest(), events.NoopSink{})
}

func TestCreateTask_RejectsUnresolvedContextRef(t *testing.T) {
	h := newTestHub()
	_, err := h.CreateTask(domain.TaskSpec{AgentType: domain.AgentExplorer, Title: "t", ContextRefs: []string{"missing"}})
	require.Error(t, err)
}

func TestAddContext_RejectsDuplicateID(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.AddContext("c1", "hello", "orchestrator"))
	err := h.AddContext("c1", "world", "orchestrator")
	require.Error(t, err)
}

func TestLaunch_CompletedReportMarksTaskCompleted(t *testing.T) {
	h := newTestHub()
	h.SetLauncher(stubLauncher{report: domain.Report{FinalStatus: domain.FinalCompleted, Comments: "done"}})

	id, err := h.CreateTask(domain.TaskSpec{AgentType: domain.AgentExplorer, Title: "explore"})
	require.NoError(t, err)

	report, err := h.Launch(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.FinalCompleted, report.FinalStatus)

	task, ok := h.Task(id)
	require.True(t, ok)
	assert.Equal(t, domain.TaskCompleted, task.Status)
}

func TestLaunch_ForcedReportMarksTaskFailedWithReason(t *testing.T) {
	h := newTestHub()
	h.SetLauncher(stubLauncher{report: domain.Report{FinalStatus: domain.FinalForced}})

	id, err := h.CreateTask(domain.TaskSpec{AgentType: domain.AgentCoder, Title: "code"})
	require.NoError(t, err)

	_, err = h.Launch(context.Background(), id)
	require.NoError(t, err)

	task, ok := h.Task(id)
	require.True(t, ok)
	assert.Equal(t, domain.TaskFailed, task.Status)
	assert.Contains(t, task.FailureReason, "forced report")
}

func TestLaunch_UnknownTaskErrors(t *testing.T) {
	h := newTestHub()
	h.SetLauncher(stubLauncher{})
	_, err := h.Launch(context.Background(), "does-not-exist")
	require.Error(t, err)
}

func TestLaunch_DuplicateContextFromReportIsWarnedNotFatal(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.AddContext("dup", "original", "orchestrator"))
	h.SetLauncher(stubLauncher{report: domain.Report{
		FinalStatus: domain.FinalCompleted,
		Contexts:    []domain.ReportContext{{ID: "dup", Content: "overwrite attempt"}},
	}})

	id, err := h.CreateTask(domain.TaskSpec{AgentType: domain.AgentExplorer, Title: "explore"})
	require.NoError(t, err)

	_, err = h.Launch(context.Background(), id)
	require.NoError(t, err)

	task, ok := h.Task(id)
	require.True(t, ok)
	assert.Equal(t, domain.TaskCompleted, task.Status)
	require.Len(t, task.Warnings, 1)

	snap := h.Snapshot()
	for _, c := range snap.Contexts {
		if c.ID == "dup" {
			assert.Equal(t, "original", c.Content, "first writer wins; duplicate is ignored")
		}
	}
}

func TestSnapshot_ReturnsTasksAndContextsInCreationOrder(t *testing.T) {
	h := newTestHub()
	require.NoError(t, h.AddContext("c1", "x", "orchestrator"))
	require.NoError(t, h.AddContext("c2", "y", "orchestrator"))
	_, err := h.CreateTask(domain.TaskSpec{AgentType: domain.AgentExplorer, Title: "first"})
	require.NoError(t, err)
	_, err = h.CreateTask(domain.TaskSpec{AgentType: domain.AgentCoder, Title: "second"})
	require.NoError(t, err)

	snap := h.Snapshot()
	require.Len(t, snap.Tasks, 2)
	assert.Equal(t, "first", snap.Tasks[0].Title)
	assert.Equal(t, "second", snap.Tasks[1].Title)
	require.Len(t, snap.Contexts, 2)
	assert.Equal(t, "c1", snap.Contexts[0].ID)
}
