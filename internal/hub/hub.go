// Package hub implements the Orchestrator Hub (spec.md §4.7): the task
// registry and Context Store, guarded by a single coarse mutex per
// spec.md §5 ("the workload is not latency-critical in the control
// plane"), grounded on the teacher's BaseOrchestrator as the shared
// lifecycle object every orchestrator variant owns.
package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manishiitg/agentctl/internal/domain"
	"github.com/manishiitg/agentctl/internal/events"
	"github.com/manishiitg/agentctl/internal/xlog"
)

// Launcher runs one Subagent invocation to completion and returns its
// Report. The Hub depends on this interface, not on the subagent package
// directly, so the orchestrator wires the concrete runtime in.
type Launcher interface {
	Run(ctx context.Context, task domain.Task, resolvedContexts []domain.Context) (domain.Report, error)
}

// Snapshot is the view rendered into the Orchestrator's next prompt.
type Snapshot struct {
	Tasks    []domain.Task
	Contexts []domain.Context
}

// Hub owns the Task registry and Context Store for one top-level task.
// Every mutation is observed through sink, the way the teacher's
// ContextAwareEventBridge observes every orchestrator transition,
// keeping operability concerns out of the state-mutation logic itself.
type Hub struct {
	logger xlog.Logger
	sink   events.Sink

	mu       sync.Mutex
	tasks    map[string]*domain.Task
	order    []string // task ids in creation order, for deterministic snapshots
	contexts map[string]domain.Context
	ctxOrder []string

	launcher Launcher
}

// New builds an empty Hub using the default logrus-backed event sink.
// SetLauncher must be called before Launch.
func New(logger xlog.Logger) *Hub {
	return NewWithSink(logger, events.NewLogrusSink(logger))
}

// NewWithSink builds an empty Hub observed by sink, for callers that want
// a non-default Sink (e.g. a no-op sink in tests).
func NewWithSink(logger xlog.Logger, sink events.Sink) *Hub {
	return &Hub{
		logger:   logger,
		sink:     sink,
		tasks:    make(map[string]*domain.Task),
		contexts: make(map[string]domain.Context),
	}
}

// SetLauncher wires the Subagent Runtime used by Launch.
func (h *Hub) SetLauncher(l Launcher) {
	h.launcher = l
}

// CreateTask validates context_refs exist and registers a new pending
// Task, returning its id.
func (h *Hub) CreateTask(spec domain.TaskSpec) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ref := range spec.ContextRefs {
		if _, ok := h.contexts[ref]; !ok {
			return "", fmt.Errorf("ValidationError: context_ref %q does not resolve", ref)
		}
	}

	id := uuid.NewString()
	task := &domain.Task{
		ID:               id,
		AgentType:        spec.AgentType,
		Title:            spec.Title,
		Description:      spec.Description,
		ContextRefs:      spec.ContextRefs,
		ContextBootstrap: spec.ContextBootstrap,
		Status:           domain.TaskPending,
		CreatedAt:        time.Now(),
	}
	h.tasks[id] = task
	h.order = append(h.order, id)

	h.logger.Infof("task created: id=%s type=%s title=%q", id, spec.AgentType, spec.Title)
	h.sink.Emit(events.Event{Kind: events.TaskCreated, TaskID: id, Fields: map[string]interface{}{
		"agent_type": string(spec.AgentType), "title": spec.Title,
	}})
	return id, nil
}

// AddContext registers an orchestrator-authored Context. A second write
// with the same id is rejected (spec.md §3 invariant 1).
func (h *Hub) AddContext(id, content, createdBy string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addContextLocked(id, content, createdBy)
}

func (h *Hub) addContextLocked(id, content, createdBy string) error {
	if _, exists := h.contexts[id]; exists {
		return fmt.Errorf("context id %q already exists", id)
	}
	h.contexts[id] = domain.Context{
		ID:        id,
		Content:   content,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	h.ctxOrder = append(h.ctxOrder, id)
	h.sink.Emit(events.Event{Kind: events.ContextAdded, Fields: map[string]interface{}{
		"context_id": id, "created_by": createdBy,
	}})
	return nil
}

// Launch allocates the Subagent via the wired Launcher, runs it to
// completion, ingests its Report, and transitions the Task to its
// terminal status. Legal only against a task currently in Pending.
func (h *Hub) Launch(ctx context.Context, taskID string) (domain.Report, error) {
	h.mu.Lock()
	task, ok := h.tasks[taskID]
	if !ok {
		h.mu.Unlock()
		return domain.Report{}, fmt.Errorf("UnknownTask: no task with id %q", taskID)
	}
	if task.Status != domain.TaskPending {
		h.mu.Unlock()
		return domain.Report{}, fmt.Errorf("ValidationError: task %q is not pending (status=%s)", taskID, task.Status)
	}

	resolved := make([]domain.Context, 0, len(task.ContextRefs))
	for _, ref := range task.ContextRefs {
		resolved = append(resolved, h.contexts[ref])
	}

	now := time.Now()
	task.Status = domain.TaskRunning
	task.LaunchedAt = &now
	taskCopy := *task
	h.mu.Unlock()

	h.logger.Infof("launching subagent for task %s (%s)", taskID, task.AgentType)
	h.sink.Emit(events.Event{Kind: events.TaskLaunched, TaskID: taskID})
	report, err := h.launcher.Run(ctx, taskCopy, resolved)

	h.mu.Lock()
	defer h.mu.Unlock()

	task, ok = h.tasks[taskID]
	if !ok {
		return report, fmt.Errorf("task %q vanished during launch", taskID)
	}
	completed := time.Now()
	task.CompletedAt = &completed

	if err != nil {
		task.Status = domain.TaskFailed
		task.FailureReason = err.Error()
		h.sink.Emit(events.Event{Kind: events.TaskFailed, TaskID: taskID, Fields: map[string]interface{}{"reason": err.Error()}})
		return domain.Report{}, err
	}

	h.ingestReportLocked(task, report)
	return report, nil
}

// ingestReportLocked atomically absorbs a Report's contexts (duplicate
// ids warn-and-skip rather than aborting the whole report, spec.md §4.7)
// and sets the task's terminal status from report.FinalStatus.
func (h *Hub) ingestReportLocked(task *domain.Task, report domain.Report) {
	for _, rc := range report.Contexts {
		if err := h.addContextLocked(rc.ID, rc.Content, task.ID); err != nil {
			warning := fmt.Sprintf("duplicate context id %q from task %s ignored", rc.ID, task.ID)
			task.Warnings = append(task.Warnings, warning)
			h.logger.Warnf("%s", warning)
		}
	}

	task.Result = &report
	switch report.FinalStatus {
	case domain.FinalCompleted:
		task.Status = domain.TaskCompleted
		h.sink.Emit(events.Event{Kind: events.TaskCompleted, TaskID: task.ID})
	case domain.FinalFailed, domain.FinalForced:
		task.Status = domain.TaskFailed
		if report.FinalStatus == domain.FinalForced {
			task.FailureReason = "forced report: subagent ended without submitting a report"
		}
		h.sink.Emit(events.Event{Kind: events.TaskFailed, TaskID: task.ID, Fields: map[string]interface{}{"reason": task.FailureReason}})
	default:
		task.Status = domain.TaskFailed
		h.sink.Emit(events.Event{Kind: events.TaskFailed, TaskID: task.ID})
	}
}

// Snapshot returns the current view rendered into the Orchestrator's next
// prompt: task summaries plus all context ids/content.
func (h *Hub) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	tasks := make([]domain.Task, 0, len(h.order))
	for _, id := range h.order {
		tasks = append(tasks, *h.tasks[id])
	}
	contexts := make([]domain.Context, 0, len(h.ctxOrder))
	for _, id := range h.ctxOrder {
		contexts = append(contexts, h.contexts[id])
	}
	return Snapshot{Tasks: tasks, Contexts: contexts}
}

// Task returns a copy of a task by id.
func (h *Hub) Task(id string) (domain.Task, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.tasks[id]
	if !ok {
		return domain.Task{}, false
	}
	return *t, true
}

// TaskCount returns the number of registered tasks.
func (h *Hub) TaskCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tasks)
}
