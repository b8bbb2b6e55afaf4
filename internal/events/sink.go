// Package events implements the Hub's observability side channel
// (spec.md §4.7 expansion), grounded on the teacher's
// ContextAwareEventBridge (pkg/orchestrator/context_aware_bridge.go):
// every Hub mutation is observed through a narrow Sink interface instead
// of the Hub logging directly, so operability can be swapped without
// touching task/context logic.
package events

import "github.com/manishiitg/agentctl/internal/xlog"

// Kind names the mutation an Event reports.
type Kind string

const (
	TaskCreated    Kind = "task_created"
	TaskLaunched   Kind = "task_launched"
	TaskCompleted  Kind = "task_completed"
	TaskFailed     Kind = "task_failed"
	ContextAdded   Kind = "context_added"
)

// Event is one observed Hub mutation.
type Event struct {
	Kind    Kind
	TaskID  string
	Fields  map[string]interface{}
}

// Sink observes Hub mutations. The default implementation logs them;
// callers may substitute any Sink (metrics, tracing) without the Hub
// changing.
type Sink interface {
	Emit(e Event)
}

// logrusSink renders every Event through the shared xlog.Logger.
type logrusSink struct {
	logger xlog.Logger
}

// NewLogrusSink builds the default Sink.
func NewLogrusSink(logger xlog.Logger) Sink {
	return &logrusSink{logger: logger}
}

func (s *logrusSink) Emit(e Event) {
	l := s.logger.WithField("event", string(e.Kind))
	if e.TaskID != "" {
		l = l.WithField("task_id", e.TaskID)
	}
	for k, v := range e.Fields {
		l = l.WithField(k, v)
	}
	l.Infof("hub event: %s", e.Kind)
}

// NoopSink discards every event. It is passed explicitly to
// hub.NewWithSink by callers that only care about Hub state (e.g. tests);
// hub.New uses the logrus-backed sink instead.
type NoopSink struct{}

func (NoopSink) Emit(Event) {}
