// Package domain holds the core data model shared by every component:
// Context, Task, Report, Turn and the Action tagged union (spec.md §3).
package domain

import "time"

// AgentType distinguishes the two Subagent variants.
type AgentType string

const (
	AgentExplorer AgentType = "explorer"
	AgentCoder    AgentType = "coder"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// FinalStatus is the terminal disposition carried by a Report.
type FinalStatus string

const (
	FinalCompleted FinalStatus = "completed"
	FinalFailed    FinalStatus = "failed"
	FinalForced    FinalStatus = "forced"
)

// Context is an immutable, id-addressed knowledge artifact (spec.md §3).
type Context struct {
	ID        string
	Content   string
	CreatedBy string
	CreatedAt time.Time
}

// ContextBootstrap names a sandbox path to inline into a Subagent's first
// prompt, with the reason the orchestrator gave for including it.
type ContextBootstrap struct {
	Path   string
	Reason string
}

// TaskSpec is the orchestrator-authored request to create a Task.
type TaskSpec struct {
	AgentType         AgentType
	Title             string
	Description       string
	ContextRefs       []string
	ContextBootstrap  []ContextBootstrap
}

// Task is a unit of delegated work tracked by the Hub.
type Task struct {
	ID               string
	AgentType        AgentType
	Title            string
	Description      string
	ContextRefs      []string
	ContextBootstrap []ContextBootstrap
	Status           TaskStatus
	Result           *Report
	FailureReason    string
	Warnings         []string
	CreatedAt        time.Time
	LaunchedAt        *time.Time
	CompletedAt       *time.Time
}

// ReportContext is one context artifact produced by a subagent's Report.
type ReportContext struct {
	ID      string
	Content string
}

// Turn is one request/response round between an agent and the LLM.
type Turn struct {
	AgentID       string
	TurnIndex     int
	PromptRendered string
	RawResponse   string
	Actions       []Action
	Results       []ExecutionResult
	TokensIn      int
	TokensOut     int
	Timestamp     time.Time
}

// ErrorKind enumerates the ExecutionResult failure taxonomy (spec.md §7).
type ErrorKind string

const (
	ErrNone                ErrorKind = ""
	ErrParse               ErrorKind = "ParseError"
	ErrValidation          ErrorKind = "ValidationError"
	ErrCapabilityViolation ErrorKind = "CapabilityViolation"
	ErrNotFound            ErrorKind = "NotFound"
	ErrNotAFile            ErrorKind = "NotAFile"
	ErrPermissionDenied    ErrorKind = "PermissionDenied"
	ErrMissingParent       ErrorKind = "MissingParent"
	ErrInvalidPath         ErrorKind = "InvalidPath"
	ErrAmbiguousEdit       ErrorKind = "AmbiguousEdit"
	ErrUnknownTodo         ErrorKind = "UnknownTodo"
	ErrTimeout             ErrorKind = "Timeout"
	ErrNonZeroExit         ErrorKind = "NonZeroExit"
	ErrTruncated           ErrorKind = "Truncated"
	ErrUnknownTask         ErrorKind = "UnknownTask"
	ErrLLM                 ErrorKind = "LLMError"
	ErrFatal               ErrorKind = "FatalError"
)

// ExecutionResult is the uniform result of dispatching one Action.
type ExecutionResult struct {
	OK           bool
	Payload      string
	ErrorKind    ErrorKind
	ErrorMessage string
}

// Ok builds a successful ExecutionResult.
func Ok(payload string) ExecutionResult {
	return ExecutionResult{OK: true, Payload: payload}
}

// Fail builds a failed ExecutionResult.
func Fail(kind ErrorKind, message string) ExecutionResult {
	return ExecutionResult{OK: false, ErrorKind: kind, ErrorMessage: message}
}
