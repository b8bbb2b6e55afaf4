// Package orchestrator implements the Orchestrator Runtime (spec.md
// §4.9): the top-level turn loop that delegates to Subagents via the Hub
// and terminates on a Finish action, grounded on the teacher's
// BaseOrchestrator.Run main loop shape.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/manishiitg/agentctl/internal/action"
	"github.com/manishiitg/agentctl/internal/dispatch"
	"github.com/manishiitg/agentctl/internal/domain"
	"github.com/manishiitg/agentctl/internal/hub"
	"github.com/manishiitg/agentctl/internal/history"
	"github.com/manishiitg/agentctl/internal/llmclient"
	"github.com/manishiitg/agentctl/internal/xlog"
)

// Stats is the accounting returned alongside the final message (spec.md
// §6 entry point contract).
type Stats struct {
	Turns              int
	ExplorerTasks      int
	CoderTasks         int
	TasksCompleted     int
	TasksFailed        int
	TokensIn           int
	TokensOut          int
	UnverifiedFinish   bool
	BudgetExhausted    bool
}

// LLMCaller is the subset of llmclient.Client the orchestrator loop
// depends on, so tests can substitute a scripted fake instead of a live
// gateway.
type LLMCaller interface {
	Call(ctx context.Context, messages []llmclient.Message) (llmclient.Response, error)
}

// Config configures one Orchestrator Runtime invocation.
type Config struct {
	AgentID     string
	MaxTurns    int
	TokenBudget int
}

// Runtime is the top-level loop: render prompt, call the LLM, parse and
// dispatch orchestrator actions, terminate on Finish.
type Runtime struct {
	cfg        Config
	hub        *hub.Hub
	dispatcher *dispatch.OrchestratorDispatcher
	llm        LLMCaller
	history    *history.History
	turnLog    *history.TurnLogger
	logger     xlog.Logger
}

// New builds an Orchestrator Runtime bound to hub h.
func New(cfg Config, h *hub.Hub, llm LLMCaller, turnLog *history.TurnLogger, logger xlog.Logger) *Runtime {
	return &Runtime{
		cfg:        cfg,
		hub:        h,
		dispatcher: &dispatch.OrchestratorDispatcher{Hub: h},
		llm:        llm,
		history:    history.New(cfg.AgentID, cfg.TokenBudget),
		turnLog:    turnLog,
		logger:     logger,
	}
}

// Run executes the top-level loop for instruction and returns the
// Finish message plus run stats. Turn-budget exhaustion synthesizes an
// implicit Finish rather than erroring (spec.md §9 decision).
func (r *Runtime) Run(ctx context.Context, instruction string) (string, Stats) {
	stats := Stats{}
	systemPrompt := r.renderSystemPrompt(instruction)

	lastCoderTaskID := ""
	explorerVerifiedLastCoder := true

	for turn := 1; turn <= r.cfg.MaxTurns; turn++ {
		stats.Turns = turn
		prompt := r.renderTurnPrompt(systemPrompt, turn)
		messages := []llmclient.Message{{Role: "system", Content: prompt}}

		resp, err := r.llm.Call(ctx, messages)
		if err != nil {
			r.logger.Warnf("orchestrator turn %d: llm call failed, retrying once: %v", turn, err)
			resp, err = r.llm.Call(ctx, messages)
			if err != nil {
				r.logger.Warnf("orchestrator turn %d: llm call failed again after retry, forcing finish: %v", turn, err)
				stats.UnverifiedFinish = lastCoderTaskID != "" && !explorerVerifiedLastCoder
				return fmt.Sprintf("llm unavailable: orchestrator could not reach the LLM gateway after a retry: %v", err), stats
			}
		}
		stats.TokensIn += resp.TokensIn
		stats.TokensOut += resp.TokensOut

		items := action.Parse(resp.Text)
		results := make([]domain.ExecutionResult, len(items))
		var finishMsg *string

		for i, it := range items {
			if it.Err != nil {
				results[i] = domain.Fail(domain.ErrParse, it.Err.Error())
				continue
			}

			switch act := it.Action.(type) {
			case domain.TaskCreate:
				switch act.AgentType {
				case domain.AgentExplorer:
					stats.ExplorerTasks++
				case domain.AgentCoder:
					stats.CoderTasks++
				}
				results[i] = r.dispatcher.Dispatch(ctx, it.Action)

			case domain.LaunchSubagent:
				before, _ := r.hub.Task(act.TaskID)
				results[i] = r.dispatcher.Dispatch(ctx, it.Action)
				after, ok := r.hub.Task(act.TaskID)
				if ok {
					switch after.Status {
					case domain.TaskCompleted:
						stats.TasksCompleted++
					case domain.TaskFailed:
						stats.TasksFailed++
					}
					if before.AgentType == domain.AgentCoder {
						lastCoderTaskID = act.TaskID
						explorerVerifiedLastCoder = false
					} else if before.AgentType == domain.AgentExplorer && lastCoderTaskID != "" && after.Status == domain.TaskCompleted {
						explorerVerifiedLastCoder = true
					}
				}

			case domain.Finish:
				msg := act.Message
				finishMsg = &msg
				results[i] = domain.Ok(msg)

			default:
				results[i] = r.dispatcher.Dispatch(ctx, it.Action)
			}
		}

		t := domain.Turn{
			AgentID:        r.cfg.AgentID,
			TurnIndex:      turn,
			PromptRendered: prompt,
			RawResponse:    resp.Text,
			Results:        results,
			TokensIn:       resp.TokensIn,
			TokensOut:      resp.TokensOut,
			Timestamp:      time.Now(),
		}
		for _, it := range items {
			if it.Action != nil {
				t.Actions = append(t.Actions, it.Action)
			}
		}
		r.history.Append(t)
		if r.turnLog != nil {
			if err := r.turnLog.Write(t); err != nil {
				r.logger.Warnf("turn log write failed: %v", err)
			}
		}

		if finishMsg != nil {
			stats.UnverifiedFinish = lastCoderTaskID != "" && !explorerVerifiedLastCoder
			return *finishMsg, stats
		}
	}

	stats.BudgetExhausted = true
	stats.UnverifiedFinish = lastCoderTaskID != "" && !explorerVerifiedLastCoder
	return "budget exhausted: orchestrator turn limit reached without a finish action", stats
}

func (r *Runtime) renderSystemPrompt(instruction string) string {
	return fmt.Sprintf("You are the orchestrator. Delegate to explorer/coder subagents via task_create and launch_subagent; accumulate context via add_context; call finish when done.\n\nTop-level task:\n%s\n", instruction)
}

func (r *Runtime) renderTurnPrompt(systemPrompt string, turn int) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n")

	snap := r.hub.Snapshot()
	b.WriteString("tasks:\n")
	for _, t := range snap.Tasks {
		fmt.Fprintf(&b, "- id=%s type=%s status=%s title=%q\n", t.ID, t.AgentType, t.Status, t.Title)
	}
	b.WriteString("contexts:\n")
	for _, c := range snap.Contexts {
		fmt.Fprintf(&b, "- id=%s (from %s): %s\n", c.ID, c.CreatedBy, truncate(c.Content, 400))
	}

	b.WriteString("\n")
	b.WriteString(r.history.Render())

	if turn == r.cfg.MaxTurns-1 {
		b.WriteString("\nYour turn budget ends after the next turn. You must call finish on your next turn.\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
