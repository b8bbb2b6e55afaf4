// Package subagent implements the Subagent Runtime (spec.md §4.8): the
// Explorer/Coder turn loop, grounded on the teacher's conversation.go
// AskWithHistory loop shape (`for turn := 0; turn < MaxTurns; turn++`)
// generalized to the capability-set model from spec.md §9.
package subagent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/manishiitg/agentctl/internal/action"
	"github.com/manishiitg/agentctl/internal/dispatch"
	"github.com/manishiitg/agentctl/internal/domain"
	"github.com/manishiitg/agentctl/internal/fsys"
	"github.com/manishiitg/agentctl/internal/history"
	"github.com/manishiitg/agentctl/internal/llmclient"
	"github.com/manishiitg/agentctl/internal/sandbox"
	"github.com/manishiitg/agentctl/internal/search"
	"github.com/manishiitg/agentctl/internal/state"
	"github.com/manishiitg/agentctl/internal/xlog"
)

// maxParallelBash bounds the Bash-parallel-triple (spec.md §4.5).
const maxParallelBash = 3

// LLMCaller is the subset of llmclient.Client the turn loop depends on,
// so tests can substitute a scripted fake instead of a live gateway.
type LLMCaller interface {
	Call(ctx context.Context, messages []llmclient.Message) (llmclient.Response, error)
}

// Config configures one Subagent invocation.
type Config struct {
	AgentID    string
	AgentType  domain.AgentType
	Caps       dispatch.Capability
	MaxTurns   int
	TokenBudget int
}

// Runtime runs one bounded Explorer/Coder turn loop against the sandbox.
type Runtime struct {
	cfg        Config
	llm        LLMCaller
	dispatcher *dispatch.SubagentDispatcher
	state      *state.AgentState
	history    *history.History
	turnLog    *history.TurnLogger
	logger     xlog.Logger
}

// New builds a Runtime for one task launch.
func New(cfg Config, llm LLMCaller, executor *sandbox.Executor, searchMgr *search.Manager, turnLog *history.TurnLogger, logger xlog.Logger) *Runtime {
	st := state.New()
	return &Runtime{
		cfg: cfg,
		llm: llm,
		dispatcher: &dispatch.SubagentDispatcher{
			Executor: executor,
			Search:   searchMgr,
			State:    st,
			Caps:     cfg.Caps,
		},
		state:   st,
		history: history.New(cfg.AgentID, cfg.TokenBudget),
		turnLog: turnLog,
		logger:  logger,
	}
}

// Run executes the bounded turn loop described in spec.md §4.8 and
// returns exactly one Report per invocation, natural or forced.
func (r *Runtime) Run(ctx context.Context, task domain.Task, resolvedContexts []domain.Context) (domain.Report, error) {
	systemPrompt := r.renderSystemPrompt(task, resolvedContexts)

	for turn := 1; turn <= r.cfg.MaxTurns; turn++ {
		prompt := r.renderTurnPrompt(systemPrompt, turn)
		messages := []llmclient.Message{{Role: "system", Content: prompt}}

		resp, err := r.llm.Call(ctx, messages)
		if err != nil {
			r.logger.Warnf("agent %s turn %d: llm call failed, retrying once: %v", r.cfg.AgentID, turn, err)
			resp, err = r.llm.Call(ctx, messages)
			if err != nil {
				r.logger.Warnf("agent %s turn %d: llm call failed again after retry, forcing report: %v", r.cfg.AgentID, turn, err)
				return r.forcedReport(task, fmt.Sprintf("llm call failed twice: %v", err)), nil
			}
		}

		items := action.Parse(resp.Text)
		results, report := r.execute(ctx, items)

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

		if report != nil {
			report.TaskID = task.ID
			return *report, nil
		}
	}

	return r.forcedReport(task, "turn budget exhausted"), nil
}

// execute dispatches every parsed item in document order, running
// consecutive runs of up to maxParallelBash Bash actions concurrently
// (spec.md §4.5/§5) while stitching their results back in input order.
func (r *Runtime) execute(ctx context.Context, items []action.ParsedItem) ([]domain.ExecutionResult, *domain.Report) {
	results := make([]domain.ExecutionResult, len(items))
	var report *domain.Report

	i := 0
	for i < len(items) {
		if items[i].Err != nil {
			results[i] = domain.Fail(domain.ErrParse, items[i].Err.Error())
			i++
			continue
		}

		if bashRun := consecutiveBash(items, i); len(bashRun) > 1 {
			r.runBashBatch(ctx, items, bashRun, results)
			i += len(bashRun)
			continue
		}

		res := r.dispatcher.Dispatch(ctx, items[i].Action)
		results[i] = res
		if rep, ok := items[i].Action.(domain.Report); ok {
			report = &rep
		}
		i++
	}

	return results, report
}

func consecutiveBash(items []action.ParsedItem, start int) []int {
	var idx []int
	for j := start; j < len(items) && len(idx) < maxParallelBash; j++ {
		if items[j].Err != nil {
			break
		}
		if _, ok := items[j].Action.(domain.Bash); !ok {
			break
		}
		idx = append(idx, j)
	}
	return idx
}

func (r *Runtime) runBashBatch(ctx context.Context, items []action.ParsedItem, idx []int, results []domain.ExecutionResult) {
	g, gctx := errgroup.WithContext(ctx)
	for _, j := range idx {
		j := j
		g.Go(func() error {
			results[j] = r.dispatcher.Dispatch(gctx, items[j].Action)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runtime) renderSystemPrompt(task domain.Task, resolvedContexts []domain.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a %s subagent.\nTask: %s\n%s\n", r.cfg.AgentType, task.Title, task.Description)

	for _, c := range resolvedContexts {
		fmt.Fprintf(&b, "\n<context id=%q>\n%s\n</context>\n", c.ID, c.Content)
	}

	for _, bs := range task.ContextBootstrap {
		content, err := fsys.Read(bs.Path, 0, 0)
		if err != nil {
			fmt.Fprintf(&b, "\n<bootstrap path=%q reason=%q note=\"unreadable: %v\"/>\n", bs.Path, bs.Reason, err)
			continue
		}
		fmt.Fprintf(&b, "\n<bootstrap path=%q reason=%q>\n%s\n</bootstrap>\n", bs.Path, bs.Reason, content)
	}

	if r.cfg.AgentType == domain.AgentExplorer {
		tempRoot := r.cfg.Caps.TempRoot
		if tempRoot == "" {
			tempRoot = "/tmp"
		}
		fmt.Fprintf(&b, "\nYou are read-only: file write/edit/multi_edit are forbidden except via write_temp_script under %s.\n", tempRoot)
	}
	return b.String()
}

func (r *Runtime) renderTurnPrompt(systemPrompt string, turn int) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n")
	b.WriteString(r.history.Render())

	if notes := r.state.Notes(); len(notes) > 0 {
		fmt.Fprintf(&b, "\nscratchpad:\n- %s\n", strings.Join(notes, "\n- "))
	}
	if todos := r.state.Todos(); len(todos) > 0 {
		b.WriteString("\ntodos:\n")
		b.WriteString(state.FormatTodos(todos))
	}

	if turn == r.cfg.MaxTurns-1 {
		b.WriteString("\nYou must submit <report> on your next turn.\n")
	}
	return b.String()
}

// forcedReport synthesizes a Report when the subagent never submitted
// one, best-effort extracting scratchpad notes as contexts (spec.md §4.8);
// reason says why the loop ended and is recorded in the comments.
func (r *Runtime) forcedReport(task domain.Task, reason string) domain.Report {
	var contexts []domain.ReportContext
	if notes := r.state.Notes(); len(notes) > 0 {
		contexts = append(contexts, domain.ReportContext{
			ID:      task.ID + "_forced_scratchpad",
			Content: strings.Join(notes, "\n"),
		})
	}

	lastResponse := ""
	if turns := r.history.Turns(); len(turns) > 0 {
		lastResponse = turns[len(turns)-1].RawResponse
	}

	return domain.Report{
		TaskID:      task.ID,
		Contexts:    contexts,
		Comments:    fmt.Sprintf("forced report: %s without an explicit report. last response: %s", reason, truncate(lastResponse, 500)),
		FinalStatus: domain.FinalForced,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
