package subagent

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/manishiitg/agentctl/internal/dispatch"
	"github.com/manishiitg/agentctl/internal/domain"
	"github.com/manishiitg/agentctl/internal/history"
	"github.com/manishiitg/agentctl/internal/sandbox"
	"github.com/manishiitg/agentctl/internal/search"
	"github.com/manishiitg/agentctl/internal/xlog"
)

// FactoryConfig holds the shared settings a Factory stamps into every
// fresh Runtime it builds.
type FactoryConfig struct {
	ExplorerMaxTurns int
	CoderMaxTurns    int
	TokenBudget      int
	TempRoot         string
}

// Factory builds a fresh Runtime per task launch and satisfies
// hub.Launcher, so the Hub never holds per-agent state across launches
// (spec.md §4.8: each Subagent invocation is a short-lived, isolated
// process with its own history and scratchpad).
type Factory struct {
	cfg       FactoryConfig
	llm       LLMCaller
	executor  *sandbox.Executor
	searchMgr *search.Manager
	turnLog   *history.TurnLogger
	logger    xlog.Logger

	counter atomic.Int64
}

// NewFactory builds a Factory sharing one LLM client, sandbox and search
// manager across every subagent it launches.
func NewFactory(cfg FactoryConfig, llm LLMCaller, executor *sandbox.Executor, searchMgr *search.Manager, turnLog *history.TurnLogger, logger xlog.Logger) *Factory {
	return &Factory{cfg: cfg, llm: llm, executor: executor, searchMgr: searchMgr, turnLog: turnLog, logger: logger}
}

// Run builds a fresh Runtime sized for task.AgentType and runs it to
// completion, satisfying hub.Launcher.
func (f *Factory) Run(ctx context.Context, task domain.Task, resolvedContexts []domain.Context) (domain.Report, error) {
	n := f.counter.Add(1)

	var caps dispatch.Capability
	var maxTurns int
	switch task.AgentType {
	case domain.AgentExplorer:
		caps = dispatch.Explorer(f.cfg.TempRoot)
		maxTurns = f.cfg.ExplorerMaxTurns
	case domain.AgentCoder:
		caps = dispatch.Coder()
		maxTurns = f.cfg.CoderMaxTurns
	default:
		return domain.Report{}, fmt.Errorf("ValidationError: unknown agent_type %q", task.AgentType)
	}

	agentID := fmt.Sprintf("%s-%s-%03d", task.AgentType, task.ID[:minInt(8, len(task.ID))], n)
	rt := New(Config{
		AgentID:     agentID,
		AgentType:   task.AgentType,
		Caps:        caps,
		MaxTurns:    maxTurns,
		TokenBudget: f.cfg.TokenBudget,
	}, f.llm, f.executor, f.searchMgr, f.turnLog, f.logger)

	return rt.Run(ctx, task, resolvedContexts)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
