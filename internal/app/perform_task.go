// Package app wires every component into the single entry point the
// benchmark harness calls (spec.md §6), grounded on the teacher's
// cmd/server bootstrap sequence (load config, build logger, construct
// dependencies, run).
package app

import (
	"context"
	"time"

	"github.com/manishiitg/agentctl/internal/config"
	"github.com/manishiitg/agentctl/internal/history"
	"github.com/manishiitg/agentctl/internal/hub"
	"github.com/manishiitg/agentctl/internal/llmclient"
	"github.com/manishiitg/agentctl/internal/orchestrator"
	"github.com/manishiitg/agentctl/internal/sandbox"
	"github.com/manishiitg/agentctl/internal/search"
	"github.com/manishiitg/agentctl/internal/subagent"
	"github.com/manishiitg/agentctl/internal/xlog"
)

// SandboxHandle identifies the container/workspace a top-level task runs
// against. The reference workload only needs a working directory and an
// optional root that write_temp_script is confined to.
type SandboxHandle struct {
	WorkDir  string
	TempRoot string
}

// Stats re-exports orchestrator.Stats as the entry point's return shape.
type Stats = orchestrator.Stats

// PerformTask builds the full component graph from process configuration
// and runs instruction to completion, returning the orchestrator's
// finish message and run statistics. This is the function the benchmark
// harness calls once per top-level task.
func PerformTask(ctx context.Context, instruction string, env SandboxHandle) (string, Stats) {
	cfg := config.Load()

	logger, err := xlog.New("", "info", "text", true)
	if err != nil {
		logger = xlog.NewTest()
	}

	executor := sandbox.New(cfg.SandboxDefaultTimeout, cfg.SandboxMaxTimeout, cfg.BashOutputLimitBytes, env.WorkDir)
	searchMgr := search.New(cfg.SearchResultLimit)
	llm := llmclient.New(cfg.LiteLLMModel, cfg.LiteLLMTemperature, cfg.LiteLLMAPIKey, cfg.LiteLLMAPIBase, logger)
	turnLog := history.NewTurnLogger(cfg.TurnLogDir)

	h := hub.New(logger)

	tempRoot := env.TempRoot
	if tempRoot == "" {
		tempRoot = "/tmp"
	}
	factory := subagent.NewFactory(subagent.FactoryConfig{
		ExplorerMaxTurns: cfg.MaxExplorerTurns,
		CoderMaxTurns:    cfg.MaxCoderTurns,
		TokenBudget:      defaultTokenBudget,
		TempRoot:         tempRoot,
	}, llm, executor, searchMgr, turnLog, logger)
	h.SetLauncher(factory)

	orch := orchestrator.New(orchestrator.Config{
		AgentID:     "orchestrator",
		MaxTurns:    cfg.MaxOrchTurns,
		TokenBudget: defaultTokenBudget,
	}, h, llm, turnLog, logger)

	start := time.Now()
	message, stats := orch.Run(ctx, instruction)
	tokensIn, tokensOut := llm.TotalTokens()
	stats.TokensIn = tokensIn
	stats.TokensOut = tokensOut

	logger.Infof("perform_task finished in %s: turns=%d tasks_completed=%d tasks_failed=%d", time.Since(start), stats.Turns, stats.TasksCompleted, stats.TasksFailed)
	return message, stats
}

// defaultTokenBudget bounds how much rendered history each agent carries
// into its next prompt (spec.md §4.11); not currently exposed as an env
// var since the reference workload never needed to tune it independently
// of the model's own context window.
const defaultTokenBudget = 24000
