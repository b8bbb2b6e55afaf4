// Command agentctl is a local/manual wrapper around perform_task,
// grounded on the teacher's cmd/ Cobra-root convention. It is not part
// of the benchmark harness contract (spec.md §6) — the harness calls
// app.PerformTask directly — this binary exists for manual runs and
// debugging against a real sandbox.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/manishiitg/agentctl/internal/app"
)

func main() {
	var (
		model        string
		temperature  float64
		maxOrchTurns int
		maxExplorer  int
		maxCoder     int
		workDir      string
		tempRoot     string
		timeoutSecs  int
	)

	root := &cobra.Command{
		Use:   "agentctl <instruction>",
		Short: "Run the hierarchical multi-agent controller against one task instruction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for env, val := range map[string]string{
				"LITELLM_MODEL":       model,
				"MAX_ORCH_TURNS":      fmt.Sprint(maxOrchTurns),
				"MAX_EXPLORER_TURNS":  fmt.Sprint(maxExplorer),
				"MAX_CODER_TURNS":     fmt.Sprint(maxCoder),
			} {
				if val != "" && val != "0" {
					_ = os.Setenv(env, val)
				}
			}
			if cmd.Flags().Changed("temperature") {
				_ = os.Setenv("LITELLM_TEMPERATURE", fmt.Sprint(temperature))
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
			defer cancel()

			message, stats := app.PerformTask(ctx, args[0], app.SandboxHandle{WorkDir: workDir, TempRoot: tempRoot})

			fmt.Println(message)
			fmt.Printf("turns=%d explorer_tasks=%d coder_tasks=%d completed=%d failed=%d tokens_in=%d tokens_out=%d unverified_finish=%t budget_exhausted=%t\n",
				stats.Turns, stats.ExplorerTasks, stats.CoderTasks, stats.TasksCompleted, stats.TasksFailed,
				stats.TokensIn, stats.TokensOut, stats.UnverifiedFinish, stats.BudgetExhausted)
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&model, "model", "", "override LITELLM_MODEL")
	flags.Float64Var(&temperature, "temperature", 0.1, "override LITELLM_TEMPERATURE")
	flags.IntVar(&maxOrchTurns, "max-orch-turns", 0, "override MAX_ORCH_TURNS")
	flags.IntVar(&maxExplorer, "max-explorer-turns", 0, "override MAX_EXPLORER_TURNS")
	flags.IntVar(&maxCoder, "max-coder-turns", 0, "override MAX_CODER_TURNS")
	flags.StringVar(&workDir, "workdir", ".", "sandbox working directory")
	flags.StringVar(&tempRoot, "temp-root", "/tmp", "write_temp_script confinement root")
	flags.IntVar(&timeoutSecs, "timeout", 1800, "overall wall-clock timeout in seconds")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
