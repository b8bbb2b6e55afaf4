package dispatch

import (
	"context"
	"fmt"

	"github.com/manishiitg/agentctl/internal/domain"
	"github.com/manishiitg/agentctl/internal/hub"
)

// OrchestratorDispatcher routes the orchestrator-only Action variants
// (TaskCreate, LaunchSubagent, AddContext, Finish, Reasoning).
type OrchestratorDispatcher struct {
	Hub *hub.Hub
}

// Dispatch executes one orchestrator action.
func (d *OrchestratorDispatcher) Dispatch(ctx context.Context, a domain.Action) domain.ExecutionResult {
	switch act := a.(type) {
	case domain.TaskCreate:
		id, err := d.Hub.CreateTask(domain.TaskSpec{
			AgentType:        act.AgentType,
			Title:            act.Title,
			Description:      act.Description,
			ContextRefs:      act.ContextRefs,
			ContextBootstrap: act.ContextBootstrap,
		})
		if err != nil {
			return domain.Fail(domain.ErrValidation, err.Error())
		}
		return domain.Ok(fmt.Sprintf("task created: %s", id))

	case domain.LaunchSubagent:
		report, err := d.Hub.Launch(ctx, act.TaskID)
		if err != nil {
			return domain.Fail(domain.ErrValidation, err.Error())
		}
		return domain.Ok(fmt.Sprintf("task %s finished with status=%s, %d new contexts", act.TaskID, report.FinalStatus, len(report.Contexts)))

	case domain.AddContext:
		if err := d.Hub.AddContext(act.ID, act.Content, "orchestrator"); err != nil {
			return domain.Fail(domain.ErrValidation, err.Error())
		}
		return domain.Ok(fmt.Sprintf("context %s added", act.ID))

	case domain.Finish:
		return domain.Ok(act.Message)

	case domain.Reasoning:
		return domain.Ok("")

	default:
		return domain.Fail(domain.ErrValidation, fmt.Sprintf("dispatcher has no handler for %T", a))
	}
}
