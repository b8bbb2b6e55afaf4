package action

import (
	"fmt"

	"github.com/manishiitg/agentctl/internal/domain"
)

func validate(tag domain.Tag, p map[string]interface{}) (domain.Action, error) {
	switch tag {
	case domain.TagTaskCreate:
		return validateTaskCreate(p)
	case domain.TagLaunchSubagent:
		taskID, err := reqString(p, "task_id")
		if err != nil {
			return nil, err
		}
		return domain.LaunchSubagent{TaskID: taskID}, nil
	case domain.TagAddContext:
		id, err := reqString(p, "id")
		if err != nil {
			return nil, err
		}
		content, err := reqString(p, "content")
		if err != nil {
			return nil, err
		}
		return domain.AddContext{ID: id, Content: content}, nil
	case domain.TagFinish:
		return domain.Finish{Message: optString(p, "message", "")}, nil
	case domain.TagReasoning:
		return domain.Reasoning{Text: optString(p, "text", "")}, nil
	case domain.TagFile:
		return validateFile(p)
	case domain.TagSearch:
		return validateSearch(p)
	case domain.TagBash:
		return validateBash(p)
	case domain.TagTodo:
		return validateTodo(p)
	case domain.TagScratchpad:
		note, err := reqString(p, "note")
		if err != nil {
			return nil, err
		}
		return domain.Scratchpad{Note: note}, nil
	case domain.TagReport:
		return validateReport(p)
	case domain.TagWriteTempScript:
		path, err := reqString(p, "path")
		if err != nil {
			return nil, err
		}
		content, err := reqString(p, "content")
		if err != nil {
			return nil, err
		}
		return domain.WriteTempScript{Path: path, Content: content}, nil
	default:
		return nil, fmt.Errorf("no validator registered for tag %s", tag)
	}
}

func validateTaskCreate(p map[string]interface{}) (domain.Action, error) {
	title, err := reqString(p, "title")
	if err != nil {
		return nil, err
	}
	agentTypeRaw, err := reqString(p, "agent_type")
	if err != nil {
		return nil, err
	}
	agentType := domain.AgentType(agentTypeRaw)
	if agentType != domain.AgentExplorer && agentType != domain.AgentCoder {
		return nil, fmt.Errorf("agent_type must be 'explorer' or 'coder', got %q", agentTypeRaw)
	}
	description, err := reqString(p, "description")
	if err != nil {
		return nil, err
	}

	refs := stringList(p, "context_refs")

	var bootstrap []domain.ContextBootstrap
	if raw, ok := p["context_bootstrap"].([]interface{}); ok {
		for _, item := range raw {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("context_bootstrap entries must be mappings with path/reason")
			}
			path, err := reqString(m, "path")
			if err != nil {
				return nil, fmt.Errorf("context_bootstrap: %w", err)
			}
			bootstrap = append(bootstrap, domain.ContextBootstrap{
				Path:   path,
				Reason: optString(m, "reason", ""),
			})
		}
	}

	return domain.TaskCreate{
		Title:            title,
		AgentType:        agentType,
		Description:      description,
		ContextRefs:      refs,
		ContextBootstrap: bootstrap,
	}, nil
}

func validateFile(p map[string]interface{}) (domain.Action, error) {
	kindRaw, err := reqString(p, "action")
	if err != nil {
		return nil, err
	}
	kind := domain.FileOpKind(kindRaw)
	path, err := reqString(p, "path")
	if err != nil {
		return nil, err
	}

	switch kind {
	case domain.FileRead:
		return domain.FileOp{Kind: kind, Path: path, Offset: optInt(p, "offset", 0), Limit: optInt(p, "limit", 0)}, nil
	case domain.FileWrite:
		content, err := reqString(p, "content")
		if err != nil {
			return nil, err
		}
		return domain.FileOp{Kind: kind, Path: path, Content: content}, nil
	case domain.FileEdit:
		oldS, err := reqString(p, "old_string")
		if err != nil {
			return nil, err
		}
		newS, err := reqString(p, "new_string")
		if err != nil {
			return nil, err
		}
		return domain.FileOp{Kind: kind, Path: path, OldString: oldS, NewString: newS, ReplaceAll: optBool(p, "replace_all", false)}, nil
	case domain.FileMultiEdit:
		raw, ok := p["edits"].([]interface{})
		if !ok || len(raw) == 0 {
			return nil, fmt.Errorf("multi_edit requires a non-empty 'edits' list")
		}
		edits := make([]domain.Edit, 0, len(raw))
		for _, item := range raw {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("each edit must be a mapping with old_string/new_string")
			}
			oldS, err := reqString(m, "old_string")
			if err != nil {
				return nil, fmt.Errorf("edit: %w", err)
			}
			newS, err := reqString(m, "new_string")
			if err != nil {
				return nil, fmt.Errorf("edit: %w", err)
			}
			edits = append(edits, domain.Edit{OldString: oldS, NewString: newS})
		}
		return domain.FileOp{Kind: kind, Path: path, Edits: edits}, nil
	case domain.FileMetadata:
		paths := stringList(p, "paths")
		if len(paths) == 0 {
			paths = []string{path}
		}
		if len(paths) > 10 {
			return nil, fmt.Errorf("metadata accepts at most 10 paths, got %d", len(paths))
		}
		return domain.FileOp{Kind: kind, Paths: paths}, nil
	default:
		return nil, fmt.Errorf("unknown file action %q", kindRaw)
	}
}

func validateSearch(p map[string]interface{}) (domain.Action, error) {
	kindRaw, err := reqString(p, "action")
	if err != nil {
		return nil, err
	}
	kind := domain.SearchKind(kindRaw)
	switch kind {
	case domain.SearchGrep:
		pattern, err := reqString(p, "pattern")
		if err != nil {
			return nil, err
		}
		return domain.Search{Kind: kind, Pattern: pattern, Path: optString(p, "path", ""), Include: optString(p, "include", "")}, nil
	case domain.SearchGlob:
		pattern, err := reqString(p, "pattern")
		if err != nil {
			return nil, err
		}
		return domain.Search{Kind: kind, Pattern: pattern, Path: optString(p, "path", "")}, nil
	default:
		return nil, fmt.Errorf("unknown search action %q", kindRaw)
	}
}

func validateBash(p map[string]interface{}) (domain.Action, error) {
	cmd, err := reqString(p, "command")
	if err != nil {
		return nil, err
	}
	return domain.Bash{
		Command:     cmd,
		Block:       optBool(p, "block", true),
		TimeoutSecs: optInt(p, "timeout_secs", 30),
		Cwd:         optString(p, "cwd", ""),
	}, nil
}

func validateTodo(p map[string]interface{}) (domain.Action, error) {
	opRaw, err := reqString(p, "op")
	if err != nil {
		return nil, err
	}
	op := domain.TodoOp(opRaw)
	switch op {
	case domain.TodoAdd:
		text, err := reqString(p, "text")
		if err != nil {
			return nil, err
		}
		return domain.Todo{Op: op, Text: text}, nil
	case domain.TodoComplete, domain.TodoDelete:
		id, err := reqString(p, "id")
		if err != nil {
			return nil, err
		}
		return domain.Todo{Op: op, ID: id}, nil
	case domain.TodoViewAll:
		return domain.Todo{Op: op}, nil
	default:
		return nil, fmt.Errorf("unknown todo op %q", opRaw)
	}
}

func validateReport(p map[string]interface{}) (domain.Action, error) {
	statusRaw, err := reqString(p, "final_status")
	if err != nil {
		return nil, err
	}
	status := domain.FinalStatus(statusRaw)
	if status != domain.FinalCompleted && status != domain.FinalFailed {
		return nil, fmt.Errorf("final_status must be 'completed' or 'failed', got %q", statusRaw)
	}

	var contexts []domain.ReportContext
	if raw, ok := p["contexts"].([]interface{}); ok {
		for _, item := range raw {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("report contexts entries must be mappings with id/content")
			}
			id, err := reqString(m, "id")
			if err != nil {
				return nil, fmt.Errorf("report context: %w", err)
			}
			content, err := reqString(m, "content")
			if err != nil {
				return nil, fmt.Errorf("report context: %w", err)
			}
			contexts = append(contexts, domain.ReportContext{ID: id, Content: content})
		}
	}

	return domain.Report{
		Contexts:    contexts,
		Comments:    optString(p, "comments", ""),
		FinalStatus: status,
	}, nil
}

// --- payload accessor helpers ---

func reqString(p map[string]interface{}, key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q must be a string", key)
	}
	if s == "" {
		return "", fmt.Errorf("field %q must not be empty", key)
	}
	return s, nil
}

func optString(p map[string]interface{}, key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func optBool(p map[string]interface{}, key string, def bool) bool {
	if v, ok := p[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func optInt(p map[string]interface{}, key string, def int) int {
	if v, ok := p[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

func stringList(p map[string]interface{}, key string) []string {
	raw, ok := p[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
