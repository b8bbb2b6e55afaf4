// Package history implements Conversation History & the Turn Logger
// (spec.md §4.11): an append-only sequence of Turns rendered back into
// the LLM prompt, with a size-bound truncation policy and durable
// per-agent JSON logs, grounded on the teacher's StartTurn/EndTurn event
// pairing in pkg/mcpagent/agent.go.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manishiitg/agentctl/internal/domain"
)

// History is the append-only transcript for one agent.
type History struct {
	agentID    string
	turns      []domain.Turn
	tokenBudget int
}

// New builds an empty History for agentID, truncating rendered output to
// roughly tokenBudget tokens (estimated at 4 chars/token).
func New(agentID string, tokenBudget int) *History {
	return &History{agentID: agentID, tokenBudget: tokenBudget}
}

// Append records a completed Turn.
func (h *History) Append(t domain.Turn) {
	h.turns = append(h.turns, t)
}

// Turns returns all recorded turns.
func (h *History) Turns() []domain.Turn {
	return h.turns
}

// Render produces the alternating (assistant response, environment
// response) transcript fed back to the LLM, always preserving the first
// turn (the system/task turn) even when trimming for budget.
func (h *History) Render() string {
	if len(h.turns) == 0 {
		return ""
	}

	kept := h.turns
	budgetChars := h.tokenBudget * 4
	if budgetChars > 0 {
		kept = trimToBudget(h.turns, budgetChars)
	}

	var b strings.Builder
	for _, t := range kept {
		fmt.Fprintf(&b, "--- turn %d ---\n", t.TurnIndex)
		fmt.Fprintf(&b, "assistant: %s\n", t.RawResponse)
		for _, r := range t.Results {
			if r.OK {
				fmt.Fprintf(&b, "environment: %s\n", r.Payload)
			} else {
				fmt.Fprintf(&b, "environment error [%s]: %s\n", r.ErrorKind, r.ErrorMessage)
			}
		}
	}
	return b.String()
}

// trimToBudget drops oldest turns (after the first) until the rendered
// size estimate fits budgetChars.
func trimToBudget(turns []domain.Turn, budgetChars int) []domain.Turn {
	total := 0
	for _, t := range turns {
		total += len(t.RawResponse)
		for _, r := range t.Results {
			total += len(r.Payload) + len(r.ErrorMessage)
		}
	}
	if total <= budgetChars || len(turns) <= 1 {
		return turns
	}

	first := turns[0]
	rest := turns[1:]
	for len(rest) > 0 && total > budgetChars {
		dropped := rest[0]
		total -= len(dropped.RawResponse)
		for _, r := range dropped.Results {
			total -= len(r.Payload) + len(r.ErrorMessage)
		}
		rest = rest[1:]
	}
	return append([]domain.Turn{first}, rest...)
}

// TurnLogger writes each turn to a durable per-agent JSON log for
// replay/debug, one subdirectory per agent id under dir.
type TurnLogger struct {
	dir string
}

// NewTurnLogger builds a TurnLogger rooted at dir.
func NewTurnLogger(dir string) *TurnLogger {
	return &TurnLogger{dir: dir}
}

// Write persists one turn as JSON under <dir>/<agentID>/<turn_index>.json.
func (l *TurnLogger) Write(t domain.Turn) error {
	if l.dir == "" {
		return nil
	}
	agentDir := filepath.Join(l.dir, t.AgentID)
	if err := os.MkdirAll(agentDir, 0o755); err != nil {
		return fmt.Errorf("turn logger: create dir: %w", err)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("turn logger: marshal: %w", err)
	}
	path := filepath.Join(agentDir, fmt.Sprintf("%04d.json", t.TurnIndex))
	//nolint:gosec // G306: turn logs are diagnostic, not sensitive
	return os.WriteFile(path, data, 0o644)
}
