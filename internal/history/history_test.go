package history

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manishiitg/agentctl/internal/domain"
)

func TestRender_AlwaysPreservesFirstTurnWhenTrimming(t *testing.T) {
	h := New("agent-1", 1) // ~4 char budget, forces trimming

	h.Append(domain.Turn{TurnIndex: 1, RawResponse: strings.Repeat("x", 200)})
	h.Append(domain.Turn{TurnIndex: 2, RawResponse: strings.Repeat("y", 200)})
	h.Append(domain.Turn{TurnIndex: 3, RawResponse: strings.Repeat("z", 200)})

	rendered := h.Render()
	assert.Contains(t, rendered, "turn 1", "the first turn must never be trimmed away")
}

func TestRender_NoTruncationUnderBudget(t *testing.T) {
	h := New("agent-1", 10000)
	h.Append(domain.Turn{TurnIndex: 1, RawResponse: "hello"})
	h.Append(domain.Turn{TurnIndex: 2, RawResponse: "world"})

	rendered := h.Render()
	assert.Contains(t, rendered, "turn 1")
	assert.Contains(t, rendered, "turn 2")
}

func TestRender_EmptyHistoryIsEmptyString(t *testing.T) {
	h := New("agent-1", 1000)
	assert.Empty(t, h.Render())
}

func TestTurnLogger_WritesOneFilePerTurnUnderAgentDir(t *testing.T) {
	dir := t.TempDir()
	logger := NewTurnLogger(dir)

	require.NoError(t, logger.Write(domain.Turn{AgentID: "agent-1", TurnIndex: 1, RawResponse: "first"}))
	require.NoError(t, logger.Write(domain.Turn{AgentID: "agent-1", TurnIndex: 2, RawResponse: "second"}))

	entries, err := os.ReadDir(dir + "/agent-1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
