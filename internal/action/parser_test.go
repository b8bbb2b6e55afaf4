package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manishiitg/agentctl/internal/domain"
)

func TestParse_SingleBashAction(t *testing.T) {
	text := `<bash>
  command: "ls -la"
  timeout_secs: 10
</bash>`

	items := Parse(text)
	require.Len(t, items, 1)
	require.Nil(t, items[0].Err)

	b, ok := items[0].Action.(domain.Bash)
	require.True(t, ok)
	assert.Equal(t, "ls -la", b.Command)
	assert.Equal(t, 10, b.TimeoutSecs)
}

func TestParse_MultipleActionsInDocumentOrder(t *testing.T) {
	text := `
<reasoning>
  text: "thinking about the next step"
</reasoning>
<scratchpad>
  note: "found the bug in main.go"
</scratchpad>
`
	items := Parse(text)
	require.Len(t, items, 2)
	_, ok := items[0].Action.(domain.Reasoning)
	assert.True(t, ok)
	_, ok = items[1].Action.(domain.Scratchpad)
	assert.True(t, ok)
}

func TestParse_MismatchedClosingTagIsParseError(t *testing.T) {
	text := `<bash>
  command: "ls"
</bahs>`

	items := Parse(text)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Err)
	assert.Contains(t, items[0].Err.Message, "mismatched closing tag")
}

func TestParse_UnknownTagIsParseError(t *testing.T) {
	text := `<teleport>
  destination: "mars"
</teleport>`

	items := Parse(text)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Err)
	assert.Contains(t, items[0].Err.Message, "unknown action tag")
}

func TestParse_MissingRequiredFieldIsParseError(t *testing.T) {
	text := `<bash>
  timeout_secs: 10
</bash>`

	items := Parse(text)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Err)
	assert.Contains(t, items[0].Err.Message, "command")
}

func TestParse_BlockScalarPreservesNewlines(t *testing.T) {
	text := "<file>\n  action: \"write\"\n  path: \"/tmp/out.txt\"\n  content: |\n    line one\n    line two\n</file>"

	items := Parse(text)
	require.Len(t, items, 1)
	require.Nil(t, items[0].Err)

	f, ok := items[0].Action.(domain.FileOp)
	require.True(t, ok)
	assert.Contains(t, f.Content, "line one\n")
	assert.Contains(t, f.Content, "line two")
}

func TestParse_MultiEditListOfMappings(t *testing.T) {
	text := `<file>
  action: "multi_edit"
  path: "/tmp/a.go"
  edits:
    - old_string: "foo"
      new_string: "bar"
    - old_string: "baz"
      new_string: "qux"
</file>`

	items := Parse(text)
	require.Len(t, items, 1)
	require.Nil(t, items[0].Err)

	f, ok := items[0].Action.(domain.FileOp)
	require.True(t, ok)
	require.Len(t, f.Edits, 2)
	assert.Equal(t, "foo", f.Edits[0].OldString)
	assert.Equal(t, "qux", f.Edits[1].NewString)
}

func TestParse_NoActionsReturnsEmptySlice(t *testing.T) {
	items := Parse("just some plain prose with no tags")
	assert.Empty(t, items)
}

func TestParse_DollarEscapeDecodesToLiteralDollar(t *testing.T) {
	text := `<bash>
  command: "echo \$HOME"
</bash>`

	items := Parse(text)
	require.Len(t, items, 1)
	require.Nil(t, items[0].Err)

	b, ok := items[0].Action.(domain.Bash)
	require.True(t, ok)
	assert.Equal(t, "echo $HOME", b.Command)
}
