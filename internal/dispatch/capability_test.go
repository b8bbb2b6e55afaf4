package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplorer_IsReadOnlyButAllowsTempScript(t *testing.T) {
	c := Explorer("/tmp/sandbox")
	assert.False(t, c.CanWrite)
	assert.True(t, c.AllowsTempScript)
	assert.Equal(t, "/tmp/sandbox", c.TempRoot)
}

func TestCoder_CanWriteAndHasNoTempScriptRestriction(t *testing.T) {
	c := Coder()
	assert.True(t, c.CanWrite)
	assert.False(t, c.AllowsTempScript)
}
