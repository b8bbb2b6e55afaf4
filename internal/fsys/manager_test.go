package fsys

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_RequiresExistingParentDir(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "nope", "out.txt")

	err := Write(missing, "hello")
	require.Error(t, err)
	opErr, ok := err.(*OpError)
	require.True(t, ok)
	assert.Equal(t, KindMissingParent, opErr.Kind)
}

func TestWriteThenRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	require.NoError(t, Write(path, "line1\nline2\nline3"))

	content, err := Read(path, 0, 0)
	require.NoError(t, err)
	assert.Contains(t, content, "1\tline1")
	assert.Contains(t, content, "3\tline3")
}

func TestRead_OffsetAndLimitWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, Write(path, "a\nb\nc\nd\ne"))

	content, err := Read(path, 2, 2)
	require.NoError(t, err)
	assert.Contains(t, content, "2\tb")
	assert.Contains(t, content, "3\tc")
	assert.NotContains(t, content, "1\ta")
	assert.NotContains(t, content, "4\td")
}

func TestRead_MissingFileReturnsNotFound(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.txt"), 0, 0)
	require.Error(t, err)
	opErr, ok := err.(*OpError)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, opErr.Kind)
}

func TestEdit_AmbiguousMatchRejectedWithoutReplaceAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, Write(path, "foo foo foo"))

	err := Edit(path, "foo", "bar", false)
	require.Error(t, err)
	opErr, ok := err.(*OpError)
	require.True(t, ok)
	assert.Equal(t, KindAmbiguousEdit, opErr.Kind)
}

func TestEdit_ReplaceAllRewritesEveryOccurrence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, Write(path, "foo foo foo"))

	require.NoError(t, Edit(path, "foo", "bar", true))

	content, err := Read(path, 0, 0)
	require.NoError(t, err)
	assert.NotContains(t, content, "foo")
}

func TestMultiEdit_AtomicAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, Write(path, "alpha beta gamma"))

	err := MultiEdit(path, []EditSpec{
		{OldString: "alpha", NewString: "ALPHA"},
		{OldString: "missing_token", NewString: "x"},
	})
	require.Error(t, err)

	content, readErr := Read(path, 0, 0)
	require.NoError(t, readErr)
	assert.Contains(t, content, "alpha beta gamma", "file must be untouched when any edit in the batch fails")
}

func TestMultiEdit_AppliesAllOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, Write(path, "alpha beta gamma"))

	err := MultiEdit(path, []EditSpec{
		{OldString: "alpha", NewString: "ALPHA"},
		{OldString: "gamma", NewString: "GAMMA"},
	})
	require.NoError(t, err)

	content, readErr := Read(path, 0, 0)
	require.NoError(t, readErr)
	assert.Contains(t, content, "ALPHA beta GAMMA")
}

func TestMetadata_MissingPathReportedInline(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.txt")
	require.NoError(t, Write(present, "x"))
	missing := filepath.Join(dir, "absent.txt")

	rows, err := Metadata([]string{present, missing})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0].Error)
	assert.NotEmpty(t, rows[1].Error)
}

func TestMetadata_RejectsMoreThanTenPaths(t *testing.T) {
	paths := make([]string, 11)
	for i := range paths {
		paths[i] = "/tmp/x"
	}
	_, err := Metadata(paths)
	require.Error(t, err)
}

func TestRead_RejectsRelativePath(t *testing.T) {
	_, err := Read("relative/path.txt", 0, 0)
	require.Error(t, err)
	opErr, ok := err.(*OpError)
	require.True(t, ok)
	assert.Equal(t, KindInvalidPath, opErr.Kind)
}
