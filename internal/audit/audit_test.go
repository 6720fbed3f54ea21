package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "archive")
	auditor := NewAuditor(tempDir)

	t.Run("Archive creates directory and stores bytes verbatim", func(t *testing.T) {
		content := []byte("{\"id\": \"ext-1\", // comment\n}")

		name, err := auditor.Archive("Midterm.JSON", content)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(name, ".json"))

		saved, err := os.ReadFile(filepath.Join(tempDir, name))
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("Archive generates unique names", func(t *testing.T) {
		first, err := auditor.Archive("a.xml", []byte("<a/>"))
		require.NoError(t, err)
		second, err := auditor.Archive("a.xml", []byte("<a/>"))
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("Archive without extension", func(t *testing.T) {
		name, err := auditor.Archive("upload", []byte("{}"))
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(name, ".bin"))
	})
}

func TestAuditor_Prune(t *testing.T) {
	dir := t.TempDir()
	auditor := NewAuditor(dir)

	oldName, err := auditor.Archive("old.json", []byte("{}"))
	require.NoError(t, err)
	newName, err := auditor.Archive("new.json", []byte("{}"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, oldName), past, past))

	removed, err := auditor.Prune(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(filepath.Join(dir, oldName))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, newName))
	assert.NoError(t, err)

	removed, err = NewAuditor(filepath.Join(dir, "missing")).Prune(time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}
