package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runUsers(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewUsersCommand()
	out := &bytes.Buffer{}
	cmd.out = out
	require.NoError(t, cmd.ParseFlags(args))
	err := cmd.Run()
	return out.String(), err
}

func TestUsersCommand_ParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no action", nil, "missing action"},
		{"unknown action", []string{"remove"}, "unknown action"},
		{"create without email", []string{"create", "-username", "author"}, "-email"},
		{"show without selector", []string{"show"}, "-username or -id"},
		{"disable without id", []string{"disable"}, "-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewUsersCommand().ParseFlags(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUsersCommand_Lifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "users.db")

	out, err := runUsers(t, "create", "-username", "author", "-email", "author@example.com", "-db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Created account 1 (author)")

	_, err = runUsers(t, "create", "-username", "author", "-email", "other@example.com", "-db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is taken")

	out, err = runUsers(t, "disable", "-id", "1", "-db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Account 1 disabled")

	out, err = runUsers(t, "show", "-username", "author", "-db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "disabled")

	_, err = runUsers(t, "enable", "-id", "1", "-db", db)
	require.NoError(t, err)
	out, err = runUsers(t, "show", "-id", "1", "-db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "active")

	_, err = runUsers(t, "enable", "-id", "42", "-db", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
