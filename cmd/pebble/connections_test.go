package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateConfig points the user config at a temp dir and runs from another
// temp dir so no project config is picked up.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PEBBLE_CONFIG_DIR", dir)
	t.Setenv("PEBBLE_DEFAULT_SERVER", "")
	t.Setenv("PEBBLE_DEFAULT_USERNAME", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return filepath.Join(dir, "config.yaml")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestConnectionsListEmpty(t *testing.T) {
	isolateConfig(t)

	out, err := run(t, "connections", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No resources in saved connections.")
}

func TestConnectionsAddListRemove(t *testing.T) {
	path := isolateConfig(t)

	out, err := run(t, "connections", "add", "Demo", "--server", "mem://demo", "--username", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Demo (admin@mem://demo)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "server: mem://demo")

	out, err = run(t, "connections", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Regexp(t, `Demo\s+mem://demo\s+admin`, out)

	out, err = run(t, "connections", "rm", "Demo")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 connection(s)")

	out, err = run(t, "connections", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No resources in saved connections.")
}

func TestConnectionsAddUsesDefaults(t *testing.T) {
	isolateConfig(t)
	t.Setenv("PEBBLE_DEFAULT_SERVER", "file:///srv/db")
	t.Setenv("PEBBLE_DEFAULT_USERNAME", "guest")

	out, err := run(t, "connections", "add", "Local")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Local (guest@file:///srv/db)")
}

func TestConnectionsAddRejects(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing username",
			args:    []string{"connections", "add", "Demo", "--server", "mem://demo"},
			wantErr: "check --server and --username",
		},
		{
			name:    "bad server",
			args:    []string{"connections", "add", "Demo", "--server", "not a url", "--username", "admin"},
			wantErr: "Server",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConnectionsAddDuplicate(t *testing.T) {
	isolateConfig(t)
	args := []string{"connections", "add", "Demo", "--server", "mem://demo", "--username", "admin"}

	_, err := run(t, args...)
	require.NoError(t, err)
	_, err = run(t, args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already saved")
}

func TestConnectionsRemoveUnknown(t *testing.T) {
	isolateConfig(t)

	_, err := run(t, "connections", "remove", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pebble version dev")
}
