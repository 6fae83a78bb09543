package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestEventLogRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "jobsh")

	assert.Contains(t, execute(t, "init", "--config", dir), "Writing config.yaml")
	assert.Contains(t, execute(t, "init", "--config", dir), "already exists")

	execute(t, "--config", dir, "-c", "sleep 0 && jobsh-missing-program")
	assert.Equal(t, 1, exitCode)

	sessions := execute(t, "events", "sessions", "--config", dir)
	assert.Contains(t, sessions, "sleep 0")
	assert.Contains(t, sessions, "jobsh-missing-program: command not found")

	report := execute(t, "events", "report", "--config", dir)
	assert.Contains(t, report, "sleep")
}

func TestBuiltins(t *testing.T) {
	assert.Contains(t, execute(t, "builtins"), "cd DIR")
}
