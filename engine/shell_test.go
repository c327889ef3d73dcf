package engine

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsSafeCommand(t *testing.T) {
	require.True(t, IsSafeCommand("ls -la"))
	require.True(t, IsSafeCommand("echo hello world"))
	require.True(t, IsSafeCommand("git status"))
	require.False(t, IsSafeCommand("sudo rm -rf /"))
	require.False(t, IsSafeCommand("bash script.sh"))
	require.False(t, IsSafeCommand(""))
	require.False(t, IsSafeCommand("   "))
}

func TestExecuteShellEcho(t *testing.T) {
	out, err := ExecuteShell(context.Background(), "echo hello")
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestExecuteShellEmptyCommand(t *testing.T) {
	out, err := ExecuteShell(context.Background(), "   ")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestExecuteShellRefusesUnlisted(t *testing.T) {
	_, err := ExecuteShell(context.Background(), "sudo whoami")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not in the allowed list")
}

func TestExecuteShellChangeDirectory(t *testing.T) {
	orig, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(orig) })

	dir := t.TempDir()
	out, err := ExecuteShell(context.Background(), "cd "+dir)
	require.NoError(t, err)
	require.Contains(t, out, "Changed directory to ")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NotEqual(t, orig, wd)
}

func TestExecuteShellFailingCommand(t *testing.T) {
	_, err := ExecuteShell(context.Background(), "cat /definitely/not/a/real/file")
	require.Error(t, err)
}
