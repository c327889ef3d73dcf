package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recallsh/recall/memory"
)

func TestDetectLanguage(t *testing.T) {
	require.Equal(t, "Python", DetectLanguage("script.py"))
	require.Equal(t, "Go", DetectLanguage("main.go"))
	require.Equal(t, "YAML", DetectLanguage("deploy.YML"))
	require.Equal(t, "Unknown", DetectLanguage("binary.exe"))
	require.Equal(t, "Unknown", DetectLanguage("Makefile"))
}

func TestLoadCodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.py")
	require.NoError(t, os.WriteFile(path, []byte("print(\"hello\")\n"), 0o600))

	ledger := &fakeLedger{}
	e := New(&scriptedCompletion{}, 10, WithLedger(ledger))

	preview, err := e.LoadCodeFile(context.Background(), path)
	require.NoError(t, err)
	require.Contains(t, preview, "print(\"hello\")")

	turns := e.Buffer().Turns()
	require.Len(t, turns, 1)
	require.Equal(t, memory.RoleUser, turns[0].Role)
	require.Contains(t, turns[0].Content, "Python source code file named `hello.py`")
	require.Contains(t, turns[0].Content, "print(\"hello\")")

	require.Len(t, ledger.records, 1)
	require.Equal(t, "code_load", ledger.records[0].metadata[memory.MetaType])
	require.Equal(t, path, ledger.records[0].metadata[memory.MetaFilePath])
	require.Equal(t, "Python", ledger.records[0].metadata[memory.MetaLanguage])
}

func TestLoadCodeFileMissing(t *testing.T) {
	e := New(&scriptedCompletion{}, 10)

	_, err := e.LoadCodeFile(context.Background(), filepath.Join(t.TempDir(), "absent.go"))
	require.Error(t, err)
	require.Equal(t, 0, e.Buffer().Len())
}

func TestLoadCodeFileWithoutLedger(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.sh")
	require.NoError(t, os.WriteFile(path, []byte("echo hi\n"), 0o600))

	e := New(&scriptedCompletion{}, 10)
	preview, err := e.LoadCodeFile(context.Background(), path)
	require.NoError(t, err)
	require.Contains(t, preview, "echo hi")
	require.Equal(t, 1, e.Buffer().Len())
}

func TestPreviewTruncatesLongFiles(t *testing.T) {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = "line"
	}
	out := preview(strings.Join(lines, "\n"), 10)
	require.Equal(t, 10, strings.Count(out, "\n"))
	require.True(t, strings.HasSuffix(out, "..."))

	short := "a\nb"
	require.Equal(t, short, preview(short, 10))
}
