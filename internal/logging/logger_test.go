package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitializeWritesDatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, true))

	Get(CategoryAPI).Info("request issued", zap.String("endpoint", "/query"))
	Get(CategoryStream).Debug("tick")
	Sync()

	path := Path()
	require.NotEmpty(t, path)
	require.True(t, strings.HasPrefix(filepath.Base(path), "carf-"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, `"logger":"api"`)
	require.Contains(t, content, "request issued")
	require.Contains(t, content, `"logger":"stream"`)
}

func TestDebugLevelGate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, false))

	Get(CategoryCockpit).Debug("suppressed at info level")
	Get(CategoryCockpit).Info("visible")
	Sync()

	data, err := os.ReadFile(Path())
	require.NoError(t, err)
	require.NotContains(t, string(data), "suppressed at info level")
	require.Contains(t, string(data), "visible")
}

func TestGetBeforeInitializeIsNop(t *testing.T) {
	mu.Lock()
	saved, savedPath := root, logPath
	root, logPath = nil, ""
	mu.Unlock()
	defer func() {
		mu.Lock()
		root, logPath = saved, savedPath
		mu.Unlock()
	}()

	require.NotPanics(t, func() {
		Get(CategoryExport).Info("dropped")
		Sync()
	})
	require.Empty(t, Path())
}
