package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggingBeforeInitIsSafe(t *testing.T) {
	Debugf("no init %d", 1)
	Infof("no init")
	Warnf("no init")
	Errorf("no init")
}

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "core.log")

	err := Init(&LogConfig{LogLevel: "debug", LogFile: path, MaxSizeMB: 1})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, Init(&LogConfig{}))
	})

	Debugf("写入测试 %s", "abc")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "写入测试 abc")
}

func TestInitFallsBackToInfoOnUnknownLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core.log")

	require.NoError(t, Init(&LogConfig{LogLevel: "verbose", LogFile: path}))
	t.Cleanup(func() {
		require.NoError(t, Init(&LogConfig{}))
	})

	Debugf("hidden line")
	Infof("visible line")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "hidden line")
	require.Contains(t, string(data), "visible line")
}
