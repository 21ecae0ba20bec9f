package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
network:
  ws_url: "ws://127.0.0.1:8000/xiaozhi/v1/"
  ws_token: "abc"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigPath)
	assert.Equal(t, "ws://127.0.0.1:8000/xiaozhi/v1/", cfg.Network.WSURL)
	assert.Equal(t, "abc", cfg.Network.WSToken)
	assert.Equal(t, 5*time.Second, cfg.Network.ReconnectDelay)
	assert.Equal(t, 100, cfg.Network.QueueCapacity)
	assert.Equal(t, 5676, cfg.Audio.LocalPort)
	assert.Equal(t, 5677, cfg.Audio.RemotePort)
	assert.Equal(t, 5678, cfg.GUI.LocalPort)
	assert.Equal(t, 5679, cfg.GUI.RemotePort)
	assert.Equal(t, StreamFormatOpus, cfg.Audio.StreamFormat)
	assert.Equal(t, HelloConfig{Format: "opus", SampleRate: 16000, Channels: 1, FrameDuration: 60}, cfg.Hello)
	assert.Equal(t, "info", cfg.Log.LogLevel)
	assert.False(t, cfg.Features.EnableTTSDisplay)
}

func TestLoadConfigParsesDurations(t *testing.T) {
	path := writeConfig(t, `
network:
  ws_url: "wss://example.com/ws"
  reconnect_delay: 2s
  activation_poll: 1m
features:
  enable_tts_display: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Network.ReconnectDelay)
	assert.Equal(t, time.Minute, cfg.Network.ActivationPoll)
	assert.True(t, cfg.Features.EnableTTSDisplay)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, UnknownDeviceID, cfg.Network.DeviceID)
	assert.Equal(t, path, cfg.ConfigPath)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("XIAOZHI_WS_URL", "ws://10.0.0.2:8000/")
	t.Setenv("XIAOZHI_WS_TOKEN", "from-env")
	path := writeConfig(t, `
network:
  ws_url: "ws://127.0.0.1:8000/"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://10.0.0.2:8000/", cfg.Network.WSURL)
	assert.Equal(t, "from-env", cfg.Network.WSToken)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"scheme": `
network:
  ws_url: "http://example.com"
`,
		"port": `
audio:
  local_port: 70000
`,
		"format": `
audio:
  stream_format: "mp3"
`,
		"yaml": `network: [`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestEnsureIdentityUsesMACThenUUID(t *testing.T) {
	cfg := Default()

	dirty := cfg.ensureIdentity(func() (string, error) { return "AA:BB:CC:DD:EE:FF", nil })
	require.True(t, dirty)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", cfg.Network.DeviceID)
	_, err := uuid.Parse(cfg.Network.ClientID)
	require.NoError(t, err)

	// 已经生成过的标识不再变化
	assert.False(t, cfg.ensureIdentity(func() (string, error) { return "11:22:33:44:55:66", nil }))
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", cfg.Network.DeviceID)

	fallback := Default()
	require.True(t, fallback.ensureIdentity(func() (string, error) { return "", errors.New("no nic") }))
	_, err = uuid.Parse(fallback.Network.DeviceID)
	require.NoError(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.ConfigPath = path
	cfg.Network.DeviceID = "aa:bb:cc:dd:ee:ff"
	cfg.Network.ReconnectDelay = 3 * time.Second
	require.NoError(t, cfg.Save())

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", loaded.Network.DeviceID)
	assert.Equal(t, 3*time.Second, loaded.Network.ReconnectDelay)
}
