package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"xiaozhi-core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type displayRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (d *displayRecorder) SendMessage(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, text)
	return nil
}

func (d *displayRecorder) Messages() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.messages...)
}

func TestCheckActivationWithoutOTA(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	result := CheckActivation(context.Background(), cfg)
	assert.Equal(t, Activated, result.Status)
}

func TestCheckActivationRequest(t *testing.T) {
	t.Parallel()

	var got otaRequest
	var header http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"activation":{"code":"123456","message":"请输入激活码"},"websocket":{"url":"wss://example.com/ws/","token":"new-token"}}`))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Network.OTAURL = server.URL
	cfg.Network.DeviceID = "aa:bb:cc:dd:ee:ff"
	cfg.Network.ClientID = "client-1"

	result := CheckActivation(context.Background(), cfg)
	require.Equal(t, NeedActivation, result.Status, result.Message)
	assert.Equal(t, "123456", result.Code)
	assert.Equal(t, "请输入激活码", result.Message)

	assert.Equal(t, "aa:bb:cc:dd:ee:ff", header.Get("Device-Id"))
	assert.Equal(t, "client-1", header.Get("Client-Id"))
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", got.MacAddress)
	assert.Equal(t, "client-1", got.UUID)
	assert.Equal(t, cfg.Application.Name, got.Application.Name)

	assert.Equal(t, "wss://example.com/ws/", cfg.Network.WSURL)
	assert.Equal(t, "new-token", cfg.Network.WSToken)
}

func TestCheckActivationErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			_, _ = w.Write([]byte(`not json`))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	for _, url := range []string{server.URL, server.URL + "/broken", "http://127.0.0.1:1/ota"} {
		cfg := config.Default()
		cfg.Network.OTAURL = url
		result := CheckActivation(context.Background(), cfg)
		assert.Equal(t, ActivationError, result.Status, url)
		assert.Error(t, result.Err, url)
		assert.NotEmpty(t, result.Message, url)
	}
}

func TestWaitActivatedPolls(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			http.Error(w, "busy", http.StatusServiceUnavailable)
		case 2, 3:
			_, _ = w.Write([]byte(`{"activation":{"code":"654321"}}`))
		default:
			_, _ = w.Write([]byte(`{"server_time":{"timestamp":1}}`))
		}
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Network.OTAURL = server.URL
	display := &displayRecorder{}

	require.NoError(t, WaitActivated(context.Background(), cfg, display, 10*time.Millisecond))
	assert.EqualValues(t, 4, calls.Load())
	assert.Equal(t, []string{
		`{"type":"activation","code":"654321"}`,
		`{"type":"activation","code":"654321"}`,
		`{"type":"toast","text":"设备已激活"}`,
	}, display.Messages())
}

func TestWaitActivatedStopsOnCancel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"activation":{"code":"000000"}}`))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Network.OTAURL = server.URL

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := WaitActivated(ctx, cfg, &displayRecorder{}, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
