package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func dialFeed(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(serverURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestReportFeed_Broadcast(t *testing.T) {
	feed := NewReportFeed(testLogger())
	server := httptest.NewServer(feed)
	defer server.Close()

	conn := dialFeed(t, server.URL)

	// Registration happens in the upgrade handler before ServeHTTP returns,
	// but poll briefly to be safe against scheduling
	require.Eventually(t, func() bool {
		return feed.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	feed.Broadcast("report.appended", map[string]string{"symbol": "600519", "version": "v20260823_0930"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, "report.appended", event.Type)
	assert.Equal(t, "600519", event.Data["symbol"])
}

func TestReportFeed_MultipleClients(t *testing.T) {
	feed := NewReportFeed(testLogger())
	server := httptest.NewServer(feed)
	defer server.Close()

	first := dialFeed(t, server.URL)
	second := dialFeed(t, server.URL)

	require.Eventually(t, func() bool {
		return feed.ClientCount() == 2
	}, time.Second, 10*time.Millisecond)

	feed.Broadcast("report.appended", map[string]string{"symbol": "000858"})

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(msg), "000858")
	}
}

func TestReportFeed_ConcurrentBroadcasts(t *testing.T) {
	feed := NewReportFeed(testLogger())
	server := httptest.NewServer(feed)
	defer server.Close()

	conn := dialFeed(t, server.URL)

	require.Eventually(t, func() bool {
		return feed.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	// Appends can land concurrently, so broadcasts do too. Every frame
	// must still arrive intact.
	const broadcasts = 8
	var wg sync.WaitGroup
	for i := 0; i < broadcasts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			feed.Broadcast("report.appended", map[string]int{"seq": n})
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i := 0; i < broadcasts; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var event struct {
			Type string         `json:"type"`
			Data map[string]int `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, "report.appended", event.Type)
		seen[event.Data["seq"]] = true
	}
	assert.Len(t, seen, broadcasts, "every broadcast arrives exactly once")

	assert.Equal(t, 1, feed.ClientCount(), "client survives concurrent writes")
}

func TestReportFeed_DisconnectedClientRemoved(t *testing.T) {
	feed := NewReportFeed(testLogger())
	server := httptest.NewServer(feed)
	defer server.Close()

	conn := dialFeed(t, server.URL)

	require.Eventually(t, func() bool {
		return feed.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return feed.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}
