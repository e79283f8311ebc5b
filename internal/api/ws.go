package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/minquant/stocklens/pkg/logger"
)

const wsWriteTimeout = 5 * time.Second

// feedClient wraps one connection with a write mutex. gorilla/websocket
// supports only one concurrent writer per connection, and broadcasts can
// arrive from concurrent append handlers.
type feedClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *feedClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReportFeed broadcasts each successfully appended report to connected
// dashboard clients over websocket.
type ReportFeed struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]*feedClient
}

// NewReportFeed creates a new report feed hub
func NewReportFeed(log *logger.Logger) *ReportFeed {
	return &ReportFeed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The feed is read-only public data behind the API layer;
			// origin policy is the (out-of-scope) gateway's concern.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  log,
		clients: make(map[*websocket.Conn]*feedClient),
	}
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client goes away. Clients never send application data; reads only
// detect closure.
func (f *ReportFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	f.mu.Lock()
	f.clients[conn] = &feedClient{conn: conn}
	count := len(f.clients)
	f.mu.Unlock()

	f.logger.WithField("clients", count).Debug("Report feed client connected")

	go f.readLoop(conn)
}

// readLoop drains the connection and unregisters it on close
func (f *ReportFeed) readLoop(conn *websocket.Conn) {
	defer f.remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *ReportFeed) remove(conn *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
	conn.Close()
}

// Broadcast sends an event to every connected client. Writes serialize
// per client; slow or broken clients are dropped rather than blocking
// the append path.
func (f *ReportFeed) Broadcast(eventType string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": payload,
	})
	if err != nil {
		f.logger.WithError(err).Error("Failed to marshal feed event")
		return
	}

	f.mu.Lock()
	clients := make([]*feedClient, 0, len(f.clients))
	for _, client := range f.clients {
		clients = append(clients, client)
	}
	f.mu.Unlock()

	for _, client := range clients {
		if err := client.write(data); err != nil {
			f.remove(client.conn)
		}
	}
}

// ClientCount returns the number of connected clients
func (f *ReportFeed) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}
