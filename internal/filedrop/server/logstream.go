package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"filedrop/pkg/logger"
)

const logWriteTimeout = 5 * time.Second

// LogHub fans log output out to connected WebSocket clients. It implements
// io.Writer so it can sit in an io.MultiWriter next to the process's normal
// log destination; a slow or dead client is dropped rather than allowed to
// stall the writer.
type LogHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

func NewLogHub(origins []string) *LogHub {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return &LogHub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // non-browser clients send no Origin
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Write broadcasts one log line to every connected client. Always reports
// full success: log delivery to watchers is best-effort and must never
// bubble an error into the logging path.
func (h *LogHub) Write(p []byte) (int, error) {
	// copy before fan-out, the caller may reuse p
	line := make([]byte, len(p))
	copy(line, p)

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(logWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, line); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
	return len(p), nil
}

// ClientCount reports the number of connected watchers.
func (h *LogHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the connection. The
// connection stays registered until the peer closes it or a broadcast
// write fails.
func (h *LogHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	logger.Info("log stream client connected", "remote", r.RemoteAddr)

	// drain control frames; a read error means the peer went away
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
			logger.Info("log stream client disconnected", "remote", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
