package ops

// Package ops serves a small websocket endpoint that streams performance
// snapshots to operational dashboards. It is read-only and disabled by
// default; nothing in the game path depends on it.

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/snakego/server/internal/metrics"
)

// Broadcaster accepts websocket subscribers on /perf and fans monitor
// snapshots out to them.
type Broadcaster struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	server   *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewBroadcaster(bindAddr string, log *zap.Logger) *Broadcaster {
	b := &Broadcaster{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  512,
			WriteBufferSize: 2048,
		},
		clients: make(map[*websocket.Conn]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/perf", b.handlePerf)
	b.server = &http.Server{
		Addr:         bindAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return b
}

// Start serves in a background goroutine until Shutdown.
func (b *Broadcaster) Start() {
	go func() {
		if err := b.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			b.log.Error("ops server failed", zap.Error(err))
		}
	}()
	b.log.Info("ops stream listening", zap.String("addr", b.server.Addr))
}

func (b *Broadcaster) handlePerf(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn("ops upgrade failed", zap.Error(err))
		return
	}
	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()
	b.log.Debug("ops client connected", zap.String("remote", conn.RemoteAddr().String()))

	// Drain (and discard) client frames so pings and closes are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.drop(conn)
				return
			}
		}
	}()
}

// Publish sends one snapshot to every connected client. Dead connections
// are dropped on write failure.
func (b *Broadcaster) Publish(snap metrics.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		b.log.Error("marshal perf snapshot", zap.Error(err))
		return
	}

	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			b.drop(c)
		}
	}
}

func (b *Broadcaster) drop(conn *websocket.Conn) {
	b.mu.Lock()
	_, known := b.clients[conn]
	delete(b.clients, conn)
	b.mu.Unlock()
	if known {
		conn.Close()
		b.log.Debug("ops client dropped", zap.String("remote", conn.RemoteAddr().String()))
	}
}

// Shutdown closes every client and stops the HTTP server.
func (b *Broadcaster) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	for c := range b.clients {
		c.Close()
	}
	b.clients = make(map[*websocket.Conn]struct{})
	b.mu.Unlock()
	return b.server.Shutdown(ctx)
}
