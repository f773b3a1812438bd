// Package monitor publishes the server's live counters over WebSocket.
package monitor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/1ureka/lanspeed/internal/util"
)

var log = util.Scope("monitor")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server pushes a util.Snapshot as JSON to every connected client once per
// interval.
type Server struct {
	addr     string
	interval time.Duration
	listener net.Listener
}

// NewServer creates a monitor that will listen on addr.
func NewServer(addr string, interval time.Duration) *Server {
	return &Server{addr: addr, interval: interval}
}

// Start begins listening and serving /ws. The listener is closed when ctx is
// cancelled. Returns the bound address.
func (s *Server) Start(ctx context.Context) (net.Addr, error) {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start monitor on %s: %w", s.addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.handleWS(ctx, w, r)
	})

	go func() {
		_ = http.Serve(listener, mux)
	}()
	context.AfterFunc(ctx, func() { listener.Close() })

	return listener.Addr(), nil
}

// handleWS streams snapshots to one subscriber until it disconnects or ctx
// is cancelled.
func (s *Server) handleWS(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	log.Debug("%s subscribed", r.RemoteAddr)

	// Drain reads so close frames from the peer are processed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(util.Stats.Snapshot()); err != nil {
			log.Debug("%s dropped: %v", r.RemoteAddr, err)
			return
		}

		select {
		case <-ticker.C:
		case <-closed:
			return
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
