package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"spreadscan/internal/application/port"
	"spreadscan/internal/domain/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeTimeout   = 5 * time.Second
	pingInterval   = 25 * time.Second
	clientBacklog  = 8
	shutdownWindow = 3 * time.Second
)

// Hub serves the dashboard feed: every published cycle is marshalled once
// and fanned out to all connected clients. A client that cannot keep up is
// dropped rather than allowed to stall the cycle.
type Hub struct {
	addr string

	mu      sync.Mutex
	clients map[*client]struct{}

	srv *http.Server
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(addr string) *Hub {
	return &Hub{
		addr:    addr,
		clients: make(map[*client]struct{}),
	}
}

// Start runs the HTTP listener until ctx is cancelled.
func (h *Hub) Start(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/spreads", h.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	h.srv = &http.Server{
		Addr:              h.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownWindow)
		defer cancel()
		_ = h.srv.Shutdown(sctx)
	}()

	go func() {
		log.Info().Str("addr", h.addr).Msg("ws hub listening")
		if err := h.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("ws hub server error")
		}
	}()
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBacklog)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	log.Info().Str("remote", conn.RemoteAddr().String()).Int("clients", n).Msg("ws client connected")

	go h.writeLoop(c)
	go h.readLoop(c)
}

// drop removes the client and closes its send channel in one critical
// section; Publish sends under the same lock, so a send on the closed
// channel cannot happen.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
	_ = c.conn.Close()
}

// readLoop exists only to notice closes; inbound frames are discarded.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.drop(c)
				return
			}
		case <-pingTicker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout)); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

// Publish fans one cycle out to every connected client.
func (h *Hub) Publish(_ context.Context, ts int64, analyses []model.CoinAnalysis) error {
	payload, err := json.Marshal(struct {
		Ts   int64                `json:"ts"`
		Data []model.CoinAnalysis `json:"data"`
	}{Ts: ts, Data: analyses})
	if err != nil {
		return err
	}

	h.mu.Lock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		log.Warn().Str("remote", c.conn.RemoteAddr().String()).Msg("ws client lagging, dropped")
		h.drop(c)
	}
	return nil
}

var _ port.Sink = (*Hub)(nil)
