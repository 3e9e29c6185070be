// Package feed broadcasts event announcements and outcomes to websocket
// subscribers as JSON.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AustinNewburry/DavisDefenseBot/internal/event"
)

const (
	subscriberBuffer = 32
	writeTimeout     = 5 * time.Second
	readTimeout      = 60 * time.Second
)

// Message is the envelope of every frame sent to subscribers.
type Message struct {
	Type string          `json:"type"` // "announce" or "outcome"
	Data json.RawMessage `json:"data"`
}

// Hub fans frames out to every connected subscriber. Slow subscribers miss
// frames rather than blocking the game.
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu   sync.Mutex
	subs map[uint64]chan []byte
}

// NewHub returns an empty Hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[uint64]chan []byte),
	}
}

// Subscribers is the number of open connections.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe() (uint64, chan []byte) {
	id := h.nextID.Add(1)
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) broadcast(kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Message{Type: kind, Data: data})
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- frame:
		default:
			h.log.Debug("feed subscriber lagging, frame dropped", zap.Uint64("subscriber", id))
		}
	}
	return nil
}

// Announce implements event.Publisher.
func (h *Hub) Announce(_ context.Context, a event.Announcement) error {
	return h.broadcast("announce", a)
}

// Publish implements event.Publisher.
func (h *Hub) Publish(_ context.Context, o event.Outcome) error {
	return h.broadcast("outcome", o)
}

// Handler upgrades the request and streams frames until the client leaves.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, frames := h.subscribe()
		defer h.unsubscribe(id)
		h.log.Debug("feed subscriber joined", zap.Uint64("subscriber", id), zap.String("remote", r.RemoteAddr))

		// Reader: only control frames are expected; any error ends the session.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case <-r.Context().Done():
				return
			case b, ok := <-frames:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}
	}
}

// Serve listens on addr and serves the feed at /feed until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/feed", h.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	h.log.Info("feed listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
