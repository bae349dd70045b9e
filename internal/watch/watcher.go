// Package watch is a WebSocket client for the dashboard gateway. It selects
// a set of symbols and streams the rendered tables the server pushes back.
//
// The connection is re-established with exponential backoff and the
// selection is replayed after every reconnect, since sessions are
// per-connection on the server.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"indicator-dashboard/internal/gateway"
	"indicator-dashboard/internal/normalize"
)

// Config holds watcher settings.
type Config struct {
	// URL of the gateway socket, e.g. "ws://localhost:8080/ws".
	URL     string
	Symbols []string

	// ReconnectDelay defaults to 2s; MaxReconnectDelay caps the backoff at 30s.
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
}

func (c *Config) defaults() {
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 2 * time.Second
	}
	if c.MaxReconnectDelay == 0 {
		c.MaxReconnectDelay = 30 * time.Second
	}
}

// Watcher streams dashboard tables from a gateway.
type Watcher struct {
	cfg Config

	// OnReconnect is called after every dropped connection.
	OnReconnect func(err error)
}

// New validates cfg and creates a Watcher.
func New(cfg Config) (*Watcher, error) {
	cfg.defaults()
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("watch: unsupported scheme %q", u.Scheme)
	}
	if len(cfg.Symbols) == 0 {
		return nil, errors.New("watch: at least one symbol is required")
	}
	return &Watcher{cfg: cfg}, nil
}

// Start streams tables into out until ctx is cancelled. Tables are dropped
// when out is full; the next render supersedes them.
func (w *Watcher) Start(ctx context.Context, out chan<- normalize.Table) error {
	delay := w.cfg.ReconnectDelay
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		connected, err := w.runOnce(ctx, out)
		if err == nil {
			return nil
		}
		if connected {
			delay = w.cfg.ReconnectDelay
		}
		log.Printf("[watch] disconnected (%v), reconnecting in %s...", err, delay)
		if w.OnReconnect != nil {
			w.OnReconnect(err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay *= 2
		if delay > w.cfg.MaxReconnectDelay {
			delay = w.cfg.MaxReconnectDelay
		}
	}
}

// frame is the subset of server messages the watcher reads.
type frame struct {
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (w *Watcher) runOnce(ctx context.Context, out chan<- normalize.Table) (bool, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.cfg.URL, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	log.Printf("[watch] connected to %s", w.cfg.URL)

	// Select in reverse so the first symbol ends up active.
	for i := len(w.cfg.Symbols) - 1; i >= 0; i-- {
		msg := gateway.InboundMsg{Event: gateway.EventSelectSymbol, Symbol: w.cfg.Symbols[i]}
		if err := conn.WriteJSON(msg); err != nil {
			return true, fmt.Errorf("select %s: %w", msg.Symbol, err)
		}
	}

	// Selects are done; from here on only the shutdown goroutine writes.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			return true, err
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			log.Printf("[watch] parse error: %v", err)
			continue
		}
		switch f.Event {
		case gateway.EventDashboard:
			var t normalize.Table
			if err := json.Unmarshal(f.Data, &t); err != nil {
				log.Printf("[watch] bad dashboard payload: %v", err)
				continue
			}
			select {
			case out <- t:
			default:
			}
		case gateway.EventError:
			log.Printf("[watch] server error: %s", f.Message)
		}
	}
}
