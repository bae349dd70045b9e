package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"indicator-dashboard/internal/ingest"
	"indicator-dashboard/internal/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	maxInbound   = 4096
	queueSize    = 256
)

type sessionEvent struct {
	fields   map[string]json.RawMessage
	envelope []byte
	seq      int64
}

// Client is a single WebSocket peer and its dashboard session.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	session *Session
	ctx     context.Context

	send  chan []byte
	inbox chan sessionEvent

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:     h,
		conn:    conn,
		session: NewSession(h.catalog),
		ctx:     logger.WithTraceID(context.Background(), logger.NewTraceID("ws")),
		send:    make(chan []byte, queueSize),
		inbox:   make(chan sessionEvent, queueSize),
		done:    make(chan struct{}),
	}
}

// Session returns the client's dashboard session.
func (c *Client) Session() *Session { return c.session }

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// deliver queues a feed event for the session loop. Slow sessions drop.
func (c *Client) deliver(ev sessionEvent) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.inbox <- ev:
		return true
	default:
		c.hub.metrics.SendDropped()
		return false
	}
}

// queue sends msg to the peer without blocking.
func (c *Client) queue(msg []byte) {
	if msg == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.hub.metrics.SendDropped()
	}
}

// sessionLoop applies feed events one at a time and renders the table on
// each tick when it changed.
func (c *Client) sessionLoop() {
	ticker := time.NewTicker(c.hub.renderInterval)
	defer func() {
		ticker.Stop()
		c.session.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.inbox:
			if res := c.session.ApplyAt(ev.fields, ev.seq); res.Reason == ingest.ReasonStale {
				continue
			}
			c.queue(ev.envelope)
		case <-ticker.C:
			start := time.Now()
			table, ok := c.session.Render()
			if !ok {
				continue
			}
			c.hub.metrics.ObserveRender(time.Since(start))
			c.queue(encode(DashboardMsg{Event: EventDashboard, Data: table}))
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		logger.FromContext(c.ctx).Info("ws client disconnected")
	}()

	c.conn.SetReadLimit(maxInbound)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var msg InboundMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.queue(errorMessage("invalid message: " + err.Error()))
		return
	}

	switch msg.Event {
	case EventSelectSymbol:
		symbol := strings.TrimSpace(msg.Symbol)
		if symbol == "" {
			c.queue(errorMessage("symbol is required"))
			return
		}
		// Read the seq first: everything up to it is already in the store.
		asOf := c.hub.Broadcaster.Seq()
		syms, active := c.session.Select(symbol, c.hub.Store(), asOf)
		logger.FromContext(c.ctx).Debug("symbol selected", "symbol", symbol)
		c.queue(encode(SelectedMsg{Event: EventSelected, Symbols: syms, Active: active}))

	case EventDeselectSymbol:
		syms, active := c.session.Deselect(msg.Symbol)
		c.queue(encode(SelectedMsg{Event: EventSelected, Symbols: syms, Active: active}))

	case EventPing:
		c.queue(pongMessage(msg.TS, time.Now()))

	default:
		c.queue(errorMessage("unknown event " + `"` + msg.Event + `"`))
	}
}
