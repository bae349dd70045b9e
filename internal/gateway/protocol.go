package gateway

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"indicator-dashboard/internal/normalize"
)

// Inbound client events.
const (
	EventSelectSymbol   = "select-symbol"
	EventDeselectSymbol = "deselect-symbol"
	EventPing           = "ping"
)

// Outbound server events.
const (
	EventLiveData  = "live-data-all"
	EventDashboard = "dashboard"
	EventSelected  = "selected"
	EventError     = "error"
	EventPong      = "pong"
)

// InboundMsg is any client -> server message.
type InboundMsg struct {
	Event  string `json:"event"`
	Symbol string `json:"symbol,omitempty"`
	TS     int64  `json:"ts,omitempty"`
}

// SelectedMsg acknowledges a selection change.
type SelectedMsg struct {
	Event   string   `json:"event"`
	Symbols []string `json:"symbols"`
	Active  string   `json:"active"`
}

// DashboardMsg carries a rendered table.
type DashboardMsg struct {
	Event string          `json:"event"`
	Data  normalize.Table `json:"data"`
}

// ErrorMsg reports a rejected client message.
type ErrorMsg struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

// PongMsg answers a ping with the server clock.
type PongMsg struct {
	Event    string `json:"event"`
	TS       int64  `json:"ts"`
	ServerTS int64  `json:"serverTs"`
}

// liveEnvelope wraps a raw feed event without re-encoding it:
// {"event":"live-data-all","data":<raw>,"seq":N}
func liveEnvelope(raw []byte, seq int64) []byte {
	buf := make([]byte, 0, len(raw)+48)
	buf = append(buf, `{"event":"`...)
	buf = append(buf, EventLiveData...)
	buf = append(buf, `","data":`...)
	buf = append(buf, raw...)
	buf = append(buf, `,"seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, '}')
	return buf
}

func encode(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("[gateway] encode %T: %v", v, err)
		return nil
	}
	return b
}

func errorMessage(msg string) []byte {
	return encode(ErrorMsg{Event: EventError, Message: msg})
}

func pongMessage(ts int64, now time.Time) []byte {
	return encode(PongMsg{Event: EventPong, TS: ts, ServerTS: now.UnixMilli()})
}
