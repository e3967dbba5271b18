package bybit

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bitloop-dev/triarb/internal/domain"
)

// Protocol constants for the v5 public spot stream.
const (
	// MaxTopicsPerRequest is the venue's cap on args per subscribe message.
	MaxTopicsPerRequest = 10

	// DefaultDepth is the order book depth level used in topic names.
	DefaultDepth = 50
)

// subscribeRequest is the control message sent to subscribe to topics.
type subscribeRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

// Topic builds the order book topic string for a symbol at the given depth,
// e.g. "orderbook.50.BTCUSDT".
func Topic(depth int, symbol string) string {
	return fmt.Sprintf("orderbook.%d.%s", depth, symbol)
}

// envelope is the outer shape of every inbound message. Control replies
// carry op/success; data messages carry topic/type/data.
type envelope struct {
	Op      string          `json:"op,omitempty"`
	Success *bool           `json:"success,omitempty"`
	RetMsg  string          `json:"ret_msg,omitempty"`
	Topic   string          `json:"topic,omitempty"`
	Type    string          `json:"type,omitempty"`
	Seq     int64           `json:"seq,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// bookData is the payload of an orderbook topic message. Bids and asks are
// [price, quantity] string pairs; U is the venue's update sequence.
type bookData struct {
	Symbol string     `json:"s"`
	Bids   [][]string `json:"b"`
	Asks   [][]string `json:"a"`
	UpdID  int64      `json:"u"`
}

// Message is the discriminated union every inbound frame decodes into.
// Exactly one of Ack or Update is set according to Kind; Unknown frames
// carry neither and are dropped by the caller.
type Message struct {
	Kind   MessageKind
	Ack    Ack
	Update domain.BookUpdate
}

// MessageKind classifies an inbound frame.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindAck
	KindSnapshot
	KindDelta
)

// Ack is the venue's reply to a control message.
type Ack struct {
	Op      string
	Success bool
	RetMsg  string
}

// Parse classifies one raw frame into the message union. Malformed frames
// and unrecognized topics come back as KindUnknown with a nil error unless
// the JSON itself is invalid.
func Parse(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("bybit: decode frame: %w", err)
	}

	// Control replies have an op and a success flag.
	if env.Success != nil {
		return Message{
			Kind: KindAck,
			Ack:  Ack{Op: env.Op, Success: *env.Success, RetMsg: env.RetMsg},
		}, nil
	}

	if !strings.HasPrefix(env.Topic, "orderbook.") || len(env.Data) == 0 {
		return Message{Kind: KindUnknown}, nil
	}

	var data bookData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return Message{}, fmt.Errorf("bybit: decode book data for %s: %w", env.Topic, err)
	}

	upd := domain.BookUpdate{
		Symbol: data.Symbol,
		Bids:   data.Bids,
		Asks:   data.Asks,
		Seq:    data.UpdID,
	}

	switch env.Type {
	case "snapshot":
		upd.Type = domain.UpdateSnapshot
		return Message{Kind: KindSnapshot, Update: upd}, nil
	case "delta":
		upd.Type = domain.UpdateDelta
		return Message{Kind: KindDelta, Update: upd}, nil
	}
	return Message{Kind: KindUnknown}, nil
}
