package coinbase

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"market_watcher/internal/domain"
	"market_watcher/internal/event"

	"github.com/shopspring/decimal"
)

// ErrFeedRejected is returned for an "error" frame sent by the exchange.
var ErrFeedRejected = errors.New("coinbase: request rejected")

const (
	typeSubscribe     = "subscribe"
	typeSubscriptions = "subscriptions"
	typeHeartbeat     = "heartbeat"
	typeTicker        = "ticker"
	typeSnapshot      = "snapshot"
	typeL2Update      = "l2update"
	typeError         = "error"
)

type envelope struct {
	Type string `json:"type"`
}

type subscribeRequest struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

// tickerMessage carries the fields of a ticker frame used downstream.
type tickerMessage struct {
	Sequence  uint64          `json:"sequence"`
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Time      time.Time       `json:"time"`
}

type snapshotMessage struct {
	ProductID string               `json:"product_id"`
	Bids      [][2]decimal.Decimal `json:"bids"`
	Asks      [][2]decimal.Decimal `json:"asks"`
}

type l2UpdateMessage struct {
	ProductID string      `json:"product_id"`
	Time      time.Time   `json:"time"`
	Changes   [][3]string `json:"changes"`
}

type errorMessage struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

func malformed(kind string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrMalformedMessage, kind, err)
}

// Decode turns one websocket frame into a market event.
// Control frames (heartbeat, subscriptions, unknown types) yield (nil, nil).
// l2update frames produce pooled events owned by the receiver.
func Decode(msg []byte) (event.Event, error) {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return nil, malformed("envelope", err)
	}

	switch env.Type {
	case typeTicker:
		return decodeTicker(msg)
	case typeSnapshot:
		return decodeSnapshot(msg)
	case typeL2Update:
		return decodeL2Update(msg)
	case typeError:
		var em errorMessage
		_ = json.Unmarshal(msg, &em)
		return nil, fmt.Errorf("%w: %s (%s)", ErrFeedRejected, em.Message, em.Reason)
	default:
		return nil, nil
	}
}

func decodeTicker(msg []byte) (event.Event, error) {
	var tm tickerMessage
	if err := json.Unmarshal(msg, &tm); err != nil {
		return nil, malformed(typeTicker, err)
	}
	if !tm.Price.IsPositive() {
		return nil, malformed(typeTicker, fmt.Errorf("price %s", tm.Price))
	}

	return &event.TickerEvent{Ticker: domain.Ticker{
		Sequence:  tm.Sequence,
		ProductID: tm.ProductID,
		Price:     tm.Price,
		Time:      tm.Time,
	}}, nil
}

func levels(pairs [][2]decimal.Decimal) []domain.PriceLevel {
	out := make([]domain.PriceLevel, len(pairs))
	for i, p := range pairs {
		out[i] = domain.PriceLevel{Price: p[0], Size: p[1]}
	}
	return out
}

func decodeSnapshot(msg []byte) (event.Event, error) {
	var sm snapshotMessage
	if err := json.Unmarshal(msg, &sm); err != nil {
		return nil, malformed(typeSnapshot, err)
	}
	return &event.SnapshotEvent{
		ProductID: sm.ProductID,
		Bids:      levels(sm.Bids),
		Asks:      levels(sm.Asks),
	}, nil
}

func decodeL2Update(msg []byte) (event.Event, error) {
	var um l2UpdateMessage
	if err := json.Unmarshal(msg, &um); err != nil {
		return nil, malformed(typeL2Update, err)
	}

	ev := event.AcquireBookDeltaEvent()
	ev.ProductID = um.ProductID
	ev.Time = um.Time
	for _, c := range um.Changes {
		side := domain.Side(c[0])
		price, perr := decimal.NewFromString(c[1])
		size, serr := decimal.NewFromString(c[2])
		if err := errors.Join(perr, serr); err != nil || !side.Valid() {
			event.ReleaseBookDeltaEvent(ev)
			if err == nil {
				err = fmt.Errorf("side %q", c[0])
			}
			return nil, malformed(typeL2Update, err)
		}
		ev.Changes = append(ev.Changes, domain.BookChange{Side: side, Price: price, Size: size})
	}
	return ev, nil
}
