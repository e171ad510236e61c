package matching

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// Side is BUY or SELL.
type Side byte

const (
	SideBuy  Side = 'B'
	SideSell Side = 'S'
)

func (s Side) String() string {
	if s == SideBuy {
		return "BUY"
	}
	return "SELL"
}

// Kind distinguishes limit from market orders.
type Kind byte

const (
	KindLimit  Kind = 'L'
	KindMarket Kind = 'M'
)

// idSeparator splits an order ID into its owning participant ID (the
// prefix) and a unique sequence suffix.
const idSeparator = "#"

var orderSeq uint64

// NextOrderSeq returns a process-wide monotonically increasing sequence
// number, used as the order ID suffix instead of a raw timestamp so that
// two orders submitted within the same tick never collide.
func NextOrderSeq() uint64 {
	return atomic.AddUint64(&orderSeq, 1)
}

// NewOrderID builds an order ID for participantID using the next sequence
// number.
func NewOrderID(participantID string) string {
	return fmt.Sprintf("%s%s%d", participantID, idSeparator, NextOrderSeq())
}

// ParticipantOf extracts the owning participant ID from an order ID.
// Returns ok=false if the ID does not contain the separator.
func ParticipantOf(orderID string) (participantID string, ok bool) {
	idx := strings.LastIndex(orderID, idSeparator)
	if idx < 0 {
		return "", false
	}
	return orderID[:idx], true
}

var matchSeq uint64

// NextMatchNumber returns a globally unique trade match number.
func NextMatchNumber() uint64 {
	return atomic.AddUint64(&matchSeq, 1)
}

// Order is a single resting or incoming order.
type Order struct {
	ID       string
	Side     Side
	Price    decimal.Decimal // meaningless for market orders until matched
	Quantity int64
	Seq      uint64 // time/priority ordering within a price level
}

// RoundPrice coerces a price to 2 decimals without floating point error.
func RoundPrice(p decimal.Decimal) decimal.Decimal {
	return p.Round(2)
}
