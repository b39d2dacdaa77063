// Package engine implements the strategy payoff and realized-P&L
// calculations. Everything in this package is pure: no I/O, no clocks
// except where a timestamp is passed in, no mutation of inputs.
package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind discriminates the instrument of a leg.
type Kind string

const (
	KindCall   Kind = "call"
	KindPut    Kind = "put"
	KindFuture Kind = "future"
)

// Side is the position direction of a leg.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Leg is one position inside a strategy. Which fields are meaningful
// depends on Kind: options use Strike/EntryPremium/ExitPremium, futures
// use EntryPrice/ExitPrice/LotSize. A nil exit field means the leg is
// still open.
//
// LotSize is a contract multiplier tracked for aggregate totals only;
// it never enters the P&L formulas (see Snapshot.TotalLotSize).
type Leg struct {
	ID       string          `json:"id"`
	Kind     Kind            `json:"kind"`
	Side     Side            `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`

	Strike       decimal.Decimal  `json:"strike"`
	EntryPremium decimal.Decimal  `json:"entry_premium"`
	ExitPremium  *decimal.Decimal `json:"exit_premium,omitempty"`

	EntryPrice decimal.Decimal  `json:"entry_price"`
	ExitPrice  *decimal.Decimal `json:"exit_price,omitempty"`
	LotSize    *decimal.Decimal `json:"lot_size,omitempty"`
}

// IsOption reports whether the leg is a call or a put.
func (l Leg) IsOption() bool {
	return l.Kind == KindCall || l.Kind == KindPut
}

// Exited reports whether the leg has its exit field populated.
func (l Leg) Exited() bool {
	if l.IsOption() {
		return l.ExitPremium != nil
	}
	return l.ExitPrice != nil
}

// EffectiveLotSize returns the lot-size multiplier, defaulting to 1.
func (l Leg) EffectiveLotSize() decimal.Decimal {
	if l.LotSize == nil {
		return decimal.NewFromInt(1)
	}
	return *l.LotSize
}

// Clone returns a deep copy of the leg. The decimal pointers are the
// only shared state a shallow copy would carry.
func (l Leg) Clone() Leg {
	out := l
	out.ExitPremium = cloneDecimalPtr(l.ExitPremium)
	out.ExitPrice = cloneDecimalPtr(l.ExitPrice)
	out.LotSize = cloneDecimalPtr(l.LotSize)
	return out
}

// CloneLegs deep-copies a slice of legs.
func CloneLegs(legs []Leg) []Leg {
	if legs == nil {
		return nil
	}
	out := make([]Leg, len(legs))
	for i, l := range legs {
		out[i] = l.Clone()
	}
	return out
}

// Validate rejects malformed legs at ingestion so calculations never
// see negative or nonsensical values. Numeric-text conversion itself
// happens during JSON decoding (decimal parses or fails there).
func (l Leg) Validate() error {
	switch l.Kind {
	case KindCall, KindPut, KindFuture:
	default:
		return fmt.Errorf("leg %s: unknown kind %q", l.ID, l.Kind)
	}
	switch l.Side {
	case SideBuy, SideSell:
	default:
		return fmt.Errorf("leg %s: unknown side %q", l.ID, l.Side)
	}
	if l.Quantity.IsNegative() {
		return fmt.Errorf("leg %s: quantity must be non-negative", l.ID)
	}
	if l.IsOption() {
		if l.Strike.IsNegative() {
			return fmt.Errorf("leg %s: strike must be non-negative", l.ID)
		}
		if l.EntryPremium.IsNegative() {
			return fmt.Errorf("leg %s: entry premium must be non-negative", l.ID)
		}
		if l.ExitPremium != nil && l.ExitPremium.IsNegative() {
			return fmt.Errorf("leg %s: exit premium must be non-negative", l.ID)
		}
		return nil
	}
	if l.EntryPrice.IsNegative() {
		return fmt.Errorf("leg %s: entry price must be non-negative", l.ID)
	}
	if l.ExitPrice != nil && l.ExitPrice.IsNegative() {
		return fmt.Errorf("leg %s: exit price must be non-negative", l.ID)
	}
	if l.LotSize != nil && l.LotSize.IsNegative() {
		return fmt.Errorf("leg %s: lot size must be non-negative", l.ID)
	}
	return nil
}

// ValidateLegs validates every leg and requires unique IDs.
func ValidateLegs(legs []Leg) error {
	seen := make(map[string]struct{}, len(legs))
	for _, l := range legs {
		if err := l.Validate(); err != nil {
			return err
		}
		id := strings.TrimSpace(l.ID)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate leg id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func cloneDecimalPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
