package engine

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// LegPnL is one line of the snapshot's per-leg audit trail.
type LegPnL struct {
	LegID       string          `json:"leg_id"`
	Kind        Kind            `json:"kind"`
	Side        Side            `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	Exited      bool            `json:"exited"`
}

// Snapshot is the frozen record of a strategy's result at the moment it
// was exited. It is immutable by construction: all fields are
// unexported, accessors return copies, and there are no mutators. Once
// attached to a strategy it must never be rebuilt; downstream display
// reads realized P&L through DisplayedRealizedPnL only.
type Snapshot struct {
	snapshotDate          time.Time
	entryDate             string
	exitDate              string
	legs                  []Leg
	realizedPnL           decimal.Decimal
	totalQuantity         decimal.Decimal
	totalLotSize          decimal.Decimal
	breakdown             []LegPnL
	isWin                 bool
	isLoss                bool
	isBreakEven           bool
	underlyingPriceAtExit *decimal.Decimal
	notes                 string
}

// SnapshotOptions carries the optional context recorded alongside the
// computed figures. Dates are opaque YYYY-MM-DD strings.
type SnapshotOptions struct {
	EntryDate             string
	ExitDate              string
	UnderlyingPriceAtExit *decimal.Decimal
	Notes                 string

	// Now overrides the snapshot timestamp; zero means time.Now().
	Now time.Time
}

// BuildSnapshot computes and freezes a strategy's realized result.
// Callers must check IsFullyExited first; if an open leg slips through
// it contributes zero to the total rather than poisoning it, but the
// resulting snapshot will not be Valid.
//
// The input legs are deep-copied; later mutation of the live strategy
// cannot reach the snapshot.
func BuildSnapshot(legs []Leg, opts SnapshotOptions) Snapshot {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	exitDate := opts.ExitDate
	if exitDate == "" {
		exitDate = now.Format("2006-01-02")
	}

	breakdown := make([]LegPnL, 0, len(legs))
	realized := decimal.Zero
	totalQty := decimal.Zero
	totalLot := decimal.Zero
	for _, l := range legs {
		pnl, ok := l.RealizedPnL()
		if ok {
			realized = realized.Add(pnl)
		}
		breakdown = append(breakdown, LegPnL{
			LegID:       l.ID,
			Kind:        l.Kind,
			Side:        l.Side,
			Quantity:    l.Quantity,
			RealizedPnL: pnl,
			Exited:      ok,
		})
		totalQty = totalQty.Add(l.Quantity)
		totalLot = totalLot.Add(l.Quantity.Mul(l.EffectiveLotSize()))
	}

	sign := realized.Sign()
	return Snapshot{
		snapshotDate:          now,
		entryDate:             opts.EntryDate,
		exitDate:              exitDate,
		legs:                  CloneLegs(legs),
		realizedPnL:           realized,
		totalQuantity:         totalQty,
		totalLotSize:          totalLot,
		breakdown:             breakdown,
		isWin:                 sign > 0,
		isLoss:                sign < 0,
		isBreakEven:           sign == 0,
		underlyingPriceAtExit: cloneDecimalPtr(opts.UnderlyingPriceAtExit),
		notes:                 opts.Notes,
	}
}

func (s *Snapshot) SnapshotDate() time.Time        { return s.snapshotDate }
func (s *Snapshot) EntryDate() string              { return s.entryDate }
func (s *Snapshot) ExitDate() string               { return s.exitDate }
func (s *Snapshot) RealizedPnL() decimal.Decimal   { return s.realizedPnL }
func (s *Snapshot) TotalQuantity() decimal.Decimal { return s.totalQuantity }
func (s *Snapshot) TotalLotSize() decimal.Decimal  { return s.totalLotSize }
func (s *Snapshot) IsWin() bool                    { return s.isWin }
func (s *Snapshot) IsLoss() bool                   { return s.isLoss }
func (s *Snapshot) IsBreakEven() bool              { return s.isBreakEven }
func (s *Snapshot) Notes() string                  { return s.notes }

// Legs returns a deep copy of the frozen legs.
func (s *Snapshot) Legs() []Leg { return CloneLegs(s.legs) }

// Breakdown returns a copy of the per-leg P&L audit trail.
func (s *Snapshot) Breakdown() []LegPnL {
	out := make([]LegPnL, len(s.breakdown))
	copy(out, s.breakdown)
	return out
}

// UnderlyingPriceAtExit returns a copy of the recorded exit-time
// underlying price, or nil if none was recorded.
func (s *Snapshot) UnderlyingPriceAtExit() *decimal.Decimal {
	return cloneDecimalPtr(s.underlyingPriceAtExit)
}

// Valid reports whether the snapshot is complete enough to trust for
// display: dated, non-empty, and every frozen leg carries exit data.
func (s *Snapshot) Valid() bool {
	if s == nil {
		return false
	}
	if s.snapshotDate.IsZero() || s.exitDate == "" {
		return false
	}
	if len(s.legs) == 0 {
		return false
	}
	for _, l := range s.legs {
		if !l.Exited() {
			return false
		}
	}
	return true
}

// DisplayedRealizedPnL is the only sanctioned read path for historical
// P&L. A valid snapshot's frozen value always wins; otherwise the
// legacy fallback applies, defaulting to zero. Never re-derive a
// completed trade's P&L from live legs.
func DisplayedRealizedPnL(s *Snapshot, fallback *decimal.Decimal) decimal.Decimal {
	if s.Valid() {
		return s.realizedPnL
	}
	if fallback != nil {
		return *fallback
	}
	return decimal.Zero
}

// snapshotJSON is the persistence shape. The snapshot is stored as
// plain nested JSON inside the strategy record.
type snapshotJSON struct {
	SnapshotDate          time.Time        `json:"snapshot_date"`
	EntryDate             string           `json:"entry_date,omitempty"`
	ExitDate              string           `json:"exit_date"`
	Legs                  []Leg            `json:"legs"`
	RealizedPnL           decimal.Decimal  `json:"realized_pnl"`
	TotalQuantity         decimal.Decimal  `json:"total_quantity"`
	TotalLotSize          decimal.Decimal  `json:"total_lot_size"`
	LegPnLBreakdown       []LegPnL         `json:"leg_pnl_breakdown"`
	IsWin                 bool             `json:"is_win"`
	IsLoss                bool             `json:"is_loss"`
	IsBreakEven           bool             `json:"is_break_even"`
	UnderlyingPriceAtExit *decimal.Decimal `json:"underlying_price_at_exit,omitempty"`
	Notes                 string           `json:"notes,omitempty"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		SnapshotDate:          s.snapshotDate,
		EntryDate:             s.entryDate,
		ExitDate:              s.exitDate,
		Legs:                  s.legs,
		RealizedPnL:           s.realizedPnL,
		TotalQuantity:         s.totalQuantity,
		TotalLotSize:          s.totalLotSize,
		LegPnLBreakdown:       s.breakdown,
		IsWin:                 s.isWin,
		IsLoss:                s.isLoss,
		IsBreakEven:           s.isBreakEven,
		UnderlyingPriceAtExit: s.underlyingPriceAtExit,
		Notes:                 s.notes,
	})
}

// UnmarshalJSON reconstructs a stored snapshot. It is the load path for
// records persisted earlier, not a mutator for live ones.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw snapshotJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Snapshot{
		snapshotDate:          raw.SnapshotDate,
		entryDate:             raw.EntryDate,
		exitDate:              raw.ExitDate,
		legs:                  raw.Legs,
		realizedPnL:           raw.RealizedPnL,
		totalQuantity:         raw.TotalQuantity,
		totalLotSize:          raw.TotalLotSize,
		breakdown:             raw.LegPnLBreakdown,
		isWin:                 raw.IsWin,
		isLoss:                raw.IsLoss,
		isBreakEven:           raw.IsBreakEven,
		underlyingPriceAtExit: raw.UnderlyingPriceAtExit,
		notes:                 raw.Notes,
	}
	return nil
}
