package engine

import (
	"github.com/shopspring/decimal"
)

// IntrinsicValue is the payoff an option would have if exercised at the
// given underlying price: max(0, S-K) for calls, max(0, K-S) for puts.
func IntrinsicValue(kind Kind, strike, underlying decimal.Decimal) decimal.Decimal {
	var v decimal.Decimal
	switch kind {
	case KindCall:
		v = underlying.Sub(strike)
	case KindPut:
		v = strike.Sub(underlying)
	default:
		return decimal.Zero
	}
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// RealizedPnL computes the locked-in P&L of the leg. The second return
// is false while the leg is still open; that is a normal state, not an
// error, and callers must not treat it as zero.
//
// Futures: (exit - entry) * quantity, negated for sell.
// Options: buy (exitPremium - entryPremium) * quantity,
// sell (entryPremium - exitPremium) * quantity; calls and puts share
// the same convention since realized P&L depends only on premium flow.
func (l Leg) RealizedPnL() (decimal.Decimal, bool) {
	if !l.Exited() {
		return decimal.Zero, false
	}
	if l.IsOption() {
		diff := l.ExitPremium.Sub(l.EntryPremium)
		if l.Side == SideSell {
			diff = diff.Neg()
		}
		return diff.Mul(l.Quantity), true
	}
	diff := l.ExitPrice.Sub(l.EntryPrice)
	if l.Side == SideSell {
		diff = diff.Neg()
	}
	return diff.Mul(l.Quantity), true
}

// Result classifies a P&L value. Exactly one of the three flags is set;
// zero is its own category, never a profit or a loss.
type Result struct {
	Value       decimal.Decimal `json:"value"`
	Formatted   string          `json:"formatted"`
	IsProfit    bool            `json:"is_profit"`
	IsLoss      bool            `json:"is_loss"`
	IsBreakEven bool            `json:"is_break_even"`
}

// Classify builds a Result from a P&L value.
func Classify(v decimal.Decimal) Result {
	sign := v.Sign()
	return Result{
		Value:       v,
		Formatted:   FormatCurrency(v),
		IsProfit:    sign > 0,
		IsLoss:      sign < 0,
		IsBreakEven: sign == 0,
	}
}

// IsFullyExited reports whether every leg has exit data. An empty
// strategy is never considered exited. This is the single gate between
// the theoretical (open) and realized (completed) summary views.
func IsFullyExited(legs []Leg) bool {
	if len(legs) == 0 {
		return false
	}
	for _, l := range legs {
		if !l.Exited() {
			return false
		}
	}
	return true
}

// TotalRealizedPnL sums per-leg realized P&L across the strategy. If
// any leg is still open the whole total is unavailable (ok=false);
// partial sums are never exposed.
func TotalRealizedPnL(legs []Leg) (decimal.Decimal, bool) {
	if len(legs) == 0 {
		return decimal.Zero, false
	}
	total := decimal.Zero
	for _, l := range legs {
		pnl, ok := l.RealizedPnL()
		if !ok {
			return decimal.Zero, false
		}
		total = total.Add(pnl)
	}
	return total, true
}
