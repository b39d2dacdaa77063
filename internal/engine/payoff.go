package engine

import (
	"github.com/shopspring/decimal"
)

const curveSteps = 100

// PayoffAt computes the leg's theoretical P&L with the underlying at
// the given price. A leg that has already been closed contributes its
// actual realized result instead of a hypothetical one:
//
// Futures use the exit price when set, otherwise the hypothetical
// price. Options use the realized premium formula when the exit premium
// is set, otherwise intrinsic value stands in for the exit premium.
func (l Leg) PayoffAt(price decimal.Decimal) decimal.Decimal {
	if !l.IsOption() {
		exit := price
		if l.ExitPrice != nil {
			exit = *l.ExitPrice
		}
		diff := exit.Sub(l.EntryPrice)
		if l.Side == SideSell {
			diff = diff.Neg()
		}
		return diff.Mul(l.Quantity)
	}
	if l.ExitPremium != nil {
		pnl, _ := l.RealizedPnL()
		return pnl
	}
	diff := IntrinsicValue(l.Kind, l.Strike, price).Sub(l.EntryPremium)
	if l.Side == SideSell {
		diff = diff.Neg()
	}
	return diff.Mul(l.Quantity)
}

// PayoffAtPrice sums PayoffAt over all legs.
func PayoffAtPrice(legs []Leg, price decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range legs {
		total = total.Add(l.PayoffAt(price))
	}
	return total
}

// CurvePoint is one chart sample. Both values are rounded to the
// nearest integer for display.
type CurvePoint struct {
	Price  int64 `json:"price"`
	Payoff int64 `json:"payoff"`
}

// PayoffCurve samples the aggregate payoff at 101 evenly spaced prices
// from center*(1-rangePct/100) to center*(1+rangePct/100) inclusive.
// A non-positive center or an empty leg set yields the single point
// (0,0) instead of a degenerate range.
func PayoffCurve(legs []Leg, center decimal.Decimal, rangePct float64) []CurvePoint {
	prices := curvePrices(legs, center, rangePct)
	if prices == nil {
		return []CurvePoint{{Price: 0, Payoff: 0}}
	}
	out := make([]CurvePoint, len(prices))
	for i, p := range prices {
		out[i] = CurvePoint{
			Price:  p.Round(0).IntPart(),
			Payoff: PayoffAtPrice(legs, p).Round(0).IntPart(),
		}
	}
	return out
}

// PayoffExtrema returns the maximum and minimum payoff across the curve
// range. Strike prices are sampled in addition to the uniform grid so a
// kink sitting between grid points cannot be missed.
func PayoffExtrema(legs []Leg, center decimal.Decimal, rangePct float64) (maxProfit, maxLoss decimal.Decimal) {
	prices := curvePrices(legs, center, rangePct)
	if prices == nil {
		return decimal.Zero, decimal.Zero
	}
	for _, l := range legs {
		if l.IsOption() {
			prices = append(prices, l.Strike)
		}
	}
	for i, p := range prices {
		v := PayoffAtPrice(legs, p)
		if i == 0 || v.GreaterThan(maxProfit) {
			maxProfit = v
		}
		if i == 0 || v.LessThan(maxLoss) {
			maxLoss = v
		}
	}
	return maxProfit, maxLoss
}

// BreakevenPoints finds the prices where the aggregate payoff crosses
// zero. Consecutive grid samples bracketing a sign change (>=0 vs <0)
// are refined by linear interpolation to the exact crossing price.
func BreakevenPoints(legs []Leg, center decimal.Decimal, rangePct float64) []decimal.Decimal {
	prices := curvePrices(legs, center, rangePct)
	if prices == nil {
		return nil
	}
	var out []decimal.Decimal
	prevPrice := prices[0]
	prevPayoff := PayoffAtPrice(legs, prevPrice)
	for _, p := range prices[1:] {
		payoff := PayoffAtPrice(legs, p)
		crossedUp := prevPayoff.IsNegative() && payoff.Sign() >= 0
		crossedDown := prevPayoff.Sign() >= 0 && payoff.IsNegative()
		if crossedUp || crossedDown {
			// payoff != prevPayoff here, the signs differ.
			slope := payoff.Sub(prevPayoff).Div(p.Sub(prevPrice))
			out = append(out, prevPrice.Sub(prevPayoff.Div(slope)))
		}
		prevPrice = p
		prevPayoff = payoff
	}
	return out
}

// curvePrices builds the 101-point uniform grid, or nil for degenerate
// input (the caller substitutes the single zero point).
func curvePrices(legs []Leg, center decimal.Decimal, rangePct float64) []decimal.Decimal {
	if center.Sign() <= 0 || len(legs) == 0 {
		return nil
	}
	spread := center.Mul(decimal.NewFromFloat(rangePct / 100))
	min := center.Sub(spread)
	step := spread.Mul(decimal.NewFromInt(2)).Div(decimal.NewFromInt(curveSteps))
	out := make([]decimal.Decimal, 0, curveSteps+1)
	for i := 0; i <= curveSteps; i++ {
		out = append(out, min.Add(step.Mul(decimal.NewFromInt(int64(i)))))
	}
	return out
}
