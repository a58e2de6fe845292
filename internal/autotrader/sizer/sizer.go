// Package sizer computes position quantity and dollar size for a candidate trade.
package sizer

import (
	"github.com/shopspring/decimal"

	"github.com/quantedge/scheduler-core/internal/autotrader"
)

// SuggestedFindTag narrows the sizing dampeners applied to daily-suggestion candidates.
type SuggestedFindTag string

const (
	TagNone      SuggestedFindTag = ""
	TagCompounder SuggestedFindTag = "Steady Compounder"
	TagGoldMine   SuggestedFindTag = "Gold Mine"
)

// Input bundles everything the Sizer needs to compute a position size.
type Input struct {
	Price              float64
	Mode               autotrader.TradeMode
	Conviction         *int
	SuggestedFindTag   SuggestedFindTag
	EntryPrice         *float64
	StopLoss           *float64
	RegimeMultiplier   float64 // default 1.0
	DrawdownMultiplier float64 // from autotrader.AssessDrawdown
}

// Result is the computed size.
type Result struct {
	Quantity     float64
	PositionSize float64
}

// convictionMultiplier maps a 0-10 conviction score to a sizing multiplier.
func convictionMultiplier(conviction int) decimal.Decimal {
	switch {
	case conviction >= 10:
		return decimal.NewFromFloat(1.5)
	case conviction >= 9:
		return decimal.NewFromFloat(1.25)
	case conviction >= 8:
		return decimal.NewFromInt(1)
	case conviction >= 7:
		return decimal.NewFromFloat(0.75)
	default:
		return decimal.NewFromFloat(0.5)
	}
}

var (
	hundred          = decimal.NewFromInt(100)
	hardMaxFraction  = decimal.NewFromFloat(0.10)
	goldMineDampener = decimal.NewFromFloat(0.75)
	goldMineCap      = decimal.NewFromFloat(1.25)
	minPositionSize  = decimal.NewFromInt(100)
	one              = decimal.NewFromInt(1)
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// Size computes (quantity, dollarSize) per the fixed vs dynamic sizing rules.
// cfg supplies the allocation/percentage inputs; in supplies the trade-specific
// inputs. All money/ratio arithmetic runs through shopspring/decimal so
// repeated percentage multiplication across the allocation cap arithmetic
// never accumulates binary-float rounding error; only the final Result is
// converted back to float64 for the rest of the pipeline.
func Size(cfg autotrader.AutoTraderConfig, in Input) Result {
	price := d(in.Price)
	if !price.IsPositive() {
		return Result{}
	}

	maxTotalAllocation := d(cfg.MaxTotalAllocation)
	hardMax := maxTotalAllocation.Mul(hardMaxFraction)

	if !cfg.UseDynamicSizing {
		size := decimal.Min(d(cfg.PositionSize), hardMax)
		qty := decimal.Max(one, size.Div(price).Floor())
		return toResult(qty, qty.Mul(price))
	}

	maxDollar := decimal.Min(d(cfg.PortfolioValue).Mul(d(cfg.MaxPositionPct)).Div(hundred), hardMax)

	var size decimal.Decimal
	switch {
	case in.Mode == autotrader.ModeLongTerm && in.Conviction != nil:
		base := maxTotalAllocation.Mul(d(cfg.BaseAllocationPct)).Div(hundred)
		mult := convictionMultiplier(*in.Conviction)
		if in.SuggestedFindTag == TagGoldMine {
			if mult.GreaterThan(goldMineCap) {
				mult = goldMineCap
			}
			mult = mult.Mul(goldMineDampener)
		}
		size = base.Mul(mult)

	case in.EntryPrice != nil && in.StopLoss != nil && *in.EntryPrice != *in.StopLoss:
		riskBudget := maxTotalAllocation.Mul(d(cfg.RiskPerTradePct)).Div(hundred)
		perShareRisk := d(*in.EntryPrice).Sub(d(*in.StopLoss)).Abs()
		qty := riskBudget.Div(perShareRisk).Floor()
		size = qty.Mul(price)

	default:
		size = d(cfg.PositionSize)
	}

	regimeMult := in.RegimeMultiplier
	if regimeMult == 0 {
		regimeMult = 1.0
	}
	size = size.Mul(d(regimeMult)).Mul(d(in.DrawdownMultiplier))

	if size.LessThan(minPositionSize) {
		size = minPositionSize
	}
	if size.GreaterThan(maxDollar) {
		size = maxDollar
	}

	qty := decimal.Max(one, size.Div(price).Floor())
	return toResult(qty, qty.Mul(price))
}

func toResult(qty, positionSize decimal.Decimal) Result {
	q, _ := qty.Float64()
	p, _ := positionSize.Float64()
	return Result{Quantity: q, PositionSize: p}
}
