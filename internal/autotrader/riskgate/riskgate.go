// Package riskgate applies the layered pre-trade checks from the reconciled
// portfolio and trade ledger state: allocation cap, daily cap, sector cap,
// earnings blackout, and strategy auto-deactivation after consecutive loss days.
package riskgate

import (
	"fmt"
	"time"

	"github.com/quantedge/scheduler-core/internal/autotrader"
)

// Reason is a stable, loggable slug identifying why a candidate was rejected.
type Reason string

const (
	ReasonCircuitBreaker   Reason = "circuit_breaker"
	ReasonAllocationCap    Reason = "allocation_cap"
	ReasonDailyCap         Reason = "daily_cap"
	ReasonSectorCap        Reason = "sector_cap"
	ReasonEarningsBlackout Reason = "earnings_blackout"
	ReasonStrategyDeactivated Reason = "strategy_marked_x"
	ReasonDrawdownCritical Reason = "drawdown_critical"
)

// Verdict is the outcome of a gate evaluation.
type Verdict struct {
	Allowed bool
	Reason  Reason
	Message string
}

func reject(reason Reason, format string, args ...interface{}) Verdict {
	return Verdict{Allowed: false, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

var allow = Verdict{Allowed: true}

// IndustryLookup resolves a ticker's sector/industry label. Implementations
// should cache for the process lifetime; unknown tickers return ("", nil).
type IndustryLookup interface {
	Industry(ticker string) (string, error)
}

// EarningsCalendar reports the next known earnings date for a ticker, if any,
// within the given forward-looking window.
type EarningsCalendar interface {
	NextEarningsDate(ticker string, from, to time.Time) (*time.Time, error)
}

// LedgerView is the narrow slice of ledger queries the gate needs. It is
// satisfied by the store's trade repository.
type LedgerView interface {
	SumActivePositionSize() (float64, error)
	SumActivePositionSizeBySector(sector string, industryOf func(ticker string) (string, error)) (float64, error)
	RecentClosedTrades(scope ScopeKey, limit int) ([]ClosedTrade, error)
}

// ScopeKey identifies the (source, mode) or (source, video, mode) scope used
// for the consecutive-loss-day auto-deactivation gate.
type ScopeKey struct {
	SourceName      string
	StrategyVideoID *string
	Mode            autotrader.TradeMode
}

// ClosedTrade is the minimal projection RecentClosedTrades needs to return.
type ClosedTrade struct {
	ClosedAt time.Time
	PnL      float64
}

// Gate evaluates per-trade risk checks given the current portfolio state.
type Gate struct {
	Config   autotrader.AutoTraderConfig
	Ledger   LedgerView
	Industry IndustryLookup
	Earnings EarningsCalendar
	Clock    autotrader.Clock
}

// PreTradeInput bundles the candidate-specific facts the gate needs.
type PreTradeInput struct {
	Ticker              string
	NewPositionSize     float64
	DailyDeployedSoFar  float64
	PendingDeployed     float64
	Drawdown            autotrader.DrawdownAssessment
	IsExternalSignal    bool
	SignalScope         *ScopeKey
	SignalExempt        bool

	// BrokerPositions is the Orchestrator's current-Cycle enriched position
	// snapshot. When non-empty it is authoritative for the allocation gate
	// (gate 1); the ledger sum is used only as a fallback when the broker
	// reports no positions at all.
	BrokerPositions []autotrader.EnrichedPosition
}

// Evaluate runs gates 1-5 in order, short-circuiting on the first rejection.
func (g *Gate) Evaluate(in PreTradeInput) (Verdict, error) {
	if in.Drawdown.Level == autotrader.DrawdownCritical {
		return reject(ReasonDrawdownCritical, "drawdown critical (%.2f%%), new entries blocked", in.Drawdown.PnLPercent), nil
	}

	if v, err := g.checkAllocation(in); err != nil {
		return Verdict{}, err
	} else if !v.Allowed {
		return v, nil
	}

	if v := g.checkDailyCap(in); !v.Allowed {
		return v, nil
	}

	if v, err := g.checkSector(in); err != nil {
		return Verdict{}, err
	} else if !v.Allowed {
		return v, nil
	}

	if v, err := g.checkEarnings(in); err != nil {
		return Verdict{}, err
	} else if !v.Allowed {
		return v, nil
	}

	if in.IsExternalSignal && !in.SignalExempt && in.SignalScope != nil {
		if v, err := g.checkDeactivation(*in.SignalScope); err != nil {
			return Verdict{}, err
		} else if !v.Allowed {
			return v, nil
		}
	}

	return allow, nil
}

func (g *Gate) checkAllocation(in PreTradeInput) (Verdict, error) {
	deployed, err := g.deployedDollars(in.BrokerPositions)
	if err != nil {
		return Verdict{}, err
	}
	deployed += in.PendingDeployed

	if deployed >= 0.95*g.Config.MaxTotalAllocation {
		return reject(ReasonCircuitBreaker, "circuit breaker: at cap limit (%.2f >= 95%% of %.2f)", deployed, g.Config.MaxTotalAllocation), nil
	}
	if deployed+in.NewPositionSize > g.Config.MaxTotalAllocation {
		return reject(ReasonAllocationCap, "allocation cap exceeded: %.2f + %.2f > %.2f", deployed, in.NewPositionSize, g.Config.MaxTotalAllocation), nil
	}
	return allow, nil
}

// deployedDollars computes gate 1's deployed-capital figure: the sum of
// |quantity|*avgCost across the broker's reported positions, or the ledger's
// own positionSize sum when the broker reports no positions (e.g. a fresh
// account, or a Cycle running before the first RequestPositions call
// populates BrokerPositions).
func (g *Gate) deployedDollars(positions []autotrader.EnrichedPosition) (float64, error) {
	if len(positions) > 0 {
		var sum float64
		for _, p := range positions {
			qty := p.Position
			if qty < 0 {
				qty = -qty
			}
			sum += qty * p.AvgCost
		}
		return sum, nil
	}
	deployed, err := g.Ledger.SumActivePositionSize()
	if err != nil {
		return 0, fmt.Errorf("sum active position size: %w", err)
	}
	return deployed, nil
}

func (g *Gate) checkDailyCap(in PreTradeInput) Verdict {
	if in.DailyDeployedSoFar+in.NewPositionSize > g.Config.MaxDailyDeployment {
		return reject(ReasonDailyCap, "daily deployment cap exceeded: %.2f + %.2f > %.2f", in.DailyDeployedSoFar, in.NewPositionSize, g.Config.MaxDailyDeployment)
	}
	return allow
}

func (g *Gate) checkSector(in PreTradeInput) (Verdict, error) {
	if g.Config.MaxSectorPct >= 100 {
		return allow, nil
	}
	industry, err := g.Industry.Industry(in.Ticker)
	if err != nil {
		// Fail open: unknown industry never blocks a trade.
		return allow, nil
	}
	if industry == "" {
		return allow, nil
	}
	sectorSum, err := g.Ledger.SumActivePositionSizeBySector(industry, g.Industry.Industry)
	if err != nil {
		return Verdict{}, fmt.Errorf("sum sector position size: %w", err)
	}
	limit := g.Config.PortfolioValue * g.Config.MaxSectorPct / 100
	if sectorSum+in.NewPositionSize > limit {
		return reject(ReasonSectorCap, "sector %q cap exceeded: %.2f + %.2f > %.2f", industry, sectorSum, in.NewPositionSize, limit), nil
	}
	return allow, nil
}

func (g *Gate) checkEarnings(in PreTradeInput) (Verdict, error) {
	if !g.Config.EarningsAvoidEnabled {
		return allow, nil
	}
	now := g.Clock.Now()
	to := now.AddDate(0, 0, 30)
	next, err := g.Earnings.NextEarningsDate(in.Ticker, now, to)
	if err != nil || next == nil {
		// Fail open: calendar unavailable never blocks a trade.
		return allow, nil
	}
	daysAhead := int(next.Sub(now).Hours() / 24)
	if daysAhead <= g.Config.EarningsBlackoutDays {
		return reject(ReasonEarningsBlackout, "earnings on %s is within blackout window (%d days)", next.Format("2006-01-02"), g.Config.EarningsBlackoutDays), nil
	}
	return allow, nil
}

// IsAutoDeactivated reports whether scope's consecutive-loss-day count has
// tripped the auto-deactivation threshold, letting callers short-circuit
// before doing any further candidate-specific work (§4.3.3 step 1).
func (g *Gate) IsAutoDeactivated(scope ScopeKey) (bool, error) {
	v, err := g.checkDeactivation(scope)
	if err != nil {
		return false, err
	}
	return !v.Allowed, nil
}

// checkDeactivation scopes first to the specific video, then to the source,
// rejecting if either scope shows threshold-or-more consecutive loss days.
func (g *Gate) checkDeactivation(scope ScopeKey) (Verdict, error) {
	if scope.StrategyVideoID != nil {
		days, err := g.consecutiveLossDays(scope)
		if err != nil {
			return Verdict{}, err
		}
		if days >= g.Config.ConsecutiveLossDayThreshold {
			return reject(ReasonStrategyDeactivated, "strategy marked X after %d consecutive losses (video scope)", days), nil
		}
	}

	sourceScope := ScopeKey{SourceName: scope.SourceName, Mode: scope.Mode}
	days, err := g.consecutiveLossDays(sourceScope)
	if err != nil {
		return Verdict{}, err
	}
	if days >= g.Config.ConsecutiveLossDayThreshold {
		return reject(ReasonStrategyDeactivated, "strategy marked X after %d consecutive losses (source scope)", days), nil
	}
	return allow, nil
}

// consecutiveLossDays buckets the most recent 10 closed trades in scope by ET
// calendar day and counts consecutive net-negative days walking back from today.
func (g *Gate) consecutiveLossDays(scope ScopeKey) (int, error) {
	trades, err := g.Ledger.RecentClosedTrades(scope, 10)
	if err != nil {
		return 0, fmt.Errorf("recent closed trades: %w", err)
	}

	dayPnL := map[string]float64{}
	var order []string
	for _, tr := range trades {
		day := autotrader.ETDateString(tr.ClosedAt)
		if _, seen := dayPnL[day]; !seen {
			order = append(order, day)
		}
		dayPnL[day] += tr.PnL
	}

	count := 0
	for _, day := range order {
		if dayPnL[day] < 0 {
			count++
			continue
		}
		break
	}
	return count, nil
}
