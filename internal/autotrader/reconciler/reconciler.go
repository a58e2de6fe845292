// Package reconciler diffs broker positions against the active ledger and
// writes idempotent fill/close/expire transitions.
package reconciler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
)

// QuoteProvider fetches a best-effort last price; callers fail open on error.
type QuoteProvider interface {
	GetQuote(ticker string) (*float64, error)
}

// LedgerStore is the narrow trade-repository slice the Reconciler needs.
type LedgerStore interface {
	Update(t autotrader.Trade) error
}

// BrokerGateway is the narrow broker slice the Reconciler needs.
type BrokerGateway interface {
	CancelOrder(orderID string) error
}

// SwingEntryLogger computes the collect-only entry-log metrics for a freshly
// filled swing trade (§4.2.1). A nil-returning stub is acceptable; failures
// here never block a fill transition.
type SwingEntryLogger interface {
	Compute(ticker string, at time.Time) (EntryLogMetrics, error)
}

// EntryLogMetrics bundles §4.2.1's collect-only metrics.
type EntryLogMetrics struct {
	DistanceToMA20Pct float64
	MACDHistIncr      bool
	VolumeVsAvg10Pct  float64
	RegimeAlignment   string
}

const (
	dayTradeExpiry       = 24 * time.Hour
	swingBracketExpiry   = 48 * time.Hour
)

// Reconciler diffs enriched broker positions against active ledger trades.
type Reconciler struct {
	Ledger LedgerStore
	Broker BrokerGateway
	Quotes QuoteProvider
	Swing  SwingEntryLogger
	Clock  autotrader.Clock
	Log    zerolog.Logger
}

// Reconcile evaluates every active trade independently; a failure on one row
// is logged and does not prevent evaluation of the rest.
func (r *Reconciler) Reconcile(positions []autotrader.EnrichedPosition, active []autotrader.Trade) {
	byTicker := map[string]autotrader.EnrichedPosition{}
	for _, p := range positions {
		if p.Position != 0 {
			byTicker[p.Symbol] = p
		}
	}

	for _, t := range active {
		pos, hasPosition := byTicker[t.Ticker]
		if err := r.reconcileOne(t, pos, hasPosition); err != nil {
			r.Log.Warn().Err(err).Str("ticker", t.Ticker).Str("trade_id", t.ID).Msg("reconcile trade failed, continuing")
		}
	}
}

func (r *Reconciler) reconcileOne(t autotrader.Trade, pos autotrader.EnrichedPosition, hasPosition bool) error {
	if hasPosition {
		return r.reconcileOpenPosition(t, pos)
	}
	return r.reconcileClosedOrUnfilled(t)
}

func (r *Reconciler) reconcileOpenPosition(t autotrader.Trade, pos autotrader.EnrichedPosition) error {
	switch t.Status {
	case autotrader.StatusPending, autotrader.StatusSubmitted:
		fillPrice := pos.AvgCost
		now := r.Clock.Now()
		t.Status = autotrader.StatusFilled
		t.FillPrice = &fillPrice
		t.FilledAt = &now

		if t.Mode == autotrader.ModeSwingTrade && r.Swing != nil {
			if metrics, err := r.Swing.Compute(t.Ticker, now); err == nil {
				t.DistanceToMA20Pct = &metrics.DistanceToMA20Pct
				t.MACDHistIncr = &metrics.MACDHistIncr
				t.VolumeVsAvg10Pct = &metrics.VolumeVsAvg10Pct
				t.RegimeAlignment = &metrics.RegimeAlignment
			}
		}

		if err := r.Ledger.Update(t); err != nil {
			return fmt.Errorf("mark filled: %w", err)
		}
		r.Log.Info().Str("ticker", t.Ticker).Float64("fill_price", fillPrice).Msg("trade filled")
		return nil

	case autotrader.StatusFilled:
		if pos.MktPrice <= 0 || t.FillPrice == nil || *t.FillPrice <= 0 {
			return nil
		}
		pnl := (pos.MktPrice - *t.FillPrice) * t.Quantity
		if t.Signal == autotrader.SideSell {
			pnl = -pnl
		}
		pnlPct := pnl / (*t.FillPrice * t.Quantity) * 100
		t.PnL = &pnl
		t.PnLPercent = &pnlPct
		if err := r.Ledger.Update(t); err != nil {
			return fmt.Errorf("update unrealized pnl: %w", err)
		}
		return nil

	default:
		return nil
	}
}

func (r *Reconciler) reconcileClosedOrUnfilled(t autotrader.Trade) error {
	now := r.Clock.Now()

	switch t.Status {
	case autotrader.StatusFilled:
		return r.closeExternally(t, now)

	case autotrader.StatusSubmitted:
		if t.Mode == autotrader.ModeDayTrade && now.Sub(t.OpenedAt) > dayTradeExpiry {
			t.Status = autotrader.StatusClosed
			t.ClosedAt = &now
			reason := autotrader.CloseManual
			t.CloseReason = &reason
			t.Notes = appendNote(t.Notes, "Expired: DAY order not filled within 1 day")
			return r.Ledger.Update(t)
		}
		if t.Mode == autotrader.ModeSwingTrade && t.EntryTriggerType == autotrader.EntryBracketLmt && now.Sub(t.OpenedAt) > swingBracketExpiry {
			if t.BrokerOrderID != nil {
				if err := r.Broker.CancelOrder(*t.BrokerOrderID); err != nil {
					r.Log.Warn().Err(err).Str("ticker", t.Ticker).Msg("cancel expired swing bracket failed")
				}
			}
			t.Status = autotrader.StatusClosed
			t.ClosedAt = &now
			reason := autotrader.CloseManual
			t.CloseReason = &reason
			t.Notes = appendNote(t.Notes, "Expired: SWING bracket not filled within 2 trading days")
			return r.Ledger.Update(t)
		}
		return nil

	default:
		return nil
	}
}

func (r *Reconciler) closeExternally(t autotrader.Trade, now time.Time) error {
	var closePrice float64
	if t.FillPrice != nil {
		closePrice = *t.FillPrice
	}
	if r.Quotes != nil {
		if q, err := r.Quotes.GetQuote(t.Ticker); err == nil && q != nil {
			closePrice = *q
		}
	}

	reason := inferCloseReason(t, closePrice)
	t.ClosePrice = &closePrice
	t.Status = statusForCloseReason(reason)
	t.ClosedAt = &now
	t.CloseReason = &reason

	if t.FillPrice != nil && t.StopLoss != nil && t.EntryPrice != nil && *t.EntryPrice != *t.StopLoss {
		rMult := (closePrice - *t.FillPrice) / absF(*t.EntryPrice-*t.StopLoss)
		if t.Signal == autotrader.SideSell {
			rMult = -rMult
		}
		t.RMultiple = &rMult
	}

	if t.FillPrice != nil {
		pnl := (closePrice - *t.FillPrice) * t.Quantity
		if t.Signal == autotrader.SideSell {
			pnl = -pnl
		}
		t.PnL = &pnl
		if *t.FillPrice > 0 {
			pct := pnl / (*t.FillPrice * t.Quantity) * 100
			t.PnLPercent = &pct
		}
	}

	return r.Ledger.Update(t)
}

func inferCloseReason(t autotrader.Trade, closePrice float64) autotrader.CloseReason {
	if t.StopLoss != nil && t.TargetPrice != nil {
		if t.Signal == autotrader.SideBuy {
			if closePrice >= *t.TargetPrice {
				return autotrader.CloseTargetHit
			}
			if closePrice <= *t.StopLoss {
				return autotrader.CloseStopLoss
			}
		} else {
			if closePrice <= *t.TargetPrice {
				return autotrader.CloseTargetHit
			}
			if closePrice >= *t.StopLoss {
				return autotrader.CloseStopLoss
			}
		}
	}

	if t.PnL != nil {
		switch {
		case *t.PnL > 0:
			return autotrader.CloseTargetHit
		case *t.PnL < 0:
			return autotrader.CloseStopLoss
		}
	}
	return autotrader.CloseManual
}

func statusForCloseReason(reason autotrader.CloseReason) autotrader.TradeStatus {
	switch reason {
	case autotrader.CloseTargetHit:
		return autotrader.StatusTargetHit
	case autotrader.CloseStopLoss:
		return autotrader.StatusStopped
	default:
		return autotrader.StatusClosed
	}
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "; " + note
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
