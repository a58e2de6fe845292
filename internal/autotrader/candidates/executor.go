// Package candidates implements CandidateSources (C3) — scanner ideas,
// suggested finds, and external strategy signals — plus the SignalQueuer
// (C4) paths that feed external strategy signals from tracked videos.
package candidates

import "github.com/quantedge/scheduler-core/internal/autotrader"

// OrderRequest is the fully-sized, fully-gated instruction each candidate
// source hands to the Executor once every upstream check has passed.
type OrderRequest struct {
	Ticker           string
	Mode             autotrader.TradeMode
	Side             autotrader.Side
	EntryPrice       *float64
	StopLoss         *float64
	TargetPrice      *float64
	TargetPrice2     *float64
	RiskReward       *string
	Quantity         float64
	PositionSize     float64
	Source           autotrader.EventSource
	StrategySource   *string
	StrategyURL      *string
	StrategyVideoID  *string
	StrategyVideoHdg *string
	ScannerConf      *float64
	FAConfidence     *float64
	FARecommendation *string
	// NotesPrefix, when set, is prepended to the persisted ledger row's notes
	// (e.g. a suggested-find's "Gold Mine"/"Steady Compounder" tag) so later
	// consumers like PositionManager can recover classification from the row.
	NotesPrefix *string
}

// Executor places the order and persists the resulting ledger trade. It is
// satisfied by the executor package; candidates never talks to the broker or
// the trade repository directly.
type Executor interface {
	Execute(req OrderRequest) (tradeID string, err error)
}
