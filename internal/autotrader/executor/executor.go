// Package executor places broker orders for gated candidates and persists
// the resulting ledger trade, implementing C8. It is the only component
// that talks to the broker's order-placement primitives.
package executor

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
	"github.com/quantedge/scheduler-core/internal/autotrader/candidates"
)

// BrokerGateway is the narrow broker slice the Executor needs.
type BrokerGateway interface {
	SearchContract(ticker string) (*autotrader.ContractHandle, error)
	PlaceBracket(req autotrader.BracketOrderRequest) (*autotrader.BrokerOrderResult, error)
	PlaceMarket(req autotrader.MarketOrderRequest) (*autotrader.BrokerOrderResult, error)
}

// LedgerStore is the narrow trade-repository slice the Executor needs.
type LedgerStore interface {
	Create(t autotrader.Trade) error
}

// EventStore is the narrow event-repository slice the Executor needs.
type EventStore interface {
	Append(e autotrader.AutoTradeEvent) error
}

// DeploymentTracker is told the dollar size of every order the Executor
// places. The Orchestrator keeps pendingDeployedDollar and dailyDeployedDollar
// itself, from each processor's Outcome.Deployed; cmd/autotrader wires the
// metrics deployed-dollars counter here.
type DeploymentTracker interface {
	RecordPendingOrder(dollarSize float64)
}

// IDGenerator produces a new unique identifier for a ledger row / event row.
type IDGenerator func() string

// Executor implements candidates.Executor: given a fully-sized, fully-gated
// OrderRequest, it resolves the broker contract, places the order, persists
// the ledger trade, records deployment, and emits the audit event.
type Executor struct {
	Broker   BrokerGateway
	Ledger   LedgerStore
	Events   EventStore
	Deployed DeploymentTracker
	NewID    IDGenerator
	Clock    autotrader.Clock
	Log      zerolog.Logger
}

// Execute implements candidates.Executor.
func (e *Executor) Execute(req candidates.OrderRequest) (string, error) {
	contract, err := e.Broker.SearchContract(req.Ticker)
	if err != nil || contract == nil {
		e.recordFailure(req, "contract lookup failed")
		return "", fmt.Errorf("search contract %s: %w", req.Ticker, err)
	}

	hasFullBracket := req.EntryPrice != nil && req.StopLoss != nil && req.TargetPrice != nil

	var result *autotrader.BrokerOrderResult
	var trigger autotrader.EntryTriggerType
	if hasFullBracket {
		tif := autotrader.TIFGTC
		if req.Mode == autotrader.ModeDayTrade {
			tif = autotrader.TIFDay
		}
		result, err = e.Broker.PlaceBracket(autotrader.BracketOrderRequest{
			Symbol: req.Ticker, Side: req.Side, Quantity: req.Quantity,
			EntryPrice: *req.EntryPrice, StopLoss: *req.StopLoss, TakeProfit: *req.TargetPrice, TIF: tif,
		})
		trigger = autotrader.EntryBracketLmt
	} else {
		result, err = e.Broker.PlaceMarket(autotrader.MarketOrderRequest{Symbol: req.Ticker, Side: req.Side, Quantity: req.Quantity})
		trigger = autotrader.EntryMarket
	}
	if err != nil {
		e.recordFailure(req, err.Error())
		return "", fmt.Errorf("place order for %s: %w", req.Ticker, err)
	}

	now := e.Clock.Now()
	notes := notesFor(req)
	trade := autotrader.Trade{
		ID: e.NewID(), Ticker: req.Ticker, Mode: req.Mode, Signal: req.Side,
		StrategySource: req.StrategySource, StrategyURL: req.StrategyURL,
		StrategyVideoID: req.StrategyVideoID, StrategyVideoHdg: req.StrategyVideoHdg,
		ScannerConfidence: req.ScannerConf, FAConfidence: req.FAConfidence, FARecommendation: req.FARecommendation,
		EntryPrice: req.EntryPrice, StopLoss: req.StopLoss, TargetPrice: req.TargetPrice, TargetPrice2: req.TargetPrice2,
		RiskReward: req.RiskReward, Quantity: req.Quantity, PositionSize: req.PositionSize,
		Status: autotrader.StatusSubmitted, OpenedAt: now, EntryTriggerType: trigger, Notes: notes,
	}
	if result != nil {
		orderID := result.OrderID
		if result.ParentOrderID != "" {
			orderID = result.ParentOrderID
		}
		trade.BrokerOrderID = &orderID
	}

	if err := e.Ledger.Create(trade); err != nil {
		return "", fmt.Errorf("persist trade for %s: %w", req.Ticker, err)
	}

	e.Deployed.RecordPendingOrder(req.PositionSize)
	e.appendEvent(req, autotrader.EventSuccess, autotrader.ActionExecuted, fmt.Sprintf("executed %s %s x%.0f", req.Side, req.Ticker, req.Quantity))

	return trade.ID, nil
}

func notesFor(req candidates.OrderRequest) string {
	if req.NotesPrefix == nil || *req.NotesPrefix == "" {
		return ""
	}
	var reason string
	if req.StrategySource != nil {
		reason = *req.StrategySource
	}
	if reason == "" {
		return *req.NotesPrefix
	}
	return strings.TrimSpace(*req.NotesPrefix + ": " + reason)
}

func (e *Executor) recordFailure(req candidates.OrderRequest, reason string) {
	e.appendEvent(req, autotrader.EventError, autotrader.ActionFailed, reason)
}

func (e *Executor) appendEvent(req candidates.OrderRequest, eventType autotrader.EventType, action autotrader.EventAction, message string) {
	if err := e.Events.Append(autotrader.AutoTradeEvent{
		ID: e.NewID(), Ticker: req.Ticker, EventType: eventType, Action: action,
		Source: req.Source, Mode: req.Mode, Message: message, CreatedAt: e.Clock.Now(),
	}); err != nil {
		e.Log.Warn().Err(err).Str("ticker", req.Ticker).Msg("append executor event failed")
	}
}
