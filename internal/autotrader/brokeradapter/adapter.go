// Package brokeradapter adapts internal/clients/tradernet's API surface onto
// autotrader.BrokerClient. The Tradernet API has no notion of bracket
// orders, contract handles, or order cancellation — all three are
// approximated here, with the approximation named explicitly rather than
// silently passed through.
package brokeradapter

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
	"github.com/quantedge/scheduler-core/internal/clients/tradernet"
)

// TradernetClient is the narrow slice of *tradernet.Client this adapter needs.
type TradernetClient interface {
	IsConnected() bool
	GetPortfolio() ([]tradernet.Position, error)
	FindSymbol(symbol string, exchange *string) ([]tradernet.SecurityInfo, error)
	PlaceOrder(symbol, side string, quantity float64) (*tradernet.OrderResult, error)
}

// Adapter implements autotrader.BrokerClient over a Tradernet client.
//
// PlaceBracket places only the parent entry leg: Tradernet's SDK exposes no
// OCO/bracket primitive, so no stop-loss or take-profit order reaches the
// broker. The Executor records both prices on the ledger trade; nothing in
// this core places or triggers the exit legs, and the Reconciler only uses
// them to infer a close reason once the position has disappeared.
// CancelOrder is a documented no-op for the same reason — there is nothing
// in the SDK surface to call.
type Adapter struct {
	client TradernetClient
	log    zerolog.Logger

	mu        sync.Mutex
	lastConn  bool
	callbacks []func(bool)
}

// New builds an Adapter wrapping client.
func New(client TradernetClient, log zerolog.Logger) *Adapter {
	return &Adapter{
		client: client,
		log:    log.With().Str("component", "broker_adapter").Logger(),
	}
}

func (a *Adapter) IsConnected() bool {
	connected := a.client.IsConnected()

	a.mu.Lock()
	changed := connected != a.lastConn
	a.lastConn = connected
	cbs := append([]func(bool){}, a.callbacks...)
	a.mu.Unlock()

	if changed {
		for _, cb := range cbs {
			cb(connected)
		}
	}
	return connected
}

// OnConnectionChange registers cb to be invoked whenever a subsequent
// IsConnected() call observes a different connection state than the last
// one observed. There is no push-based connection event in the Tradernet
// SDK, so this is polled on whatever cadence the caller invokes IsConnected.
func (a *Adapter) OnConnectionChange(cb func(connected bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, cb)
}

func (a *Adapter) RequestPositions() ([]autotrader.EnrichedPosition, error) {
	positions, err := a.client.GetPortfolio()
	if err != nil {
		return nil, fmt.Errorf("request positions: %w", err)
	}
	out := make([]autotrader.EnrichedPosition, 0, len(positions))
	for _, p := range positions {
		out = append(out, autotrader.EnrichedPosition{
			Symbol:        p.Symbol,
			Position:      p.Quantity,
			AvgCost:       p.AvgPrice,
			MktPrice:      p.CurrentPrice,
			MktValue:      p.MarketValue,
			UnrealizedPnL: p.UnrealizedPnL,
		})
	}
	return out, nil
}

func (a *Adapter) SearchContract(ticker string) (*autotrader.ContractHandle, error) {
	matches, err := a.client.FindSymbol(ticker, nil)
	if err != nil {
		return nil, fmt.Errorf("search contract %s: %w", ticker, err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	m := matches[0]
	exchange := ""
	if m.ExchangeCode != nil {
		exchange = *m.ExchangeCode
	}
	return &autotrader.ContractHandle{ContractID: m.Symbol, Symbol: m.Symbol, Exchange: exchange}, nil
}

func (a *Adapter) PlaceBracket(req autotrader.BracketOrderRequest) (*autotrader.BrokerOrderResult, error) {
	a.log.Warn().Str("symbol", req.Symbol).Msg("placing entry-only order; Tradernet SDK has no bracket/OCO primitive")
	result, err := a.client.PlaceOrder(req.Symbol, string(req.Side), req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("place bracket entry %s: %w", req.Symbol, err)
	}
	return &autotrader.BrokerOrderResult{ParentOrderID: result.OrderID, Status: "submitted"}, nil
}

func (a *Adapter) PlaceMarket(req autotrader.MarketOrderRequest) (*autotrader.BrokerOrderResult, error) {
	result, err := a.client.PlaceOrder(req.Symbol, string(req.Side), req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("place market order %s: %w", req.Symbol, err)
	}
	return &autotrader.BrokerOrderResult{OrderID: result.OrderID, Status: "submitted"}, nil
}

// CancelOrder is unsupported by the underlying SDK; it logs and returns nil
// so the swing-bracket-expiry path (§4.2 decision 3) still marks the ledger
// row CLOSED even though the broker-side order may still be resting.
func (a *Adapter) CancelOrder(orderID string) error {
	a.log.Warn().Str("order_id", orderID).Msg("cancel requested but unsupported by Tradernet SDK; ledger will close regardless")
	return nil
}
