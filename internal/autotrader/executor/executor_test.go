package executor

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantedge/scheduler-core/internal/autotrader"
	"github.com/quantedge/scheduler-core/internal/autotrader/candidates"
)

type fakeBroker struct {
	contract *autotrader.ContractHandle
	bracketCalls []autotrader.BracketOrderRequest
	marketCalls  []autotrader.MarketOrderRequest
}

func (f *fakeBroker) SearchContract(ticker string) (*autotrader.ContractHandle, error) {
	return f.contract, nil
}

func (f *fakeBroker) PlaceBracket(req autotrader.BracketOrderRequest) (*autotrader.BrokerOrderResult, error) {
	f.bracketCalls = append(f.bracketCalls, req)
	return &autotrader.BrokerOrderResult{ParentOrderID: "parent-1"}, nil
}

func (f *fakeBroker) PlaceMarket(req autotrader.MarketOrderRequest) (*autotrader.BrokerOrderResult, error) {
	f.marketCalls = append(f.marketCalls, req)
	return &autotrader.BrokerOrderResult{OrderID: "mkt-1"}, nil
}

type fakeLedger struct{ created []autotrader.Trade }

func (f *fakeLedger) Create(t autotrader.Trade) error {
	f.created = append(f.created, t)
	return nil
}

type fakeEvents struct{ appended []autotrader.AutoTradeEvent }

func (f *fakeEvents) Append(e autotrader.AutoTradeEvent) error {
	f.appended = append(f.appended, e)
	return nil
}

type fakeTracker struct{ recorded float64 }

func (f *fakeTracker) RecordPendingOrder(dollarSize float64) { f.recorded += dollarSize }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func ptrF(v float64) *float64 { return &v }

func TestExecute_PlacesBracketWhenAllLevelsPresent(t *testing.T) {
	broker := &fakeBroker{contract: &autotrader.ContractHandle{ContractID: "c1"}}
	ledger := &fakeLedger{}
	events := &fakeEvents{}
	tracker := &fakeTracker{}
	e := &Executor{
		Broker: broker, Ledger: ledger, Events: events, Deployed: tracker,
		NewID: func() string { return "trade-1" }, Clock: fixedClock{t: time.Unix(1000, 0)}, Log: zerolog.Nop(),
	}

	req := candidates.OrderRequest{
		Ticker: "ABC", Mode: autotrader.ModeSwingTrade, Side: autotrader.SideBuy,
		EntryPrice: ptrF(100), StopLoss: ptrF(95), TargetPrice: ptrF(115),
		Quantity: 10, PositionSize: 1000, Source: autotrader.SourceScanner,
	}
	tradeID, err := e.Execute(req)
	require.NoError(t, err)
	assert.Equal(t, "trade-1", tradeID)
	require.Len(t, broker.bracketCalls, 1)
	assert.Equal(t, autotrader.TIFGTC, broker.bracketCalls[0].TIF)
	require.Len(t, ledger.created, 1)
	assert.Equal(t, autotrader.EntryBracketLmt, ledger.created[0].EntryTriggerType)
	assert.Equal(t, 1000.0, tracker.recorded)
	require.Len(t, events.appended, 1)
	assert.Equal(t, autotrader.ActionExecuted, events.appended[0].Action)
}

func TestExecute_PlacesMarketWhenLevelsIncomplete(t *testing.T) {
	broker := &fakeBroker{contract: &autotrader.ContractHandle{ContractID: "c1"}}
	e := &Executor{
		Broker: broker, Ledger: &fakeLedger{}, Events: &fakeEvents{}, Deployed: &fakeTracker{},
		NewID: func() string { return "trade-2" }, Clock: fixedClock{t: time.Unix(1000, 0)}, Log: zerolog.Nop(),
	}

	req := candidates.OrderRequest{Ticker: "XYZ", Mode: autotrader.ModeLongTerm, Side: autotrader.SideBuy, Quantity: 5, PositionSize: 500}
	_, err := e.Execute(req)
	require.NoError(t, err)
	require.Len(t, broker.marketCalls, 1)
	assert.Empty(t, broker.bracketCalls)
}

func TestExecute_ContractLookupFailureAppendsFailedEvent(t *testing.T) {
	broker := &fakeBroker{contract: nil}
	events := &fakeEvents{}
	e := &Executor{
		Broker: broker, Ledger: &fakeLedger{}, Events: events, Deployed: &fakeTracker{},
		NewID: func() string { return "trade-3" }, Clock: fixedClock{t: time.Unix(1000, 0)}, Log: zerolog.Nop(),
	}

	_, err := e.Execute(candidates.OrderRequest{Ticker: "ABC", Quantity: 1, PositionSize: 100})
	require.Error(t, err)
	require.Len(t, events.appended, 1)
	assert.Equal(t, autotrader.ActionFailed, events.appended[0].Action)
}

func TestNotesFor_PrependsTagToReason(t *testing.T) {
	tag := "Gold Mine"
	reason := "undervalued miner"
	req := candidates.OrderRequest{NotesPrefix: &tag, StrategySource: &reason}
	assert.Equal(t, "Gold Mine: undervalued miner", notesFor(req))
}
