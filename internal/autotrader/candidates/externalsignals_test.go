package candidates

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantedge/scheduler-core/internal/autotrader"
)

type fakeDueSignalStore struct {
	*fakeSignalStore
	due     []autotrader.ExternalStrategySignal
	updated []autotrader.ExternalStrategySignal
}

func (f *fakeDueSignalStore) DueToday(todayET string) ([]autotrader.ExternalStrategySignal, error) {
	return f.due, nil
}

func (f *fakeDueSignalStore) Update(s autotrader.ExternalStrategySignal) error {
	f.updated = append(f.updated, s)
	return nil
}

type fakeQuotes struct{ price *float64 }

func (f *fakeQuotes) GetQuote(ticker string) (*float64, error) { return f.price, nil }

func TestExternalSignalProcessor_ExecutesDueSignalWithSuppliedLevels(t *testing.T) {
	signals := &fakeDueSignalStore{fakeSignalStore: &fakeSignalStore{}}
	quote := 100.0
	signals.due = []autotrader.ExternalStrategySignal{
		{ID: "s1", SourceName: "yt", Ticker: "ABC", Signal: autotrader.SideBuy, Mode: autotrader.ModeSwingTrade,
			EntryPrice: ptrF(100), StopLoss: ptrF(95), TargetPrice: ptrF(115), ExecuteOnDate: "2026-07-30",
			Status: autotrader.SignalPending, CreatedAt: time.Unix(1000, 0)},
	}
	cfg := autotrader.DefaultAutoTraderConfig()
	cfg.UseDynamicSizing = false
	cfg.PositionSize = 500
	exec := &fakeExecutor{}

	p := &ExternalSignalProcessor{
		Config: cfg, Signals: signals, Quotes: &fakeQuotes{price: &quote},
		Active: &fakeActive{active: map[string]bool{}}, Risk: allowAllRisk{}, Exec: exec,
		Clock: fixedQClock{t: time.Unix(2000, 0)}, Log: zerolog.Nop(),
	}

	out := p.Process("2026-07-30", autotrader.DrawdownAssessment{Multiplier: 1.0}, 0, 0, nil)
	require.Len(t, out.Executed, 1)
	require.Len(t, signals.updated, 1)
	assert.Equal(t, autotrader.SignalExecuted, signals.updated[0].Status)
}

func TestExternalSignalProcessor_DefersWhenQuoteMissing(t *testing.T) {
	signals := &fakeDueSignalStore{fakeSignalStore: &fakeSignalStore{}}
	signals.due = []autotrader.ExternalStrategySignal{
		{ID: "s1", SourceName: "yt", Ticker: "ABC", Signal: autotrader.SideBuy, Mode: autotrader.ModeSwingTrade,
			EntryPrice: ptrF(100), StopLoss: ptrF(95), TargetPrice: ptrF(115), ExecuteOnDate: "2026-07-30",
			Status: autotrader.SignalPending, CreatedAt: time.Unix(1000, 0)},
	}
	cfg := autotrader.DefaultAutoTraderConfig()
	exec := &fakeExecutor{}
	p := &ExternalSignalProcessor{
		Config: cfg, Signals: signals, Quotes: &fakeQuotes{price: nil},
		Active: &fakeActive{active: map[string]bool{}}, Risk: allowAllRisk{}, Exec: exec,
		Clock: fixedQClock{t: time.Unix(2000, 0)}, Log: zerolog.Nop(),
	}

	out := p.Process("2026-07-30", autotrader.DrawdownAssessment{Multiplier: 1.0}, 0, 0, nil)
	assert.Empty(t, out.Executed)
	assert.Equal(t, 1, out.Skipped["waiting_no_quote"])
}

func TestExternalSignalProcessor_ExpiresPastDeadline(t *testing.T) {
	signals := &fakeDueSignalStore{fakeSignalStore: &fakeSignalStore{}}
	past := time.Unix(100, 0)
	signals.due = []autotrader.ExternalStrategySignal{
		{ID: "s1", SourceName: "yt", Ticker: "ABC", Signal: autotrader.SideBuy, Mode: autotrader.ModeSwingTrade,
			ExpiresAt: &past, ExecuteOnDate: "2026-07-30", Status: autotrader.SignalPending, CreatedAt: time.Unix(50, 0)},
	}
	p := &ExternalSignalProcessor{
		Config: autotrader.DefaultAutoTraderConfig(), Signals: signals,
		Active: &fakeActive{active: map[string]bool{}}, Risk: allowAllRisk{}, Exec: &fakeExecutor{},
		Clock: fixedQClock{t: time.Unix(2000, 0)}, Log: zerolog.Nop(),
	}

	out := p.Process("2026-07-30", autotrader.DrawdownAssessment{Multiplier: 1.0}, 0, 0, nil)
	assert.Equal(t, 1, out.Expired)
	require.Len(t, signals.updated, 1)
	assert.Equal(t, autotrader.SignalExpired, signals.updated[0].Status)
}

