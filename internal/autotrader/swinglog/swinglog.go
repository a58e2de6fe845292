// Package swinglog adapts internal/autotrader/indicators onto
// reconciler.SwingEntryLogger, fetching the daily bars a fresh swing fill
// needs and translating indicators.SwingEntryMetrics into the reconciler's
// own EntryLogMetrics type (the two packages deliberately don't share a
// type so neither depends on the other).
package swinglog

import (
	"fmt"
	"time"

	"github.com/quantedge/scheduler-core/internal/autotrader/clients"
	"github.com/quantedge/scheduler-core/internal/autotrader/indicators"
	"github.com/quantedge/scheduler-core/internal/autotrader/reconciler"
)

const barsLookback = 220 // enough trailing history for the 200-day regime check

// Logger computes the swing entry log from a bars client and a broad-market
// symbol, grounded on indicators.DailyBars/BroadMarketRegime.
type Logger struct {
	Bars        clients.BarsClient
	BroadMarket string
}

// New builds a Logger.
func New(bars clients.BarsClient, broadMarketSymbol string) *Logger {
	return &Logger{Bars: bars, BroadMarket: broadMarketSymbol}
}

// Compute implements reconciler.SwingEntryLogger.
func (l *Logger) Compute(ticker string, at time.Time) (reconciler.EntryLogMetrics, error) {
	bars, err := l.Bars.GetDailyBars(ticker, barsLookback)
	if err != nil {
		return reconciler.EntryLogMetrics{}, fmt.Errorf("fetch bars for %s: %w", ticker, err)
	}
	if len(bars) == 0 {
		return reconciler.EntryLogMetrics{}, fmt.Errorf("no bars for %s", ticker)
	}
	fillPrice := bars[len(bars)-1].Close

	broadBars, err := l.Bars.GetDailyBars(l.BroadMarket, barsLookback)
	if err != nil {
		return reconciler.EntryLogMetrics{}, fmt.Errorf("fetch broad market bars: %w", err)
	}

	m, err := indicators.DailyBars(fillPrice, bars, broadBars)
	if err != nil {
		return reconciler.EntryLogMetrics{}, err
	}
	return reconciler.EntryLogMetrics{
		DistanceToMA20Pct: m.DistanceToMA20Pct,
		MACDHistIncr:      m.MACDHistIncr,
		VolumeVsAvg10Pct:  m.VolumeVsAvg10Pct,
		RegimeAlignment:   m.RegimeAlignment,
	}, nil
}
