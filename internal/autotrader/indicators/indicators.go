// Package indicators computes the small set of collect-only technical
// indicators the swing entry log and suggested-finds regime check need,
// wrapping go-talib over a slice of daily closes.
package indicators

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/quantedge/scheduler-core/internal/autotrader/clients"
)

// Regime is the broad-market alignment label (§4.2.1).
type Regime string

const (
	RegimeAboveBoth Regime = "above_both"
	RegimeBelowBoth Regime = "below_both"
	RegimeMixed     Regime = "mixed"
)

// SwingEntryMetrics mirrors reconciler.EntryLogMetrics; kept as a separate
// type so this package has no dependency on reconciler.
type SwingEntryMetrics struct {
	DistanceToMA20Pct float64
	MACDHistIncr      bool
	VolumeVsAvg10Pct  float64
	RegimeAlignment   string
}

// DailyBars computes the swing entry log metrics from bars ending today and
// the broad-market bars used for regime alignment (§4.2.1).
func DailyBars(fillPrice float64, bars []clients.Bar, broadMarketBars []clients.Bar) (SwingEntryMetrics, error) {
	if len(bars) < 26 {
		return SwingEntryMetrics{}, fmt.Errorf("need at least 26 bars, got %d", len(bars))
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	ma20 := talib.Sma(closes, 20)
	lastMA20 := ma20[len(ma20)-1]
	var distancePct float64
	if lastMA20 != 0 {
		distancePct = (fillPrice - lastMA20) / lastMA20 * 100
	}

	_, _, hist := talib.Macd(closes, 12, 26, 9)
	increasing := false
	if len(hist) >= 2 {
		increasing = hist[len(hist)-1] > hist[len(hist)-2]
	}

	avgVol10 := talib.Sma(volumes, 10)
	lastAvgVol10 := avgVol10[len(avgVol10)-1]
	var volRatioPct float64
	if lastAvgVol10 != 0 {
		volRatioPct = volumes[len(volumes)-1] / lastAvgVol10 * 100
	}

	regime := string(BroadMarketRegime(broadMarketBars))

	return SwingEntryMetrics{
		DistanceToMA20Pct: distancePct,
		MACDHistIncr:      increasing,
		VolumeVsAvg10Pct:  volRatioPct,
		RegimeAlignment:   regime,
	}, nil
}

// BroadMarketRegime classifies a broad-market symbol against its 50-day and
// 200-day moving averages. Returns RegimeMixed if there are too few bars to
// compute the 200-day average.
func BroadMarketRegime(bars []clients.Bar) Regime {
	if len(bars) < 200 {
		return RegimeMixed
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	last := closes[len(closes)-1]
	ma50 := talib.Sma(closes, 50)
	ma200 := talib.Sma(closes, 200)
	above50 := last > ma50[len(ma50)-1]
	above200 := last > ma200[len(ma200)-1]

	switch {
	case above50 && above200:
		return RegimeAboveBoth
	case !above50 && !above200:
		return RegimeBelowBoth
	default:
		return RegimeMixed
	}
}

// BelowTwoHundredDayMean reports whether the broad-market symbol's latest
// close sits below its 200-day moving average (the Gold Mine macro block).
func BelowTwoHundredDayMean(bars []clients.Bar) (bool, error) {
	if len(bars) < 200 {
		return false, fmt.Errorf("need at least 200 bars, got %d", len(bars))
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	ma200 := talib.Sma(closes, 200)
	last := closes[len(closes)-1]
	return last < ma200[len(ma200)-1], nil
}
