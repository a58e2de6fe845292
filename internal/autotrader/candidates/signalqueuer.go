package candidates

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
	"github.com/quantedge/scheduler-core/internal/autotrader/clients"
)

const genericStrategyNotePrefix = "Generic strategy auto"

// SignalWriter is the narrow SignalRepository slice SignalQueuer needs.
type SignalWriter interface {
	FindExisting(sourceName, ticker string, signal autotrader.Side, mode autotrader.TradeMode, executeOnDate string, videoID *string) (*autotrader.ExternalStrategySignal, error)
	Create(s autotrader.ExternalStrategySignal) error
}

// IDGenerator produces a new unique identifier for a signal row.
type IDGenerator func() string

// SignalQueuer implements C4: the daily-signal and generic-strategy queuing paths.
type SignalQueuer struct {
	Config autotrader.AutoTraderConfig
	Signals SignalWriter
	NewID  IDGenerator
	Clock  autotrader.Clock
	Log    zerolog.Logger
}

// QueueResult reports how many signals each path inserted.
type QueueResult struct {
	DailyInserted   int
	GenericInserted int
	ClaimedTickers  map[string]bool
}

// QueueDailySignals implements the daily-signal path: one BUY/SELL signal per
// extracted setup on every tracked video whose tradeDate is today (ET).
func (q *SignalQueuer) QueueDailySignals(videos []autotrader.StrategyVideo, todayET string) int {
	inserted := 0

	for _, v := range videos {
		if v.TradeDate == nil || *v.TradeDate != todayET || len(v.ExtractedSignals) == 0 {
			continue
		}
		mode := v.Timeframe
		if mode == "" {
			mode = autotrader.ModeDayTrade
		}
		source := sourceNameOf(v)

		for _, sig := range v.ExtractedSignals {
			if sig.LongTriggerAbove != nil && len(sig.LongTargets) > 0 {
				if q.insertIfNew(source, sig.Ticker, autotrader.SideBuy, mode, todayET, &v.VideoID, &v.VideoHeading, sig.LongTriggerAbove, sig.ShortTriggerBelow, &sig.LongTargets[0]) {
					inserted++
				}
			}
			if sig.ShortTriggerBelow != nil && len(sig.ShortTargets) > 0 {
				if q.insertIfNew(source, sig.Ticker, autotrader.SideSell, mode, todayET, &v.VideoID, &v.VideoHeading, sig.ShortTriggerBelow, sig.LongTriggerAbove, &sig.ShortTargets[0]) {
					inserted++
				}
			}
		}
	}
	return inserted
}

func (q *SignalQueuer) insertIfNew(source, ticker string, side autotrader.Side, mode autotrader.TradeMode, todayET string, videoID *string, videoHeading *string, entry, stop, target *float64) bool {
	existing, err := q.Signals.FindExisting(source, ticker, side, mode, todayET, videoID)
	if err != nil {
		q.Log.Warn().Err(err).Str("ticker", ticker).Msg("find existing signal failed")
		return false
	}
	if existing != nil {
		return false
	}

	s := autotrader.ExternalStrategySignal{
		ID: q.NewID(), SourceName: source, StrategyVideoID: videoID, StrategyVideoHeading: videoHeading,
		Ticker: ticker, Signal: side, Mode: mode, Confidence: 8,
		EntryPrice: entry, StopLoss: stop, TargetPrice: target,
		ExecuteOnDate: todayET, Status: autotrader.SignalPending, CreatedAt: q.Clock.Now(),
	}
	if err := q.Signals.Create(s); err != nil {
		q.Log.Warn().Err(err).Str("ticker", ticker).Msg("create daily signal failed")
		return false
	}
	return true
}

// QueueGenericStrategies implements the generic-strategy path: scanner ideas
// above the confidence floor are queued against every applicable generic video,
// per (ticker, timeframe). Returns the set of tickers claimed for the cycle.
func (q *SignalQueuer) QueueGenericStrategies(ideas []clients.TradeIdea, genericVideos map[autotrader.TradeMode][]autotrader.StrategyVideo, activeTickers map[string]bool, todayET string) QueueResult {
	result := QueueResult{ClaimedTickers: map[string]bool{}}

	byTimeframe := map[autotrader.TradeMode][]clients.TradeIdea{}
	for _, idea := range ideas {
		if idea.Confidence < q.Config.MinScannerConfidence {
			continue
		}
		mode := autotrader.TradeMode(idea.Mode)
		if mode != autotrader.ModeDayTrade && mode != autotrader.ModeSwingTrade {
			continue
		}
		byTimeframe[mode] = append(byTimeframe[mode], idea)
	}

	for mode, tfIdeas := range byTimeframe {
		sort.SliceStable(tfIdeas, func(i, j int) bool { return tfIdeas[i].Confidence > tfIdeas[j].Confidence })
		videos := genericVideos[mode]

		for _, idea := range tfIdeas {
			if activeTickers[idea.Ticker] {
				continue
			}
			confidence := clampConfidence(idea.Confidence)
			claimedAny := false
			for _, v := range videos {
				source := sourceNameOf(v)
				existing, err := q.Signals.FindExisting(source, idea.Ticker, autotrader.Side(idea.Signal), mode, todayET, &v.VideoID)
				if err != nil {
					q.Log.Warn().Err(err).Str("ticker", idea.Ticker).Msg("find existing generic signal failed")
					continue
				}
				if existing != nil {
					claimedAny = true
					continue
				}
				s := autotrader.ExternalStrategySignal{
					ID: q.NewID(), SourceName: source, StrategyVideoID: &v.VideoID, StrategyVideoHeading: &v.VideoHeading,
					Ticker: idea.Ticker, Signal: autotrader.Side(idea.Signal), Mode: mode, Confidence: confidence,
					ExecuteOnDate: todayET, Status: autotrader.SignalPending, CreatedAt: q.Clock.Now(),
					Notes: fmt.Sprintf("%s (scanner confidence %.1f)", genericStrategyNotePrefix, idea.Confidence),
				}
				if err := q.Signals.Create(s); err != nil {
					q.Log.Warn().Err(err).Str("ticker", idea.Ticker).Msg("create generic signal failed")
					continue
				}
				claimedAny = true
				result.GenericInserted++
			}
			if claimedAny {
				result.ClaimedTickers[idea.Ticker] = true
			}
		}
	}
	return result
}

func sourceNameOf(v autotrader.StrategyVideo) string {
	if v.SourceName != nil {
		return *v.SourceName
	}
	if v.SourceHandle != nil {
		return *v.SourceHandle
	}
	return "unknown"
}

func clampConfidence(c float64) int {
	v := int(c + 0.5)
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
