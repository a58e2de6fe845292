package candidates

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
	"github.com/quantedge/scheduler-core/internal/autotrader/clients"
	"github.com/quantedge/scheduler-core/internal/autotrader/riskgate"
	"github.com/quantedge/scheduler-core/internal/autotrader/sizer"
)

// SignalStore is the narrow SignalRepository slice the processor needs beyond SignalWriter.
type SignalStore interface {
	SignalWriter
	Update(s autotrader.ExternalStrategySignal) error
	DueToday(todayET string) ([]autotrader.ExternalStrategySignal, error)
}

// DeactivationCheck reports consecutive-loss-day auto-deactivation independent
// of sizing, used to short-circuit before any analysis/quote calls are made.
// riskgate.Gate satisfies this directly.
type DeactivationCheck interface {
	IsAutoDeactivated(scope riskgate.ScopeKey) (bool, error)
}

// VideoLookup resolves a tracked video by ID for execution-window and generic-strategy checks.
type VideoLookup interface {
	ByID(videoID string) (*autotrader.StrategyVideo, error)
}

// ExternalSignalProcessor implements §4.3.3: executes due external strategy signals.
type ExternalSignalProcessor struct {
	Config      autotrader.AutoTraderConfig
	Signals     SignalStore
	Videos      VideoLookup
	Analysis    clients.AnalysisClient
	Quotes      clients.QuoteClient
	Active      ActiveTickerCheck
	ActiveModes func(ticker string) ([]autotrader.Trade, error)
	Deactivated DeactivationCheck
	Risk        RiskEvaluator
	Exec        Executor
	Clock       autotrader.Clock
	Log         zerolog.Logger
}

// ExternalSignalOutcome tallies execution/defer/expire counts for a cycle.
type ExternalSignalOutcome struct {
	Executed []string
	Deployed float64 // sum of PositionSize across Executed
	Deferred int
	Expired  int
	Skipped  map[string]int
}

// Process evaluates every due signal, applying generic-strategy allocation
// splits before executing each one independently.
func (p *ExternalSignalProcessor) Process(todayET string, drawdown autotrader.DrawdownAssessment, pendingDeployed, dailyDeployedSoFar float64, positions []autotrader.EnrichedPosition) ExternalSignalOutcome {
	out := ExternalSignalOutcome{Skipped: map[string]int{}}

	due, err := p.Signals.DueToday(todayET)
	if err != nil {
		p.Log.Warn().Err(err).Msg("fetch due signals failed")
		return out
	}

	now := p.Clock.Now()
	ready := make([]autotrader.ExternalStrategySignal, 0, len(due))
	for _, s := range due {
		video := p.videoOf(s)

		if s.ExpiresAt != nil && s.ExpiresAt.Before(now) {
			p.expire(s, "expired before execution", &out)
			continue
		}
		if s.ExecuteAt != nil && s.ExecuteAt.After(now) {
			out.Deferred++
			continue
		}
		if video != nil && video.ExecutionWindowET != nil {
			within, err := autotrader.WithinExecutionWindow(now, video.ExecutionWindowET)
			if err == nil && !within {
				if past, _ := autotrader.IsPastExecutionWindow(now, video.ExecutionWindowET); past {
					p.expire(s, "execution window closed", &out)
					continue
				}
				out.Deferred++
				continue
			}
		}
		ready = append(ready, s)
	}

	p.applyAllocationSplit(ready)

	deployed := pendingDeployed
	for _, s := range ready {
		req, skipReason := p.gateOne(s, drawdown, deployed, dailyDeployedSoFar, positions)
		if skipReason != "" {
			out.Skipped[skipReason]++
			if strings.HasPrefix(skipReason, "waiting_") {
				// Entry condition not met yet: the signal stays PENDING for a later Cycle.
				continue
			}
			p.markFailed(s, skipReason)
			continue
		}
		tradeID, err := p.Exec.Execute(*req)
		if err != nil {
			out.Skipped["execute_error"]++
			s.Status = autotrader.SignalFailed
			reason := err.Error()
			s.FailureReason = &reason
			if err := p.Signals.Update(s); err != nil {
				p.Log.Warn().Err(err).Str("signal_id", s.ID).Msg("mark-failed signal update failed")
			}
			continue
		}
		deployed += req.PositionSize
		dailyDeployedSoFar += req.PositionSize
		s.Status = autotrader.SignalExecuted
		s.ExecutedTradeID = &tradeID
		execAt := p.Clock.Now()
		s.ExecutedAt = &execAt
		if err := p.Signals.Update(s); err != nil {
			p.Log.Warn().Err(err).Str("signal_id", s.ID).Msg("update executed signal failed")
		}
		out.Executed = append(out.Executed, tradeID)
		out.Deployed += req.PositionSize
	}
	return out
}

func (p *ExternalSignalProcessor) expire(s autotrader.ExternalStrategySignal, reason string, out *ExternalSignalOutcome) {
	s.Status = autotrader.SignalExpired
	s.FailureReason = &reason
	if err := p.Signals.Update(s); err != nil {
		p.Log.Warn().Err(err).Str("signal_id", s.ID).Msg("expire signal failed")
	}
	out.Expired++
}

func (p *ExternalSignalProcessor) markFailed(s autotrader.ExternalStrategySignal, reason string) {
	s.Status = autotrader.SignalSkipped
	s.FailureReason = &reason
	if err := p.Signals.Update(s); err != nil {
		p.Log.Warn().Err(err).Str("signal_id", s.ID).Msg("mark-failed signal update failed")
	}
}

func (p *ExternalSignalProcessor) videoOf(s autotrader.ExternalStrategySignal) *autotrader.StrategyVideo {
	if s.StrategyVideoID == nil || p.Videos == nil {
		return nil
	}
	v, err := p.Videos.ByID(*s.StrategyVideoID)
	if err != nil {
		return nil
	}
	return v
}

func (p *ExternalSignalProcessor) isGeneric(s autotrader.ExternalStrategySignal) bool {
	if strings.HasPrefix(strings.ToLower(s.Notes), "generic strategy auto") {
		return true
	}
	video := p.videoOf(s)
	return video != nil && video.StrategyType == autotrader.StrategyGenericStrategy
}

type splitGroupKey struct {
	ticker, mode, signal, executeOnDate string
}

// applyAllocationSplit groups due generic signals by (ticker, mode, signal,
// executeOnDate) and attaches split factors in place (§4.3.3).
func (p *ExternalSignalProcessor) applyAllocationSplit(signals []autotrader.ExternalStrategySignal) {
	groups := map[splitGroupKey][]int{}
	for i, s := range signals {
		if !p.isGeneric(s) {
			continue
		}
		key := splitGroupKey{s.Ticker, string(s.Mode), string(s.Signal), s.ExecuteOnDate}
		groups[key] = append(groups[key], i)
	}

	for _, idxs := range groups {
		if len(idxs) <= 1 {
			continue
		}
		sort.SliceStable(idxs, func(a, b int) bool {
			return signals[idxs[a]].CreatedAt.Before(signals[idxs[b]].CreatedAt)
		})
		n := len(idxs)
		for pos, idx := range idxs {
			split := n
			index := pos + 1
			signals[idx].AllocationSplit = &split
			signals[idx].AllocationIndex = &index
			signals[idx].AllowDuplicateTicker = true
		}
	}
}

func (p *ExternalSignalProcessor) gateOne(s autotrader.ExternalStrategySignal, drawdown autotrader.DrawdownAssessment, pendingDeployed, dailyDeployedSoFar float64, positions []autotrader.EnrichedPosition) (*OrderRequest, string) {
	video := p.videoOf(s)
	exempt := video != nil && video.ExemptFromDeactivation
	if p.Deactivated != nil && !exempt {
		scope := riskgate.ScopeKey{SourceName: s.SourceName, StrategyVideoID: s.StrategyVideoID, Mode: s.Mode}
		deactivated, err := p.Deactivated.IsAutoDeactivated(scope)
		if err == nil && deactivated {
			return nil, "strategy_marked_x"
		}
	}

	if s.AllowDuplicateTicker {
		if active, err := p.activeConflict(s); err != nil {
			return nil, "active_check_error"
		} else if active {
			return nil, "duplicate_ticker_conflict"
		}
	} else {
		active, err := p.Active.IsActiveTicker(s.Ticker)
		if err != nil {
			return nil, "active_check_error"
		}
		if active {
			return nil, "duplicate_ticker"
		}
	}

	entry, stop, target := s.EntryPrice, s.StopLoss, s.TargetPrice
	var faConf *float64
	var faRec *string
	if entry == nil && (s.Mode == autotrader.ModeDayTrade || s.Mode == autotrader.ModeSwingTrade) {
		analysisMode := analysisMode(string(s.Mode))
		analysis, err := p.Analysis.Analyze(s.Ticker, analysisMode)
		if err != nil {
			return nil, "analysis_error"
		}
		if analysis.EntryPrice == nil || analysis.StopLoss == nil || analysis.TargetPrice == nil {
			return nil, "fa_levels_incomplete"
		}
		entry, stop, target = analysis.EntryPrice, analysis.StopLoss, analysis.TargetPrice
		faConf, faRec = &analysis.Confidence, &analysis.Recommendation
	}

	if entry != nil {
		if p.Quotes == nil {
			return nil, "waiting_no_quote"
		}
		quote, err := p.Quotes.GetQuote(s.Ticker)
		if err != nil || quote == nil {
			return nil, "waiting_no_quote"
		}
		if s.Signal == autotrader.SideBuy && *quote < *entry {
			return nil, "waiting_wrong_side"
		}
		if s.Signal == autotrader.SideSell && *quote > *entry {
			return nil, "waiting_wrong_side"
		}
	}

	price := 0.0
	if entry != nil {
		price = *entry
	}
	sized := sizer.Size(p.Config, sizer.Input{
		Price: price, Mode: s.Mode, EntryPrice: entry, StopLoss: stop,
		RegimeMultiplier: 1.0, DrawdownMultiplier: drawdown.Multiplier,
	})
	qty := sized.Quantity
	size := sized.PositionSize
	if s.AllocationSplit != nil && *s.AllocationSplit > 1 {
		qty = qty / float64(*s.AllocationSplit)
		size = size / float64(*s.AllocationSplit)
	}
	if qty < 1 {
		return nil, "allocation_split_too_small"
	}

	verdict, err := p.Risk.Evaluate(riskgate.PreTradeInput{
		Ticker: s.Ticker, NewPositionSize: size,
		DailyDeployedSoFar: dailyDeployedSoFar, PendingDeployed: pendingDeployed, Drawdown: drawdown,
		IsExternalSignal: true, SignalExempt: exempt,
		SignalScope: &riskgate.ScopeKey{SourceName: s.SourceName, StrategyVideoID: s.StrategyVideoID, Mode: s.Mode},
		BrokerPositions: positions,
	})
	if err != nil {
		return nil, "risk_gate_error"
	}
	if !verdict.Allowed {
		return nil, string(verdict.Reason)
	}

	return &OrderRequest{
		Ticker: s.Ticker, Mode: s.Mode, Side: s.Signal,
		EntryPrice: entry, StopLoss: stop, TargetPrice: target,
		Quantity: qty, PositionSize: size,
		Source: autotrader.SourceExternalSignal, StrategySource: &s.SourceName, StrategyURL: s.SourceURL,
		StrategyVideoID: s.StrategyVideoID, StrategyVideoHdg: s.StrategyVideoHeading,
		FAConfidence: faConf, FARecommendation: faRec,
	}, ""
}

// activeConflict implements the lenient generic-case duplicate-ticker rule:
// an existing active trade on the same ticker conflicts only if it differs in
// mode or side, or was not itself opened from a strategy video.
func (p *ExternalSignalProcessor) activeConflict(s autotrader.ExternalStrategySignal) (bool, error) {
	trades, err := p.ActiveModes(s.Ticker)
	if err != nil {
		return false, err
	}
	for _, t := range trades {
		if t.Mode != s.Mode || t.Signal != s.Signal || t.StrategyVideoID == nil {
			return true, nil
		}
	}
	return false, nil
}
