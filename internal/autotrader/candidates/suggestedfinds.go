package candidates

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
	"github.com/quantedge/scheduler-core/internal/autotrader/clients"
	"github.com/quantedge/scheduler-core/internal/autotrader/indicators"
	"github.com/quantedge/scheduler-core/internal/autotrader/riskgate"
	"github.com/quantedge/scheduler-core/internal/autotrader/sizer"
)

const (
	tagCompounder = "Steady Compounder"
	tagGoldMine   = "Gold Mine"

	valuationDeepValue  = "deep value"
	valuationUndervalued = "undervalued"

	goldMineAllocationCapPct = 40.0
)

// SuggestedFindsProcessor runs §4.3.2: the once-daily, long-term candidate path.
type SuggestedFindsProcessor struct {
	Config      autotrader.AutoTraderConfig
	Suggestions clients.SuggestionsClient
	Analysis    clients.AnalysisClient
	Bars        clients.BarsClient
	BroadMarket string // e.g. "SPY"
	Active      ActiveTickerCheck
	Risk        RiskEvaluator
	Exec        Executor
	Log         zerolog.Logger
}

// SuggestedFindsOutcome mirrors ScannerOutcome for the daily-suggestions path.
type SuggestedFindsOutcome struct {
	Executed []string
	Deployed float64 // sum of PositionSize across Executed
	Skipped  map[string]int
}

// Process fetches the cached daily-suggestions payload and executes eligible
// candidates. goldMineExposureSoFar is the current dollar exposure tagged
// Gold Mine, used to enforce the 40%-of-maxTotalAllocation tag cap.
func (p *SuggestedFindsProcessor) Process(drawdown autotrader.DrawdownAssessment, pendingDeployed, dailyDeployedSoFar, goldMineExposureSoFar float64, positions []autotrader.EnrichedPosition) SuggestedFindsOutcome {
	out := SuggestedFindsOutcome{Skipped: map[string]int{}}

	findings, err := p.Suggestions.FetchDailySuggestions()
	if err != nil || findings == nil || !findings.Cached {
		out.Skipped["suggestions_unavailable"]++
		return out
	}

	compounders := sortedByConviction(findings.Compounders)
	goldMines := sortedByConviction(findings.GoldMines)

	minConviction := p.Config.MinSuggestedFindsConviction
	if len(goldMines) > 2*len(compounders) {
		minConviction++
	}

	eligible := make([]clients.SuggestedFind, 0, len(compounders)+len(goldMines))
	for i, f := range compounders {
		if i == 0 && f.Conviction >= 8 {
			eligible = append(eligible, f)
			continue
		}
		if f.Conviction >= p.Config.MinSuggestedFindsConviction && isValuationOK(f.ValuationTag) {
			eligible = append(eligible, f)
		}
	}
	for i, f := range goldMines {
		if i == 0 && f.Conviction >= 8 {
			eligible = append(eligible, f)
			continue
		}
		if f.Conviction >= minConviction && isValuationOK(f.ValuationTag) {
			eligible = append(eligible, f)
		}
	}

	deployed := pendingDeployed
	goldMineExposure := goldMineExposureSoFar
	for _, f := range eligible {
		req, reason := p.gateOne(f, drawdown, deployed, dailyDeployedSoFar, goldMineExposure, positions)
		if reason != "" {
			out.Skipped[reason]++
			continue
		}
		tradeID, err := p.Exec.Execute(*req)
		if err != nil {
			p.Log.Warn().Err(err).Str("ticker", f.Ticker).Msg("suggested-find execute failed")
			out.Skipped["execute_error"]++
			continue
		}
		deployed += req.PositionSize
		dailyDeployedSoFar += req.PositionSize
		if f.Tag == tagGoldMine {
			goldMineExposure += req.PositionSize
		}
		out.Executed = append(out.Executed, tradeID)
		out.Deployed += req.PositionSize
	}
	return out
}

func (p *SuggestedFindsProcessor) gateOne(f clients.SuggestedFind, drawdown autotrader.DrawdownAssessment, pendingDeployed, dailyDeployedSoFar, goldMineExposure float64, positions []autotrader.EnrichedPosition) (*OrderRequest, string) {
	active, err := p.Active.IsActiveTicker(f.Ticker)
	if err != nil {
		return nil, "active_check_error"
	}
	if active {
		return nil, "already_active"
	}

	if f.Tag == tagGoldMine && p.Bars != nil {
		if bars, err := p.Bars.GetDailyBars(p.BroadMarket, 210); err == nil {
			if below, err := indicators.BelowTwoHundredDayMean(bars); err == nil && below {
				return nil, "macro_regime_block"
			}
		}
		cap := p.Config.MaxTotalAllocation * goldMineAllocationCapPct / 100
		if goldMineExposure >= cap {
			return nil, "gold_mine_tag_cap"
		}
	}

	conviction := f.Conviction
	analysis, err := p.Analysis.Analyze(f.Ticker, string(autotrader.ModeLongTerm))
	if err == nil && analysis != nil {
		if analysis.Recommendation == "SELL" {
			return nil, "verification_sell"
		}
		if int(analysis.Confidence) <= conviction-3 {
			return nil, "verification_conviction_dropped"
		}
	}

	quote, _ := quoteFromAnalysis(analysis)
	price := quote
	if price <= 0 {
		return nil, "no_price_available"
	}

	sized := sizer.Size(p.Config, sizer.Input{
		Price: price, Mode: autotrader.ModeLongTerm, Conviction: &conviction,
		SuggestedFindTag: sizerTag(f.Tag), RegimeMultiplier: 1.0, DrawdownMultiplier: drawdown.Multiplier,
	})
	if sized.Quantity < 1 {
		return nil, "size_too_small"
	}

	if f.Tag == tagGoldMine {
		cap := p.Config.MaxTotalAllocation * goldMineAllocationCapPct / 100
		if goldMineExposure+sized.PositionSize > cap {
			return nil, "gold_mine_tag_cap"
		}
	}

	verdict, err := p.Risk.Evaluate(riskgate.PreTradeInput{
		Ticker: f.Ticker, NewPositionSize: sized.PositionSize,
		DailyDeployedSoFar: dailyDeployedSoFar, PendingDeployed: pendingDeployed, Drawdown: drawdown,
		BrokerPositions: positions,
	})
	if err != nil {
		return nil, "risk_gate_error"
	}
	if !verdict.Allowed {
		return nil, string(verdict.Reason)
	}

	reason := f.Reason
	tag := f.Tag
	return &OrderRequest{
		Ticker: f.Ticker, Mode: autotrader.ModeLongTerm, Side: autotrader.SideBuy,
		Quantity: sized.Quantity, PositionSize: sized.PositionSize,
		Source: autotrader.SourceSuggestedFinds, StrategySource: &reason, NotesPrefix: &tag,
	}, ""
}

func quoteFromAnalysis(a *clients.AnalysisResult) (float64, error) {
	if a != nil && a.EntryPrice != nil {
		return *a.EntryPrice, nil
	}
	return 0, nil
}

func sizerTag(tag string) sizer.SuggestedFindTag {
	if tag == tagGoldMine {
		return sizer.TagGoldMine
	}
	return sizer.TagCompounder
}

func isValuationOK(tag string) bool {
	return tag == valuationDeepValue || tag == valuationUndervalued
}

func sortedByConviction(finds []clients.SuggestedFind) []clients.SuggestedFind {
	out := make([]clients.SuggestedFind, len(finds))
	copy(out, finds)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Conviction > out[j].Conviction })
	return out
}
