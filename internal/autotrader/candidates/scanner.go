package candidates

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
	"github.com/quantedge/scheduler-core/internal/autotrader/clients"
	"github.com/quantedge/scheduler-core/internal/autotrader/riskgate"
	"github.com/quantedge/scheduler-core/internal/autotrader/sizer"
)

// ActiveTickerCheck reports whether a ticker already has an active ledger trade.
type ActiveTickerCheck interface {
	IsActiveTicker(ticker string) (bool, error)
}

// RiskEvaluator is the narrow slice of riskgate.Gate the candidate sources need.
type RiskEvaluator interface {
	Evaluate(in riskgate.PreTradeInput) (riskgate.Verdict, error)
}

// ScannerProcessor runs §4.3.1/§4.3.1a: filters, full-analysis-gates, sizes,
// risk-gates and executes scanner-sourced trade ideas.
type ScannerProcessor struct {
	Config   autotrader.AutoTraderConfig
	Analysis clients.AnalysisClient
	Quotes   clients.QuoteClient
	Active   ActiveTickerCheck
	Risk     RiskEvaluator
	Exec     Executor
	Log      zerolog.Logger
}

// ScannerOutcome tallies what happened across one batch of ideas.
type ScannerOutcome struct {
	Executed []string
	Deployed float64 // sum of PositionSize across Executed
	Skipped  map[string]int // reason -> count
}

func newScannerOutcome() ScannerOutcome {
	return ScannerOutcome{Skipped: map[string]int{}}
}

// Process filters `ideas` down to tradable candidates and executes them in
// descending-confidence order, up to `slotsAvailable` new positions.
// claimedByQueuer and processedToday are both per-ET-day sets owned by the caller.
func (p *ScannerProcessor) Process(ideas []clients.TradeIdea, slotsAvailable int, claimedByQueuer map[string]bool, processedToday map[string]bool, drawdown autotrader.DrawdownAssessment, pendingDeployed, dailyDeployedSoFar float64, positions []autotrader.EnrichedPosition) ScannerOutcome {
	out := newScannerOutcome()
	if slotsAvailable <= 0 {
		return out
	}

	candidates := make([]clients.TradeIdea, 0, len(ideas))
	for _, idea := range ideas {
		if processedToday[idea.Ticker] {
			out.Skipped["already_processed_today"]++
			continue
		}
		if claimedByQueuer[idea.Ticker] {
			out.Skipped["claimed_by_generic_queuer"]++
			continue
		}
		if idea.Confidence < p.Config.MinScannerConfidence {
			out.Skipped["below_min_confidence"]++
			continue
		}
		active, err := p.Active.IsActiveTicker(idea.Ticker)
		if err != nil {
			p.Log.Warn().Err(err).Str("ticker", idea.Ticker).Msg("active-ticker check failed, skipping")
			out.Skipped["active_check_error"]++
			continue
		}
		if active {
			out.Skipped["already_active"]++
			continue
		}
		candidates = append(candidates, idea)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	deployed := pendingDeployed
	executed := 0
	for _, idea := range candidates {
		if executed >= slotsAvailable {
			break
		}

		req, skipReason := p.gateOne(idea, drawdown, deployed, dailyDeployedSoFar, positions)
		if skipReason != "" {
			out.Skipped[skipReason]++
			continue
		}

		tradeID, err := p.Exec.Execute(*req)
		if err != nil {
			p.Log.Warn().Err(err).Str("ticker", idea.Ticker).Msg("scanner execute failed")
			out.Skipped["execute_error"]++
			continue
		}
		processedToday[idea.Ticker] = true
		deployed += req.PositionSize
		dailyDeployedSoFar += req.PositionSize
		out.Executed = append(out.Executed, tradeID)
		out.Deployed += req.PositionSize
		executed++
	}
	return out
}

func (p *ScannerProcessor) gateOne(idea clients.TradeIdea, drawdown autotrader.DrawdownAssessment, pendingDeployed, dailyDeployedSoFar float64, positions []autotrader.EnrichedPosition) (*OrderRequest, string) {
	analysisMode := analysisMode(idea.Mode)

	analysis, err := p.Analysis.Analyze(idea.Ticker, analysisMode)
	if err != nil {
		return nil, "analysis_error"
	}
	if analysis.Confidence < p.Config.MinFAConfidence {
		return nil, "fa_confidence_too_low"
	}
	if analysis.Recommendation == "HOLD" {
		return nil, "fa_recommendation_hold"
	}
	if analysis.Recommendation != idea.Signal {
		return nil, "fa_recommendation_mismatch"
	}
	if analysis.EntryPrice == nil || analysis.StopLoss == nil || analysis.TargetPrice == nil {
		return nil, "fa_levels_incomplete"
	}

	if idea.Mode == string(autotrader.ModeDayTrade) {
		rr, ok := parseRiskReward(analysis.RiskReward)
		if !ok || rr < 1.8 {
			return nil, "fa_risk_reward_too_low"
		}
	}

	var quote *float64
	if p.Quotes != nil {
		quote, _ = p.Quotes.GetQuote(idea.Ticker)
	}
	if idea.Mode == string(autotrader.ModeSwingTrade) && quote != nil {
		distance := absF(*quote-*analysis.EntryPrice) / *analysis.EntryPrice * 100
		if distance > 4 {
			return nil, "skipped_by_distance"
		}
	}

	side := autotrader.Side(idea.Signal)
	sized := sizer.Size(p.Config, sizer.Input{
		Price: *analysis.EntryPrice, Mode: autotrader.TradeMode(idea.Mode),
		EntryPrice: analysis.EntryPrice, StopLoss: analysis.StopLoss,
		RegimeMultiplier: 1.0, DrawdownMultiplier: drawdown.Multiplier,
	})
	if sized.Quantity < 1 {
		return nil, "size_too_small"
	}

	verdict, err := p.Risk.Evaluate(riskgate.PreTradeInput{
		Ticker: idea.Ticker, NewPositionSize: sized.PositionSize,
		DailyDeployedSoFar: dailyDeployedSoFar, PendingDeployed: pendingDeployed, Drawdown: drawdown,
		BrokerPositions: positions,
	})
	if err != nil {
		return nil, "risk_gate_error"
	}
	if !verdict.Allowed {
		return nil, string(verdict.Reason)
	}

	faConf := analysis.Confidence
	scannerConf := idea.Confidence
	return &OrderRequest{
		Ticker: idea.Ticker, Mode: autotrader.TradeMode(idea.Mode), Side: side,
		EntryPrice: analysis.EntryPrice, StopLoss: analysis.StopLoss,
		TargetPrice: analysis.TargetPrice, TargetPrice2: analysis.TargetPrice2,
		RiskReward: analysis.RiskReward, Quantity: sized.Quantity, PositionSize: sized.PositionSize,
		Source: autotrader.SourceScanner, ScannerConf: &scannerConf, FAConfidence: &faConf,
		FARecommendation: &analysis.Recommendation,
	}, ""
}

func analysisMode(mode string) string {
	if mode == string(autotrader.ModeLongTerm) {
		return string(autotrader.ModeSwingTrade)
	}
	return mode
}

func parseRiskReward(rr *string) (float64, bool) {
	if rr == nil {
		return 0, false
	}
	parts := strings.SplitN(*rr, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	num, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	den, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || num == 0 {
		return 0, false
	}
	return den / num, true
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
