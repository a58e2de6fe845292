// Package autotrader implements the scheduling, reconciliation, candidate-sourcing,
// risk-gating, sizing, position-management and execution core of the automated
// trading loop. See the sibling subpackages (reconciler, riskgate, sizer,
// candidates, positionmanager, executor, orchestrator) for the individual stages.
package autotrader

import "time"

// TradeMode classifies the holding horizon of a trade.
type TradeMode string

const (
	ModeDayTrade   TradeMode = "DAY_TRADE"
	ModeSwingTrade TradeMode = "SWING_TRADE"
	ModeLongTerm   TradeMode = "LONG_TERM"
)

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeStatus tracks the lifecycle of a ledger trade.
type TradeStatus string

const (
	StatusPending    TradeStatus = "PENDING"
	StatusSubmitted  TradeStatus = "SUBMITTED"
	StatusFilled     TradeStatus = "FILLED"
	StatusPartial    TradeStatus = "PARTIAL"
	StatusStopped    TradeStatus = "STOPPED"
	StatusTargetHit  TradeStatus = "TARGET_HIT"
	StatusClosed     TradeStatus = "CLOSED"
	StatusCancelled  TradeStatus = "CANCELLED"
	StatusRejected   TradeStatus = "REJECTED"
)

// EntryTriggerType records how a position was opened.
type EntryTriggerType string

const (
	EntryMarket      EntryTriggerType = "market"
	EntryBracketLmt  EntryTriggerType = "bracket_limit"
	EntryDipBuy      EntryTriggerType = "dip_buy"
	EntryProfitTake  EntryTriggerType = "profit_take"
	EntryLossCut     EntryTriggerType = "loss_cut"
)

// CloseReason records why a trade's position was closed.
type CloseReason string

const (
	CloseTargetHit CloseReason = "target_hit"
	CloseStopLoss  CloseReason = "stop_loss"
	CloseManual    CloseReason = "manual"
)

// EventSource tags which subsystem produced an AutoTradeEvent.
type EventSource string

const (
	SourceScanner        EventSource = "scanner"
	SourceSuggestedFinds EventSource = "suggested_finds"
	SourceExternalSignal EventSource = "external_signal"
	SourceDipBuy         EventSource = "dip_buy"
	SourceProfitTake     EventSource = "profit_take"
	SourceLossCut        EventSource = "loss_cut"
	SourceSystem         EventSource = "system"
)

// EventType classifies an AutoTradeEvent outcome.
type EventType string

const (
	EventSuccess EventType = "success"
	EventWarning EventType = "warning"
	EventError   EventType = "error"
)

// EventAction classifies what happened to a candidate.
type EventAction string

const (
	ActionExecuted EventAction = "executed"
	ActionSkipped  EventAction = "skipped"
	ActionFailed   EventAction = "failed"
)

// Trade is a single persistent ledger row. Rows are append-then-update; never deleted.
type Trade struct {
	ID                string
	Ticker            string
	Mode              TradeMode
	Signal            Side
	StrategySource    *string
	StrategyURL       *string
	StrategyVideoID   *string
	StrategyVideoHdg  *string
	ScannerConfidence *float64
	FAConfidence      *float64
	FARecommendation  *string
	EntryPrice        *float64
	StopLoss          *float64
	TargetPrice       *float64
	TargetPrice2      *float64
	RiskReward        *string
	Quantity          float64
	PositionSize      float64
	BrokerOrderID     *string
	Status            TradeStatus
	FillPrice         *float64
	ClosePrice        *float64
	PnL               *float64
	PnLPercent        *float64
	RMultiple         *float64
	OpenedAt          time.Time
	FilledAt          *time.Time
	ClosedAt          *time.Time
	CloseReason       *CloseReason
	EntryTriggerType  EntryTriggerType
	DistanceToMA20Pct *float64
	MACDHistIncr      *bool
	VolumeVsAvg10Pct  *float64
	RegimeAlignment   *string
	Notes             string
}

// IsActive reports whether the trade still counts against allocation/daily caps.
func (t *Trade) IsActive() bool {
	switch t.Status {
	case StatusPending, StatusSubmitted, StatusFilled, StatusPartial:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the trade has reached a final state.
func (t *Trade) IsTerminal() bool {
	switch t.Status {
	case StatusStopped, StatusTargetHit, StatusClosed, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// SignalStatus tracks the lifecycle of an ExternalStrategySignal.
type SignalStatus string

const (
	SignalPending   SignalStatus = "PENDING"
	SignalExecuted  SignalStatus = "EXECUTED"
	SignalFailed    SignalStatus = "FAILED"
	SignalSkipped   SignalStatus = "SKIPPED"
	SignalExpired   SignalStatus = "EXPIRED"
	SignalCancelled SignalStatus = "CANCELLED"
)

// ExternalStrategySignal is a persistent candidate trade written by an upstream
// process (video-derived or hand-authored).
type ExternalStrategySignal struct {
	ID                    string
	SourceName            string
	SourceURL             *string
	StrategyVideoID       *string
	StrategyVideoHeading  *string
	Ticker                string
	Signal                Side
	Mode                  TradeMode
	Confidence            int
	EntryPrice            *float64
	StopLoss              *float64
	TargetPrice           *float64
	PositionSizeOverride  *float64
	ExecuteOnDate         string // ET calendar date, YYYY-MM-DD
	ExecuteAt             *time.Time
	ExpiresAt             *time.Time
	Notes                 string
	Status                SignalStatus
	FailureReason         *string
	ExecutedTradeID       *string
	ExecutedAt            *time.Time
	AllocationSplit       *int
	AllocationIndex       *int
	AllowDuplicateTicker  bool
	CreatedAt             time.Time
}

// AutoTradeEvent is an append-only audit/cooldown/dedup log row.
type AutoTradeEvent struct {
	ID        string
	Ticker    string
	EventType EventType
	Action    EventAction
	Source    EventSource
	Mode      TradeMode
	Message   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// StrategyType classifies a tracked strategy video.
type StrategyType string

const (
	StrategyDailySignal     StrategyType = "daily_signal"
	StrategyGenericStrategy StrategyType = "generic_strategy"
)

// ExtractedSignal is one ticker setup lifted from a strategy video.
type ExtractedSignal struct {
	Ticker           string
	LongTriggerAbove *float64
	LongTargets      []float64
	ShortTriggerBelow *float64
	ShortTargets     []float64
}

// ExecutionWindow bounds when a video's signals may be acted on, in ET wall-clock.
type ExecutionWindow struct {
	Start string // "HH:MM"
	End   string // "HH:MM"
}

// StrategyVideo is a catalogue entry produced by the (external) transcript pipeline.
type StrategyVideo struct {
	VideoID               string
	SourceHandle          *string
	SourceName            *string
	CanonicalURL          *string
	VideoHeading          *string
	StrategyType          StrategyType
	Timeframe             TradeMode
	ApplicableTimeframes  []TradeMode
	ExecutionWindowET     *ExecutionWindow
	TradeDate             *string // ET calendar date, for daily_signal
	ExtractedSignals      []ExtractedSignal
	Status                string // only "tracked" rows are consumed
	ExemptFromDeactivation bool
}

// EnrichedPosition is the Orchestrator's per-cycle, ephemeral view of one broker position.
type EnrichedPosition struct {
	Symbol        string
	Position      float64 // signed
	AvgCost       float64
	ContractID    *string
	MktPrice      float64
	MktValue      float64
	UnrealizedPnL float64
}

// PortfolioSnapshot is a once-per-day persisted record of account state.
type PortfolioSnapshot struct {
	ID             string
	AccountID      string
	TotalValue     float64
	TotalPnL       float64
	Positions      []EnrichedPosition
	OpenTradeCount int
	CreatedAt      time.Time
}

// DrawdownLevel classifies the portfolio's current unrealized-P&L regime.
type DrawdownLevel string

const (
	DrawdownNormal    DrawdownLevel = "normal"
	DrawdownCaution   DrawdownLevel = "caution"
	DrawdownDefensive DrawdownLevel = "defensive"
	DrawdownCritical  DrawdownLevel = "critical"
)

// DrawdownAssessment is the result of scoring the portfolio's unrealized P&L.
type DrawdownAssessment struct {
	Level      DrawdownLevel
	Multiplier float64
	PnLPercent float64
}

// AssessDrawdown scores total unrealized P&L against cost basis into a sizing multiplier.
// Thresholds and multipliers are fixed by policy, not configuration.
func AssessDrawdown(positions []EnrichedPosition) DrawdownAssessment {
	var totalPnL, totalCost float64
	for _, p := range positions {
		totalPnL += p.UnrealizedPnL
		totalCost += absF(p.Position) * p.AvgCost
	}
	if totalCost <= 0 {
		return DrawdownAssessment{Level: DrawdownNormal, Multiplier: 1.0, PnLPercent: 0}
	}
	pnlPct := totalPnL / totalCost * 100

	switch {
	case pnlPct <= -5:
		return DrawdownAssessment{Level: DrawdownCritical, Multiplier: 0, PnLPercent: pnlPct}
	case pnlPct <= -3:
		return DrawdownAssessment{Level: DrawdownDefensive, Multiplier: 0.5, PnLPercent: pnlPct}
	case pnlPct <= -1:
		return DrawdownAssessment{Level: DrawdownCaution, Multiplier: 0.75, PnLPercent: pnlPct}
	default:
		return DrawdownAssessment{Level: DrawdownNormal, Multiplier: 1.0, PnLPercent: pnlPct}
	}
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
