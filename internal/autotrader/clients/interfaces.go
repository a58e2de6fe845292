// Package clients defines the external HTTP service contracts (§6.3) the
// candidate-sourcing and risk-gate components depend on, plus a shared
// stdlib-net/http implementation.
package clients

import "time"

// TradeIdea is one candidate surfaced by the scanner.
type TradeIdea struct {
	Ticker             string
	Name               string
	Price              float64
	Change             float64
	ChangePercent      float64
	Signal             string // "BUY" | "SELL"
	Confidence         float64
	Reason             string
	Tags               []string
	Mode               string
	InPlayScore        *float64
	Pass1Confidence    *float64
	MarketCondition    *string
}

// ScannerResult is the scanner's day/swing idea split.
type ScannerResult struct {
	DayTrades   []TradeIdea
	SwingTrades []TradeIdea
	Timestamp   time.Time
	Cached      bool
}

// ScannerClient fetches trade ideas from the external scanner service.
type ScannerClient interface {
	FetchIdeas(portfolioTickers []string) (*ScannerResult, error)
}

// AnalysisResult is the full-analysis service's verdict on one ticker.
type AnalysisResult struct {
	Recommendation string // "BUY" | "SELL" | "HOLD"
	Confidence     float64
	EntryPrice     *float64
	StopLoss       *float64
	TargetPrice    *float64
	TargetPrice2   *float64
	RiskReward     *string
	Rationale      string
}

// AnalysisClient runs the full-analysis gate (§4.3.1a) for one ticker/mode.
type AnalysisClient interface {
	Analyze(ticker, mode string) (*AnalysisResult, error)
}

// SuggestedFind is one daily-suggestions candidate (§4.3.2).
type SuggestedFind struct {
	Ticker      string
	Conviction  int
	ValuationTag string
	Tag         string // "Steady Compounder" | "Gold Mine"
	Reason      string
}

// DailySuggestions is the cached daily-suggestions payload.
type DailySuggestions struct {
	Cached      bool
	Compounders []SuggestedFind
	GoldMines   []SuggestedFind
}

// SuggestionsClient fetches the cached daily-suggestions payload.
type SuggestionsClient interface {
	FetchDailySuggestions() (*DailySuggestions, error)
}

// QuoteClient fetches a last-trade price.
type QuoteClient interface {
	GetQuote(ticker string) (*float64, error)
}

// EarningsEvent is one upcoming earnings date for a ticker.
type EarningsEvent struct {
	Date   time.Time
	Symbol string
}

// EarningsClient fetches upcoming earnings dates.
type EarningsClient interface {
	GetEarnings(ticker string, from, to time.Time) ([]EarningsEvent, error)
}

// IndustryClient resolves a ticker's sector/industry label.
type IndustryClient interface {
	GetIndustry(ticker string) (string, error)
}

// Bar is one daily OHLCV bar.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarsClient fetches historical daily bars.
type BarsClient interface {
	GetDailyBars(ticker string, days int) ([]Bar, error)
}
