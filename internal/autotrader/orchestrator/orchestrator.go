// Package orchestrator implements C1: it owns the scheduling state machine,
// serialises Cycle execution behind a single non-reentrant flag, and wires
// every other component together in the fixed per-Cycle order.
package orchestrator

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
	"github.com/quantedge/scheduler-core/internal/autotrader/candidates"
	"github.com/quantedge/scheduler-core/internal/autotrader/clients"
	"github.com/quantedge/scheduler-core/internal/autotrader/metrics"
	"github.com/quantedge/scheduler-core/internal/autotrader/positionmanager"
	"github.com/quantedge/scheduler-core/internal/autotrader/reconciler"
	"github.com/quantedge/scheduler-core/internal/autotrader/riskgate"
)

const (
	realtimeDebounce = 3 * time.Second
	startupDelay     = 10 * time.Second

	periodicSpec   = "*/15 9-16 * * 1-5"
	firstCandleSpec = "36 9 * * 1-5"
)

// BrokerGateway is the narrow broker slice the Orchestrator needs directly;
// the Reconciler, PositionManager and Executor each hold their own narrower
// slices of the same underlying client.
type BrokerGateway interface {
	IsConnected() bool
	RequestPositions() ([]autotrader.EnrichedPosition, error)
}

// ConfigStore is the datastore-backed AutoTraderConfig singleton.
type ConfigStore interface {
	Load() autotrader.AutoTraderConfig
	SetPortfolioValue(v float64) error
}

// TradeStore is the narrow trade-repository slice the Orchestrator needs to
// fan out to the Reconciler, PositionManager and candidate sources.
type TradeStore interface {
	ActiveTrades() ([]autotrader.Trade, error)
}

// VideoStore resolves the tracked strategy-video catalogue.
type VideoStore interface {
	TrackedDailySignals(todayET string) ([]autotrader.StrategyVideo, error)
	TrackedGenericStrategies(timeframe autotrader.TradeMode) ([]autotrader.StrategyVideo, error)
}

// SnapshotStore persists the once-daily account snapshot (§4.9).
type SnapshotStore interface {
	ExistsForDate(accountID, dateET string) (bool, error)
	Create(s autotrader.PortfolioSnapshot, dateET string) error
}

// RehydrationAnalyzer performs the post-hoc "emit a structured learning
// record" step for trades closed since the last rehydration run (§4.9). Its
// internal mechanics are out of scope for the core; a nil Analyzer simply
// disables the analysis half of rehydration, leaving the snapshot half
// unaffected.
type RehydrationAnalyzer interface {
	AnalyzeNewlyClosed() error
}

// IDGenerator produces a new unique identifier for a snapshot row.
type IDGenerator func() string

// Orchestrator wires every other component together and owns the process's
// Cycle-scoped and day-scoped in-memory state (§3's "Orchestrator state").
type Orchestrator struct {
	Broker        BrokerGateway
	ConfigStore   ConfigStore
	Trades        TradeStore
	Videos        VideoStore
	Snapshots     SnapshotStore
	Scanner       clients.ScannerClient

	Reconciler      *reconciler.Reconciler
	Risk            *riskgate.Gate
	PositionMgr     *positionmanager.Manager
	ScannerProc     *candidates.ScannerProcessor
	SuggestedFinds  *candidates.SuggestedFindsProcessor
	ExternalSignals *candidates.ExternalSignalProcessor
	SignalQueuer    *candidates.SignalQueuer
	Rehydration     RehydrationAnalyzer

	NewID   IDGenerator
	Clock   autotrader.Clock
	Log     zerolog.Logger
	Metrics *metrics.Metrics

	runMu   sync.Mutex
	running bool

	stateMu                sync.Mutex
	triggersActive         bool
	lastRun                time.Time
	lastResult             string
	runCount               int
	lastSuggestedFindsDate string
	lastSnapshotDate       string
	lastRehydrationDate    string
	pendingDeployedDollar  float64
	dailyDeployedDollar    float64
	dailyDeployedDate      string
	processedTickers       map[string]bool
	processedTickersDate   string

	cron *cron.Cron

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// Status is the Orchestrator's externally-reported state surface.
type Status struct {
	TriggersActive      bool
	CycleRunning        bool
	LastRun             time.Time
	LastResult          string
	RunCount            int
	BrokerConnected     bool
	DatastoreConfigured bool
}

// Status reports the current scheduling and execution state.
func (o *Orchestrator) Status() Status {
	o.runMu.Lock()
	running := o.running
	o.runMu.Unlock()

	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	return Status{
		TriggersActive:      o.triggersActive,
		CycleRunning:        running,
		LastRun:             o.lastRun,
		LastResult:          o.lastResult,
		RunCount:            o.runCount,
		BrokerConnected:     o.Broker != nil && o.Broker.IsConnected(),
		DatastoreConfigured: o.ConfigStore != nil,
	}
}

// Start arms the periodic 15-minute grid, the 09:36 ET first-candle one-shot,
// and the ~10s-after-start startup trigger. All triggers converge on RunCycle.
func (o *Orchestrator) Start() error {
	c := cron.New(cron.WithLocation(autotrader.Location()))
	if _, err := c.AddFunc(periodicSpec, o.RunCycle); err != nil {
		return fmt.Errorf("schedule periodic cycle: %w", err)
	}
	if _, err := c.AddFunc(firstCandleSpec, o.RunCycle); err != nil {
		return fmt.Errorf("schedule first-candle cycle: %w", err)
	}
	c.Start()
	o.cron = c

	o.stateMu.Lock()
	o.triggersActive = true
	o.stateMu.Unlock()

	time.AfterFunc(startupDelay, o.RunCycle)
	return nil
}

// Stop tears down the cron schedule and any pending realtime debounce timer.
func (o *Orchestrator) Stop() {
	if o.cron != nil {
		<-o.cron.Stop().Done()
	}

	o.debounceMu.Lock()
	if o.debounceTimer != nil {
		o.debounceTimer.Stop()
	}
	o.debounceMu.Unlock()

	o.stateMu.Lock()
	o.triggersActive = false
	o.stateMu.Unlock()
}

// TriggerManual runs a Cycle immediately on behalf of an external RPC call.
// It is dropped, not queued, if a Cycle is already running.
func (o *Orchestrator) TriggerManual() {
	o.RunCycle()
}

// TriggerRealtime schedules a debounced execution-only pass: bursts of
// change notifications arriving within 3 seconds of each other coalesce into
// a single run.
func (o *Orchestrator) TriggerRealtime() {
	o.debounceMu.Lock()
	defer o.debounceMu.Unlock()
	if o.debounceTimer != nil {
		o.debounceTimer.Stop()
	}
	o.debounceTimer = time.AfterFunc(realtimeDebounce, o.runExecutionOnly)
}

func (o *Orchestrator) tryAcquire() bool {
	o.runMu.Lock()
	defer o.runMu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	return true
}

func (o *Orchestrator) release() {
	o.runMu.Lock()
	o.running = false
	o.runMu.Unlock()
}

// RunCycle is the full Cycle entry (§2/§4.1). It is safe to call from any
// trigger; a Cycle already running causes this call to return immediately.
func (o *Orchestrator) RunCycle() {
	if !o.tryAcquire() {
		return
	}
	defer o.release()

	start := o.Clock.Now()
	result := "ok"
	if err := o.runCycleSteps(); err != nil {
		result = fmt.Sprintf("error: %s", err)
		o.Log.Warn().Err(err).Msg("cycle failed")
	}
	if o.Metrics != nil {
		o.Metrics.ObserveCycle(cycleResultLabel(result), o.Clock.Now().Sub(start).Seconds())
	}

	o.stateMu.Lock()
	o.lastRun = o.Clock.Now()
	o.lastResult = result
	o.runCount++
	o.stateMu.Unlock()
}

func cycleResultLabel(result string) string {
	if strings.HasPrefix(result, "error:") {
		return "error"
	}
	return result
}

func (o *Orchestrator) runCycleSteps() error {
	now := o.Clock.Now()
	todayET := autotrader.ETDateString(now)
	o.resetPerDayState(todayET)

	// 1. connection gate
	if o.Broker == nil || !o.Broker.IsConnected() {
		return errors.New("broker not connected")
	}

	// 2. load config
	cfg := o.ConfigStore.Load()
	o.applyConfig(cfg)
	if !cfg.Enabled {
		return errors.New("autotrader disabled (master kill-switch)")
	}
	if cfg.AccountID == "" {
		return errors.New("no account id configured")
	}

	// 3. fetch enriched positions
	positions, err := o.Broker.RequestPositions()
	if err != nil {
		return fmt.Errorf("request positions: %w", err)
	}

	active, err := o.Trades.ActiveTrades()
	if err != nil {
		return fmt.Errorf("load active trades: %w", err)
	}

	// 4. optional daily tasks: suggested finds, snapshot
	o.runDailyTasksOnce(cfg, active, positions, todayET)

	// 5. Reconciler
	if o.Reconciler != nil {
		o.Reconciler.Reconcile(positions, active)
	}
	o.stateMu.Lock()
	o.pendingDeployedDollar = 0
	o.stateMu.Unlock()

	// 6. portfolio value refresh (the stored value only grows)
	portfolioValue := sumMarketValue(positions)
	if portfolioValue > cfg.PortfolioValue {
		if err := o.ConfigStore.SetPortfolioValue(portfolioValue); err != nil {
			o.Log.Warn().Err(err).Msg("persist portfolio value failed")
		}
		cfg.PortfolioValue = portfolioValue
		o.applyConfig(cfg)
	}

	// 7. drawdown assessment
	drawdown := autotrader.AssessDrawdown(positions)

	// 8. market-hours gate
	if !autotrader.IsMarketHours(now) {
		o.runRehydration(now, todayET)
		return nil
	}

	// PositionManager (C7)
	if o.PositionMgr != nil {
		o.PositionMgr.Run(positions)
	}

	// CandidateSources (C3): fetch scanner ideas
	ideas := o.fetchIdeas(tickerList(positions))

	// SignalQueuer (C4)
	claimed := o.queueSignals(ideas, active, todayET)

	o.stateMu.Lock()
	pending := o.pendingDeployedDollar
	daily := o.dailyDeployedDollar
	o.stateMu.Unlock()

	// external-signal processing (C3+C5+C8)
	if o.ExternalSignals != nil {
		out := o.ExternalSignals.Process(todayET, drawdown, pending, daily, positions)
		pending += out.Deployed
		daily += out.Deployed
		if o.Metrics != nil {
			o.Metrics.RecordExternalSignalOutcome(out)
		}
	}

	// residual scanner ideas (C3+C5+C8)
	if o.ScannerProc != nil {
		slots := cfg.MaxPositions - len(active)
		out := o.ScannerProc.Process(ideas, slots, claimed, o.processedTickers, drawdown, pending, daily, positions)
		pending += out.Deployed
		daily += out.Deployed
		if o.Metrics != nil {
			o.Metrics.RecordScannerOutcome(out)
		}
	}

	o.stateMu.Lock()
	o.pendingDeployedDollar = pending
	o.dailyDeployedDollar = daily
	o.stateMu.Unlock()

	// Rehydration (C9)
	o.runRehydration(now, todayET)

	return nil
}

// runExecutionOnly is the realtime path's lighter Cycle subset (§2, §4.1).
func (o *Orchestrator) runExecutionOnly() {
	if !o.tryAcquire() {
		return
	}
	defer o.release()

	now := o.Clock.Now()
	if o.Broker == nil || !o.Broker.IsConnected() || !autotrader.IsMarketHours(now) {
		return
	}
	todayET := autotrader.ETDateString(now)
	o.resetPerDayState(todayET)

	positions, err := o.Broker.RequestPositions()
	if err != nil {
		o.Log.Warn().Err(err).Msg("realtime: request positions failed")
		return
	}
	active, err := o.Trades.ActiveTrades()
	if err != nil {
		o.Log.Warn().Err(err).Msg("realtime: load active trades failed")
		return
	}

	cfg := o.ConfigStore.Load()
	if !cfg.Enabled || cfg.AccountID == "" {
		return
	}
	drawdown := autotrader.AssessDrawdown(positions)
	ideas := o.fetchIdeas(tickerList(positions))
	claimed := o.queueSignals(ideas, active, todayET)

	o.stateMu.Lock()
	pending := o.pendingDeployedDollar
	daily := o.dailyDeployedDollar
	o.stateMu.Unlock()

	if o.ExternalSignals != nil {
		out := o.ExternalSignals.Process(todayET, drawdown, pending, daily, positions)
		pending += out.Deployed
		daily += out.Deployed
		if o.Metrics != nil {
			o.Metrics.RecordExternalSignalOutcome(out)
		}
	}
	if o.ScannerProc != nil {
		slots := cfg.MaxPositions - len(active)
		out := o.ScannerProc.Process(ideas, slots, claimed, o.processedTickers, drawdown, pending, daily, positions)
		pending += out.Deployed
		daily += out.Deployed
		if o.Metrics != nil {
			o.Metrics.RecordScannerOutcome(out)
		}
	}

	if o.Metrics != nil {
		o.Metrics.ObserveCycle("realtime", o.Clock.Now().Sub(now).Seconds())
	}

	o.stateMu.Lock()
	o.pendingDeployedDollar = pending
	o.dailyDeployedDollar = daily
	o.lastRun = o.Clock.Now()
	o.lastResult = "ok (realtime)"
	o.runCount++
	o.stateMu.Unlock()
}

func (o *Orchestrator) fetchIdeas(tickers []string) []clients.TradeIdea {
	if o.Scanner == nil {
		return nil
	}
	result, err := o.Scanner.FetchIdeas(tickers)
	if err != nil || result == nil {
		if err != nil {
			o.Log.Warn().Err(err).Msg("fetch scanner ideas failed")
		}
		return nil
	}
	ideas := make([]clients.TradeIdea, 0, len(result.DayTrades)+len(result.SwingTrades))
	ideas = append(ideas, result.DayTrades...)
	ideas = append(ideas, result.SwingTrades...)
	return ideas
}

func (o *Orchestrator) queueSignals(ideas []clients.TradeIdea, active []autotrader.Trade, todayET string) map[string]bool {
	if o.SignalQueuer == nil {
		return nil
	}

	if o.Videos != nil {
		if dailyVideos, err := o.Videos.TrackedDailySignals(todayET); err == nil {
			o.SignalQueuer.QueueDailySignals(dailyVideos, todayET)
		} else {
			o.Log.Warn().Err(err).Msg("load daily-signal videos failed")
		}
	}

	genericVideos := map[autotrader.TradeMode][]autotrader.StrategyVideo{}
	if o.Videos != nil {
		for _, mode := range []autotrader.TradeMode{autotrader.ModeDayTrade, autotrader.ModeSwingTrade} {
			if vids, err := o.Videos.TrackedGenericStrategies(mode); err == nil {
				genericVideos[mode] = vids
			}
		}
	}

	activeTickers := map[string]bool{}
	for _, t := range active {
		activeTickers[t.Ticker] = true
	}

	result := o.SignalQueuer.QueueGenericStrategies(ideas, genericVideos, activeTickers, todayET)
	return result.ClaimedTickers
}

func (o *Orchestrator) runDailyTasksOnce(cfg autotrader.AutoTraderConfig, active []autotrader.Trade, positions []autotrader.EnrichedPosition, todayET string) {
	now := o.Clock.Now()
	o.stateMu.Lock()
	needSuggested := o.lastSuggestedFindsDate != todayET && autotrader.IsAfterNineAM(now)
	needSnapshot := o.lastSnapshotDate != todayET
	pending := o.pendingDeployedDollar
	daily := o.dailyDeployedDollar
	o.stateMu.Unlock()

	if needSuggested && o.SuggestedFinds != nil {
		drawdown := autotrader.AssessDrawdown(positions)
		out := o.SuggestedFinds.Process(drawdown, pending, daily, goldMineExposure(active), positions)
		if o.Metrics != nil {
			o.Metrics.RecordSuggestedFindsOutcome(out)
		}
		o.stateMu.Lock()
		o.pendingDeployedDollar += out.Deployed
		o.dailyDeployedDollar += out.Deployed
		o.lastSuggestedFindsDate = todayET
		o.stateMu.Unlock()
	}

	if needSnapshot && len(positions) > 0 && o.Snapshots != nil {
		exists, err := o.Snapshots.ExistsForDate(cfg.AccountID, todayET)
		if err != nil {
			o.Log.Warn().Err(err).Msg("check snapshot existence failed")
		} else if !exists {
			snap := autotrader.PortfolioSnapshot{
				ID: o.NewID(), AccountID: cfg.AccountID,
				TotalValue: sumMarketValue(positions), TotalPnL: sumUnrealizedPnL(positions),
				Positions: positions, OpenTradeCount: len(positions), CreatedAt: o.Clock.Now(),
			}
			if err := o.Snapshots.Create(snap, todayET); err != nil {
				o.Log.Warn().Err(err).Msg("create daily snapshot failed")
			}
		}
		o.stateMu.Lock()
		o.lastSnapshotDate = todayET
		o.stateMu.Unlock()
	}
}

func (o *Orchestrator) runRehydration(now time.Time, todayET string) {
	if !autotrader.IsAfterRehydrationBoundary(now) {
		return
	}
	o.stateMu.Lock()
	already := o.lastRehydrationDate == todayET
	o.stateMu.Unlock()
	if already {
		return
	}

	if o.Reconciler != nil && o.Trades != nil && o.Broker != nil {
		if active, err := o.Trades.ActiveTrades(); err == nil {
			if positions, err := o.Broker.RequestPositions(); err == nil {
				o.Reconciler.Reconcile(positions, active)
			}
		}
	}
	if o.Rehydration != nil {
		if err := o.Rehydration.AnalyzeNewlyClosed(); err != nil {
			o.Log.Warn().Err(err).Msg("post-hoc trade analysis failed")
		}
	}

	o.stateMu.Lock()
	o.lastRehydrationDate = todayET
	o.stateMu.Unlock()
}

func (o *Orchestrator) resetPerDayState(todayET string) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	if o.processedTickersDate != todayET {
		o.processedTickers = map[string]bool{}
		o.processedTickersDate = todayET
	}
	if o.dailyDeployedDate != todayET {
		o.dailyDeployedDollar = 0
		o.dailyDeployedDate = todayET
	}
}

// applyConfig hot-reloads the datastore-backed config into every subcomponent
// that holds its own copy, so a mid-day config edit takes effect next Cycle.
func (o *Orchestrator) applyConfig(cfg autotrader.AutoTraderConfig) {
	if o.Risk != nil {
		o.Risk.Config = cfg
	}
	if o.PositionMgr != nil {
		o.PositionMgr.Config = cfg
	}
	if o.ScannerProc != nil {
		o.ScannerProc.Config = cfg
	}
	if o.SuggestedFinds != nil {
		o.SuggestedFinds.Config = cfg
	}
	if o.ExternalSignals != nil {
		o.ExternalSignals.Config = cfg
	}
	if o.SignalQueuer != nil {
		o.SignalQueuer.Config = cfg
	}
}

func tickerList(positions []autotrader.EnrichedPosition) []string {
	out := make([]string, 0, len(positions))
	for _, p := range positions {
		out = append(out, p.Symbol)
	}
	return out
}

func sumMarketValue(positions []autotrader.EnrichedPosition) float64 {
	var sum float64
	for _, p := range positions {
		sum += p.MktValue
	}
	return sum
}

func sumUnrealizedPnL(positions []autotrader.EnrichedPosition) float64 {
	var sum float64
	for _, p := range positions {
		sum += p.UnrealizedPnL
	}
	return sum
}

func goldMineExposure(active []autotrader.Trade) float64 {
	var sum float64
	for _, t := range active {
		if t.Mode == autotrader.ModeLongTerm && hasGoldMinePrefix(t.Notes) {
			sum += t.PositionSize
		}
	}
	return sum
}

func hasGoldMinePrefix(notes string) bool {
	const prefix = "Gold Mine"
	return len(notes) >= len(prefix) && notes[:len(prefix)] == prefix
}
