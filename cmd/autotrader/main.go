// Command autotrader runs the scheduler core process: it loads
// configuration, opens the ledger database, wires every autotrader
// component together, and serves the operator HTTP surface until signaled
// to stop.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/quantedge/scheduler-core/internal/autotrader"
	"github.com/quantedge/scheduler-core/internal/autotrader/brokeradapter"
	"github.com/quantedge/scheduler-core/internal/autotrader/candidates"
	"github.com/quantedge/scheduler-core/internal/autotrader/clients"
	"github.com/quantedge/scheduler-core/internal/autotrader/executor"
	"github.com/quantedge/scheduler-core/internal/autotrader/httpapi"
	"github.com/quantedge/scheduler-core/internal/autotrader/metrics"
	"github.com/quantedge/scheduler-core/internal/autotrader/orchestrator"
	"github.com/quantedge/scheduler-core/internal/autotrader/positionmanager"
	"github.com/quantedge/scheduler-core/internal/autotrader/realtime"
	"github.com/quantedge/scheduler-core/internal/autotrader/reconciler"
	"github.com/quantedge/scheduler-core/internal/autotrader/riskgate"
	"github.com/quantedge/scheduler-core/internal/autotrader/store"
	"github.com/quantedge/scheduler-core/internal/autotrader/swinglog"
	"github.com/quantedge/scheduler-core/internal/clients/tradernet"
	"github.com/quantedge/scheduler-core/internal/config"
	"github.com/quantedge/scheduler-core/internal/database"
	"github.com/quantedge/scheduler-core/pkg/logger"
)

func newID() string { return uuid.NewString() }

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "autotrader: "+err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)

	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "autotrader.db"),
		Profile: database.ProfileLedger,
		Name:    "autotrader",
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	trades := store.NewTradeRepository(db.Conn(), log)
	events := store.NewEventRepository(db.Conn(), log)
	signals := store.NewSignalRepository(db.Conn(), log)
	snapshots := store.NewSnapshotRepository(db.Conn(), log)
	videos := store.NewVideoRepository(db.Conn(), log)
	cfgStore := store.NewConfigRepository(db.Conn(), log)

	httpClient := clients.NewHTTPClient(clients.Config{
		ScannerBaseURL:     cfg.ScannerBaseURL,
		AnalysisBaseURL:    cfg.AnalysisBaseURL,
		SuggestionsBaseURL: cfg.SuggestionsBaseURL,
		QuoteBaseURL:       cfg.QuoteBaseURL,
		CalendarBaseURL:    cfg.CalendarBaseURL,
		ProfileBaseURL:     cfg.ProfileBaseURL,
		ChartBaseURL:       cfg.ChartBaseURL,
		APIKey:             cfg.MarketDataAPIKey,
	}, log)
	industry := clients.NewIndustryLookupAdapter(httpClient)
	earnings := clients.NewEarningsCalendarAdapter(httpClient)

	tnClient := tradernet.NewClient(cfg.TradernetAPIKey, cfg.TradernetAPISecret, log)
	broker := brokeradapter.New(tnClient, log)

	clock := autotrader.SystemClock{}
	mtr := metrics.New()

	risk := &riskgate.Gate{
		Ledger:   trades,
		Industry: industry,
		Earnings: earnings,
		Clock:    clock,
	}

	swing := swinglog.New(httpClient, cfg.BroadMarketSymbol)
	rec := &reconciler.Reconciler{
		Ledger: trades,
		Broker: broker,
		Quotes: httpClient,
		Swing:  swing,
		Clock:  clock,
		Log:    log,
	}

	posMgr := &positionmanager.Manager{
		Ledger: trades,
		Events: events,
		Broker: broker,
		NewID:  newID,
		Clock:  clock,
		Log:    log,
	}

	exec := &executor.Executor{
		Broker:   broker,
		Ledger:   trades,
		Events:   events,
		Deployed: mtr,
		NewID:    newID,
		Clock:    clock,
		Log:      log,
	}

	scannerProc := &candidates.ScannerProcessor{
		Analysis: httpClient,
		Quotes:   httpClient,
		Active:   trades,
		Risk:     risk,
		Exec:     exec,
		Log:      log,
	}
	suggestedFinds := &candidates.SuggestedFindsProcessor{
		Suggestions: httpClient,
		Analysis:    httpClient,
		Bars:        httpClient,
		BroadMarket: cfg.BroadMarketSymbol,
		Active:      trades,
		Risk:        risk,
		Exec:        exec,
		Log:         log,
	}
	externalSignals := &candidates.ExternalSignalProcessor{
		Signals:     signals,
		Videos:      videos,
		Analysis:    httpClient,
		Quotes:      httpClient,
		Active:      trades,
		ActiveModes: trades.ActiveByTicker,
		Deactivated: risk,
		Risk:        risk,
		Exec:        exec,
		Clock:       clock,
		Log:         log,
	}
	signalQueuer := &candidates.SignalQueuer{
		Signals: signals,
		NewID:   newID,
		Clock:   clock,
		Log:     log,
	}

	orch := &orchestrator.Orchestrator{
		Broker:          broker,
		ConfigStore:     cfgStore,
		Trades:          trades,
		Videos:          videos,
		Snapshots:       snapshots,
		Scanner:         httpClient,
		Reconciler:      rec,
		Risk:            risk,
		PositionMgr:     posMgr,
		ScannerProc:     scannerProc,
		SuggestedFinds:  suggestedFinds,
		ExternalSignals: externalSignals,
		SignalQueuer:    signalQueuer,
		Rehydration:     nil,
		NewID:           newID,
		Clock:           clock,
		Log:             log,
		Metrics:         mtr,
	}

	var sub *realtime.Subscriber
	if cfg.RealtimeChannelURL != "" {
		sub = realtime.New(cfg.RealtimeChannelURL, orch.TriggerRealtime, log)
		sub.Start()
	}

	if err := orch.Start(); err != nil {
		return fmt.Errorf("start orchestrator: %w", err)
	}

	api := httpapi.New(orch, mtr, cfg.Port, cfg.DevMode, log)
	apiErrs := make(chan error, 1)
	go func() {
		if err := api.Start(); err != nil {
			apiErrs <- err
		}
	}()

	log.Info().Int("port", cfg.Port).Str("account_id", cfg.AccountID).Msg("autotrader started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-apiErrs:
		log.Error().Err(err).Msg("http api failed")
	}

	orch.Stop()
	if sub != nil {
		_ = sub.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http api shutdown error")
	}

	return nil
}
