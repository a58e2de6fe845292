// Package positionmanager runs the three independent, idempotent position
// management subloops (§4.7): dip-buy add-ons, profit-take trims, and
// loss-cut exits on existing long-term/swing holdings.
package positionmanager

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
)

const dipBuyNotePrefix = "Dip buy"

// LedgerStore is the narrow trade-repository slice PositionManager needs.
type LedgerStore interface {
	ActiveByModes(modes ...autotrader.TradeMode) ([]autotrader.Trade, error)
	Create(t autotrader.Trade) error
	SumActivePositionSize() (float64, error)
}

// EventStore is the narrow event-repository slice PositionManager needs for
// cooldowns (dip-buy) and tier dedup (profit-take/loss-cut).
type EventStore interface {
	MostRecentBySourceTicker(ticker string, source autotrader.EventSource, action autotrader.EventAction) (*autotrader.AutoTradeEvent, error)
	EventsByTickerAndSource(ticker string, source autotrader.EventSource) ([]autotrader.AutoTradeEvent, error)
	Append(e autotrader.AutoTradeEvent) error
}

// BrokerGateway is the narrow broker slice PositionManager needs to submit
// the market order for an add-on, trim, or exit.
type BrokerGateway interface {
	PlaceMarket(req autotrader.MarketOrderRequest) (*autotrader.BrokerOrderResult, error)
}

// IDGenerator produces a new unique identifier for a ledger row.
type IDGenerator func() string

// Manager runs the three position-management subloops against the reconciled
// broker positions and active ledger trades for one Cycle.
type Manager struct {
	Config autotrader.AutoTraderConfig
	Ledger LedgerStore
	Events EventStore
	Broker BrokerGateway
	NewID  IDGenerator
	Clock  autotrader.Clock
	Log    zerolog.Logger
}

// Outcome tallies what each subloop did for one Cycle.
type Outcome struct {
	DipBuys     []string
	ProfitTakes []string
	LossCuts    []string
	Skipped     map[string]int
}

func newOutcome() Outcome { return Outcome{Skipped: map[string]int{}} }

// Run executes dip-buy, then profit-take, then loss-cut, each independently
// against the given positions snapshot.
func (m *Manager) Run(positions []autotrader.EnrichedPosition) Outcome {
	out := newOutcome()
	byTicker := map[string]autotrader.EnrichedPosition{}
	for _, p := range positions {
		byTicker[p.Symbol] = p
	}

	if m.Config.DipBuyEnabled {
		m.runDipBuy(byTicker, &out)
	}
	if m.Config.ProfitTakeEnabled {
		m.runProfitTake(byTicker, &out)
	}
	if m.Config.LossCutEnabled {
		m.runLossCut(byTicker, &out)
	}
	return out
}

type tier struct {
	thresholdPct float64
	actionPct    float64
}

func (m *Manager) runDipBuy(byTicker map[string]autotrader.EnrichedPosition, out *Outcome) {
	trades, err := m.Ledger.ActiveByModes(autotrader.ModeLongTerm)
	if err != nil {
		m.Log.Warn().Err(err).Msg("dip-buy: fetch active long-term trades failed")
		return
	}

	for _, t := range trades {
		if strings.HasPrefix(t.Notes, dipBuyNotePrefix) {
			continue // only the initial entry qualifies
		}
		pos, ok := byTicker[t.Ticker]
		if !ok || pos.Position == 0 || pos.AvgCost <= 0 {
			continue
		}
		dipPct := (pos.MktPrice - pos.AvgCost) / pos.AvgCost * 100
		isGoldMine := strings.HasPrefix(t.Notes, "Gold Mine")

		tiers := []tier{
			{m.Config.DipBuyTier1Pct, m.Config.DipBuyTier1SizePct},
			{m.Config.DipBuyTier2Pct, dipTier2Size(m.Config, isGoldMine)},
		}
		if !isGoldMine {
			tiers = append(tiers, tier{m.Config.DipBuyTier3Pct, m.Config.DipBuyTier3SizePct})
		}

		selected, ok := selectTier(dipPct, tiers, true)
		if !ok {
			continue
		}

		if m.onCooldown(t.Ticker, autotrader.SourceDipBuy, m.Config.DipBuyCooldownHours) {
			out.Skipped["dip_buy_cooldown"]++
			continue
		}

		maxPositionDollar := math.Min(m.Config.PortfolioValue*m.Config.MaxPositionPct/100, 0.10*m.Config.MaxTotalAllocation)
		if math.Abs(pos.Position)*pos.MktPrice >= maxPositionDollar {
			out.Skipped["dip_buy_max_position"]++
			continue
		}

		addQty := math.Max(1, math.Floor(t.Quantity*selected.actionPct/100))
		addDollar := addQty * pos.MktPrice

		deployed, err := m.Ledger.SumActivePositionSize()
		if err != nil {
			out.Skipped["dip_buy_ledger_error"]++
			continue
		}
		if deployed+addDollar > m.Config.MaxTotalAllocation {
			out.Skipped["dip_buy_allocation_cap"]++
			continue
		}

		if err := m.execute(t.Ticker, autotrader.SideBuy, addQty, addDollar, autotrader.ModeLongTerm, autotrader.EntryDipBuy, autotrader.SourceDipBuy,
			fmt.Sprintf("%s tier %d add-on (dip %.2f%%)", dipBuyNotePrefix, selected.tierIndex, dipPct), map[string]string{"tier": tierLabel(selected.tierIndex)}); err != nil {
			out.Skipped["dip_buy_execute_error"]++
			continue
		}
		out.DipBuys = append(out.DipBuys, t.Ticker)
	}
}

func dipTier2Size(cfg autotrader.AutoTraderConfig, isGoldMine bool) float64 {
	if isGoldMine {
		return cfg.DipBuyTier2SizePct / 2
	}
	return cfg.DipBuyTier2SizePct
}

func (m *Manager) runProfitTake(byTicker map[string]autotrader.EnrichedPosition, out *Outcome) {
	trades, err := m.Ledger.ActiveByModes(autotrader.ModeLongTerm)
	if err != nil {
		m.Log.Warn().Err(err).Msg("profit-take: fetch active long-term trades failed")
		return
	}

	for _, t := range trades {
		pos, ok := byTicker[t.Ticker]
		if !ok || pos.Position == 0 || pos.AvgCost <= 0 {
			continue
		}
		gainPct := (pos.MktPrice - pos.AvgCost) / pos.AvgCost * 100

		tiers := []tier{
			{m.Config.ProfitTakeTier1Pct, m.Config.ProfitTakeTier1TrimPct},
			{m.Config.ProfitTakeTier2Pct, m.Config.ProfitTakeTier2TrimPct},
			{m.Config.ProfitTakeTier3Pct, m.Config.ProfitTakeTier3TrimPct},
		}
		selected, ok := selectTier(gainPct, tiers, false)
		if !ok {
			continue
		}

		if m.tierAlreadyHandled(t.Ticker, autotrader.SourceProfitTake, selected.tierIndex) {
			out.Skipped["profit_take_already_handled"]++
			continue
		}

		originalQty := t.Quantity
		currentQty := math.Abs(pos.Position)
		trimQty := math.Floor(currentQty * selected.actionPct / 100)
		minHold := math.Ceil(originalQty * m.Config.MinHoldPct / 100)
		if currentQty-trimQty < minHold {
			trimQty = currentQty - minHold
		}
		if trimQty < 1 {
			out.Skipped["profit_take_trim_too_small"]++
			continue
		}

		trimDollar := trimQty * pos.MktPrice
		if err := m.execute(t.Ticker, autotrader.SideSell, trimQty, trimDollar, autotrader.ModeLongTerm, autotrader.EntryProfitTake, autotrader.SourceProfitTake,
			fmt.Sprintf("Profit take tier %d trim (gain %.2f%%)", selected.tierIndex, gainPct), map[string]string{"tier": tierLabel(selected.tierIndex)}); err != nil {
			out.Skipped["profit_take_execute_error"]++
			continue
		}
		out.ProfitTakes = append(out.ProfitTakes, t.Ticker)
	}
}

func (m *Manager) runLossCut(byTicker map[string]autotrader.EnrichedPosition, out *Outcome) {
	trades, err := m.Ledger.ActiveByModes(autotrader.ModeLongTerm, autotrader.ModeSwingTrade)
	if err != nil {
		m.Log.Warn().Err(err).Msg("loss-cut: fetch active trades failed")
		return
	}
	now := m.Clock.Now()

	for _, t := range trades {
		pos, ok := byTicker[t.Ticker]
		if !ok || pos.Position == 0 || pos.AvgCost <= 0 {
			continue
		}
		holdDays := int(now.Sub(t.OpenedAt).Hours() / 24)
		if holdDays < m.Config.LossCutMinHoldDays {
			continue
		}

		isShort := pos.Position < 0
		var lossPct float64
		if isShort {
			lossPct = (pos.MktPrice - pos.AvgCost) / pos.AvgCost * 100
		} else {
			lossPct = (pos.AvgCost - pos.MktPrice) / pos.AvgCost * 100
		}

		tiers := []tier{
			{m.Config.LossCutTier1Pct, m.Config.LossCutTier1SellPct},
			{m.Config.LossCutTier2Pct, m.Config.LossCutTier2SellPct},
			{m.Config.LossCutTier3Pct, m.Config.LossCutTier3SellPct},
		}
		selected, ok := selectTier(lossPct, tiers, false)
		if !ok {
			continue
		}

		if m.tierAlreadyHandled(t.Ticker, autotrader.SourceLossCut, selected.tierIndex) {
			out.Skipped["loss_cut_already_handled"]++
			continue
		}

		currentQty := math.Abs(pos.Position)
		var sellQty float64
		if selected.actionPct >= 100 {
			sellQty = currentQty
		} else {
			sellQty = math.Floor(currentQty * selected.actionPct / 100)
		}
		if sellQty < 1 {
			out.Skipped["loss_cut_qty_too_small"]++
			continue
		}

		side := autotrader.SideSell
		if isShort {
			side = autotrader.SideBuy
		}
		sellDollar := sellQty * pos.MktPrice
		if err := m.execute(t.Ticker, side, sellQty, sellDollar, t.Mode, autotrader.EntryLossCut, autotrader.SourceLossCut,
			fmt.Sprintf("Loss cut tier %d (loss %.2f%%, held %dd)", selected.tierIndex, lossPct, holdDays), map[string]string{"tier": tierLabel(selected.tierIndex)}); err != nil {
			out.Skipped["loss_cut_execute_error"]++
			continue
		}
		out.LossCuts = append(out.LossCuts, t.Ticker)
	}
}

type selectedTier struct {
	tierIndex int
	actionPct float64
}

// selectTier picks the highest-magnitude (dip-buy) or highest-threshold
// (profit-take/loss-cut) tier whose threshold has been crossed.
// byMagnitude=true evaluates abs(value) against abs(threshold) (dip-buy, where
// value is negative); byMagnitude=false evaluates value >= threshold ascending.
func selectTier(value float64, tiers []tier, byMagnitude bool) (selectedTier, bool) {
	best := -1
	for i, tr := range tiers {
		if tr.thresholdPct <= 0 {
			continue
		}
		triggered := false
		if byMagnitude {
			triggered = value <= -tr.thresholdPct
		} else {
			triggered = value >= tr.thresholdPct
		}
		if triggered {
			best = i
		}
	}
	if best < 0 {
		return selectedTier{}, false
	}
	return selectedTier{tierIndex: best + 1, actionPct: tiers[best].actionPct}, true
}

func tierLabel(tierIndex int) string {
	return fmt.Sprintf("%d", tierIndex)
}

func (m *Manager) onCooldown(ticker string, source autotrader.EventSource, cooldownHours int) bool {
	ev, err := m.Events.MostRecentBySourceTicker(ticker, source, autotrader.ActionExecuted)
	if err != nil || ev == nil {
		return false
	}
	return m.Clock.Now().Sub(ev.CreatedAt) < time.Duration(cooldownHours)*time.Hour
}

func (m *Manager) tierAlreadyHandled(ticker string, source autotrader.EventSource, tierIndex int) bool {
	events, err := m.Events.EventsByTickerAndSource(ticker, source)
	if err != nil {
		return false
	}
	label := tierLabel(tierIndex)
	for _, e := range events {
		if e.Action == autotrader.ActionExecuted && e.Metadata["tier"] == label {
			return true
		}
	}
	return false
}

func (m *Manager) execute(ticker string, side autotrader.Side, qty, dollarSize float64, mode autotrader.TradeMode, trigger autotrader.EntryTriggerType, source autotrader.EventSource, note string, metadata map[string]string) error {
	result, err := m.Broker.PlaceMarket(autotrader.MarketOrderRequest{Symbol: ticker, Side: side, Quantity: qty})
	if err != nil {
		m.appendEvent(ticker, source, autotrader.EventError, autotrader.ActionFailed, mode, err.Error(), metadata)
		return err
	}

	now := m.Clock.Now()
	t := autotrader.Trade{
		ID: m.NewID(), Ticker: ticker, Mode: mode, Signal: side,
		Quantity: qty, PositionSize: dollarSize, Status: autotrader.StatusSubmitted,
		OpenedAt: now, EntryTriggerType: trigger, Notes: note,
	}
	if result != nil {
		t.BrokerOrderID = &result.OrderID
	}
	if err := m.Ledger.Create(t); err != nil {
		m.appendEvent(ticker, source, autotrader.EventError, autotrader.ActionFailed, mode, err.Error(), metadata)
		return err
	}

	m.appendEvent(ticker, source, autotrader.EventSuccess, autotrader.ActionExecuted, mode, note, metadata)
	return nil
}

func (m *Manager) appendEvent(ticker string, source autotrader.EventSource, eventType autotrader.EventType, action autotrader.EventAction, mode autotrader.TradeMode, message string, metadata map[string]string) {
	if err := m.Events.Append(autotrader.AutoTradeEvent{
		ID: m.NewID(), Ticker: ticker, EventType: eventType, Action: action, Source: source,
		Mode: mode, Message: message, Metadata: metadata, CreatedAt: m.Clock.Now(),
	}); err != nil {
		m.Log.Warn().Err(err).Str("ticker", ticker).Msg("append position-manager event failed")
	}
}

