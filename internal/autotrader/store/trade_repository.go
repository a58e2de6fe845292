package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
	"github.com/quantedge/scheduler-core/internal/autotrader/riskgate"
)

const tradeColumns = `id, ticker, mode, signal, strategy_source, strategy_url, strategy_video_id,
	strategy_video_hdg, scanner_confidence, fa_confidence, fa_recommendation, entry_price,
	stop_loss, target_price, target_price2, risk_reward, quantity, position_size,
	broker_order_id, status, fill_price, close_price, pnl, pnl_percent, r_multiple,
	opened_at, filled_at, closed_at, close_reason, entry_trigger_type, dist_to_ma20_pct,
	macd_hist_incr, volume_vs_avg10_pct, regime_alignment, notes`

// TradeRepository persists the trade ledger in the append-then-update style
// required by the reconciliation and risk-gate components.
type TradeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewTradeRepository(db *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{db: db, log: log.With().Str("repo", "trade").Logger()}
}

// Create inserts a new ledger row.
func (r *TradeRepository) Create(t autotrader.Trade) error {
	_, err := r.db.Exec(`
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`,
		t.ID, t.Ticker, string(t.Mode), string(t.Signal),
		nullString(t.StrategySource), nullString(t.StrategyURL), nullString(t.StrategyVideoID),
		nullString(t.StrategyVideoHdg), nullFloat(t.ScannerConfidence), nullFloat(t.FAConfidence),
		nullString(t.FARecommendation), nullFloat(t.EntryPrice), nullFloat(t.StopLoss),
		nullFloat(t.TargetPrice), nullFloat(t.TargetPrice2), nullString(t.RiskReward),
		t.Quantity, t.PositionSize, nullString(t.BrokerOrderID), string(t.Status),
		nullFloat(t.FillPrice), nullFloat(t.ClosePrice), nullFloat(t.PnL), nullFloat(t.PnLPercent),
		nullFloat(t.RMultiple), t.OpenedAt.Unix(), nullTime(t.FilledAt), nullTime(t.ClosedAt),
		nullCloseReason(t.CloseReason), string(t.EntryTriggerType), nullFloat(t.DistanceToMA20Pct),
		nullBool(t.MACDHistIncr), nullFloat(t.VolumeVsAvg10Pct), nullString(t.RegimeAlignment), t.Notes,
	)
	if err != nil {
		return fmt.Errorf("create trade: %w", err)
	}
	return nil
}

// Update persists mutable fields of an existing ledger row (status, fill/close info, P&L).
func (r *TradeRepository) Update(t autotrader.Trade) error {
	_, err := r.db.Exec(`
		UPDATE trades SET
			status = ?, fill_price = ?, close_price = ?, pnl = ?, pnl_percent = ?, r_multiple = ?,
			filled_at = ?, closed_at = ?, close_reason = ?, dist_to_ma20_pct = ?, macd_hist_incr = ?,
			volume_vs_avg10_pct = ?, regime_alignment = ?, notes = ?, broker_order_id = ?
		WHERE id = ?
	`,
		string(t.Status), nullFloat(t.FillPrice), nullFloat(t.ClosePrice), nullFloat(t.PnL),
		nullFloat(t.PnLPercent), nullFloat(t.RMultiple), nullTime(t.FilledAt), nullTime(t.ClosedAt),
		nullCloseReason(t.CloseReason), nullFloat(t.DistanceToMA20Pct), nullBool(t.MACDHistIncr),
		nullFloat(t.VolumeVsAvg10Pct), nullString(t.RegimeAlignment), t.Notes, nullString(t.BrokerOrderID),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update trade %s: %w", t.ID, err)
	}
	return nil
}

// ActiveTrades returns all ledger rows in a non-terminal state.
func (r *TradeRepository) ActiveTrades() ([]autotrader.Trade, error) {
	rows, err := r.db.Query(`SELECT ` + tradeColumns + ` FROM trades WHERE status IN ('PENDING','SUBMITTED','FILLED','PARTIAL')`)
	if err != nil {
		return nil, fmt.Errorf("query active trades: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// ActiveByTicker returns active ledger rows for one ticker.
func (r *TradeRepository) ActiveByTicker(ticker string) ([]autotrader.Trade, error) {
	rows, err := r.db.Query(`SELECT `+tradeColumns+` FROM trades WHERE ticker = ? AND status IN ('PENDING','SUBMITTED','FILLED','PARTIAL')`, ticker)
	if err != nil {
		return nil, fmt.Errorf("query active trades by ticker: %w", err)
	}
	defer rows.Close()
	return scanTrades(rows)
}

// IsActiveTicker reports whether any active ledger row exists for ticker.
// Satisfies candidates.ActiveTickerCheck.
func (r *TradeRepository) IsActiveTicker(ticker string) (bool, error) {
	trades, err := r.ActiveByTicker(ticker)
	if err != nil {
		return false, err
	}
	return len(trades) > 0, nil
}

// ActiveByModes returns active ledger rows for the given trade mode(s).
func (r *TradeRepository) ActiveByModes(modes ...autotrader.TradeMode) ([]autotrader.Trade, error) {
	all, err := r.ActiveTrades()
	if err != nil {
		return nil, err
	}
	wanted := map[autotrader.TradeMode]bool{}
	for _, m := range modes {
		wanted[m] = true
	}
	var out []autotrader.Trade
	for _, t := range all {
		if wanted[t.Mode] {
			out = append(out, t)
		}
	}
	return out, nil
}

// SumActivePositionSize implements riskgate.LedgerView.
func (r *TradeRepository) SumActivePositionSize() (float64, error) {
	var sum sql.NullFloat64
	err := r.db.QueryRow(`SELECT SUM(position_size) FROM trades WHERE status IN ('PENDING','SUBMITTED','FILLED','PARTIAL')`).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum active position size: %w", err)
	}
	return sum.Float64, nil
}

// SumActivePositionSizeBySector implements riskgate.LedgerView.
func (r *TradeRepository) SumActivePositionSizeBySector(sector string, industryOf func(string) (string, error)) (float64, error) {
	active, err := r.ActiveTrades()
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, t := range active {
		ind, err := industryOf(t.Ticker)
		if err != nil || ind != sector {
			continue
		}
		sum += t.PositionSize
	}
	return sum, nil
}

// RecentClosedTrades implements riskgate.LedgerView, scoped by source/video/mode.
// Scope is matched against strategy_source, strategy_video_id and mode.
func (r *TradeRepository) RecentClosedTrades(scope riskgate.ScopeKey, limit int) ([]riskgate.ClosedTrade, error) {
	query := `SELECT closed_at, pnl FROM trades
		WHERE status IN ('STOPPED','TARGET_HIT','CLOSED') AND closed_at IS NOT NULL
		AND strategy_source = ? AND mode = ?`
	args := []interface{}{scope.SourceName, string(scope.Mode)}
	if scope.StrategyVideoID != nil {
		query += ` AND strategy_video_id = ?`
		args = append(args, *scope.StrategyVideoID)
	}
	query += ` ORDER BY closed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent closed trades: %w", err)
	}
	defer rows.Close()

	var out []riskgate.ClosedTrade
	for rows.Next() {
		var closedAtUnix int64
		var pnl sql.NullFloat64
		if err := rows.Scan(&closedAtUnix, &pnl); err != nil {
			return nil, fmt.Errorf("scan closed trade: %w", err)
		}
		out = append(out, riskgate.ClosedTrade{ClosedAt: time.Unix(closedAtUnix, 0), PnL: pnl.Float64})
	}
	return out, rows.Err()
}

func scanTrades(rows *sql.Rows) ([]autotrader.Trade, error) {
	var out []autotrader.Trade
	for rows.Next() {
		t, err := scanTradeRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTradeRow(rows *sql.Rows) (autotrader.Trade, error) {
	var t autotrader.Trade
	var mode, signal, status, entryTrigger string
	var strategySource, strategyURL, strategyVideoID, strategyVideoHdg, faRecommendation sql.NullString
	var brokerOrderID, riskReward, closeReason, regimeAlignment sql.NullString
	var scannerConf, faConf, entryPrice, stopLoss, targetPrice, targetPrice2 sql.NullFloat64
	var fillPrice, closePrice, pnl, pnlPercent, rMultiple sql.NullFloat64
	var distToMA20, volumeVsAvg10 sql.NullFloat64
	var macdHistIncr sql.NullInt64
	var openedAtUnix int64
	var filledAtUnix, closedAtUnix sql.NullInt64

	err := rows.Scan(
		&t.ID, &t.Ticker, &mode, &signal, &strategySource, &strategyURL, &strategyVideoID,
		&strategyVideoHdg, &scannerConf, &faConf, &faRecommendation, &entryPrice,
		&stopLoss, &targetPrice, &targetPrice2, &riskReward, &t.Quantity, &t.PositionSize,
		&brokerOrderID, &status, &fillPrice, &closePrice, &pnl, &pnlPercent, &rMultiple,
		&openedAtUnix, &filledAtUnix, &closedAtUnix, &closeReason, &entryTrigger, &distToMA20,
		&macdHistIncr, &volumeVsAvg10, &regimeAlignment, &t.Notes,
	)
	if err != nil {
		return t, fmt.Errorf("scan trade: %w", err)
	}

	t.Mode = autotrader.TradeMode(mode)
	t.Signal = autotrader.Side(signal)
	t.Status = autotrader.TradeStatus(status)
	t.EntryTriggerType = autotrader.EntryTriggerType(entryTrigger)
	t.StrategySource = ptrString(strategySource)
	t.StrategyURL = ptrString(strategyURL)
	t.StrategyVideoID = ptrString(strategyVideoID)
	t.StrategyVideoHdg = ptrString(strategyVideoHdg)
	t.FARecommendation = ptrString(faRecommendation)
	t.BrokerOrderID = ptrString(brokerOrderID)
	t.RiskReward = ptrString(riskReward)
	t.RegimeAlignment = ptrString(regimeAlignment)
	t.ScannerConfidence = ptrFloat(scannerConf)
	t.FAConfidence = ptrFloat(faConf)
	t.EntryPrice = ptrFloat(entryPrice)
	t.StopLoss = ptrFloat(stopLoss)
	t.TargetPrice = ptrFloat(targetPrice)
	t.TargetPrice2 = ptrFloat(targetPrice2)
	t.FillPrice = ptrFloat(fillPrice)
	t.ClosePrice = ptrFloat(closePrice)
	t.PnL = ptrFloat(pnl)
	t.PnLPercent = ptrFloat(pnlPercent)
	t.RMultiple = ptrFloat(rMultiple)
	t.DistanceToMA20Pct = ptrFloat(distToMA20)
	t.VolumeVsAvg10Pct = ptrFloat(volumeVsAvg10)
	t.OpenedAt = time.Unix(openedAtUnix, 0)
	if filledAtUnix.Valid {
		tm := time.Unix(filledAtUnix.Int64, 0)
		t.FilledAt = &tm
	}
	if closedAtUnix.Valid {
		tm := time.Unix(closedAtUnix.Int64, 0)
		t.ClosedAt = &tm
	}
	if closeReason.Valid {
		cr := autotrader.CloseReason(closeReason.String)
		t.CloseReason = &cr
	}
	if macdHistIncr.Valid {
		b := macdHistIncr.Int64 != 0
		t.MACDHistIncr = &b
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullCloseReason(cr *autotrader.CloseReason) sql.NullString {
	if cr == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*cr), Valid: true}
}

func nullBool(b *bool) sql.NullInt64 {
	if b == nil {
		return sql.NullInt64{}
	}
	v := int64(0)
	if *b {
		v = 1
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
