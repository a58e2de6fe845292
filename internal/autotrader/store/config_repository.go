package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
)

// ConfigRepository stores AutoTraderConfig as keyed rows under id "default"
// (string values, typed accessors) so the config can be hot-edited without a
// process restart.
type ConfigRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewConfigRepository(db *sql.DB, log zerolog.Logger) *ConfigRepository {
	return &ConfigRepository{db: db, log: log.With().Str("repo", "auto_trader_config").Logger()}
}

func (r *ConfigRepository) get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM auto_trader_config WHERE id = 'default' AND key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get config %s: %w", key, err)
	}
	return &value, nil
}

func (r *ConfigRepository) set(key, value string) error {
	_, err := r.db.Exec(`
		INSERT INTO auto_trader_config (id, key, value, updated_at) VALUES ('default', ?, ?, ?)
		ON CONFLICT(id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	return nil
}

func (r *ConfigRepository) getFloat(key string, def float64) float64 {
	v, err := r.get(key)
	if err != nil || v == nil {
		return def
	}
	f, err := strconv.ParseFloat(*v, 64)
	if err != nil {
		r.log.Warn().Str("key", key).Str("value", *v).Msg("failed to parse float config value")
		return def
	}
	return f
}

func (r *ConfigRepository) getInt(key string, def int) int {
	return int(r.getFloat(key, float64(def)))
}

func (r *ConfigRepository) getBool(key string, def bool) bool {
	v, err := r.get(key)
	if err != nil || v == nil {
		return def
	}
	return *v == "true" || *v == "1"
}

func (r *ConfigRepository) getString(key, def string) string {
	v, err := r.get(key)
	if err != nil || v == nil {
		return def
	}
	return *v
}

// Load builds an AutoTraderConfig from stored rows, falling back to defaults
// for any key never written (first run).
func (r *ConfigRepository) Load() autotrader.AutoTraderConfig {
	d := autotrader.DefaultAutoTraderConfig()
	return autotrader.AutoTraderConfig{
		Enabled:          r.getBool("enabled", d.Enabled),
		AccountID:        r.getString("account_id", d.AccountID),
		MaxPositions:     r.getInt("max_positions", d.MaxPositions),
		PositionSize:     r.getFloat("position_size", d.PositionSize),
		UseDynamicSizing: r.getBool("use_dynamic_sizing", d.UseDynamicSizing),
		PortfolioValue:   r.getFloat("portfolio_value", d.PortfolioValue),

		MaxTotalAllocation: r.getFloat("max_total_allocation", d.MaxTotalAllocation),
		MaxDailyDeployment: r.getFloat("max_daily_deployment", d.MaxDailyDeployment),

		MaxPositionPct:    r.getFloat("max_position_pct", d.MaxPositionPct),
		BaseAllocationPct: r.getFloat("base_allocation_pct", d.BaseAllocationPct),
		RiskPerTradePct:   r.getFloat("risk_per_trade_pct", d.RiskPerTradePct),
		MaxSectorPct:      r.getFloat("max_sector_pct", d.MaxSectorPct),

		EarningsAvoidEnabled: r.getBool("earnings_avoid_enabled", d.EarningsAvoidEnabled),
		EarningsBlackoutDays: r.getInt("earnings_blackout_days", d.EarningsBlackoutDays),

		DipBuyEnabled:       r.getBool("dip_buy_enabled", d.DipBuyEnabled),
		DipBuyTier1Pct:      r.getFloat("dip_buy_tier1_pct", d.DipBuyTier1Pct),
		DipBuyTier1SizePct:  r.getFloat("dip_buy_tier1_size_pct", d.DipBuyTier1SizePct),
		DipBuyTier2Pct:      r.getFloat("dip_buy_tier2_pct", d.DipBuyTier2Pct),
		DipBuyTier2SizePct:  r.getFloat("dip_buy_tier2_size_pct", d.DipBuyTier2SizePct),
		DipBuyTier3Pct:      r.getFloat("dip_buy_tier3_pct", d.DipBuyTier3Pct),
		DipBuyTier3SizePct:  r.getFloat("dip_buy_tier3_size_pct", d.DipBuyTier3SizePct),
		DipBuyCooldownHours: r.getInt("dip_buy_cooldown_hours", d.DipBuyCooldownHours),

		ProfitTakeEnabled:      r.getBool("profit_take_enabled", d.ProfitTakeEnabled),
		ProfitTakeTier1Pct:     r.getFloat("profit_take_tier1_pct", d.ProfitTakeTier1Pct),
		ProfitTakeTier1TrimPct: r.getFloat("profit_take_tier1_trim_pct", d.ProfitTakeTier1TrimPct),
		ProfitTakeTier2Pct:     r.getFloat("profit_take_tier2_pct", d.ProfitTakeTier2Pct),
		ProfitTakeTier2TrimPct: r.getFloat("profit_take_tier2_trim_pct", d.ProfitTakeTier2TrimPct),
		ProfitTakeTier3Pct:     r.getFloat("profit_take_tier3_pct", d.ProfitTakeTier3Pct),
		ProfitTakeTier3TrimPct: r.getFloat("profit_take_tier3_trim_pct", d.ProfitTakeTier3TrimPct),
		MinHoldPct:             r.getFloat("min_hold_pct", d.MinHoldPct),

		LossCutEnabled:     r.getBool("loss_cut_enabled", d.LossCutEnabled),
		LossCutTier1Pct:    r.getFloat("loss_cut_tier1_pct", d.LossCutTier1Pct),
		LossCutTier1SellPct: r.getFloat("loss_cut_tier1_sell_pct", d.LossCutTier1SellPct),
		LossCutTier2Pct:    r.getFloat("loss_cut_tier2_pct", d.LossCutTier2Pct),
		LossCutTier2SellPct: r.getFloat("loss_cut_tier2_sell_pct", d.LossCutTier2SellPct),
		LossCutTier3Pct:    r.getFloat("loss_cut_tier3_pct", d.LossCutTier3Pct),
		LossCutTier3SellPct: r.getFloat("loss_cut_tier3_sell_pct", d.LossCutTier3SellPct),
		LossCutMinHoldDays: r.getInt("loss_cut_min_hold_days", d.LossCutMinHoldDays),

		MinScannerConfidence:        r.getFloat("min_scanner_confidence", d.MinScannerConfidence),
		MinFAConfidence:             r.getFloat("min_fa_confidence", d.MinFAConfidence),
		MinSuggestedFindsConviction: r.getInt("min_suggested_finds_conviction", d.MinSuggestedFindsConviction),

		ConsecutiveLossDayThreshold: r.getInt("consecutive_loss_day_threshold", d.ConsecutiveLossDayThreshold),
	}
}

// SetPortfolioValue is called after each reconciliation to persist the
// self-updating, monotonically-growing portfolio value baseline.
func (r *ConfigRepository) SetPortfolioValue(v float64) error {
	return r.set("portfolio_value", strconv.FormatFloat(v, 'f', 2, 64))
}
