package autotrader

// AutoTraderConfig is the datastore-backed singleton (row id "default") that
// drives every gate and sizing decision. Unlike the process's env-loaded
// infrastructure config, this record is meant to be edited at runtime.
type AutoTraderConfig struct {
	Enabled       bool
	AccountID     string
	MaxPositions  int
	PositionSize  float64 // fixed-size fallback, dollars
	UseDynamicSizing bool
	PortfolioValue   float64

	MaxTotalAllocation float64
	MaxDailyDeployment float64

	MaxPositionPct   float64
	BaseAllocationPct float64
	RiskPerTradePct  float64
	MaxSectorPct     float64 // >=100 disables the sector gate

	EarningsAvoidEnabled bool
	EarningsBlackoutDays int

	DipBuyEnabled        bool
	DipBuyTier1Pct       float64
	DipBuyTier1SizePct   float64
	DipBuyTier2Pct       float64
	DipBuyTier2SizePct   float64
	DipBuyTier3Pct       float64
	DipBuyTier3SizePct   float64
	DipBuyCooldownHours  int

	ProfitTakeEnabled      bool
	ProfitTakeTier1Pct     float64
	ProfitTakeTier1TrimPct float64
	ProfitTakeTier2Pct     float64
	ProfitTakeTier2TrimPct float64
	ProfitTakeTier3Pct     float64
	ProfitTakeTier3TrimPct float64
	MinHoldPct             float64

	LossCutEnabled        bool
	LossCutTier1Pct       float64
	LossCutTier1SellPct   float64
	LossCutTier2Pct       float64
	LossCutTier2SellPct   float64
	LossCutTier3Pct       float64
	LossCutTier3SellPct   float64
	LossCutMinHoldDays    int

	MinScannerConfidence        float64
	MinFAConfidence             float64
	MinSuggestedFindsConviction int

	ConsecutiveLossDayThreshold int
}

// DefaultAutoTraderConfig returns conservative defaults, used when no row exists yet.
func DefaultAutoTraderConfig() AutoTraderConfig {
	return AutoTraderConfig{
		Enabled:          false,
		MaxPositions:     10,
		PositionSize:     1000,
		UseDynamicSizing: true,
		PortfolioValue:   0,

		MaxTotalAllocation: 50000,
		MaxDailyDeployment: 5000,

		MaxPositionPct:    5,
		BaseAllocationPct: 2,
		RiskPerTradePct:   1,
		MaxSectorPct:      100,

		EarningsAvoidEnabled: true,
		EarningsBlackoutDays: 2,

		DipBuyEnabled:       true,
		DipBuyTier1Pct:      5,
		DipBuyTier1SizePct:  25,
		DipBuyTier2Pct:      10,
		DipBuyTier2SizePct:  35,
		DipBuyTier3Pct:      15,
		DipBuyTier3SizePct:  50,
		DipBuyCooldownHours: 72,

		ProfitTakeEnabled:      true,
		ProfitTakeTier1Pct:     20,
		ProfitTakeTier1TrimPct: 20,
		ProfitTakeTier2Pct:     40,
		ProfitTakeTier2TrimPct: 30,
		ProfitTakeTier3Pct:     75,
		ProfitTakeTier3TrimPct: 50,
		MinHoldPct:             20,

		LossCutEnabled:     true,
		LossCutTier1Pct:    8,
		LossCutTier1SellPct: 25,
		LossCutTier2Pct:    15,
		LossCutTier2SellPct: 50,
		LossCutTier3Pct:    25,
		LossCutTier3SellPct: 100,
		LossCutMinHoldDays: 2,

		MinScannerConfidence:        7,
		MinFAConfidence:             7,
		MinSuggestedFindsConviction: 7,

		ConsecutiveLossDayThreshold: 3,
	}
}
