package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
)

// SnapshotRepository persists the once-per-day portfolio snapshot (§4.9).
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{db: db, log: log.With().Str("repo", "portfolio_snapshot").Logger()}
}

// ExistsForDate reports whether a snapshot was already recorded for this account/ET-date.
func (r *SnapshotRepository) ExistsForDate(accountID, dateET string) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM portfolio_snapshots WHERE account_id = ? AND snapshot_date = ?`, accountID, dateET).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check snapshot exists: %w", err)
	}
	return count > 0, nil
}

// Create persists one snapshot; the unique (account_id, snapshot_date) index
// makes a duplicate insert for the same ET day a no-op conflict rather than an error.
func (r *SnapshotRepository) Create(s autotrader.PortfolioSnapshot, dateET string) error {
	positionsJSON, err := json.Marshal(s.Positions)
	if err != nil {
		return fmt.Errorf("marshal snapshot positions: %w", err)
	}
	_, err = r.db.Exec(`
		INSERT INTO portfolio_snapshots (id, account_id, total_value, total_pnl, positions, open_trade_count, created_at, snapshot_date)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(account_id, snapshot_date) DO NOTHING
	`, s.ID, s.AccountID, s.TotalValue, s.TotalPnL, string(positionsJSON), s.OpenTradeCount, s.CreatedAt.Unix(), dateET)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	return nil
}

