package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
)

const signalColumns = `id, source_name, source_url, strategy_video_id, strategy_video_heading,
	ticker, signal, mode, confidence, entry_price, stop_loss, target_price,
	position_size_override, execute_on_date, execute_at, expires_at, notes, status,
	failure_reason, executed_trade_id, executed_at, allocation_split, allocation_index,
	allow_duplicate_ticker, created_at`

// SignalRepository persists ExternalStrategySignal rows with idempotent creation.
type SignalRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewSignalRepository(db *sql.DB, log zerolog.Logger) *SignalRepository {
	return &SignalRepository{db: db, log: log.With().Str("repo", "external_signal").Logger()}
}

// FindExisting looks up a non-terminal signal matching the identity tuple used for idempotent queueing.
func (r *SignalRepository) FindExisting(sourceName, ticker string, signal autotrader.Side, mode autotrader.TradeMode, executeOnDate string, videoID *string) (*autotrader.ExternalStrategySignal, error) {
	query := `SELECT ` + signalColumns + ` FROM external_strategy_signals
		WHERE source_name = ? AND ticker = ? AND signal = ? AND mode = ? AND execute_on_date = ?
		AND status = 'PENDING' AND COALESCE(strategy_video_id,'') = COALESCE(?,'')`
	row := r.db.QueryRow(query, sourceName, ticker, string(signal), string(mode), executeOnDate, videoID)
	s, err := scanSignalRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find existing signal: %w", err)
	}
	return &s, nil
}

// Create inserts a new PENDING signal. Callers must check FindExisting first for idempotence.
func (r *SignalRepository) Create(s autotrader.ExternalStrategySignal) error {
	_, err := r.db.Exec(`
		INSERT INTO external_strategy_signals (`+signalColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`,
		s.ID, s.SourceName, nullString(s.SourceURL), nullString(s.StrategyVideoID), nullString(s.StrategyVideoHeading),
		s.Ticker, string(s.Signal), string(s.Mode), s.Confidence, nullFloat(s.EntryPrice), nullFloat(s.StopLoss),
		nullFloat(s.TargetPrice), nullFloat(s.PositionSizeOverride), s.ExecuteOnDate, nullTime(s.ExecuteAt), nullTime(s.ExpiresAt),
		s.Notes, string(s.Status), nullString(s.FailureReason), nullString(s.ExecutedTradeID), nullTime(s.ExecutedAt),
		nullInt(s.AllocationSplit), nullInt(s.AllocationIndex), boolInt(s.AllowDuplicateTicker), s.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("create signal: %w", err)
	}
	return nil
}

// Update persists status/result fields on an existing signal.
func (r *SignalRepository) Update(s autotrader.ExternalStrategySignal) error {
	_, err := r.db.Exec(`
		UPDATE external_strategy_signals SET
			status = ?, failure_reason = ?, executed_trade_id = ?, executed_at = ?,
			allocation_split = ?, allocation_index = ?, allow_duplicate_ticker = ?,
			entry_price = ?, stop_loss = ?, target_price = ?
		WHERE id = ?
	`,
		string(s.Status), nullString(s.FailureReason), nullString(s.ExecutedTradeID), nullTime(s.ExecutedAt),
		nullInt(s.AllocationSplit), nullInt(s.AllocationIndex), boolInt(s.AllowDuplicateTicker),
		nullFloat(s.EntryPrice), nullFloat(s.StopLoss), nullFloat(s.TargetPrice),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update signal %s: %w", s.ID, err)
	}
	return nil
}

// DueToday returns PENDING signals whose execute_on_date is today or earlier (ET).
func (r *SignalRepository) DueToday(todayET string) ([]autotrader.ExternalStrategySignal, error) {
	rows, err := r.db.Query(`SELECT `+signalColumns+` FROM external_strategy_signals
		WHERE status = 'PENDING' AND execute_on_date <= ? ORDER BY created_at ASC`, todayET)
	if err != nil {
		return nil, fmt.Errorf("due signals: %w", err)
	}
	defer rows.Close()

	var out []autotrader.ExternalStrategySignal
	for rows.Next() {
		s, err := scanSignalRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanSignalRow(row *sql.Row) (autotrader.ExternalStrategySignal, error) {
	return scanSignal(row)
}

func scanSignalRows(rows *sql.Rows) (autotrader.ExternalStrategySignal, error) {
	return scanSignal(rows)
}

func scanSignal(s scannable) (autotrader.ExternalStrategySignal, error) {
	var out autotrader.ExternalStrategySignal
	var signal, mode, status string
	var sourceURL, videoID, videoHeading, failureReason, executedTradeID sql.NullString
	var entryPrice, stopLoss, targetPrice, positionSizeOverride sql.NullFloat64
	var executeAt, expiresAt, executedAt sql.NullInt64
	var allocSplit, allocIndex sql.NullInt64
	var allowDup int
	var createdAtUnix int64

	err := s.Scan(
		&out.ID, &out.SourceName, &sourceURL, &videoID, &videoHeading,
		&out.Ticker, &signal, &mode, &out.Confidence, &entryPrice, &stopLoss, &targetPrice,
		&positionSizeOverride, &out.ExecuteOnDate, &executeAt, &expiresAt, &out.Notes, &status,
		&failureReason, &executedTradeID, &executedAt, &allocSplit, &allocIndex, &allowDup, &createdAtUnix,
	)
	if err != nil {
		return out, err
	}

	out.Signal = autotrader.Side(signal)
	out.Mode = autotrader.TradeMode(mode)
	out.Status = autotrader.SignalStatus(status)
	out.SourceURL = ptrString(sourceURL)
	out.StrategyVideoID = ptrString(videoID)
	out.StrategyVideoHeading = ptrString(videoHeading)
	out.FailureReason = ptrString(failureReason)
	out.ExecutedTradeID = ptrString(executedTradeID)
	out.EntryPrice = ptrFloat(entryPrice)
	out.StopLoss = ptrFloat(stopLoss)
	out.TargetPrice = ptrFloat(targetPrice)
	out.PositionSizeOverride = ptrFloat(positionSizeOverride)
	out.AllocationSplit = ptrInt(allocSplit)
	out.AllocationIndex = ptrInt(allocIndex)
	out.AllowDuplicateTicker = allowDup != 0
	out.CreatedAt = time.Unix(createdAtUnix, 0)
	if executeAt.Valid {
		tm := time.Unix(executeAt.Int64, 0)
		out.ExecuteAt = &tm
	}
	if expiresAt.Valid {
		tm := time.Unix(expiresAt.Int64, 0)
		out.ExpiresAt = &tm
	}
	if executedAt.Valid {
		tm := time.Unix(executedAt.Int64, 0)
		out.ExecutedAt = &tm
	}
	return out, nil
}
