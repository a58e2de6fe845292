package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
)

// EventRepository is the append-only audit/cooldown/dedup log.
type EventRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewEventRepository(db *sql.DB, log zerolog.Logger) *EventRepository {
	return &EventRepository{db: db, log: log.With().Str("repo", "auto_trade_event").Logger()}
}

// Append writes one audit row. Metadata marshals to JSON; marshal failure degrades to "{}" rather than blocking the write.
func (r *EventRepository) Append(e autotrader.AutoTradeEvent) error {
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		metaJSON = []byte("{}")
	}
	_, err = r.db.Exec(`
		INSERT INTO auto_trade_events (id, ticker, event_type, action, source, mode, message, metadata, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, e.ID, e.Ticker, string(e.EventType), string(e.Action), string(e.Source), string(e.Mode), e.Message, string(metaJSON), e.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// MostRecentBySourceTicker returns the most recent event for (ticker, source, action), or nil if none exists.
func (r *EventRepository) MostRecentBySourceTicker(ticker string, source autotrader.EventSource, action autotrader.EventAction) (*autotrader.AutoTradeEvent, error) {
	row := r.db.QueryRow(`
		SELECT id, ticker, event_type, action, source, mode, message, metadata, created_at
		FROM auto_trade_events WHERE ticker = ? AND source = ? AND action = ?
		ORDER BY created_at DESC LIMIT 1
	`, ticker, string(source), string(action))

	var e autotrader.AutoTradeEvent
	var eventType, action2, source2, mode, metaJSON string
	var createdAtUnix int64
	err := row.Scan(&e.ID, &e.Ticker, &eventType, &action2, &source2, &mode, &e.Message, &metaJSON, &createdAtUnix)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most recent event: %w", err)
	}
	e.EventType = autotrader.EventType(eventType)
	e.Action = autotrader.EventAction(action2)
	e.Source = autotrader.EventSource(source2)
	e.Mode = autotrader.TradeMode(mode)
	e.CreatedAt = time.Unix(createdAtUnix, 0)
	_ = json.Unmarshal([]byte(metaJSON), &e.Metadata)
	return &e, nil
}

// EventsByTickerAndSource returns all events for a ticker from one source, most recent first.
// Used by PositionManager to dedup tier-based profit-take/loss-cut actions.
func (r *EventRepository) EventsByTickerAndSource(ticker string, source autotrader.EventSource) ([]autotrader.AutoTradeEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, ticker, event_type, action, source, mode, message, metadata, created_at
		FROM auto_trade_events WHERE ticker = ? AND source = ? ORDER BY created_at DESC
	`, ticker, string(source))
	if err != nil {
		return nil, fmt.Errorf("events by ticker/source: %w", err)
	}
	defer rows.Close()

	var out []autotrader.AutoTradeEvent
	for rows.Next() {
		var e autotrader.AutoTradeEvent
		var eventType, action, source2, mode, metaJSON string
		var createdAtUnix int64
		if err := rows.Scan(&e.ID, &e.Ticker, &eventType, &action, &source2, &mode, &e.Message, &metaJSON, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.EventType = autotrader.EventType(eventType)
		e.Action = autotrader.EventAction(action)
		e.Source = autotrader.EventSource(source2)
		e.Mode = autotrader.TradeMode(mode)
		e.CreatedAt = time.Unix(createdAtUnix, 0)
		_ = json.Unmarshal([]byte(metaJSON), &e.Metadata)
		out = append(out, e)
	}
	return out, rows.Err()
}
