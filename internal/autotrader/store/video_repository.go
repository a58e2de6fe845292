package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader"
)

// VideoRepository reads the strategy-video catalogue. It is written exclusively
// by the independent transcript-ingestion pipeline (out of scope here); this
// core only consumes tracked rows.
type VideoRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewVideoRepository(db *sql.DB, log zerolog.Logger) *VideoRepository {
	return &VideoRepository{db: db, log: log.With().Str("repo", "strategy_video").Logger()}
}

// TrackedDailySignals returns tracked daily_signal videos whose trade_date matches todayET.
func (r *VideoRepository) TrackedDailySignals(todayET string) ([]autotrader.StrategyVideo, error) {
	rows, err := r.db.Query(`
		SELECT video_id, source_handle, source_name, canonical_url, video_heading, strategy_type,
			timeframe, applicable_timeframes, execution_window_start, execution_window_end,
			trade_date, extracted_signals, status, exempt_from_deactivation
		FROM strategy_videos WHERE status = 'tracked' AND strategy_type = 'daily_signal' AND trade_date = ?
	`, todayET)
	if err != nil {
		return nil, fmt.Errorf("tracked daily signals: %w", err)
	}
	defer rows.Close()
	return scanVideos(rows)
}

// TrackedGenericStrategies returns tracked generic_strategy videos applicable to the given timeframe.
func (r *VideoRepository) TrackedGenericStrategies(timeframe autotrader.TradeMode) ([]autotrader.StrategyVideo, error) {
	rows, err := r.db.Query(`
		SELECT video_id, source_handle, source_name, canonical_url, video_heading, strategy_type,
			timeframe, applicable_timeframes, execution_window_start, execution_window_end,
			trade_date, extracted_signals, status, exempt_from_deactivation
		FROM strategy_videos WHERE status = 'tracked' AND strategy_type = 'generic_strategy'
	`)
	if err != nil {
		return nil, fmt.Errorf("tracked generic strategies: %w", err)
	}
	defer rows.Close()
	videos, err := scanVideos(rows)
	if err != nil {
		return nil, err
	}
	var out []autotrader.StrategyVideo
	for _, v := range videos {
		for _, tf := range v.ApplicableTimeframes {
			if tf == timeframe {
				out = append(out, v)
				break
			}
		}
	}
	return out, nil
}

// ByID fetches a single strategy video regardless of tracked status, for
// execution-window and generic-strategy classification lookups.
func (r *VideoRepository) ByID(videoID string) (*autotrader.StrategyVideo, error) {
	rows, err := r.db.Query(`
		SELECT video_id, source_handle, source_name, canonical_url, video_heading, strategy_type,
			timeframe, applicable_timeframes, execution_window_start, execution_window_end,
			trade_date, extracted_signals, status, exempt_from_deactivation
		FROM strategy_videos WHERE video_id = ?
	`, videoID)
	if err != nil {
		return nil, fmt.Errorf("video by id: %w", err)
	}
	defer rows.Close()
	videos, err := scanVideos(rows)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, nil
	}
	return &videos[0], nil
}

func scanVideos(rows *sql.Rows) ([]autotrader.StrategyVideo, error) {
	var out []autotrader.StrategyVideo
	for rows.Next() {
		var v autotrader.StrategyVideo
		var sourceHandle, sourceName, canonicalURL, videoHeading, winStart, winEnd, tradeDate sql.NullString
		var strategyType, timeframe, applicableJSON, signalsJSON string
		var exempt int

		err := rows.Scan(&v.VideoID, &sourceHandle, &sourceName, &canonicalURL, &videoHeading,
			&strategyType, &timeframe, &applicableJSON, &winStart, &winEnd, &tradeDate,
			&signalsJSON, &v.Status, &exempt)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}

		v.SourceHandle = ptrString(sourceHandle)
		v.SourceName = ptrString(sourceName)
		v.CanonicalURL = ptrString(canonicalURL)
		v.VideoHeading = ptrString(videoHeading)
		v.StrategyType = autotrader.StrategyType(strategyType)
		v.Timeframe = autotrader.TradeMode(timeframe)
		v.ExemptFromDeactivation = exempt != 0
		if tradeDate.Valid {
			d := tradeDate.String
			v.TradeDate = &d
		}
		if winStart.Valid && winEnd.Valid {
			v.ExecutionWindowET = &autotrader.ExecutionWindow{Start: winStart.String, End: winEnd.String}
		}

		var timeframes []string
		_ = json.Unmarshal([]byte(applicableJSON), &timeframes)
		for _, tf := range timeframes {
			v.ApplicableTimeframes = append(v.ApplicableTimeframes, autotrader.TradeMode(tf))
		}

		var rawSignals []struct {
			Ticker            string   `json:"ticker"`
			LongTriggerAbove  *float64 `json:"longTriggerAbove"`
			LongTargets       []float64 `json:"longTargets"`
			ShortTriggerBelow *float64 `json:"shortTriggerBelow"`
			ShortTargets      []float64 `json:"shortTargets"`
		}
		_ = json.Unmarshal([]byte(signalsJSON), &rawSignals)
		for _, rs := range rawSignals {
			v.ExtractedSignals = append(v.ExtractedSignals, autotrader.ExtractedSignal{
				Ticker:            rs.Ticker,
				LongTriggerAbove:  rs.LongTriggerAbove,
				LongTargets:       rs.LongTargets,
				ShortTriggerBelow: rs.ShortTriggerBelow,
				ShortTargets:      rs.ShortTargets,
			})
		}

		out = append(out, v)
	}
	return out, rows.Err()
}
