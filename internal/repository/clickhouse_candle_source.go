package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"RegimeCast/internal/domain/models"
	domrepo "RegimeCast/internal/domain/repository"
	pkgch "RegimeCast/pkg/clickhouse"
	applogger "RegimeCast/pkg/logger"
)

// CHCandleSource implements DataSource over close prices stored in
// ClickHouse candle tables. A reference like "BTC:1h" selects the symbol
// and the timeframe table; the value of each point is the close.
type CHCandleSource struct {
	db    *sql.DB
	limit int
	l     *applogger.Logger
}

func NewCHCandleSource(ch *pkgch.Client, limit int) *CHCandleSource {
	if limit <= 0 {
		limit = 100
	}
	return &CHCandleSource{db: ch.DB(), limit: limit}
}

// SetLogger injects a structured logger.
func (s *CHCandleSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCandleSource) Fetch(ctx context.Context, ref string, asOf time.Time) (models.TimeSeries, string, error) {
	start := time.Now()
	symbol, tf := domrepo.ParseRef(ref)
	table := tableForTF(tf)
	sourceID := fmt.Sprintf("clickhouse:%s:%s", table, symbol)

	const qtpl = `
        SELECT bucket, close
        FROM %s
        WHERE symbol = ? AND bucket <= ?
        ORDER BY bucket DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, asOf, s.limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse candles query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return models.TimeSeries{}, "", fmt.Errorf("fetch candles: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Point, 0, s.limit)
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.TS, &p.Value); err != nil {
			return models.TimeSeries{}, "", fmt.Errorf("scan candle: %w", err)
		}
		tmp = append(tmp, p)
	}
	if err := rows.Err(); err != nil {
		return models.TimeSeries{}, "", fmt.Errorf("rows: %w", err)
	}

	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}

	if s.l != nil {
		s.l.Info("clickhouse candles ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return models.TimeSeries{Ref: ref, Points: tmp}, sourceID, nil
}

func tableForTF(tf domrepo.Timeframe) string {
	switch tf {
	case domrepo.TF1m:
		return "regimecast.candles_1m"
	case domrepo.TF5m:
		return "regimecast.candles_5m"
	case domrepo.TF1h:
		return "regimecast.candles_1h"
	default:
		return "regimecast.candles_1d"
	}
}
