package marketdata

import (
	"context"
	"fmt"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClickHouseConfig holds connection settings for the candle store.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Table    string
	Username string
	Password string
}

// ClickHouseProvider fetches historical candles from a ClickHouse table of
// canonicalized klines (symbol, interval, open_time_ms, OHLCV).
type ClickHouseProvider struct {
	conn   driver.Conn
	cfg    ClickHouseConfig
	logger *zap.Logger
}

// NewClickHouseProvider opens a connection and verifies it with a ping.
func NewClickHouseProvider(ctx context.Context, cfg ClickHouseConfig, logger *zap.Logger) (*ClickHouseProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &ClickHouseProvider{conn: conn, cfg: cfg, logger: logger}, nil
}

// FetchHistorical loads candles for [start, end] in ascending timestamp
// order. Prices are stored as Decimal128 and cast to Float64 in the query;
// the provider rebuilds decimals on the way out.
func (p *ClickHouseProvider) FetchHistorical(ctx context.Context, symbol string, timeframe Timeframe, start, end time.Time) ([]Candle, error) {
	query := fmt.Sprintf(`
		SELECT
			open_time_ms,
			toFloat64(open),
			toFloat64(high),
			toFloat64(low),
			toFloat64(close),
			toFloat64(volume)
		FROM %s.%s
		WHERE symbol = ? AND interval = ?
		  AND open_time_ms >= ? AND open_time_ms <= ?
		ORDER BY open_time_ms ASC`, p.cfg.Database, p.cfg.Table)

	rows, err := p.conn.Query(ctx, query, symbol, string(timeframe), start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query candles: %w", err)
	}
	defer rows.Close()

	var candles []Candle
	for rows.Next() {
		var (
			ts                           uint64
			open, high, low, cls, volume float64
		)
		if err := rows.Scan(&ts, &open, &high, &low, &cls, &volume); err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}
		candles = append(candles, Candle{
			Symbol:    symbol,
			Timeframe: string(timeframe),
			Timestamp: int64(ts),
			Open:      decimal.NewFromFloat(open),
			High:      decimal.NewFromFloat(high),
			Low:       decimal.NewFromFloat(low),
			Close:     decimal.NewFromFloat(cls),
			Volume:    decimal.NewFromFloat(volume),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}

	p.logger.Info("loaded candles from clickhouse",
		zap.String("symbol", symbol),
		zap.String("timeframe", string(timeframe)),
		zap.Int("candles", len(candles)),
	)
	return candles, nil
}

// Close releases the underlying connection.
func (p *ClickHouseProvider) Close() error {
	return p.conn.Close()
}
