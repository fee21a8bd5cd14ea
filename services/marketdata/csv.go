package marketdata

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CSVLoader reads OHLCV candles from CSV files shaped
// timestamp_ms,open,high,low,close,volume with an optional header row.
type CSVLoader struct {
	logger *zap.Logger
}

// NewCSVLoader creates a loader. A nil logger disables logging.
func NewCSVLoader(logger *zap.Logger) *CSVLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVLoader{logger: logger}
}

// Load parses a CSV file into an ascending, deduplicated candle series.
// Rows are sorted by timestamp and duplicate timestamps keep the last row.
func (l *CSVLoader) Load(path, symbol string, timeframe Timeframe) ([]Candle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candle file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(bufio.NewReader(file))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	candles := make([]Candle, 0, 1_000)
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line++
			continue
		}
		if len(rec) < 6 {
			line++
			continue
		}
		if line == 0 && (strings.EqualFold(rec[0], "timestamp") || strings.EqualFold(rec[0], "timestamp_ms")) {
			line++
			continue
		}
		line++

		tsStr := strings.TrimPrefix(strings.TrimSpace(rec[0]), "\uFEFF")
		ts, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			continue
		}
		open, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			continue
		}
		high, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil {
			continue
		}
		low, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
		if err != nil {
			continue
		}
		cls, err := decimal.NewFromString(strings.TrimSpace(rec[4]))
		if err != nil {
			continue
		}
		volume, err := decimal.NewFromString(strings.TrimSpace(rec[5]))
		if err != nil {
			volume = decimal.Zero
		}

		candles = append(candles, Candle{
			Symbol:    symbol,
			Timeframe: string(timeframe),
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     cls,
			Volume:    volume,
		})
	}

	if len(candles) > 1 {
		sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp < candles[j].Timestamp })
		uniq := candles[:0]
		var lastTs int64 = -1
		for _, c := range candles {
			if c.Timestamp == lastTs {
				uniq[len(uniq)-1] = c
				continue
			}
			uniq = append(uniq, c)
			lastTs = c.Timestamp
		}
		candles = uniq
	}

	l.logger.Info("parsed candle file",
		zap.String("path", path),
		zap.String("symbol", symbol),
		zap.Int("candles", len(candles)),
	)
	l.reportGaps(candles, timeframe)
	return candles, nil
}

// reportGaps logs missing bars relative to the timeframe cadence. Gaps are
// normal for real market data and never fatal.
func (l *CSVLoader) reportGaps(candles []Candle, timeframe Timeframe) {
	cadence := timeframe.Millis()
	if cadence <= 0 || len(candles) < 2 {
		return
	}
	gaps := 0
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp-candles[i-1].Timestamp > cadence {
			gaps++
		}
	}
	if gaps > 0 {
		l.logger.Warn("gaps detected in candle series",
			zap.Int("gaps", gaps),
			zap.Int64("cadence_ms", cadence),
		)
	}
}
