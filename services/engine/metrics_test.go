package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"strategy-engine/services/marketdata"
)

func trade(pnl int64, holding time.Duration) Trade {
	return Trade{
		PnL:         decimal.NewFromInt(pnl),
		Commission:  decimal.Zero,
		Slippage:    decimal.Zero,
		HoldingTime: holding,
	}
}

func equityCurve(values ...float64) []EquityPoint {
	out := make([]EquityPoint, len(values))
	peak := values[0]
	for i, v := range values {
		if v > peak {
			peak = v
		}
		dd := 0.0
		if peak > 0 && v < peak {
			dd = (peak - v) / peak
		}
		out[i] = EquityPoint{
			Timestamp: int64(i) * 3_600_000,
			Equity:    decimal.NewFromFloat(v),
			Cash:      decimal.NewFromFloat(v),
			Drawdown:  dd,
		}
	}
	return out
}

func TestComputeMetricsEmpty(t *testing.T) {
	m := ComputeMetrics(nil, nil, marketdata.Timeframe1h)
	assert.Equal(t, 0, m.TotalTrades)
	assert.Equal(t, 0.0, m.WinRate)
	assert.Equal(t, 0.0, m.ProfitFactor)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.True(t, m.NetPnL.IsZero())
}

func TestComputeMetricsCounts(t *testing.T) {
	trades := []Trade{
		trade(30, 2*time.Hour),
		trade(-10, 4*time.Hour),
		trade(20, 6*time.Hour),
		trade(0, 2*time.Hour), // breakeven: neither win nor loss
	}
	m := ComputeMetrics(trades, nil, marketdata.Timeframe1h)

	assert.Equal(t, 4, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.Equal(t, 0.5, m.WinRate)
	assert.True(t, m.NetPnL.Equal(decimal.NewFromInt(40)))
	assert.True(t, m.GrossProfit.Equal(decimal.NewFromInt(50)))
	assert.True(t, m.GrossLoss.Equal(decimal.NewFromInt(-10)))
	assert.True(t, m.LargestWin.Equal(decimal.NewFromInt(30)))
	assert.True(t, m.LargestLoss.Equal(decimal.NewFromInt(-10)))
	assert.True(t, m.AverageWin.Equal(decimal.NewFromInt(25)))
	assert.True(t, m.AverageLoss.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 3*time.Hour+30*time.Minute, m.AverageHoldingTime)
	assert.InDelta(t, 5.0, m.ProfitFactor, 1e-9)
}

func TestComputeMetricsProfitFactorSentinel(t *testing.T) {
	m := ComputeMetrics([]Trade{trade(30, time.Hour)}, nil, marketdata.Timeframe1h)
	assert.Equal(t, ProfitFactorSentinel, m.ProfitFactor)

	// All losers: gross profit zero, factor zero.
	m = ComputeMetrics([]Trade{trade(-30, time.Hour)}, nil, marketdata.Timeframe1h)
	assert.Equal(t, 0.0, m.ProfitFactor)
}

func TestComputeMetricsExpectancy(t *testing.T) {
	trades := []Trade{trade(30, time.Hour), trade(-10, time.Hour)}
	m := ComputeMetrics(trades, nil, marketdata.Timeframe1h)

	// 0.5*30 - 0.5*10 = 10.
	assert.True(t, m.Expectancy.Equal(decimal.NewFromInt(10)), "expectancy %s", m.Expectancy)
}

func TestComputeMetricsNetsOutCosts(t *testing.T) {
	tr := trade(100, time.Hour)
	tr.Commission = decimal.NewFromInt(5)
	tr.Slippage = decimal.NewFromInt(2)
	m := ComputeMetrics([]Trade{tr}, nil, marketdata.Timeframe1h)

	assert.True(t, m.NetPnL.Equal(decimal.NewFromInt(93)))
	assert.True(t, m.TotalCommission.Equal(decimal.NewFromInt(5)))
	assert.True(t, m.TotalSlippage.Equal(decimal.NewFromInt(2)))
	// Gross profit ignores costs.
	assert.True(t, m.GrossProfit.Equal(decimal.NewFromInt(100)))
}

func TestComputeMetricsMaxDrawdown(t *testing.T) {
	equity := equityCurve(100, 120, 90, 110, 130)
	m := ComputeMetrics(nil, equity, marketdata.Timeframe1h)

	// Trough 90 from peak 120.
	assert.InDelta(t, 0.25, m.MaxDrawdown, 1e-9)
}

func TestSharpeRatioZeroVolatility(t *testing.T) {
	m := ComputeMetrics(nil, equityCurve(100, 100, 100, 100), marketdata.Timeframe1h)
	assert.Equal(t, 0.0, m.SharpeRatio)
}

func TestSharpeRatioSign(t *testing.T) {
	up := ComputeMetrics(nil, equityCurve(100, 101, 103, 104, 107), marketdata.Timeframe1h)
	assert.Greater(t, up.SharpeRatio, 0.0)

	down := ComputeMetrics(nil, equityCurve(107, 104, 103, 101, 100), marketdata.Timeframe1h)
	assert.Less(t, down.SharpeRatio, 0.0)
}

func TestSharpeRatioScalesWithTimeframe(t *testing.T) {
	curve := equityCurve(100, 101, 100, 102, 101, 103)
	hourly := ComputeMetrics(nil, curve, marketdata.Timeframe1h)
	daily := ComputeMetrics(nil, curve, marketdata.Timeframe1d)

	// Same per-bar returns annualize with sqrt(bars/year): hourly > daily.
	assert.Greater(t, hourly.SharpeRatio, daily.SharpeRatio)
}

func TestBarsPerYear(t *testing.T) {
	assert.InDelta(t, 8760, marketdata.Timeframe1h.BarsPerYear(), 1e-9)
	assert.InDelta(t, 365, marketdata.Timeframe1d.BarsPerYear(), 1e-9)
	assert.Equal(t, 0.0, marketdata.Timeframe("9h").BarsPerYear())
}
