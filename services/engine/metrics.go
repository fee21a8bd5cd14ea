package engine

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"strategy-engine/services/marketdata"
)

// ProfitFactorSentinel replaces the undefined gross-profit/zero division
// when a run has winning trades and no losing ones.
const ProfitFactorSentinel = 999.0

// PerformanceMetrics are derived once per run from the trade list and the
// equity curve by plain reduction; no incremental state.
type PerformanceMetrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	ProfitFactor  float64
	SharpeRatio   float64
	MaxDrawdown   float64

	NetPnL      decimal.Decimal
	GrossProfit decimal.Decimal
	GrossLoss   decimal.Decimal
	AverageWin  decimal.Decimal
	AverageLoss decimal.Decimal
	LargestWin  decimal.Decimal
	LargestLoss decimal.Decimal
	Expectancy  decimal.Decimal

	TotalCommission    decimal.Decimal
	TotalSlippage      decimal.Decimal
	AverageHoldingTime time.Duration
}

// ComputeMetrics reduces trades and equity into the run's statistics.
// Sharpe is annualized by the timeframe's bars-per-year rather than a fixed
// 252 daily factor; zero-volatility returns yield 0, never NaN.
func ComputeMetrics(trades []Trade, equity []EquityPoint, tf marketdata.Timeframe) PerformanceMetrics {
	m := PerformanceMetrics{
		NetPnL:          decimal.Zero,
		GrossProfit:     decimal.Zero,
		GrossLoss:       decimal.Zero,
		AverageWin:      decimal.Zero,
		AverageLoss:     decimal.Zero,
		LargestWin:      decimal.Zero,
		LargestLoss:     decimal.Zero,
		Expectancy:      decimal.Zero,
		TotalCommission: decimal.Zero,
		TotalSlippage:   decimal.Zero,
	}

	var holding time.Duration
	for _, t := range trades {
		m.TotalTrades++
		m.NetPnL = m.NetPnL.Add(t.PnL).Sub(t.Commission).Sub(t.Slippage)
		m.TotalCommission = m.TotalCommission.Add(t.Commission)
		m.TotalSlippage = m.TotalSlippage.Add(t.Slippage)
		holding += t.HoldingTime

		if t.PnL.IsPositive() {
			m.WinningTrades++
			m.GrossProfit = m.GrossProfit.Add(t.PnL)
			if t.PnL.GreaterThan(m.LargestWin) {
				m.LargestWin = t.PnL
			}
		} else if t.PnL.IsNegative() {
			m.LosingTrades++
			m.GrossLoss = m.GrossLoss.Add(t.PnL)
			if t.PnL.LessThan(m.LargestLoss) {
				m.LargestLoss = t.PnL
			}
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
		m.AverageHoldingTime = holding / time.Duration(m.TotalTrades)
	}
	if m.WinningTrades > 0 {
		m.AverageWin = m.GrossProfit.Div(decimal.NewFromInt(int64(m.WinningTrades)))
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = m.GrossLoss.Abs().Div(decimal.NewFromInt(int64(m.LosingTrades)))
	}

	switch {
	case m.LosingTrades > 0:
		pf, _ := m.GrossProfit.Div(m.GrossLoss.Abs()).Float64()
		m.ProfitFactor = pf
	case m.WinningTrades > 0:
		m.ProfitFactor = ProfitFactorSentinel
	}

	// expectancy = winRate*avgWin - lossRate*avgLoss
	if m.TotalTrades > 0 {
		lossRate := float64(m.LosingTrades) / float64(m.TotalTrades)
		m.Expectancy = m.AverageWin.Mul(decimal.NewFromFloat(m.WinRate)).
			Sub(m.AverageLoss.Mul(decimal.NewFromFloat(lossRate)))
	}

	for _, p := range equity {
		if p.Drawdown > m.MaxDrawdown {
			m.MaxDrawdown = p.Drawdown
		}
	}
	m.SharpeRatio = sharpeRatio(equity, tf)
	return m
}

// sharpeRatio computes annualized mean/stdev of per-bar equity returns.
func sharpeRatio(equity []EquityPoint, tf marketdata.Timeframe) float64 {
	if len(equity) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity.InexactFloat64()
		curr := equity[i].Equity.InexactFloat64()
		if prev == 0 {
			continue
		}
		returns = append(returns, curr/prev-1)
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance) * math.Sqrt(tf.BarsPerYear())
}
