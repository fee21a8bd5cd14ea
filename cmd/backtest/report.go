package main

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"strategy-engine/services/engine"
)

// printReport writes the run summary with grouped number formatting.
func printReport(w io.Writer, result *engine.Result) {
	p := message.NewPrinter(language.English)
	m := result.Metrics

	p.Fprintf(w, "Strategy:        %s (%s %s)\n", result.StrategyName, result.Symbol, result.Timeframe)
	p.Fprintf(w, "Run:             %s\n", result.RunID)
	p.Fprintf(w, "Candles:         %d processed after %d warm-up bars\n", result.Processed, result.WarmupBars)
	p.Fprintf(w, "Trades:          %d (%d wins / %d losses, win rate %.1f%%)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades, m.WinRate*100)
	p.Fprintf(w, "Net PnL:         %s\n", m.NetPnL.StringFixed(2))
	p.Fprintf(w, "Profit factor:   %.2f\n", m.ProfitFactor)
	p.Fprintf(w, "Sharpe ratio:    %.2f\n", m.SharpeRatio)
	p.Fprintf(w, "Max drawdown:    %.2f%%\n", m.MaxDrawdown*100)
	p.Fprintf(w, "Avg win/loss:    %s / %s\n", m.AverageWin.StringFixed(2), m.AverageLoss.StringFixed(2))
	p.Fprintf(w, "Largest win:     %s\n", m.LargestWin.StringFixed(2))
	p.Fprintf(w, "Largest loss:    %s\n", m.LargestLoss.StringFixed(2))
	p.Fprintf(w, "Expectancy:      %s\n", m.Expectancy.StringFixed(2))
	p.Fprintf(w, "Avg holding:     %s\n", m.AverageHoldingTime)
	p.Fprintf(w, "Costs:           commission %s, slippage %s\n",
		m.TotalCommission.StringFixed(2), m.TotalSlippage.StringFixed(2))
}
