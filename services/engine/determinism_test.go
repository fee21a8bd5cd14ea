package engine

import (
	"context"
	"testing"

	"strategy-engine/services/marketdata"
)

func TestRepeatedRunsProduceIdenticalTrades(t *testing.T) {
	candles := marketdata.GenerateSynthetic(marketdata.DefaultSyntheticConfig())
	strat := rsiReversionStrategy()

	first, err := New(nil, nil, nil).Run(context.Background(), strat, candles, RunConfig{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := New(nil, nil, nil).Run(context.Background(), strat, candles, RunConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Trades) == 0 {
		t.Fatal("expected trades on the sine wave")
	}
	if len(first.Trades) != len(second.Trades) {
		t.Fatalf("trade counts differ: %d vs %d", len(first.Trades), len(second.Trades))
	}
	for i := range first.Trades {
		a, b := first.Trades[i], second.Trades[i]
		if a.EntryIndex != b.EntryIndex || a.ExitIndex != b.ExitIndex {
			t.Fatalf("trade %d differs: [%d,%d] vs [%d,%d]", i, a.EntryIndex, a.ExitIndex, b.EntryIndex, b.ExitIndex)
		}
		if !a.PnL.Equal(b.PnL) || !a.EntryPrice.Equal(b.EntryPrice) {
			t.Fatalf("trade %d pnl/price differs", i)
		}
	}
}
