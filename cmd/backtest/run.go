package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"strategy-engine/services/arrowexport"
	"strategy-engine/services/dsl"
	"strategy-engine/services/engine"
	"strategy-engine/services/indicators"
	"strategy-engine/services/marketdata"
)

type runFlags struct {
	strategyFile string
	csvFile      string
	chAddr       string
	chDatabase   string
	chTable      string
	chUser       string
	chPassword   string
	start        string
	end          string
	capital      float64
	warmup       int
	equityOut    string
	tradesOut    string
}

func newRunCmd(logger *zap.Logger) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a strategy over historical candles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(cmd.Context(), logger, f)
		},
	}
	cmd.Flags().StringVar(&f.strategyFile, "strategy", "", "strategy definition file (.json/.yaml)")
	cmd.Flags().StringVar(&f.csvFile, "csv", "", "CSV candle file (timestamp_ms,open,high,low,close,volume)")
	cmd.Flags().StringVar(&f.chAddr, "clickhouse", "", "ClickHouse address (host:port); used when --csv is not set")
	cmd.Flags().StringVar(&f.chDatabase, "ch-database", "backtest", "ClickHouse database")
	cmd.Flags().StringVar(&f.chTable, "ch-table", "data", "ClickHouse candle table")
	cmd.Flags().StringVar(&f.chUser, "ch-user", "default", "ClickHouse user")
	cmd.Flags().StringVar(&f.chPassword, "ch-password", "", "ClickHouse password")
	cmd.Flags().StringVar(&f.start, "start", "", "history start (RFC3339), ClickHouse source only")
	cmd.Flags().StringVar(&f.end, "end", "", "history end (RFC3339), ClickHouse source only")
	cmd.Flags().Float64Var(&f.capital, "capital", 10000, "initial capital")
	cmd.Flags().IntVar(&f.warmup, "warmup", 0, "warm-up bars override (0 = automatic)")
	cmd.Flags().StringVar(&f.equityOut, "equity-arrow", "", "write the equity curve as Arrow IPC to this file")
	cmd.Flags().StringVar(&f.tradesOut, "trades-arrow", "", "write the trade list as Arrow IPC to this file")
	cmd.MarkFlagRequired("strategy")
	return cmd
}

func runBacktest(ctx context.Context, logger *zap.Logger, f runFlags) error {
	strat, err := dsl.LoadFile(f.strategyFile)
	if err != nil {
		return err
	}
	tf, err := marketdata.ParseTimeframe(strat.Timeframe)
	if err != nil {
		return err
	}

	candles, err := loadCandles(ctx, logger, f, strat, tf)
	if err != nil {
		return err
	}

	eng := engine.New(indicators.NewRegistry(), indicators.NewCache(), logger)
	result, err := eng.Run(ctx, strat, candles, engine.RunConfig{
		InitialCapital: decimal.NewFromFloat(f.capital),
		WarmupBars:     f.warmup,
	})
	if err != nil {
		return err
	}

	printReport(os.Stdout, result)
	return exportResult(result, f)
}

func loadCandles(ctx context.Context, logger *zap.Logger, f runFlags, strat *dsl.Strategy, tf marketdata.Timeframe) ([]marketdata.Candle, error) {
	if f.csvFile != "" {
		return marketdata.NewCSVLoader(logger).Load(f.csvFile, strat.Symbol, tf)
	}
	if f.chAddr == "" {
		return nil, fmt.Errorf("either --csv or --clickhouse is required")
	}

	start, err := time.Parse(time.RFC3339, f.start)
	if err != nil {
		return nil, fmt.Errorf("parse --start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, f.end)
	if err != nil {
		return nil, fmt.Errorf("parse --end: %w", err)
	}
	provider, err := marketdata.NewClickHouseProvider(ctx, marketdata.ClickHouseConfig{
		Addr:     f.chAddr,
		Database: f.chDatabase,
		Table:    f.chTable,
		Username: f.chUser,
		Password: f.chPassword,
	}, logger)
	if err != nil {
		return nil, err
	}
	defer provider.Close()
	return provider.FetchHistorical(ctx, strat.Symbol, tf, start, end)
}

func exportResult(result *engine.Result, f runFlags) error {
	if f.equityOut == "" && f.tradesOut == "" {
		return nil
	}
	exporter := arrowexport.NewExporter()
	if f.equityOut != "" {
		file, err := os.Create(f.equityOut)
		if err != nil {
			return fmt.Errorf("create equity output: %w", err)
		}
		defer file.Close()
		if err := exporter.WriteEquity(file, result); err != nil {
			return err
		}
	}
	if f.tradesOut != "" {
		file, err := os.Create(f.tradesOut)
		if err != nil {
			return fmt.Errorf("create trades output: %w", err)
		}
		defer file.Close()
		if err := exporter.WriteTrades(file, result); err != nil {
			return err
		}
	}
	return nil
}
