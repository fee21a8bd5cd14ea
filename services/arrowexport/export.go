// Package arrowexport serializes run results as Apache Arrow IPC record
// batches for handoff to external stores and analysis tools.
package arrowexport

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"strategy-engine/services/engine"
)

// Exporter builds Arrow records from results using a shared allocator.
type Exporter struct {
	mem memory.Allocator
}

// NewExporter creates an exporter backed by the Go allocator.
func NewExporter() *Exporter {
	return &Exporter{mem: memory.NewGoAllocator()}
}

// EquitySchema describes one equity-curve row per processed candle.
var EquitySchema = arrow.NewSchema([]arrow.Field{
	{Name: "timestamp", Type: arrow.PrimitiveTypes.Int64},
	{Name: "equity", Type: arrow.PrimitiveTypes.Float64},
	{Name: "cash", Type: arrow.PrimitiveTypes.Float64},
	{Name: "drawdown", Type: arrow.PrimitiveTypes.Float64},
	{Name: "position", Type: arrow.BinaryTypes.String},
}, nil)

// TradeSchema describes one row per closed trade.
var TradeSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String},
	{Name: "symbol", Type: arrow.BinaryTypes.String},
	{Name: "side", Type: arrow.BinaryTypes.String},
	{Name: "entry_time", Type: arrow.PrimitiveTypes.Int64},
	{Name: "entry_price", Type: arrow.PrimitiveTypes.Float64},
	{Name: "exit_time", Type: arrow.PrimitiveTypes.Int64},
	{Name: "exit_price", Type: arrow.PrimitiveTypes.Float64},
	{Name: "quantity", Type: arrow.PrimitiveTypes.Float64},
	{Name: "pnl", Type: arrow.PrimitiveTypes.Float64},
	{Name: "commission", Type: arrow.PrimitiveTypes.Float64},
	{Name: "slippage", Type: arrow.PrimitiveTypes.Float64},
	{Name: "exit_reason", Type: arrow.BinaryTypes.String},
}, nil)

// EquityRecord builds a record batch from the result's equity curve.
// The caller must Release the record.
func (e *Exporter) EquityRecord(result *engine.Result) arrow.Record {
	b := array.NewRecordBuilder(e.mem, EquitySchema)
	defer b.Release()

	for _, p := range result.EquityCurve {
		b.Field(0).(*array.Int64Builder).Append(p.Timestamp)
		b.Field(1).(*array.Float64Builder).Append(p.Equity.InexactFloat64())
		b.Field(2).(*array.Float64Builder).Append(p.Cash.InexactFloat64())
		b.Field(3).(*array.Float64Builder).Append(p.Drawdown)
		b.Field(4).(*array.StringBuilder).Append(string(p.PositionSide))
	}
	return b.NewRecord()
}

// TradeRecord builds a record batch from the result's trades.
// The caller must Release the record.
func (e *Exporter) TradeRecord(result *engine.Result) arrow.Record {
	b := array.NewRecordBuilder(e.mem, TradeSchema)
	defer b.Release()

	for _, t := range result.Trades {
		b.Field(0).(*array.StringBuilder).Append(t.ID)
		b.Field(1).(*array.StringBuilder).Append(t.Symbol)
		b.Field(2).(*array.StringBuilder).Append(string(t.Side))
		b.Field(3).(*array.Int64Builder).Append(t.EntryTime)
		b.Field(4).(*array.Float64Builder).Append(t.EntryPrice.InexactFloat64())
		b.Field(5).(*array.Int64Builder).Append(t.ExitTime)
		b.Field(6).(*array.Float64Builder).Append(t.ExitPrice.InexactFloat64())
		b.Field(7).(*array.Float64Builder).Append(t.Quantity.InexactFloat64())
		b.Field(8).(*array.Float64Builder).Append(t.PnL.InexactFloat64())
		b.Field(9).(*array.Float64Builder).Append(t.Commission.InexactFloat64())
		b.Field(10).(*array.Float64Builder).Append(t.Slippage.InexactFloat64())
		b.Field(11).(*array.StringBuilder).Append(t.ExitReason)
	}
	return b.NewRecord()
}

// WriteEquity streams the equity curve as Arrow IPC to w.
func (e *Exporter) WriteEquity(w io.Writer, result *engine.Result) error {
	record := e.EquityRecord(result)
	defer record.Release()
	return writeIPC(w, EquitySchema, record)
}

// WriteTrades streams the trade list as Arrow IPC to w.
func (e *Exporter) WriteTrades(w io.Writer, result *engine.Result) error {
	record := e.TradeRecord(result)
	defer record.Release()
	return writeIPC(w, TradeSchema, record)
}

func writeIPC(w io.Writer, schema *arrow.Schema, record arrow.Record) error {
	writer := ipc.NewWriter(w, ipc.WithSchema(schema))
	if err := writer.Write(record); err != nil {
		writer.Close()
		return fmt.Errorf("write arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close arrow writer: %w", err)
	}
	return nil
}
