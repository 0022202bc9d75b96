package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"matchcore/internal/config"
	"matchcore/internal/engine"
	"matchcore/internal/matching"
	"matchcore/internal/risk"
	"matchcore/pkg/logger"
	"matchcore/pkg/xerr"
)

// runCmd replays every row of a CSV order file through a fresh book,
// logging each accepted trade and rejection, then prints final stats.
//
// CSV columns: id,owner_id,side,type,price,stop_price,quantity,display_size,is_market_maker,session_id
// ip_address, if present, is read by nothing here -- it belongs to the
// session/connection layer this module doesn't implement.
func runCmd(ctx context.Context, cfg *config.EngineConfig, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	csvPath := fs.String("csv", "", "path to the order CSV to replay")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *csvPath == "" {
		return fmt.Errorf("run: -csv is required")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", *csvPath, err)
	}
	defer f.Close()

	ticks := buildTickTable(cfg.TickBands)
	gate := risk.NewGate(risk.CircuitBreakerConfig{
		ReferencePrice: cfg.CircuitBreaker.ReferencePrice,
		Percentage:     cfg.CircuitBreaker.Percentage,
	}, logger.Log)
	gate.StartJanitor(ctx, time.Minute)

	for trader, limits := range cfg.TraderLimits {
		if err := gate.SetTraderLimits(trader, limits); err != nil {
			return fmt.Errorf("trader %d limits: %w", trader, err)
		}
	}

	eng := engine.New(ticks, gate, logger.Log, cfg.MaxCascadeDepth)

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	col := indexColumns(header)

	now := time.Now().UnixNano()
	var lineNo int
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row %d: %w", lineNo, err)
		}
		lineNo++
		now++

		req, err := parseOrderRow(row, col)
		if err != nil {
			logger.Error(ctx, "skipping malformed row", zap.Int("line", lineNo), zap.Error(err))
			continue
		}

		if _, err := eng.Submit(req, now); err != nil {
			logger.Warn(ctx, "order not accepted", zap.Int("line", lineNo), zap.Error(err))
		}
	}

	stats := eng.Book().Stats()
	logger.Info(ctx, "replay complete",
		zap.Uint64("orders", stats.TotalOrders),
		zap.Uint64("trades", stats.TotalTrades),
		zap.Uint64("volume", stats.TotalVolume),
		zap.Uint64("cancelled", stats.TotalCancelled),
		zap.Uint64("ioc_rejected", stats.TotalIOCRejected),
		zap.Uint64("stops_triggered", stats.TotalStopsTriggered),
		zap.Uint64("risk_rejected", stats.TotalRiskRejected),
	)
	return nil
}

func buildTickTable(bands []config.TickBand) *matching.TickSizeTable {
	if len(bands) == 0 {
		return matching.NewTickSizeTable()
	}
	t := matching.NewEmptyTickSizeTable()
	for _, b := range bands {
		if err := t.AddRule(b.MinPrice, b.MaxPrice, b.TickSize); err != nil {
			panic(err)
		}
	}
	return t
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}

// parseOrderRow returns an *xerr.CodeError (xerr.RequestParamsError) on any
// malformed field, following pkg/xerr's request-validation convention for
// bad caller input.
func parseOrderRow(row []string, col map[string]int) (matching.OrderRequest, error) {
	var req matching.OrderRequest

	id, err := colUint(row, col, "id")
	if err != nil {
		return req, xerr.New(xerr.RequestParamsError, err.Error())
	}
	owner, err := colUint(row, col, "owner_id")
	if err != nil {
		return req, xerr.New(xerr.RequestParamsError, err.Error())
	}
	side, err := parseSide(colStr(row, col, "side"))
	if err != nil {
		return req, xerr.New(xerr.RequestParamsError, err.Error())
	}
	typ, err := parseOrderType(colStr(row, col, "type"))
	if err != nil {
		return req, xerr.New(xerr.RequestParamsError, err.Error())
	}
	price, err := colInt(row, col, "price")
	if err != nil {
		return req, xerr.New(xerr.RequestParamsError, err.Error())
	}
	stopPrice, err := colInt(row, col, "stop_price")
	if err != nil {
		return req, xerr.New(xerr.RequestParamsError, err.Error())
	}
	qty, err := colInt(row, col, "quantity")
	if err != nil {
		return req, xerr.New(xerr.RequestParamsError, err.Error())
	}
	displaySize, err := colInt(row, col, "display_size")
	if err != nil {
		return req, xerr.New(xerr.RequestParamsError, err.Error())
	}

	req = matching.OrderRequest{
		ID:            id,
		OwnerID:       owner,
		SessionID:     colStr(row, col, "session_id"),
		Side:          side,
		Type:          typ,
		Price:         price,
		StopPrice:     stopPrice,
		Quantity:      qty,
		DisplaySize:   displaySize,
		IsMarketMaker: colStr(row, col, "is_market_maker") == "true",
	}
	return req, nil
}

func colStr(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func colInt(row []string, col map[string]int, name string) (int64, error) {
	s := colStr(row, col, name)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func colUint(row []string, col map[string]int, name string) (uint64, error) {
	s := colStr(row, col, name)
	if s == "" {
		return 0, fmt.Errorf("column %q is required", name)
	}
	return strconv.ParseUint(s, 10, 64)
}

func parseSide(s string) (matching.Side, error) {
	switch strings.ToUpper(s) {
	case "BUY":
		return matching.Buy, nil
	case "SELL":
		return matching.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func parseOrderType(s string) (matching.OrderType, error) {
	switch strings.ToUpper(s) {
	case "GTC":
		return matching.GTC, nil
	case "IOC":
		return matching.IOC, nil
	case "FOK":
		return matching.FOK, nil
	case "MARKET":
		return matching.Market, nil
	case "STOP_LOSS":
		return matching.StopLoss, nil
	case "ICEBERG":
		return matching.Iceberg, nil
	default:
		return 0, fmt.Errorf("unknown order type %q", s)
	}
}
