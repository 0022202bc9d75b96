package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
)

// generateCmd writes a synthetic order CSV around a mid price, for
// exercising run without hand-authoring a fixture.
func generateCmd(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	csvPath := fs.String("csv", "orders.csv", "output CSV path")
	count := fs.Int("count", 1000, "number of orders to generate")
	mid := fs.Int64("mid", 10000, "mid price to walk around")
	seed := fs.Int64("seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Create(*csvPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", *csvPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"id", "owner_id", "side", "type", "price", "stop_price", "quantity", "display_size", "is_market_maker", "session_id"}); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))
	types := []string{"GTC", "GTC", "GTC", "IOC", "FOK", "ICEBERG", "MARKET"}
	price := *mid

	for i := 1; i <= *count; i++ {
		price += int64(rng.Intn(21) - 10)
		if price < 1 {
			price = 1
		}

		side := "BUY"
		if rng.Intn(2) == 0 {
			side = "SELL"
		}
		typ := types[rng.Intn(len(types))]
		owner := uint64(rng.Intn(50) + 1)
		qty := int64(rng.Intn(500) + 1)

		var displaySize int64
		orderPrice := price
		if typ == "MARKET" {
			orderPrice = 0
		}
		if typ == "ICEBERG" {
			displaySize = qty / 10
			if displaySize < 1 {
				displaySize = 1
			}
			qty *= 10
		}

		row := []string{
			strconv.FormatInt(int64(i), 10),
			strconv.FormatUint(owner, 10),
			side,
			typ,
			strconv.FormatInt(orderPrice, 10),
			"0",
			strconv.FormatInt(qty, 10),
			strconv.FormatInt(displaySize, 10),
			"false",
			"sess-" + strconv.FormatUint(owner, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
