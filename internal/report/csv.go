// Package report serializes mined transactions to a flat CSV artifact,
// one row per transaction with a header row.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/blockmarket/miner/internal/market"
)

// Header is the column set, matching the Transaction fields exactly.
var Header = []string{
	"timestamp",
	"buyer",
	"seller",
	"item",
	"price",
	"quantity",
	"flex_amount",
	"is_donation",
	"payment",
	"original_order_text",
	"response_text",
	"match_type",
}

// WriteCSV writes the transactions to path. An empty result still
// produces a header-only file.
func WriteCSV(path string, transactions []market.Transaction) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range transactions {
		if err := w.Write(row(tx)); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func row(tx market.Transaction) []string {
	return []string{
		tx.Timestamp.UTC().Format(time.RFC3339),
		tx.Buyer,
		tx.Seller,
		string(tx.Item),
		strconv.FormatFloat(tx.Price, 'g', -1, 64),
		strconv.Itoa(tx.Quantity),
		strconv.FormatFloat(tx.FlexAmount, 'g', -1, 64),
		strconv.FormatBool(tx.IsDonation),
		tx.Payment,
		tx.OrderText,
		tx.ResponseText,
		string(tx.MatchType),
	}
}
