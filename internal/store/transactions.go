package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/blockmarket/miner/internal/market"
)

// WriteTransaction archives one mined transaction under the given run.
func (s *Store) WriteTransaction(ctx context.Context, runID uuid.UUID, tx market.Transaction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO market_transactions
			(id, run_id, ts, buyer, seller, item, price, quantity,
			 flex_amount, is_donation, payment, order_text, response_text, match_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`,
		tx.ID, runID, tx.Timestamp, tx.Buyer, tx.Seller, string(tx.Item),
		tx.Price, tx.Quantity, tx.FlexAmount, tx.IsDonation, tx.Payment,
		tx.OrderText, tx.ResponseText, string(tx.MatchType),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// ListTransactions returns the most recently mined transactions,
// newest first.
func (s *Store) ListTransactions(ctx context.Context, limit int) ([]market.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, ts, buyer, seller, item, price, quantity,
		       flex_amount, is_donation, payment, order_text, response_text, match_type
		FROM market_transactions
		ORDER BY ts DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []market.Transaction
	for rows.Next() {
		var tx market.Transaction
		var item, matchType string
		if err := rows.Scan(
			&tx.ID, &tx.Timestamp, &tx.Buyer, &tx.Seller, &item,
			&tx.Price, &tx.Quantity, &tx.FlexAmount, &tx.IsDonation,
			&tx.Payment, &tx.OrderText, &tx.ResponseText, &matchType,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Item = market.ItemType(item)
		tx.MatchType = market.MatchType(matchType)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return txs, nil
}
