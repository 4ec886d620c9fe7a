package store

import (
	"context"
	"database/sql"

	"purchase-service/internal/models"
)

// PurchaseTotals are raw sums over the purchase store
type PurchaseTotals struct {
	Count        int64 `db:"count"`
	TotalSpent   int64 `db:"total_spent"`
	AdminFees    int64 `db:"admin_fees"`
	ShippingFees int64 `db:"shipping_fees"`
}

// SaleTotals are raw sums over the sales table
type SaleTotals struct {
	Count      int64 `db:"count"`
	TotalValue int64 `db:"total_value"`
}

// GetPurchaseTotals computes raw purchase sums in one query
func (s *Store) GetPurchaseTotals(ctx context.Context) (*PurchaseTotals, error) {
	var totals PurchaseTotals
	err := s.db.GetContext(ctx, &totals, `
		SELECT COUNT(*) AS count,
		       COALESCE(SUM(total), 0) AS total_spent,
		       COALESCE(SUM(admin_fee), 0) AS admin_fees,
		       COALESCE(SUM(shipping_fee), 0) AS shipping_fees
		FROM purchases`)
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// GetSaleTotals computes raw sale sums in one query
func (s *Store) GetSaleTotals(ctx context.Context) (*SaleTotals, error) {
	var totals SaleTotals
	err := s.db.GetContext(ctx, &totals, `
		SELECT COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_value
		FROM sales`)
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// GetTotalItemQuantity sums total_quantity across the item ledger
func (s *Store) GetTotalItemQuantity(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total,
		"SELECT COALESCE(SUM(total_quantity), 0) FROM items")
	return total, err
}

// GetTopItem retrieves the item with the highest total_quantity,
// (nil, nil) when the ledger is empty
func (s *Store) GetTopItem(ctx context.Context) (*models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM items ORDER BY total_quantity DESC, name LIMIT 1")
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
