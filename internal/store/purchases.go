package store

import (
	"context"
	"database/sql"
	"fmt"

	"purchase-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreatePurchase inserts a purchase and its line items in one transaction.
// Line items keep their slice order as position.
func (s *Store) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO purchases (date, store, admin_fee, shipping_fee, total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	row := tx.QueryRowxContext(ctx, query,
		purchase.Date, purchase.Store, purchase.AdminFee, purchase.ShippingFee, purchase.Total)
	if err := row.Scan(&purchase.ID, &purchase.CreatedAt, &purchase.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}

	if err := insertPurchaseItems(ctx, tx, purchase); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdatePurchase replaces a purchase's fields and its full line-item set
func (s *Store) UpdatePurchase(ctx context.Context, purchase *models.Purchase) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE purchases SET date = $1, store = $2, admin_fee = $3, shipping_fee = $4, total = $5, updated_at = NOW() WHERE id = $6",
		purchase.Date, purchase.Store, purchase.AdminFee, purchase.ShippingFee, purchase.Total, purchase.ID)
	if err != nil {
		return fmt.Errorf("failed to update purchase: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("purchase not found: %d", purchase.ID)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM purchase_items WHERE purchase_id = $1", purchase.ID); err != nil {
		return fmt.Errorf("failed to clear purchase items: %w", err)
	}

	if err := insertPurchaseItems(ctx, tx, purchase); err != nil {
		return err
	}

	return tx.Commit()
}

func insertPurchaseItems(ctx context.Context, tx *sqlx.Tx, purchase *models.Purchase) error {
	query := `
		INSERT INTO purchase_items (purchase_id, position, item_id, name, price, quantity, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	for i := range purchase.Items {
		item := &purchase.Items[i]
		item.PurchaseID = purchase.ID
		item.Position = i

		err := tx.GetContext(ctx, &item.ID, query,
			purchase.ID, i, item.ItemID, item.Name, item.Price, item.Quantity, item.Total)
		if err != nil {
			return fmt.Errorf("failed to insert purchase item: %w", err)
		}
	}
	return nil
}

// GetPurchaseByID retrieves a purchase with its line items in stored order.
// Returns (nil, nil) when absent.
func (s *Store) GetPurchaseByID(ctx context.Context, id int64) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.GetContext(ctx, &purchase, "SELECT * FROM purchases WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &purchase.Items,
		"SELECT * FROM purchase_items WHERE purchase_id = $1 ORDER BY position", id)
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListPurchases retrieves one page of purchases, newest first, plus the
// total count for pagination.
func (s *Store) ListPurchases(ctx context.Context, limit, offset int) ([]models.Purchase, int64, error) {
	var purchases []models.Purchase
	err := s.db.SelectContext(ctx, &purchases,
		"SELECT * FROM purchases ORDER BY date DESC, id DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, err
	}

	if err := s.attachLineItems(ctx, purchases); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM purchases"); err != nil {
		return nil, 0, err
	}
	return purchases, total, nil
}

// ListAllPurchases retrieves every purchase in id order, with line items.
// Used by resync, which must walk the full history deterministically.
func (s *Store) ListAllPurchases(ctx context.Context) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := s.db.SelectContext(ctx, &purchases, "SELECT * FROM purchases ORDER BY id")
	if err != nil {
		return nil, err
	}

	if err := s.attachLineItems(ctx, purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (s *Store) attachLineItems(ctx context.Context, purchases []models.Purchase) error {
	if len(purchases) == 0 {
		return nil
	}

	ids := make([]int64, len(purchases))
	for i := range purchases {
		ids[i] = purchases[i].ID
	}

	query, args, err := sqlx.In(
		"SELECT * FROM purchase_items WHERE purchase_id IN (?) ORDER BY purchase_id, position", ids)
	if err != nil {
		return err
	}
	query = s.db.Rebind(query)

	var items []models.PurchaseItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return err
	}

	byPurchase := make(map[int64][]models.PurchaseItem, len(purchases))
	for _, item := range items {
		byPurchase[item.PurchaseID] = append(byPurchase[item.PurchaseID], item)
	}
	for i := range purchases {
		purchases[i].Items = byPurchase[purchases[i].ID]
	}
	return nil
}

// DeletePurchase removes a purchase; line items and any matching job go
// with it via FK cascade.
func (s *Store) DeletePurchase(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM purchases WHERE id = $1", id)
	return err
}

// SetPurchaseItemResolution persists the authoritative resolution of one
// line item: the canonical item id and the normalized name.
func (s *Store) SetPurchaseItemResolution(ctx context.Context, purchaseID int64, position int, itemID int64, name string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE purchase_items SET item_id = $1, name = $2 WHERE purchase_id = $3 AND position = $4",
		itemID, name, purchaseID, position)
	return err
}

// CountLineItems counts every line item across all purchases
func (s *Store) CountLineItems(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM purchase_items")
	return total, err
}
