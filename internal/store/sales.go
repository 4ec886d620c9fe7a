package store

import (
	"context"
	"database/sql"

	"purchase-service/internal/models"
)

// CreateSale inserts a sale record
func (s *Store) CreateSale(ctx context.Context, sale *models.Sale) error {
	query := `
		INSERT INTO sales (date, amount, channel, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, sale, query,
		sale.Date, sale.Amount, sale.Channel, sale.Note)
}

// GetSaleByID retrieves a sale, (nil, nil) when absent
func (s *Store) GetSaleByID(ctx context.Context, id int64) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.GetContext(ctx, &sale, "SELECT * FROM sales WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListSales retrieves all sales, newest first
func (s *Store) ListSales(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	err := s.db.SelectContext(ctx, &sales, "SELECT * FROM sales ORDER BY date DESC, id DESC")
	return sales, err
}

// UpdateSale replaces a sale's mutable fields
func (s *Store) UpdateSale(ctx context.Context, sale *models.Sale) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE sales SET date = $1, amount = $2, channel = $3, note = $4 WHERE id = $5",
		sale.Date, sale.Amount, sale.Channel, sale.Note, sale.ID)
	return err
}

// DeleteSale removes a sale
func (s *Store) DeleteSale(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sales WHERE id = $1", id)
	return err
}
