package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"purchase-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// CreateItem creates a canonical item with zeroed aggregates
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (name, total_quantity, total_spent)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, item, query,
		item.Name, item.TotalQuantity, item.TotalSpent)
}

// GetItemByID retrieves an item by ID. Returns (nil, nil) when absent so
// callers can treat a vanished item as a no-op.
func (s *Store) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item, "SELECT * FROM items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemByName retrieves an item by exact canonical name
func (s *Store) GetItemByName(ctx context.Context, name string) (*models.Item, error) {
	var item models.Item
	err := s.db.GetContext(ctx, &item, "SELECT * FROM items WHERE name = $1", name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemNames retrieves every canonical name, sorted. The sort keeps the
// matcher's tie-break deterministic.
func (s *Store) GetItemNames(ctx context.Context) ([]string, error) {
	names := []string{}
	err := s.db.SelectContext(ctx, &names, "SELECT name FROM items ORDER BY name")
	return names, err
}

// ListItems retrieves all items sorted by name
func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := s.db.SelectContext(ctx, &items, "SELECT * FROM items ORDER BY name")
	return items, err
}

// GetItemHistory retrieves an item's attribution log in append order
func (s *Store) GetItemHistory(ctx context.Context, itemID int64) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM item_history WHERE item_id = $1 ORDER BY id", itemID)
	return entries, err
}

// AddItemAttribution applies one line item to an item's aggregates and
// appends the matching history entry, atomically.
func (s *Store) AddItemAttribution(ctx context.Context, itemID int64, entry models.HistoryEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE items SET total_quantity = total_quantity + $1, total_spent = total_spent + $2, updated_at = NOW() WHERE id = $3",
		entry.Quantity, entry.Total, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item aggregates: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item not found: %d", itemID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO item_history (item_id, date, store, price_per_unit, quantity, total)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		itemID, entry.Date, entry.Store, entry.PricePerUnit, entry.Quantity, entry.Total)
	if err != nil {
		return fmt.Errorf("failed to append item history: %w", err)
	}

	return tx.Commit()
}

// RemoveItemAttribution reverses one line item's contribution: deletes a
// single matching history entry and subtracts its aggregates. History
// entries carry no line-item id, so the match key is store + price +
// quantity and only the oldest matching row is removed. When no row
// matches, the contribution was never applied and the item is left
// untouched, keeping total_quantity equal to the sum of its history.
func (s *Store) RemoveItemAttribution(ctx context.Context, itemID int64, entry models.HistoryEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var removedID int64
	err = tx.GetContext(ctx, &removedID,
		`DELETE FROM item_history WHERE id = (
			SELECT id FROM item_history
			WHERE item_id = $1 AND store = $2 AND price_per_unit = $3 AND quantity = $4
			ORDER BY id LIMIT 1
		 )
		 RETURNING id`,
		itemID, entry.Store, entry.PricePerUnit, entry.Quantity)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove item history: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE items SET total_quantity = total_quantity - $1, total_spent = total_spent - $2, updated_at = NOW() WHERE id = $3",
		entry.Quantity, entry.Total, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item aggregates: %w", err)
	}

	return tx.Commit()
}

// DeleteAllItems clears the entire item ledger. Used only by resync.
func (s *Store) DeleteAllItems(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "TRUNCATE item_history, items RESTART IDENTITY")
	return err
}
