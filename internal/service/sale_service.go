package service

import (
	"context"
	"fmt"
	"time"

	"purchase-service/internal/models"
	"purchase-service/internal/util"

	"go.uber.org/zap"
)

// SaleStore is the sales persistence surface. *store.Store implements it.
type SaleStore interface {
	CreateSale(ctx context.Context, sale *models.Sale) error
	GetSaleByID(ctx context.Context, id int64) (*models.Sale, error)
	ListSales(ctx context.Context) ([]models.Sale, error)
	UpdateSale(ctx context.Context, sale *models.Sale) error
	DeleteSale(ctx context.Context, id int64) error
}

// SaleService handles revenue records. Sales never touch the item ledger.
type SaleService struct {
	sales  SaleStore
	logger *zap.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(sales SaleStore) *SaleService {
	return &SaleService{sales: sales, logger: util.GetLogger()}
}

// SaleRequest represents a request to create or replace a sale
type SaleRequest struct {
	Amount  int64      `json:"amount" binding:"required,min=1"`
	Channel string     `json:"channel"`
	Note    string     `json:"note"`
	Date    *time.Time `json:"date,omitempty"`
}

// CreateSale records a sale
func (s *SaleService) CreateSale(ctx context.Context, req *SaleRequest) (*models.Sale, error) {
	sale := &models.Sale{
		Date:    time.Now(),
		Amount:  req.Amount,
		Channel: req.Channel,
		Note:    req.Note,
	}
	if req.Date != nil {
		sale.Date = *req.Date
	}
	if sale.Channel == "" {
		sale.Channel = "Shopee"
	}

	if err := s.sales.CreateSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	s.logger.Info("Sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.Int64("amount", sale.Amount),
		zap.String("channel", sale.Channel))
	return sale, nil
}

// ListSales retrieves all sales, newest first
func (s *SaleService) ListSales(ctx context.Context) ([]models.Sale, error) {
	return s.sales.ListSales(ctx)
}

// UpdateSale replaces a sale's fields
func (s *SaleService) UpdateSale(ctx context.Context, id int64, req *SaleRequest) (*models.Sale, error) {
	sale, err := s.sales.GetSaleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, fmt.Errorf("sale %d: %w", id, ErrNotFound)
	}

	sale.Amount = req.Amount
	if req.Channel != "" {
		sale.Channel = req.Channel
	}
	sale.Note = req.Note
	if req.Date != nil {
		sale.Date = *req.Date
	}

	if err := s.sales.UpdateSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}
	return sale, nil
}

// DeleteSale removes a sale
func (s *SaleService) DeleteSale(ctx context.Context, id int64) error {
	sale, err := s.sales.GetSaleByID(ctx, id)
	if err != nil {
		return err
	}
	if sale == nil {
		return fmt.Errorf("sale %d: %w", id, ErrNotFound)
	}
	return s.sales.DeleteSale(ctx, id)
}
