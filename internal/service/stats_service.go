package service

import (
	"context"
	"fmt"

	"purchase-service/internal/models"
	"purchase-service/internal/store"
)

// StatsStore is the raw-totals query surface. *store.Store implements it.
type StatsStore interface {
	GetPurchaseTotals(ctx context.Context) (*store.PurchaseTotals, error)
	GetSaleTotals(ctx context.Context) (*store.SaleTotals, error)
	GetTotalItemQuantity(ctx context.Context) (int64, error)
	GetTopItem(ctx context.Context) (*models.Item, error)
}

// Overview is the dashboard's raw-totals payload
type Overview struct {
	TotalSpent       int64       `json:"total_spent"`
	TotalPurchases   int64       `json:"total_purchases"`
	TotalSalesCount  int64       `json:"total_sales_count"`
	TotalSalesValue  int64       `json:"total_sales_value"`
	TotalNet         int64       `json:"total_net"`
	TotalItemsBought int64       `json:"total_items_bought"`
	Fees             FeeTotals   `json:"fees"`
	TopItem          TopItemStat `json:"top_item"`
}

type FeeTotals struct {
	Shipping int64 `json:"shipping"`
	Admin    int64 `json:"admin"`
}

type TopItemStat struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// StatsService computes dashboard raw totals. Quantity figures come from the
// item ledger, so they reflect reconciled state, not in-flight jobs.
type StatsService struct {
	store StatsStore
}

// NewStatsService creates a new stats service
func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store}
}

// Overview assembles the dashboard totals
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	purchases, err := s.store.GetPurchaseTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase totals: %w", err)
	}

	sales, err := s.store.GetSaleTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale totals: %w", err)
	}

	quantity, err := s.store.GetTotalItemQuantity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load item quantity: %w", err)
	}

	overview := &Overview{
		TotalSpent:       purchases.TotalSpent,
		TotalPurchases:   purchases.Count,
		TotalSalesCount:  sales.Count,
		TotalSalesValue:  sales.TotalValue,
		TotalNet:         purchases.TotalSpent - sales.TotalValue,
		TotalItemsBought: quantity,
		Fees: FeeTotals{
			Shipping: purchases.ShippingFees,
			Admin:    purchases.AdminFees,
		},
		TopItem: TopItemStat{Name: "-"},
	}

	top, err := s.store.GetTopItem(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load top item: %w", err)
	}
	if top != nil {
		overview.TopItem = TopItemStat{Name: top.Name, Quantity: top.TotalQuantity}
	}

	return overview, nil
}
