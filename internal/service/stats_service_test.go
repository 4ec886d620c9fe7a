package service

import (
	"context"
	"testing"

	"purchase-service/internal/models"
	"purchase-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	purchases store.PurchaseTotals
	sales     store.SaleTotals
	quantity  int64
	top       *models.Item
}

func (f *fakeStats) GetPurchaseTotals(ctx context.Context) (*store.PurchaseTotals, error) {
	totals := f.purchases
	return &totals, nil
}

func (f *fakeStats) GetSaleTotals(ctx context.Context) (*store.SaleTotals, error) {
	totals := f.sales
	return &totals, nil
}

func (f *fakeStats) GetTotalItemQuantity(ctx context.Context) (int64, error) {
	return f.quantity, nil
}

func (f *fakeStats) GetTopItem(ctx context.Context) (*models.Item, error) {
	return f.top, nil
}

func TestOverviewAssemblesTotals(t *testing.T) {
	svc := NewStatsService(&fakeStats{
		purchases: store.PurchaseTotals{
			Count:        4,
			TotalSpent:   500000,
			ShippingFees: 20000,
			AdminFees:    4000,
		},
		sales:    store.SaleTotals{Count: 2, TotalValue: 150000},
		quantity: 17,
		top:      &models.Item{Name: "Milk 1L", TotalQuantity: 9},
	})

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(500000), overview.TotalSpent)
	assert.Equal(t, int64(4), overview.TotalPurchases)
	assert.Equal(t, int64(2), overview.TotalSalesCount)
	assert.Equal(t, int64(150000), overview.TotalSalesValue)
	assert.Equal(t, int64(350000), overview.TotalNet)
	assert.Equal(t, int64(17), overview.TotalItemsBought)
	assert.Equal(t, int64(20000), overview.Fees.Shipping)
	assert.Equal(t, int64(4000), overview.Fees.Admin)
	assert.Equal(t, "Milk 1L", overview.TopItem.Name)
	assert.Equal(t, int64(9), overview.TopItem.Quantity)
}

func TestOverviewEmptyLedger(t *testing.T) {
	svc := NewStatsService(&fakeStats{})

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "-", overview.TopItem.Name)
	assert.Zero(t, overview.TopItem.Quantity)
}
