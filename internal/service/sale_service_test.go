package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"purchase-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSales struct {
	nextID int64
	sales  map[int64]*models.Sale
}

func newFakeSales() *fakeSales {
	return &fakeSales{sales: make(map[int64]*models.Sale)}
}

func (f *fakeSales) CreateSale(ctx context.Context, sale *models.Sale) error {
	f.nextID++
	sale.ID = f.nextID
	copied := *sale
	f.sales[sale.ID] = &copied
	return nil
}

func (f *fakeSales) GetSaleByID(ctx context.Context, id int64) (*models.Sale, error) {
	sale, ok := f.sales[id]
	if !ok {
		return nil, nil
	}
	copied := *sale
	return &copied, nil
}

func (f *fakeSales) ListSales(ctx context.Context) ([]models.Sale, error) {
	out := make([]models.Sale, 0, len(f.sales))
	for _, sale := range f.sales {
		out = append(out, *sale)
	}
	return out, nil
}

func (f *fakeSales) UpdateSale(ctx context.Context, sale *models.Sale) error {
	if _, ok := f.sales[sale.ID]; !ok {
		return fmt.Errorf("sale %d not found", sale.ID)
	}
	copied := *sale
	f.sales[sale.ID] = &copied
	return nil
}

func (f *fakeSales) DeleteSale(ctx context.Context, id int64) error {
	delete(f.sales, id)
	return nil
}

func TestCreateSaleDefaults(t *testing.T) {
	svc := NewSaleService(newFakeSales())

	sale, err := svc.CreateSale(context.Background(), &SaleRequest{Amount: 50000})
	require.NoError(t, err)
	assert.NotZero(t, sale.ID)
	assert.Equal(t, "Shopee", sale.Channel)
	assert.WithinDuration(t, time.Now(), sale.Date, time.Minute)
}

func TestUpdateSaleNotFound(t *testing.T) {
	svc := NewSaleService(newFakeSales())

	_, err := svc.UpdateSale(context.Background(), 5, &SaleRequest{Amount: 1000})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSaleKeepsChannelWhenOmitted(t *testing.T) {
	sales := newFakeSales()
	svc := NewSaleService(sales)
	ctx := context.Background()

	created, err := svc.CreateSale(ctx, &SaleRequest{Amount: 50000, Channel: "Tokopedia"})
	require.NoError(t, err)

	updated, err := svc.UpdateSale(ctx, created.ID, &SaleRequest{Amount: 60000})
	require.NoError(t, err)
	assert.Equal(t, int64(60000), updated.Amount)
	assert.Equal(t, "Tokopedia", updated.Channel)
}

func TestDeleteSaleNotFound(t *testing.T) {
	svc := NewSaleService(newFakeSales())
	assert.ErrorIs(t, svc.DeleteSale(context.Background(), 3), ErrNotFound)
}
