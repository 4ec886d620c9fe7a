package service

import (
	"context"
	"fmt"
	"strings"

	"purchase-service/internal/matcher"
	"purchase-service/internal/models"
	"purchase-service/internal/util"

	"go.uber.org/zap"
)

// ItemLedger is the canonical item store as seen by the reconciler.
// *store.Store implements it.
type ItemLedger interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetItemByName(ctx context.Context, name string) (*models.Item, error)
	GetItemNames(ctx context.Context) ([]string, error)
	AddItemAttribution(ctx context.Context, itemID int64, entry models.HistoryEntry) error
	RemoveItemAttribution(ctx context.Context, itemID int64, entry models.HistoryEntry) error
}

// LineItemResolutions persists the authoritative resolution of a line item
// back onto its purchase.
type LineItemResolutions interface {
	SetPurchaseItemResolution(ctx context.Context, purchaseID int64, position int, itemID int64, name string) error
}

// NameCache caches the canonical name list read once per reconcile call.
// *redisclient.Client implements it.
type NameCache interface {
	GetItemNames(ctx context.Context) ([]string, bool, error)
	SetItemNames(ctx context.Context, names []string) error
	InvalidateItemNames(ctx context.Context) error
}

// Reconciler resolves noisy line-item names to canonical items and keeps
// the item ledger's aggregates in step with the purchase store. It is the
// only writer of item aggregates.
type Reconciler struct {
	items     ItemLedger
	purchases LineItemResolutions
	cache     NameCache
	threshold float64
	logger    *zap.Logger
}

// NewReconciler creates a reconciler. cache may be nil, in which case every
// candidate read goes to the ledger. threshold is the single knob balancing
// over-merging against under-merging of item identities.
func NewReconciler(items ItemLedger, purchases LineItemResolutions, cache NameCache, threshold float64) *Reconciler {
	return &Reconciler{
		items:     items,
		purchases: purchases,
		cache:     cache,
		threshold: threshold,
		logger:    util.GetLogger(),
	}
}

// Resolve finds the existing item whose name best matches the input, or nil
// when no candidate clears the threshold. Blank input resolves to nil rather
// than matching spuriously. The threshold comparison is inclusive.
func (r *Reconciler) Resolve(ctx context.Context, name string) (*models.Item, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}

	names, err := r.candidateNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate names: %w", err)
	}

	best := matcher.FindBestMatch(name, names)
	if best.Score < r.threshold {
		return nil, nil
	}

	return r.items.GetItemByName(ctx, best.Name)
}

// candidateNames reads the canonical name list, preferring the cache. Cache
// failures degrade to the ledger instead of failing the reconcile.
func (r *Reconciler) candidateNames(ctx context.Context) ([]string, error) {
	if r.cache != nil {
		names, ok, err := r.cache.GetItemNames(ctx)
		if err != nil {
			r.logger.Warn("Name cache read failed, falling back to store", zap.Error(err))
		} else if ok {
			return names, nil
		}
	}

	names, err := r.items.GetItemNames(ctx)
	if err != nil {
		return nil, err
	}

	if r.cache != nil && len(names) > 0 {
		if err := r.cache.SetItemNames(ctx, names); err != nil {
			r.logger.Warn("Name cache write failed", zap.Error(err))
		}
	}
	return names, nil
}

// ReconcileLineItem attributes one line item to a canonical item, creating
// the item when nothing matches. The ledger update, the history entry, and
// the line item's stored resolution are all visible once this returns; it
// must be called exactly once per (purchase, line item) between reversals.
func (r *Reconciler) ReconcileLineItem(ctx context.Context, purchase *models.Purchase, line *models.PurchaseItem) (*models.Item, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.ReconcileLineItem")
	defer span.End()

	item, err := r.Resolve(ctx, line.Name)
	if err != nil {
		return nil, err
	}

	if item == nil {
		item = &models.Item{Name: strings.TrimSpace(line.Name)}
		if item.Name == "" {
			return nil, fmt.Errorf("%w: blank line item name", ErrInvalidInput)
		}
		if err := r.items.CreateItem(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to create item %q: %w", item.Name, err)
		}
		if r.cache != nil {
			if err := r.cache.InvalidateItemNames(ctx); err != nil {
				r.logger.Warn("Name cache invalidation failed", zap.Error(err))
			}
		}
		util.ItemsCreatedTotal.Inc()
		r.logger.Info("Created canonical item",
			zap.Int64("item_id", item.ID),
			zap.String("name", item.Name))
	} else {
		util.ItemsMatchedTotal.Inc()
	}

	entry := models.HistoryEntry{
		Date:         purchase.Date,
		Store:        purchase.Store,
		PricePerUnit: line.Price,
		Quantity:     line.Quantity,
		Total:        line.Total,
	}
	if err := r.items.AddItemAttribution(ctx, item.ID, entry); err != nil {
		return nil, fmt.Errorf("failed to attribute line item: %w", err)
	}

	// Adopt the canonical spelling and persist the authoritative link.
	line.ItemID = &item.ID
	line.Name = item.Name
	if err := r.purchases.SetPurchaseItemResolution(ctx, purchase.ID, line.Position, item.ID, item.Name); err != nil {
		return nil, fmt.Errorf("failed to persist line item resolution: %w", err)
	}

	item.TotalQuantity += int64(entry.Quantity)
	item.TotalSpent += entry.Total
	return item, nil
}

// ReverseLineItem subtracts a line item's contribution from its attributed
// item and removes the matching history entry. Already-consistent-by-absence
// states are no-ops: a missing item id, a vanished item, or an absent
// history entry (the attribution was never applied) all leave the ledger
// untouched.
func (r *Reconciler) ReverseLineItem(ctx context.Context, purchase *models.Purchase, line *models.PurchaseItem) error {
	if line.ItemID == nil {
		return nil
	}

	item, err := r.items.GetItemByID(ctx, *line.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}

	entry := models.HistoryEntry{
		Store:        purchase.Store,
		PricePerUnit: line.Price,
		Quantity:     line.Quantity,
		Total:        line.Total,
	}
	if err := r.items.RemoveItemAttribution(ctx, item.ID, entry); err != nil {
		return fmt.Errorf("failed to reverse line item: %w", err)
	}
	return nil
}
