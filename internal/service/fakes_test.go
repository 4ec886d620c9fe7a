package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"purchase-service/internal/models"
)

// fakeLedger is an in-memory ItemLedger.
type fakeLedger struct {
	mu      sync.Mutex
	nextID  int64
	items   map[int64]*models.Item
	history map[int64][]models.HistoryEntry
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		items:   make(map[int64]*models.Item),
		history: make(map[int64][]models.HistoryEntry),
	}
}

func (f *fakeLedger) CreateItem(ctx context.Context, item *models.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.Name == item.Name {
			return fmt.Errorf("duplicate item name %q", item.Name)
		}
	}
	f.nextID++
	item.ID = f.nextID
	f.items[item.ID] = &models.Item{ID: item.ID, Name: item.Name}
	return nil
}

func (f *fakeLedger) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (f *fakeLedger) GetItemByName(ctx context.Context, name string) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.Name == name {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) GetItemNames(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.items))
	for _, item := range f.items {
		names = append(names, item.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeLedger) AddItemAttribution(ctx context.Context, itemID int64, entry models.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return fmt.Errorf("item %d not found", itemID)
	}
	item.TotalQuantity += int64(entry.Quantity)
	item.TotalSpent += entry.Total
	f.history[itemID] = append(f.history[itemID], entry)
	return nil
}

func (f *fakeLedger) RemoveItemAttribution(ctx context.Context, itemID int64, entry models.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return fmt.Errorf("item %d not found", itemID)
	}
	entries := f.history[itemID]
	for i, h := range entries {
		if h.Store == entry.Store && h.PricePerUnit == entry.PricePerUnit && h.Quantity == entry.Quantity {
			item.TotalQuantity -= int64(entry.Quantity)
			item.TotalSpent -= entry.Total
			f.history[itemID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	// No matching entry means the contribution was never applied; like the
	// real store, leave the aggregates untouched.
	return nil
}

func (f *fakeLedger) DeleteAllItems(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = make(map[int64]*models.Item)
	f.history = make(map[int64][]models.HistoryEntry)
	f.nextID = 0
	return nil
}

func (f *fakeLedger) itemByName(name string) *models.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items {
		if item.Name == name {
			copied := *item
			return &copied
		}
	}
	return nil
}

func (f *fakeLedger) historyFor(itemID int64) []models.HistoryEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.HistoryEntry(nil), f.history[itemID]...)
}

// fakePurchases is an in-memory PurchaseStore and LineItemResolutions.
type fakePurchases struct {
	mu        sync.Mutex
	nextID    int64
	purchases map[int64]*models.Purchase

	// listGate, when set, blocks ListAllPurchases until closed.
	listGate chan struct{}
}

func newFakePurchases() *fakePurchases {
	return &fakePurchases{purchases: make(map[int64]*models.Purchase)}
}

func (f *fakePurchases) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	purchase.ID = f.nextID
	f.purchases[purchase.ID] = clonePurchase(purchase)
	return nil
}

func (f *fakePurchases) UpdatePurchase(ctx context.Context, purchase *models.Purchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.purchases[purchase.ID]; !ok {
		return fmt.Errorf("purchase %d not found", purchase.ID)
	}
	f.purchases[purchase.ID] = clonePurchase(purchase)
	return nil
}

func (f *fakePurchases) GetPurchaseByID(ctx context.Context, id int64) (*models.Purchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	purchase, ok := f.purchases[id]
	if !ok {
		return nil, nil
	}
	return clonePurchase(purchase), nil
}

func (f *fakePurchases) ListPurchases(ctx context.Context, limit, offset int) ([]models.Purchase, int64, error) {
	all := f.ordered()
	// Newest first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakePurchases) ListAllPurchases(ctx context.Context) ([]models.Purchase, error) {
	f.mu.Lock()
	gate := f.listGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.ordered(), nil
}

func (f *fakePurchases) DeletePurchase(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.purchases, id)
	return nil
}

func (f *fakePurchases) SetPurchaseItemResolution(ctx context.Context, purchaseID int64, position int, itemID int64, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	purchase, ok := f.purchases[purchaseID]
	if !ok {
		return fmt.Errorf("purchase %d not found", purchaseID)
	}
	for i := range purchase.Items {
		if purchase.Items[i].Position == position {
			id := itemID
			purchase.Items[i].ItemID = &id
			purchase.Items[i].Name = name
			return nil
		}
	}
	return fmt.Errorf("purchase %d has no line item at position %d", purchaseID, position)
}

func (f *fakePurchases) CountLineItems(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, purchase := range f.purchases {
		count += int64(len(purchase.Items))
	}
	return count, nil
}

func (f *fakePurchases) ordered() []models.Purchase {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.purchases))
	for id := range f.purchases {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]models.Purchase, 0, len(ids))
	for _, id := range ids {
		out = append(out, *clonePurchase(f.purchases[id]))
	}
	return out
}

func clonePurchase(p *models.Purchase) *models.Purchase {
	copied := *p
	copied.Items = make([]models.PurchaseItem, len(p.Items))
	for i, item := range p.Items {
		copied.Items[i] = item
		if item.ItemID != nil {
			id := *item.ItemID
			copied.Items[i].ItemID = &id
		}
	}
	return &copied
}

// fakeJobs is an in-memory JobQueue.
type fakeJobs struct {
	mu   sync.Mutex
	jobs map[int64]*models.MatchingJob
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[int64]*models.MatchingJob)}
}

func (f *fakeJobs) UpsertJob(ctx context.Context, purchaseID int64, totalItems int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[purchaseID] = &models.MatchingJob{
		PurchaseID: purchaseID,
		TotalItems: totalItems,
		Status:     models.JobStatusPending,
	}
	return nil
}

func (f *fakeJobs) setStatus(purchaseID int64, status models.JobStatus, processed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[purchaseID]; ok {
		job.Status = status
		job.Processed = processed
	}
}

func (f *fakeJobs) GetJobByPurchaseID(ctx context.Context, purchaseID int64) (*models.MatchingJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[purchaseID]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

// fakeCache is an in-memory NameCache that counts invalidations.
type fakeCache struct {
	mu            sync.Mutex
	names         []string
	invalidations int
	readErr       error
}

func (f *fakeCache) GetItemNames(ctx context.Context) ([]string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, false, f.readErr
	}
	if f.names == nil {
		return nil, false, nil
	}
	return append([]string(nil), f.names...), true, nil
}

func (f *fakeCache) SetItemNames(ctx context.Context, names []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append([]string(nil), names...)
	return nil
}

func (f *fakeCache) InvalidateItemNames(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = nil
	f.invalidations++
	return nil
}

// fakeEvents records every published event.
type fakeEvents struct {
	mu        sync.Mutex
	created   []*models.PurchaseCreatedEvent
	updated   []*models.PurchaseUpdatedEvent
	deleted   []*models.PurchaseDeletedEvent
	resynced  []*models.ResyncCompletedEvent
}

func (f *fakeEvents) PublishPurchaseCreated(ctx context.Context, event *models.PurchaseCreatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, event)
	return nil
}

func (f *fakeEvents) PublishPurchaseUpdated(ctx context.Context, event *models.PurchaseUpdatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, event)
	return nil
}

func (f *fakeEvents) PublishPurchaseDeleted(ctx context.Context, event *models.PurchaseDeletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, event)
	return nil
}

func (f *fakeEvents) PublishResyncCompleted(ctx context.Context, event *models.ResyncCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resynced = append(f.resynced, event)
	return nil
}

func (f *fakeEvents) resyncEvents() []*models.ResyncCompletedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.ResyncCompletedEvent(nil), f.resynced...)
}

// fakeResyncStore combines the purchase and item fakes into the surface the
// resync procedure needs.
type fakeResyncStore struct {
	*fakePurchases
	*fakeLedger
}
