package service

import (
	"context"
	"fmt"
	"sync"

	"purchase-service/internal/models"
	"purchase-service/internal/util"

	"go.uber.org/zap"
)

// ResyncStore is the store surface the resync procedure needs.
// *store.Store implements it.
type ResyncStore interface {
	CountLineItems(ctx context.Context) (int64, error)
	ListAllPurchases(ctx context.Context) ([]models.Purchase, error)
	DeleteAllItems(ctx context.Context) error
}

// ResyncEvents publishes the completion event for a rebuild.
type ResyncEvents interface {
	PublishResyncCompleted(ctx context.Context, event *models.ResyncCompletedEvent) error
}

// ResyncStatus is the live progress record of a rebuild
type ResyncStatus struct {
	InProgress bool  `json:"inProgress"`
	Total      int64 `json:"total"`
	Processed  int64 `json:"processed"`
}

// ResyncService rebuilds the entire item ledger from the purchase history.
// The single-flight guard and the progress counters live in an explicit
// state record owned by this service, not in package globals. The guard is
// process-local: it does not coordinate with the queue worker.
type ResyncService struct {
	store      ResyncStore
	reconciler *Reconciler
	cache      NameCache
	events     ResyncEvents
	logger     *zap.Logger

	mu    sync.Mutex
	state ResyncStatus
}

// NewResyncService creates a resync service. cache may be nil.
func NewResyncService(store ResyncStore, reconciler *Reconciler, cache NameCache, events ResyncEvents) *ResyncService {
	return &ResyncService{
		store:      store,
		reconciler: reconciler,
		cache:      cache,
		events:     events,
		logger:     util.GetLogger(),
	}
}

// Status returns a copy of the current progress record
func (s *ResyncService) Status() ResyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins a full ledger rebuild. It rejects with ErrResyncInProgress
// when one is already running, clears the ledger synchronously, and replays
// the purchase history in the background. There is no cancellation: a run
// goes to completion or to first error.
func (s *ResyncService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state.InProgress {
		s.mu.Unlock()
		return ErrResyncInProgress
	}
	s.state = ResyncStatus{InProgress: true}
	s.mu.Unlock()

	total, err := s.store.CountLineItems(ctx)
	if err != nil {
		s.finish()
		return fmt.Errorf("failed to count line items: %w", err)
	}

	if err := s.store.DeleteAllItems(ctx); err != nil {
		s.finish()
		return fmt.Errorf("failed to clear item ledger: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidateItemNames(ctx); err != nil {
			s.logger.Warn("Name cache invalidation failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	s.state.Total = total
	s.mu.Unlock()

	s.logger.Info("Resync started", zap.Int64("total_line_items", total))

	// The run outlives the triggering request.
	go s.run(context.Background())

	return nil
}

// run replays every purchase, every line item, in stored order through the
// same attribution logic the worker uses. The ledger was just cleared, so
// no reversal is needed and every attributed item was created by this run.
func (s *ResyncService) run(ctx context.Context) {
	defer s.finish()

	purchases, err := s.store.ListAllPurchases(ctx)
	if err != nil {
		s.logger.Error("Resync failed to load purchases", zap.Error(err))
		util.ResyncRunsTotal.WithLabelValues("error").Inc()
		return
	}

	seen := make(map[int64]struct{})
	var processed int64

	for i := range purchases {
		purchase := &purchases[i]
		for j := range purchase.Items {
			item, err := s.reconciler.ReconcileLineItem(ctx, purchase, &purchase.Items[j])
			if err != nil {
				// Halt; the ledger stays partially rebuilt and the
				// caller must rerun the whole operation.
				s.logger.Error("Resync halted",
					zap.Int64("purchase_id", purchase.ID),
					zap.Int("position", j),
					zap.Error(err))
				util.ResyncRunsTotal.WithLabelValues("error").Inc()
				return
			}
			seen[item.ID] = struct{}{}
			processed++
			util.ResyncLineItemsProcessed.Inc()

			s.mu.Lock()
			s.state.Processed = processed
			s.mu.Unlock()
		}
	}

	util.ResyncRunsTotal.WithLabelValues("completed").Inc()
	s.logger.Info("Resync completed",
		zap.Int("purchases", len(purchases)),
		zap.Int64("line_items", processed),
		zap.Int("items_created", len(seen)))

	event := &models.ResyncCompletedEvent{
		BaseEvent:    newBaseEvent(models.EventTypeResyncCompleted),
		Purchases:    len(purchases),
		LineItems:    int(processed),
		ItemsCreated: len(seen),
	}
	if err := s.events.PublishResyncCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ResyncCompleted event", zap.Error(err))
	}
}

func (s *ResyncService) finish() {
	s.mu.Lock()
	s.state.InProgress = false
	s.mu.Unlock()
}
