package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"purchase-service/internal/models"
	"purchase-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseStore is the purchase persistence as seen by the service.
// *store.Store implements it.
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, purchase *models.Purchase) error
	UpdatePurchase(ctx context.Context, purchase *models.Purchase) error
	GetPurchaseByID(ctx context.Context, id int64) (*models.Purchase, error)
	ListPurchases(ctx context.Context, limit, offset int) ([]models.Purchase, int64, error)
	DeletePurchase(ctx context.Context, id int64) error
}

// JobQueue is the matching-queue surface used on the request path.
type JobQueue interface {
	UpsertJob(ctx context.Context, purchaseID int64, totalItems int) error
	GetJobByPurchaseID(ctx context.Context, purchaseID int64) (*models.MatchingJob, error)
}

// PurchaseEvents publishes purchase lifecycle events.
// *broker.EventPublisher implements it.
type PurchaseEvents interface {
	PublishPurchaseCreated(ctx context.Context, event *models.PurchaseCreatedEvent) error
	PublishPurchaseUpdated(ctx context.Context, event *models.PurchaseUpdatedEvent) error
	PublishPurchaseDeleted(ctx context.Context, event *models.PurchaseDeletedEvent) error
}

// PurchaseService handles purchase recording and the bookkeeping around the
// matching queue. It never mutates item aggregates itself: creation and edit
// only assign provisional identities, the worker's reconcile pass is
// authoritative.
type PurchaseService struct {
	purchases  PurchaseStore
	jobs       JobQueue
	reconciler *Reconciler
	events     PurchaseEvents
	logger     *zap.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(purchases PurchaseStore, jobs JobQueue, reconciler *Reconciler, events PurchaseEvents) *PurchaseService {
	return &PurchaseService{
		purchases:  purchases,
		jobs:       jobs,
		reconciler: reconciler,
		events:     events,
		logger:     util.GetLogger(),
	}
}

// LineItemRequest is one line item in a purchase request
type LineItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Price    int64  `json:"price" binding:"min=0"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// PurchaseRequest represents a request to create or replace a purchase
type PurchaseRequest struct {
	Store       string            `json:"store" binding:"required"`
	Date        *time.Time        `json:"date,omitempty"`
	AdminFee    int64             `json:"admin_fee" binding:"min=0"`
	ShippingFee int64             `json:"shipping_fee" binding:"min=0"`
	Items       []LineItemRequest `json:"items" binding:"required,min=1,dive"`
}

// MatchingStatus reports a purchase's reconciliation progress
type MatchingStatus struct {
	Done      bool `json:"done"`
	Total     int  `json:"total"`
	Processed int  `json:"processed"`
}

// CreatePurchase records a purchase and enqueues its matching job
func (s *PurchaseService) CreatePurchase(ctx context.Context, req *PurchaseRequest) (*models.Purchase, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.CreatePurchase")
	defer span.End()

	purchase, err := s.buildPurchase(ctx, req, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.purchases.CreatePurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	if err := s.jobs.UpsertJob(ctx, purchase.ID, len(purchase.Items)); err != nil {
		return nil, fmt.Errorf("failed to enqueue matching job: %w", err)
	}

	util.PurchasesCreatedTotal.Inc()
	s.logger.Info("Purchase created",
		zap.Int64("purchase_id", purchase.ID),
		zap.String("store", purchase.Store),
		zap.Int("items", len(purchase.Items)))

	event := &models.PurchaseCreatedEvent{
		BaseEvent:  newBaseEvent(models.EventTypePurchaseCreated),
		PurchaseID: purchase.ID,
		Store:      purchase.Store,
		Total:      purchase.Total,
		ItemCount:  len(purchase.Items),
	}
	if err := s.events.PublishPurchaseCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish PurchaseCreated event", zap.Error(err))
	}

	return purchase, nil
}

// UpdatePurchase replaces a purchase's contents. The replacement is built
// and validated before anything is rolled back, so a bad request leaves the
// ledger and the old purchase intact. Only line items the worker has applied
// are reversed, then the job is re-enqueued from scratch so the worker
// re-resolves everything without double counting.
func (s *PurchaseService) UpdatePurchase(ctx context.Context, id int64, req *PurchaseRequest) (*models.Purchase, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.UpdatePurchase")
	defer span.End()

	original, err := s.purchases.GetPurchaseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, fmt.Errorf("purchase %d: %w", id, ErrNotFound)
	}

	purchase, err := s.buildPurchase(ctx, req, original.Date)
	if err != nil {
		return nil, err
	}
	purchase.ID = id

	if err := s.reverseApplied(ctx, original); err != nil {
		return nil, fmt.Errorf("failed to roll back previous attribution: %w", err)
	}

	if err := s.purchases.UpdatePurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to update purchase: %w", err)
	}

	if err := s.jobs.UpsertJob(ctx, purchase.ID, len(purchase.Items)); err != nil {
		return nil, fmt.Errorf("failed to re-enqueue matching job: %w", err)
	}

	util.PurchasesUpdatedTotal.Inc()
	s.logger.Info("Purchase updated",
		zap.Int64("purchase_id", purchase.ID),
		zap.Int("items", len(purchase.Items)))

	event := &models.PurchaseUpdatedEvent{
		BaseEvent:  newBaseEvent(models.EventTypePurchaseUpdated),
		PurchaseID: purchase.ID,
		Store:      purchase.Store,
		Total:      purchase.Total,
		ItemCount:  len(purchase.Items),
	}
	if err := s.events.PublishPurchaseUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish PurchaseUpdated event", zap.Error(err))
	}

	return purchase, nil
}

// DeletePurchase reverses the purchase's applied ledger contribution and
// removes it. The matching job goes with the purchase row.
func (s *PurchaseService) DeletePurchase(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "PurchaseService.DeletePurchase")
	defer span.End()

	purchase, err := s.purchases.GetPurchaseByID(ctx, id)
	if err != nil {
		return err
	}
	if purchase == nil {
		return fmt.Errorf("purchase %d: %w", id, ErrNotFound)
	}

	if err := s.reverseApplied(ctx, purchase); err != nil {
		return fmt.Errorf("failed to roll back attribution: %w", err)
	}

	if err := s.purchases.DeletePurchase(ctx, id); err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}

	util.PurchasesDeletedTotal.Inc()
	s.logger.Info("Purchase deleted", zap.Int64("purchase_id", id))

	event := &models.PurchaseDeletedEvent{
		BaseEvent:  newBaseEvent(models.EventTypePurchaseDeleted),
		PurchaseID: id,
	}
	if err := s.events.PublishPurchaseDeleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish PurchaseDeleted event", zap.Error(err))
	}

	return nil
}

// GetPurchase retrieves a purchase by ID
func (s *PurchaseService) GetPurchase(ctx context.Context, id int64) (*models.Purchase, error) {
	purchase, err := s.purchases.GetPurchaseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, fmt.Errorf("purchase %d: %w", id, ErrNotFound)
	}
	return purchase, nil
}

// ListPurchases retrieves one page of purchases, newest first
func (s *PurchaseService) ListPurchases(ctx context.Context, page, limit int) ([]models.Purchase, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.purchases.ListPurchases(ctx, limit, (page-1)*limit)
}

// GetMatchingStatus reports reconciliation progress for a purchase. No job
// row means there is nothing left to do.
func (s *PurchaseService) GetMatchingStatus(ctx context.Context, purchaseID int64) (*MatchingStatus, error) {
	job, err := s.jobs.GetJobByPurchaseID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return &MatchingStatus{Done: true}, nil
	}
	return &MatchingStatus{
		Done:      job.Status == models.JobStatusDone,
		Total:     job.TotalItems,
		Processed: job.Processed,
	}, nil
}

// reverseApplied reverses only the line items the worker has actually
// applied to the ledger. Provisional resolutions from the request path carry
// an item id but no history entry or aggregates, so reversing them would
// subtract quantities that were never added -- and a colliding match key
// could remove another purchase's history row.
func (s *PurchaseService) reverseApplied(ctx context.Context, purchase *models.Purchase) error {
	applied, err := s.appliedLineCount(ctx, purchase)
	if err != nil {
		return err
	}
	if applied > len(purchase.Items) {
		applied = len(purchase.Items)
	}
	for i := 0; i < applied; i++ {
		if err := s.reconciler.ReverseLineItem(ctx, purchase, &purchase.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

// appliedLineCount reads the job to learn how far the worker got: a pending
// job applied nothing, a done job applied everything, a processing or
// errored job applied exactly the processed prefix. A missing job row is
// treated as fully applied; reversal of a never-applied line is a no-op at
// the store anyway.
func (s *PurchaseService) appliedLineCount(ctx context.Context, purchase *models.Purchase) (int, error) {
	job, err := s.jobs.GetJobByPurchaseID(ctx, purchase.ID)
	if err != nil {
		return 0, err
	}
	if job == nil {
		return len(purchase.Items), nil
	}
	switch job.Status {
	case models.JobStatusPending:
		return 0, nil
	case models.JobStatusDone:
		return len(purchase.Items), nil
	default:
		return job.Processed, nil
	}
}

// buildPurchase assembles a purchase from a request: line totals, the full
// total including fees, and a provisional identity per line item. The
// provisional pass fills item_id and the canonical spelling for display
// only; aggregates are untouched until the worker runs.
func (s *PurchaseService) buildPurchase(ctx context.Context, req *PurchaseRequest, defaultDate time.Time) (*models.Purchase, error) {
	date := defaultDate
	if req.Date != nil {
		date = *req.Date
	}

	purchase := &models.Purchase{
		Date:        date,
		Store:       strings.TrimSpace(req.Store),
		AdminFee:    req.AdminFee,
		ShippingFee: req.ShippingFee,
		Items:       make([]models.PurchaseItem, 0, len(req.Items)),
	}
	if purchase.Store == "" {
		return nil, fmt.Errorf("%w: blank store name", ErrInvalidInput)
	}

	var itemsTotal int64
	for i, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("%w: blank name in line item %d", ErrInvalidInput, i)
		}
		lineTotal := item.Price * int64(item.Quantity)
		itemsTotal += lineTotal

		purchase.Items = append(purchase.Items, models.PurchaseItem{
			Position: i,
			Name:     strings.TrimSpace(item.Name),
			Price:    item.Price,
			Quantity: item.Quantity,
			Total:    lineTotal,
		})
	}
	purchase.Total = itemsTotal + purchase.AdminFee + purchase.ShippingFee

	for i := range purchase.Items {
		line := &purchase.Items[i]
		match, err := s.reconciler.Resolve(ctx, line.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve line item %q: %w", line.Name, err)
		}
		if match != nil {
			id := match.ID
			line.ItemID = &id
			line.Name = match.Name
		}
	}

	return purchase, nil
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
